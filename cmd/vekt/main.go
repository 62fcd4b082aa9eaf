// Command vekt implements a Git-like version-control workflow for
// safetensors model files: decomposing a model into content-addressed
// tensor blobs plus a small JSON manifest, so that model evolution can be
// tracked, diffed, and pushed/pulled like any other versioned artifact.
package main

import "os"

func main() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

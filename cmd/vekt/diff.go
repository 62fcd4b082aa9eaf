package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Khushiyant/vekt/manifest"
)

// DiffCmd compares two manifests and prints a human-readable summary of
// added, removed, modified and unchanged tensors plus deduplication stats.
var DiffCmd = &cobra.Command{
	Use:   "diff <old> <new>",
	Short: "compare two manifests",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		oldManifest, err := readManifest(args[0])
		if err != nil {
			return err
		}
		newManifest, err := readManifest(args[1])
		if err != nil {
			return err
		}

		oldManifest.PrintDiff(cmd.OutOrStdout(), newManifest)
		return nil
	},
}

func readManifest(path string) (*manifest.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return manifest.Parse(data)
}

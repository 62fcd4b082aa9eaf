package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Khushiyant/vekt/manifest"
)

var restoreLayers string

func init() {
	RestoreCmd.Flags().StringVar(&restoreLayers, "layers", "", "comma-separated substrings; only tensors whose name contains one are restored")
}

// RestoreCmd rebuilds a safetensors file from a manifest and the blob store.
// The output path is derived from the manifest's file name, stripping a
// trailing ".vekt.json" or ".json" and appending ".safetensors".
var RestoreCmd = &cobra.Command{
	Use:   "restore <manifest>",
	Short: "reconstruct a safetensors file from a manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manifestPath := args[0]

		data, err := os.ReadFile(manifestPath)
		if err != nil {
			return err
		}
		m, err := manifest.Parse(data)
		if err != nil {
			return err
		}

		_, s, err := openRepo()
		if err != nil {
			return err
		}

		outputPath := restoreOutputPath(manifestPath)
		fmt.Fprintf(cmd.OutOrStdout(), "Restoring to %s...\n", outputPath)
		if restoreLayers != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Partial restore: filtering layers containing %q\n", restoreLayers)
		}

		filter := manifest.ParseLayerFilter(restoreLayers)
		if err := manifest.Restore(context.Background(), m, s, outputPath, filter); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Restoration complete!")
		return nil
	},
}

func restoreOutputPath(manifestPath string) string {
	dir := filepath.Dir(manifestPath)
	base := filepath.Base(manifestPath)
	stem := strings.TrimSuffix(strings.TrimSuffix(base, ".vekt.json"), ".json")
	if stem == base {
		stem = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return filepath.Join(dir, stem+".safetensors")
}

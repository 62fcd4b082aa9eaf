package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Khushiyant/vekt/repo"
	"github.com/Khushiyant/vekt/safetensors"
)

var addCompress bool

func init() {
	AddCmd.Flags().BoolVar(&addCompress, "compress", false, "zstd-compress blobs that shrink when compressed")
}

// AddCmd archives a safetensors file into the repository's blob store and
// writes a manifest alongside it.
var AddCmd = &cobra.Command{
	Use:   "add <path>",
	Short: "archive a safetensors file into content-addressed blobs and a manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if err := repo.ValidatePathSafe(path); err != nil {
			return err
		}
		if err := repo.ValidateFileExists(path); err != nil {
			return err
		}

		root, s, err := openRepo()
		if err != nil {
			return err
		}

		lock, err := repo.AcquireLock(root)
		if err != nil {
			return err
		}
		defer lock.Release()

		f, err := safetensors.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		ctx := context.Background()
		m, err := safetensors.Ingest(ctx, f, s, !addCompress)
		if err != nil {
			return err
		}

		// When --compress is set, ingest skips the plain blob write above
		// and every tensor's bytes are written through the compressing
		// path instead, deduplicating identical compressed payloads the
		// same way the plain store does for raw ones.
		if addCompress {
			for name := range m.Tensors {
				slice, _, err := f.TensorSlice(name)
				if err != nil {
					return err
				}
				if _, _, err := s.WriteAtomicCompressed(ctx, slice); err != nil {
					return fmt.Errorf("compressing blob for tensor %q: %w", name, err)
				}
			}
		}

		manifestPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".vekt.json"
		pretty, err := m.Pretty()
		if err != nil {
			return err
		}
		if err := writeManifestFile(manifestPath, pretty); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Archived %d tensor(s) into %s\n", len(m.Tensors), manifestPath)
		return nil
	},
}

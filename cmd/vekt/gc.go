package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Khushiyant/vekt/gc"
	"github.com/Khushiyant/vekt/repo"
)

// GCCmd deletes every blob not referenced by a manifest reachable from the
// working tree or the host VCS's history.
var GCCmd = &cobra.Command{
	Use:   "gc",
	Short: "delete blobs unreferenced by any reachable manifest",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, s, err := openRepo()
		if err != nil {
			return err
		}

		lock, err := repo.AcquireLock(root)
		if err != nil {
			return err
		}
		defer lock.Release()

		fmt.Fprintf(cmd.OutOrStdout(), "Running garbage collection on %s...\n", s.Root())
		stats, err := gc.Run(context.Background(), root, s)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "GC complete. Deleted: %d, Kept: %d\n", stats.Deleted, stats.Kept)
		return nil
	},
}

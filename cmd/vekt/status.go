package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Khushiyant/vekt/repo"
)

// StatusCmd is a read-only operation: it reports the repository's configured
// remotes without acquiring the exclusive lock.
var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "show repository configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := repo.FindRoot()
		if err != nil {
			return err
		}
		cfg, err := repo.LoadConfig(root)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "vekt repository:", root)
		fmt.Fprintln(cmd.OutOrStdout(), "Remotes:")
		if len(cfg.Remotes) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "  (none configured)")
		}
		for name, url := range cfg.Remotes {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s -> %s\n", name, url)
		}
		return nil
	},
}

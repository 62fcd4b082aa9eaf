package main

import (
	"fmt"

	"github.com/spf13/cobra"

	vekt "github.com/Khushiyant/vekt"
	"github.com/Khushiyant/vekt/repo"
)

func init() {
	RemoteCmd.AddCommand(remoteAddCmd)
	RemoteCmd.AddCommand(remoteListCmd)
	RemoteCmd.AddCommand(remoteRemoveCmd)
}

// RemoteCmd groups the repository's remote-configuration subcommands.
var RemoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "manage named remotes",
}

var remoteAddCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: "add or overwrite a named remote",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, url := args[0], args[1]
		if _, err := repo.ValidateS3URL(url); err != nil {
			return err
		}

		root, err := repo.FindRoot()
		if err != nil {
			return err
		}
		cfg, err := repo.LoadConfig(root)
		if err != nil {
			return err
		}
		cfg.AddRemote(name, url)
		if err := cfg.Save(root); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Added remote %s -> %s\n", name, url)
		return nil
	},
}

var remoteListCmd = &cobra.Command{
	Use:   "list",
	Short: "list configured remotes",
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
		for name, url := range cfg.Remotes {
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", name, url)
		}
		return nil
	},
}

var remoteRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "remove a named remote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		root, err := repo.FindRoot()
		if err != nil {
			return err
		}
		cfg, err := repo.LoadConfig(root)
		if err != nil {
			return err
		}
		if !cfg.RemoveRemote(name) {
			return vekt.ErrRemoteNotFound{Name: name}
		}
		if err := cfg.Save(root); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Removed remote %s\n", name)
		return nil
	},
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	vekt "github.com/Khushiyant/vekt"
	"github.com/Khushiyant/vekt/remote"
	"github.com/Khushiyant/vekt/repo"
)

// PullCmd downloads every manifest in the current directory from a named
// remote (defaulting to "origin"), overwriting the local copy, plus any
// blob it references that is not already present locally.
var PullCmd = &cobra.Command{
	Use:   "pull [remote]",
	Short: "pull manifests and blobs from a remote",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		remoteName := "origin"
		if len(args) == 1 {
			remoteName = args[0]
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

		cfg, err := repo.LoadConfig(root)
		if err != nil {
			return err
		}
		url, ok := cfg.Remotes[remoteName]
		if !ok {
			return vekt.ErrRemoteNotFound{Name: remoteName}
		}

		backend, err := backendForURL(url)
		if err != nil {
			return err
		}

		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		names, err := manifestFilesInDir(cwd)
		if err != nil {
			return err
		}

		ctx := context.Background()
		for _, name := range names {
			fmt.Fprintf(cmd.OutOrStdout(), "Processing manifest: %s\n", name)
			m, err := remote.Pull(ctx, backend, s, name)
			if err != nil {
				return fmt.Errorf("pulling %s: %w", name, err)
			}
			pretty, err := m.Pretty()
			if err != nil {
				return err
			}
			if err := writeManifestFile(name, pretty); err != nil {
				return fmt.Errorf("updating local manifest %s: %w", name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully updated %s\n", name)
		}

		return nil
	},
}

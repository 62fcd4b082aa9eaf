package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	vekt "github.com/Khushiyant/vekt"
	"github.com/Khushiyant/vekt/manifest"
	"github.com/Khushiyant/vekt/remote"
	"github.com/Khushiyant/vekt/repo"
)

// PushCmd uploads every manifest in the current directory, and the blobs it
// references, to a named remote (defaulting to "origin").
var PushCmd = &cobra.Command{
	Use:   "push [remote]",
	Short: "push local manifests and blobs to a remote",
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
			data, err := os.ReadFile(name)
			if err != nil {
				return fmt.Errorf("reading manifest %s: %w", name, err)
			}
			m, err := manifest.Parse(data)
			if err != nil {
				return fmt.Errorf("parsing manifest %s: %w", name, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Pushing manifest: %s\n", name)
			if err := remote.Push(ctx, backend, s, m, name); err != nil {
				return fmt.Errorf("pushing %s: %w", name, err)
			}
		}

		return nil
	},
}

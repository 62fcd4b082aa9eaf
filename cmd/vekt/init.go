package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	vekt "github.com/Khushiyant/vekt"
	"github.com/Khushiyant/vekt/repo"
)

// InitCmd creates a new vekt repository rooted at the current directory.
var InitCmd = &cobra.Command{
	Use:   "init",
	Short: "create an empty vekt repository in the current directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}

		vektDir := filepath.Join(cwd, repo.DirName)
		if info, err := os.Stat(vektDir); err == nil && info.IsDir() {
			return vekt.ErrRepoAlreadyExists{Path: vektDir}
		}

		if err := repo.EnsureDir(vektDir); err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Join(vektDir, repo.BlobsDirName), 0o755); err != nil {
			return err
		}
		if err := (&repo.Config{Remotes: map[string]string{}}).Save(cwd); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Initialized empty vekt repository in %s\n", vektDir)
		return nil
	},
}

// Package repo locates a vekt repository's root and .vekt directory,
// enforces the exclusive operation lock, and loads/saves the remotes
// config. Grounded on original_source/vekt_core/src/utils.rs's
// find_vekt_root/get_store_path/ensure_vekt_dir and LockFile.
package repo

import (
	"os"
	"path/filepath"

	vekt "github.com/Khushiyant/vekt"
)

// DirName is the name of a vekt repository's metadata directory.
const DirName = ".vekt"

// BlobsDirName is the blob store's directory name inside DirName.
const BlobsDirName = "blobs"

// LockFileName is the exclusive-operation lock's file name inside DirName.
const LockFileName = "lock"

// ConfigFileName is the remotes configuration's file name inside DirName.
const ConfigFileName = "config.json"

// FindRoot walks upward from the current working directory, returning the
// first ancestor (inclusive) containing a .vekt directory. It returns
// vekt.ErrRepoNotFound if no ancestor up to the filesystem root has one.
func FindRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return findRootFrom(cwd)
}

func findRootFrom(start string) (string, error) {
	current := start
	for {
		candidate := filepath.Join(current, DirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", vekt.ErrRepoNotFound{}
		}
		current = parent
	}
}

// StorePath returns <root>/.vekt/blobs for a repository located via
// FindRoot, or <cwd>/.vekt/blobs if no repository is found, so read
// operations invoked outside a repository still resolve a path rather than
// failing outright.
func StorePath() (string, error) {
	root, err := FindRoot()
	if err != nil {
		cwd, cwdErr := os.Getwd()
		if cwdErr != nil {
			return "", cwdErr
		}
		root = cwd
	}
	return filepath.Join(root, DirName, BlobsDirName), nil
}

// EnsureDir creates dir if it does not already exist, and writes a
// .gitignore excluding everything inside it on first creation so the blob
// store and lock file are never committed to the host version-control
// system.
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	gitignorePath := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(gitignorePath); err == nil {
		return nil
	}
	return os.WriteFile(gitignorePath, []byte("*\n"), 0o644)
}

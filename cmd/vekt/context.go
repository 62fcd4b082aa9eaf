package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Khushiyant/vekt/repo"
	"github.com/Khushiyant/vekt/store"
)

// openRepo locates the current vekt repository and opens its blob store.
// Most subcommands besides init need both.
func openRepo() (root string, s *store.Store, err error) {
	root, err = repo.FindRoot()
	if err != nil {
		return "", nil, err
	}
	s = store.New(filepath.Join(root, repo.DirName, repo.BlobsDirName))
	return root, s, nil
}

// writeManifestFile writes pretty-printed manifest JSON to path.
func writeManifestFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

// manifestFilesInDir returns the names (not full paths) of every
// *.vekt.json file directly inside dir, matching push/pull's non-recursive
// scan of the working directory.
func manifestFilesInDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".vekt.json") {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

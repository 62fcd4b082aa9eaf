package remote

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FilesystemBackend is a Backend rooted at a local directory, useful for
// testing push/pull without a network and for transferring to a mounted
// volume or network share addressed as a plain path.
type FilesystemBackend struct {
	root string
}

// NewFilesystemBackend returns a Backend rooted at root.
func NewFilesystemBackend(root string) *FilesystemBackend {
	return &FilesystemBackend{root: root}
}

func (b *FilesystemBackend) path(key string) string {
	return filepath.Join(b.root, filepath.FromSlash(key))
}

// Put writes data to key, creating parent directories as needed, through
// the same temp-file-then-rename dance the blob store uses.
func (b *FilesystemBackend) Put(_ context.Context, key string, data []byte) error {
	target := b.path(key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	tmp := target + ".tmp." + uuid.NewString()
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, target)
}

// Get reads the payload stored at key.
func (b *FilesystemBackend) Get(_ context.Context, key string) ([]byte, error) {
	return os.ReadFile(b.path(key))
}

// Exists reports whether key has been written.
func (b *FilesystemBackend) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(b.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

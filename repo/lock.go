package repo

import (
	"errors"
	"os"
	"path/filepath"

	vekt "github.com/Khushiyant/vekt"
)

// Lock is the exclusive-operation gate for a repository: at most one mutating
// operation (add, push, pull, gc) may hold it at a time; restore, status and
// diff do not take it. The
// underlying mechanism is a create-exclusive lock file; acquisition fails if
// the file already exists, and release unlinks it.
type Lock struct {
	path string
}

// AcquireLock creates the lock file at <root>/.vekt/lock, failing with
// vekt.ErrLockExists if another process already holds it. The caller must
// call Release on every exit path, including error returns from the
// operation the lock guards.
func AcquireLock(root string) (*Lock, error) {
	vektDir := filepath.Join(root, DirName)
	if err := EnsureDir(vektDir); err != nil {
		return nil, err
	}
	path := filepath.Join(vektDir, LockFileName)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return nil, vekt.ErrLockExists{Path: path}
	}
	if err != nil {
		return nil, err
	}
	f.Close()

	return &Lock{path: path}, nil
}

// Release unlinks the lock file. It is safe to call more than once; a
// missing file is not an error.
func (l *Lock) Release() error {
	err := os.Remove(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

package repo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	vekt "github.com/Khushiyant/vekt"
)

func TestAcquireLockExclusivity(t *testing.T) {
	root := t.TempDir()

	lock1, err := AcquireLock(root)
	if err != nil {
		t.Fatalf("first AcquireLock: %v", err)
	}

	_, err = AcquireLock(root)
	if err == nil {
		t.Fatal("second AcquireLock should fail while the first is held")
	}
	var target vekt.ErrLockExists
	if !errors.As(err, &target) {
		t.Fatalf("error = %v, want ErrLockExists", err)
	}

	if err := lock1.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	lock2, err := AcquireLock(root)
	if err != nil {
		t.Fatalf("AcquireLock after release: %v", err)
	}
	lock2.Release()
}

func TestReleaseIsIdempotent(t *testing.T) {
	root := t.TempDir()
	lock, err := AcquireLock(root)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("first Release: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("second Release should be a no-op, got: %v", err)
	}
}

func TestAcquireLockCreatesVektDir(t *testing.T) {
	root := t.TempDir()
	lock, err := AcquireLock(root)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	defer lock.Release()

	if _, err := os.Stat(filepath.Join(root, DirName)); err != nil {
		t.Fatalf(".vekt directory not created: %v", err)
	}
}

package gc

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/Khushiyant/vekt/manifest"
	"github.com/Khushiyant/vekt/store"
)

func writeManifestFile(t *testing.T, path string, m *manifest.Manifest) {
	t.Helper()
	data, err := m.Pretty()
	if err != nil {
		t.Fatalf("Pretty: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}
}

func TestRunKeepsReferencedBlobs(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := store.New(filepath.Join(root, ".vekt", "blobs"))

	kept := []byte("kept payload")
	dropped := []byte("dropped payload")
	keptHash, err := s.WriteAtomic(ctx, kept)
	if err != nil {
		t.Fatalf("WriteAtomic: %v", err)
	}
	if _, err := s.WriteAtomic(ctx, dropped); err != nil {
		t.Fatalf("WriteAtomic: %v", err)
	}

	m := manifest.New(int64(len(kept)))
	m.Tensors["t"] = manifest.Tensor{Shape: []int64{1}, Dtype: "F32", Hash: keptHash, Extra: manifest.NewOrderedMap()}
	writeManifestFile(t, filepath.Join(root, "model.vekt.json"), m)

	stats, err := Run(ctx, root, s)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Kept != 1 || stats.Deleted != 1 {
		t.Fatalf("stats = %+v, want {Deleted:1 Kept:1}", stats)
	}
	if !s.Exists(ctx, keptHash) {
		t.Fatal("referenced blob was deleted")
	}
}

func TestRunSkipsWellKnownDirectories(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := store.New(filepath.Join(root, ".vekt", "blobs"))

	payload := []byte("inside target dir")
	h, err := s.WriteAtomic(ctx, payload)
	if err != nil {
		t.Fatalf("WriteAtomic: %v", err)
	}

	m := manifest.New(int64(len(payload)))
	m.Tensors["t"] = manifest.Tensor{Shape: []int64{1}, Dtype: "F32", Hash: h, Extra: manifest.NewOrderedMap()}
	// a manifest buried under a skipped directory must not keep this blob alive.
	writeManifestFile(t, filepath.Join(root, "target", "build.vekt.json"), m)

	stats, err := Run(ctx, root, s)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Deleted != 1 {
		t.Fatalf("expected the blob under target/ to be swept, stats = %+v", stats)
	}
}

func TestRunSkipsUnparsableManifests(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := store.New(filepath.Join(root, ".vekt", "blobs"))

	if _, err := s.WriteAtomic(ctx, []byte("orphan")); err != nil {
		t.Fatalf("WriteAtomic: %v", err)
	}

	if err := os.WriteFile(filepath.Join(root, "broken.vekt.json"), []byte("not json"), 0o644); err != nil {
		t.Fatalf("writing broken manifest: %v", err)
	}

	stats, err := Run(ctx, root, s)
	if err != nil {
		t.Fatalf("Run should not fail on an unparsable manifest: %v", err)
	}
	if stats.Deleted != 1 {
		t.Fatalf("stats = %+v, want Deleted:1", stats)
	}
}

func TestRunWithVCSHistory(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	ctx := context.Background()
	root := t.TempDir()
	s := store.New(filepath.Join(root, ".vekt", "blobs"))

	payload := []byte("historical tensor")
	h, err := s.WriteAtomic(ctx, payload)
	if err != nil {
		t.Fatalf("WriteAtomic: %v", err)
	}

	m := manifest.New(int64(len(payload)))
	m.Tensors["t"] = manifest.Tensor{Shape: []int64{1}, Dtype: "F32", Hash: h, Extra: manifest.NewOrderedMap()}
	manifestPath := filepath.Join(root, "model.vekt.json")
	writeManifestFile(t, manifestPath, m)

	runGit(t, root, "init")
	runGit(t, root, "config", "user.email", "test@example.com")
	runGit(t, root, "config", "user.name", "test")
	runGit(t, root, "add", "model.vekt.json")
	runGit(t, root, "commit", "-m", "add manifest")

	// Remove the manifest from the working tree; only VCS history should
	// keep the blob alive now.
	if err := os.Remove(manifestPath); err != nil {
		t.Fatalf("removing manifest: %v", err)
	}
	runGit(t, root, "add", "-A")
	runGit(t, root, "commit", "-m", "remove manifest")

	stats, err := Run(ctx, root, s)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Kept != 1 {
		t.Fatalf("stats = %+v, want Kept:1 (blob referenced only by VCS history)", stats)
	}
	if !s.Exists(ctx, h) {
		t.Fatal("blob referenced only by VCS history was deleted")
	}
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}

func TestHasManifestSuffix(t *testing.T) {
	cases := map[string]bool{
		"model.vekt.json": true,
		"model.json":      false,
		"vekt.json":       false,
		".vekt.json":      false,
	}
	for name, want := range cases {
		if got := hasManifestSuffix(name); got != want {
			t.Errorf("hasManifestSuffix(%q) = %v, want %v", name, got, want)
		}
	}
}

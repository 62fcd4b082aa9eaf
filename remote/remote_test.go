package remote

import (
	"context"
	"testing"

	"github.com/Khushiyant/vekt/digest"
	"github.com/Khushiyant/vekt/manifest"
	"github.com/Khushiyant/vekt/store"
)

func TestPushThenPullRoundTrip(t *testing.T) {
	ctx := context.Background()
	localStore := store.New(t.TempDir())
	backend := NewFilesystemBackend(t.TempDir())

	payload := []byte{1, 2, 3, 4}
	h, err := localStore.WriteAtomic(ctx, payload)
	if err != nil {
		t.Fatalf("WriteAtomic: %v", err)
	}

	m := manifest.New(int64(len(payload)))
	m.Tensors["t"] = manifest.Tensor{Shape: []int64{1}, Dtype: "F32", Hash: h, Extra: manifest.NewOrderedMap()}

	if err := Push(ctx, backend, localStore, m, "model.vekt.json"); err != nil {
		t.Fatalf("Push: %v", err)
	}

	remoteStore := store.New(t.TempDir())
	pulled, err := Pull(ctx, backend, remoteStore, "model.vekt.json")
	if err != nil {
		t.Fatalf("Pull: %v", err)
	}

	if len(pulled.Tensors) != 1 {
		t.Fatalf("pulled %d tensors, want 1", len(pulled.Tensors))
	}
	if !remoteStore.Exists(ctx, h) {
		t.Fatal("pulled blob not present in local store")
	}
	got, err := remoteStore.Read(ctx, h)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("Read = %v, want %v", got, payload)
	}
}

// TestPushThenPullRoundTripCompressedBlob guards against Push uploading a
// compressed blob's raw on-disk frame keyed by the tensor's pre-framing
// hash, and Pull then recomputing a digest over those framed bytes and
// tripping its own hash-mismatch check.
func TestPushThenPullRoundTripCompressedBlob(t *testing.T) {
	ctx := context.Background()
	localStore := store.New(t.TempDir())
	backend := NewFilesystemBackend(t.TempDir())

	payload := []byte("compress me compress me compress me compress me")
	h, compressed, err := localStore.WriteAtomicCompressed(ctx, payload)
	if err != nil {
		t.Fatalf("WriteAtomicCompressed: %v", err)
	}
	if !compressed {
		t.Fatal("expected repetitive payload to compress")
	}

	m := manifest.New(int64(len(payload)))
	m.Tensors["t"] = manifest.Tensor{Shape: []int64{1}, Dtype: "F32", Hash: h, Extra: manifest.NewOrderedMap()}

	if err := Push(ctx, backend, localStore, m, "model.vekt.json"); err != nil {
		t.Fatalf("Push: %v", err)
	}

	remoteStore := store.New(t.TempDir())
	if _, err := Pull(ctx, backend, remoteStore, "model.vekt.json"); err != nil {
		t.Fatalf("Pull: %v", err)
	}

	got, err := remoteStore.Read(ctx, h)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("Read = %v, want %v", got, payload)
	}
}

func TestPushSkipsMissingLocalBlob(t *testing.T) {
	ctx := context.Background()
	localStore := store.New(t.TempDir())
	backend := NewFilesystemBackend(t.TempDir())

	// Reference a hash that was never written locally.
	m := manifest.New(4)
	m.Tensors["t"] = manifest.Tensor{
		Shape: []int64{1}, Dtype: "F32",
		Hash:  digest.FromBytes([]byte("never written")),
		Extra: manifest.NewOrderedMap(),
	}

	if err := Push(ctx, backend, localStore, m, "model.vekt.json"); err != nil {
		t.Fatalf("Push should not fail when a referenced blob is missing locally: %v", err)
	}
}

func TestPushSkipsAlreadyPresentRemoteBlob(t *testing.T) {
	ctx := context.Background()
	localStore := store.New(t.TempDir())
	backend := NewFilesystemBackend(t.TempDir())

	payload := []byte("already uploaded")
	h, err := localStore.WriteAtomic(ctx, payload)
	if err != nil {
		t.Fatalf("WriteAtomic: %v", err)
	}
	if err := backend.Put(ctx, "blobs/"+h.String(), payload); err != nil {
		t.Fatalf("seeding remote blob: %v", err)
	}

	m := manifest.New(int64(len(payload)))
	m.Tensors["t"] = manifest.Tensor{Shape: []int64{1}, Dtype: "F32", Hash: h, Extra: manifest.NewOrderedMap()}

	if err := Push(ctx, backend, localStore, m, "model.vekt.json"); err != nil {
		t.Fatalf("Push: %v", err)
	}
}

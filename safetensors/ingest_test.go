package safetensors

import (
	"context"
	"testing"

	"github.com/Khushiyant/vekt/digest"
	"github.com/Khushiyant/vekt/store"
)

func TestIngestMinimal(t *testing.T) {
	header := `{"t":{"dtype":"F32","shape":[1],"data_offsets":[0,4]}}`
	payload := []byte{0x00, 0x01, 0x02, 0x03}
	path := writeSafetensorsFile(t, header, payload)

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	s := store.New(t.TempDir())
	m, err := Ingest(context.Background(), f, s, true)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if len(m.Tensors) != 1 {
		t.Fatalf("got %d tensors, want 1", len(m.Tensors))
	}
	tensor, ok := m.Tensors["t"]
	if !ok {
		t.Fatal("missing tensor t")
	}
	wantHash := digest.FromBytes(payload)
	if tensor.Hash != wantHash {
		t.Fatalf("hash = %s, want %s", tensor.Hash, wantHash)
	}
	if !s.Exists(context.Background(), wantHash) {
		t.Fatal("blob was not written to the store")
	}
}

func TestIngestDeduplicatesSharedWeights(t *testing.T) {
	shared := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	header := `{"a":{"dtype":"F32","shape":[1],"data_offsets":[0,4]},"b":{"dtype":"F32","shape":[1],"data_offsets":[4,8]}}`
	path := writeSafetensorsFile(t, header, append(append([]byte{}, shared...), shared...))

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	s := store.New(t.TempDir())
	m, err := Ingest(context.Background(), f, s, true)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if m.Tensors["a"].Hash != m.Tensors["b"].Hash {
		t.Fatalf("expected shared hash, got %s vs %s", m.Tensors["a"].Hash, m.Tensors["b"].Hash)
	}
}

func TestIngestWithoutSaveBlobsSkipsWrites(t *testing.T) {
	header := `{"t":{"dtype":"F32","shape":[1],"data_offsets":[0,4]}}`
	payload := []byte{0x00, 0x01, 0x02, 0x03}
	path := writeSafetensorsFile(t, header, payload)

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	s := store.New(t.TempDir())
	m, err := Ingest(context.Background(), f, s, false)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	h := m.Tensors["t"].Hash
	if s.Exists(context.Background(), h) {
		t.Fatal("blob should not be written when saveBlobs is false")
	}
}

func TestIngestFailsFastOnCorruption(t *testing.T) {
	header := `{"good":{"dtype":"F32","shape":[1],"data_offsets":[0,4]},"bad":{"dtype":"F32","shape":[4],"data_offsets":[4,20]}}`
	payload := []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07} // "bad" declares 16 bytes but only 4 remain
	path := writeSafetensorsFile(t, header, payload)

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	s := store.New(t.TempDir())
	if _, err := Ingest(context.Background(), f, s, true); err == nil {
		t.Fatal("Ingest should fail when any tensor is corrupted")
	}
}

package manifest

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/Khushiyant/vekt/digest"
)

// memBlobStore is an in-memory stand-in for store.Store, sufficient for
// Restore's narrow BlobReader dependency.
type memBlobStore struct {
	blobs map[digest.Digest][]byte
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: make(map[digest.Digest][]byte)}
}

func (s *memBlobStore) put(data []byte) digest.Digest {
	d := digest.FromBytes(data)
	s.blobs[d] = data
	return d
}

func (s *memBlobStore) Open(_ context.Context, d digest.Digest) (io.ReadCloser, error) {
	data, ok := s.blobs[d]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func readHeader(t *testing.T, path string) (map[string]json.RawMessage, []byte) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading restored file: %v", err)
	}
	if len(data) < 8 {
		t.Fatalf("restored file too small: %d bytes", len(data))
	}
	headerLen := binary.LittleEndian.Uint64(data[:8])
	headerBytes := data[8 : 8+headerLen]
	var header map[string]json.RawMessage
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		t.Fatalf("parsing restored header: %v", err)
	}
	return header, data[8+headerLen:]
}

func TestRestoreMinimal(t *testing.T) {
	store := newMemBlobStore()
	payload := []byte{0x00, 0x01, 0x02, 0x03}
	h := store.put(payload)

	m := New(int64(len(payload)))
	m.Tensors["t"] = Tensor{Shape: []int64{1}, Dtype: "F32", Hash: h, Index: 0, Extra: NewOrderedMap()}

	outPath := filepath.Join(t.TempDir(), "out.safetensors")
	if err := Restore(context.Background(), m, store, outPath, nil); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	_, data := readHeader(t, outPath)
	if !bytes.Equal(data, payload) {
		t.Fatalf("restored payload = %v, want %v", data, payload)
	}
}

func TestRestoreSharedWeights(t *testing.T) {
	store := newMemBlobStore()
	payload := []byte{0x11, 0x22, 0x33, 0x44}
	h := store.put(payload)

	m := New(int64(len(payload)))
	m.Tensors["a"] = Tensor{Shape: []int64{1}, Dtype: "F32", Hash: h, Index: 0, Extra: NewOrderedMap()}
	m.Tensors["b"] = Tensor{Shape: []int64{1}, Dtype: "F32", Hash: h, Index: 1, Extra: NewOrderedMap()}

	outPath := filepath.Join(t.TempDir(), "out.safetensors")
	if err := Restore(context.Background(), m, store, outPath, nil); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	header, data := readHeader(t, outPath)
	if len(data) != 4 {
		t.Fatalf("data section length = %d, want 4", len(data))
	}

	var a, b struct {
		DataOffsets [2]int64 `json:"data_offsets"`
	}
	if err := json.Unmarshal(header["a"], &a); err != nil {
		t.Fatalf("unmarshal a: %v", err)
	}
	if err := json.Unmarshal(header["b"], &b); err != nil {
		t.Fatalf("unmarshal b: %v", err)
	}
	if a.DataOffsets != [2]int64{0, 4} || b.DataOffsets != [2]int64{0, 4} {
		t.Fatalf("shared-weight offsets not aliased: a=%v b=%v", a.DataOffsets, b.DataOffsets)
	}
}

func TestRestoreAlignment(t *testing.T) {
	store := newMemBlobStore()
	hCC := store.put([]byte{0xCC})
	hDD := store.put([]byte{0xDD})

	m := New(2)
	m.Tensors["a"] = Tensor{Shape: []int64{1}, Dtype: "U8", Hash: hCC, Index: 0, Extra: NewOrderedMap()}
	m.Tensors["b"] = Tensor{Shape: []int64{1}, Dtype: "U8", Hash: hDD, Index: 1, Extra: NewOrderedMap()}

	outPath := filepath.Join(t.TempDir(), "out.safetensors")
	if err := Restore(context.Background(), m, store, outPath, nil); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	_, data := readHeader(t, outPath)
	want := []byte{0xCC, 0, 0, 0, 0, 0, 0, 0, 0xDD}
	if !bytes.Equal(data, want) {
		t.Fatalf("data section = % x, want % x", data, want)
	}
}

func TestRestoreExtraMetadataPreserved(t *testing.T) {
	store := newMemBlobStore()
	h := store.put([]byte{1, 2, 3, 4})

	extra := NewOrderedMap()
	extra.Set("quantization", json.RawMessage(`"int8"`))
	extra.Set("license", json.RawMessage(`"MIT"`))

	m := New(4)
	m.Tensors["t"] = Tensor{Shape: []int64{1}, Dtype: "F32", Hash: h, Index: 0, Extra: extra}

	outPath := filepath.Join(t.TempDir(), "out.safetensors")
	if err := Restore(context.Background(), m, store, outPath, nil); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	header, _ := readHeader(t, outPath)
	var tensor struct {
		Quantization string `json:"quantization"`
		License      string `json:"license"`
	}
	if err := json.Unmarshal(header["t"], &tensor); err != nil {
		t.Fatalf("unmarshal t: %v", err)
	}
	if tensor.Quantization != "int8" || tensor.License != "MIT" {
		t.Fatalf("extra metadata lost: %+v", tensor)
	}
}

func TestRestoreLayerFilterExcludesEverything(t *testing.T) {
	store := newMemBlobStore()
	h := store.put([]byte{1, 2, 3, 4})
	m := New(4)
	m.Tensors["encoder.weight"] = Tensor{Shape: []int64{1}, Dtype: "F32", Hash: h, Index: 0, Extra: NewOrderedMap()}

	outPath := filepath.Join(t.TempDir(), "out.safetensors")
	filter := ParseLayerFilter("decoder")
	if err := Restore(context.Background(), m, store, outPath, filter); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	header, data := readHeader(t, outPath)
	if len(header) != 0 {
		t.Fatalf("expected empty header, got %v", header)
	}
	if len(data) != 0 {
		t.Fatalf("expected empty data section, got %d bytes", len(data))
	}
}

func TestParseLayerFilterTrimsWhitespace(t *testing.T) {
	f := ParseLayerFilter(" encoder , decoder ")
	if !f.Matches("model.encoder.weight") {
		t.Fatal("filter should match encoder after trimming")
	}
	if !f.Matches("model.decoder.bias") {
		t.Fatal("filter should match decoder after trimming")
	}
	if f.Matches("model.head.weight") {
		t.Fatal("filter should not match unrelated substring")
	}
}

func TestParseLayerFilterEmptyMatchesAll(t *testing.T) {
	f := ParseLayerFilter("  ")
	if !f.Matches("anything") {
		t.Fatal("empty filter should match everything")
	}
}

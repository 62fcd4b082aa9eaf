package manifest

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/Khushiyant/vekt/digest"
)

// BlobReader is the narrow read side of a blob store that Restore needs:
// streaming a blob's bytes without holding the whole payload in memory.
// store.Store satisfies this.
type BlobReader interface {
	Open(ctx context.Context, d digest.Digest) (io.ReadCloser, error)
}

// LayerFilter selects which tensors a restore includes. A nil or empty
// filter includes everything. Otherwise a tensor is included if its name
// contains any of the filter's substrings.
type LayerFilter []string

// ParseLayerFilter splits a comma-separated --layers argument into a
// LayerFilter, trimming whitespace around each substring.
func ParseLayerFilter(csv string) LayerFilter {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	filter := make(LayerFilter, 0, len(parts))
	for _, p := range parts {
		filter = append(filter, strings.TrimSpace(p))
	}
	return filter
}

// Matches reports whether name should be included under this filter.
func (f LayerFilter) Matches(name string) bool {
	if len(f) == 0 {
		return true
	}
	for _, substr := range f {
		if strings.Contains(name, substr) {
			return true
		}
	}
	return false
}

// entry is a tensor queued for restore, in ascending-index order.
type entry struct {
	name   string
	tensor Tensor
	size   int64
}

// Restore reconstructs a safetensors file at outputPath from m and the
// blobs in store, honoring filter. Tensors are visited in ascending
// Tensor.Index order (the original physical layout), independent of the
// manifest's lexicographic serialization order. The two-pass layout mirrors
// the safetensors writer in the reference implementation: pass 1 builds the
// header (computing alignment padding and deduplicating shared-hash
// tensors to identical byte ranges), pass 2 streams the matching blob bytes.
func Restore(ctx context.Context, m *Manifest, store BlobReader, outputPath string, filter LayerFilter) error {
	entries := selectEntries(m, filter)

	headerJSON, layout, err := buildHeader(entries)
	if err != nil {
		return fmt.Errorf("building safetensors header: %w", err)
	}

	out, err := os.OpenFile(outputPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer out.Close()

	var lenPrefix [8]byte
	binary.LittleEndian.PutUint64(lenPrefix[:], uint64(len(headerJSON)))
	if _, err := out.Write(lenPrefix[:]); err != nil {
		return fmt.Errorf("writing header length: %w", err)
	}
	if _, err := out.Write(headerJSON); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	if err := writeData(ctx, store, out, entries, layout); err != nil {
		return fmt.Errorf("writing data section: %w", err)
	}
	return nil
}

// selectEntries returns the tensors passing filter, sorted by ascending
// Tensor.Index.
func selectEntries(m *Manifest, filter LayerFilter) []entry {
	entries := make([]entry, 0, len(m.Tensors))
	for name, t := range m.Tensors {
		if !filter.Matches(name) {
			continue
		}
		entries = append(entries, entry{
			name:   name,
			tensor: t,
			size:   TensorByteSize(t.Dtype, t.Shape),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].tensor.Index < entries[j].tensor.Index
	})
	return entries
}

// tensorLayout records the data_offsets a tensor was assigned in pass 1.
type tensorLayout struct {
	start, end int64
}

// buildHeader runs restore pass 1: walking entries in order, computing
// 8-byte alignment padding, and aliasing repeated hashes to their first
// occurrence's byte range instead of advancing the cursor again.
func buildHeader(entries []entry) ([]byte, map[string]tensorLayout, error) {
	seenHash := make(map[digest.Digest]tensorLayout)
	layout := make(map[string]tensorLayout, len(entries))
	var offset int64

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range entries {
		if i > 0 {
			buf.WriteByte(',')
		}

		var rng tensorLayout
		if existing, ok := seenHash[e.tensor.Hash]; ok {
			rng = existing
		} else {
			padding := (8 - offset%8) % 8
			offset += padding
			rng = tensorLayout{start: offset, end: offset + e.size}
			seenHash[e.tensor.Hash] = rng
			offset = rng.end
		}
		layout[e.name] = rng

		nameJSON, err := json.Marshal(e.name)
		if err != nil {
			return nil, nil, err
		}
		buf.Write(nameJSON)
		buf.WriteByte(':')

		entryJSON, err := marshalHeaderEntry(e.tensor, rng)
		if err != nil {
			return nil, nil, err
		}
		buf.Write(entryJSON)
	}
	buf.WriteByte('}')

	return buf.Bytes(), layout, nil
}

// marshalHeaderEntry renders one restored header object: dtype, shape,
// data_offsets, then Extra spliced inline in its original order, matching
// RawTensorMetaData's field order.
func marshalHeaderEntry(t Tensor, rng tensorLayout) ([]byte, error) {
	raw := RawTensorMetaData{
		Dtype:       t.Dtype,
		Shape:       t.Shape,
		DataOffsets: [2]int64{rng.start, rng.end},
		Extra:       t.Extra,
	}
	return json.Marshal(raw)
}

// writeData runs restore pass 2: walking entries in the same order as pass
// 1, writing alignment padding and each unique hash's blob bytes exactly
// once, skipping hashes already written (shared-weight deduplication).
func writeData(ctx context.Context, store BlobReader, out io.Writer, entries []entry, layout map[string]tensorLayout) error {
	written := make(map[digest.Digest]bool)
	var cursor int64

	for _, e := range entries {
		if written[e.tensor.Hash] {
			continue
		}
		rng := layout[e.name]

		padding := rng.start - cursor
		if padding > 0 {
			if _, err := out.Write(make([]byte, padding)); err != nil {
				return err
			}
		}

		blob, err := store.Open(ctx, e.tensor.Hash)
		if err != nil {
			return fmt.Errorf("opening blob for tensor %q: %w", e.name, err)
		}
		n, err := io.Copy(out, blob)
		blob.Close()
		if err != nil {
			return fmt.Errorf("streaming blob for tensor %q: %w", e.name, err)
		}

		written[e.tensor.Hash] = true
		cursor = rng.start + n
	}
	return nil
}

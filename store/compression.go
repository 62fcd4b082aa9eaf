package store

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/Khushiyant/vekt/digest"
)

// rawFlag/compressedFlag are the one-byte markers every blob is framed with
// on disk, ported from original_source/vekt_core/src/compression.rs's
// save_blob_with_compression. WriteAtomic always writes rawFlag.
// WriteAtomicCompressed writes compressedFlag only when zstd actually
// shrinks the payload, falling back to rawFlag otherwise. Read and Open
// (blobstore.go) inspect this byte on every blob, so a store can hold a mix
// of raw and compressed blobs and callers never need to know which.
const (
	rawFlag        byte = 0
	compressedFlag byte = 1
)

// WriteAtomicCompressed is the --compress counterpart of WriteAtomic: data's
// digest is always computed over the uncompressed bytes, so a manifest's
// hashes never depend on whether compression happened to help. The on-disk
// blob is prefixed with a one-byte flag and, only when zstd actually reduces
// its size, stored compressed. Read and Open transparently undo this.
// The bool return reports whether the stored blob ended up compressed.
func (s *Store) WriteAtomicCompressed(_ context.Context, data []byte) (digest.Digest, bool, error) {
	d := digest.FromBytes(data)
	finalPath := s.Path(d)

	if _, err := os.Stat(finalPath); err == nil {
		flag, _, err := s.readFramed(d)
		if err != nil {
			return "", false, err
		}
		return d, flag == compressedFlag, nil
	}

	payload, compressed, err := compressIfSmaller(data)
	if err != nil {
		return "", false, fmt.Errorf("compressing blob: %w", err)
	}

	flag := rawFlag
	if compressed {
		flag = compressedFlag
	}
	framed := make([]byte, 0, len(payload)+1)
	framed = append(framed, flag)
	framed = append(framed, payload...)

	if err := s.writeAtomicBytes(finalPath, framed); err != nil {
		return "", false, err
	}
	return d, compressed, nil
}

func (s *Store) readFramed(d digest.Digest) (flag byte, payload []byte, err error) {
	data, err := os.ReadFile(s.Path(d))
	if err != nil {
		return 0, nil, fmt.Errorf("reading blob %s: %w", d, err)
	}
	if len(data) == 0 {
		return rawFlag, nil, nil
	}
	return data[0], data[1:], nil
}

func compressIfSmaller(data []byte) ([]byte, bool, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, false, err
	}
	defer enc.Close()

	compressed := enc.EncodeAll(data, make([]byte, 0, len(data)))
	if len(compressed) < len(data) {
		return compressed, true, nil
	}
	return data, false, nil
}

// writeAtomicBytes is the same temp-file-then-rename dance as
// Store.WriteAtomic, factored out so WriteAtomicCompressed can write a
// pre-framed payload under a path it already computed.
func (s *Store) writeAtomicBytes(finalPath string, data []byte) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("creating blob store directory: %w", err)
	}

	tmpPath := finalPath + ".tmp." + uuid.NewString()
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("creating temp blob: %w", err)
	}
	defer os.Remove(tmpPath)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing temp blob: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("syncing temp blob: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing temp blob: %w", err)
	}

	return os.Rename(tmpPath, finalPath)
}

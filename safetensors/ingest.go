package safetensors

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Khushiyant/vekt/digest"
	"github.com/Khushiyant/vekt/manifest"
)

// BlobWriter is the narrow write side of a blob store that Ingest needs.
// store.Store satisfies this.
type BlobWriter interface {
	WriteAtomic(ctx context.Context, data []byte) (digest.Digest, error)
}

// Ingest splits the tensors in f into a manifest, computing each tensor's
// content hash in parallel across a worker per tensor, the same
// errgroup-based fan-out idiom used elsewhere in this module for
// independent, order-insensitive work. When saveBlobs is true, a second
// parallel pass writes each
// tensor's byte slice through store's atomic-write path, deduplicating
// repeated hashes for free via the store's own existence check. Either pass
// is fail-fast: the first error aborts the whole operation and no partial
// manifest is returned.
func Ingest(ctx context.Context, f *File, store BlobWriter, saveBlobs bool) (*manifest.Manifest, error) {
	names := f.TensorNames()

	type hashed struct {
		name  string
		meta  manifest.RawTensorMetaData
		hash  digest.Digest
		index int
	}
	results := make([]hashed, len(names))

	hashGroup, hashCtx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		hashGroup.Go(func() error {
			slice, meta, err := f.TensorSlice(name)
			if err != nil {
				return err
			}
			if hashCtx.Err() != nil {
				return hashCtx.Err()
			}
			results[i] = hashed{
				name:  name,
				meta:  meta,
				hash:  digest.FromBytes(slice),
				index: i,
			}
			return nil
		})
	}
	if err := hashGroup.Wait(); err != nil {
		return nil, fmt.Errorf("hashing tensors: %w", err)
	}

	if saveBlobs {
		writeGroup, writeCtx := errgroup.WithContext(ctx)
		for _, r := range results {
			r := r
			writeGroup.Go(func() error {
				if writeCtx.Err() != nil {
					return writeCtx.Err()
				}
				slice, _, err := f.TensorSlice(r.name)
				if err != nil {
					return err
				}
				if _, err := store.WriteAtomic(writeCtx, slice); err != nil {
					return fmt.Errorf("writing blob for tensor %q: %w", r.name, err)
				}
				return nil
			})
		}
		if err := writeGroup.Wait(); err != nil {
			return nil, fmt.Errorf("writing blobs: %w", err)
		}
	}

	m := manifest.New(f.Size())
	for _, r := range results {
		m.Tensors[r.name] = manifest.Tensor{
			Shape: r.meta.Shape,
			Dtype: r.meta.Dtype,
			Hash:  r.hash,
			Index: r.index,
			Extra: r.meta.Extra,
		}
	}
	return m, nil
}

package manifest

import (
	"fmt"
	"io"
	"sort"
)

// TensorDiff categorizes the tensors present across two manifests.
type TensorDiff struct {
	Added     []string
	Removed   []string
	Modified  []string
	Unchanged []string
}

// StorageSavings reports a dedup ratio across two manifests' blob sets.
// This is an informational figure, not a standard deduplication metric: it
// divides the combined tensor count by the combined unique-blob count.
type StorageSavings struct {
	TotalTensorsOld    int
	TotalTensorsNew    int
	SharedBlobs        int
	UniqueBlobsOld     int
	UniqueBlobsNew     int
	DeduplicationRatio float64
}

// ManifestComparison is the result of diffing two manifests.
type ManifestComparison struct {
	TensorDiff     TensorDiff
	SizeChange     int64
	StorageSavings StorageSavings
}

// Diff compares m (the old manifest) against other (the new manifest),
// categorizing each tensor name as added, removed, modified (same name,
// different hash) or unchanged.
func (m *Manifest) Diff(other *Manifest) ManifestComparison {
	var diff TensorDiff

	for name := range other.Tensors {
		if _, ok := m.Tensors[name]; !ok {
			diff.Added = append(diff.Added, name)
		}
	}
	for name := range m.Tensors {
		if _, ok := other.Tensors[name]; !ok {
			diff.Removed = append(diff.Removed, name)
		}
	}
	for name, oldTensor := range m.Tensors {
		newTensor, ok := other.Tensors[name]
		if !ok {
			continue
		}
		if oldTensor.Hash != newTensor.Hash {
			diff.Modified = append(diff.Modified, name)
		} else {
			diff.Unchanged = append(diff.Unchanged, name)
		}
	}

	sort.Strings(diff.Added)
	sort.Strings(diff.Removed)
	sort.Strings(diff.Modified)
	sort.Strings(diff.Unchanged)

	return ManifestComparison{
		TensorDiff:     diff,
		SizeChange:     other.TotalSize - m.TotalSize,
		StorageSavings: calculateStorageSavings(m, other),
	}
}

func calculateStorageSavings(old, new *Manifest) StorageSavings {
	oldHashes := make(map[string]bool, len(old.Tensors))
	newHashes := make(map[string]bool, len(new.Tensors))
	for _, t := range old.Tensors {
		oldHashes[t.Hash.String()] = true
	}
	for _, t := range new.Tensors {
		newHashes[t.Hash.String()] = true
	}

	shared := 0
	union := make(map[string]bool, len(oldHashes)+len(newHashes))
	for h := range oldHashes {
		union[h] = true
		if newHashes[h] {
			shared++
		}
	}
	for h := range newHashes {
		union[h] = true
	}

	totalTensors := len(old.Tensors) + len(new.Tensors)
	dedupRatio := 1.0
	if len(union) > 0 {
		dedupRatio = float64(totalTensors) / float64(len(union))
	}

	return StorageSavings{
		TotalTensorsOld:    len(old.Tensors),
		TotalTensorsNew:    len(new.Tensors),
		SharedBlobs:        shared,
		UniqueBlobsOld:     len(oldHashes),
		UniqueBlobsNew:     len(newHashes),
		DeduplicationRatio: dedupRatio,
	}
}

// PrintDiff writes a human-readable rendering of m.Diff(other) to w.
func (m *Manifest) PrintDiff(w io.Writer, other *Manifest) {
	comparison := m.Diff(other)
	diff := comparison.TensorDiff

	fmt.Fprintln(w, "\nManifest Comparison:")
	fmt.Fprintln(w, "==================")

	if len(diff.Added) > 0 {
		fmt.Fprintf(w, "\nAdded Tensors (%d):\n", len(diff.Added))
		for _, name := range diff.Added {
			t := other.Tensors[name]
			fmt.Fprintf(w, "  + %s [shape: %v, dtype: %s, hash: %s]\n", name, t.Shape, t.Dtype, shortHash(t.Hash.String()))
		}
	}

	if len(diff.Removed) > 0 {
		fmt.Fprintf(w, "\nRemoved Tensors (%d):\n", len(diff.Removed))
		for _, name := range diff.Removed {
			t := m.Tensors[name]
			fmt.Fprintf(w, "  - %s [shape: %v, dtype: %s, hash: %s]\n", name, t.Shape, t.Dtype, shortHash(t.Hash.String()))
		}
	}

	if len(diff.Modified) > 0 {
		fmt.Fprintf(w, "\nModified Tensors (%d):\n", len(diff.Modified))
		for _, name := range diff.Modified {
			oldTensor := m.Tensors[name]
			newTensor := other.Tensors[name]
			fmt.Fprintf(w, "  ~ %s [shape: %v -> %v, dtype: %s, hash: %s -> %s]\n",
				name, oldTensor.Shape, newTensor.Shape, newTensor.Dtype,
				shortHash(oldTensor.Hash.String()), shortHash(newTensor.Hash.String()))
		}
	}

	fmt.Fprintf(w, "\nUnchanged Tensors: %d\n", len(diff.Unchanged))

	sign := ""
	if comparison.SizeChange >= 0 {
		sign = "+"
	}
	fmt.Fprintf(w, "Total Size Change: %s%d bytes\n", sign, comparison.SizeChange)

	fmt.Fprintln(w, "\nStorage Efficiency:")
	fmt.Fprintf(w, "  Old manifest: %d tensors, %d unique blobs\n",
		comparison.StorageSavings.TotalTensorsOld, comparison.StorageSavings.UniqueBlobsOld)
	fmt.Fprintf(w, "  New manifest: %d tensors, %d unique blobs\n",
		comparison.StorageSavings.TotalTensorsNew, comparison.StorageSavings.UniqueBlobsNew)
	fmt.Fprintf(w, "  Shared blobs: %d\n", comparison.StorageSavings.SharedBlobs)
	fmt.Fprintf(w, "  Deduplication ratio: %.2fx\n", comparison.StorageSavings.DeduplicationRatio)
}

func shortHash(h string) string {
	if len(h) <= 8 {
		return h
	}
	return h[:8]
}

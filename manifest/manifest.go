package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Khushiyant/vekt/digest"
)

// Version is the manifest schema string written to every manifest this
// package produces.
const Version = "1.0"

// Tensor is a manifest's per-tensor record: shape, dtype and content hash,
// plus Index recording the tensor's physical order in the original
// safetensors file (the tie-breaker restore sorts by) and Extra, the
// order-preserving extension map carried over from the safetensors header.
type Tensor struct {
	Shape []int64
	Dtype string
	Hash  digest.Digest
	Index int
	Extra *OrderedMap
}

var reservedManifestTensorKeys = map[string]bool{
	"shape": true,
	"dtype": true,
	"hash":  true,
	"index": true,
}

// MarshalJSON emits shape, dtype, hash, index in that fixed order, followed
// by Extra's entries spliced inline in their original order.
func (t Tensor) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	shapeJSON, err := json.Marshal(t.Shape)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`"shape":`)
	buf.Write(shapeJSON)

	dtypeJSON, err := json.Marshal(t.Dtype)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`,"dtype":`)
	buf.Write(dtypeJSON)

	hashJSON, err := json.Marshal(t.Hash.String())
	if err != nil {
		return nil, err
	}
	buf.WriteString(`,"hash":`)
	buf.Write(hashJSON)

	indexJSON, err := json.Marshal(t.Index)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`,"index":`)
	buf.Write(indexJSON)

	if t.Extra != nil {
		for _, key := range t.Extra.Keys() {
			if reservedManifestTensorKeys[key] {
				continue
			}
			v, _ := t.Extra.Get(key)
			keyJSON, err := json.Marshal(key)
			if err != nil {
				return nil, err
			}
			buf.WriteByte(',')
			buf.Write(keyJSON)
			buf.WriteByte(':')
			buf.Write(v)
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON splits a manifest tensor entry into its fixed fields and an
// order-preserving Extra map of everything else.
func (t *Tensor) UnmarshalJSON(data []byte) error {
	raw := NewOrderedMap()
	if err := json.Unmarshal(data, raw); err != nil {
		return fmt.Errorf("manifest tensor: %w", err)
	}

	extra := NewOrderedMap()
	for _, key := range raw.Keys() {
		v, _ := raw.Get(key)
		switch key {
		case "shape":
			if err := json.Unmarshal(v, &t.Shape); err != nil {
				return fmt.Errorf("manifest tensor: shape: %w", err)
			}
		case "dtype":
			if err := json.Unmarshal(v, &t.Dtype); err != nil {
				return fmt.Errorf("manifest tensor: dtype: %w", err)
			}
		case "hash":
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return fmt.Errorf("manifest tensor: hash: %w", err)
			}
			h, err := digest.Parse(s)
			if err != nil {
				return fmt.Errorf("manifest tensor: hash: %w", err)
			}
			t.Hash = h
		case "index":
			if err := json.Unmarshal(v, &t.Index); err != nil {
				return fmt.Errorf("manifest tensor: index: %w", err)
			}
		default:
			extra.Set(key, v)
		}
	}
	t.Extra = extra
	return nil
}

// Manifest is the decomposed description of a safetensors model: which
// tensors compose it, by name, and where their bytes live in the blob
// store.
type Manifest struct {
	Tensors   map[string]Tensor
	Version   string
	TotalSize int64
}

// New returns an empty Manifest with Version set to the current schema
// string and TotalSize as given.
func New(totalSize int64) *Manifest {
	return &Manifest{
		Tensors:   make(map[string]Tensor),
		Version:   Version,
		TotalSize: totalSize,
	}
}

// SortedNames returns the manifest's tensor names in ascending lexicographic
// order, the order canonical serialization uses for the tensors object.
func (m *Manifest) SortedNames() []string {
	names := make([]string, 0, len(m.Tensors))
	for name := range m.Tensors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MarshalJSON emits the manifest with a fixed top-level key order
// (tensors, version, total_size) and tensors in ascending lexicographic
// name order, so that a manifest's serialized bytes are a pure function of
// its content.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"tensors":{`)

	names := m.SortedNames()
	for i, name := range names {
		if i > 0 {
			buf.WriteByte(',')
		}
		nameJSON, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(nameJSON)
		buf.WriteByte(':')

		tensorJSON, err := json.Marshal(m.Tensors[name])
		if err != nil {
			return nil, err
		}
		buf.Write(tensorJSON)
	}
	buf.WriteString(`},"version":`)

	versionJSON, err := json.Marshal(m.Version)
	if err != nil {
		return nil, err
	}
	buf.Write(versionJSON)

	buf.WriteString(`,"total_size":`)
	totalSizeJSON, err := json.Marshal(m.TotalSize)
	if err != nil {
		return nil, err
	}
	buf.Write(totalSizeJSON)

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON parses a manifest document. Top-level key order in the
// input is not significant for parsing, only for the MarshalJSON this
// package produces.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	var raw struct {
		Tensors   map[string]Tensor `json:"tensors"`
		Version   string            `json:"version"`
		TotalSize int64             `json:"total_size"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	if raw.Tensors == nil {
		raw.Tensors = make(map[string]Tensor)
	}
	m.Tensors = raw.Tensors
	m.Version = raw.Version
	m.TotalSize = raw.TotalSize
	return nil
}

// Pretty returns the manifest's canonical serialization, pretty-printed with
// two-space indentation, matching the on-disk .vekt.json format.
func (m *Manifest) Pretty() ([]byte, error) {
	compact, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Parse decodes a manifest document from data.
func Parse(data []byte) (*Manifest, error) {
	m := &Manifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, err
	}
	return m, nil
}

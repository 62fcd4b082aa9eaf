// Package safetensors implements the ingestor half of vekt's archive
// pipeline: parsing a safetensors file's header, memory-mapping its data
// section, and splitting it into per-tensor byte slices ready for hashing
// and blob storage. It is the Go counterpart of
// original_source/vekt_core/src/lib.rs's SafetensorFile/ModelArchiver.
package safetensors

import (
	"encoding/binary"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	vekt "github.com/Khushiyant/vekt"
	"github.com/Khushiyant/vekt/manifest"
)

// File is an opened safetensors file: its parsed header plus a read-only
// memory-mapped view of the whole file. Ingestion assumes the file is not
// concurrently mutated by another process while open.
type File struct {
	header    map[string]manifest.RawTensorMetaData
	order     []string
	metadata  map[string]string
	data      []byte
	headerLen uint64
}

// Open memory-maps the file at path and parses its safetensors header.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening safetensors file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat safetensors file: %w", err)
	}
	size := info.Size()
	if size < 8 {
		return nil, vekt.ErrInvalidSafetensor{Msg: "File too small"}
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("memory-mapping safetensors file: %w", err)
	}

	headerLen := binary.LittleEndian.Uint64(data[:8])
	if 8+headerLen > uint64(size) {
		unix.Munmap(data)
		return nil, vekt.ErrInvalidSafetensor{Msg: "Header length exceeds file size"}
	}

	headerJSON := data[8 : 8+headerLen]
	tensors, order, metadata, err := manifest.ParseRawHeader(headerJSON)
	if err != nil {
		unix.Munmap(data)
		return nil, vekt.ErrInvalidSafetensor{Msg: fmt.Sprintf("invalid header JSON: %v", err)}
	}

	return &File{
		header:    tensors,
		order:     order,
		metadata:  metadata,
		data:      data,
		headerLen: headerLen,
	}, nil
}

// Close unmaps the file. Calls after the first do nothing and return nil.
func (f *File) Close() error {
	if f.data == nil {
		return nil
	}
	err := unix.Munmap(f.data)
	f.data = nil
	return err
}

// Size returns the total file size in bytes, as mapped.
func (f *File) Size() int64 {
	return int64(len(f.data))
}

// TensorNames returns tensor names in their original header (physical)
// order.
func (f *File) TensorNames() []string {
	return f.order
}

// Metadata returns the safetensors header's free-form "__metadata__" block,
// if present.
func (f *File) Metadata() map[string]string {
	return f.metadata
}

// TensorSlice returns a view into the file's data section for the named
// tensor, or a TensorCorruption-flavored error if its declared range exceeds
// the file's bounds.
func (f *File) TensorSlice(name string) ([]byte, manifest.RawTensorMetaData, error) {
	meta, ok := f.header[name]
	if !ok {
		return nil, manifest.RawTensorMetaData{}, fmt.Errorf("unknown tensor %q", name)
	}

	start := int64(8) + int64(f.headerLen) + meta.DataOffsets[0]
	end := int64(8) + int64(f.headerLen) + meta.DataOffsets[1]
	if end > int64(len(f.data)) || start < 0 || end < start {
		return nil, manifest.RawTensorMetaData{}, vekt.ErrTensorCorruption{Name: name}
	}

	return f.data[start:end], meta, nil
}

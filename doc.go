// Package vekt decomposes safetensors model files into content-addressed
// tensor blobs plus a small JSON manifest, so that model evolution can be
// diffed, branched, and checked into a line-based version-control system the
// way ordinary source changes are.
//
// The subpackages are, leaves first:
//
//	digest        content digest used to name blobs
//	store         content-addressed blob storage
//	repo          repository discovery, the exclusive operation lock, and config
//	manifest      the manifest data model, canonical serialization, restore, diff
//	safetensors   the safetensors file format and the archiving ingestor
//	gc            mark-and-sweep garbage collection across the working tree and VCS history
//	remote        push/pull transport to object-storage backends
//	cmd/vekt      the CLI
package vekt

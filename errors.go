package vekt

import "fmt"

// ErrRepoNotFound is returned when no ancestor directory contains a .vekt
// directory.
type ErrRepoNotFound struct{}

func (ErrRepoNotFound) Error() string {
	return "not a vekt repository (or any parent up to mount point): run 'vekt init' first"
}

// ErrRepoAlreadyExists is returned by init when .vekt already exists.
type ErrRepoAlreadyExists struct {
	Path string
}

func (err ErrRepoAlreadyExists) Error() string {
	return fmt.Sprintf("vekt repository already exists at %s", err.Path)
}

// ErrLockExists is returned when another operation already holds the
// exclusive repository lock.
type ErrLockExists struct {
	Path string
}

func (err ErrLockExists) Error() string {
	return fmt.Sprintf("vekt is currently locked by another process (%s); if no other vekt process is running, remove it manually", err.Path)
}

// ErrInvalidSafetensor is returned when a safetensors file's header cannot
// be parsed: too small, an out-of-range header length, or malformed JSON.
type ErrInvalidSafetensor struct {
	Msg string
}

func (err ErrInvalidSafetensor) Error() string {
	return fmt.Sprintf("invalid safetensors file: %s", err.Msg)
}

// ErrTensorCorruption is returned when a tensor's data_offsets range falls
// outside the file.
type ErrTensorCorruption struct {
	Name string
}

func (err ErrTensorCorruption) Error() string {
	return fmt.Sprintf("tensor corruption detected: %s", err.Name)
}

// ErrHashMismatch is returned when a blob's content does not hash to the
// digest a manifest expects of it.
type ErrHashMismatch struct {
	Expected, Actual string
}

func (err ErrHashMismatch) Error() string {
	return fmt.Sprintf("hash mismatch: expected %s, got %s", err.Expected, err.Actual)
}

// ErrBlobNotFound is returned when a manifest references a digest absent
// from the blob store.
type ErrBlobNotFound struct {
	Digest string
}

func (err ErrBlobNotFound) Error() string {
	return fmt.Sprintf("blob not found: %s", err.Digest)
}

// ErrInvalidTensorName is returned by validation when a tensor name is
// empty, too long, or contains characters outside the allowed set.
type ErrInvalidTensorName struct {
	Name, Reason string
}

func (err ErrInvalidTensorName) Error() string {
	return fmt.Sprintf("invalid tensor name %q: %s", err.Name, err.Reason)
}

// ErrPathTraversal is returned by validation when a path escapes the
// repository (contains ".." or is absolute where a relative path is
// required).
type ErrPathTraversal struct {
	Path string
}

func (err ErrPathTraversal) Error() string {
	return fmt.Sprintf("path traversal detected: %s", err.Path)
}

// ErrInvalidRemoteURL is returned when a remote URL fails validation for its
// scheme (e.g. a malformed S3 bucket name).
type ErrInvalidRemoteURL struct {
	URL, Reason string
}

func (err ErrInvalidRemoteURL) Error() string {
	return fmt.Sprintf("invalid remote URL %q: %s", err.URL, err.Reason)
}

// ErrRemoteNotFound is returned when a named remote is not present in the
// repository config.
type ErrRemoteNotFound struct {
	Name string
}

func (err ErrRemoteNotFound) Error() string {
	return fmt.Sprintf("remote not found: %s", err.Name)
}

// Package digest provides the content digest used to name and deduplicate
// blobs in the store. Its API shape (Digest as a validated string, Parse,
// FromBytes, Validate) follows github.com/opencontainers/go-digest, the
// digest type a registry's blob store and garbage collector typically build
// on; the hashing algorithm underneath is BLAKE3, matching the hash vekt
// repositories are written with (vekt_core/src/blobs.rs), since changing it
// would be a breaking on-disk format change. Unlike go-digest's
// "<algorithm>:<hex>" form, vekt's manifest "hash" field is bare hex with no
// algorithm prefix: a vekt repository commits to exactly one algorithm, so
// the prefix would carry no information.
package digest

import (
	"encoding/hex"
	"fmt"
	"io"

	"lukechampine.com/blake3"
)

// Algorithm is the hash function vekt digests use. Bumping this is a
// breaking on-disk format change: every existing blob filename and manifest
// hash field would need to be recomputed.
const Algorithm = "blake3"

// Size is the digest length in bytes (256 bits).
const Size = 32

// HexLen is the length, in characters, of a Digest's hex encoding.
const HexLen = Size * 2

// Digest is a lowercase-hex content hash. It also serves as the blob's
// filename in the store.
type Digest string

// FromBytes computes the Digest of data.
func FromBytes(data []byte) Digest {
	sum := blake3.Sum256(data)
	return Digest(hex.EncodeToString(sum[:]))
}

// FromReader computes the Digest of everything remaining in r, without
// buffering it all in memory at once.
func FromReader(r io.Reader) (Digest, error) {
	h := blake3.New(Size, nil)
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return Digest(hex.EncodeToString(h.Sum(nil))), nil
}

// Parse validates s as a Digest and returns it, or an error describing why
// it is malformed.
func Parse(s string) (Digest, error) {
	d := Digest(s)
	if err := d.Validate(); err != nil {
		return "", err
	}
	return d, nil
}

// Validate reports whether d is a well-formed digest: HexLen lowercase hex
// characters.
func (d Digest) Validate() error {
	s := string(d)
	if len(s) != HexLen {
		return fmt.Errorf("digest %q: expected %d hex characters, got %d", s, HexLen, len(s))
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("digest %q: not valid hex: %w", s, err)
	}
	if len(decoded) != Size {
		return fmt.Errorf("digest %q: decodes to %d bytes, expected %d", s, len(decoded), Size)
	}
	return nil
}

// String returns the hex-encoded digest.
func (d Digest) String() string {
	return string(d)
}

// Verify reports whether data hashes to d. It returns only a bool; callers
// that want a typed hash-mismatch error construct it themselves, so this
// package stays free of an import cycle on the root package.
func (d Digest) Verify(data []byte) bool {
	return FromBytes(data) == d
}

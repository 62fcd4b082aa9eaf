package repo

import (
	"os"
	"strings"
	"unicode"

	vekt "github.com/Khushiyant/vekt"
	"github.com/Khushiyant/vekt/digest"
)

// ValidatePathSafe rejects a path containing ".." or starting with "/",
// guarding against path traversal before any side effect touches the
// filesystem.
func ValidatePathSafe(path string) error {
	if strings.Contains(path, "..") || strings.HasPrefix(path, "/") {
		return vekt.ErrPathTraversal{Path: path}
	}
	return nil
}

// ValidateTensorName rejects an empty tensor name, one longer than 256 bytes,
// or one containing a character that is not a Unicode letter or digit or one
// of "._/-". Neither the CLI nor the ingestor calls it.
func ValidateTensorName(name string) error {
	if name == "" || len(name) > 256 {
		return vekt.ErrInvalidTensorName{Name: name, Reason: "tensor name must be between 1 and 256 characters"}
	}
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		switch r {
		case '.', '_', '-', '/':
			continue
		}
		return vekt.ErrInvalidTensorName{Name: name, Reason: "invalid characters in tensor name"}
	}
	return nil
}

// ValidateS3URL checks that a remote URL uses the s3:// scheme and that the
// bucket name portion is a syntactically valid (simplified) S3 bucket name,
// returning the bucket name on success.
func ValidateS3URL(url string) (string, error) {
	const scheme = "s3://"
	if !strings.HasPrefix(url, scheme) {
		return "", vekt.ErrInvalidRemoteURL{URL: url, Reason: "URL must start with s3://"}
	}

	bucket := strings.TrimSuffix(strings.TrimPrefix(url, scheme), "/")
	if bucket == "" || len(bucket) > 63 {
		return "", vekt.ErrInvalidRemoteURL{URL: url, Reason: "bucket name must be between 1 and 63 characters"}
	}
	for _, r := range bucket {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '.' {
			continue
		}
		return "", vekt.ErrInvalidRemoteURL{URL: url, Reason: "bucket name can only contain lowercase letters, numbers, hyphens, and dots"}
	}
	return bucket, nil
}

// VerifyBlobHash reports a vekt.ErrHashMismatch if data does not hash to
// expected. remote.Pull does not call it; Pull compares the digest the store
// returns after writing the downloaded bytes.
func VerifyBlobHash(data []byte, expected digest.Digest) error {
	if !expected.Verify(data) {
		return vekt.ErrHashMismatch{Expected: expected.String(), Actual: digest.FromBytes(data).String()}
	}
	return nil
}

// ValidateFileExists checks that path exists and is not a directory, before
// an operation like add tries to open it. Other non-regular files (devices,
// sockets) are not rejected.
func ValidateFileExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return vekt.ErrInvalidSafetensor{Msg: path + " is a directory, not a file"}
	}
	return nil
}

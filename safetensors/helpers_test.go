package safetensors

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// writeSafetensorsFile assembles a minimal safetensors file from a raw
// header JSON string and payload bytes, and returns its path.
func writeSafetensorsFile(t *testing.T, headerJSON string, payload []byte) string {
	t.Helper()
	var buf []byte
	var lenPrefix [8]byte
	binary.LittleEndian.PutUint64(lenPrefix[:], uint64(len(headerJSON)))
	buf = append(buf, lenPrefix[:]...)
	buf = append(buf, headerJSON...)
	buf = append(buf, payload...)

	path := filepath.Join(t.TempDir(), "model.safetensors")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("writing test safetensors file: %v", err)
	}
	return path
}

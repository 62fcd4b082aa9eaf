// Package manifest implements vekt's data model: the manifest that describes
// a decomposed safetensors model as tensor name -> (shape, dtype, hash,
// index, extra), its canonical JSON serialization, and the byte-exact
// restore pipeline that turns a manifest plus a blob store back into a
// safetensors file.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// OrderedMap is a string-keyed map that preserves the insertion order of its
// keys across a MarshalJSON/UnmarshalJSON round trip. encoding/json's native
// map type is unordered by design, which is wrong for a tensor's extra
// field: the safetensors header treats it as an ordered extension of its own
// JSON object, and vekt's manifest invariant requires reserialization to
// reproduce the original key order exactly. No library in the module's
// dependency set provides an order-preserving JSON map, so this is built
// directly on encoding/json.Decoder's token stream.
type OrderedMap struct {
	keys   []string
	values map[string]json.RawMessage
}

// NewOrderedMap returns an empty OrderedMap.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{values: make(map[string]json.RawMessage)}
}

// Len reports the number of keys.
func (m *OrderedMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order. The caller must not mutate it.
func (m *OrderedMap) Keys() []string {
	if m == nil {
		return nil
	}
	return m.keys
}

// Get returns the raw JSON value stored under key, and whether it was present.
func (m *OrderedMap) Get(key string) (json.RawMessage, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Set stores value under key, appending key to the insertion order the first
// time it is seen and leaving the order unchanged on overwrite.
func (m *OrderedMap) Set(key string, value json.RawMessage) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// MarshalJSON emits the map as a JSON object with keys in insertion order.
func (m *OrderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		buf.Write(m.values[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON parses a JSON object into m, recording key order as
// encountered in the input.
func (m *OrderedMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("ordered map: %w", err)
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return fmt.Errorf("ordered map: expected JSON object, got %v", tok)
	}

	*m = OrderedMap{values: make(map[string]json.RawMessage)}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("ordered map: reading key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("ordered map: expected string key, got %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("ordered map: reading value for %q: %w", key, err)
		}
		m.Set(key, raw)
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("ordered map: %w", err)
	}
	return nil
}

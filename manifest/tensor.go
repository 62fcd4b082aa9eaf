package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RawTensorMetaData is the direct deserialization of one safetensors header
// entry: the fixed fields plus whatever else the producing tool wrote
// (quantization hints, per-tensor user metadata, ...), captured verbatim in
// Extra and round-tripped in original insertion order.
type RawTensorMetaData struct {
	Dtype       string
	Shape       []int64
	DataOffsets [2]int64
	Extra       *OrderedMap
}

// reservedTensorKeys are the fixed safetensors header fields; anything else
// present on a tensor object is folded into Extra.
var reservedTensorKeys = map[string]bool{
	"dtype":        true,
	"shape":        true,
	"data_offsets": true,
}

// UnmarshalJSON splits a safetensors header entry into its fixed fields and
// an order-preserving Extra map of everything else.
func (t *RawTensorMetaData) UnmarshalJSON(data []byte) error {
	raw := NewOrderedMap()
	if err := json.Unmarshal(data, raw); err != nil {
		return fmt.Errorf("tensor metadata: %w", err)
	}

	extra := NewOrderedMap()
	for _, key := range raw.Keys() {
		v, _ := raw.Get(key)
		switch key {
		case "dtype":
			if err := json.Unmarshal(v, &t.Dtype); err != nil {
				return fmt.Errorf("tensor metadata: dtype: %w", err)
			}
		case "shape":
			if err := json.Unmarshal(v, &t.Shape); err != nil {
				return fmt.Errorf("tensor metadata: shape: %w", err)
			}
		case "data_offsets":
			if err := json.Unmarshal(v, &t.DataOffsets); err != nil {
				return fmt.Errorf("tensor metadata: data_offsets: %w", err)
			}
		default:
			extra.Set(key, v)
		}
	}
	t.Extra = extra
	return nil
}

// MarshalJSON emits dtype, shape, data_offsets followed by Extra's entries
// spliced inline in their original order.
func (t RawTensorMetaData) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	dtypeJSON, err := json.Marshal(t.Dtype)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`"dtype":`)
	buf.Write(dtypeJSON)

	shapeJSON, err := json.Marshal(t.Shape)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`,"shape":`)
	buf.Write(shapeJSON)

	offsetsJSON, err := json.Marshal(t.DataOffsets)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`,"data_offsets":`)
	buf.Write(offsetsJSON)

	if t.Extra != nil {
		for _, key := range t.Extra.Keys() {
			v, _ := t.Extra.Get(key)
			if reservedTensorKeys[key] {
				continue // already emitted above; a malformed header shouldn't duplicate a key
			}
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

// RawHeader is the safetensors JSON header: tensor name -> metadata, with a
// reserved "__metadata__" entry (free-form string map) some producers embed
// and which is not itself a tensor.
type RawHeader struct {
	Tensors  map[string]RawTensorMetaData
	Metadata map[string]string
}

// ParseRawHeader decodes a safetensors header, returning the tensors keyed
// by name plus their original physical order (header insertion order),
// which becomes each manifest tensor's Index.
func ParseRawHeader(data []byte) (tensors map[string]RawTensorMetaData, order []string, metadata map[string]string, err error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("safetensors header: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, nil, fmt.Errorf("safetensors header: expected JSON object")
	}

	tensors = make(map[string]RawTensorMetaData)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("safetensors header: reading key: %w", err)
		}
		name, ok := keyTok.(string)
		if !ok {
			return nil, nil, nil, fmt.Errorf("safetensors header: expected string key")
		}

		if name == "__metadata__" {
			if err := dec.Decode(&metadata); err != nil {
				return nil, nil, nil, fmt.Errorf("safetensors header: __metadata__: %w", err)
			}
			continue
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, nil, fmt.Errorf("safetensors header: tensor %q: %w", name, err)
		}
		var meta RawTensorMetaData
		if err := json.Unmarshal(raw, &meta); err != nil {
			return nil, nil, nil, fmt.Errorf("safetensors header: tensor %q: %w", name, err)
		}
		tensors[name] = meta
		order = append(order, name)
	}

	return tensors, order, metadata, nil
}

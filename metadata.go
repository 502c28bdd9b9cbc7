package ecomp

import (
	"bytes"
	"compress/zlib"
	"encoding/json"
	"fmt"
	"io"
)

// Metadata is the structured document accompanying the payload. It is a
// plain map rather than a fixed struct so unknown keys round-trip
// untouched, as the metadata contract requires.
type Metadata map[string]any

// metadataZlibMagic tags a zlib-compressed metadata document.
var metadataZlibMagic = [4]byte{'E', 'C', 'M', 'Z'}

const metadataZlibVersion = 0x01

// MarshalMetadata renders m as sorted-key JSON (encoding/json sorts
// map[string]any keys alphabetically, satisfying the "sorted keys"
// requirement directly), falling back to a zlib-compressed, "ECMZ"-tagged
// form when that is smaller.
func MarshalMetadata(m Metadata) ([]byte, error) {
	raw, err := json.Marshal(map[string]any(m))
	if err != nil {
		return nil, newErr(MalformedInput, "metadata", err)
	}

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(raw); err == nil {
		if err := zw.Close(); err == nil && buf.Len()+5 < len(raw) {
			out := make([]byte, 0, 5+buf.Len())
			out = append(out, metadataZlibMagic[:]...)
			out = append(out, metadataZlibVersion)
			out = append(out, buf.Bytes()...)
			return out, nil
		}
	}
	return raw, nil
}

// UnmarshalMetadata parses a metadata document produced by MarshalMetadata.
func UnmarshalMetadata(data []byte) (Metadata, error) {
	raw := data
	if len(data) >= 5 && string(data[:4]) == string(metadataZlibMagic[:]) {
		if data[4] != metadataZlibVersion {
			return nil, newErr(MalformedArchive, "metadata", fmt.Errorf("unsupported ECMZ version %d", data[4]))
		}
		zr, err := zlib.NewReader(bytes.NewReader(data[5:]))
		if err != nil {
			return nil, newErr(MalformedArchive, "metadata", err)
		}
		defer zr.Close()
		raw, err = io.ReadAll(zr)
		if err != nil {
			return nil, newErr(MalformedArchive, "metadata", err)
		}
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, newErr(MalformedArchive, "metadata", err)
	}
	return Metadata(m), nil
}

func (m Metadata) getString(key string) (string, bool) {
	v, ok := m[key].(string)
	return v, ok
}

func (m Metadata) getNumber(key string) (float64, bool) {
	v, ok := m[key].(float64)
	return v, ok
}

func (m Metadata) getStringSlice(key string) ([]string, bool) {
	raw, ok := m[key].([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, len(raw))
	for i, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		out[i] = s
	}
	return out, true
}

func (m Metadata) getSubObject(key string) (Metadata, bool) {
	v, ok := m[key].(map[string]any)
	if !ok {
		return nil, false
	}
	return Metadata(v), true
}

// Package container implements the archive's container framing: the
// 20-byte archive header lives in the root ecomp package, but the two
// optional payload chunks (permutation, identifier) and the outer entropy
// coding selection live here, mirroring how mewkiz/flac's meta package owns
// everything inside the metadata-block area while flac.Stream owns the
// outer "fLaC" + blocks + frames shell.
package container

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/therootcompany/xz"
)

// OuterEncoding names the outer coder applied to the structural payload,
// matching the metadata contract's payload_encoding values.
type OuterEncoding string

const (
	EncodingRaw   OuterEncoding = "raw"
	EncodingZlib  OuterEncoding = "zlib"
	EncodingZstd  OuterEncoding = "zstd"
	EncodingXz    OuterEncoding = "xz"
	EncodingGzip  OuterEncoding = "gzip"
)

// EncodeOuter tries every outer encoding this build can produce and returns
// the smallest result along with the encoding name that made it. The
// encoder never emits "xz": no xz encoder is wired (see DESIGN.md), but
// DecodeOuter still reads it for interoperability.
func EncodeOuter(payload []byte) (OuterEncoding, []byte, error) {
	best := EncodingRaw
	bestBytes := payload

	if zlibBytes, err := encodeZlib(payload); err == nil && len(zlibBytes) < len(bestBytes) {
		best, bestBytes = EncodingZlib, zlibBytes
	}
	if zstdBytes, err := encodeZstd(payload); err == nil && len(zstdBytes) < len(bestBytes) {
		best, bestBytes = EncodingZstd, zstdBytes
	}

	return best, bestBytes, nil
}

// DecodeOuter reverses the outer encoding named by encoding.
func DecodeOuter(encoding OuterEncoding, data []byte) ([]byte, error) {
	switch encoding {
	case EncodingRaw, "":
		return data, nil
	case EncodingZlib:
		return decodeZlib(data)
	case EncodingZstd:
		return decodeZstd(data)
	case EncodingXz:
		return decodeXz(data)
	case EncodingGzip:
		return decodeGzip(data)
	default:
		return nil, fmt.Errorf("container.DecodeOuter: unsupported payload_encoding %q", encoding)
	}
}

func encodeZlib(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(payload); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeZlib(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("container.DecodeOuter: zlib: %w", err)
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func encodeZstd(payload []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(payload, nil), nil
}

func decodeZstd(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("container.DecodeOuter: zstd: %w", err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("container.DecodeOuter: zstd: %w", err)
	}
	return out, nil
}

// decodeGzip supports the fallback path's payload_encoding == "gzip";
// callers that already branched on metadata's fallback object decode
// fallback payloads directly instead, but DecodeOuter stays total over
// every payload_encoding the metadata contract allows.
func decodeGzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("container.DecodeOuter: gzip: %w", err)
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func decodeXz(data []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(data), xz.DefaultDictMax)
	if err != nil {
		return nil, fmt.Errorf("container.DecodeOuter: xz: %w", err)
	}
	return io.ReadAll(r)
}

// Package bitpack provides the MSB-first bit-level writer and reader used to
// serialise consensus residue streams: fixed-width symbol indices and
// canonical Huffman codewords are both packed into a byte sequence with the
// first emitted bit landing in the most significant bit of
// the first byte, the last byte zero-padded.
//
// It is a thin wrapper around github.com/icza/bitio, the same MSB-first bit
// reader/writer mewkiz/flac uses to pack FLAC subframe residuals.
package bitpack

import (
	"bytes"

	"github.com/icza/bitio"
)

// A Writer accumulates bits MSB-first into an in-memory byte buffer.
type Writer struct {
	buf *bytes.Buffer
	bw  *bitio.Writer
}

// NewWriter returns a Writer ready to accept bits.
func NewWriter() *Writer {
	buf := new(bytes.Buffer)
	return &Writer{
		buf: buf,
		bw:  bitio.NewWriter(buf),
	}
}

// WriteBits writes the n least significant bits of value, most significant
// bit first. n must be in [0, 64].
func (w *Writer) WriteBits(value uint64, n byte) error {
	if n == 0 {
		return nil
	}
	return w.bw.WriteBits(value, n)
}

// Bytes flushes any partially-filled trailing byte (zero-padded) and returns
// the packed bit stream. The Writer must not be used after calling Bytes.
func (w *Writer) Bytes() ([]byte, error) {
	if err := w.bw.Close(); err != nil {
		return nil, err
	}
	return w.buf.Bytes(), nil
}

// A Reader consumes bits MSB-first from an in-memory byte slice.
type Reader struct {
	br *bitio.Reader
}

// NewReader returns a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{br: bitio.NewReader(bytes.NewReader(data))}
}

// ReadBits reads the next n bits, most significant bit first, and returns
// them right-aligned in the low bits of the result. n must be in [0, 64].
func (r *Reader) ReadBits(n byte) (uint64, error) {
	if n == 0 {
		return 0, nil
	}
	return r.br.ReadBits(n)
}

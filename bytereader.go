package ecomp

import (
	"fmt"

	"github.com/jlsteenwyk/ecomp/internal/varint"
)

// byteReader is a minimal forward-only cursor over a byte slice, satisfying
// io.ByteReader for model.ReadTable while also supporting the
// length-prefixed reads the payload format needs.
type byteReader struct {
	data []byte
	pos  int
}

func newByteReader(data []byte) *byteReader {
	return &byteReader{data: data}
}

func (r *byteReader) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, fmt.Errorf("byteReader: read past end of buffer")
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *byteReader) ReadN(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, fmt.Errorf("byteReader: requested %d bytes, only %d remain", n, len(r.data)-r.pos)
	}
	out := r.data[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *byteReader) ReadFull(dst []byte) error {
	n, err := r.ReadN(len(dst))
	if err != nil {
		return err
	}
	copy(dst, n)
	return nil
}

func (r *byteReader) ReadVarint() (uint64, error) {
	x, n, err := varint.Decode(r.data[r.pos:])
	if err != nil {
		return 0, err
	}
	r.pos += n
	return x, nil
}

// Remaining reports the unread tail of the buffer.
func (r *byteReader) Remaining() []byte {
	return r.data[r.pos:]
}

// Package varint implements the little-endian base-128 variable-length
// integer encoding used throughout the ecomp payload format: bitmask
// delta-varint entries (mode 1), deviation counts, mask-payload lengths, and
// chunk lengths in the container framing.
//
// The encoding is unsigned only, 7 data bits per byte, with bit 7 set on
// every byte except the last.
package varint

import (
	"fmt"
	"io"
)

// MaxLen is the maximum number of bytes needed to encode any uint64 value.
const MaxLen = 10

// Append encodes x and appends it to dst, returning the extended slice.
//
// Examples of decimal input on the left and the encoded bytes (hex) on the
// right:
//
//	0       => 00
//	127     => 7f
//	128     => 80 01
//	300     => ac 02
func Append(dst []byte, x uint64) []byte {
	for x >= 0x80 {
		dst = append(dst, byte(x)|0x80)
		x >>= 7
	}
	return append(dst, byte(x))
}

// Encode returns the varint encoding of x as a freshly allocated slice.
func Encode(x uint64) []byte {
	return Append(make([]byte, 0, MaxLen), x)
}

// Decode reads a varint from the front of buf and returns the decoded value
// along with the number of bytes consumed. It returns an error if buf is
// truncated or the encoding overflows 64 bits.
func Decode(buf []byte) (x uint64, n int, err error) {
	var shift uint
	for i, b := range buf {
		if i >= MaxLen {
			return 0, 0, fmt.Errorf("varint.Decode: value overflows 64 bits")
		}
		x |= uint64(b&0x7f) << shift
		if b < 0x80 {
			return x, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, io.ErrUnexpectedEOF
}

// Read decodes a single varint from r, one byte at a time.
func Read(r io.ByteReader) (uint64, error) {
	var x uint64
	var shift uint
	for i := 0; ; i++ {
		if i >= MaxLen {
			return 0, fmt.Errorf("varint.Read: value overflows 64 bits")
		}
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		x |= uint64(b&0x7f) << shift
		if b < 0x80 {
			return x, nil
		}
		shift += 7
	}
}

// Write encodes x and writes it to w.
func Write(w io.ByteWriter, x uint64) error {
	for x >= 0x80 {
		if err := w.WriteByte(byte(x) | 0x80); err != nil {
			return err
		}
		x >>= 7
	}
	return w.WriteByte(byte(x))
}

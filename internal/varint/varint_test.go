package varint_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/jlsteenwyk/ecomp/internal/varint"
)

func TestEncodeDecodeGolden(t *testing.T) {
	golden := []struct {
		x    uint64
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{300, []byte{0xac, 0x02}},
		{1 << 35, []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01}},
	}
	for _, g := range golden {
		got := varint.Encode(g.x)
		assert.Equal(t, g.want, got, "encode(%d)", g.x)

		x, n, err := varint.Decode(append(got, 0xff))
		assert.NoError(t, err)
		assert.Equal(t, g.x, x)
		assert.Equal(t, len(g.want), n)
	}
}

func TestDecodeTruncated(t *testing.T) {
	_, _, err := varint.Decode([]byte{0x80, 0x80})
	assert.Error(t, err)
}

func TestReadWriteRoundTrip(t *testing.T) {
	buf := new(bytes.Buffer)
	for _, x := range []uint64{0, 1, 127, 128, 16384, 1 << 40, ^uint64(0)} {
		buf.Reset()
		assert.NoError(t, varint.Write(buf, x))
		got, err := varint.Read(buf)
		assert.NoError(t, err)
		assert.Equal(t, x, got)
	}
}

// Varint laws: read(write(n)) == n for all n, and the encoding ends on a
// byte with the continuation bit clear.
func TestPropertyRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		x := rapid.Uint64().Draw(t, "x")

		enc := varint.Encode(x)
		assert.NotEmpty(t, enc)
		assert.Zero(t, enc[len(enc)-1]&0x80, "terminating byte must not set the continuation bit")

		got, n, err := varint.Decode(enc)
		assert.NoError(t, err)
		assert.Equal(t, x, got)
		assert.Equal(t, len(enc), n)
	})
}

func TestPropertyMinimalEncoding(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		x := rapid.Uint64Range(0, 1<<21).Draw(t, "x")
		enc := varint.Encode(x)
		// No encoding should ever be longer than necessary: 7 bits per byte.
		bits := 1
		for v := x; v >= 0x80; v >>= 7 {
			bits++
		}
		assert.Len(t, enc, bits)
	})
}

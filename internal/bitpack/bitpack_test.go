package bitpack_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/jlsteenwyk/ecomp/internal/bitpack"
)

func TestRoundTripFixedWidths(t *testing.T) {
	w := bitpack.NewWriter()
	values := []uint64{0, 1, 2, 5, 7}
	for _, v := range values {
		assert.NoError(t, w.WriteBits(v, 3))
	}
	data, err := w.Bytes()
	assert.NoError(t, err)

	r := bitpack.NewReader(data)
	for _, want := range values {
		got, err := r.ReadBits(3)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestPropertyRoundTripVariableWidths(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 64).Draw(t, "n")
		type entry struct {
			width byte
			value uint64
		}
		entries := make([]entry, n)
		w := bitpack.NewWriter()
		for i := range entries {
			width := byte(rapid.IntRange(1, 16).Draw(t, "width"))
			value := rapid.Uint64Range(0, (uint64(1)<<width)-1).Draw(t, "value")
			entries[i] = entry{width, value}
			assert.NoError(t, w.WriteBits(value, width))
		}
		data, err := w.Bytes()
		assert.NoError(t, err)

		r := bitpack.NewReader(data)
		for _, e := range entries {
			got, err := r.ReadBits(e.width)
			assert.NoError(t, err)
			assert.Equal(t, e.value, got)
		}
	})
}

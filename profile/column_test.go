package profile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jlsteenwyk/ecomp/profile"
)

func TestColumnsAllConstant(t *testing.T) {
	rows := [][]byte{[]byte("AAAA"), []byte("AAAA"), []byte("AAAA")}
	cols, err := profile.Columns(rows)
	assert.NoError(t, err)
	assert.Len(t, cols, 4)
	for _, c := range cols {
		assert.Equal(t, byte('A'), c.Consensus)
		assert.Empty(t, c.Deviations)
	}
}

func TestColumnsSingleDeviation(t *testing.T) {
	rows := [][]byte{[]byte("ACGT"), []byte("ACGT"), []byte("ACGA")}
	cols, err := profile.Columns(rows)
	assert.NoError(t, err)
	assert.Equal(t, byte('T'), cols[3].Consensus)
	assert.Equal(t, []profile.Deviation{{Row: 2, Residue: 'A'}}, cols[3].Deviations)
	for i := 0; i < 3; i++ {
		assert.Empty(t, cols[i].Deviations)
	}
}

func TestColumnsTiedConsensus(t *testing.T) {
	rows := [][]byte{{'A'}, {'A'}, {'C'}, {'C'}}
	cols, err := profile.Columns(rows)
	assert.NoError(t, err)
	assert.Equal(t, byte('A'), cols[0].Consensus)
	assert.Equal(t, []profile.Deviation{{Row: 2, Residue: 'C'}, {Row: 3, Residue: 'C'}}, cols[0].Deviations)
}

func TestColumnsRowLengthMismatch(t *testing.T) {
	_, err := profile.Columns([][]byte{[]byte("AC"), []byte("A")})
	assert.Error(t, err)
}

func TestColumnsNonASCII(t *testing.T) {
	_, err := profile.Columns([][]byte{{0xff, 'A'}})
	assert.Error(t, err)
}

func TestColumnEqual(t *testing.T) {
	a := profile.Column{Consensus: 'A', Deviations: []profile.Deviation{{Row: 1, Residue: 'C'}}}
	b := profile.Column{Consensus: 'A', Deviations: []profile.Deviation{{Row: 1, Residue: 'C'}}}
	c := profile.Column{Consensus: 'A', Deviations: []profile.Deviation{{Row: 2, Residue: 'C'}}}
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

package block_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jlsteenwyk/ecomp/block"
	"github.com/jlsteenwyk/ecomp/profile"
)

func TestAggregateMergesEquivalentRuns(t *testing.T) {
	cols := []profile.Column{
		{Consensus: 'A'},
		{Consensus: 'A'},
		{Consensus: 'A'},
		{Consensus: 'A'},
	}
	blocks := block.Aggregate(cols)
	assert.Equal(t, []block.Block{{Pattern: block.Pattern{Consensus: 'A'}, RunLength: 4}}, blocks)
}

func TestAggregateSplitsLongRuns(t *testing.T) {
	cols := make([]profile.Column, 300)
	for i := range cols {
		cols[i] = profile.Column{Consensus: 'G'}
	}
	blocks := block.Aggregate(cols)
	assert.Len(t, blocks, 2)
	assert.Equal(t, 255, blocks[0].RunLength)
	assert.Equal(t, 45, blocks[1].RunLength)
}

func TestAggregateSeparatesDifferingDeviations(t *testing.T) {
	cols := []profile.Column{
		{Consensus: 'T'},
		{Consensus: 'T', Deviations: []profile.Deviation{{Row: 2, Residue: 'A'}}},
	}
	blocks := block.Aggregate(cols)
	assert.Len(t, blocks, 2)
	assert.Equal(t, 1, blocks[0].RunLength)
	assert.Equal(t, 1, blocks[1].RunLength)
}

func TestBlockExpandRoundTrip(t *testing.T) {
	cols := []profile.Column{
		{Consensus: 'A', Deviations: []profile.Deviation{{Row: 0, Residue: 'C'}}},
		{Consensus: 'A', Deviations: []profile.Deviation{{Row: 0, Residue: 'C'}}},
	}
	blocks := block.Aggregate(cols)
	var expanded []profile.Column
	for _, b := range blocks {
		expanded = append(expanded, b.Expand()...)
	}
	assert.Equal(t, cols, expanded)
}

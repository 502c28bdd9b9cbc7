// Package block implements the run aggregator: it merges runs of adjacent,
// equivalent column profiles into Blocks, and separately the dictionary
// builder that promotes frequent block patterns to 1-byte references.
//
// The package borrows its Block/Pattern split from the way mewkiz/flac
// separates a frame.Header (what repeats) from per-frame sample data (what
// varies): a Pattern is the part of a block that can be shared through the
// dictionary, RunLength never is.
package block

import "github.com/jlsteenwyk/ecomp/profile"

// MaxRunLength is the largest run length a single block may carry; longer
// equivalent runs are split into multiple blocks.
const MaxRunLength = 255

// A Pattern is the shareable part of a block: the consensus symbol and its
// deviation list. Two blocks with equal patterns are candidates for
// dictionary deduplication.
type Pattern struct {
	Consensus  byte
	Deviations []profile.Deviation
}

// Equal reports whether two patterns are identical.
func (p Pattern) Equal(other Pattern) bool {
	if p.Consensus != other.Consensus || len(p.Deviations) != len(other.Deviations) {
		return false
	}
	for i, d := range p.Deviations {
		if d != other.Deviations[i] {
			return false
		}
	}
	return true
}

// A Block is a maximal run of adjacent columns sharing one Pattern.
type Block struct {
	Pattern   Pattern
	RunLength int
}

// Aggregate merges adjacent equivalent columns into blocks, splitting runs
// longer than MaxRunLength.
func Aggregate(cols []profile.Column) []Block {
	var blocks []Block
	i := 0
	for i < len(cols) {
		j := i + 1
		for j < len(cols) && cols[j].Equal(cols[i]) {
			j++
		}
		run := j - i
		pattern := Pattern{Consensus: cols[i].Consensus, Deviations: cols[i].Deviations}
		for run > 0 {
			n := run
			if n > MaxRunLength {
				n = MaxRunLength
			}
			blocks = append(blocks, Block{Pattern: pattern, RunLength: n})
			run -= n
		}
		i = j
	}
	return blocks
}

// Expand is the inverse of Aggregate restricted to a single block: it
// returns RunLength copies of the block's column profile.
func (b Block) Expand() []profile.Column {
	cols := make([]profile.Column, b.RunLength)
	for i := range cols {
		cols[i] = profile.Column{Consensus: b.Pattern.Consensus, Deviations: b.Pattern.Deviations}
	}
	return cols
}

package ecomp

import "fmt"

// A Frame is the codec's input and output: an ordered alignment of rows over
// an ASCII alphabet with order-significant identifiers.
type Frame struct {
	Identifiers []string
	Sequences   [][]byte
}

// EncodeOptions carries the optional hints Encode reads but never derives
// on its own: sequence-ordering heuristics live outside the core codec, so
// a caller that wants the archive stored in a different row order supplies
// that order directly.
type EncodeOptions struct {
	// Permutation, if non-nil, must be a permutation of [0,N) where
	// Permutation[i] names the original row index stored at position i.
	// When set, the archive records sequence_permutation.encoding =
	// "payload" and the decoder restores the original order on read.
	Permutation []int

	// OrderingStrategy is written to metadata verbatim; it is documentation
	// only, the codec applies no heuristic itself. Defaults to "given".
	OrderingStrategy string
}

func (f Frame) validate() error {
	if len(f.Identifiers) != len(f.Sequences) {
		return fmt.Errorf("%d identifiers but %d sequences", len(f.Identifiers), len(f.Sequences))
	}
	seen := make(map[string]int, len(f.Identifiers))
	for i, id := range f.Identifiers {
		if prev, ok := seen[id]; ok {
			return fmt.Errorf("duplicate row identifier %q at rows %d and %d", id, prev, i)
		}
		seen[id] = i
	}
	if len(f.Sequences) == 0 {
		return nil
	}
	l := len(f.Sequences[0])
	for i, seq := range f.Sequences {
		if len(seq) != l {
			return fmt.Errorf("row %d has length %d, want %d", i, len(seq), l)
		}
		for j, b := range seq {
			if b > 0x7f {
				return fmt.Errorf("row %d, column %d: byte 0x%02x is not ASCII", i, j, b)
			}
		}
	}
	return nil
}

func (opts EncodeOptions) validate(numRows int) error {
	if opts.Permutation == nil {
		return nil
	}
	if len(opts.Permutation) != numRows {
		return fmt.Errorf("permutation has %d entries, want %d", len(opts.Permutation), numRows)
	}
	seen := make([]bool, numRows)
	for _, idx := range opts.Permutation {
		if idx < 0 || idx >= numRows {
			return fmt.Errorf("permutation entry %d out of range [0,%d)", idx, numRows)
		}
		if seen[idx] {
			return fmt.Errorf("permutation entry %d appears more than once", idx)
		}
		seen[idx] = true
	}
	return nil
}

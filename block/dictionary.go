package block

import (
	"encoding/binary"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/jlsteenwyk/ecomp/bitmask"
	"github.com/jlsteenwyk/ecomp/internal/varint"
	"github.com/jlsteenwyk/ecomp/model"
)

// MaxDictionarySize is the cap on dictionary entries: the entry count is a
// single byte, so ids run 0..=254.
const MaxDictionarySize = 255

// A Dictionary holds the frequent block patterns selected for 1-byte
// reference encoding, ordered by descending benefit so id 0 is the densest
// reference.
type Dictionary struct {
	Entries []Pattern
}

// Lookup returns the dictionary id for pattern, if present.
func (d *Dictionary) Lookup(pattern Pattern) (id int, ok bool) {
	for i, e := range d.Entries {
		if e.Equal(pattern) {
			return i, true
		}
	}
	return 0, false
}

// patternGroup tallies how many blocks share a pattern, keyed first by a
// fast xxhash digest (a cheap hash paired with an exact equality check) and
// only then disambiguated by Pattern.Equal, so hash collisions never merge
// distinct patterns.
type patternGroup struct {
	pattern Pattern
	count   int
}

func patternDigest(p Pattern) uint64 {
	h := xxhash.New()
	h.Write([]byte{p.Consensus})
	var buf [9]byte
	for _, d := range p.Deviations {
		binary.BigEndian.PutUint64(buf[:8], uint64(d.Row))
		buf[8] = d.Residue
		h.Write(buf[:])
	}
	return h.Sum64()
}

// patternSerializedSize estimates the byte length of the pattern's shared
// payload shape (consensus, bitmask mode, varint deviation count, varint
// mask length, mask bytes, 2-byte residue length, residue bytes), the same
// shape whether it appears as a dictionary entry or as a literal block's
// body.
func patternSerializedSize(p Pattern, numRows int, models map[byte]*model.Model) int {
	rowIdx := make([]int, len(p.Deviations))
	residues := make([]byte, len(p.Deviations))
	for i, d := range p.Deviations {
		rowIdx[i] = d.Row
		residues[i] = d.Residue
	}
	mask := bitmask.Encode(numRows, rowIdx)

	bits := 0
	if m, ok := models[p.Consensus]; ok {
		bits = m.BitLength(residues)
	}
	residueBytes := (bits + 7) / 8

	return 1 + 1 + len(varint.Encode(uint64(len(p.Deviations)))) + len(varint.Encode(uint64(len(mask.Payload)))) + len(mask.Payload) + 2 + residueBytes
}

// referenceOverhead is the fixed cost of a reference record's own payload:
// 1 marker byte plus a 1-byte dictionary id. The run-length byte common to
// both literal and reference encodings cancels out of the comparison.
const referenceOverhead = 2

// Build selects up to cap frequent patterns, in descending net-benefit
// order: for a pattern occurring k times, the benefit of
// dictionary-encoding it is
// k*(serializedSize-referenceOverhead) - entryCost, kept only while
// positive.
func Build(blocks []Block, models map[byte]*model.Model, numRows, cap int) *Dictionary {
	if cap > MaxDictionarySize {
		cap = MaxDictionarySize
	}

	groupsByDigest := map[uint64][]*patternGroup{}
	for _, b := range blocks {
		digest := patternDigest(b.Pattern)
		bucket := groupsByDigest[digest]
		found := false
		for _, g := range bucket {
			if g.pattern.Equal(b.Pattern) {
				g.count++
				found = true
				break
			}
		}
		if !found {
			groupsByDigest[digest] = append(bucket, &patternGroup{pattern: b.Pattern, count: 1})
		}
	}

	type scored struct {
		pattern Pattern
		benefit int
	}
	var candidates []scored
	for _, bucket := range groupsByDigest {
		for _, g := range bucket {
			size := patternSerializedSize(g.pattern, numRows, models)
			entryCost := size
			benefit := g.count*(size-referenceOverhead) - entryCost
			if benefit > 0 {
				candidates = append(candidates, scored{pattern: g.pattern, benefit: benefit})
			}
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].benefit != candidates[j].benefit {
			return candidates[i].benefit > candidates[j].benefit
		}
		// Deterministic tie-break so repeated encodes of the same
		// alignment always produce byte-identical dictionaries.
		return lessPattern(candidates[i].pattern, candidates[j].pattern)
	})

	if len(candidates) > cap {
		candidates = candidates[:cap]
	}

	d := &Dictionary{Entries: make([]Pattern, len(candidates))}
	for i, c := range candidates {
		d.Entries[i] = c.pattern
	}
	return d
}

func lessPattern(a, b Pattern) bool {
	if a.Consensus != b.Consensus {
		return a.Consensus < b.Consensus
	}
	if len(a.Deviations) != len(b.Deviations) {
		return len(a.Deviations) < len(b.Deviations)
	}
	for i := range a.Deviations {
		if a.Deviations[i].Row != b.Deviations[i].Row {
			return a.Deviations[i].Row < b.Deviations[i].Row
		}
		if a.Deviations[i].Residue != b.Deviations[i].Residue {
			return a.Deviations[i].Residue < b.Deviations[i].Residue
		}
	}
	return false
}

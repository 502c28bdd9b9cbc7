// Package bitmask implements the three alternative bitmask encodings (raw,
// delta-varint, byte-RLE) and the smallest-wins selection between them.
// Mode dispatch follows mewkiz/flac's convention of
// discriminating alternatives with a single leading mode byte (see
// frame.Subframe's Pred field).
package bitmask

import (
	"fmt"

	"github.com/jlsteenwyk/ecomp/internal/varint"
)

// Mode discriminates the three bitmask encodings.
type Mode byte

const (
	ModeRaw         Mode = 0
	ModeDeltaVarint Mode = 1
	ModeByteRLE     Mode = 2
)

// Encoded is a selected bitmask encoding: a mode byte and its payload.
type Encoded struct {
	Mode    Mode
	Payload []byte
}

// Pack builds the raw N-bit mask (LSB-of-bit-0 per byte) for the given
// deviating row indices, all of which must be < n.
func Pack(n int, rows []int) []byte {
	raw := make([]byte, (n+7)/8)
	for _, row := range rows {
		raw[row/8] |= 1 << uint(row%8)
	}
	return raw
}

// rows returns the ascending set bit positions of a raw mask, bounded by n.
func rows(raw []byte, n int) []int {
	var out []int
	for i := 0; i < n; i++ {
		if raw[i/8]&(1<<uint(i%8)) != 0 {
			out = append(out, i)
		}
	}
	return out
}

// trim drops trailing zero bytes from a raw mask (mode 0).
func trim(raw []byte) []byte {
	i := len(raw)
	for i > 0 && raw[i-1] == 0 {
		i--
	}
	return raw[:i]
}

func encodeRaw(raw []byte) []byte {
	return append([]byte(nil), trim(raw)...)
}

func encodeDeltaVarint(rowIdx []int) []byte {
	var payload []byte
	payload = varint.Append(payload, uint64(len(rowIdx)))
	prev := -1
	for _, r := range rowIdx {
		delta := r - prev
		payload = varint.Append(payload, uint64(delta))
		prev = r
	}
	return payload
}

func encodeByteRLE(raw []byte) []byte {
	trimmed := trim(raw)
	var payload []byte
	i := 0
	for i < len(trimmed) {
		b := trimmed[i]
		j := i + 1
		for j < len(trimmed) && trimmed[j] == b && j-i < 255 {
			j++
		}
		payload = append(payload, b, byte(j-i))
		i = j
	}
	return payload
}

// Encode computes all three candidate encodings of the n-bit mask carrying
// deviations at rowIdx (ascending) and returns the shortest, ties broken by
// mode 0, then 1, then 2.
func Encode(n int, rowIdx []int) Encoded {
	raw := Pack(n, rowIdx)

	candidates := [3][]byte{
		ModeRaw:         encodeRaw(raw),
		ModeDeltaVarint: encodeDeltaVarint(rowIdx),
		ModeByteRLE:     encodeByteRLE(raw),
	}

	best := ModeRaw
	for _, m := range []Mode{ModeDeltaVarint, ModeByteRLE} {
		if len(candidates[m]) < len(candidates[best]) {
			best = m
		}
	}
	return Encoded{Mode: best, Payload: candidates[best]}
}

// Decode reconstructs the ascending set-bit row indices from an encoded
// mask, bounded by n rows.
func Decode(mode Mode, payload []byte, n int) ([]int, error) {
	switch mode {
	case ModeRaw:
		raw := make([]byte, (n+7)/8)
		if len(payload) > len(raw) {
			return nil, fmt.Errorf("bitmask.Decode: raw payload of %d bytes exceeds the %d bytes needed for %d rows", len(payload), len(raw), n)
		}
		copy(raw, payload)
		return rows(raw, n), nil
	case ModeDeltaVarint:
		k, used, err := varint.Decode(payload)
		if err != nil {
			return nil, fmt.Errorf("bitmask.Decode: reading set-bit count: %w", err)
		}
		payload = payload[used:]
		out := make([]int, 0, k)
		prev := -1
		for i := uint64(0); i < k; i++ {
			delta, n2, err := varint.Decode(payload)
			if err != nil {
				return nil, fmt.Errorf("bitmask.Decode: reading delta %d: %w", i, err)
			}
			payload = payload[n2:]
			prev += int(delta)
			if prev >= n {
				return nil, fmt.Errorf("bitmask.Decode: row index %d out of range [0,%d)", prev, n)
			}
			out = append(out, prev)
		}
		return out, nil
	case ModeByteRLE:
		if len(payload)%2 != 0 {
			return nil, fmt.Errorf("bitmask.Decode: byte-RLE payload has odd length %d, want (value, count) pairs", len(payload))
		}
		raw := make([]byte, 0, (n+7)/8)
		for i := 0; i+1 < len(payload); i += 2 {
			value, count := payload[i], payload[i+1]
			for j := byte(0); j < count; j++ {
				raw = append(raw, value)
			}
		}
		full := make([]byte, (n+7)/8)
		if len(raw) > len(full) {
			return nil, fmt.Errorf("bitmask.Decode: byte-RLE payload expands to %d bytes, exceeds the %d bytes needed for %d rows", len(raw), len(full), n)
		}
		copy(full, raw)
		return rows(full, n), nil
	default:
		return nil, fmt.Errorf("bitmask.Decode: unknown mode byte %d", mode)
	}
}

package ecomp

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rows(strs ...string) [][]byte {
	out := make([][]byte, len(strs))
	for i, s := range strs {
		out[i] = []byte(s)
	}
	return out
}

// Scenario 1: an all-constant alignment collapses to a single
// block and round-trips exactly.
func TestAllConstantAlignment(t *testing.T) {
	frame := Frame{
		Identifiers: []string{"s1", "s2", "s3"},
		Sequences:   rows("AAAA", "AAAA", "AAAA"),
	}
	archive, metadata, err := Encode(frame, EncodeOptions{}, DefaultConfig())
	require.NoError(t, err)

	got, _, err := Decode(archive, metadata, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, frame, got)

	meta, err := UnmarshalMetadata(metadata)
	require.NoError(t, err)
	_, isFallback := meta.getSubObject("fallback")
	assert.False(t, isFallback)
}

// Scenario 2: a single deviating column round-trips and is reported as
// exactly one column with a deviation. Every row carries the same long
// constant tail so the structural payload is smaller than the gzip fallback;
// the deviation statistics are only written on the structural path.
func TestSingleColumnDeviation(t *testing.T) {
	tail := strings.Repeat("A", 20000)
	frame := Frame{
		Identifiers: []string{"s1", "s2", "s3"},
		Sequences:   rows("ACGT"+tail, "ACGT"+tail, "ACGA"+tail),
	}
	archive, metadata, err := Encode(frame, EncodeOptions{}, DefaultConfig())
	require.NoError(t, err)

	got, stats, err := Decode(archive, metadata, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, frame, got)
	assert.Equal(t, 1, stats.ColumnsWithDeviations)
}

// Scenario 4: a large, uniformly random alignment over a wide alphabet must
// take the fallback path, and still round-trips exactly.
func TestFallbackPathOnIncompressibleAlignment(t *testing.T) {
	const numRows, length, alphabetSize = 200, 200, 64
	rng := rand.New(rand.NewSource(1))
	alphabet := make([]byte, alphabetSize)
	for i := range alphabet {
		alphabet[i] = byte('!' + i)
	}

	ids := make([]string, numRows)
	sequences := make([][]byte, numRows)
	for i := range sequences {
		ids[i] = string(rune('a'+i%26)) + string(rune('0'+i/26))
		seq := make([]byte, length)
		for j := range seq {
			seq[j] = alphabet[rng.Intn(alphabetSize)]
		}
		sequences[i] = seq
	}
	frame := Frame{Identifiers: ids, Sequences: sequences}

	archive, metadata, err := Encode(frame, EncodeOptions{}, DefaultConfig())
	require.NoError(t, err)

	meta, err := UnmarshalMetadata(metadata)
	require.NoError(t, err)
	fb, ok := meta.getSubObject("fallback")
	require.True(t, ok, "expected fallback path for incompressible random alignment")
	fbType, _ := fb.getString("type")
	assert.Equal(t, "gzip", fbType)

	got, _, err := Decode(archive, metadata, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, frame, got)
}

// Scenario 5: an explicit permutation hint reorders storage, but decode
// restores the original row order. Every row carries the same long constant
// tail so the structural payload, which holds the permutation chunk, is
// smaller than the gzip fallback.
func TestPermutationRoundTrip(t *testing.T) {
	tail := strings.Repeat("A", 20000)
	frame := Frame{
		Identifiers: []string{"s1", "s2", "s3", "s4"},
		Sequences:   rows("AAAA"+tail, "ACGT"+tail, "AAAA"+tail, "ACGA"+tail),
	}
	n := len(frame.Sequences)
	reversed := make([]int, n)
	for i := range reversed {
		reversed[i] = n - 1 - i
	}

	archive, metadata, err := Encode(frame, EncodeOptions{Permutation: reversed}, DefaultConfig())
	require.NoError(t, err)

	got, _, err := Decode(archive, metadata, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, frame, got)

	meta, err := UnmarshalMetadata(metadata)
	require.NoError(t, err)
	permMeta, ok := meta.getSubObject("sequence_permutation")
	require.True(t, ok)
	enc, _ := permMeta.getString("encoding")
	assert.Equal(t, "payload", enc)
}

// Scenario 6: a consensus with one heavily dominant deviation residue and
// several rare ones should round-trip under whichever model (fixed or
// Huffman) Build selects for that skew.
func TestSkewedDeviationDistributionRoundTrips(t *testing.T) {
	const n = 1000
	ids := make([]string, n)
	sequences := make([][]byte, n)
	rareResidues := []byte{'G', 'T', 'N', 'X', 'Y', 'Z', 'W', 'V', 'R'}
	for i := range sequences {
		ids[i] = "row" + string(rune('0'+i/100)) + string(rune('0'+(i/10)%10)) + string(rune('0'+i%10))
		var b byte
		switch {
		case i < 900:
			b = 'C' // consensus
		case i < 990:
			b = 'A' // dominant deviation
		default:
			b = rareResidues[(i-990)%len(rareResidues)]
		}
		sequences[i] = []byte{b}
	}
	frame := Frame{Identifiers: ids, Sequences: sequences}

	archive, metadata, err := Encode(frame, EncodeOptions{}, DefaultConfig())
	require.NoError(t, err)

	got, _, err := Decode(archive, metadata, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, frame, got)
}

func TestEncodeRejectsMismatchedRowLengths(t *testing.T) {
	frame := Frame{
		Identifiers: []string{"s1", "s2"},
		Sequences:   rows("AAAA", "AAA"),
	}
	_, _, err := Encode(frame, EncodeOptions{}, DefaultConfig())
	require.Error(t, err)
	var codecErr *CodecError
	require.ErrorAs(t, err, &codecErr)
	assert.Equal(t, MalformedInput, codecErr.Kind)
}

func TestEncodeRejectsDuplicateIdentifiers(t *testing.T) {
	frame := Frame{
		Identifiers: []string{"s1", "s1"},
		Sequences:   rows("AAAA", "AAAA"),
	}
	_, _, err := Encode(frame, EncodeOptions{}, DefaultConfig())
	require.Error(t, err)
}

func TestEncodeRejectsNonASCII(t *testing.T) {
	frame := Frame{
		Identifiers: []string{"s1"},
		Sequences:   [][]byte{{0x80, 0x41}},
	}
	_, _, err := Encode(frame, EncodeOptions{}, DefaultConfig())
	require.Error(t, err)
}

func TestDecodeDetectsChecksumMismatch(t *testing.T) {
	frame := Frame{
		Identifiers: []string{"s1", "s2"},
		Sequences:   rows("AAAA", "AAAA"),
	}
	archive, metadata, err := Encode(frame, EncodeOptions{}, DefaultConfig())
	require.NoError(t, err)

	meta, err := UnmarshalMetadata(metadata)
	require.NoError(t, err)
	meta["checksum_sha256"] = "0000000000000000000000000000000000000000000000000000000000000000"
	tampered, err := MarshalMetadata(meta)
	require.NoError(t, err)

	_, _, err = Decode(archive, tampered, DefaultConfig())
	require.Error(t, err)
	var codecErr *CodecError
	require.ErrorAs(t, err, &codecErr)
	assert.Equal(t, IntegrityFailure, codecErr.Kind)
}

func TestDecodeDetectsRowCountMismatch(t *testing.T) {
	frame := Frame{
		Identifiers: []string{"s1", "s2"},
		Sequences:   rows("AAAA", "AAAA"),
	}
	archive, metadata, err := Encode(frame, EncodeOptions{}, DefaultConfig())
	require.NoError(t, err)

	meta, err := UnmarshalMetadata(metadata)
	require.NoError(t, err)
	meta["num_sequences"] = 3
	tampered, err := MarshalMetadata(meta)
	require.NoError(t, err)

	_, _, err = Decode(archive, tampered, DefaultConfig())
	require.Error(t, err)
	var codecErr *CodecError
	require.ErrorAs(t, err, &codecErr)
	assert.Equal(t, MalformedArchive, codecErr.Kind)
}

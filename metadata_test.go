package ecomp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalMetadataSortsKeys(t *testing.T) {
	meta := Metadata{"zebra": 1, "alpha": 2, "mid": 3}
	raw, err := MarshalMetadata(meta)
	require.NoError(t, err)
	doc := string(raw)
	assert.True(t, strings.Index(doc, "alpha") < strings.Index(doc, "mid"))
	assert.True(t, strings.Index(doc, "mid") < strings.Index(doc, "zebra"))
}

func TestMetadataRoundTrip(t *testing.T) {
	meta := Metadata{
		"format_version": 1,
		"codec":          "ecomp",
		"alphabet":       []string{"A", "C", "G", "T"},
	}
	raw, err := MarshalMetadata(meta)
	require.NoError(t, err)

	got, err := UnmarshalMetadata(raw)
	require.NoError(t, err)
	s, ok := got.getString("codec")
	require.True(t, ok)
	assert.Equal(t, "ecomp", s)
	alphabet, ok := got.getStringSlice("alphabet")
	require.True(t, ok)
	assert.Equal(t, []string{"A", "C", "G", "T"}, alphabet)
}

func TestMetadataZlibFallbackForLargeDocuments(t *testing.T) {
	ids := make([]string, 0, 2000)
	for i := 0; i < 2000; i++ {
		ids = append(ids, "a-highly-repetitive-sequence-identifier-string")
	}
	meta := Metadata{"sequence_ids": ids}
	raw, err := MarshalMetadata(meta)
	require.NoError(t, err)
	assert.Equal(t, "ECMZ", string(raw[:4]))

	got, err := UnmarshalMetadata(raw)
	require.NoError(t, err)
	roundTripped, ok := got.getStringSlice("sequence_ids")
	require.True(t, ok)
	assert.Equal(t, ids, roundTripped)
}

func TestUnmarshalMetadataRejectsBadECMZVersion(t *testing.T) {
	bad := append([]byte("ECMZ"), 0xff)
	_, err := UnmarshalMetadata(bad)
	require.Error(t, err)
}

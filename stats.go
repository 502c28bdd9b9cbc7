package ecomp

import (
	"github.com/jlsteenwyk/ecomp/block"
	"github.com/jlsteenwyk/ecomp/profile"
)

// Stats summarises a completed encode for diagnostics and the optional
// metadata fields (run_length_blocks, max_run_length,
// columns_with_deviations, payload_encoded_bytes, payload_raw_bytes). It is
// omitted from metadata entirely when the fallback path is taken.
type Stats struct {
	ColumnsWithDeviations int
	RunLengthBlocks       int
	MaxRunLength          int
	PayloadRawBytes       int
	PayloadEncodedBytes   int
}

func computeStats(cols []profile.Column, blocks []block.Block, rawPayloadLen, encodedPayloadLen int) Stats {
	s := Stats{
		RunLengthBlocks:     len(blocks),
		PayloadRawBytes:     rawPayloadLen,
		PayloadEncodedBytes: encodedPayloadLen,
	}
	for _, c := range cols {
		if len(c.Deviations) > 0 {
			s.ColumnsWithDeviations++
		}
	}
	for _, b := range blocks {
		if b.RunLength > s.MaxRunLength {
			s.MaxRunLength = b.RunLength
		}
	}
	return s
}

package ecomp

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/jlsteenwyk/ecomp/container"
	"github.com/jlsteenwyk/ecomp/profile"
)

// Decode reverses Encode: archive is the 20-byte-header-prefixed payload,
// metadata is the document Encode produced alongside it.
func Decode(archive []byte, metadata []byte, cfg Config) (Frame, Stats, error) {
	cfg = cfg.withDefaults()
	log := cfg.logger().With("op", "decode")

	_, payload, err := decodeHeader(archive)
	if err != nil {
		return Frame{}, Stats{}, err
	}

	meta, err := UnmarshalMetadata(metadata)
	if err != nil {
		return Frame{}, Stats{}, err
	}

	codec, _ := meta.getString("codec")
	encodingName, _ := meta.getString("payload_encoding")
	log.Debug("decoding archive", "codec", codec, "payload_encoding", encodingName, "payload_bytes", len(payload))

	if fb, ok := meta.getSubObject("fallback"); ok {
		fbType, _ := fb.getString("type")
		if fbType == "gzip" {
			log.Debug("fallback path")
			fastaStream, err := gzipDecompress(payload)
			if err != nil {
				return Frame{}, Stats{}, newErr(FallbackInconsistency, "fallback", err)
			}
			ids, rows, err := parseFasta(fastaStream)
			if err != nil {
				return Frame{}, Stats{}, newErr(FallbackInconsistency, "fallback", err)
			}
			frame := Frame{Identifiers: ids, Sequences: rows}
			if err := verifyChecksum(meta, frame); err != nil {
				return Frame{}, Stats{}, err
			}
			return frame, Stats{}, nil
		}
	}

	chunkPayload, err := container.DecodeOuter(container.OuterEncoding(encodingName), payload)
	if err != nil {
		return Frame{}, Stats{}, newErr(UnsupportedEncoding, "outer-coding", errors.WithStack(err))
	}

	var perm []int
	if permMeta, ok := meta.getSubObject("sequence_permutation"); ok {
		if enc, _ := permMeta.getString("encoding"); enc == "payload" {
			p, consumed, err := container.DecodePermutation(chunkPayload)
			if err != nil {
				return Frame{}, Stats{}, newErr(MalformedArchive, "container", errors.WithStack(err))
			}
			perm = p
			chunkPayload = chunkPayload[consumed:]
		}
	}

	ids, consumed, err := container.DecodeIdentifiers(chunkPayload)
	if err != nil {
		return Frame{}, Stats{}, newErr(MalformedArchive, "container", errors.WithStack(err))
	}
	chunkPayload = chunkPayload[consumed:]
	numRows := len(ids)

	if numSequences, ok := meta.getNumber("num_sequences"); ok && int(numSequences) != numRows {
		return Frame{}, Stats{}, newErr(MalformedArchive, "container", fmt.Errorf("identifier chunk has %d rows, metadata declares num_sequences %d", numRows, int(numSequences)))
	}

	alignmentLength, ok := meta.getNumber("alignment_length")
	if !ok {
		return Frame{}, Stats{}, newErr(MalformedArchive, "container", fmt.Errorf("metadata missing alignment_length"))
	}

	log.Debug("decoding block stream", "rows", numRows, "columns", int(alignmentLength))
	_, _, blocks, err := decodePayload(chunkPayload, numRows)
	if err != nil {
		return Frame{}, Stats{}, err
	}

	var cols []profile.Column
	for _, b := range blocks {
		cols = append(cols, b.Expand()...)
	}
	if len(cols) != int(alignmentLength) {
		return Frame{}, Stats{}, newErr(MalformedArchive, "block-decoder", fmt.Errorf("expanded %d columns, metadata declares alignment_length %d", len(cols), int(alignmentLength)))
	}

	storageRows := expandColumns(cols, numRows)

	frame := Frame{Identifiers: ids, Sequences: storageRows}
	if perm != nil {
		frame = invertPermutation(frame, perm)
	}

	if err := verifyChecksum(meta, frame); err != nil {
		return Frame{}, Stats{}, err
	}

	stats := Stats{}
	if v, ok := meta.getNumber("run_length_blocks"); ok {
		stats.RunLengthBlocks = int(v)
	}
	if v, ok := meta.getNumber("max_run_length"); ok {
		stats.MaxRunLength = int(v)
	}
	if v, ok := meta.getNumber("columns_with_deviations"); ok {
		stats.ColumnsWithDeviations = int(v)
	}
	if v, ok := meta.getNumber("payload_raw_bytes"); ok {
		stats.PayloadRawBytes = int(v)
	}
	if v, ok := meta.getNumber("payload_encoded_bytes"); ok {
		stats.PayloadEncodedBytes = int(v)
	}
	return frame, stats, nil
}

// expandColumns transposes a column-major profile list back into
// row-major sequences.
func expandColumns(cols []profile.Column, numRows int) [][]byte {
	rows := make([][]byte, numRows)
	l := len(cols)
	for r := range rows {
		rows[r] = make([]byte, l)
	}
	for c, col := range cols {
		for r := range rows {
			rows[r][c] = col.Consensus
		}
		for _, d := range col.Deviations {
			rows[d.Row][c] = d.Residue
		}
	}
	return rows
}

// invertPermutation restores original row order: perm[i] names the original
// index of the row currently at position i.
func invertPermutation(frame Frame, perm []int) Frame {
	n := len(perm)
	ids := make([]string, n)
	rows := make([][]byte, n)
	for i, orig := range perm {
		ids[orig] = frame.Identifiers[i]
		rows[orig] = frame.Sequences[i]
	}
	return Frame{Identifiers: ids, Sequences: rows}
}

func verifyChecksum(meta Metadata, frame Frame) error {
	want, ok := meta.getString("checksum_sha256")
	if !ok {
		return nil
	}
	got := checksumSHA256(frame.Sequences)
	if got != want {
		return newErr(IntegrityFailure, "checksum", fmt.Errorf("checksum mismatch: archive declares %s, reconstructed %s", want, got))
	}
	return nil
}

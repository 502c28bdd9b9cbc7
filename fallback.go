package ecomp

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// fastaBytes renders ids and rows as the minimal FASTA-equivalent byte
// stream the fallback path compresses: general alignment file I/O is out of
// scope for this codec, so this is only as much of the format as the
// fallback needs to be self-contained and reversible, not a general FASTA
// writer.
func fastaBytes(ids []string, rows [][]byte) []byte {
	var buf bytes.Buffer
	for i, row := range rows {
		buf.WriteByte('>')
		buf.WriteString(ids[i])
		buf.WriteByte('\n')
		buf.Write(row)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// parseFasta reverses fastaBytes.
func parseFasta(data []byte) (ids []string, rows [][]byte, err error) {
	lines := bytes.Split(bytes.TrimRight(data, "\n"), []byte("\n"))
	if len(lines)%2 != 0 {
		return nil, nil, fmt.Errorf("fallback: malformed FASTA-equivalent stream: odd line count %d", len(lines))
	}
	for i := 0; i < len(lines); i += 2 {
		header := lines[i]
		if len(header) == 0 || header[0] != '>' {
			return nil, nil, fmt.Errorf("fallback: malformed FASTA-equivalent stream: line %d missing '>' header", i)
		}
		ids = append(ids, string(header[1:]))
		rows = append(rows, append([]byte(nil), lines[i+1]...))
	}
	return ids, rows, nil
}

// gzipCompress and gzipDecompress back the fallback path with
// klauspost/compress's gzip, from the same module this codec already uses
// for its zstd outer coder, rather than reaching into compress/gzip for an
// otherwise-unused standard-library codec.
func gzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gzipDecompress(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

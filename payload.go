package ecomp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/jlsteenwyk/ecomp/bitmask"
	"github.com/jlsteenwyk/ecomp/block"
	"github.com/jlsteenwyk/ecomp/internal/bitpack"
	"github.com/jlsteenwyk/ecomp/internal/varint"
	"github.com/jlsteenwyk/ecomp/model"
	"github.com/jlsteenwyk/ecomp/profile"
)

func sortModelsByConsensus(models []*model.Model) {
	sort.Slice(models, func(i, j int) bool { return models[i].Consensus < models[j].Consensus })
}

// encodePayload serialises the consensus-model table, dictionary section,
// and block stream into the archive payload format. numRows bounds every
// bitmask.
func encodePayload(numRows int, models map[byte]*model.Model, dict *block.Dictionary, blocks []block.Block) ([]byte, error) {
	var out []byte

	sortedModels := make([]*model.Model, 0, len(models))
	for _, m := range models {
		sortedModels = append(sortedModels, m)
	}
	sortModelsByConsensus(sortedModels)

	var modelBuf bytes.Buffer
	if err := model.WriteTable(&modelBuf, sortedModels); err != nil {
		return nil, newErr(MalformedInput, "block-encoder", err)
	}
	out = append(out, modelBuf.Bytes()...)

	if len(dict.Entries) > block.MaxDictionarySize {
		return nil, newErr(MalformedInput, "block-encoder", fmt.Errorf("dictionary has %d entries, exceeds %d", len(dict.Entries), block.MaxDictionarySize))
	}
	out = append(out, byte(len(dict.Entries)))
	for i, pat := range dict.Entries {
		rec, err := encodePatternBody(pat, numRows, models)
		if err != nil {
			return nil, newErr(MalformedInput, "block-encoder", fmt.Errorf("dictionary entry %d: %w", i, err))
		}
		out = append(out, rec...)
	}

	if len(blocks) > 1<<32-1 {
		return nil, newErr(MalformedInput, "block-encoder", fmt.Errorf("%d blocks exceeds the 4-byte count", len(blocks)))
	}
	var countBuf [4]byte
	binary.BigEndian.PutUint32(countBuf[:], uint32(len(blocks)))
	out = append(out, countBuf[:]...)

	for i, b := range blocks {
		if id, ok := dict.Lookup(b.Pattern); ok {
			out = append(out, 1, byte(id), byte(b.RunLength))
			continue
		}
		body, err := encodePatternBody(b.Pattern, numRows, models)
		if err != nil {
			return nil, newErr(MalformedInput, "block-encoder", fmt.Errorf("block %d: %w", i, err))
		}
		out = append(out, 0, byte(b.RunLength))
		out = append(out, body...)
	}

	return out, nil
}

// encodePatternBody writes the shared shape used by both dictionary entries
// and literal block records: consensus, bitmask mode, varint deviation
// count, varint mask length, mask bytes, 2-byte BE residue length, residue
// bytes.
func encodePatternBody(pat block.Pattern, numRows int, models map[byte]*model.Model) ([]byte, error) {
	rowIdx := make([]int, len(pat.Deviations))
	residues := make([]byte, len(pat.Deviations))
	for i, d := range pat.Deviations {
		rowIdx[i] = d.Row
		residues[i] = d.Residue
	}
	mask := bitmask.Encode(numRows, rowIdx)

	var residuePayload []byte
	if len(residues) > 0 {
		m, ok := models[pat.Consensus]
		if !ok {
			return nil, fmt.Errorf("no consensus model for %q", pat.Consensus)
		}
		w := bitpack.NewWriter()
		if err := m.EncodeResidues(w, residues); err != nil {
			return nil, err
		}
		var err error
		residuePayload, err = w.Bytes()
		if err != nil {
			return nil, err
		}
	}
	if len(residuePayload) > 0xffff {
		return nil, fmt.Errorf("residue payload of %d bytes exceeds the 2-byte length field", len(residuePayload))
	}

	var out []byte
	out = append(out, pat.Consensus, byte(mask.Mode))
	out = varint.Append(out, uint64(len(pat.Deviations)))
	out = varint.Append(out, uint64(len(mask.Payload)))
	out = append(out, mask.Payload...)
	var residueLen [2]byte
	binary.BigEndian.PutUint16(residueLen[:], uint16(len(residuePayload)))
	out = append(out, residueLen[:]...)
	out = append(out, residuePayload...)
	return out, nil
}

// decodePayload reverses encodePayload.
func decodePayload(data []byte, numRows int) (models map[byte]*model.Model, dict *block.Dictionary, blocks []block.Block, err error) {
	br := newByteReader(data)

	models, err = model.ReadTable(br)
	if err != nil {
		return nil, nil, nil, newErr(MalformedArchive, "block-decoder", err)
	}

	dictSizeByte, err := br.ReadByte()
	if err != nil {
		return nil, nil, nil, newErr(MalformedArchive, "block-decoder", fmt.Errorf("reading dictionary size: %w", err))
	}
	dict = &block.Dictionary{Entries: make([]block.Pattern, dictSizeByte)}
	for i := range dict.Entries {
		pat, err := decodePatternBody(br, numRows, models)
		if err != nil {
			return nil, nil, nil, newErr(MalformedArchive, "block-decoder", fmt.Errorf("dictionary entry %d: %w", i, err))
		}
		dict.Entries[i] = pat
	}

	var countBuf [4]byte
	if err := br.ReadFull(countBuf[:]); err != nil {
		return nil, nil, nil, newErr(MalformedArchive, "block-decoder", fmt.Errorf("reading block count: %w", err))
	}
	count := binary.BigEndian.Uint32(countBuf[:])

	blocks = make([]block.Block, count)
	for i := range blocks {
		marker, err := br.ReadByte()
		if err != nil {
			return nil, nil, nil, newErr(MalformedArchive, "block-decoder", fmt.Errorf("block %d: reading marker: %w", i, err))
		}
		switch marker {
		case 1:
			id, err := br.ReadByte()
			if err != nil {
				return nil, nil, nil, newErr(MalformedArchive, "block-decoder", fmt.Errorf("block %d: reading dictionary id: %w", i, err))
			}
			runLength, err := br.ReadByte()
			if err != nil {
				return nil, nil, nil, newErr(MalformedArchive, "block-decoder", fmt.Errorf("block %d: reading run length: %w", i, err))
			}
			if int(id) >= len(dict.Entries) {
				return nil, nil, nil, newErr(MalformedArchive, "block-decoder", fmt.Errorf("block %d: dictionary id %d out of range [0,%d)", i, id, len(dict.Entries)))
			}
			blocks[i] = block.Block{Pattern: dict.Entries[id], RunLength: int(runLength)}
		case 0:
			runLength, err := br.ReadByte()
			if err != nil {
				return nil, nil, nil, newErr(MalformedArchive, "block-decoder", fmt.Errorf("block %d: reading run length: %w", i, err))
			}
			pat, err := decodePatternBody(br, numRows, models)
			if err != nil {
				return nil, nil, nil, newErr(MalformedArchive, "block-decoder", fmt.Errorf("block %d: %w", i, err))
			}
			blocks[i] = block.Block{Pattern: pat, RunLength: int(runLength)}
		default:
			return nil, nil, nil, newErr(MalformedArchive, "block-decoder", fmt.Errorf("block %d: unknown marker byte %d", i, marker))
		}
	}

	return models, dict, blocks, nil
}

func decodePatternBody(br *byteReader, numRows int, models map[byte]*model.Model) (block.Pattern, error) {
	consensus, err := br.ReadByte()
	if err != nil {
		return block.Pattern{}, fmt.Errorf("reading consensus: %w", err)
	}
	modeByte, err := br.ReadByte()
	if err != nil {
		return block.Pattern{}, fmt.Errorf("reading bitmask mode: %w", err)
	}
	devCount, err := br.ReadVarint()
	if err != nil {
		return block.Pattern{}, fmt.Errorf("reading deviation count: %w", err)
	}
	maskLen, err := br.ReadVarint()
	if err != nil {
		return block.Pattern{}, fmt.Errorf("reading mask length: %w", err)
	}
	maskPayload, err := br.ReadN(int(maskLen))
	if err != nil {
		return block.Pattern{}, fmt.Errorf("reading mask payload: %w", err)
	}
	var residueLenBuf [2]byte
	if err := br.ReadFull(residueLenBuf[:]); err != nil {
		return block.Pattern{}, fmt.Errorf("reading residue length: %w", err)
	}
	residueLen := binary.BigEndian.Uint16(residueLenBuf[:])
	residuePayload, err := br.ReadN(int(residueLen))
	if err != nil {
		return block.Pattern{}, fmt.Errorf("reading residue payload: %w", err)
	}

	rowIdx, err := bitmask.Decode(bitmask.Mode(modeByte), maskPayload, numRows)
	if err != nil {
		return block.Pattern{}, fmt.Errorf("decoding bitmask: %w", err)
	}
	if uint64(len(rowIdx)) != devCount {
		return block.Pattern{}, fmt.Errorf("bitmask popcount %d does not match declared deviation count %d", len(rowIdx), devCount)
	}

	var residues []byte
	if devCount > 0 {
		m, ok := models[consensus]
		if !ok {
			return block.Pattern{}, fmt.Errorf("no consensus model for %q", consensus)
		}
		r := bitpack.NewReader(residuePayload)
		residues, err = m.DecodeResidues(r, int(devCount))
		if err != nil {
			return block.Pattern{}, fmt.Errorf("decoding residues: %w", err)
		}
	}

	deviations := make([]profile.Deviation, len(rowIdx))
	for i, row := range rowIdx {
		deviations[i] = profile.Deviation{Row: row, Residue: residues[i]}
	}
	return block.Pattern{Consensus: consensus, Deviations: deviations}, nil
}

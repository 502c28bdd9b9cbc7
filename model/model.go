// Package model implements the per-consensus symbol model: for every
// consensus byte that ever carries deviations, it selects between a
// fixed-width index code and a canonical Huffman code over the consensus's
// local residue alphabet, whichever is smaller, and serialises the chosen
// model into the consensus-model table of the payload.
//
// The "estimate every candidate, keep the cheapest" shape mirrors
// mewkiz/flac's analyseSubframe, which estimates constant/fixed/verbatim
// subframe costs and keeps the smallest.
package model

import (
	"fmt"
	"io"
	"sort"

	"github.com/jlsteenwyk/ecomp/internal/bitpack"
	"github.com/jlsteenwyk/ecomp/internal/varint"
)

// Mode discriminates the two consensus-model representations.
type Mode byte

const (
	// ModeFixed packs residues as fixed-width indices into the local
	// alphabet.
	ModeFixed Mode = 0
	// ModeHuffman packs residues as canonical Huffman codewords.
	ModeHuffman Mode = 1
)

// MaxCodeLength is the cap on canonical Huffman code length, chosen to
// match DEFLATE's canonical Huffman cap. Candidates whose natural Huffman
// tree would exceed it are disqualified in favour of fixed-width, and the
// decoder rejects any code length beyond it.
const MaxCodeLength = 15

// A Model is the chosen symbol model for one consensus byte.
type Model struct {
	Consensus byte
	// Alphabet is L_c: the sorted set of residues ever paired with
	// Consensus.
	Alphabet []byte
	Mode     Mode

	// BitsPerSymbol is valid when Mode == ModeFixed.
	BitsPerSymbol byte
	// CodeLengths is valid when Mode == ModeHuffman, parallel to Alphabet.
	CodeLengths []byte

	index map[byte]int    // Alphabet[b] -> its index, built by buildIndex
	codes map[byte]hcode  // Alphabet[b] -> huffman codeword, built for ModeHuffman
	byLen map[int][]bcode // decode table: code length -> sorted (code,symbol) pairs
}

type hcode struct {
	bits   uint64
	length byte
}

type bcode struct {
	code   uint64
	symbol byte
}

// fixedWidth returns ⌈log2(n)⌉ clamped to [1, 8].
func fixedWidth(n int) byte {
	if n <= 1 {
		return 1
	}
	w := 0
	for (1 << w) < n {
		w++
	}
	if w > 8 {
		w = 8
	}
	return byte(w)
}

// Build selects the cheaper of fixed-width and canonical Huffman for the
// given consensus byte, using residues as the frequency sample (one count
// per occurrence in the aggregated block stream).
//
// maxCodeLen optionally overrides MaxCodeLength (the Config knob for the
// Huffman code length cap); omit it, or pass <= 0, to use the default.
func Build(consensus byte, residues []byte, maxCodeLen ...int) *Model {
	lenCap := MaxCodeLength
	if len(maxCodeLen) > 0 && maxCodeLen[0] > 0 {
		lenCap = maxCodeLen[0]
	}

	freq := map[byte]int{}
	for _, r := range residues {
		freq[r]++
	}
	alphabet := make([]byte, 0, len(freq))
	for b := range freq {
		alphabet = append(alphabet, b)
	}
	sort.Slice(alphabet, func(i, j int) bool { return alphabet[i] < alphabet[j] })

	m := &Model{Consensus: consensus, Alphabet: alphabet}
	m.buildIndex()

	width := fixedWidth(len(alphabet))
	fixedBits := len(residues) * int(width)

	lengths, ok := canonicalLengths(alphabet, freq, lenCap)
	huffmanBits := 1 << 30 // disqualified by default
	if ok {
		huffmanBits = len(alphabet)*8 + bitsForLengths(alphabet, freq, lengths)
	}

	if ok && huffmanBits < fixedBits {
		m.Mode = ModeHuffman
		m.CodeLengths = lengths
		m.buildHuffmanCodes()
	} else {
		m.Mode = ModeFixed
		m.BitsPerSymbol = width
	}
	return m
}

func bitsForLengths(alphabet []byte, freq map[byte]int, lengths []byte) int {
	total := 0
	for i, b := range alphabet {
		total += freq[b] * int(lengths[i])
	}
	return total
}

func (m *Model) buildIndex() {
	m.index = make(map[byte]int, len(m.Alphabet))
	for i, b := range m.Alphabet {
		m.index[b] = i
	}
}

// buildHuffmanCodes assigns canonical codewords from m.CodeLengths and
// builds the decode table keyed by code length.
func (m *Model) buildHuffmanCodes() {
	type sym struct {
		b   byte
		idx int
		len byte
	}
	syms := make([]sym, len(m.Alphabet))
	for i, b := range m.Alphabet {
		syms[i] = sym{b: b, idx: i, len: m.CodeLengths[i]}
	}
	sort.Slice(syms, func(i, j int) bool {
		if syms[i].len != syms[j].len {
			return syms[i].len < syms[j].len
		}
		return syms[i].idx < syms[j].idx
	})

	m.codes = make(map[byte]hcode, len(syms))
	m.byLen = make(map[int][]bcode)
	var code uint64
	prevLen := byte(0)
	for i, s := range syms {
		if i > 0 {
			code <<= (s.len - prevLen)
		}
		m.codes[s.b] = hcode{bits: code, length: s.len}
		m.byLen[int(s.len)] = append(m.byLen[int(s.len)], bcode{code: code, symbol: s.b})
		code++
		prevLen = s.len
	}
	for l := range m.byLen {
		sort.Slice(m.byLen[l], func(i, j int) bool { return m.byLen[l][i].code < m.byLen[l][j].code })
	}
}

// BitLength returns the exact number of bits the given residue sequence
// would occupy under this model, used by the dictionary builder's benefit
// scoring.
func (m *Model) BitLength(residues []byte) int {
	switch m.Mode {
	case ModeFixed:
		return len(residues) * int(m.BitsPerSymbol)
	case ModeHuffman:
		total := 0
		for _, r := range residues {
			total += int(m.codes[r].length)
		}
		return total
	}
	return 0
}

// EncodeResidues packs residues into w under this model.
func (m *Model) EncodeResidues(w *bitpack.Writer, residues []byte) error {
	switch m.Mode {
	case ModeFixed:
		for _, r := range residues {
			idx, ok := m.index[r]
			if !ok {
				return fmt.Errorf("model.EncodeResidues: residue %q outside local alphabet of consensus %q", r, m.Consensus)
			}
			if err := w.WriteBits(uint64(idx), m.BitsPerSymbol); err != nil {
				return err
			}
		}
	case ModeHuffman:
		for _, r := range residues {
			c, ok := m.codes[r]
			if !ok {
				return fmt.Errorf("model.EncodeResidues: residue %q outside local alphabet of consensus %q", r, m.Consensus)
			}
			if err := w.WriteBits(c.bits, c.length); err != nil {
				return err
			}
		}
	}
	return nil
}

// DecodeResidues reads n residues from r under this model.
func (m *Model) DecodeResidues(r *bitpack.Reader, n int) ([]byte, error) {
	out := make([]byte, n)
	switch m.Mode {
	case ModeFixed:
		for i := range out {
			idx, err := r.ReadBits(m.BitsPerSymbol)
			if err != nil {
				return nil, err
			}
			if int(idx) >= len(m.Alphabet) {
				return nil, fmt.Errorf("model.DecodeResidues: fixed-width index %d out of range for consensus %q", idx, m.Consensus)
			}
			out[i] = m.Alphabet[idx]
		}
	case ModeHuffman:
		for i := range out {
			symbol, err := m.decodeOne(r)
			if err != nil {
				return nil, err
			}
			out[i] = symbol
		}
	}
	return out, nil
}

func (m *Model) decodeOne(r *bitpack.Reader) (byte, error) {
	var code uint64
	for length := 1; length <= MaxCodeLength; length++ {
		bit, err := r.ReadBits(1)
		if err != nil {
			return 0, err
		}
		code = (code << 1) | bit
		for _, bc := range m.byLen[length] {
			if bc.code == code {
				return bc.symbol, nil
			}
		}
	}
	return 0, fmt.Errorf("model.decodeOne: no Huffman code matched within %d bits for consensus %q", MaxCodeLength, m.Consensus)
}

// WriteTable serialises models to w as the archive's consensus-model table.
func WriteTable(w io.Writer, models []*Model) error {
	if len(models) > 255 {
		return fmt.Errorf("model.WriteTable: %d consensus models exceeds the 1-byte count", len(models))
	}
	if _, err := w.Write([]byte{byte(len(models))}); err != nil {
		return err
	}
	for _, m := range models {
		if len(m.Alphabet) > 255 {
			return fmt.Errorf("model.WriteTable: consensus %q has a %d-symbol local alphabet, exceeds 255", m.Consensus, len(m.Alphabet))
		}
		if _, err := w.Write([]byte{m.Consensus, byte(m.Mode), byte(len(m.Alphabet))}); err != nil {
			return err
		}
		if _, err := w.Write(m.Alphabet); err != nil {
			return err
		}
		switch m.Mode {
		case ModeFixed:
			if _, err := w.Write([]byte{m.BitsPerSymbol}); err != nil {
				return err
			}
		case ModeHuffman:
			if _, err := w.Write(m.CodeLengths); err != nil {
				return err
			}
		default:
			return fmt.Errorf("model.WriteTable: unknown mode %d for consensus %q", m.Mode, m.Consensus)
		}
	}
	return nil
}

// ReadTable deserialises a consensus-model table from r.
func ReadTable(r io.ByteReader) (map[byte]*Model, error) {
	count, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("model.ReadTable: reading model count: %w", err)
	}
	models := make(map[byte]*Model, count)
	for i := 0; i < int(count); i++ {
		consensus, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("model.ReadTable: entry %d: reading consensus: %w", i, err)
		}
		modeByte, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("model.ReadTable: entry %d: reading mode: %w", i, err)
		}
		mode := Mode(modeByte)
		if mode != ModeFixed && mode != ModeHuffman {
			return nil, fmt.Errorf("model.ReadTable: entry %d: unknown mode byte %d", i, modeByte)
		}
		alphaLen, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("model.ReadTable: entry %d: reading alphabet length: %w", i, err)
		}
		alphabet := make([]byte, alphaLen)
		for j := range alphabet {
			b, err := r.ReadByte()
			if err != nil {
				return nil, fmt.Errorf("model.ReadTable: entry %d: reading alphabet byte %d: %w", i, j, err)
			}
			alphabet[j] = b
		}
		m := &Model{Consensus: consensus, Alphabet: alphabet, Mode: mode}
		m.buildIndex()
		switch mode {
		case ModeFixed:
			width, err := r.ReadByte()
			if err != nil {
				return nil, fmt.Errorf("model.ReadTable: entry %d: reading bits-per-symbol: %w", i, err)
			}
			if width == 0 || width > 8 {
				return nil, fmt.Errorf("model.ReadTable: entry %d: bits-per-symbol %d out of [1,8]", i, width)
			}
			m.BitsPerSymbol = width
		case ModeHuffman:
			lengths := make([]byte, alphaLen)
			for j := range lengths {
				l, err := r.ReadByte()
				if err != nil {
					return nil, fmt.Errorf("model.ReadTable: entry %d: reading code length %d: %w", i, j, err)
				}
				if l == 0 || int(l) > MaxCodeLength {
					return nil, fmt.Errorf("model.ReadTable: entry %d: code length %d out of [1,%d]", i, l, MaxCodeLength)
				}
				lengths[j] = l
			}
			m.CodeLengths = lengths
			m.buildHuffmanCodes()
		}
		models[consensus] = m
	}
	return models, nil
}

// EncodedTableLen reports the serialised byte length WriteTable would
// produce for models, without allocating a writer.
func EncodedTableLen(models []*Model) int {
	n := 1
	for _, m := range models {
		n += 3 + len(m.Alphabet)
		if m.Mode == ModeFixed {
			n++
		} else {
			n += len(m.CodeLengths)
		}
	}
	return n
}

// varintLen reports the encoded length of x. Nothing in the package calls
// it.
func varintLen(x uint64) int {
	return len(varint.Encode(x))
}

package container

import (
	"encoding/binary"
	"fmt"

	"github.com/jlsteenwyk/ecomp/internal/varint"
)

// PermutationMagic is the 4-byte tag of the permutation chunk.
var PermutationMagic = [4]byte{'E', 'C', 'P', 'E'}

// PermutationVersion is the only version this package speaks.
const PermutationVersion = 0x01

// IndexWidth names the fixed-width integer size used to store permutation
// entries, the narrowest that can address every row.
type IndexWidth byte

const (
	IndexWidthU8  IndexWidth = 0
	IndexWidthU16 IndexWidth = 1
	IndexWidthU32 IndexWidth = 2
)

func widthFor(n int) IndexWidth {
	switch {
	case n <= 1<<8:
		return IndexWidthU8
	case n <= 1<<16:
		return IndexWidthU16
	default:
		return IndexWidthU32
	}
}

// EncodePermutation serialises perm, where perm[i] is the original row index
// of the row stored at position i of the reordered payload.
func EncodePermutation(perm []int) ([]byte, error) {
	width := widthFor(len(perm))
	raw := make([]byte, 0, len(perm)*4)
	for _, idx := range perm {
		switch width {
		case IndexWidthU8:
			if idx > 0xff {
				return nil, fmt.Errorf("container.EncodePermutation: index %d overflows u8 width", idx)
			}
			raw = append(raw, byte(idx))
		case IndexWidthU16:
			var buf [2]byte
			binary.BigEndian.PutUint16(buf[:], uint16(idx))
			raw = append(raw, buf[:]...)
		case IndexWidthU32:
			var buf [4]byte
			binary.BigEndian.PutUint32(buf[:], uint32(idx))
			raw = append(raw, buf[:]...)
		}
	}

	compressed := false
	payload := raw
	if z, err := encodeZlib(raw); err == nil && len(z) < len(payload) {
		compressed = true
		payload = z
	}

	flag := byte(width) << 1
	if compressed {
		flag |= 1
	}

	out := make([]byte, 0, 4+1+1+2*varint.MaxLen+len(payload))
	out = append(out, PermutationMagic[:]...)
	out = append(out, PermutationVersion)
	out = append(out, flag)
	out = varint.Append(out, uint64(len(perm)))
	out = varint.Append(out, uint64(len(payload)))
	out = append(out, payload...)
	return out, nil
}

// DecodePermutation parses a permutation chunk from the front of data and
// returns perm (see EncodePermutation) and the number of bytes consumed.
func DecodePermutation(data []byte) (perm []int, consumed int, err error) {
	if len(data) < 6 || string(data[:4]) != string(PermutationMagic[:]) {
		return nil, 0, fmt.Errorf("container.DecodePermutation: missing ECPE magic")
	}
	version := data[4]
	if version != PermutationVersion {
		return nil, 0, fmt.Errorf("container.DecodePermutation: unsupported version %d", version)
	}
	flag := data[5]
	compressed := flag&1 != 0
	width := IndexWidth((flag >> 1) & 0x3)
	rest := data[6:]

	count, n, err := varint.Decode(rest)
	if err != nil {
		return nil, 0, fmt.Errorf("container.DecodePermutation: reading index count: %w", err)
	}
	rest = rest[n:]

	payloadLen, n, err := varint.Decode(rest)
	if err != nil {
		return nil, 0, fmt.Errorf("container.DecodePermutation: reading payload length: %w", err)
	}
	rest = rest[n:]
	if uint64(len(rest)) < payloadLen {
		return nil, 0, fmt.Errorf("container.DecodePermutation: payload length %d exceeds remaining buffer", payloadLen)
	}
	payload := rest[:payloadLen]
	// consumed = 4(magic) + 1(version) + 1(flag) + count-varint + length-varint + payload.
	countVarintLen := len(varint.Encode(count))
	lenVarintLen := len(varint.Encode(payloadLen))
	consumed = 6 + countVarintLen + lenVarintLen + int(payloadLen)

	raw := payload
	if compressed {
		raw, err = decodeZlib(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("container.DecodePermutation: %w", err)
		}
	}

	stride := 1
	switch width {
	case IndexWidthU8:
		stride = 1
	case IndexWidthU16:
		stride = 2
	case IndexWidthU32:
		stride = 4
	default:
		return nil, 0, fmt.Errorf("container.DecodePermutation: unknown index width %d", width)
	}
	if len(raw) != int(count)*stride {
		return nil, 0, fmt.Errorf("container.DecodePermutation: decoded payload length %d does not match %d indices at width %d", len(raw), count, stride)
	}

	perm = make([]int, count)
	for i := range perm {
		switch width {
		case IndexWidthU8:
			perm[i] = int(raw[i])
		case IndexWidthU16:
			perm[i] = int(binary.BigEndian.Uint16(raw[i*2:]))
		case IndexWidthU32:
			perm[i] = int(binary.BigEndian.Uint32(raw[i*4:]))
		}
	}
	return perm, consumed, nil
}

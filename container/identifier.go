package container

import (
	"fmt"

	"github.com/jlsteenwyk/ecomp/internal/varint"
)

// IdentifierMagic is the 4-byte tag of the identifier chunk.
var IdentifierMagic = [4]byte{'E', 'C', 'I', 'D'}

// IdentifierVersion is the version this package always emits. Versions >= 1
// are accepted on read.
const IdentifierVersion = 0x02

// identifierMode discriminates how the decoded block (varint count plus
// length-prefixed UTF-8 identifiers) is carried.
type identifierMode byte

const (
	identifierRaw  identifierMode = 0
	identifierZstd identifierMode = 1
	identifierZlib identifierMode = 2
)

// EncodeIdentifiers serialises row identifiers as the identifier chunk,
// choosing whichever of raw/zstd/zlib yields the smallest block, the same
// smallest-wins discipline used for bitmasks and outer coding.
func EncodeIdentifiers(ids []string) ([]byte, error) {
	var decoded []byte
	decoded = varint.Append(decoded, uint64(len(ids)))
	for _, id := range ids {
		b := []byte(id)
		decoded = varint.Append(decoded, uint64(len(b)))
		decoded = append(decoded, b...)
	}

	mode := identifierRaw
	block := decoded
	if z, err := encodeZstd(decoded); err == nil && len(z) < len(block) {
		mode, block = identifierZstd, z
	}
	if z, err := encodeZlib(decoded); err == nil && len(z) < len(block) {
		mode, block = identifierZlib, z
	}

	out := make([]byte, 0, 4+1+varint.MaxLen+1+len(block))
	out = append(out, IdentifierMagic[:]...)
	out = append(out, IdentifierVersion)
	out = varint.Append(out, uint64(len(block)))
	out = append(out, byte(mode))
	out = append(out, block...)
	return out, nil
}

// DecodeIdentifiers parses an identifier chunk from the front of data and
// returns the identifiers and the number of bytes consumed.
func DecodeIdentifiers(data []byte) (ids []string, consumed int, err error) {
	if len(data) < 5 || string(data[:4]) != string(IdentifierMagic[:]) {
		return nil, 0, fmt.Errorf("container.DecodeIdentifiers: missing ECID magic")
	}
	version := data[4]
	if version < 1 {
		return nil, 0, fmt.Errorf("container.DecodeIdentifiers: unsupported version %d", version)
	}
	rest := data[5:]

	blockLen, n, err := varint.Decode(rest)
	if err != nil {
		return nil, 0, fmt.Errorf("container.DecodeIdentifiers: reading block length: %w", err)
	}
	rest = rest[n:]
	if len(rest) < 1 {
		return nil, 0, fmt.Errorf("container.DecodeIdentifiers: truncated before mode byte")
	}
	mode := identifierMode(rest[0])
	rest = rest[1:]
	if uint64(len(rest)) < blockLen {
		return nil, 0, fmt.Errorf("container.DecodeIdentifiers: block length %d exceeds remaining buffer", blockLen)
	}
	block := rest[:blockLen]
	consumed = 5 + n + 1 + int(blockLen)

	var decoded []byte
	switch mode {
	case identifierRaw:
		decoded = block
	case identifierZstd:
		if decoded, err = decodeZstd(block); err != nil {
			return nil, 0, fmt.Errorf("container.DecodeIdentifiers: %w", err)
		}
	case identifierZlib:
		if decoded, err = decodeZlib(block); err != nil {
			return nil, 0, fmt.Errorf("container.DecodeIdentifiers: %w", err)
		}
	default:
		return nil, 0, fmt.Errorf("container.DecodeIdentifiers: unknown mode byte %d", mode)
	}

	count, n, err := varint.Decode(decoded)
	if err != nil {
		return nil, 0, fmt.Errorf("container.DecodeIdentifiers: reading sequence count: %w", err)
	}
	decoded = decoded[n:]

	ids = make([]string, count)
	for i := range ids {
		l, n, err := varint.Decode(decoded)
		if err != nil {
			return nil, 0, fmt.Errorf("container.DecodeIdentifiers: identifier %d: reading length: %w", i, err)
		}
		decoded = decoded[n:]
		if uint64(len(decoded)) < l {
			return nil, 0, fmt.Errorf("container.DecodeIdentifiers: identifier %d: length %d exceeds remaining buffer", i, l)
		}
		ids[i] = string(decoded[:l])
		decoded = decoded[l:]
	}
	return ids, consumed, nil
}

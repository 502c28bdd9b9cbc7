package ecomp

import (
	"encoding/binary"
	"fmt"
)

// Magic is the 8-byte signature every archive begins with.
var Magic = [8]byte{'E', 'C', 'O', 'M', 'P', '0', '0', '1'}

// HeaderLen is the fixed size of the archive header in bytes.
const HeaderLen = 20

// VersionMajor, VersionMinor, VersionPatch are the version this package
// writes. Decoders require VersionMajor to match; minor and patch are
// informational.
const (
	VersionMajor = 1
	VersionMinor = 0
	VersionPatch = 0
)

// header is the 20-byte archive header:
//
//	magic "ECOMP001" (8B) | major (1B) | minor (1B) | patch (1B) | payload_length (8B BE)
type header struct {
	Major, Minor, Patch byte
	PayloadLength       uint64
}

func encodeHeader(h header) []byte {
	buf := make([]byte, HeaderLen)
	copy(buf[:8], Magic[:])
	buf[8] = h.Major
	buf[9] = h.Minor
	buf[10] = h.Patch
	binary.BigEndian.PutUint64(buf[11:19], h.PayloadLength)
	// buf[19] reserved, left zero.
	return buf
}

// decodeHeader validates and parses the 20-byte header at the front of
// data, and checks that the file length matches HeaderLen+payload_length
// exactly.
func decodeHeader(data []byte) (header, []byte, error) {
	if len(data) < HeaderLen {
		return header{}, nil, newErr(MalformedArchive, "container", fmt.Errorf("archive is %d bytes, shorter than the %d-byte header", len(data), HeaderLen))
	}
	if string(data[:8]) != string(Magic[:]) {
		return header{}, nil, newErr(MalformedArchive, "container", fmt.Errorf("bad magic %q, want %q", data[:8], Magic[:]))
	}
	h := header{
		Major:         data[8],
		Minor:         data[9],
		Patch:         data[10],
		PayloadLength: binary.BigEndian.Uint64(data[11:19]),
	}
	if h.Major != VersionMajor {
		return header{}, nil, newErr(MalformedArchive, "container", fmt.Errorf("major version %d unsupported, want %d", h.Major, VersionMajor))
	}
	rest := data[HeaderLen:]
	if uint64(len(rest)) != h.PayloadLength {
		return header{}, nil, newErr(MalformedArchive, "container", fmt.Errorf("payload_length %d does not match remaining %d bytes", h.PayloadLength, len(rest)))
	}
	return h, rest, nil
}

package ecomp

import (
	"crypto/sha256"
	"encoding/hex"
)

// checksumSHA256 hashes the concatenation of sequences in the given order,
// hex-encoded for direct placement in the metadata document. There is no
// pack dependency for SHA-256; every example repo that hashes anything
// reaches for the standard library, so this stays on crypto/sha256 rather
// than a third-party digest.
func checksumSHA256(sequences [][]byte) string {
	h := sha256.New()
	for _, seq := range sequences {
		h.Write(seq)
	}
	return hex.EncodeToString(h.Sum(nil))
}

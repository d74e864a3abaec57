// Package content derives deterministic content hashes used as record IDs
// (proposals, comments) wherever a caller does not supply one, using BLAKE3
// so two callers deriving from the same parts always land on the same ID.
package content

import (
	"encoding/hex"

	"lukechampine.com/blake3"
)

// Hash is a 32-byte BLAKE3 digest.
type Hash [32]byte

// String returns the hex encoding of the hash.
func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// Derive hashes the concatenation of parts, each separated by a NUL byte
// so that Derive("a", "bc") and Derive("ab", "c") never collide.
func Derive(parts ...string) Hash {
	h := blake3.New(32, nil)
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// DeriveID is Derive truncated to a short hex string, convenient as a
// record ID where a full 64-char hash would be unwieldy.
func DeriveID(parts ...string) string {
	return Derive(parts...).String()[:16]
}

package vcsref

import (
	git2go "github.com/libgit2/git2go/v34"
)

// Hash sizes, mirroring the 40-character commit identifier named throughout
// the storage layout: a raw SHA-1 digest is 20 bytes, hex-encoded to 40.
const (
	HashSize    = 20
	HashHexSize = 40

	hexBase  = 10
	hexShift = 4
)

// Hash is a git object identifier (SHA-1).
type Hash [HashSize]byte

// ZeroHash is the all-zero hash, used as the not-found sentinel value.
func ZeroHash() Hash {
	return Hash{}
}

// NewHash parses a 40-character hex string into a Hash. Malformed input
// characters decode to zero nibbles rather than erroring, matching the
// adapter's fixed-width ID type.
func NewHash(hexStr string) Hash {
	var h Hash

	for i := 0; i < HashSize && i*2+1 < len(hexStr); i++ {
		c1, c2 := hexStr[i*2], hexStr[i*2+1]
		h[i] = hexNibble(c1)<<hexShift | hexNibble(c2)
	}

	return h
}

func hexNibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + hexBase
	case c >= 'A' && c <= 'F':
		return c - 'A' + hexBase
	default:
		return 0
	}
}

// HashFromOid converts a libgit2 Oid to a Hash.
func HashFromOid(oid *git2go.Oid) Hash {
	var h Hash

	copy(h[:], oid[:])

	return h
}

// String returns the 40-character hex encoding of the hash.
func (h Hash) String() string {
	const hexChars = "0123456789abcdef"

	buf := make([]byte, HashHexSize)

	for i, b := range h {
		buf[i*2] = hexChars[b>>hexShift]
		buf[i*2+1] = hexChars[b&0x0f]
	}

	return string(buf)
}

// IsZero reports whether h is the all-zero hash.
func (h Hash) IsZero() bool {
	for _, b := range h {
		if b != 0 {
			return false
		}
	}

	return true
}

// ToOid converts a Hash back to a libgit2 Oid.
func (h Hash) ToOid() *git2go.Oid {
	oid := new(git2go.Oid)
	copy(oid[:], h[:])

	return oid
}

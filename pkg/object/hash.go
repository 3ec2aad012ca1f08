package object

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// HashObject computes the SHA-256 of the envelope "kind len\0content",
// mirroring Git's object hashing but with SHA-256.
func HashObject(kind Kind, data []byte) Hash {
	h := sha256.New()
	h.Write(envelopeHeader(kind, len(data)))
	h.Write(data)
	return Hash(hex.EncodeToString(h.Sum(nil)))
}

func envelopeHeader(kind Kind, n int) []byte {
	return []byte(fmt.Sprintf("%s %d\x00", kind, n))
}

// ValidHash reports whether s is a full lowercase hex SHA-256 digest.
func ValidHash(s string) bool {
	if len(s) != 64 {
		return false
	}
	return isLowerHex(s)
}

func isLowerHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Short returns the first 8 characters of h, for display.
func (h Hash) Short() string {
	if len(h) > 8 {
		return string(h[:8])
	}
	return string(h)
}

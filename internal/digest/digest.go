// Package digest selects the content hash used for file records and
// catalog checksums.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/zeebo/blake3"
)

// Size is the digest length in bytes. Every supported algorithm produces
// 32-byte output, so records carry a fixed-size array.
const Size = 32

// Sum is a raw digest.
type Sum [Size]byte

// Algorithm identifies a digest engine.
type Algorithm int

const (
	SHA256 Algorithm = iota
	BLAKE3
)

// Default is the algorithm used when none is configured.
const Default = SHA256

var algorithmNames = [...]string{
	SHA256: "sha256",
	BLAKE3: "blake3",
}

func (a Algorithm) String() string {
	if a >= 0 && int(a) < len(algorithmNames) {
		return algorithmNames[a]
	}
	return fmt.Sprintf("unknown(%d)", int(a))
}

// Parse converts a name such as "sha256" or "BLAKE3" to an Algorithm.
func Parse(name string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sha256", "sha-256":
		return SHA256, nil
	case "blake3":
		return BLAKE3, nil
	default:
		return 0, fmt.Errorf("unknown digest algorithm %q (use sha256 or blake3)", name)
	}
}

// New returns a fresh streaming hasher for a.
func (a Algorithm) New() hash.Hash {
	switch a {
	case BLAKE3:
		return blake3.New()
	default:
		return sha256.New()
	}
}

// Of hashes data in one shot.
func (a Algorithm) Of(data []byte) Sum {
	switch a {
	case BLAKE3:
		return blake3.Sum256(data)
	default:
		return sha256.Sum256(data)
	}
}

// Finish extracts the digest from h into a Sum.
func Finish(h hash.Hash) Sum {
	var s Sum
	copy(s[:], h.Sum(nil))
	return s
}

// Hex renders the digest as uppercase hexadecimal.
func (s Sum) Hex() string {
	return strings.ToUpper(hex.EncodeToString(s[:]))
}

func (s Sum) String() string { return s.Hex() }

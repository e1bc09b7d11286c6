// Package catalog encodes file records into a single compressed,
// checksummed container and decodes it again.
//
// Layout, integers big-endian:
//
//	magic     4 bytes   0xFF 'T' 'C' <algorithm tag>
//	checksum  32 bytes  digest of the uncompressed payload
//	length    4 bytes   uncompressed payload length
//	payload   zlib stream (best compression)
//
// The payload is, per record in path order: the UTF-8 path, '\n', the
// raw digest, the 8-byte size and two reserved zero bytes.
package catalog

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/bamsammich/tcat/internal/digest"
)

const (
	magicLen    = 4
	lengthLen   = 4
	sizeLen     = 8
	reservedLen = 2

	// HeaderSize is the number of bytes before the compressed payload.
	HeaderSize = magicLen + digest.Size + lengthLen

	// recordOverhead is the per-record payload size excluding the path.
	recordOverhead = 1 + digest.Size + sizeLen + reservedLen
)

// MaxPayload is the largest uncompressed payload the length field can
// describe.
const MaxPayload = 1<<32 - 1

var (
	ErrTooLarge  = errors.New("catalog: uncompressed payload exceeds 4 GiB format limit")
	ErrBadMagic  = errors.New("catalog: unrecognized magic")
	ErrChecksum  = errors.New("catalog: payload checksum mismatch")
	ErrLength    = errors.New("catalog: payload length mismatch")
	ErrTruncated = errors.New("catalog: truncated")
	ErrMalformed = errors.New("catalog: malformed record")
)

var magics = map[digest.Algorithm][magicLen]byte{
	digest.SHA256: {0xFF, 'T', 'C', 's'},
	digest.BLAKE3: {0xFF, 'T', 'C', 'b'},
}

// Magic returns the 4-byte tag identifying a catalog hashed with alg.
func Magic(alg digest.Algorithm) ([magicLen]byte, error) {
	m, ok := magics[alg]
	if !ok {
		return m, fmt.Errorf("catalog: no magic for algorithm %s", alg)
	}
	return m, nil
}

func algorithmFor(m [magicLen]byte) (digest.Algorithm, bool) {
	for alg, candidate := range magics {
		if candidate == m {
			return alg, true
		}
	}
	return 0, false
}

// Record is one hashed file.
type Record struct {
	Path   string
	Digest digest.Sum
	Size   uint64
}

// Catalog is a decoded container.
type Catalog struct {
	Algorithm digest.Algorithm
	Checksum  digest.Sum
	Length    uint32
	Records   []Record
}

// TotalSize sums the sizes of all records.
func (c *Catalog) TotalSize() uint64 {
	var total uint64
	for _, r := range c.Records {
		total += r.Size
	}
	return total
}

// Sort orders records by path using byte-wise comparison.
func Sort(records []Record) {
	slices.SortFunc(records, func(a, b Record) int {
		return cmp.Compare(a.Path, b.Path)
	})
}

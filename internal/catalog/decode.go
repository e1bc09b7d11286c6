package catalog

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/klauspost/compress/zlib"

	"github.com/bamsammich/tcat/internal/digest"
)

// Decode reads a container from r, checks the length field and the
// checksum against the inflated payload, and parses its records.
func Decode(r io.Reader) (*Catalog, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: header", ErrTruncated)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	var magic [magicLen]byte
	copy(magic[:], hdr[:magicLen])
	alg, ok := algorithmFor(magic)
	if !ok {
		return nil, fmt.Errorf("%w: % x", ErrBadMagic, magic)
	}

	c := &Catalog{Algorithm: alg}
	copy(c.Checksum[:], hdr[magicLen:magicLen+digest.Size])
	c.Length = binary.BigEndian.Uint32(hdr[magicLen+digest.Size:])

	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open payload: %w", err)
	}
	defer zr.Close()

	// Read one byte past the declared length so an oversized stream is
	// detected without inflating all of it.
	payload, err := io.ReadAll(io.LimitReader(zr, int64(c.Length)+1))
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: payload", ErrTruncated)
		}
		return nil, fmt.Errorf("inflate payload: %w", err)
	}
	if uint64(len(payload)) != uint64(c.Length) {
		return nil, fmt.Errorf("%w: header says %d, payload has %d+", ErrLength, c.Length, len(payload))
	}
	if alg.Of(payload) != c.Checksum {
		return nil, ErrChecksum
	}

	c.Records, err = ParsePayload(payload)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ParsePayload splits an uncompressed payload into records.
func ParsePayload(payload []byte) ([]Record, error) {
	var records []Record
	for offset := 0; len(payload) > 0; {
		nl := bytes.IndexByte(payload, '\n')
		if nl < 0 {
			return nil, fmt.Errorf("%w: record at offset %d has no path terminator", ErrTruncated, offset)
		}
		path := payload[:nl]
		if !utf8.Valid(path) {
			return nil, fmt.Errorf("%w: invalid UTF-8 path at offset %d", ErrMalformed, offset)
		}
		rest := payload[nl+1:]
		if len(rest) < digest.Size+sizeLen+reservedLen {
			return nil, fmt.Errorf("%w: record %q", ErrTruncated, path)
		}

		rec := Record{Path: string(path)}
		copy(rec.Digest[:], rest[:digest.Size])
		rec.Size = binary.BigEndian.Uint64(rest[digest.Size:])
		records = append(records, rec)

		consumed := nl + recordOverhead
		payload = payload[consumed:]
		offset += consumed
	}
	return records, nil
}

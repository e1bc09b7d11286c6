package catalog

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/bamsammich/tcat/internal/digest"
)

// Marshal builds the complete container for records, which must already
// be sorted. Nothing is returned unless the whole catalog could be built.
func Marshal(alg digest.Algorithm, records []Record) ([]byte, error) {
	magic, err := Magic(alg)
	if err != nil {
		return nil, err
	}

	payload, err := buildPayload(records, MaxPayload)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.Grow(HeaderSize + len(payload)/2)
	out.Write(magic[:])
	sum := alg.Of(payload)
	out.Write(sum[:])
	_ = binary.Write(&out, binary.BigEndian, uint32(len(payload))) //nolint:gosec // G115: bounded by buildPayload

	zw, err := zlib.NewWriterLevel(&out, zlib.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("zlib writer: %w", err)
	}
	if _, err := zw.Write(payload); err != nil {
		return nil, fmt.Errorf("compress payload: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finish payload: %w", err)
	}
	return out.Bytes(), nil
}

// Encode marshals records and writes the container to w in one call.
func Encode(w io.Writer, alg digest.Algorithm, records []Record) error {
	data, err := Marshal(alg, records)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}

// PayloadSize returns the uncompressed payload length for records.
func PayloadSize(records []Record) uint64 {
	var n uint64
	for _, r := range records {
		n += uint64(len(r.Path)) + recordOverhead
	}
	return n
}

func buildPayload(records []Record, limit uint64) ([]byte, error) {
	size := PayloadSize(records)
	if size > limit {
		return nil, fmt.Errorf("%w: %d bytes for %d records", ErrTooLarge, size, len(records))
	}

	payload := make([]byte, 0, size)
	var reserved [reservedLen]byte
	for _, r := range records {
		payload = append(payload, r.Path...)
		payload = append(payload, '\n')
		payload = append(payload, r.Digest[:]...)
		payload = binary.BigEndian.AppendUint64(payload, r.Size)
		payload = append(payload, reserved[:]...)
	}
	return payload, nil
}

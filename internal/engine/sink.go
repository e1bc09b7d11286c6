package engine

import (
	"fmt"
	"io"
	"sync"

	"github.com/bamsammich/tcat/internal/catalog"
	"github.com/bamsammich/tcat/internal/digest"
)

// Sink receives the records produced by a run.
type Sink interface {
	// Emit accepts one record. Streaming sinks must be safe for concurrent
	// use; buffered sinks are only called from the collector goroutine.
	Emit(rec FileRecord) error
	// Finish is called once after every record has been emitted and the
	// run succeeded. It is never called for a failed run.
	Finish() error
	// Streaming reports whether workers may call Emit directly instead of
	// handing records to the collector.
	Streaming() bool
}

// StreamingSink writes each record as a "path;DIGEST;size" line as soon
// as it is hashed. Line order follows completion order. Each line reaches
// w in a single Write, so a run that fails later never leaves a partial
// line or holds back records that were already hashed.
type StreamingSink struct {
	mu  sync.Mutex
	w   io.Writer
	buf []byte
}

// NewStreamingSink creates a listing sink writing to w.
func NewStreamingSink(w io.Writer) *StreamingSink {
	return &StreamingSink{w: w}
}

func (s *StreamingSink) Emit(rec FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = fmt.Appendf(s.buf[:0], "%s;%s;%d\n", rec.Path, rec.Digest.Hex(), rec.Size)
	if _, err := s.w.Write(s.buf); err != nil {
		return fmt.Errorf("write listing: %w", err)
	}
	return nil
}

func (s *StreamingSink) Finish() error { return nil }

func (s *StreamingSink) Streaming() bool { return true }

// BufferedCatalogSink holds every record until Finish, then sorts them by
// path and writes one catalog container.
type BufferedCatalogSink struct {
	w       io.Writer
	alg     digest.Algorithm
	records []FileRecord
}

// NewCatalogSink creates a catalog sink writing to w.
func NewCatalogSink(w io.Writer, alg digest.Algorithm) *BufferedCatalogSink {
	return &BufferedCatalogSink{w: w, alg: alg}
}

func (s *BufferedCatalogSink) Emit(rec FileRecord) error {
	s.records = append(s.records, rec)
	return nil
}

func (s *BufferedCatalogSink) Finish() error {
	catalog.Sort(s.records)
	return catalog.Encode(s.w, s.alg, s.records)
}

func (s *BufferedCatalogSink) Streaming() bool { return false }

// Records returns the records collected so far.
func (s *BufferedCatalogSink) Records() []FileRecord { return s.records }

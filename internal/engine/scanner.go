package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bamsammich/tcat/internal/event"
	"github.com/bamsammich/tcat/internal/filter"
	"github.com/bamsammich/tcat/internal/platform"
	"github.com/bamsammich/tcat/internal/queue"
	"github.com/bamsammich/tcat/internal/stats"
)

// ScannerConfig controls scanner behavior.
type ScannerConfig struct {
	Roots     []string
	Filter    *filter.PatternSet
	Recursive bool
	NoFollow  bool // skip symlinks instead of following them
	Events    chan<- event.Event
	Stats     *stats.Collector
}

// Scanner walks the roots depth-first on a single goroutine and emits a
// ScanTask for each accepted regular file. Directory entries are visited
// in name order.
type Scanner struct {
	cfg       ScannerConfig
	ancestors map[platform.FileID]struct{}
	files     int64
	bytes     int64
}

// NewScanner creates a scanner with the given config.
func NewScanner(cfg ScannerConfig) *Scanner {
	if cfg.Stats == nil {
		cfg.Stats = stats.NewCollector()
	}
	return &Scanner{
		cfg:       cfg,
		ancestors: make(map[platform.FileID]struct{}),
	}
}

// Walk scans every root and sends tasks to out. It stops at the first
// metadata or directory-listing failure and returns a *ScanError. If the
// consumer side of out closes, Walk stops and returns an error wrapping
// queue.ErrConsumerClosed; that case is not a diagnostic of its own. Walk
// does not close out.
func (s *Scanner) Walk(ctx context.Context, out *queue.Queue[ScanTask]) error {
	event.Emit(s.cfg.Events, event.Event{Type: event.ScanStarted})

	for _, root := range s.cfg.Roots {
		if err := s.descend(ctx, out, root); err != nil {
			return err
		}
	}

	s.cfg.Stats.MarkScanComplete()
	event.Emit(s.cfg.Events, event.Event{
		Type:      event.ScanComplete,
		Total:     s.files,
		TotalSize: s.bytes,
	})
	return nil
}

func (s *Scanner) descend(ctx context.Context, out *queue.Queue[ScanTask], path string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("scan interrupted: %w", err)
	}

	// Filter before touching the filesystem so excluded trees cost no I/O.
	if !s.cfg.Filter.Accepts(path) {
		return nil
	}

	info, err := s.stat(path)
	if err != nil {
		return newScanError(path, err)
	}
	mode := info.Mode()

	switch {
	case mode&os.ModeSymlink != 0:
		// Only reachable with NoFollow; stat follows links otherwise.
		s.skip(path, "symlink")
		return nil

	case mode.IsDir():
		if !s.cfg.Recursive {
			return nil
		}
		return s.descendDir(ctx, out, path, info)

	case mode.IsRegular():
		size := info.Size()
		if !s.cfg.Filter.AcceptsSize(size) {
			s.skip(path, "size filter")
			return nil
		}
		task := ScanTask{Path: path, Size: uint64(size)} //nolint:gosec // G115: regular file sizes are non-negative
		if err := out.Send(task); err != nil {
			return fmt.Errorf("emit %s: %w", path, err)
		}
		s.files++
		s.bytes += size
		s.cfg.Stats.AddFilesScanned(1)
		s.cfg.Stats.AddBytesScanned(size)
		return nil

	default:
		// Devices, FIFOs and sockets have no stable content to hash.
		s.skip(path, "not a regular file")
		return nil
	}
}

func (s *Scanner) descendDir(ctx context.Context, out *queue.Queue[ScanTask], path string, info os.FileInfo) error {
	if id, ok := platform.ID(info); ok {
		if _, seen := s.ancestors[id]; seen {
			return newScanError(path, ErrDirectoryLoop)
		}
		s.ancestors[id] = struct{}{}
		defer delete(s.ancestors, id)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return newScanError(path, err)
	}

	for _, entry := range entries {
		if err := s.descend(ctx, out, filepath.Join(path, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scanner) stat(path string) (os.FileInfo, error) {
	if s.cfg.NoFollow {
		return os.Lstat(path)
	}
	return os.Stat(path)
}

func (s *Scanner) skip(path, reason string) {
	s.cfg.Stats.AddFilesSkipped(1)
	event.Emit(s.cfg.Events, event.Event{Type: event.FileSkipped, Path: path, Reason: reason})
}

// IsConsumerClosed reports whether err means the scan stopped only because
// its downstream went away.
func IsConsumerClosed(err error) bool {
	return errors.Is(err, queue.ErrConsumerClosed)
}

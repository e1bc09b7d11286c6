package engine

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/bamsammich/tcat/internal/digest"
	"github.com/bamsammich/tcat/internal/event"
	"github.com/bamsammich/tcat/internal/queue"
	"github.com/bamsammich/tcat/internal/stats"
)

// WorkerConfig controls worker behavior.
type WorkerConfig struct {
	NumWorkers int
	Algorithm  digest.Algorithm
	Limiter    *rate.Limiter // nil disables throttling
	Events     chan<- event.Event
	Stats      *stats.Collector
}

// WorkerPool hashes ScanTasks on a fixed number of goroutines.
type WorkerPool struct {
	cfg WorkerConfig
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(cfg WorkerConfig) (*WorkerPool, error) {
	if cfg.NumWorkers <= 0 {
		return nil, fmt.Errorf("worker count must be positive, got %d", cfg.NumWorkers)
	}
	if cfg.Stats == nil {
		cfg.Stats = stats.NewCollector()
	}
	return &WorkerPool{cfg: cfg}, nil
}

// Run starts the workers and blocks until in is drained and closed, or a
// worker fails. Each successful record is passed to emit, which may be
// called concurrently. Per-file failures are reported as FileFailed
// events and do not stop the pool; an emit failure or context
// cancellation does, and closes the consumer side of in so the producer
// unblocks.
func (wp *WorkerPool) Run(ctx context.Context, in *queue.Queue[ScanTask], emit func(FileRecord) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for id := range wp.cfg.NumWorkers {
		g.Go(func() error {
			err := wp.work(ctx, id, in, emit)
			if err != nil {
				in.CloseRecv()
			}
			return err
		})
	}
	return g.Wait()
}

func (wp *WorkerPool) work(ctx context.Context, id int, in *queue.Queue[ScanTask], emit func(FileRecord) error) error {
	buf := make([]byte, chunkSize)
	for {
		task, ok := in.Recv()
		if !ok {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rec, err := HashFile(ctx, task.Path, task.Size, wp.cfg.Algorithm, wp.cfg.Limiter, buf)
		if err != nil {
			// A cancelled limiter wait is the pool shutting down, not a bad file.
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return ctxErr
			}
			wp.fail(id, task, err)
			continue
		}

		if err := emit(rec); err != nil {
			return fmt.Errorf("emit %s: %w", rec.Path, err)
		}
		size := int64(rec.Size) //nolint:gosec // G115: sizes originate from int64 file metadata
		wp.cfg.Stats.AddFilesHashed(1)
		wp.cfg.Stats.AddBytesHashed(size)
		event.Emit(wp.cfg.Events, event.Event{
			Type:     event.FileHashed,
			Path:     rec.Path,
			Size:     size,
			WorkerID: id,
		})
	}
}

func (wp *WorkerPool) fail(id int, task ScanTask, err error) {
	wp.cfg.Stats.AddFilesFailed(1)
	event.Report(wp.cfg.Events, event.Event{
		Type:     event.FileFailed,
		Path:     task.Path,
		Size:     int64(task.Size), //nolint:gosec // G115: sizes originate from int64 file metadata
		Error:    err,
		WorkerID: id,
	})
}

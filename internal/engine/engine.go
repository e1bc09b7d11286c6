package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/bamsammich/tcat/internal/digest"
	"github.com/bamsammich/tcat/internal/event"
	"github.com/bamsammich/tcat/internal/filter"
	"github.com/bamsammich/tcat/internal/queue"
	"github.com/bamsammich/tcat/internal/stats"
)

// queueSlack is added to the worker count to size the hand-off queues.
const queueSlack = 3

// Config describes one scan-and-hash run.
type Config struct {
	Roots     []string
	Filter    *filter.PatternSet // nil accepts every path
	Recursive bool
	NoFollow  bool
	Workers   int
	Algorithm digest.Algorithm
	BWLimit   int64 // bytes per second, 0 = unlimited
	Events    chan<- event.Event
	Stats     *stats.Collector // optional, created when nil
}

// Result is the outcome of a run.
type Result struct {
	Stats stats.Snapshot
	Err   error
}

// Run scans cfg.Roots, hashes every accepted file on cfg.Workers
// goroutines and hands the records to sink, blocking until complete.
// sink.Finish is only called when the scanner and every worker succeeded,
// so a failed run never produces catalog output.
func Run(ctx context.Context, cfg Config, sink Sink) Result {
	collector := cfg.Stats
	if collector == nil {
		collector = stats.NewCollector()
	}
	if cfg.Workers <= 0 {
		return Result{Stats: collector.Snapshot(), Err: fmt.Errorf("worker count must be positive, got %d", cfg.Workers)}
	}

	scanner := NewScanner(ScannerConfig{
		Roots:     cfg.Roots,
		Filter:    cfg.Filter,
		Recursive: cfg.Recursive,
		NoFollow:  cfg.NoFollow,
		Events:    cfg.Events,
		Stats:     collector,
	})
	pool, err := NewWorkerPool(WorkerConfig{
		NumWorkers: cfg.Workers,
		Algorithm:  cfg.Algorithm,
		Limiter:    NewBWLimiter(cfg.BWLimit),
		Events:     cfg.Events,
		Stats:      collector,
	})
	if err != nil {
		return Result{Stats: collector.Snapshot(), Err: err}
	}

	tasks := queue.New[ScanTask](cfg.Workers + queueSlack)

	scanErr := make(chan error, 1)
	go func() {
		// Closing the producer side lets workers drain what was queued and
		// exit, also after a scan failure.
		defer tasks.CloseSend()
		scanErr <- scanner.Walk(ctx, tasks)
	}()

	var poolErr, collectErr error
	if sink.Streaming() {
		poolErr = pool.Run(ctx, tasks, sink.Emit)
	} else {
		poolErr, collectErr = runCollected(ctx, cfg.Workers, pool, tasks, sink)
	}

	// Workers are joined before the scanner, then errors are combined in
	// that order.
	err = combineErrors(poolErr, collectErr, <-scanErr)
	if err == nil {
		err = sink.Finish()
	}
	return Result{Stats: collector.Snapshot(), Err: err}
}

// runCollected runs the pool with its records handed over a bounded queue
// to a single collector loop on the calling goroutine.
func runCollected(
	ctx context.Context,
	workers int,
	pool *WorkerPool,
	tasks *queue.Queue[ScanTask],
	sink Sink,
) (poolErr, collectErr error) {
	results := queue.New[FileRecord](workers + queueSlack)

	poolDone := make(chan error, 1)
	go func() {
		defer results.CloseSend()
		poolDone <- pool.Run(ctx, tasks, results.Send)
	}()

	for {
		rec, ok := results.Recv()
		if !ok {
			break
		}
		if err := sink.Emit(rec); err != nil {
			collectErr = fmt.Errorf("collect %s: %w", rec.Path, err)
			results.CloseRecv()
			break
		}
	}
	poolErr = <-poolDone
	if collectErr != nil && IsConsumerClosed(poolErr) {
		poolErr = nil
	}
	return poolErr, collectErr
}

// combineErrors joins the fatal errors of a run. A scanner that stopped
// only because its consumer went away is not reported when a downstream
// error explains why.
func combineErrors(poolErr, collectErr, scanErr error) error {
	downstream := errors.Join(poolErr, collectErr)
	if downstream == nil {
		return scanErr
	}
	if IsConsumerClosed(scanErr) || (errors.Is(scanErr, context.Canceled) && errors.Is(downstream, context.Canceled)) {
		return downstream
	}
	return errors.Join(downstream, scanErr)
}

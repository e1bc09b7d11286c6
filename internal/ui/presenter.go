package ui

import (
	"io"
	"time"

	"github.com/bamsammich/tcat/internal/stats"
)

// Presenter consumes events and displays diagnostics and progress.
type Presenter interface {
	// Run consumes events until the channel closes. Blocks until done.
	Run(events <-chan Event) error
	// Summary returns the final summary line.
	Summary() string
}

// Config configures a Presenter.
type Config struct {
	ErrWriter io.Writer // diagnostics and progress
	Stats     *stats.Collector
	IsTTY     bool // redraw progress in place instead of appending lines
	Width     int  // terminal width, used with IsTTY
	Quiet     bool // failures only
	Verbose   bool // also report skipped entries
	Progress  bool
	Interval  time.Duration // progress refresh, defaults by IsTTY
}

// NewPresenter creates the presenter for cfg. Every presenter prints each
// failed file exactly once as "path: cause".
//
//nolint:ireturn // callers pick the implementation via Config
func NewPresenter(cfg Config) Presenter {
	if cfg.Stats == nil {
		cfg.Stats = stats.NewCollector()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
		if cfg.IsTTY {
			cfg.Interval = time.Second
		}
	}
	if cfg.Width <= 0 {
		cfg.Width = 80
	}
	if cfg.Quiet {
		cfg.Progress = false
		cfg.Verbose = false
	}
	return &plainPresenter{cfg: cfg}
}

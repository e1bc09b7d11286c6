package ui

import (
	"fmt"
	"strings"
	"time"
)

// plainPresenter writes diagnostics to ErrWriter as they arrive and, with
// Progress set, a periodic progress line.
type plainPresenter struct {
	cfg       Config
	lastWidth int // length of the in-place progress line, 0 if none shown
}

func (p *plainPresenter) Run(events <-chan Event) error {
	var tick <-chan time.Time
	if p.cfg.Progress {
		ticker := time.NewTicker(p.cfg.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				p.clearProgress()
				return nil
			}
			p.handleEvent(ev)
		case <-tick:
			p.cfg.Stats.Tick()
			p.printProgress()
		}
	}
}

func (p *plainPresenter) handleEvent(ev Event) {
	switch ev.Type {
	case FileFailed:
		p.clearProgress()
		fmt.Fprintln(p.cfg.ErrWriter, Diagnostic(ev.Path, ev.Error))
	case FileSkipped:
		if p.cfg.Verbose {
			p.clearProgress()
			fmt.Fprintf(p.cfg.ErrWriter, "skipped: %s (%s)\n", ev.Path, ev.Reason)
		}
	case ScanComplete:
		if p.cfg.Verbose {
			p.clearProgress()
			fmt.Fprintf(p.cfg.ErrWriter, "scan complete: %s files, %s\n",
				FormatCount(ev.Total), FormatBytes(ev.TotalSize))
		}
	case ScanStarted, FileHashed:
		// counted by the collector
	}
}

// Diagnostic renders a per-file failure as "path: cause", naming the path
// once even when err already carries it.
func Diagnostic(path string, err error) string {
	if err == nil {
		return path + ": failed"
	}
	msg := err.Error()
	if path == "" || strings.HasPrefix(msg, path+": ") {
		return msg
	}
	return path + ": " + msg
}

func (p *plainPresenter) progressLine() string {
	snap := p.cfg.Stats.Snapshot()
	speed := p.cfg.Stats.RollingSpeed(10)

	if !snap.ScanComplete {
		return fmt.Sprintf("hashed %s files %s  %s  scanning...",
			FormatCount(snap.FilesHashed), FormatBytes(snap.BytesHashed), FormatRate(speed))
	}

	line := fmt.Sprintf("hashed %s/%s files %s/%s  %s  %.0f files/s  eta %s",
		FormatCount(snap.FilesHashed), FormatCount(snap.FilesScanned),
		FormatBytes(snap.BytesHashed), FormatBytes(snap.BytesScanned),
		FormatRate(speed), p.cfg.Stats.RollingFilesPerSec(10), FormatETA(p.cfg.Stats.ETA()))
	if p.cfg.IsTTY && snap.BytesScanned > 0 {
		frac := float64(snap.BytesHashed) / float64(snap.BytesScanned)
		if barWidth := p.cfg.Width - len(line) - 3; barWidth >= 10 {
			line = ProgressBar(frac, min(barWidth, 40)) + "  " + line
		}
	}
	return line
}

func (p *plainPresenter) printProgress() {
	line := p.progressLine()
	if !p.cfg.IsTTY {
		fmt.Fprintln(p.cfg.ErrWriter, "progress: "+line)
		return
	}
	if len(line) >= p.cfg.Width {
		line = line[:p.cfg.Width-1]
	}
	fmt.Fprintf(p.cfg.ErrWriter, "\r%-*s", p.lastWidth, line)
	p.lastWidth = len(line)
}

// clearProgress erases an in-place progress line before other output.
func (p *plainPresenter) clearProgress() {
	if p.lastWidth == 0 {
		return
	}
	fmt.Fprintf(p.cfg.ErrWriter, "\r%s\r", strings.Repeat(" ", p.lastWidth))
	p.lastWidth = 0
}

func (p *plainPresenter) Summary() string {
	return completionSummary(p.cfg.Stats.Snapshot())
}

package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const ringSize = 60

// Collector tracks scan and hash statistics using lock-free atomic counters.
type Collector struct {
	filesScanned atomic.Int64 // accepted by the scanner
	bytesScanned atomic.Int64 // declared size of accepted files
	filesHashed  atomic.Int64
	bytesHashed  atomic.Int64
	filesFailed  atomic.Int64
	filesSkipped atomic.Int64
	scanDone     atomic.Bool
	startTime    time.Time

	// Ring buffer, written only by the presenter's Tick().
	mu          sync.Mutex
	throughput  [ringSize]int64 // bytes hashed per second
	filesPerSec [ringSize]int64
	ringIdx     int
	ringCount   int
	lastBytes   int64
	lastFiles   int64
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	FilesScanned int64
	BytesScanned int64
	FilesHashed  int64
	BytesHashed  int64
	FilesFailed  int64
	FilesSkipped int64
	ScanComplete bool
	Elapsed      time.Duration
}

func (c *Collector) AddFilesScanned(n int64) { c.filesScanned.Add(n) }
func (c *Collector) AddBytesScanned(n int64) { c.bytesScanned.Add(n) }
func (c *Collector) AddFilesHashed(n int64)  { c.filesHashed.Add(n) }
func (c *Collector) AddBytesHashed(n int64)  { c.bytesHashed.Add(n) }
func (c *Collector) AddFilesFailed(n int64)  { c.filesFailed.Add(n) }
func (c *Collector) AddFilesSkipped(n int64) { c.filesSkipped.Add(n) }

// MarkScanComplete records that the scanner has emitted every task, so
// the scanned totals are final.
func (c *Collector) MarkScanComplete() { c.scanDone.Store(true) }

// Snapshot returns a point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		FilesScanned: c.filesScanned.Load(),
		BytesScanned: c.bytesScanned.Load(),
		FilesHashed:  c.filesHashed.Load(),
		BytesHashed:  c.bytesHashed.Load(),
		FilesFailed:  c.filesFailed.Load(),
		FilesSkipped: c.filesSkipped.Load(),
		ScanComplete: c.scanDone.Load(),
		Elapsed:      c.Elapsed(),
	}
}

// Tick snapshots byte/file deltas into the ring buffer. Called 1/sec by the presenter.
func (c *Collector) Tick() {
	currentBytes := c.bytesHashed.Load()
	currentFiles := c.filesHashed.Load()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.throughput[c.ringIdx] = currentBytes - c.lastBytes
	c.filesPerSec[c.ringIdx] = currentFiles - c.lastFiles
	c.lastBytes = currentBytes
	c.lastFiles = currentFiles

	c.ringIdx = (c.ringIdx + 1) % ringSize
	if c.ringCount < ringSize {
		c.ringCount++
	}
}

// RollingSpeed returns average bytes hashed per second over the last n samples.
func (c *Collector) RollingSpeed(seconds int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rollingAvg(c.throughput[:], seconds)
}

// RollingFilesPerSec returns average files hashed per second over the last n samples.
func (c *Collector) RollingFilesPerSec(seconds int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rollingAvg(c.filesPerSec[:], seconds)
}

func (c *Collector) rollingAvg(buf []int64, n int) float64 {
	count := min(n, c.ringCount)
	if count <= 0 {
		return 0
	}
	var sum int64
	for i := range count {
		idx := (c.ringIdx - 1 - i + ringSize) % ringSize
		sum += buf[idx]
	}
	return float64(sum) / float64(count)
}

// ETA estimates the remaining hashing time. It is zero until the scan has
// completed, since the total is unknown before then.
func (c *Collector) ETA() time.Duration {
	if !c.scanDone.Load() {
		return 0
	}
	speed := c.RollingSpeed(10)
	if speed <= 0 {
		return 0
	}
	remaining := c.bytesScanned.Load() - c.bytesHashed.Load()
	if remaining <= 0 {
		return 0
	}
	return time.Duration(float64(remaining)/speed) * time.Second
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"scanned=%d hashed=%d failed=%d skipped=%d bytes=%d",
		s.FilesScanned, s.FilesHashed, s.FilesFailed, s.FilesSkipped, s.BytesHashed,
	)
}

// FormatBytes returns a human-readable byte count.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

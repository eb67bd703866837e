package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const ringSize = 60

// Writer is the side of a Collector the mirror and chunker record into.
type Writer interface {
	AddDirsListed(n int64)
	AddFilesDownloaded(n int64)
	AddBytesDownloaded(n int64)
	AddFilesSplit(n int64)
	AddFilesMerged(n int64)
	AddFilesSkipped(n int64)
	AddFilesFailed(n int64)
	AddPartsWritten(n int64)
	AddPartsMerged(n int64)
	AddBytesChunked(n int64)
}

// Reader is the side of a Collector presenters read from.
type Reader interface {
	Snapshot() Snapshot
	RollingSpeed(seconds int) float64
}

// ReadTicker is a Reader that also samples throughput once per second.
type ReadTicker interface {
	Reader
	Tick()
}

// Collector tracks operation statistics using lock-free atomic counters.
type Collector struct {
	startTime time.Time

	dirsListed      atomic.Int64
	filesDownloaded atomic.Int64
	bytesDownloaded atomic.Int64
	filesSplit      atomic.Int64
	filesMerged     atomic.Int64
	filesSkipped    atomic.Int64
	filesFailed     atomic.Int64
	partsWritten    atomic.Int64
	partsMerged     atomic.Int64
	bytesChunked    atomic.Int64

	// Ring buffer, written only by the presenter's Tick().
	mu         sync.Mutex
	throughput [ringSize]int64 // bytes delta per second
	ringIdx    int
	ringCount  int
	lastBytes  int64
}

var (
	_ Writer     = (*Collector)(nil)
	_ ReadTicker = (*Collector)(nil)
)

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

func (c *Collector) AddDirsListed(n int64)      { c.dirsListed.Add(n) }
func (c *Collector) AddFilesDownloaded(n int64) { c.filesDownloaded.Add(n) }
func (c *Collector) AddBytesDownloaded(n int64) { c.bytesDownloaded.Add(n) }
func (c *Collector) AddFilesSplit(n int64)      { c.filesSplit.Add(n) }
func (c *Collector) AddFilesMerged(n int64)     { c.filesMerged.Add(n) }
func (c *Collector) AddFilesSkipped(n int64)    { c.filesSkipped.Add(n) }
func (c *Collector) AddFilesFailed(n int64)     { c.filesFailed.Add(n) }
func (c *Collector) AddPartsWritten(n int64)    { c.partsWritten.Add(n) }
func (c *Collector) AddPartsMerged(n int64)     { c.partsMerged.Add(n) }
func (c *Collector) AddBytesChunked(n int64)    { c.bytesChunked.Add(n) }

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	DirsListed      int64
	FilesDownloaded int64
	BytesDownloaded int64
	FilesSplit      int64
	FilesMerged     int64
	FilesSkipped    int64
	FilesFailed     int64
	PartsWritten    int64
	PartsMerged     int64
	BytesChunked    int64
	Elapsed         time.Duration
}

// Snapshot returns a point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		DirsListed:      c.dirsListed.Load(),
		FilesDownloaded: c.filesDownloaded.Load(),
		BytesDownloaded: c.bytesDownloaded.Load(),
		FilesSplit:      c.filesSplit.Load(),
		FilesMerged:     c.filesMerged.Load(),
		FilesSkipped:    c.filesSkipped.Load(),
		FilesFailed:     c.filesFailed.Load(),
		PartsWritten:    c.partsWritten.Load(),
		PartsMerged:     c.partsMerged.Load(),
		BytesChunked:    c.bytesChunked.Load(),
		Elapsed:         c.Elapsed(),
	}
}

// Files is the number of files that were fully processed.
func (s Snapshot) Files() int64 {
	return s.FilesDownloaded + s.FilesSplit + s.FilesMerged
}

// Bytes is the total number of bytes written to disk.
func (s Snapshot) Bytes() int64 {
	return s.BytesDownloaded + s.BytesChunked
}

// Tick snapshots the byte delta into the ring buffer. Called 1/sec by the presenter.
func (c *Collector) Tick() {
	current := c.bytesDownloaded.Load() + c.bytesChunked.Load()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.throughput[c.ringIdx] = current - c.lastBytes
	c.lastBytes = current
	c.ringIdx = (c.ringIdx + 1) % ringSize
	if c.ringCount < ringSize {
		c.ringCount++
	}
}

// RollingSpeed returns average bytes/sec over the last n seconds of samples.
func (c *Collector) RollingSpeed(seconds int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := min(seconds, c.ringCount)
	if count <= 0 {
		return 0
	}
	var sum int64
	for i := range count {
		idx := (c.ringIdx - 1 - i + ringSize) % ringSize
		sum += c.throughput[idx]
	}
	return float64(sum) / float64(count)
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"dirs=%d downloaded=%d split=%d merged=%d skipped=%d failed=%d parts=%d/%d bytes=%d",
		s.DirsListed, s.FilesDownloaded, s.FilesSplit, s.FilesMerged,
		s.FilesSkipped, s.FilesFailed, s.PartsWritten, s.PartsMerged, s.Bytes(),
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

// Discard is a Writer that drops everything. Used when no collector is wired.
var Discard Writer = discard{}

type discard struct{}

func (discard) AddDirsListed(int64)      {}
func (discard) AddFilesDownloaded(int64) {}
func (discard) AddBytesDownloaded(int64) {}
func (discard) AddFilesSplit(int64)      {}
func (discard) AddFilesMerged(int64)     {}
func (discard) AddFilesSkipped(int64)    {}
func (discard) AddFilesFailed(int64)     {}
func (discard) AddPartsWritten(int64)    {}
func (discard) AddPartsMerged(int64)     {}
func (discard) AddBytesChunked(int64)    {}

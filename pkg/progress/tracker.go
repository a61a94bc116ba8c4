package progress

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/containerd/log"
	units "github.com/docker/go-units"
)

// Tracker counts processed bytes and periodically logs how far along the
// work is. A nil *Tracker is valid and records nothing.
type Tracker struct {
	processed atomic.Uint64
	total     uint64
	interval  time.Duration

	mu      sync.Mutex
	done    chan struct{}
	stopped chan struct{}
}

// New returns a tracker for total bytes of work. A total of 0 means the size
// is unknown and no percentage or ETA is reported.
func New(total uint64) *Tracker {
	return &Tracker{total: total, interval: time.Second}
}

// Start begins periodic reporting. It is a no-op if reporting is running.
func (t *Tracker) Start(ctx context.Context) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done != nil {
		return
	}
	t.done = make(chan struct{})
	t.stopped = make(chan struct{})
	go t.report(ctx, t.done, t.stopped)
}

// Stop ends reporting and logs a summary.
func (t *Tracker) Stop() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done == nil {
		return
	}
	close(t.done)
	<-t.stopped
	t.done, t.stopped = nil, nil
}

// Add records n processed bytes.
func (t *Tracker) Add(n uint64) {
	if t == nil || n == 0 {
		return
	}
	t.processed.Add(n)
}

// Processed returns the number of bytes recorded so far.
func (t *Tracker) Processed() uint64 {
	if t == nil {
		return 0
	}
	return t.processed.Load()
}

func (t *Tracker) report(ctx context.Context, done <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	start := time.Now()
	prevBytes := t.Processed()
	prevTime := start
	for {
		select {
		case now := <-ticker.C:
			current := t.Processed()
			bps := rate(current-prevBytes, now.Sub(prevTime))
			prevBytes, prevTime = current, now
			log.G(ctx).WithFields(t.fields(current, bps)).Info("extracting")
		case <-done:
			elapsed := time.Since(start)
			current := t.Processed()
			log.G(ctx).WithFields(log.Fields{
				"processed": units.HumanSize(float64(current)),
				"elapsed":   elapsed.Round(time.Millisecond),
				"avg_rate":  formatRate(rate(current, elapsed)),
			}).Info("completed")
			return
		}
	}
}

func (t *Tracker) fields(current, bytesPerSec uint64) log.Fields {
	f := log.Fields{
		"processed": units.HumanSize(float64(current)),
		"rate":      formatRate(bytesPerSec),
	}
	if t.total > 0 {
		f["total"] = units.HumanSize(float64(t.total))
		f["percent"] = fmt.Sprintf("%.1f%%", percent(current, t.total))
		f["eta"] = eta(current, t.total, bytesPerSec)
	}
	return f
}

func rate(n uint64, d time.Duration) uint64 {
	if d < time.Millisecond {
		d = time.Millisecond
	}
	return uint64(float64(n) / d.Seconds())
}

func percent(current, total uint64) float64 {
	if total == 0 {
		return 0
	}
	p := float64(current) / float64(total) * 100
	if p > 100 {
		p = 100
	}
	return p
}

// formatRate returns a human-readable rate string
func formatRate(bytesPerSec uint64) string {
	return units.HumanSize(float64(bytesPerSec)) + "/s"
}

// eta estimates the remaining time at the current rate.
func eta(current, total, bytesPerSec uint64) string {
	if bytesPerSec == 0 {
		return "calculating..."
	}
	if current >= total {
		return "0s"
	}
	remaining := time.Duration(float64(total-current) / float64(bytesPerSec) * float64(time.Second))
	return units.HumanDuration(remaining)
}

// Reader counts bytes read through it.
type Reader struct {
	R io.Reader
	T *Tracker
}

// Reader wraps r so that every byte read from it is recorded.
func (t *Tracker) Reader(r io.Reader) io.Reader {
	return &Reader{R: r, T: t}
}

// Read implements io.Reader and tracks bytes read
func (pr *Reader) Read(p []byte) (n int, err error) {
	n, err = pr.R.Read(p)
	if n > 0 {
		pr.T.Add(uint64(n))
	}
	return
}

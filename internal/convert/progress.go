package convert

import (
	"sync"
	"sync/atomic"
)

// ProgressFunc receives the integer completion percentage (0-100) of a batch.
// Calls are serialized by the converter, so implementations need no locking.
type ProgressFunc func(percent int)

// Percent converts a completed/total pair into an integer percentage.
func Percent(completed, total int64) int {
	if total <= 0 || completed >= total {
		return 100
	}
	if completed <= 0 {
		return 0
	}
	return int(completed * 100 / total)
}

// progressTracker counts finished transcodes for one batch and forwards
// monotonically increasing percentages to the sink.
type progressTracker struct {
	total     int64
	completed atomic.Int64
	sink      ProgressFunc

	mu       sync.Mutex
	reported int64
}

// newProgressTracker creates a tracker owned by a single Convert call.
func newProgressTracker(total int, sink ProgressFunc) *progressTracker {
	return &progressTracker{total: int64(total), sink: sink}
}

// complete records one finished transcode. A worker that loses the race to a
// later completion drops its stale update instead of reporting it out of order.
func (p *progressTracker) complete() {
	done := p.completed.Add(1)
	p.report(done)
}

// finishEmpty reports 100% for a batch with nothing to convert.
func (p *progressTracker) finishEmpty() {
	if p.total == 0 {
		p.report(0)
	}
}

// report forwards done to the sink unless a newer count was already sent.
func (p *progressTracker) report(done int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if done <= p.reported && p.total > 0 {
		return
	}
	p.reported = done
	if p.sink != nil {
		p.sink(Percent(done, p.total))
	}
}

// Completed returns the number of finished transcodes.
func (p *progressTracker) Completed() int64 {
	return p.completed.Load()
}

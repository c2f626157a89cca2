package schedule

import (
	"sync"
	"time"
)

// DefaultFrame is roughly one display refresh.
const DefaultFrame = 16 * time.Millisecond

// FrameScheduler keeps at most one pending redraw. A new request replaces
// the pending one instead of stacking behind it.
type FrameScheduler struct {
	mu       sync.Mutex
	interval time.Duration
	timer    *time.Timer
	gen      uint64
}

// NewFrameScheduler returns a scheduler that runs draws interval after the
// latest request.
func NewFrameScheduler(interval time.Duration) *FrameScheduler {
	if interval <= 0 {
		interval = DefaultFrame
	}
	return &FrameScheduler{interval: interval}
}

// Request schedules draw for the next frame, cancelling any pending draw.
func (f *FrameScheduler) Request(draw func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cancelLocked()
	gen := f.gen
	f.timer = time.AfterFunc(f.interval, func() {
		f.mu.Lock()
		if gen != f.gen {
			f.mu.Unlock()
			return
		}
		f.timer = nil
		f.mu.Unlock()
		draw()
	})
}

// Cancel drops the pending draw.
func (f *FrameScheduler) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelLocked()
}

func (f *FrameScheduler) cancelLocked() {
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	f.gen++
}

// Pending reports whether a draw is waiting.
func (f *FrameScheduler) Pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.timer != nil
}

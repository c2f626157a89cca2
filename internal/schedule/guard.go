package schedule

import "sync"

// Guard serializes recomputation passes. While a pass is in flight, a new
// request marks that pass as stale: its result is thrown away when it
// finishes and the newest request runs in its place. Requests that arrive
// during a stale pass replace each other, so at most one follows.
type Guard[T, R any] struct {
	mu      sync.Mutex
	compute func(T) R
	commit  func(R)
	running bool
	stale   bool
	next    T
}

// NewGuard wires compute (the pass) and commit (publishing its result).
func NewGuard[T, R any](compute func(T) R, commit func(R)) *Guard[T, R] {
	return &Guard[T, R]{compute: compute, commit: commit}
}

// Submit runs a pass for req on the calling goroutine, unless one is
// already in flight; then req is queued and Submit returns false at once.
func (g *Guard[T, R]) Submit(req T) bool {
	g.mu.Lock()
	if g.running {
		g.stale = true
		g.next = req
		g.mu.Unlock()
		return false
	}
	g.running = true
	g.mu.Unlock()

	for {
		r := g.compute(req)

		g.mu.Lock()
		if g.stale {
			g.stale = false
			req = g.next
			g.mu.Unlock()
			continue
		}
		g.mu.Unlock()

		g.commit(r)

		g.mu.Lock()
		if g.stale {
			// arrived while committing; the committed result is already
			// superseded, so run again
			g.stale = false
			req = g.next
			g.mu.Unlock()
			continue
		}
		g.running = false
		g.mu.Unlock()
		return true
	}
}

// Busy reports whether a pass is in flight.
func (g *Guard[T, R]) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

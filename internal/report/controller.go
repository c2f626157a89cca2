package report

import (
	"sync"
	"time"

	"github.com/ginjaninja78/revenue-refund-analyzer/internal/logging"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/schedule"
)

// ControllerOptions tunes the controller's timing.
type ControllerOptions struct {
	// Debounce is the quiet window for filter messages.
	Debounce time.Duration
	// Frame is the redraw coalescing interval.
	Frame  time.Duration
	Logger logging.Logger
}

// Controller drives a State from a stream of messages. Filter messages
// are debounced, recomputation passes never overlap, and redraws are
// coalesced into one pending frame.
type Controller struct {
	mu     sync.Mutex
	state  State
	render func(State)
	log    logging.Logger

	// inbox holds messages not yet folded into a committed state. Only
	// commit removes them, and only from the front.
	inbox []Msg

	debouncer *schedule.Debouncer[Msg]
	guard     *schedule.Guard[struct{}, pass]
	frames    *schedule.FrameScheduler
}

// pass is the outcome of folding the inbox prefix of length applied.
type pass struct {
	state   State
	applied int
}

// NewController wraps initial. render receives every committed state, on
// the frame scheduler's goroutine.
func NewController(initial State, opts ControllerOptions, render func(State)) *Controller {
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	c := &Controller{state: initial, render: render, log: opts.Logger}
	c.guard = schedule.NewGuard(c.compute, c.commit)
	c.debouncer = schedule.NewDebouncer(opts.Debounce, c.submit)
	c.frames = schedule.NewFrameScheduler(opts.Frame)
	return c
}

// submit queues m and signals the guard. The signal carries no messages:
// every pass reads the inbox itself, so a pass discarded by the guard
// loses nothing.
func (c *Controller) submit(m Msg) {
	c.mu.Lock()
	c.inbox = append(c.inbox, m)
	c.mu.Unlock()
	c.guard.Submit(struct{}{})
}

// compute folds the inbox into the committed state. Both are read under
// one lock so the pass and its applied count describe the same snapshot.
func (c *Controller) compute(struct{}) pass {
	c.mu.Lock()
	s := c.state
	batch := append([]Msg(nil), c.inbox...)
	c.mu.Unlock()
	for _, m := range batch {
		s = Update(s, m)
	}
	return pass{state: s, applied: len(batch)}
}

// commit publishes p. Passes never overlap, so the messages p folded are
// still the first p.applied entries of the inbox.
func (c *Controller) commit(p pass) {
	if p.applied == 0 {
		return
	}
	s := p.state
	c.mu.Lock()
	c.state = s
	c.inbox = c.inbox[p.applied:]
	c.mu.Unlock()
	c.log.Debug("report state v%d: %d revenue / %d refund rows after filters",
		s.Version, len(s.Filtered.Revenue), len(s.Filtered.Refund))
	if c.render != nil {
		c.frames.Request(func() { c.render(s) })
	}
}

// Dispatch feeds a message in. Filter and date-range changes wait for the
// debounce window; everything else applies at once. Clearing the filters
// also drops a pending filter change.
func (c *Controller) Dispatch(m Msg) {
	switch m.(type) {
	case FiltersChanged, DateRangeChanged:
		c.debouncer.Trigger(m)
	case FiltersCleared:
		c.debouncer.Cancel()
		c.submit(m)
	default:
		c.submit(m)
	}
}

// Flush applies a pending debounced message immediately.
func (c *Controller) Flush() {
	c.debouncer.Flush()
}

// State returns the last committed state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close drops pending work.
func (c *Controller) Close() {
	c.debouncer.Cancel()
	c.frames.Cancel()
}

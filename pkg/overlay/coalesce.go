package overlay

import "github.com/matzehuels/archmap/pkg/surface"

// FrameCoalescer rate-limits work to at most one run per frame. It holds at
// most one pending token: a request while a token is pending is absorbed
// into it, and the work that runs is the most recently requested.
type FrameCoalescer struct {
	sched  surface.Scheduler
	cancel func()
	fn     func()
	runs   int
}

// NewFrameCoalescer returns a coalescer scheduling on sched.
func NewFrameCoalescer(sched surface.Scheduler) *FrameCoalescer {
	return &FrameCoalescer{sched: sched}
}

// Request schedules fn for the next frame. It reports whether a new token
// was created.
func (c *FrameCoalescer) Request(fn func()) bool {
	c.fn = fn
	if c.cancel != nil {
		return false
	}
	c.cancel = c.sched.NextFrame(func() {
		run := c.fn
		c.cancel, c.fn = nil, nil
		c.runs++
		if run != nil {
			run()
		}
	})
	return true
}

// Pending reports whether a token is waiting for its frame.
func (c *FrameCoalescer) Pending() bool { return c.cancel != nil }

// Runs returns how many tokens have resolved.
func (c *FrameCoalescer) Runs() int { return c.runs }

// Cancel discards the pending token, if any, without running its work.
func (c *FrameCoalescer) Cancel() {
	if c.cancel != nil {
		c.cancel()
		c.cancel, c.fn = nil, nil
	}
}

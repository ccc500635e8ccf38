package surface

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLoopClosed is returned by Do on a closed loop.
var ErrLoopClosed = errors.New("surface: loop closed")

// DefaultFrameInterval is the tick period Run uses when none is set.
const DefaultFrameInterval = 16 * time.Millisecond

type task struct {
	fn        func()
	cancelled bool
}

// Loop is a cooperative, single-goroutine event loop. Work queued with
// Defer runs after the current turn; work queued with NextFrame runs on the
// next tick. Tests drive a Loop manually with RunPending and Tick; servers
// call Run on a dedicated goroutine.
type Loop struct {
	mu     sync.Mutex
	turns  []*task
	frames []*task
	closed bool
	wake   chan struct{}
	done   chan struct{}

	// FrameInterval is the tick period used by Run.
	FrameInterval time.Duration
}

// NewLoop returns an idle loop.
func NewLoop() *Loop {
	return &Loop{
		wake:          make(chan struct{}, 1),
		done:          make(chan struct{}),
		FrameInterval: DefaultFrameInterval,
	}
}

// Defer queues fn to run after the current turn.
func (l *Loop) Defer(fn func()) (cancel func()) {
	return l.enqueue(&l.turns, fn)
}

// NextFrame queues fn for the next tick.
func (l *Loop) NextFrame(fn func()) (cancel func()) {
	return l.enqueue(&l.frames, fn)
}

// Post queues fn from any goroutine. It is Defer without a cancel func.
func (l *Loop) Post(fn func()) {
	l.Defer(fn)
}

// Do runs fn on the loop and waits for it to complete. It returns
// ctx.Err() if ctx ends before fn runs, and ErrLoopClosed if the loop is
// closed before fn runs.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	if l.Closed() {
		return ErrLoopClosed
	}
	ran := make(chan struct{})
	cancel := l.Defer(func() {
		fn()
		close(ran)
	})
	select {
	case <-ran:
		return nil
	case <-l.done:
		select {
		case <-ran:
			return nil
		default:
			return ErrLoopClosed
		}
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	}
}

func (l *Loop) enqueue(q *[]*task, fn func()) func() {
	t := &task{fn: fn}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return func() {}
	}
	*q = append(*q, t)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}

	return func() {
		l.mu.Lock()
		t.cancelled = true
		l.mu.Unlock()
	}
}

// Pending returns the number of queued, uncancelled turn and frame tasks.
func (l *Loop) Pending() (turns, frames int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, t := range l.turns {
		if !t.cancelled {
			turns++
		}
	}
	for _, t := range l.frames {
		if !t.cancelled {
			frames++
		}
	}
	return turns, frames
}

// RunPending runs deferred turns until none remain, including turns queued
// while draining. It returns the number of tasks run.
func (l *Loop) RunPending() int {
	n := 0
	for {
		l.mu.Lock()
		batch := l.turns
		l.turns = nil
		l.mu.Unlock()
		if len(batch) == 0 {
			return n
		}
		n += l.runBatch(batch)
	}
}

// Tick runs every frame callback queued before the tick, then drains the
// turns they caused. Callbacks queued during the tick wait for the next one.
// It returns the number of frame callbacks run.
func (l *Loop) Tick() int {
	l.RunPending()
	l.mu.Lock()
	batch := l.frames
	l.frames = nil
	l.mu.Unlock()
	n := l.runBatch(batch)
	l.RunPending()
	return n
}

func (l *Loop) runBatch(batch []*task) int {
	n := 0
	for _, t := range batch {
		l.mu.Lock()
		skip := t.cancelled || l.closed
		t.cancelled = true
		l.mu.Unlock()
		if skip {
			continue
		}
		t.fn()
		n++
	}
	return n
}

// Run processes turns as they arrive and ticks every FrameInterval until ctx
// is done or the loop is closed.
func (l *Loop) Run(ctx context.Context) error {
	interval := l.FrameInterval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if l.Closed() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
			l.RunPending()
		case <-ticker.C:
			l.Tick()
		}
	}
}

// Close drops all pending work and releases callers blocked in Do. Later
// Defer and NextFrame calls are discarded. Close is idempotent.
func (l *Loop) Close() {
	l.mu.Lock()
	if !l.closed {
		close(l.done)
	}
	l.closed = true
	l.turns = nil
	l.frames = nil
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Closed reports whether Close has been called.
func (l *Loop) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

var _ Scheduler = (*Loop)(nil)

package scheduler

import (
	"context"
	"sync"
	"time"
)

// DefaultFrameInterval is the frame period used by Run.
const DefaultFrameInterval = 16 * time.Millisecond

// Handle identifies a requested frame callback.
type Handle uint64

type frame struct {
	id Handle
	fn func()
}

// Loop is a cooperative single-threaded executor. Post and RequestFrame are
// safe for concurrent use; Flush must only be called from one goroutine at a
// time.
type Loop struct {
	mu       sync.Mutex
	tasks    []func()
	frames   []frame
	running  map[Handle]bool
	nextID   Handle
	interval time.Duration
	wake     chan struct{}
	frameNo  uint64
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithFrameInterval sets the period between frames in Run.
func WithFrameInterval(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.interval = d
		}
	}
}

// NewLoop creates a Loop.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		interval: DefaultFrameInterval,
		wake:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Post queues fn to run on the loop at the start of the next flush.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
	l.signal()
}

// RequestFrame queues fn for the next frame.
func (l *Loop) RequestFrame(fn func()) Handle {
	l.mu.Lock()
	l.nextID++
	id := l.nextID
	l.frames = append(l.frames, frame{id: id, fn: fn})
	l.mu.Unlock()
	l.signal()
	return id
}

// CancelFrame removes a frame callback that has not run yet. It reports
// whether the callback was still pending.
func (l *Loop) CancelFrame(h Handle) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, f := range l.frames {
		if f.id == h {
			l.frames = append(l.frames[:i:i], l.frames[i+1:]...)
			return true
		}
	}
	if pending, ok := l.running[h]; ok && pending {
		l.running[h] = false
		return true
	}
	return false
}

// Pending returns the number of queued tasks and frame callbacks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks) + len(l.frames)
}

// Frame returns the number of frames flushed so far.
func (l *Loop) Frame() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frameNo
}

// Flush runs every posted task, then every frame callback that was queued
// before the flush began. It returns the number of callbacks run.
func (l *Loop) Flush() int {
	l.mu.Lock()
	tasks := l.tasks
	l.tasks = nil
	l.mu.Unlock()

	n := 0
	for _, fn := range tasks {
		fn()
		n++
	}

	l.mu.Lock()
	frames := l.frames
	l.frames = nil
	l.frameNo++
	l.running = make(map[Handle]bool, len(frames))
	for _, f := range frames {
		l.running[f.id] = true
	}
	l.mu.Unlock()

	for _, f := range frames {
		l.mu.Lock()
		live := l.running[f.id]
		delete(l.running, f.id)
		l.mu.Unlock()
		// Cancelled by an earlier callback in this frame.
		if !live || f.fn == nil {
			continue
		}
		f.fn()
		n++
	}

	l.mu.Lock()
	l.running = nil
	l.mu.Unlock()
	return n
}

// Drain flushes until nothing is pending or max frames have run. It returns
// the number of frames flushed.
func (l *Loop) Drain(max int) int {
	frames := 0
	for frames < max && l.Pending() > 0 {
		l.Flush()
		frames++
	}
	return frames
}

// Run flushes on every tick and whenever work is posted until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.Flush()
		case <-l.wake:
			l.flushTasks()
		}
	}
}

// flushTasks runs posted tasks without advancing the frame.
func (l *Loop) flushTasks() {
	l.mu.Lock()
	tasks := l.tasks
	l.tasks = nil
	l.mu.Unlock()
	for _, fn := range tasks {
		fn()
	}
}

// Call runs fn on the loop and waits for it to finish. It must not be called
// from the loop goroutine.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

package scheduler

import (
	"github.com/vango-dev/weft/internal/errors"
)

// DefaultMaxDepth is the number of chained reloads allowed before Enter
// fails with ReloadDepthExceeded.
const DefaultMaxDepth = 10

// Frames is the part of Loop a Scheduler needs.
type Frames interface {
	RequestFrame(fn func()) Handle
	CancelFrame(h Handle) bool
}

// Scheduler coalesces reload requests for one component and guards chains
// of reloads against unbounded depth. It is not safe for concurrent use; it
// belongs to the loop goroutine.
type Scheduler struct {
	frames Frames
	max    int

	depth   int
	active  int
	chained bool

	pending bool
	handle  Handle

	onRequest func(scheduled bool)
	onExceed  func(depth int)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithMaxDepth sets the depth limit. Values below 1 are ignored.
func WithMaxDepth(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.max = n
		}
	}
}

// WithRequestHook registers fn to observe Request outcomes.
func WithRequestHook(fn func(scheduled bool)) Option {
	return func(s *Scheduler) { s.onRequest = fn }
}

// WithExceedHook registers fn to run when Enter trips the depth guard.
func WithExceedHook(fn func(depth int)) Option {
	return func(s *Scheduler) { s.onExceed = fn }
}

// New creates a Scheduler that defers work onto frames.
func New(frames Frames, opts ...Option) *Scheduler {
	s := &Scheduler{frames: frames, max: DefaultMaxDepth}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request schedules fn for the next frame unless a request is already
// pending. It reports whether a new frame was scheduled.
func (s *Scheduler) Request(fn func()) bool {
	if s.pending {
		if s.onRequest != nil {
			s.onRequest(false)
		}
		return false
	}
	s.pending = true
	if s.active > 0 {
		s.chained = true
	}
	s.handle = s.frames.RequestFrame(func() {
		s.pending = false
		s.handle = 0
		fn()
	})
	if s.onRequest != nil {
		s.onRequest(true)
	}
	return true
}

// Cancel drops the pending request, if any.
func (s *Scheduler) Cancel() bool {
	if !s.pending {
		return false
	}
	s.frames.CancelFrame(s.handle)
	s.pending = false
	s.handle = 0
	s.chained = false
	return true
}

// Pending reports whether a request is waiting for its frame.
func (s *Scheduler) Pending() bool { return s.pending }

// Enter opens a reload. Past the depth limit it resets the guard and
// returns ReloadDepthExceeded; Leave must not be called in that case.
func (s *Scheduler) Enter() error {
	s.depth++
	if s.depth > s.max {
		depth := s.depth
		s.Reset()
		if s.onExceed != nil {
			s.onExceed(depth)
		}
		return errors.New(errors.CodeReloadDepthExceeded).
			WithDetailf("reload depth %d exceeds limit %d", depth, s.max).
			WithField("depth", depth)
	}
	s.active++
	return nil
}

// Leave closes a reload opened by Enter. A failed reload resets the guard.
// A successful outermost reload resets it too, unless it requested a
// follow-up reload while running.
func (s *Scheduler) Leave(ok bool) {
	if s.active > 0 {
		s.active--
	}
	if !ok {
		s.depth = 0
		s.chained = false
		return
	}
	if s.active > 0 {
		return
	}
	if s.chained && s.pending {
		s.chained = false
		return
	}
	s.chained = false
	s.depth = 0
}

// Depth returns the current reload depth.
func (s *Scheduler) Depth() int { return s.depth }

// MaxDepth returns the depth limit.
func (s *Scheduler) MaxDepth() int { return s.max }

// Active reports whether a reload is in progress.
func (s *Scheduler) Active() bool { return s.active > 0 }

// Reset clears the depth guard. Pending requests are left alone.
func (s *Scheduler) Reset() {
	s.depth = 0
	s.active = 0
	s.chained = false
}

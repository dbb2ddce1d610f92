// Package lifecycle provides ordered hook lists per lifecycle phase.
//
// Phases form a closed enumeration. Two guards apply:
//
//   - Init, Mount, Mounted and Ready run late subscribers immediately once
//     the phase has passed, so a handler registered after mount still runs.
//   - Init, Mount, Destroy and Ready fire at most once; emitting them again
//     is a no-op.
//
// Emitting Mounted also emits Ready, emitting Destroy runs the cleanup
// function the Hooks were created with, and emitting Error with no handler
// returns the error to the caller instead of swallowing it.
package lifecycle

import (
	"fmt"
	"strconv"
)

// Event is passed to every handler.
type Event struct {
	Phase Phase
	Args  []any
}

// Err returns the first error argument, if any.
func (e Event) Err() error {
	for _, a := range e.Args {
		if err, ok := a.(error); ok {
			return err
		}
	}
	return nil
}

// Handler is a lifecycle callback. A returned error stops the emit and is
// returned to the emitter unmodified.
type Handler func(e Event) error

// Subscription identifies a registered handler.
type Subscription uint64

// State holds the monotonic lifecycle flags. Each flips false to true once.
type State struct {
	Initialized bool
	Rendered    bool
	Mounted     bool
	Ready       bool
	Destroyed   bool
}

type entry struct {
	id   Subscription
	fn   Handler
	once bool
}

// Hooks is an ordered hook registry. It is not safe for concurrent use.
type Hooks struct {
	handlers [phaseCount + 1][]entry
	state    State
	nextID   Subscription
	cleanup  func()
}

// New creates a hook registry. cleanup, if non-nil, runs when Destroy is
// emitted for the first time.
func New(cleanup func()) *Hooks {
	return &Hooks{cleanup: cleanup}
}

// State returns the lifecycle flags.
func (h *Hooks) State() State {
	return h.state
}

// On registers fn for phase. For run-if-passed phases that already fired, fn
// runs immediately instead and its error is returned.
func (h *Hooks) On(phase Phase, fn Handler) (Subscription, error) {
	return h.register(phase, fn, false)
}

// Once registers fn to run at most one time.
func (h *Hooks) Once(phase Phase, fn Handler) (Subscription, error) {
	return h.register(phase, fn, true)
}

// OnName is On with the phase given by name.
func (h *Hooks) OnName(name string, fn Handler) (Subscription, error) {
	p, err := ParsePhase(name)
	if err != nil {
		return 0, err
	}
	return h.On(p, fn)
}

func (h *Hooks) register(phase Phase, fn Handler, once bool) (Subscription, error) {
	if !phase.Valid() {
		return 0, unknownPhase(strconv.Itoa(int(phase)))
	}
	if fn == nil {
		return 0, fmt.Errorf("lifecycle: nil handler for %s", phase)
	}
	if phase.runIfPassed() && h.passed(phase) {
		return 0, fn(Event{Phase: phase})
	}
	h.nextID++
	h.handlers[phase] = append(h.handlers[phase], entry{id: h.nextID, fn: fn, once: once})
	return h.nextID, nil
}

// Off removes a handler. It reports whether the handler was registered.
func (h *Hooks) Off(phase Phase, sub Subscription) bool {
	if !phase.Valid() {
		return false
	}
	list := h.handlers[phase]
	for i, e := range list {
		if e.id == sub {
			h.handlers[phase] = append(list[:i:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// Clear removes every handler registered for phase.
func (h *Hooks) Clear(phase Phase) {
	if phase.Valid() {
		h.handlers[phase] = nil
	}
}

// Count returns the number of handlers registered for phase.
func (h *Hooks) Count(phase Phase) int {
	if !phase.Valid() {
		return 0
	}
	return len(h.handlers[phase])
}

// Emit runs phase's handlers in registration order.
func (h *Hooks) Emit(phase Phase, args ...any) error {
	if !phase.Valid() {
		return unknownPhase(strconv.Itoa(int(phase)))
	}
	if phase.once() && h.passed(phase) {
		return nil
	}

	ev := Event{Phase: phase, Args: args}
	list := append([]entry(nil), h.handlers[phase]...)

	// Destroy releases resources even when a handler fails.
	if phase == Destroy {
		defer h.destroyed()
	}

	if phase == Error && len(list) == 0 {
		if err := ev.Err(); err != nil {
			return err
		}
		return fmt.Errorf("lifecycle: unknown error")
	}

	for _, e := range list {
		if e.once {
			h.Off(phase, e.id)
		}
		if err := e.fn(ev); err != nil {
			return err
		}
	}

	switch phase {
	case Init:
		h.state.Initialized = true
	case Mount:
		h.state.Mounted = true
	case Render:
		h.state.Rendered = true
	case Ready:
		h.state.Ready = true
	case Mounted:
		return h.Emit(Ready)
	}
	return nil
}

func (h *Hooks) destroyed() {
	h.state.Destroyed = true
	if h.cleanup != nil {
		h.cleanup()
	}
}

// EmitName is Emit with the phase given by name.
func (h *Hooks) EmitName(name string, args ...any) error {
	p, err := ParsePhase(name)
	if err != nil {
		return err
	}
	return h.Emit(p, args...)
}

func (h *Hooks) passed(p Phase) bool {
	switch p {
	case Init:
		return h.state.Initialized
	case Mount, Mounted:
		return h.state.Mounted
	case Ready:
		return h.state.Ready
	case Destroy:
		return h.state.Destroyed
	}
	return false
}

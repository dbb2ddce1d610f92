// Package bus is a synchronous named-event bus. Components publish DOM
// mutations, interaction-state snapshots and compile steps on it; tools such
// as the devtools inspector subscribe.
package bus

import "sync"

// Wildcard subscribes to every event.
const Wildcard = "*"

// Event names published by the framework.
const (
	DOMText            = "dom.text"
	DOMAttributeSet    = "dom.attribute.set"
	DOMAttributeRemove = "dom.attribute.remove"
	DOMChildAdd        = "dom.child.add"
	DOMChildRemove     = "dom.child.remove"
	DOMChildMove       = "dom.child.move"
	DOMReplace         = "dom.replace"

	DOMStatePreserve = "dom.state.preserve"
	DOMStateRestore  = "dom.state.restore"

	CompileBefore = "render.compile.before"
	CompileAfter  = "render.compile.after"
	CompileNode   = "render.compile.node"

	ComponentMount   = "component.mount"
	ComponentUnmount = "component.unmount"
	ComponentUpdate  = "component.update"
	ComponentDestroy = "component.destroy"
	ComponentError   = "component.error"
)

// Event is a published event.
type Event struct {
	Name string
	Args []any
}

// Arg returns the i-th argument or nil.
func (e Event) Arg(i int) any {
	if i < 0 || i >= len(e.Args) {
		return nil
	}
	return e.Args[i]
}

// Handler receives events.
type Handler func(Event)

type subscriber struct {
	id uint64
	fn Handler
}

// Bus dispatches events to handlers in registration order. It is safe for
// concurrent use; handlers run on the emitting goroutine.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]subscriber
	nextID uint64
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[string][]subscriber)}
}

// On registers fn for name and returns a function that removes it. The
// returned function may be called more than once.
func (b *Bus) On(name string, fn Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[name] = append(b.subs[name], subscriber{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.off(name, id) })
	}
}

func (b *Bus) off(name string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[name]
	for i, s := range subs {
		if s.id == id {
			b.subs[name] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[name]) == 0 {
		delete(b.subs, name)
	}
}

// Emit delivers an event to the handlers registered for name, then to the
// wildcard handlers.
func (b *Bus) Emit(name string, args ...any) {
	b.mu.RLock()
	direct := b.subs[name]
	var wild []subscriber
	if name != Wildcard {
		wild = b.subs[Wildcard]
	}
	b.mu.RUnlock()

	if len(direct) == 0 && len(wild) == 0 {
		return
	}
	ev := Event{Name: name, Args: args}
	for _, s := range direct {
		s.fn(ev)
	}
	for _, s := range wild {
		s.fn(ev)
	}
}

// Has reports whether any handler would receive name.
func (b *Bus) Has(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[name]) > 0 || len(b.subs[Wildcard]) > 0
}

// Count returns the number of handlers registered for name.
func (b *Bus) Count(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[name])
}

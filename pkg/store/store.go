// Package store defines the external data stores a component can connect to.
package store

import "sync"

// Store is an external data source. Subscribe returns a function that ends
// the subscription; calling it more than once is allowed.
type Store interface {
	GetData() any
	Subscribe(fn func(data any)) (unsubscribe func())
}

// Memory is an in-memory Store. It is safe for concurrent use; listeners
// run on the goroutine that calls Set.
type Memory struct {
	mu        sync.RWMutex
	data      any
	listeners map[uint64]func(any)
	order     []uint64
	nextID    uint64
}

// NewMemory creates a Memory holding initial.
func NewMemory(initial any) *Memory {
	return &Memory{data: initial, listeners: make(map[uint64]func(any))}
}

// GetData returns the current data.
func (m *Memory) GetData() any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data
}

// Set replaces the data and notifies subscribers in subscription order.
func (m *Memory) Set(data any) {
	m.Update(func(any) any { return data })
}

// Update applies fn to the current data and stores the result. fn runs
// under the store's lock, so concurrent updates are not lost; it must not
// call back into the store.
func (m *Memory) Update(fn func(any) any) {
	m.mu.Lock()
	data := fn(m.data)
	m.data = data
	fns := make([]func(any), 0, len(m.order))
	for _, id := range m.order {
		fns = append(fns, m.listeners[id])
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(data)
	}
}

// Subscribe registers fn for future updates.
func (m *Memory) Subscribe(fn func(any)) func() {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.listeners[id] = fn
	m.order = append(m.order, id)
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.listeners[id]; !ok {
			return
		}
		delete(m.listeners, id)
		for i, o := range m.order {
			if o == id {
				m.order = append(m.order[:i:i], m.order[i+1:]...)
				break
			}
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (m *Memory) Subscribers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.listeners)
}

var _ Store = (*Memory)(nil)

package store

import (
	"runtime"
	"sync"
	"testing"
)

func TestMemorySetNotifies(t *testing.T) {
	m := NewMemory(1)
	var got []any
	m.Subscribe(func(d any) { got = append(got, d) })

	m.Set(2)
	m.Update(func(d any) any { return d.(int) + 1 })

	if m.GetData() != 3 {
		t.Errorf("GetData() = %v, want 3", m.GetData())
	}
	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Errorf("notifications = %v, want [2 3]", got)
	}
}

func TestMemoryUnsubscribeIdempotent(t *testing.T) {
	m := NewMemory(nil)
	calls := 0
	unsub := m.Subscribe(func(any) { calls++ })
	other := m.Subscribe(func(any) {})

	unsub()
	unsub()
	m.Set("x")

	if calls != 0 {
		t.Errorf("calls = %d after unsubscribe", calls)
	}
	if m.Subscribers() != 1 {
		t.Errorf("Subscribers() = %d, want 1", m.Subscribers())
	}
	other()
	if m.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d, want 0", m.Subscribers())
	}
}

func TestMemoryConcurrentSet(t *testing.T) {
	m := NewMemory(0)
	var mu sync.Mutex
	seen := 0
	m.Subscribe(func(any) {
		mu.Lock()
		seen++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Set(i)
		}(i)
	}
	wg.Wait()
	if seen != 20 {
		t.Errorf("seen = %d, want 20", seen)
	}
}

func TestMemoryConcurrentUpdate(t *testing.T) {
	const workers, updates = 50, 200
	m := NewMemory(0)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < updates; j++ {
				m.Update(func(v any) any {
					runtime.Gosched()
					return v.(int) + 1
				})
			}
		}()
	}
	wg.Wait()

	if got := m.GetData(); got != workers*updates {
		t.Errorf("GetData() = %v, want %d", got, workers*updates)
	}
}

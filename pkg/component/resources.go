package component

import (
	"sync"
	"time"

	"github.com/vango-dev/weft/pkg/lifecycle"
	"github.com/vango-dev/weft/pkg/store"
)

// Timer identifies a timeout or interval started by a context.
type Timer uint64

type timer struct {
	stop func()
}

// SetTimeout runs fn on the loop once after d. The timer is released when
// it fires, when it is cleared, or on destroy.
func (c *Context) SetTimeout(d time.Duration, fn func(*Context)) Timer {
	if c.Destroyed() {
		return 0
	}
	c.nextTimer++
	id := c.nextTimer
	t := time.AfterFunc(d, func() {
		c.loop.Post(func() {
			if _, ok := c.timers[id]; !ok {
				return
			}
			delete(c.timers, id)
			fn(c)
		})
	})
	c.timers[id] = &timer{stop: func() { t.Stop() }}
	return id
}

// SetInterval runs fn on the loop every d until cleared or destroyed.
func (c *Context) SetInterval(d time.Duration, fn func(*Context)) Timer {
	if c.Destroyed() {
		return 0
	}
	if d <= 0 {
		d = time.Millisecond
	}
	c.nextTimer++
	id := c.nextTimer

	ticker := time.NewTicker(d)
	done := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.loop.Post(func() {
					if _, ok := c.timers[id]; ok {
						fn(c)
					}
				})
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	c.timers[id] = &timer{stop: func() { once.Do(func() { close(done) }) }}
	return id
}

// ClearTimer stops a timer. It reports whether the timer was active.
func (c *Context) ClearTimer(id Timer) bool {
	t, ok := c.timers[id]
	if !ok {
		return false
	}
	t.stop()
	delete(c.timers, id)
	return true
}

// ActiveTimers returns the number of timers not yet fired or cleared.
func (c *Context) ActiveTimers() int {
	return len(c.timers)
}

// Disconnector is an observer released on destroy, such as a visibility or
// resize watcher feeding NotifyVisible and NotifyResize.
type Disconnector interface {
	Disconnect()
}

// DisconnectFunc adapts a function to Disconnector.
type DisconnectFunc func()

// Disconnect calls f.
func (f DisconnectFunc) Disconnect() { f() }

// Observe tracks d so it is disconnected on destroy.
func (c *Context) Observe(d Disconnector) {
	if d == nil {
		return
	}
	if c.Destroyed() {
		d.Disconnect()
		return
	}
	c.watchers = append(c.watchers, d)
}

// Observers returns the number of tracked observers.
func (c *Context) Observers() int {
	return len(c.watchers)
}

// NotifyVisible emits the visible phase.
func (c *Context) NotifyVisible(args ...any) error {
	return c.hooks.Emit(lifecycle.Visible, args...)
}

// NotifyResize emits the resize phase.
func (c *Context) NotifyResize(args ...any) error {
	return c.hooks.Emit(lifecycle.Resize, args...)
}

type connection struct {
	store store.Store
	unsub func()
	once  sync.Once
}

func (conn *connection) close() {
	conn.once.Do(conn.unsub)
}

// Connect subscribes to s under name. handler receives the current data
// immediately and every update after that; updates arrive on the loop and
// request a reload while the context is attached. An existing connection
// with the same name is replaced.
func (c *Context) Connect(name string, s store.Store, handler func(c *Context, data any)) error {
	if c.Destroyed() || s == nil {
		return nil
	}
	if _, ok := c.connections[name]; ok {
		if err := c.Disconnect(name); err != nil {
			return err
		}
	}

	apply := func(data any) {
		if handler != nil {
			handler(c, data)
		}
		if c.attached {
			c.RequestReload()
		}
	}
	apply(s.GetData())

	conn := &connection{store: s}
	conn.unsub = s.Subscribe(func(data any) {
		c.loop.Post(func() {
			if c.connections[name] != conn {
				return
			}
			apply(data)
		})
	})
	c.connections[name] = conn
	c.logger.Debug("store connected", "store", name)
	return c.hooks.Emit(lifecycle.Connect, name, s)
}

// Disconnect ends the named connection. Disconnecting an unknown name does
// nothing.
func (c *Context) Disconnect(name string) error {
	conn, ok := c.connections[name]
	if !ok {
		return nil
	}
	delete(c.connections, name)
	conn.close()
	c.logger.Debug("store disconnected", "store", name)
	return c.hooks.Emit(lifecycle.Disconnect, name)
}

// Connections returns the number of active store connections.
func (c *Context) Connections() int {
	return len(c.connections)
}

package component

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/vango-dev/weft/pkg/bus"
	"github.com/vango-dev/weft/pkg/lifecycle"
	"github.com/vango-dev/weft/pkg/state"
	"github.com/vango-dev/weft/pkg/store"
)

func waitPending(t *testing.T, f *fixture) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for f.loop.Pending() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for posted work")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestChildReloadForwardsToRoot(t *testing.T) {
	var child *Context
	f := newFixture(t, nil, func(c *Context) (string, error) {
		inner, err := c.Include(child)
		if err != nil {
			return "", err
		}
		return "<section>" + inner + "</section>", nil
	})
	child = f.c.Child("label", func(c *Context) (string, error) {
		return fmt.Sprintf(`<span ref="text">%v</span>`, c.Get("label")), nil
	})
	child.Define(state.Schema{"label": {Type: state.TypeString, Default: "one"}})
	f.mount(t)

	if !child.Attached() || !child.Lifecycle().Ready {
		t.Fatal("child not mounted with parent")
	}
	span := child.Ref("text")
	if span == nil || span.TextContent() != "one" {
		t.Fatalf("child Ref(text) = %v", span)
	}
	if child.Element() == nil || !f.c.Element().Contains(child.Element()) {
		t.Fatal("child element not inside parent tree")
	}

	_ = child.Set("label", "two")
	if child.ReloadPending() {
		t.Error("child scheduled its own reload")
	}
	if !f.c.ReloadPending() {
		t.Fatal("root reload not scheduled")
	}
	f.loop.Flush()

	if f.c.Reloads() != 1 {
		t.Errorf("root Reloads() = %d, want 1", f.c.Reloads())
	}
	if child.Ref("text") != span {
		t.Error("child span replaced instead of patched")
	}
	if got := span.TextContent(); got != "two" {
		t.Errorf("child text = %q, want two", got)
	}
	if child.Root() != f.c || child.Parent() != f.c {
		t.Error("child Root()/Parent() wrong")
	}
}

func TestChildReloadDelegates(t *testing.T) {
	var child *Context
	f := newFixture(t, nil, func(c *Context) (string, error) {
		return c.Include(child)
	})
	child = f.c.Child("leaf", func(*Context) (string, error) { return "<i></i>", nil })
	f.mount(t)

	if err := child.Reload(); err != nil {
		t.Fatalf("child Reload() error = %v", err)
	}
	if f.c.Reloads() != 1 {
		t.Errorf("root Reloads() = %d, want 1", f.c.Reloads())
	}
	if child.ReloadDepth() != 0 {
		t.Errorf("child ReloadDepth() = %d, want 0", child.ReloadDepth())
	}
}

func TestChildDetachedWhenDropped(t *testing.T) {
	var child *Context
	f := newFixture(t, state.Schema{"show": {Type: state.TypeBoolean, Default: true}},
		func(c *Context) (string, error) {
			if c.Get("show") != true {
				return "<p>empty</p>", nil
			}
			return c.Include(child)
		})
	child = f.c.Child("leaf", func(*Context) (string, error) { return "<i></i>", nil })
	unmounted := 0
	_, _ = child.On(lifecycle.Unmount, func(lifecycle.Event) error {
		unmounted++
		return nil
	})
	f.mount(t)

	_ = f.c.Set("show", false)
	f.loop.Flush()
	if child.Attached() || child.Element() != nil || unmounted != 1 {
		t.Errorf("child attached = %v, element = %v, unmounts = %d",
			child.Attached(), child.Element(), unmounted)
	}

	_ = f.c.Set("show", true)
	f.loop.Flush()
	if !child.Attached() || child.Element() == nil {
		t.Error("child not re-attached when included again")
	}
}

func TestChildDestroyedWithParent(t *testing.T) {
	var child *Context
	f := newFixture(t, nil, func(c *Context) (string, error) { return c.Include(child) })
	child = f.c.Child("leaf", func(*Context) (string, error) { return "<i></i>", nil })
	f.mount(t)

	if err := child.Mount(f.target); err == nil {
		t.Error("child Mount() should fail")
	}
	if err := f.c.Destroy(); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
	if !child.Destroyed() || child.Attached() {
		t.Error("child not destroyed with parent")
	}
}

func TestIncludeRejectsForeignContext(t *testing.T) {
	other := New("other", nil, WithLogger(quiet))
	f := newFixture(t, nil, func(c *Context) (string, error) { return c.Include(other) })
	if err := f.c.Render(); err == nil {
		t.Error("Render() including a foreign context should fail")
	}
}

func TestConnectStore(t *testing.T) {
	s := store.NewMemory("first")
	f := newFixture(t, state.Schema{"v": {Type: state.TypeString}}, func(c *Context) (string, error) {
		return fmt.Sprintf("<p>%v</p>", c.Get("v")), nil
	})

	var events []string
	_, _ = f.c.On(lifecycle.Connect, func(e lifecycle.Event) error {
		events = append(events, fmt.Sprint("connect:", e.Args[0]))
		return nil
	})
	_, _ = f.c.On(lifecycle.Disconnect, func(e lifecycle.Event) error {
		events = append(events, fmt.Sprint("disconnect:", e.Args[0]))
		return nil
	})

	handler := func(c *Context, data any) { _ = c.Set("v", data) }
	if err := f.c.Connect("feed", s, handler); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	f.mount(t)
	if got := f.c.Element().TextContent(); got != "first" {
		t.Fatalf("text = %q, want first", got)
	}

	s.Set("second")
	f.loop.Flush()
	if got := f.c.Element().TextContent(); got != "second" {
		t.Errorf("text = %q, want second", got)
	}
	if f.c.Reloads() != 1 {
		t.Errorf("Reloads() = %d, want 1", f.c.Reloads())
	}

	if err := f.c.Disconnect("feed"); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}
	if err := f.c.Disconnect("feed"); err != nil {
		t.Fatalf("second Disconnect() error = %v", err)
	}
	if s.Subscribers() != 0 || f.c.Connections() != 0 {
		t.Errorf("subscribers = %d, connections = %d", s.Subscribers(), f.c.Connections())
	}
	s.Set("third")
	f.loop.Flush()
	if got := f.c.Element().TextContent(); got != "second" {
		t.Errorf("update delivered after disconnect: %q", got)
	}
	if fmt.Sprint(events) != "[connect:feed disconnect:feed]" {
		t.Errorf("events = %v", events)
	}
}

func TestDestroyReleasesResources(t *testing.T) {
	s := store.NewMemory(nil)
	f := newFixture(t, nil, func(*Context) (string, error) { return "<p></p>", nil })
	f.mount(t)

	_ = f.c.Connect("a", s, nil)
	_ = f.c.Connect("b", s, nil)
	f.c.SetTimeout(time.Hour, func(*Context) {})
	f.c.SetInterval(time.Hour, func(*Context) {})
	disconnects := 0
	f.c.Observe(DisconnectFunc(func() { disconnects++ }))
	f.c.Observe(DisconnectFunc(func() { disconnects++ }))

	if err := f.c.Destroy(); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
	if s.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d, want 0", s.Subscribers())
	}
	if f.c.ActiveTimers() != 0 || f.c.Connections() != 0 || disconnects != 2 {
		t.Errorf("timers = %d, connections = %d, disconnects = %d",
			f.c.ActiveTimers(), f.c.Connections(), disconnects)
	}

	late := 0
	f.c.Observe(DisconnectFunc(func() { late++ }))
	if late != 1 || f.c.Observers() != 0 {
		t.Error("observer added after destroy was not disconnected immediately")
	}
}

func TestDestroyReleasesResourcesWhenHooksFail(t *testing.T) {
	hookErr := errors.New("hook failed")
	s := store.NewMemory(nil)
	f := newFixture(t, nil, func(*Context) (string, error) { return "<p></p>", nil })
	f.mount(t)

	_ = f.c.Connect("data", s, nil)
	f.c.SetInterval(time.Hour, func(*Context) {})
	disconnects := 0
	f.c.Observe(DisconnectFunc(func() { disconnects++ }))

	_, _ = f.c.On(lifecycle.BeforeUnmount, func(lifecycle.Event) error { return hookErr })
	_, _ = f.c.On(lifecycle.Destroy, func(lifecycle.Event) error { return hookErr })

	if err := f.c.Destroy(); err != hookErr {
		t.Fatalf("Destroy() error = %v, want %v", err, hookErr)
	}
	if !f.c.Destroyed() {
		t.Error("context not destroyed")
	}
	if f.c.Attached() || len(f.target.Children) != 0 {
		t.Error("live tree still attached to the host")
	}
	if f.c.ActiveTimers() != 0 || disconnects != 1 || s.Subscribers() != 0 {
		t.Errorf("timers = %d, disconnects = %d, subscribers = %d",
			f.c.ActiveTimers(), disconnects, s.Subscribers())
	}
	if err := f.c.Destroy(); err != nil {
		t.Errorf("second Destroy() error = %v", err)
	}
}

func TestSetTimeout(t *testing.T) {
	f := newFixture(t, nil, func(*Context) (string, error) { return "", nil })
	fired := 0
	f.c.SetTimeout(time.Millisecond, func(*Context) { fired++ })
	if f.c.ActiveTimers() != 1 {
		t.Fatalf("ActiveTimers() = %d, want 1", f.c.ActiveTimers())
	}

	waitPending(t, f)
	f.loop.Flush()
	if fired != 1 || f.c.ActiveTimers() != 0 {
		t.Errorf("fired = %d, ActiveTimers() = %d", fired, f.c.ActiveTimers())
	}
}

func TestSetIntervalAndClear(t *testing.T) {
	f := newFixture(t, nil, func(*Context) (string, error) { return "", nil })
	ticks := 0
	id := f.c.SetInterval(time.Millisecond, func(*Context) { ticks++ })

	for ticks < 2 {
		waitPending(t, f)
		f.loop.Flush()
	}
	if !f.c.ClearTimer(id) {
		t.Fatal("ClearTimer() = false for active interval")
	}
	if f.c.ClearTimer(id) {
		t.Error("second ClearTimer() = true")
	}
	before := ticks
	time.Sleep(5 * time.Millisecond)
	f.loop.Flush()
	if ticks != before {
		t.Errorf("interval ticked after ClearTimer: %d -> %d", before, ticks)
	}
}

func TestNotifyPhases(t *testing.T) {
	f := newFixture(t, nil, func(*Context) (string, error) { return "", nil })
	var got []string
	for _, p := range []lifecycle.Phase{lifecycle.Visible, lifecycle.Resize} {
		p := p
		_, _ = f.c.On(p, func(e lifecycle.Event) error {
			got = append(got, fmt.Sprint(p, e.Args))
			return nil
		})
	}
	_ = f.c.NotifyVisible(true)
	_ = f.c.NotifyResize(640, 480)
	if fmt.Sprint(got) != "[visible [true] resize [640 480]]" {
		t.Errorf("got %v", got)
	}
}

func TestBusEvents(t *testing.T) {
	b := bus.New()
	var names []string
	b.On(bus.Wildcard, func(e bus.Event) { names = append(names, e.Name) })

	f := newFixture(t, state.Schema{"count": {Type: state.TypeNumber}}, counter, WithBus(b))
	f.mount(t)
	names = nil

	_ = f.c.Set("count", 2)
	f.loop.Flush()

	want := map[string]bool{
		bus.DOMStatePreserve: true,
		bus.CompileBefore:    true,
		bus.CompileNode:      true,
		bus.CompileAfter:     true,
		bus.DOMText:          true,
		bus.DOMStateRestore:  true,
		bus.ComponentUpdate:  true,
	}
	seen := make(map[string]bool)
	for _, n := range names {
		seen[n] = true
	}
	for n := range want {
		if !seen[n] {
			t.Errorf("event %s not published; got %v", n, names)
		}
	}
}

func TestSlots(t *testing.T) {
	c := New("s", nil, WithLogger(quiet), WithSlots(map[string]string{"default": "<b>hi</b>", "footer": "f"}))
	if got := c.Slot("", ""); got != "<b>hi</b>" {
		t.Errorf("Slot(default) = %q", got)
	}
	if got := c.Slot("footer", "x"); got != "f" {
		t.Errorf("Slot(footer) = %q", got)
	}
	if got := c.Slot("missing", "fallback"); got != "fallback" {
		t.Errorf("Slot(missing) = %q", got)
	}
}

func TestClassesAndStyles(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"strings", Classes("a", "", "b  c"), "a b c"},
		{"slice", Classes([]string{"x", "", "y"}), "x y"},
		{"bool map", Classes(map[string]bool{"on": true, "off": false, "also": true}), "also on"},
		{"any map", Classes(map[string]any{"n": 1, "z": 0, "s": "", "t": "yes"}), "n t"},
		{"nil", Classes(nil, "k"), "k"},
		{"styles", Styles(map[string]any{"backgroundColor": "red", "width": "10px", "gone": nil}), "background-color: red; width: 10px"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestScopeStable(t *testing.T) {
	if Scope("a") != Scope("a") || Scope("a") == Scope("b") {
		t.Error("Scope() is not a stable per-name hash")
	}
	if s := Scope("a"); len(s) != 9 || s[0] != 'r' {
		t.Errorf("Scope(a) = %q", s)
	}
}

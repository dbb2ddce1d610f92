package devtools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/weft/pkg/bus"
	"github.com/vango-dev/weft/pkg/component"
	"github.com/vango-dev/weft/pkg/host"
	"github.com/vango-dev/weft/pkg/scheduler"
	"github.com/vango-dev/weft/pkg/state"
	"github.com/vango-dev/weft/pkg/telemetry"
	"github.com/vango-dev/weft/pkg/tree"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func counter(c *component.Context) (string, error) {
	return fmt.Sprintf(`<p key="label">count=%v</p>`, c.Get("count")), nil
}

func newCounter(t *testing.T, loop *scheduler.Loop, opts ...component.Option) *component.Context {
	t.Helper()
	base := []component.Option{
		component.WithLoop(loop),
		component.WithHost(host.NewMemory()),
		component.WithLogger(quiet),
	}
	c := component.New("counter", counter, append(base, opts...)...)
	c.Define(state.Schema{"count": {Type: state.TypeNumber}})
	return c
}

func mount(c *component.Context) error {
	if err := c.Render(); err != nil {
		return err
	}
	return c.Mount(tree.El("body", nil))
}

// mountOnLoop mounts c from the running loop's goroutine.
func mountOnLoop(t *testing.T, c *component.Context) {
	t.Helper()
	var err error
	if callErr := c.Loop().Call(context.Background(), func() { err = mount(c) }); callErr != nil {
		t.Fatal(callErr)
	}
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
}

// runLoop runs loop until the test ends.
func runLoop(t *testing.T, loop *scheduler.Loop) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		loop.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func names(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}

func TestInspectorRecordsEvents(t *testing.T) {
	loop := scheduler.NewLoop()
	c := newCounter(t, loop)

	insp := New(WithLogger(quiet))
	insp.Register(c)
	defer insp.Close()

	if err := mount(c); err != nil {
		t.Fatalf("mount: %v", err)
	}
	if err := c.Set("count", 1); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	loop.Flush()

	events := insp.Events()
	got := strings.Join(names(events), ",")
	for _, want := range []string{bus.ComponentMount, bus.DOMText, bus.ComponentUpdate} {
		if !strings.Contains(got, want) {
			t.Errorf("events %s missing %s", got, want)
		}
	}
	if strings.Contains(got, bus.CompileNode) {
		t.Errorf("compile.node should be filtered: %s", got)
	}

	for i, rec := range events {
		if rec.Seq != uint64(i+1) {
			t.Errorf("events[%d].Seq = %d, want %d", i, rec.Seq, i+1)
		}
		if rec.Name == bus.DOMText {
			if rec.Component != "counter" || rec.ComponentID != c.ID() {
				t.Errorf("text event component = %q/%q", rec.Component, rec.ComponentID)
			}
			if !strings.Contains(rec.Detail, `"count=0" -> "count=1"`) {
				t.Errorf("text event detail = %q", rec.Detail)
			}
		}
	}
}

func TestInspectorRingBuffer(t *testing.T) {
	loop := scheduler.NewLoop()
	c := newCounter(t, loop)

	insp := New(WithBufferSize(3), WithLogger(quiet))
	insp.Register(c, c)
	defer insp.Close()

	if n := c.Bus().Count(bus.Wildcard); n != 1 {
		t.Errorf("wildcard subscriptions = %d, want 1", n)
	}

	for i := 1; i <= 5; i++ {
		c.Bus().Emit(fmt.Sprintf("custom.%d", i), c, "payload")
	}

	events := insp.Events()
	if len(events) != 3 {
		t.Fatalf("len(Events()) = %d, want 3", len(events))
	}
	for i, want := range []string{"custom.3", "custom.4", "custom.5"} {
		if events[i].Name != want {
			t.Errorf("events[%d] = %s, want %s", i, events[i].Name, want)
		}
		if events[i].Detail != "payload" {
			t.Errorf("events[%d].Detail = %q", i, events[i].Detail)
		}
	}
	if events[2].Seq != 5 {
		t.Errorf("last Seq = %d, want 5", events[2].Seq)
	}

	insp.Close()
	if n := c.Bus().Count(bus.Wildcard); n != 0 {
		t.Errorf("wildcard subscriptions after Close = %d, want 0", n)
	}
}

func TestInspectorFilter(t *testing.T) {
	c := newCounter(t, scheduler.NewLoop())
	insp := New(WithLogger(quiet), WithFilter(func(ev bus.Event) bool {
		return strings.HasPrefix(ev.Name, "component.")
	}))
	insp.Register(c)
	defer insp.Close()

	if err := mount(c); err != nil {
		t.Fatalf("mount: %v", err)
	}

	for _, rec := range insp.Events() {
		if !strings.HasPrefix(rec.Name, "component.") {
			t.Errorf("unexpected event %s", rec.Name)
		}
	}
	if len(insp.Events()) == 0 {
		t.Error("no events recorded")
	}
}

func TestRoutes(t *testing.T) {
	loop := scheduler.NewLoop()
	registry := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(telemetry.WithRegistry(registry))
	c := newCounter(t, loop, component.WithMetrics(metrics))

	insp := New(WithGatherer(registry), WithLogger(quiet))
	insp.Register(c)
	defer insp.Close()

	runLoop(t, loop)
	ctx := context.Background()
	mountOnLoop(t, c)

	srv := httptest.NewServer(insp.Router())
	defer srv.Close()

	get := func(path string) (string, string) {
		t.Helper()
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s status = %d", path, resp.StatusCode)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatal(err)
		}
		return string(body), resp.Header.Get("Content-Type")
	}

	t.Run("tree", func(t *testing.T) {
		body, ctype := get("/tree")
		if !strings.HasPrefix(ctype, "text/html") {
			t.Errorf("Content-Type = %q", ctype)
		}
		if !strings.Contains(body, "count=0") {
			t.Errorf("body missing rendered tree: %s", body)
		}
		if !strings.Contains(body, `key="label"`) {
			t.Errorf("body missing key attribute: %s", body)
		}
	})

	t.Run("tree.json", func(t *testing.T) {
		body, _ := get("/tree.json")
		var out []ComponentJSON
		if err := json.Unmarshal([]byte(body), &out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(out) != 1 {
			t.Fatalf("components = %d, want 1", len(out))
		}
		got := out[0]
		if got.Name != "counter" || !got.Attached {
			t.Errorf("component = %+v", got)
		}
		if got.Tree == nil || got.Tree.Tag != "div" || len(got.Tree.Children) != 1 {
			t.Fatalf("tree = %+v", got.Tree)
		}
		p := got.Tree.Children[0]
		if p.Key != "label" || p.Children[0].Type != "text" || p.Children[0].Text != "count=0" {
			t.Errorf("paragraph = %+v", p)
		}
	})

	t.Run("events", func(t *testing.T) {
		body, _ := get("/events")
		var out []Record
		if err := json.Unmarshal([]byte(body), &out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !strings.Contains(strings.Join(names(out), ","), bus.ComponentMount) {
			t.Errorf("events = %v", names(out))
		}
	})

	t.Run("metrics", func(t *testing.T) {
		if err := loop.Call(ctx, func() { c.Set("count", 2) }); err != nil {
			t.Fatal(err)
		}
		waitFor(t, func() bool {
			var reloads int
			loop.Call(ctx, func() { reloads = c.Reloads() })
			return reloads == 1
		})
		body, _ := get("/metrics")
		if !strings.Contains(body, "weft_mutations_total") {
			t.Errorf("metrics missing mutation counter:\n%s", body)
		}
	})
}

func TestWebSocketStream(t *testing.T) {
	loop := scheduler.NewLoop()
	c := newCounter(t, loop)

	insp := New(WithLogger(quiet))
	insp.Register(c)
	defer insp.Close()

	runLoop(t, loop)
	ctx := context.Background()
	mountOnLoop(t, c)

	srv := httptest.NewServer(insp.Router())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	waitFor(t, func() bool { return insp.ClientCount() == 1 })

	if err := loop.Call(ctx, func() { c.Set("count", 7) }); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage() error = %v", err)
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			t.Fatalf("decode %s: %v", data, err)
		}
		if rec.Name == bus.DOMText {
			if !strings.Contains(rec.Detail, "count=7") {
				t.Errorf("detail = %q", rec.Detail)
			}
			break
		}
	}

	conn.Close()
	waitFor(t, func() bool { return insp.ClientCount() == 0 })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

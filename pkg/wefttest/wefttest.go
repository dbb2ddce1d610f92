package wefttest

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/vango-dev/weft/pkg/component"
	"github.com/vango-dev/weft/pkg/host"
	"github.com/vango-dev/weft/pkg/markup"
	"github.com/vango-dev/weft/pkg/reconcile"
	"github.com/vango-dev/weft/pkg/scheduler"
	"github.com/vango-dev/weft/pkg/state"
	"github.com/vango-dev/weft/pkg/tree"
)

// maxFrames bounds Flush.
const maxFrames = 64

// Builder allows fluent construction of component harnesses.
type Builder struct {
	name   string
	render component.RenderFunc
	schema state.Schema
	data   map[string]any
	attrs  map[string]string
	slots  map[string]string
	opts   []component.Option
}

// New creates a harness builder for render.
//
// Example:
//
//	h := wefttest.New(Counter).WithName("counter").Mount(t)
func New(render component.RenderFunc) *Builder {
	return &Builder{
		name:   "test",
		render: render,
		data:   make(map[string]any),
		attrs:  make(map[string]string),
		slots:  make(map[string]string),
	}
}

// WithName sets the component name.
func (b *Builder) WithName(name string) *Builder {
	b.name = name
	return b
}

// WithSchema defines state keys before the first render.
//
// Example:
//
//	h := wefttest.New(Counter).
//	    WithSchema(state.Schema{"count": {Type: state.TypeNumber}}).
//	    Mount(t)
func (b *Builder) WithSchema(schema state.Schema) *Builder {
	b.schema = schema
	return b
}

// WithData sets an immutable input.
func (b *Builder) WithData(key string, val any) *Builder {
	b.data[key] = val
	return b
}

// WithAttribute sets an attribute on the component's root element.
func (b *Builder) WithAttribute(key, value string) *Builder {
	b.attrs[key] = value
	return b
}

// WithSlot sets named slot content.
func (b *Builder) WithSlot(name, content string) *Builder {
	b.slots[name] = content
	return b
}

// WithOption appends a component option.
func (b *Builder) WithOption(opt component.Option) *Builder {
	b.opts = append(b.opts, opt)
	return b
}

// Build creates the harness without rendering.
func (b *Builder) Build() *Harness {
	h := &Harness{
		Loop:     scheduler.NewLoop(),
		Host:     host.NewMemory(),
		Recorder: &reconcile.Recorder{},
		Target:   tree.El("body", nil),
	}
	opts := append([]component.Option{
		component.WithLoop(h.Loop),
		component.WithHost(h.Host),
		component.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		component.WithObserver(h.Recorder),
		component.WithData(b.data),
		component.WithAttributes(b.attrs),
		component.WithSlots(b.slots),
	}, b.opts...)
	h.C = component.New(b.name, b.render, opts...)
	if b.schema != nil {
		h.C.Define(b.schema)
	}
	return h
}

// Mount builds the harness, renders and mounts the component. The component
// is destroyed when the test ends.
func (b *Builder) Mount(t testing.TB) *Harness {
	t.Helper()
	h := b.Build()
	if err := h.C.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if err := h.C.Mount(h.Target); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	t.Cleanup(func() { h.C.Destroy() })
	return h
}

// Harness is a mounted component with its loop and host.
type Harness struct {
	C        *component.Context
	Loop     *scheduler.Loop
	Host     *host.Memory
	Recorder *reconcile.Recorder
	Target   *tree.Node
}

// Flush runs frames until nothing is pending and returns how many ran.
func (h *Harness) Flush() int {
	return h.Loop.Drain(maxFrames)
}

// Set writes a state key and fails the test on error.
func (h *Harness) Set(t testing.TB, key string, value any) {
	t.Helper()
	if err := h.C.Set(key, value); err != nil {
		t.Fatalf("Set(%q) error = %v", key, err)
	}
}

// HTML renders the live tree.
func (h *Harness) HTML() string {
	root := h.C.Element()
	if root == nil {
		return ""
	}
	html, err := markup.Render(root, markup.Options{})
	if err != nil {
		return ""
	}
	return html
}

// ExpectContains asserts that the live tree's markup contains expected.
//
// Example:
//
//	wefttest.ExpectContains(t, h, "count=1")
func ExpectContains(t testing.TB, h *Harness, expected string) {
	t.Helper()
	html := h.HTML()
	if !strings.Contains(html, expected) {
		t.Errorf("expected rendered output to contain %q, got:\n%s", expected, truncate(html, 500))
	}
}

// ExpectNotContains asserts that the live tree's markup does not contain
// unexpected.
func ExpectNotContains(t testing.TB, h *Harness, unexpected string) {
	t.Helper()
	html := h.HTML()
	if strings.Contains(html, unexpected) {
		t.Errorf("expected rendered output to NOT contain %q, got:\n%s", unexpected, truncate(html, 500))
	}
}

// ExpectElement asserts that the live tree contains an element with tag.
//
// Example:
//
//	wefttest.ExpectElement(t, h, "button")
func ExpectElement(t testing.TB, h *Harness, tag string) {
	t.Helper()
	found := tree.Find(h.C.Element(), func(n *tree.Node) bool {
		return n.IsElement() && n.Tag == tag
	})
	if found == nil {
		t.Errorf("expected live tree to contain <%s> element, got:\n%s", tag, truncate(h.HTML(), 500))
	}
}

// ExpectAttribute asserts that some element carries attr=value.
//
// Example:
//
//	wefttest.ExpectAttribute(t, h, "class", "btn-primary")
func ExpectAttribute(t testing.TB, h *Harness, attr, value string) {
	t.Helper()
	found := tree.Find(h.C.Element(), func(n *tree.Node) bool {
		v, ok := n.Attr(attr)
		return ok && v == value
	})
	if found == nil {
		t.Errorf("expected attribute %s=%q not found, got:\n%s", attr, value, truncate(h.HTML(), 500))
	}
}

// ExpectMutations asserts how many mutations of op were recorded.
func ExpectMutations(t testing.TB, h *Harness, op reconcile.Op, want int) {
	t.Helper()
	if got := h.Recorder.Count(op); got != want {
		t.Errorf("%s mutations = %d, want %d", op, got, want)
	}
}

// truncate truncates a string to max length with ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

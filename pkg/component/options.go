package component

import (
	"log/slog"

	"github.com/vango-dev/weft/pkg/bus"
	"github.com/vango-dev/weft/pkg/markup"
	"github.com/vango-dev/weft/pkg/preserve"
	"github.com/vango-dev/weft/pkg/reconcile"
	"github.com/vango-dev/weft/pkg/scheduler"
	"github.com/vango-dev/weft/pkg/telemetry"
)

// DefaultRefAttribute marks elements recorded as named refs.
const DefaultRefAttribute = "ref"

// ChildAttribute identifies the wrapper element of an included child.
const ChildAttribute = "data-weft-child"

// Config holds the rendering settings shared by a context and its children.
type Config struct {
	// MaxReloadDepth bounds chains of reloads (default: 10).
	MaxReloadDepth int

	// WrapperTag is the tag of each component's root element (default: "div").
	WrapperTag string

	// KeyAttribute is lifted into tree keys at compile time (default: "key").
	KeyAttribute string

	// RefAttribute names refs at compile time (default: "ref").
	RefAttribute string

	// ScrollAttribute marks elements whose scroll offsets survive a reload
	// (default: "data-preserve-scroll").
	ScrollAttribute string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxReloadDepth:  scheduler.DefaultMaxDepth,
		WrapperTag:      markup.DefaultWrapperTag,
		KeyAttribute:    markup.DefaultKeyAttribute,
		RefAttribute:    DefaultRefAttribute,
		ScrollAttribute: preserve.DefaultScrollAttribute,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxReloadDepth <= 0 {
		c.MaxReloadDepth = d.MaxReloadDepth
	}
	if c.WrapperTag == "" {
		c.WrapperTag = d.WrapperTag
	}
	if c.KeyAttribute == "" {
		c.KeyAttribute = d.KeyAttribute
	}
	if c.RefAttribute == "" {
		c.RefAttribute = d.RefAttribute
	}
	if c.ScrollAttribute == "" {
		c.ScrollAttribute = d.ScrollAttribute
	}
	return c
}

// Option configures a Context.
type Option func(*Context)

// WithLoop sets the loop reloads, timers and store updates run on.
func WithLoop(l *scheduler.Loop) Option {
	return func(c *Context) {
		c.loop = l
	}
}

// WithHost sets the host the live tree is mounted into. A host that also
// implements preserve.Surface gets interaction state preserved across
// reloads.
func WithHost(h reconcile.Host) Option {
	return func(c *Context) {
		c.host = h
	}
}

// WithBus sets the event bus compile and mutation events are published on.
func WithBus(b *bus.Bus) Option {
	return func(c *Context) {
		c.bus = b
	}
}

// WithLogger sets the logger. The context adds a component attribute.
func WithLogger(l *slog.Logger) Option {
	return func(c *Context) {
		c.logger = l
	}
}

// WithConfig sets the rendering configuration.
func WithConfig(cfg Config) Option {
	return func(c *Context) {
		c.config = cfg
	}
}

// WithMetrics records reloads and mutations.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Context) {
		c.metrics = m
	}
}

// WithTracer traces reloads.
func WithTracer(t *telemetry.Tracer) Option {
	return func(c *Context) {
		c.tracer = t
	}
}

// WithObserver adds a mutation observer to the context's reconciler.
func WithObserver(o reconcile.Observer) Option {
	return func(c *Context) {
		c.observers = append(c.observers, o)
	}
}

// WithAttributes sets attributes applied to the wrapper element.
func WithAttributes(attrs map[string]string) Option {
	return func(c *Context) {
		for k, v := range attrs {
			c.attributes[k] = v
		}
	}
}

// WithData sets the data passed to the component.
func WithData(data map[string]any) Option {
	return func(c *Context) {
		for k, v := range data {
			c.data[k] = v
		}
	}
}

// WithSlots sets named markup slots.
func WithSlots(slots map[string]string) Option {
	return func(c *Context) {
		for k, v := range slots {
			c.slots[k] = v
		}
	}
}

package component

import (
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/vango-dev/weft/pkg/bus"
	"github.com/vango-dev/weft/pkg/host"
	"github.com/vango-dev/weft/pkg/lifecycle"
	"github.com/vango-dev/weft/pkg/preserve"
	"github.com/vango-dev/weft/pkg/reconcile"
	"github.com/vango-dev/weft/pkg/scheduler"
	"github.com/vango-dev/weft/pkg/state"
	"github.com/vango-dev/weft/pkg/telemetry"
	"github.com/vango-dev/weft/pkg/tree"
)

// RenderFunc produces a component's markup. It runs on every render pass;
// state read through the context during the call is tracked.
type RenderFunc func(c *Context) (string, error)

var contextIDs atomic.Uint64

// Context is a component's render context.
type Context struct {
	id     string
	name   string
	scope  string
	render RenderFunc

	config     Config
	loop       *scheduler.Loop
	host       reconcile.Host
	surface    preserve.Surface
	bus        *bus.Bus
	logger     *slog.Logger
	baseLogger *slog.Logger
	metrics    *telemetry.Metrics
	tracer     *telemetry.Tracer
	observers  []reconcile.Observer
	reconciler *reconcile.Reconciler
	preserver  *preserve.Preserver

	state *state.Store
	hooks *lifecycle.Hooks
	sched *scheduler.Scheduler

	parent   *Context
	children []*Context
	included map[*Context]bool

	attributes map[string]string
	data       map[string]any
	slots      map[string]string

	root     *tree.Node
	target   *tree.Node
	attached bool
	refPaths map[string][]int
	refs     map[string]*tree.Node
	nodes    map[string]*tree.Node
	html     string
	reloads  int

	timers      map[Timer]*timer
	nextTimer   Timer
	watchers    []Disconnector
	connections map[string]*connection
}

// New creates a context for the named component.
func New(name string, render RenderFunc, opts ...Option) *Context {
	c := &Context{
		id:          strconv.FormatUint(contextIDs.Add(1), 10),
		name:        name,
		scope:       Scope(name),
		render:      render,
		config:      DefaultConfig(),
		attributes:  make(map[string]string),
		data:        make(map[string]any),
		slots:       make(map[string]string),
		included:    make(map[*Context]bool),
		timers:      make(map[Timer]*timer),
		connections: make(map[string]*connection),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.init()
	return c
}

func (c *Context) init() {
	c.config = c.config.withDefaults()
	if c.loop == nil {
		c.loop = scheduler.NewLoop()
	}
	if c.host == nil {
		c.host = host.NewMemory()
	}
	if s, ok := c.host.(preserve.Surface); ok {
		c.surface = s
	}
	if c.bus == nil {
		c.bus = bus.New()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.baseLogger = c.logger
	c.logger = c.logger.With("component", c.name)

	observers := append([]reconcile.Observer{busObserver{c: c}}, c.observers...)
	if c.metrics != nil {
		observers = append(observers, c.metrics)
	}
	c.reconciler = reconcile.New(c.host, observers...)
	c.preserver = preserve.New(preserve.WithScrollAttribute(c.config.ScrollAttribute))

	c.state = state.New(state.WithLogger(c.logger))
	c.state.OnChange(c.changed)
	c.state.OnInvalidate(c.invalidated)
	c.hooks = lifecycle.New(c.cleanup)
	c.sched = scheduler.New(c.loop,
		scheduler.WithMaxDepth(c.config.MaxReloadDepth),
		scheduler.WithRequestHook(c.metrics.ObserveRequest),
		scheduler.WithExceedHook(func(int) { c.metrics.ObserveDepthExceeded() }),
	)
}

// Child creates a child context that shares this context's loop, host, bus
// and telemetry. The parent's render callback inlines it with Include.
func (c *Context) Child(name string, render RenderFunc, opts ...Option) *Context {
	base := []Option{
		WithLoop(c.loop),
		WithHost(c.host),
		WithBus(c.bus),
		WithLogger(c.baseLogger),
		WithConfig(c.config),
		WithMetrics(c.metrics),
		WithTracer(c.tracer),
	}
	child := New(name, render, append(base, opts...)...)
	child.parent = c
	c.children = append(c.children, child)
	return child
}

// Name returns the component name.
func (c *Context) Name() string { return c.name }

// ID returns the context's process-unique identifier.
func (c *Context) ID() string { return c.id }

// ScopeClass returns the class added to the wrapper element.
func (c *Context) ScopeClass() string { return c.scope }

// Data returns the data passed with WithData.
func (c *Context) Data() map[string]any { return c.data }

// Attributes returns the wrapper attributes passed with WithAttributes.
func (c *Context) Attributes() map[string]string { return c.attributes }

// Parent returns the parent context, or nil.
func (c *Context) Parent() *Context { return c.parent }

// Children returns the child contexts in creation order.
func (c *Context) Children() []*Context { return c.children }

// Root returns the root-most ancestor, or c itself.
func (c *Context) Root() *Context {
	root := c
	for root.parent != nil {
		root = root.parent
	}
	return root
}

// Element returns the live root element, or nil before the first render.
func (c *Context) Element() *tree.Node { return c.root }

// HTML returns the markup produced by the last render pass.
func (c *Context) HTML() string { return c.html }

// Refs returns the live elements recorded with the ref attribute.
func (c *Context) Refs() map[string]*tree.Node { return c.refs }

// Ref returns the live element recorded under name, or nil.
func (c *Context) Ref(name string) *tree.Node { return c.refs[name] }

// Nodes returns the live node index ("0", "0-1", ...).
func (c *Context) Nodes() map[string]*tree.Node { return c.nodes }

// Slot returns the named slot, or fallback when it was not provided.
func (c *Context) Slot(name, fallback string) string {
	if name == "" {
		name = "default"
	}
	if v, ok := c.slots[name]; ok {
		return v
	}
	return fallback
}

// Loop returns the loop the context runs on.
func (c *Context) Loop() *scheduler.Loop { return c.loop }

// Bus returns the event bus.
func (c *Context) Bus() *bus.Bus { return c.bus }

// Logger returns the component logger.
func (c *Context) Logger() *slog.Logger { return c.logger }

// Lifecycle returns the lifecycle flags.
func (c *Context) Lifecycle() lifecycle.State { return c.hooks.State() }

// Attached reports whether the live tree is currently in a host.
func (c *Context) Attached() bool { return c.attached }

// Destroyed reports whether Destroy has run.
func (c *Context) Destroyed() bool { return c.hooks.State().Destroyed }

// ReloadDepth returns the current depth of the reload guard.
func (c *Context) ReloadDepth() int { return c.sched.Depth() }

// ReloadPending reports whether a reload is scheduled for the next frame.
func (c *Context) ReloadPending() bool { return c.sched.Pending() }

// Reloads returns the number of completed reconciliation passes.
func (c *Context) Reloads() int { return c.reloads }

// busObserver publishes every mutation on the context's bus.
type busObserver struct{ c *Context }

func (o busObserver) Observe(m reconcile.Mutation) {
	o.c.bus.Emit(m.Op.Event(), o.c, m)
}

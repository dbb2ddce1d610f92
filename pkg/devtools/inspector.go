package devtools

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/weft/pkg/bus"
	"github.com/vango-dev/weft/pkg/component"
	"github.com/vango-dev/weft/pkg/preserve"
	"github.com/vango-dev/weft/pkg/reconcile"
	"github.com/vango-dev/weft/pkg/tree"
)

// DefaultBufferSize is the default number of events kept.
const DefaultBufferSize = 256

// clientQueue is the number of messages buffered per WebSocket client.
const clientQueue = 64

// Record is a recorded bus event.
type Record struct {
	Seq         uint64    `json:"seq"`
	Time        time.Time `json:"time"`
	Name        string    `json:"name"`
	Component   string    `json:"component,omitempty"`
	ComponentID string    `json:"componentId,omitempty"`
	Detail      string    `json:"detail,omitempty"`
}

// Option configures an Inspector.
type Option func(*Inspector)

// WithBufferSize sets the number of events kept for /events.
func WithBufferSize(n int) Option {
	return func(i *Inspector) {
		if n > 0 {
			i.size = n
		}
	}
}

// WithGatherer sets the gatherer served on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(i *Inspector) {
		i.gatherer = g
	}
}

// WithLogger sets the inspector's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Inspector) {
		i.logger = logger
	}
}

// WithFilter sets which events are recorded. The default drops
// compile.node events.
func WithFilter(keep func(bus.Event) bool) Option {
	return func(i *Inspector) {
		i.filter = keep
	}
}

// Inspector records component events and serves them over HTTP.
type Inspector struct {
	mu         sync.RWMutex
	components []*component.Context
	buses      map[*bus.Bus]func()
	ring       []Record
	next       int
	full       bool
	seq        uint64

	clientsMu sync.RWMutex
	clients   map[*client]bool
	upgrader  websocket.Upgrader

	size     int
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	filter   func(bus.Event) bool
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates an Inspector.
func New(opts ...Option) *Inspector {
	i := &Inspector{
		buses:   make(map[*bus.Bus]func()),
		clients: make(map[*client]bool),
		size:    DefaultBufferSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Local tool
			},
		},
		filter: func(ev bus.Event) bool {
			return ev.Name != bus.CompileNode
		},
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.gatherer == nil {
		i.gatherer = prometheus.DefaultGatherer
	}
	if i.logger == nil {
		i.logger = slog.Default()
	}
	i.logger = i.logger.With("module", "devtools")
	i.ring = make([]Record, i.size)
	return i
}

// Register adds root components to the inspector and subscribes to their
// buses. Contexts sharing a bus are subscribed once.
func (i *Inspector) Register(components ...*component.Context) {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, c := range components {
		if c == nil {
			continue
		}
		i.components = append(i.components, c)
		b := c.Bus()
		if _, ok := i.buses[b]; ok {
			continue
		}
		i.buses[b] = b.On(bus.Wildcard, i.record)
	}
}

// Components returns the registered components.
func (i *Inspector) Components() []*component.Context {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return append([]*component.Context(nil), i.components...)
}

// record runs on the emitting goroutine.
func (i *Inspector) record(ev bus.Event) {
	if i.filter != nil && !i.filter(ev) {
		return
	}
	rec := Record{
		Time:   time.Now(),
		Name:   ev.Name,
		Detail: detail(ev.Args),
	}
	if c, ok := ev.Arg(0).(*component.Context); ok {
		rec.Component = c.Name()
		rec.ComponentID = c.ID()
	}

	i.mu.Lock()
	i.seq++
	rec.Seq = i.seq
	i.ring[i.next] = rec
	i.next = (i.next + 1) % len(i.ring)
	if i.next == 0 {
		i.full = true
	}
	i.mu.Unlock()

	i.broadcast(rec)
}

// Events returns the recorded events, oldest first.
func (i *Inspector) Events() []Record {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if !i.full {
		return append([]Record(nil), i.ring[:i.next]...)
	}
	out := make([]Record, 0, len(i.ring))
	out = append(out, i.ring[i.next:]...)
	return append(out, i.ring[:i.next]...)
}

// ClientCount returns the number of connected WebSocket clients.
func (i *Inspector) ClientCount() int {
	i.clientsMu.RLock()
	defer i.clientsMu.RUnlock()
	return len(i.clients)
}

// Close unsubscribes from every bus and closes all client connections.
func (i *Inspector) Close() {
	i.mu.Lock()
	for b, off := range i.buses {
		off()
		delete(i.buses, b)
	}
	i.mu.Unlock()

	i.clientsMu.Lock()
	defer i.clientsMu.Unlock()
	for c := range i.clients {
		c.conn.Close()
	}
}

// detail summarizes event arguments after the emitting context.
func detail(args []any) string {
	if len(args) < 2 {
		return ""
	}
	switch v := args[1].(type) {
	case reconcile.Mutation:
		return v.String()
	case error:
		return v.Error()
	case *tree.Node:
		if v == nil {
			return ""
		}
		if v.IsText() {
			return fmt.Sprintf("%q", v.Text)
		}
		return "<" + v.Tag + ">"
	case *preserve.Blob:
		if v == nil {
			return ""
		}
		return fmt.Sprintf("%d fields, %d scroll offsets, focused=%t", len(v.Fields), len(v.Scroll), v.Focused)
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

package devtools

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/weft/pkg/component"
	"github.com/vango-dev/weft/pkg/markup"
	"github.com/vango-dev/weft/pkg/tree"
)

// Router returns the inspector's HTTP routes.
func (i *Inspector) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/tree", i.handleTree)
	r.Get("/tree.json", i.handleTreeJSON)
	r.Get("/events", i.handleEvents)
	r.Get("/ws", i.HandleWebSocket)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(i.gatherer, promhttp.HandlerOpts{}))
	return r
}

// NodeJSON is the JSON form of a tree node.
type NodeJSON struct {
	Type     string            `json:"type"`
	Tag      string            `json:"tag,omitempty"`
	Key      string            `json:"key,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Text     string            `json:"text,omitempty"`
	Children []*NodeJSON       `json:"children,omitempty"`
}

// ComponentJSON is the JSON form of a component and its children.
type ComponentJSON struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Attached bool             `json:"attached"`
	Reloads  int              `json:"reloads"`
	Depth    int              `json:"reloadDepth"`
	Pending  bool             `json:"reloadPending"`
	Tree     *NodeJSON        `json:"tree,omitempty"`
	Children []*ComponentJSON `json:"children,omitempty"`
}

// nodeJSON converts a tree node. Nil yields nil.
func nodeJSON(n *tree.Node) *NodeJSON {
	if n == nil {
		return nil
	}
	out := &NodeJSON{Type: strings.ToLower(n.Kind.String())}
	if n.IsText() {
		out.Text = n.Text
		return out
	}
	out.Tag = n.Tag
	out.Key = n.Key
	if len(n.Attrs) > 0 {
		out.Attrs = make(map[string]string, len(n.Attrs))
		for k, v := range n.Attrs {
			out.Attrs[k] = v
		}
	}
	for _, child := range n.Children {
		out.Children = append(out.Children, nodeJSON(child))
	}
	return out
}

// componentJSON must run on c's loop.
func componentJSON(c *component.Context) *ComponentJSON {
	out := &ComponentJSON{
		ID:       c.ID(),
		Name:     c.Name(),
		Attached: c.Attached(),
		Reloads:  c.Reloads(),
		Depth:    c.ReloadDepth(),
		Pending:  c.ReloadPending(),
		Tree:     nodeJSON(c.Element()),
	}
	for _, child := range c.Children() {
		out.Children = append(out.Children, componentJSON(child))
	}
	return out
}

// onLoop runs fn on c's loop.
func onLoop(ctx context.Context, c *component.Context, fn func()) error {
	return c.Loop().Call(ctx, fn)
}

func (i *Inspector) handleTree(w http.ResponseWriter, r *http.Request) {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><title>weft devtools</title></head><body>\n")
	for _, c := range i.Components() {
		var (
			html      string
			renderErr error
		)
		err := onLoop(r.Context(), c, func() {
			if root := c.Element(); root != nil {
				html, renderErr = markup.Render(root, markup.Options{})
			}
		})
		if err == nil {
			err = renderErr
		}
		if err != nil {
			i.logger.Error("tree render failed", "component", c.Name(), "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		b.WriteString(html)
		b.WriteString("\n")
	}
	b.WriteString("</body></html>\n")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(b.String()))
}

func (i *Inspector) handleTreeJSON(w http.ResponseWriter, r *http.Request) {
	components := i.Components()
	out := make([]*ComponentJSON, 0, len(components))
	for _, c := range components {
		var cj *ComponentJSON
		if err := onLoop(r.Context(), c, func() { cj = componentJSON(c) }); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		out = append(out, cj)
	}
	writeJSON(w, out)
}

func (i *Inspector) handleEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, i.Events())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// HandleWebSocket upgrades the connection and streams recorded events to it
// until the client disconnects.
func (i *Inspector) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := i.upgrader.Upgrade(w, r, nil)
	if err != nil {
		i.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	cl := &client{conn: conn, send: make(chan []byte, clientQueue)}
	i.clientsMu.Lock()
	i.clients[cl] = true
	i.clientsMu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range cl.send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}()

	// Keep connection alive until client disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	i.clientsMu.Lock()
	delete(i.clients, cl)
	close(cl.send)
	i.clientsMu.Unlock()
	conn.Close()
	<-done
}

// broadcast queues rec for every client. Slow clients drop messages.
func (i *Inspector) broadcast(rec Record) {
	i.clientsMu.RLock()
	defer i.clientsMu.RUnlock()
	if len(i.clients) == 0 {
		return
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	for cl := range i.clients {
		select {
		case cl.send <- data:
		default:
			i.logger.Debug("dropping event for slow client", "event", rec.Name)
		}
	}
}

// Package host provides an in-memory host surface for weft trees.
//
// Memory applies the reconciler's primitives to the tree model and keeps
// the interactive state a browser would hold per element: focus, scroll
// offsets, field values, checked state and caret selection. That state is
// keyed by node identity, so it is lost when a node is replaced or removed,
// exactly the situations the preserve package compensates for.
package host

import (
	"github.com/vango-dev/weft/pkg/preserve"
	"github.com/vango-dev/weft/pkg/reconcile"
	"github.com/vango-dev/weft/pkg/tree"
)

var (
	_ reconcile.Host   = (*Memory)(nil)
	_ preserve.Surface = (*Memory)(nil)
)

// Memory is an in-memory host surface. It is not safe for concurrent use;
// like the rest of a component tree it belongs to the loop goroutine.
type Memory struct {
	focused   *tree.Node
	scroll    map[*tree.Node]preserve.Offset
	values    map[*tree.Node]string
	checked   map[*tree.Node]bool
	selection map[*tree.Node]preserve.Selection

	ops int
}

// NewMemory creates an empty in-memory host.
func NewMemory() *Memory {
	return &Memory{
		scroll:    make(map[*tree.Node]preserve.Offset),
		values:    make(map[*tree.Node]string),
		checked:   make(map[*tree.Node]bool),
		selection: make(map[*tree.Node]preserve.Selection),
	}
}

// Ops returns the number of tree primitives applied so far.
func (m *Memory) Ops() int {
	return m.ops
}

// Insert implements reconcile.Host.
func (m *Memory) Insert(parent, node, ref *tree.Node) {
	m.ops++
	parent.InsertBefore(node, ref)
}

// Remove implements reconcile.Host. State held for the removed subtree is
// dropped and focus is lost if it was inside it.
func (m *Memory) Remove(parent, node *tree.Node) {
	m.ops++
	if !parent.RemoveChild(node) {
		return
	}
	if m.focused != nil && node.Contains(m.focused) {
		m.focused = nil
	}
	node.Walk(func(n *tree.Node, _ int) bool {
		delete(m.scroll, n)
		delete(m.values, n)
		delete(m.checked, n)
		delete(m.selection, n)
		return true
	})
}

// SetAttribute implements reconcile.Host.
func (m *Memory) SetAttribute(node *tree.Node, name, value string) {
	m.ops++
	node.SetAttr(name, value)
}

// RemoveAttribute implements reconcile.Host.
func (m *Memory) RemoveAttribute(node *tree.Node, name string) {
	m.ops++
	node.RemoveAttr(name)
}

// SetText implements reconcile.Host.
func (m *Memory) SetText(node *tree.Node, text string) {
	m.ops++
	node.Text = text
}

// ActiveElement implements preserve.Surface.
func (m *Memory) ActiveElement() *tree.Node {
	return m.focused
}

// Focus implements preserve.Surface. A nil node blurs.
func (m *Memory) Focus(n *tree.Node) {
	if n != nil && !n.IsElement() {
		return
	}
	m.focused = n
}

// Scroll implements preserve.Surface.
func (m *Memory) Scroll(n *tree.Node) preserve.Offset {
	return m.scroll[n]
}

// SetScroll implements preserve.Surface.
func (m *Memory) SetScroll(n *tree.Node, o preserve.Offset) {
	m.scroll[n] = o
}

// Value implements preserve.Surface. Until a value is set, the value comes
// from the markup: the value attribute, a textarea's text, or a select's
// selected (else first) option.
func (m *Memory) Value(n *tree.Node) string {
	if v, ok := m.values[n]; ok {
		return v
	}
	return defaultValue(n)
}

// SetValue implements preserve.Surface.
func (m *Memory) SetValue(n *tree.Node, v string) {
	m.values[n] = v
}

// Checked implements preserve.Surface.
func (m *Memory) Checked(n *tree.Node) bool {
	if c, ok := m.checked[n]; ok {
		return c
	}
	_, ok := n.Attr("checked")
	return ok
}

// SetChecked implements preserve.Surface.
func (m *Memory) SetChecked(n *tree.Node, checked bool) {
	m.checked[n] = checked
}

// Selection implements preserve.Surface.
func (m *Memory) Selection(n *tree.Node) (preserve.Selection, bool) {
	if !preserve.SupportsSelection(n) {
		return preserve.Selection{}, false
	}
	if s, ok := m.selection[n]; ok {
		return s, true
	}
	end := len(m.Value(n))
	return preserve.Selection{Start: end, End: end}, true
}

// SetSelection implements preserve.Surface.
func (m *Memory) SetSelection(n *tree.Node, s preserve.Selection) {
	if preserve.SupportsSelection(n) {
		m.selection[n] = s
	}
}

func defaultValue(n *tree.Node) string {
	switch n.Tag {
	case "textarea":
		return n.TextContent()
	case "select":
		options := tree.FindAll(n, func(c *tree.Node) bool { return c.Tag == "option" })
		for _, o := range options {
			if _, ok := o.Attr("selected"); ok {
				return optionValue(o)
			}
		}
		if len(options) > 0 {
			return optionValue(options[0])
		}
		return ""
	default:
		v, _ := n.Attr("value")
		return v
	}
}

func optionValue(o *tree.Node) string {
	if v, ok := o.Attr("value"); ok {
		return v
	}
	return o.TextContent()
}

package tree

import (
	"fmt"
	"sort"
	"strings"
)

// Kind is the node type discriminator.
type Kind uint8

const (
	KindElement Kind = iota // <div>, <input>, etc.
	KindText                // Plain text node
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	default:
		return "Unknown"
	}
}

// Attrs maps attribute names to values. Order is irrelevant.
type Attrs map[string]string

// Node is a single element or text node.
type Node struct {
	Kind     Kind
	Tag      string  // Element tag name, lower case
	Attrs    Attrs   // Element attributes
	Children []*Node // Ordered child nodes
	Key      string  // Reconciliation key, unique among keyed siblings
	Text     string  // Content of a text node

	parent *Node
}

// El creates an element node and adopts the given children.
func El(tag string, attrs Attrs, children ...*Node) *Node {
	n := &Node{
		Kind:  KindElement,
		Tag:   tag,
		Attrs: make(Attrs, len(attrs)),
	}
	for k, v := range attrs {
		n.Attrs[k] = v
	}
	for _, c := range children {
		if c != nil {
			n.AppendChild(c)
		}
	}
	return n
}

// KeyedEl creates an element node carrying a reconciliation key.
func KeyedEl(key, tag string, attrs Attrs, children ...*Node) *Node {
	n := El(tag, attrs, children...)
	n.Key = key
	return n
}

// Text creates a text node.
func Text(content string) *Node {
	return &Node{
		Kind: KindText,
		Text: content,
	}
}

// Textf creates a formatted text node.
func Textf(format string, args ...any) *Node {
	return Text(fmt.Sprintf(format, args...))
}

// IsElement reports whether n is an element node.
func (n *Node) IsElement() bool {
	return n != nil && n.Kind == KindElement
}

// IsText reports whether n is a text node.
func (n *Node) IsText() bool {
	return n != nil && n.Kind == KindText
}

// Parent returns the node's parent, or nil for a detached node or a root.
func (n *Node) Parent() *Node {
	if n == nil {
		return nil
	}
	return n.parent
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	if n == nil || n.Attrs == nil {
		return "", false
	}
	v, ok := n.Attrs[name]
	return v, ok
}

// HasKey reports whether n is a keyed element.
func (n *Node) HasKey() bool {
	return n.IsElement() && n.Key != ""
}

// IndexOf returns the position of child among n's children, or -1.
func (n *Node) IndexOf(child *Node) int {
	if n == nil {
		return -1
	}
	for i, c := range n.Children {
		if c == child {
			return i
		}
	}
	return -1
}

// ElementChildren returns n's element children in order.
func (n *Node) ElementChildren() []*Node {
	if n == nil {
		return nil
	}
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if c.Kind == KindElement {
			out = append(out, c)
		}
	}
	return out
}

// TextContent returns the concatenated text of n and its descendants.
func (n *Node) TextContent() string {
	if n == nil {
		return ""
	}
	if n.Kind == KindText {
		return n.Text
	}
	var b strings.Builder
	n.Walk(func(d *Node, _ int) bool {
		if d.Kind == KindText {
			b.WriteString(d.Text)
		}
		return true
	})
	return b.String()
}

// Contains reports whether other is n or one of its descendants.
func (n *Node) Contains(other *Node) bool {
	for cur := other; cur != nil; cur = cur.parent {
		if cur == n {
			return true
		}
	}
	return false
}

// Walk visits n and its descendants depth-first in document order.
// Returning false from fn skips the node's children.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	walk(n, 0, fn)
}

func walk(n *Node, depth int, fn func(*Node, int) bool) {
	if n == nil {
		return
	}
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		walk(c, depth+1, fn)
	}
}

// Clone returns a detached deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{
		Kind: n.Kind,
		Tag:  n.Tag,
		Key:  n.Key,
		Text: n.Text,
	}
	if n.Attrs != nil {
		c.Attrs = make(Attrs, len(n.Attrs))
		for k, v := range n.Attrs {
			c.Attrs[k] = v
		}
	}
	if len(n.Children) > 0 {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			cc := child.Clone()
			cc.parent = c
			c.Children[i] = cc
		}
	}
	return c
}

// String returns a compact debug representation of n.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	var b strings.Builder
	writeDebug(&b, n)
	return b.String()
}

func writeDebug(b *strings.Builder, n *Node) {
	if n.Kind == KindText {
		fmt.Fprintf(b, "%q", n.Text)
		return
	}
	b.WriteString("<")
	b.WriteString(n.Tag)
	if n.Key != "" {
		fmt.Fprintf(b, " #%s", n.Key)
	}
	names := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Fprintf(b, " %s=%q", k, n.Attrs[k])
	}
	b.WriteString(">")
	for _, c := range n.Children {
		writeDebug(b, c)
	}
	b.WriteString("</")
	b.WriteString(n.Tag)
	b.WriteString(">")
}

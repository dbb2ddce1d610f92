// Package preserve snapshots and restores interaction state that a patch
// might disturb: scroll offsets, focus (with caret selection) and form field
// values.
//
// In-place patching already keeps most of this state because live nodes
// survive a patch. The preserver covers the residue: nodes that were
// replaced or cloned in lose their host-side state, so it is captured before
// the patch by stable identifiers (scroll ids, focus path, field ordinal) and
// reapplied to whatever node resolves afterwards. Entries that no longer
// resolve are skipped.
package preserve

import (
	"strings"

	"github.com/vango-dev/weft/pkg/tree"
)

// DefaultScrollAttribute marks elements whose scroll offsets are preserved.
// Its value is the stable identifier the offsets are stored under.
const DefaultScrollAttribute = "data-preserve-scroll"

// Offset is a scroll position.
type Offset struct {
	Top  int `json:"top"`
	Left int `json:"left"`
}

// Selection is a caret or selection range inside a text field.
type Selection struct {
	Start     int    `json:"start"`
	End       int    `json:"end"`
	Direction string `json:"direction,omitempty"`
}

// Surface is the host-observable interaction state of a live tree.
type Surface interface {
	ActiveElement() *tree.Node
	Focus(n *tree.Node)
	Scroll(n *tree.Node) Offset
	SetScroll(n *tree.Node, o Offset)
	Value(n *tree.Node) string
	SetValue(n *tree.Node, v string)
	Checked(n *tree.Node) bool
	SetChecked(n *tree.Node, checked bool)
	Selection(n *tree.Node) (Selection, bool)
	SetSelection(n *tree.Node, s Selection)
}

// Field is the captured state of one form field.
type Field struct {
	Value     string `json:"value,omitempty"`
	Checked   bool   `json:"checked,omitempty"`
	Checkable bool   `json:"checkable,omitempty"`
}

// Blob is a snapshot of interaction state relative to a root.
type Blob struct {
	Scroll    map[string]Offset `json:"scroll"`
	Focus     []int             `json:"focus,omitempty"`
	Focused   bool              `json:"focused"`
	Selection *Selection        `json:"selection,omitempty"`
	Fields    map[int]Field     `json:"fields"`
}

// Report summarises a Restore.
type Report struct {
	Restored int
	Skipped  int
}

// Preserver captures and restores interaction state.
type Preserver struct {
	scrollAttr string
}

// Option configures a Preserver.
type Option func(*Preserver)

// WithScrollAttribute sets the attribute that marks scroll-preserving
// elements.
func WithScrollAttribute(name string) Option {
	return func(p *Preserver) {
		if name != "" {
			p.scrollAttr = name
		}
	}
}

// New creates a Preserver.
func New(opts ...Option) *Preserver {
	p := &Preserver{scrollAttr: DefaultScrollAttribute}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Snapshot captures the interaction state of root's subtree.
func (p *Preserver) Snapshot(s Surface, root *tree.Node) *Blob {
	blob := &Blob{
		Scroll: make(map[string]Offset),
		Fields: make(map[int]Field),
	}
	if root == nil {
		return blob
	}

	root.Walk(func(n *tree.Node, _ int) bool {
		if n.Kind != tree.KindElement {
			return false
		}
		if id, ok := n.Attr(p.scrollAttr); ok && id != "" {
			blob.Scroll[id] = s.Scroll(n)
		}
		return true
	})

	if active := s.ActiveElement(); active != nil && root.Contains(active) {
		if path, ok := tree.PathTo(root, active); ok {
			blob.Focus = path
			blob.Focused = true
			if SupportsSelection(active) {
				if sel, ok := s.Selection(active); ok {
					blob.Selection = &sel
				}
			}
		}
	}

	for i, field := range Fields(root) {
		if IsCheckable(field) {
			blob.Fields[i] = Field{Checked: s.Checked(field), Checkable: true}
		} else {
			blob.Fields[i] = Field{Value: s.Value(field)}
		}
	}

	return blob
}

// Restore reapplies blob to the (already patched) root.
func (p *Preserver) Restore(s Surface, root *tree.Node, blob *Blob) Report {
	var rep Report
	if root == nil || blob == nil {
		return rep
	}

	for id, off := range blob.Scroll {
		el := tree.Find(root, func(n *tree.Node) bool {
			v, ok := n.Attr(p.scrollAttr)
			return ok && v == id
		})
		if el == nil {
			rep.Skipped++
			continue
		}
		s.SetScroll(el, off)
		rep.Restored++
	}

	if blob.Focused {
		if el := tree.AtPath(root, blob.Focus); el != nil {
			if s.ActiveElement() != el {
				s.Focus(el)
			}
			if blob.Selection != nil && SupportsSelection(el) {
				s.SetSelection(el, *blob.Selection)
			}
			rep.Restored++
		} else {
			rep.Skipped++
		}
	}

	fields := Fields(root)
	for i, f := range blob.Fields {
		if i >= len(fields) {
			rep.Skipped++
			continue
		}
		el := fields[i]
		switch {
		case f.Checkable && IsCheckable(el):
			s.SetChecked(el, f.Checked)
		case !f.Checkable && !IsCheckable(el):
			s.SetValue(el, f.Value)
		default:
			rep.Skipped++
			continue
		}
		rep.Restored++
	}

	return rep
}

// Fields returns the form-input-capable descendants of root in document
// order.
func Fields(root *tree.Node) []*tree.Node {
	return tree.FindAll(root, IsField)
}

// IsField reports whether n is an input, textarea or select element.
func IsField(n *tree.Node) bool {
	if !n.IsElement() {
		return false
	}
	switch n.Tag {
	case "input", "textarea", "select":
		return true
	}
	return false
}

// IsCheckable reports whether n is a checkbox or radio input.
func IsCheckable(n *tree.Node) bool {
	if !n.IsElement() || n.Tag != "input" {
		return false
	}
	switch inputType(n) {
	case "checkbox", "radio":
		return true
	}
	return false
}

// SupportsSelection reports whether n has a caret: textareas and text-like
// inputs.
func SupportsSelection(n *tree.Node) bool {
	if !n.IsElement() {
		return false
	}
	if n.Tag == "textarea" {
		return true
	}
	if n.Tag != "input" {
		return false
	}
	switch inputType(n) {
	case "text", "search", "url", "tel", "password":
		return true
	}
	return false
}

func inputType(n *tree.Node) string {
	t, ok := n.Attr("type")
	if !ok || t == "" {
		return "text"
	}
	return strings.ToLower(t)
}

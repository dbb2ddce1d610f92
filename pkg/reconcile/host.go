package reconcile

import "github.com/vango-dev/weft/pkg/tree"

// Host is the surface the Reconciler mutates. Implementations apply each
// primitive to the live tree and to whatever they mirror it into.
type Host interface {
	// Insert places node into parent before ref (append when ref is nil).
	// An attached node is moved.
	Insert(parent, node, ref *tree.Node)

	// Remove detaches node from parent.
	Remove(parent, node *tree.Node)

	// SetAttribute sets an attribute on an element.
	SetAttribute(node *tree.Node, name, value string)

	// RemoveAttribute removes an attribute from an element.
	RemoveAttribute(node *tree.Node, name string)

	// SetText replaces the content of a text node.
	SetText(node *tree.Node, text string)
}

// TreeHost applies mutations directly to the tree model.
type TreeHost struct{}

// Insert implements Host.
func (TreeHost) Insert(parent, node, ref *tree.Node) {
	parent.InsertBefore(node, ref)
}

// Remove implements Host.
func (TreeHost) Remove(parent, node *tree.Node) {
	parent.RemoveChild(node)
}

// SetAttribute implements Host.
func (TreeHost) SetAttribute(node *tree.Node, name, value string) {
	node.SetAttr(name, value)
}

// RemoveAttribute implements Host.
func (TreeHost) RemoveAttribute(node *tree.Node, name string) {
	node.RemoveAttr(name)
}

// SetText implements Host.
func (TreeHost) SetText(node *tree.Node, text string) {
	node.Text = text
}

package reconcile

import (
	"sort"
	"strconv"

	"github.com/vango-dev/weft/pkg/tree"
)

// Reconciler patches live trees through a Host.
type Reconciler struct {
	host      Host
	observers []Observer
	count     int
}

// New creates a Reconciler. A nil host mutates the tree model directly.
func New(host Host, observers ...Observer) *Reconciler {
	if host == nil {
		host = TreeHost{}
	}
	return &Reconciler{host: host, observers: observers}
}

// Observe registers an additional observer.
func (r *Reconciler) Observe(o Observer) {
	if o != nil {
		r.observers = append(r.observers, o)
	}
}

// Count returns the number of mutations issued since the Reconciler was
// created.
func (r *Reconciler) Count() int {
	return r.count
}

// Patch is a convenience wrapper around New(nil, observers...).Patch.
func Patch(current, target *tree.Node, observers ...Observer) *tree.Node {
	return New(nil, observers...).Patch(current, target)
}

// Patch mutates current so that it matches target and returns the live
// root, which differs from current only when current had to be replaced.
// target is never attached to the live tree; new nodes are deep clones.
func (r *Reconciler) Patch(current, target *tree.Node) *tree.Node {
	if current == target {
		return current
	}
	if current == nil {
		return target.Clone()
	}
	if target == nil {
		if parent := current.Parent(); parent != nil {
			r.removeChild(parent, current)
		}
		return nil
	}

	if !tree.SameShape(current, target) {
		return r.replace(current, target)
	}

	if current.Kind == tree.KindText {
		if current.Text != target.Text {
			r.emit(Mutation{Op: OpSetText, Node: current, Value: target.Text, Old: current.Text})
			r.host.SetText(current, target.Text)
		}
		return current
	}

	r.patchAttrs(current, target)
	r.patchChildren(current, target)
	return current
}

// replace swaps current for a clone of target.
func (r *Reconciler) replace(current, target *tree.Node) *tree.Node {
	clone := target.Clone()
	parent := current.Parent()
	r.emit(Mutation{
		Op:     OpReplace,
		Parent: parent,
		Node:   current,
		With:   clone,
		Index:  parent.IndexOf(current),
		Key:    current.Key,
	})
	if parent != nil {
		r.host.Insert(parent, clone, current)
		r.host.Remove(parent, current)
	}
	return clone
}

// patchAttrs makes current's attribute set exactly target's.
func (r *Reconciler) patchAttrs(current, target *tree.Node) {
	for _, name := range sortedNames(target.Attrs) {
		value := target.Attrs[name]
		old, ok := current.Attrs[name]
		if ok && old == value {
			continue
		}
		r.emit(Mutation{Op: OpSetAttr, Node: current, Name: name, Value: value, Old: old})
		r.host.SetAttribute(current, name, value)
	}
	for _, name := range sortedNames(current.Attrs) {
		if _, ok := target.Attrs[name]; ok {
			continue
		}
		r.emit(Mutation{Op: OpRemoveAttr, Node: current, Name: name, Old: current.Attrs[name]})
		r.host.RemoveAttribute(current, name)
	}
}

func (r *Reconciler) patchChildren(current, target *tree.Node) {
	if hasKeys(current.Children) || hasKeys(target.Children) {
		r.patchKeyed(current, target)
		return
	}
	r.patchUnkeyed(current, target)
}

// patchUnkeyed matches children by position.
func (r *Reconciler) patchUnkeyed(current, target *tree.Node) {
	live := append([]*tree.Node(nil), current.Children...)
	next := target.Children

	maxLen := len(live)
	if len(next) > maxLen {
		maxLen = len(next)
	}

	for i := 0; i < maxLen; i++ {
		switch {
		case i >= len(next):
			r.removeChild(current, live[i])
		case i >= len(live):
			clone := next[i].Clone()
			r.emit(Mutation{Op: OpInsertChild, Parent: current, Node: clone, Index: len(current.Children), Key: clone.Key})
			r.host.Insert(current, clone, nil)
		default:
			r.Patch(live[i], next[i])
		}
	}
}

// patchKeyed matches children by identity and moves live nodes into target
// order.
func (r *Reconciler) patchKeyed(current, target *tree.Node) {
	original := append([]*tree.Node(nil), current.Children...)
	originalIDs := identities(original)

	byID := make(map[string]*tree.Node, len(original))
	for i, n := range original {
		// Duplicate keys: last seen wins.
		byID[originalIDs[i]] = n
	}

	used := make(map[*tree.Node]bool, len(original))
	for i, id := range identities(target.Children) {
		want := target.Children[i]

		var ref *tree.Node
		if i < len(current.Children) {
			ref = current.Children[i]
		}

		node, ok := byID[id]
		if !ok || used[node] {
			clone := want.Clone()
			r.emit(Mutation{Op: OpInsertChild, Parent: current, Node: clone, Index: i, Key: clone.Key})
			r.host.Insert(current, clone, ref)
			continue
		}

		used[node] = true
		if from := current.IndexOf(node); from != i {
			r.emit(Mutation{Op: OpMoveChild, Parent: current, Node: node, From: from, Index: i, Key: node.Key})
			r.host.Insert(current, node, ref)
		}
		r.Patch(node, want)
	}

	for _, n := range original {
		if !used[n] {
			r.removeChild(current, n)
		}
	}
}

func (r *Reconciler) removeChild(parent, child *tree.Node) {
	r.emit(Mutation{Op: OpRemoveChild, Parent: parent, Node: child, Index: parent.IndexOf(child), Key: child.Key})
	r.host.Remove(parent, child)
}

func (r *Reconciler) emit(m Mutation) {
	r.count++
	for _, o := range r.observers {
		o.Observe(m)
	}
}

// identities assigns each child the identity used by the keyed algorithm:
// its key, or its ordinal among unkeyed siblings.
func identities(children []*tree.Node) []string {
	ids := make([]string, len(children))
	unkeyed := 0
	for i, c := range children {
		if c.HasKey() {
			ids[i] = "k:" + c.Key
			continue
		}
		ids[i] = "u:" + strconv.Itoa(unkeyed)
		unkeyed++
	}
	return ids
}

// hasKeys returns true if any child is a keyed element.
func hasKeys(children []*tree.Node) bool {
	for _, c := range children {
		if c.HasKey() {
			return true
		}
	}
	return false
}

func sortedNames(attrs tree.Attrs) []string {
	names := make([]string, 0, len(attrs))
	for k := range attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

package tree

// AppendChild appends child to n, detaching it from any previous parent.
func (n *Node) AppendChild(child *Node) {
	n.InsertBefore(child, nil)
}

// InsertBefore inserts child into n before ref. A nil ref, or a ref that is
// not a child of n, appends. A child that is already attached anywhere is
// moved, never copied.
func (n *Node) InsertBefore(child, ref *Node) {
	if child == nil || child == ref {
		return
	}
	if child.parent != nil {
		child.parent.RemoveChild(child)
	}
	idx := -1
	if ref != nil {
		idx = n.IndexOf(ref)
	}
	child.parent = n
	if idx < 0 {
		n.Children = append(n.Children, child)
		return
	}
	n.Children = append(n.Children, nil)
	copy(n.Children[idx+1:], n.Children[idx:])
	n.Children[idx] = child
}

// RemoveChild detaches child from n. It reports whether child was found.
func (n *Node) RemoveChild(child *Node) bool {
	idx := n.IndexOf(child)
	if idx < 0 {
		return false
	}
	copy(n.Children[idx:], n.Children[idx+1:])
	n.Children[len(n.Children)-1] = nil
	n.Children = n.Children[:len(n.Children)-1]
	child.parent = nil
	return true
}

// Detach removes n from its parent, if any.
func (n *Node) Detach() {
	if n != nil && n.parent != nil {
		n.parent.RemoveChild(n)
	}
}

// SetAttr sets an attribute on an element.
func (n *Node) SetAttr(name, value string) {
	if n.Attrs == nil {
		n.Attrs = make(Attrs)
	}
	n.Attrs[name] = value
}

// RemoveAttr removes an attribute from an element.
func (n *Node) RemoveAttr(name string) {
	delete(n.Attrs, name)
}

// Adopt sets the parent back-reference of every descendant of n. Trees built
// by hand as struct literals need this before they are patched.
func Adopt(n *Node) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		c.parent = n
		Adopt(c)
	}
	return n
}

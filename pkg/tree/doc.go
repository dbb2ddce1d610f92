// Package tree provides the in-memory tree model rendered by weft components.
//
// A Node is either an element (tag, attributes, ordered children, optional
// key) or a text node. Nodes carry a parent back-reference that is kept
// current by the mutation primitives in this package, so a live tree can be
// patched in place while external references (focus, refs, the node index)
// keep pointing at the same *Node.
//
// # Building trees
//
//	root := tree.El("ul", nil,
//	    tree.KeyedEl("a", "li", nil, tree.Text("A")),
//	    tree.KeyedEl("b", "li", nil, tree.Text("B")),
//	)
//
// # Addressing
//
// PathTo and AtPath address elements by their element-child indices from a
// root. Index collects every node under "0", "0-1", "0-1-0", ... identifiers,
// counting all child nodes including text.
package tree

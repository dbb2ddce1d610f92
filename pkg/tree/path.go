package tree

import "strconv"

// PathTo returns the element-child indices leading from root to node.
// It reports false if node is not root or a descendant of root, or if the
// chain passes through a text node.
func PathTo(root, node *Node) ([]int, bool) {
	if root == nil || node == nil {
		return nil, false
	}
	var path []int
	for cur := node; cur != root; cur = cur.parent {
		parent := cur.parent
		if parent == nil || cur.Kind != KindElement {
			return nil, false
		}
		idx := -1
		pos := 0
		for _, c := range parent.Children {
			if c == cur {
				idx = pos
				break
			}
			if c.Kind == KindElement {
				pos++
			}
		}
		if idx < 0 {
			return nil, false
		}
		path = append(path, idx)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, true
}

// AtPath resolves an element-child index path from root. It returns nil when
// the path no longer resolves.
func AtPath(root *Node, path []int) *Node {
	cur := root
	for _, idx := range path {
		if cur == nil || idx < 0 {
			return nil
		}
		children := cur.ElementChildren()
		if idx >= len(children) {
			return nil
		}
		cur = children[idx]
	}
	return cur
}

// Index collects every node under root keyed by its positional identifier:
// "0" for root, "0-1" for its second child, and so on. Text nodes are
// included.
func Index(root *Node) map[string]*Node {
	nodes := make(map[string]*Node)
	if root == nil {
		return nodes
	}
	indexNodes(root, "0", nodes, nil)
	return nodes
}

// IndexFunc is Index with a callback invoked for every indexed node.
func IndexFunc(root *Node, fn func(id string, n *Node)) map[string]*Node {
	nodes := make(map[string]*Node)
	if root == nil {
		return nodes
	}
	indexNodes(root, "0", nodes, fn)
	return nodes
}

func indexNodes(n *Node, id string, nodes map[string]*Node, fn func(string, *Node)) {
	nodes[id] = n
	if fn != nil {
		fn(id, n)
	}
	if n.Kind != KindElement {
		return
	}
	for i, c := range n.Children {
		indexNodes(c, id+"-"+strconv.Itoa(i), nodes, fn)
	}
}

// Find returns the first node under root, in document order, for which match
// returns true.
func Find(root *Node, match func(*Node) bool) *Node {
	var found *Node
	root.Walk(func(n *Node, _ int) bool {
		if found != nil {
			return false
		}
		if match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// FindAll returns every node under root, in document order, for which match
// returns true.
func FindAll(root *Node, match func(*Node) bool) []*Node {
	var out []*Node
	root.Walk(func(n *Node, _ int) bool {
		if match(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

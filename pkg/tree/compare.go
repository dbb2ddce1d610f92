package tree

// Equal reports whether a and b are structurally equal: same kinds, tags,
// keys, attributes, text and child order.
func Equal(a, b *Node) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == KindText {
		return a.Text == b.Text
	}
	if a.Tag != b.Tag || a.Key != b.Key {
		return false
	}
	if len(a.Attrs) != len(b.Attrs) {
		return false
	}
	for k, v := range a.Attrs {
		if bv, ok := b.Attrs[k]; !ok || bv != v {
			return false
		}
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

// SameShape reports whether current can be patched in place into target:
// both text, or both elements with the same tag and key.
func SameShape(current, target *Node) bool {
	if current == nil || target == nil || current.Kind != target.Kind {
		return false
	}
	if current.Kind == KindText {
		return true
	}
	return current.Tag == target.Tag && current.Key == target.Key
}

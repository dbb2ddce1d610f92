package tree

import "testing"

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindElement, "Element"},
		{KindText, "Text"},
		{Kind(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestElAdoptsChildren(t *testing.T) {
	a := Text("a")
	b := El("span", nil)
	root := El("div", Attrs{"class": "x"}, a, nil, b)

	if len(root.Children) != 2 {
		t.Fatalf("Expected 2 children, got %d", len(root.Children))
	}
	if a.Parent() != root || b.Parent() != root {
		t.Error("children should point back at root")
	}
	if v, ok := root.Attr("class"); !ok || v != "x" {
		t.Errorf("Attr(class) = %q, %v", v, ok)
	}
}

func TestInsertBeforeMoves(t *testing.T) {
	a := KeyedEl("a", "li", nil)
	b := KeyedEl("b", "li", nil)
	c := KeyedEl("c", "li", nil)
	ul := El("ul", nil, a, b, c)

	ul.InsertBefore(c, a)

	want := []*Node{c, a, b}
	for i, n := range want {
		if ul.Children[i] != n {
			t.Fatalf("Children[%d] = %v, want %v", i, ul.Children[i], n)
		}
	}
	if c.Parent() != ul {
		t.Error("moved node lost its parent")
	}
}

func TestInsertBeforeReparents(t *testing.T) {
	child := El("b", nil)
	from := El("div", nil, child)
	to := El("div", nil)

	to.AppendChild(child)

	if len(from.Children) != 0 {
		t.Errorf("old parent still has %d children", len(from.Children))
	}
	if child.Parent() != to {
		t.Error("child not reparented")
	}
}

func TestRemoveChild(t *testing.T) {
	a := Text("a")
	root := El("p", nil, a)

	if !root.RemoveChild(a) {
		t.Fatal("RemoveChild returned false")
	}
	if a.Parent() != nil {
		t.Error("removed child keeps parent")
	}
	if root.RemoveChild(a) {
		t.Error("second RemoveChild should report false")
	}
}

func TestCloneIsDeepAndDetached(t *testing.T) {
	inner := Text("hi")
	orig := KeyedEl("k", "div", Attrs{"id": "x"}, El("span", nil, inner))
	parent := El("section", nil, orig)

	c := orig.Clone()

	if c == orig || c.Children[0] == orig.Children[0] {
		t.Fatal("Clone shared nodes with the original")
	}
	if c.Parent() != nil {
		t.Error("clone should be detached")
	}
	if c.Children[0].Parent() != c {
		t.Error("clone children should point at the clone")
	}
	if !Equal(c, orig) {
		t.Error("clone not structurally equal")
	}
	c.Attrs["id"] = "y"
	if orig.Attrs["id"] != "x" {
		t.Error("attribute map shared with original")
	}
	_ = parent
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b *Node
		want bool
	}{
		{"same text", Text("a"), Text("a"), true},
		{"different text", Text("a"), Text("b"), false},
		{"kind", Text("a"), El("a", nil), false},
		{"tag", El("a", nil), El("b", nil), false},
		{"key", KeyedEl("1", "li", nil), KeyedEl("2", "li", nil), false},
		{"attrs", El("a", Attrs{"x": "1"}), El("a", Attrs{"x": "2"}), false},
		{"attr count", El("a", Attrs{"x": "1"}), El("a", nil), false},
		{"children", El("a", nil, Text("x")), El("a", nil, Text("x"), Text("y")), false},
		{"deep equal", El("a", Attrs{"x": "1"}, El("b", nil, Text("t"))), El("a", Attrs{"x": "1"}, El("b", nil, Text("t"))), true},
		{"nil", nil, Text("a"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTextContentAndContains(t *testing.T) {
	leaf := Text("b")
	root := El("div", nil, Text("a"), El("span", nil, leaf), Text("c"))

	if got := root.TextContent(); got != "abc" {
		t.Errorf("TextContent = %q, want abc", got)
	}
	if !root.Contains(leaf) {
		t.Error("root should contain leaf")
	}
	if leaf.Contains(root) {
		t.Error("leaf should not contain root")
	}
}

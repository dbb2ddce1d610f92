// Package markup converts between HTML fragments and trees.
//
// Compile parses the string a component's render callback returns into a
// tree rooted at a wrapper element. Render serialises a tree back to HTML
// for inspection and the diff command.
package markup

import (
	"bytes"
	"io"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vango-dev/weft/pkg/tree"
)

// Defaults used when Options fields are empty.
const (
	DefaultWrapperTag   = "div"
	DefaultKeyAttribute = "key"
)

// Options configures Compile and Render.
type Options struct {
	// WrapperTag is the tag of the element that holds the parsed fragment.
	// Defaults to "div".
	WrapperTag string

	// KeyAttribute names the attribute lifted into Node.Key.
	// Defaults to "key".
	KeyAttribute string

	// DropWhitespace drops text nodes that contain only whitespace. By
	// default they are kept, so spaces between inline elements survive.
	DropWhitespace bool
}

func (o Options) withDefaults() Options {
	if o.WrapperTag == "" {
		o.WrapperTag = DefaultWrapperTag
	}
	if o.KeyAttribute == "" {
		o.KeyAttribute = DefaultKeyAttribute
	}
	return o
}

// Compile parses markup as an HTML fragment inside a wrapper element.
// Leading and trailing whitespace of the fragment is trimmed; whitespace
// inside it is kept. Comments and doctypes are dropped.
func Compile(markup string, opts Options) (*tree.Node, error) {
	opts = opts.withDefaults()
	parent := &html.Node{
		Type:     html.ElementNode,
		Data:     opts.WrapperTag,
		DataAtom: atom.Lookup([]byte(opts.WrapperTag)),
	}
	nodes, err := html.ParseFragment(strings.NewReader(strings.TrimSpace(markup)), parent)
	if err != nil {
		return nil, err
	}

	root := tree.El(opts.WrapperTag, nil)
	for _, n := range nodes {
		if child := convert(n, opts); child != nil {
			root.AppendChild(child)
		}
	}
	return root, nil
}

// CompileReader is Compile reading from r.
func CompileReader(r io.Reader, opts Options) (*tree.Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Compile(string(data), opts)
}

func convert(n *html.Node, opts Options) *tree.Node {
	switch n.Type {
	case html.TextNode:
		if opts.DropWhitespace && strings.TrimSpace(n.Data) == "" {
			return nil
		}
		return tree.Text(n.Data)
	case html.ElementNode:
		el := tree.El(n.Data, nil)
		for _, a := range n.Attr {
			name := a.Key
			if a.Namespace != "" {
				name = a.Namespace + ":" + a.Key
			}
			if name == opts.KeyAttribute {
				el.Key = a.Val
				continue
			}
			el.SetAttr(name, a.Val)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if child := convert(c, opts); child != nil {
				el.AppendChild(child)
			}
		}
		return el
	default:
		return nil
	}
}

// Render serialises n to HTML. Keys are written back under the key
// attribute so the output compiles to an equal tree.
func Render(n *tree.Node, opts Options) (string, error) {
	var buf bytes.Buffer
	if err := RenderTo(&buf, n, opts); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderTo writes the HTML for n to w.
func RenderTo(w io.Writer, n *tree.Node, opts Options) error {
	if n == nil {
		return nil
	}
	opts = opts.withDefaults()
	return html.Render(w, toHTML(n, opts))
}

// RenderChildren writes the HTML for the children of n without n itself.
func RenderChildren(n *tree.Node, opts Options) (string, error) {
	if n == nil {
		return "", nil
	}
	opts = opts.withDefaults()
	var buf bytes.Buffer
	for _, c := range n.Children {
		if err := html.Render(&buf, toHTML(c, opts)); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func toHTML(n *tree.Node, opts Options) *html.Node {
	if n.IsText() {
		return &html.Node{Type: html.TextNode, Data: n.Text}
	}
	out := &html.Node{
		Type:     html.ElementNode,
		Data:     n.Tag,
		DataAtom: atom.Lookup([]byte(n.Tag)),
	}
	if n.Key != "" {
		out.Attr = append(out.Attr, html.Attribute{Key: opts.KeyAttribute, Val: n.Key})
	}
	names := make([]string, 0, len(n.Attrs))
	for name := range n.Attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out.Attr = append(out.Attr, html.Attribute{Key: name, Val: n.Attrs[name]})
	}
	for _, c := range n.Children {
		out.AppendChild(toHTML(c, opts))
	}
	return out
}

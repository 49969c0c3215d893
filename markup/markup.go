// Package markup parses tree-structured markup into a mutable node tree and
// serializes it back with byte-exact fidelity for untouched regions.
//
// Every node keeps the raw bytes it was parsed from. Serialization emits
// those bytes verbatim unless the node was mutated through SetText or
// SetAttr, in which case only that node is re-rendered. This makes
// Render(Parse(x)) == x a structural guarantee rather than a best effort.
//
// Usage:
//
//	root, err := markup.Parse([]byte(`<p>Hello <b>world</b></p>`))
//	// ... mutate text nodes or attributes ...
//	out := markup.Render(root)
package markup

// Kind identifies a node variant.
type Kind int

const (
	// KindRoot is the synthetic forest root produced by Parse.
	KindRoot Kind = iota
	// KindElement is a tag with attributes and ordered children.
	KindElement
	// KindText is character data, including surrounding whitespace.
	KindText
	// KindRaw is markup emitted verbatim and never rewritten:
	// comments, doctypes, and stray end tags.
	KindRaw
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindElement:
		return "element"
	case KindText:
		return "text"
	case KindRaw:
		return "raw"
	}
	return "unknown"
}

// Attr is one attribute of an element. Order is preserved from the source.
type Attr struct {
	Key string
	Val string
}

// Node is one unit of the document tree. Children are exclusively owned by
// their parent; Parent is a non-owning back-reference for traversal only.
type Node struct {
	Kind     Kind
	Tag      string // element tag name, lowercased
	Attrs    []Attr // element attributes in source order
	Data     string // decoded text payload for KindText
	Children []*Node
	Parent   *Node

	selfClosing bool
	rawStart    []byte // original start-tag bytes, or raw payload for text/raw
	rawEnd      []byte // original end-tag bytes, nil when implicitly closed
	dirty       bool
}

// Attr returns the value of the named attribute, or "" if absent.
func (n *Node) Attr(key string) string {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// SetAttr sets an attribute value, appending the attribute if it does not
// exist, and marks the node for re-rendering.
func (n *Node) SetAttr(key, val string) {
	for i := range n.Attrs {
		if n.Attrs[i].Key == key {
			n.Attrs[i].Val = val
			n.dirty = true
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Key: key, Val: val})
	n.dirty = true
}

// SetText replaces a text node's payload and marks it for re-rendering.
// The new payload is entity-escaped when serialized.
func (n *Node) SetText(s string) {
	n.Data = s
	n.dirty = true
}

// Dirty reports whether the node has been mutated since parse.
func (n *Node) Dirty() bool { return n.dirty }

func (n *Node) appendChild(c *Node) {
	c.Parent = n
	n.Children = append(n.Children, c)
}

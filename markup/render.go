package markup

import (
	"bytes"

	"golang.org/x/net/html"
)

// Render serializes the tree back to markup. Nodes untouched since Parse are
// emitted from their original bytes; only mutated nodes are re-rendered.
func Render(root *Node) []byte {
	var buf bytes.Buffer
	renderNode(&buf, root)
	return buf.Bytes()
}

func renderNode(buf *bytes.Buffer, n *Node) {
	switch n.Kind {
	case KindRoot:
		for _, c := range n.Children {
			renderNode(buf, c)
		}

	case KindElement:
		if n.dirty {
			renderStartTag(buf, n)
		} else {
			buf.Write(n.rawStart)
		}
		for _, c := range n.Children {
			renderNode(buf, c)
		}
		if n.rawEnd != nil {
			buf.Write(n.rawEnd)
		}

	case KindText:
		if n.dirty {
			buf.WriteString(html.EscapeString(n.Data))
		} else {
			buf.Write(n.rawStart)
		}

	case KindRaw:
		buf.Write(n.rawStart)
	}
}

func renderStartTag(buf *bytes.Buffer, n *Node) {
	buf.WriteByte('<')
	buf.WriteString(n.Tag)
	for _, a := range n.Attrs {
		buf.WriteByte(' ')
		buf.WriteString(a.Key)
		buf.WriteString(`="`)
		buf.WriteString(html.EscapeString(a.Val))
		buf.WriteByte('"')
	}
	if n.selfClosing {
		buf.WriteString("/>")
		return
	}
	buf.WriteByte('>')
}

package markup

import (
	"bytes"
	"io"

	"golang.org/x/net/html"
)

// voidElements take no children and no end tag (HTML spec §13.1.2).
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// Parse builds a document tree from raw markup. It never fails on malformed
// input: unbalanced or stray markup degrades to Raw nodes, which serialize
// verbatim, so no input is ever lossy.
func Parse(data []byte) (*Node, error) {
	root := &Node{Kind: KindRoot}
	stack := []*Node{root}
	top := func() *Node { return stack[len(stack)-1] }

	tz := html.NewTokenizer(bytes.NewReader(data))
	for {
		tt := tz.Next()
		if tt == html.ErrorToken {
			if err := tz.Err(); err != io.EOF {
				return nil, err
			}
			break
		}

		// Raw must be copied before TagName/TagAttr/Text, which unescape
		// in place over the same buffer.
		raw := append([]byte(nil), tz.Raw()...)

		switch tt {
		case html.TextToken:
			top().appendChild(&Node{
				Kind:     KindText,
				Data:     string(tz.Text()),
				rawStart: raw,
			})

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := tz.TagName()
			el := &Node{
				Kind:        KindElement,
				Tag:         string(name),
				selfClosing: tt == html.SelfClosingTagToken,
				rawStart:    raw,
			}
			for hasAttr {
				var k, v []byte
				k, v, hasAttr = tz.TagAttr()
				el.Attrs = append(el.Attrs, Attr{Key: string(k), Val: string(v)})
			}
			top().appendChild(el)
			if tt == html.StartTagToken && !voidElements[el.Tag] {
				stack = append(stack, el)
			}

		case html.EndTagToken:
			name, _ := tz.TagName()
			tag := string(name)
			idx := -1
			for i := len(stack) - 1; i > 0; i-- {
				if stack[i].Tag == tag {
					idx = i
					break
				}
			}
			if idx < 0 {
				// Stray end tag: keep it verbatim where it appeared.
				top().appendChild(&Node{Kind: KindRaw, rawStart: raw})
				continue
			}
			// Misnested tags above the match are implicitly closed
			// (no end-tag bytes of their own).
			stack[idx].rawEnd = raw
			stack = stack[:idx]

		case html.CommentToken, html.DoctypeToken:
			top().appendChild(&Node{Kind: KindRaw, rawStart: raw})
		}
	}

	// Anything still open at EOF is implicitly closed.
	return root, nil
}

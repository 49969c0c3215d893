package markup

import (
	"strings"
	"testing"
)

func TestRoundTripByteIdentity(t *testing.T) {
	inputs := []string{
		`<p>Hello world</p>`,
		`<p>Hello world</p><img src="a.jpg">`,
		"  leading text\n<div class='single'   data-x = \"y\" >inner</div>  trailing\n",
		`<!DOCTYPE html><html><head><title>T</title></head><body><p>x</p></body></html>`,
		`<!-- a comment --><p>after &amp; entities &lt;kept&gt;</p>`,
		`<ul><li>one<li>two<li>three</ul>`,
		`<b><i>misnested</b></i>`,
		`</div>stray end tag`,
		`<br><hr/><img src="x.png" alt="">void elements`,
		`<script>if (a < b && c > d) { go(); }</script>`,
		`<pre>
   spaced
	out
</pre>`,
		`no markup at all, just text`,
		`<SelfClosed attr="v"/>`,
		``,
	}

	for _, in := range inputs {
		root, err := Parse([]byte(in))
		if err != nil {
			t.Errorf("Parse(%q): %v", in, err)
			continue
		}
		out := string(Render(root))
		if out != in {
			t.Errorf("round trip mismatch:\n in: %q\nout: %q", in, out)
		}
	}
}

func TestParseStructure(t *testing.T) {
	root, err := Parse([]byte(`<p class="x">Hello <b>world</b></p><img src="a.jpg">`))
	if err != nil {
		t.Fatal(err)
	}
	if len(root.Children) != 2 {
		t.Fatalf("expected 2 top-level nodes, got %d", len(root.Children))
	}

	p := root.Children[0]
	if p.Kind != KindElement || p.Tag != "p" {
		t.Fatalf("expected <p>, got %s %q", p.Kind, p.Tag)
	}
	if p.Attr("class") != "x" {
		t.Fatalf("expected class=x, got %q", p.Attr("class"))
	}
	if len(p.Children) != 2 {
		t.Fatalf("expected 2 children of <p>, got %d", len(p.Children))
	}
	if p.Children[0].Kind != KindText || p.Children[0].Data != "Hello " {
		t.Fatalf("unexpected text child: %+v", p.Children[0])
	}
	if p.Children[1].Parent != p {
		t.Fatal("parent back-reference not set")
	}

	img := root.Children[1]
	if img.Tag != "img" || img.Attr("src") != "a.jpg" {
		t.Fatalf("unexpected img node: %+v", img)
	}
	if len(img.Children) != 0 {
		t.Fatal("void element must not take children")
	}
}

func TestSetTextEscapes(t *testing.T) {
	root, err := Parse([]byte(`<p>old</p>`))
	if err != nil {
		t.Fatal(err)
	}
	text := root.Children[0].Children[0]
	text.SetText(`a < b & "c"`)

	out := string(Render(root))
	if !strings.Contains(out, "a &lt; b &amp;") {
		t.Fatalf("mutated text not escaped: %q", out)
	}
	if strings.Contains(out, "a < b") {
		t.Fatalf("raw text leaked into output: %q", out)
	}
}

func TestSetAttrRerendersOnlyThatTag(t *testing.T) {
	in := `<div   keep = "spacing" ><img   SRC="a.jpg"  alt="pic"><p>text</p></div>`
	root, err := Parse([]byte(in))
	if err != nil {
		t.Fatal(err)
	}
	img := root.Children[0].Children[0]
	img.SetAttr("src", "a.png")

	out := string(Render(root))
	if !strings.Contains(out, `<img src="a.png" alt="pic">`) {
		t.Fatalf("attribute not rewritten: %q", out)
	}
	// Untouched sibling markup keeps its original spacing.
	if !strings.Contains(out, `<div   keep = "spacing" >`) {
		t.Fatalf("untouched markup was normalized: %q", out)
	}
	if !strings.Contains(out, "<p>text</p>") {
		t.Fatalf("sibling lost: %q", out)
	}
}

func TestSetAttrAppendsMissing(t *testing.T) {
	root, err := Parse([]byte(`<img src="a.jpg">`))
	if err != nil {
		t.Fatal(err)
	}
	img := root.Children[0]
	img.SetAttr("alt", "added")
	out := string(Render(root))
	if !strings.Contains(out, `alt="added"`) {
		t.Fatalf("appended attribute missing: %q", out)
	}
}

func TestEntitiesDecodedButPreserved(t *testing.T) {
	in := `<p>Tom &amp; Jerry</p>`
	root, err := Parse([]byte(in))
	if err != nil {
		t.Fatal(err)
	}
	text := root.Children[0].Children[0]
	if text.Data != "Tom & Jerry" {
		t.Fatalf("expected decoded payload, got %q", text.Data)
	}
	if out := string(Render(root)); out != in {
		t.Fatalf("untouched entity text must survive verbatim: %q", out)
	}
}

package rewrite

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/redraft/budget"
	"github.com/hazyhaar/redraft/imaging"
	"github.com/hazyhaar/redraft/workspace"
)

// fakeRephraser counts calls and returns a fixed replacement (or the input
// when Out is empty). Err, when set, fails every call.
type fakeRephraser struct {
	calls int
	out   string
	err   error
	// failOn makes only the nth call (1-based) fail.
	failOn int
	// onCall runs before each call returns, for cancellation tests.
	onCall func()
	// outFor overrides out with a per-input replacement.
	outFor func(string) string
}

func (f *fakeRephraser) Rephrase(_ context.Context, text string) (string, error) {
	f.calls++
	if f.onCall != nil {
		f.onCall()
	}
	if f.err != nil {
		return "", f.err
	}
	if f.failOn != 0 && f.calls == f.failOn {
		return "", errors.New("capability down")
	}
	if f.outFor != nil {
		return f.outFor(text), nil
	}
	if f.out == "" {
		return text, nil
	}
	return f.out, nil
}

func (f *fakeRephraser) Model() string { return "fake" }

type fakeRegenerator struct {
	calls int
	out   []byte
	err   error
}

func (f *fakeRegenerator) Regenerate(_ context.Context, png []byte) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.out == nil {
		return png, nil
	}
	return f.out, nil
}

// countingResolver wraps another resolver and counts Resolve calls.
type countingResolver struct {
	inner workspace.Resolver
	calls int
}

func (c *countingResolver) Resolve(ref string) (string, error) {
	c.calls++
	if c.inner == nil {
		return "", workspace.ErrNotFound
	}
	return c.inner.Resolve(ref)
}

func process(t *testing.T, p *Pipeline, doc string) (string, *Report) {
	t.Helper()
	cfg := p.Config()
	b := budget.New(cfg.TextLimit, cfg.ImageLimit)
	out, rep, err := p.Process(context.Background(), doc, b)
	if err != nil {
		t.Fatal(err)
	}
	return out, rep
}

func TestRoundTripOnNoopCapabilities(t *testing.T) {
	docs := []string{
		`<p>Hello world</p><img src="a.jpg">`,
		"<div>\n  <p>spaced   text</p>\n  <!-- comment -->\n</div>\n",
		`<html><body><h1>Title &amp; more</h1><ul><li>a<li>b</ul></body></html>`,
	}

	// Identity rephraser, image processing disabled: output must be
	// byte-identical to input, and nothing counts as rewritten.
	p := New(Config{TextLimit: 100, ImageLimit: 0}, Deps{})
	for _, doc := range docs {
		out, rep := process(t, p, doc)
		if out != doc {
			t.Errorf("round trip mismatch:\n in: %q\nout: %q", doc, out)
		}
		if rep.TextRewritten != 0 {
			t.Errorf("identity output reported as %d rewrite(s) for %q", rep.TextRewritten, doc)
		}
	}
}

func TestIdentityReplacementNotCountedAsRewrite(t *testing.T) {
	doc := `<p>same</p><p>other</p>`
	// The capability echoes one node and changes the other.
	rp := &fakeRephraser{}
	rp.outFor = func(text string) string {
		if text == "other" {
			return "changed"
		}
		return text
	}

	p := New(Config{TextLimit: 10}, Deps{Rephraser: rp})
	out, rep := process(t, p, doc)

	if rp.calls != 2 {
		t.Fatalf("both nodes must be sent, got %d calls", rp.calls)
	}
	if rep.TextRewritten != 1 {
		t.Fatalf("only the changed node counts as rewritten: %+v", rep)
	}
	if rep.Budget.TextUsed != 2 {
		t.Fatalf("both calls still consume budget: %+v", rep.Budget)
	}
	if out != `<p>same</p><p>changed</p>` {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestBudgetRespected(t *testing.T) {
	doc := `<p>one</p><p>two</p><p>three</p><p>four</p><p>five</p>`
	rp := &fakeRephraser{out: "X"}

	p := New(Config{TextLimit: 2}, Deps{Rephraser: rp})
	out, rep := process(t, p, doc)

	if rp.calls != 2 {
		t.Fatalf("expected exactly 2 rephraser calls, got %d", rp.calls)
	}
	if rep.TextRewritten != 2 || rep.SkippedBudget != 3 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	// Document order: the first two candidates are rewritten.
	want := `<p>X</p><p>X</p><p>three</p><p>four</p><p>five</p>`
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestImageDisabledDeterministically(t *testing.T) {
	root := t.TempDir()
	asset := filepath.Join(root, "a.jpg")
	original := encodePNG(t, testImage(8, 8))
	if err := os.WriteFile(asset, original, 0o644); err != nil {
		t.Fatal(err)
	}

	res := &countingResolver{}
	gen := &fakeRegenerator{out: []byte("should never be written")}
	p := New(Config{TextLimit: 0, ImageLimit: 0}, Deps{Regenerator: gen, Resolver: res})

	doc := `<img src="a.jpg"><img src="b.jpg"><img src="c.jpg">`
	out, rep := process(t, p, doc)

	if out != doc {
		t.Fatalf("document mutated with images disabled: %q", out)
	}
	if res.calls != 0 || gen.calls != 0 {
		t.Fatalf("expected zero image work, got resolve=%d regenerate=%d", res.calls, gen.calls)
	}
	if rep.SkippedBudget != 3 {
		t.Fatalf("expected 3 budget skips, got %+v", rep)
	}
	if data, _ := os.ReadFile(asset); !bytes.Equal(data, original) {
		t.Fatal("asset file modified with images disabled")
	}
	if _, err := os.Stat(filepath.Join(root, "a.png")); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("replacement file written with images disabled")
	}
}

func TestWhitespacePreserved(t *testing.T) {
	doc := "<p>  Hello world  \n</p>"
	p := New(Config{TextLimit: 1}, Deps{Rephraser: &fakeRephraser{out: "Greetings, world"}})

	out, _ := process(t, p, doc)
	want := "<p>  Greetings, world  \n</p>"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestEndToEndScenario(t *testing.T) {
	doc := `<p>Hello world</p><img src="a.jpg">`
	p := New(Config{TextLimit: 1, ImageLimit: 0}, Deps{Rephraser: &fakeRephraser{out: "Greetings, world"}})

	out, rep := process(t, p, doc)
	want := `<p>Greetings, world</p><img src="a.jpg">`
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
	if rep.TextRewritten != 1 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if !strings.HasSuffix(out, `<img src="a.jpg">`) {
		t.Fatal("image node must be byte-for-byte unchanged")
	}
}

func TestCapabilityFailureIsolated(t *testing.T) {
	doc := `<p>one</p><p>two</p><p>three</p>`
	rp := &fakeRephraser{out: "X", failOn: 2}

	p := New(Config{TextLimit: 10}, Deps{Rephraser: rp})
	out, rep := process(t, p, doc)

	want := `<p>X</p><p>two</p><p>X</p>`
	if out != want {
		t.Fatalf("one bad node must not poison the rest:\ngot  %q\nwant %q", out, want)
	}
	if rep.SkippedFailed != 1 || rep.TextRewritten != 2 {
		t.Fatalf("unexpected report: %+v", rep)
	}
}

func TestSanitizedReplacement(t *testing.T) {
	doc := `<p>plain</p>`
	rp := &fakeRephraser{out: `injected <script>alert(1)</script> & <b>bold</b> text`}

	p := New(Config{TextLimit: 1}, Deps{Rephraser: rp})
	out, _ := process(t, p, doc)

	if strings.Contains(out, "<script>") || strings.Contains(out, "<b>") {
		t.Fatalf("markup leaked from capability output: %q", out)
	}
	if !strings.Contains(out, "&amp;") {
		t.Fatalf("replacement text not escaped on render: %q", out)
	}
}

func TestCancellationKeepsCompletedEdits(t *testing.T) {
	doc := `<p>one</p><p>two</p><p>three</p>`
	ctx, cancelFn := context.WithCancel(context.Background())
	rp := &fakeRephraser{out: "X", onCall: cancelFn}

	p := New(Config{TextLimit: 10}, Deps{Rephraser: rp})
	b := budget.New(10, 0)
	out, rep, err := p.Process(ctx, doc, b)
	if err != nil {
		t.Fatal(err)
	}

	if !rep.Canceled {
		t.Fatal("report must flag cancellation")
	}
	if rp.calls != 1 {
		t.Fatalf("walk must stop at the next node boundary, got %d calls", rp.calls)
	}
	want := `<p>X</p><p>two</p><p>three</p>`
	if out != want {
		t.Fatalf("completed edits must survive cancellation:\ngot  %q\nwant %q", out, want)
	}
}

func TestImageRegenerationRewritesReference(t *testing.T) {
	root := t.TempDir()
	asset := filepath.Join(root, "pics", "photo.jpg")
	if err := os.MkdirAll(filepath.Dir(asset), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(asset, encodePNG(t, testImage(10, 10)), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := workspace.NewDirResolver(workspace.Config{Root: root})
	if err != nil {
		t.Fatal(err)
	}
	generated := encodePNG(t, testImage(4, 4))
	gen := &fakeRegenerator{out: generated}

	p := New(Config{TextLimit: 0, ImageLimit: 1}, Deps{Regenerator: gen, Resolver: res})
	doc := `<p>kept</p><img src="pics/photo.jpg" alt="pic">`
	out, rep := process(t, p, doc)

	if rep.ImagesRegenerated != 1 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if !strings.Contains(out, `src="pics/photo.png"`) {
		t.Fatalf("source attribute not rewritten: %q", out)
	}
	if !strings.Contains(out, `alt="pic"`) {
		t.Fatalf("other attributes must survive: %q", out)
	}

	written, err := os.ReadFile(filepath.Join(root, "pics", "photo.png"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(written, generated) {
		t.Fatal("generated bytes not written to the renamed asset")
	}
}

func TestImageNotFoundIsNodeLocal(t *testing.T) {
	res, err := workspace.NewDirResolver(workspace.Config{Root: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	rp := &fakeRephraser{out: "X"}
	p := New(Config{TextLimit: 10, ImageLimit: 5}, Deps{Rephraser: rp, Resolver: res})

	doc := `<img src="missing.jpg"><p>still here</p>`
	out, rep := process(t, p, doc)

	if rep.SkippedMissing != 1 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if !strings.Contains(out, `<img src="missing.jpg">`) {
		t.Fatalf("missing image node must stay untouched: %q", out)
	}
	if !strings.Contains(out, "<p>X</p>") {
		t.Fatalf("walk must continue past a missing asset: %q", out)
	}
}

func TestNormalizationFailureIsNodeLocal(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "bad.jpg"), []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := workspace.NewDirResolver(workspace.Config{Root: root})
	if err != nil {
		t.Fatal(err)
	}

	p := New(Config{ImageLimit: 1}, Deps{Resolver: res, Normalizer: imaging.New(imaging.Config{})})
	doc := `<img src="bad.jpg">`
	out, rep := process(t, p, doc)

	if rep.SkippedNormalize != 1 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if out != doc {
		t.Fatalf("node must stay untouched on normalization failure: %q", out)
	}
}

func TestScriptAndStyleTextNotRephrased(t *testing.T) {
	doc := `<script>var x = 1;</script><style>p { color: red }</style><p>prose</p>`
	rp := &fakeRephraser{out: "X"}

	p := New(Config{TextLimit: 10}, Deps{Rephraser: rp})
	out, _ := process(t, p, doc)

	if rp.calls != 1 {
		t.Fatalf("only the prose node should reach the rephraser, got %d calls", rp.calls)
	}
	if !strings.Contains(out, "var x = 1;") || !strings.Contains(out, "color: red") {
		t.Fatalf("non-prose content mutated: %q", out)
	}
}

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 20), G: uint8(y * 20), B: 128, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

package rewrite

import (
	"context"
	"errors"
	stdhtml "html"
	"os"
	"path/filepath"
	"strings"

	"github.com/hazyhaar/redraft/budget"
	"github.com/hazyhaar/redraft/markup"
	"github.com/hazyhaar/redraft/workspace"
)

// nonProse elements carry no human prose; their subtrees are not descended.
var nonProse = map[string]bool{
	"script": true, "style": true, "noscript": true,
	"textarea": true, "code": true, "pre": true,
}

// walker carries the per-document traversal state. One walker per Process
// call; the budget may be shared across documents within a run.
type walker struct {
	p        *Pipeline
	budget   *budget.Budget
	rep      *Report
	canceled bool
}

// walk visits n and its descendants pre-order, children in document order.
// Cancellation is checked at every node boundary; a canceled walk stops
// descending but leaves completed edits intact.
func (w *walker) walk(ctx context.Context, n *markup.Node) {
	if w.canceled {
		return
	}
	select {
	case <-ctx.Done():
		w.cancel()
		return
	default:
	}

	switch n.Kind {
	case markup.KindText:
		w.visitText(ctx, n)
	case markup.KindElement:
		if n.Tag == w.p.cfg.ImageTag {
			w.visitImage(ctx, n)
		}
		if nonProse[n.Tag] {
			return
		}
	}

	for _, c := range n.Children {
		w.walk(ctx, c)
		if w.canceled {
			return
		}
	}
}

func (w *walker) cancel() {
	w.canceled = true
	w.rep.Canceled = true
}

// visitText rephrases a non-whitespace text node. Only the trimmed content is
// sent to the capability; the replacement is substituted for that trimmed
// substring so surrounding whitespace survives verbatim.
func (w *walker) visitText(ctx context.Context, n *markup.Node) {
	trimmed := strings.TrimSpace(n.Data)
	if trimmed == "" {
		return
	}
	// Budget exhaustion suppresses the call but the walk continues, so the
	// report can still count every remaining candidate.
	if !w.budget.Reserve(budget.Text) {
		w.rep.SkippedBudget++
		return
	}

	out, err := w.p.deps.Rephraser.Rephrase(ctx, trimmed)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			w.cancel()
			return
		}
		w.p.cfg.Logger.Warn("rephrase failed, node skipped", "error", err)
		w.rep.SkippedFailed++
		return
	}

	plain := strings.TrimSpace(stdhtml.UnescapeString(w.p.sanitize.Sanitize(out)))
	if plain == "" {
		w.p.cfg.Logger.Warn("rephrase produced no usable text, node skipped")
		w.rep.SkippedFailed++
		return
	}

	i := strings.Index(n.Data, trimmed)
	newData := n.Data[:i] + plain + n.Data[i+len(trimmed):]
	// An unchanged payload keeps the node clean, so its original bytes
	// (entities included) survive serialization — and it is not a rewrite.
	if newData == n.Data {
		return
	}
	n.SetText(newData)
	w.rep.TextRewritten++
}

// visitImage regenerates the asset referenced by an image element and
// rewrites its source attribute. The attribute is touched only after the
// replacement bytes are safely on disk.
func (w *walker) visitImage(ctx context.Context, n *markup.Node) {
	ref := strings.TrimSpace(n.Attr(w.p.cfg.SrcAttr))
	if ref == "" {
		return
	}
	if !w.budget.Reserve(budget.Image) {
		w.rep.SkippedBudget++
		return
	}

	path, err := w.p.deps.Resolver.Resolve(ref)
	if err != nil {
		if errors.Is(err, workspace.ErrNotFound) {
			w.p.cfg.Logger.Debug("image asset not found, node skipped", "ref", ref)
			w.rep.SkippedMissing++
		} else {
			w.p.cfg.Logger.Warn("image resolve failed, node skipped", "ref", ref, "error", err)
			w.rep.SkippedFailed++
		}
		return
	}

	src, err := os.ReadFile(path)
	if err != nil {
		w.p.cfg.Logger.Warn("image read failed, node skipped", "path", path, "error", err)
		w.rep.SkippedFailed++
		return
	}

	norm, err := w.p.deps.Normalizer.Normalize(ctx, src)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			w.cancel()
			return
		}
		w.p.cfg.Logger.Warn("image normalization failed, node skipped", "path", path, "error", err)
		w.rep.SkippedNormalize++
		return
	}

	generated, err := w.p.deps.Regenerator.Regenerate(ctx, norm.PNG)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			w.cancel()
			return
		}
		w.p.cfg.Logger.Warn("image regeneration failed, node skipped", "path", path, "error", err)
		w.rep.SkippedFailed++
		return
	}

	outPath := replaceExt(path, ".png")
	if err := os.WriteFile(outPath, generated, 0o644); err != nil {
		w.p.cfg.Logger.Warn("image write failed, node skipped", "path", outPath, "error", err)
		w.rep.SkippedFailed++
		return
	}

	if newRef := replaceExt(ref, ".png"); newRef != ref {
		n.SetAttr(w.p.cfg.SrcAttr, newRef)
	}
	w.rep.ImagesRegenerated++
	w.p.cfg.Logger.Debug("image regenerated", "ref", ref, "path", outPath,
		"width", norm.Width, "height", norm.Height, "passes", norm.Passes)
}

// replaceExt rewrites a path's extension, preserving directory and base name.
func replaceExt(p, ext string) string {
	return strings.TrimSuffix(p, filepath.Ext(p)) + ext
}

package rewrite

import (
	"context"
	"fmt"
	"os"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/hazyhaar/redraft/budget"
)

// Provider is the host document contract: full text in, one whole-text
// replacement out. Nothing incremental, nothing streamed.
type Provider interface {
	ReadDocument(ctx context.Context, ref string) (string, error)
	WriteDocument(ctx context.Context, ref string, text string) error
}

// FileProvider reads and writes documents as files on disk.
type FileProvider struct{}

func (FileProvider) ReadDocument(_ context.Context, ref string) (string, error) {
	data, err := os.ReadFile(ref)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (FileProvider) WriteDocument(_ context.Context, ref string, text string) error {
	return os.WriteFile(ref, []byte(text), 0o644)
}

// Runner processes documents one at a time, in the order given, with one
// budget shared across the whole run. A failed document never aborts the run.
type Runner struct {
	pipe     *Pipeline
	provider Provider
}

// NewRunner creates a Runner over the given pipeline and document provider.
func NewRunner(pipe *Pipeline, provider Provider) *Runner {
	if provider == nil {
		provider = FileProvider{}
	}
	return &Runner{pipe: pipe, provider: provider}
}

// Run processes refs sequentially and returns the aggregated report.
func (r *Runner) Run(ctx context.Context, refs []string) *Report {
	cfg := r.pipe.Config()
	b := budget.New(cfg.TextLimit, cfg.ImageLimit)
	total := &Report{}
	dmp := diffmatchpatch.New()

	for _, ref := range refs {
		if ctx.Err() != nil {
			total.Canceled = true
			break
		}

		if err := r.processOne(ctx, dmp, ref, b, total); err != nil {
			cfg.Logger.Warn("document failed", "ref", ref, "error", err)
			total.DocumentsFailed++
		}
	}

	total.Budget = b.Snapshot()
	cfg.Logger.Info("run finished", "summary", total.Summary())
	return total
}

func (r *Runner) processOne(ctx context.Context, dmp *diffmatchpatch.DiffMatchPatch, ref string, b *budget.Budget, total *Report) error {
	cfg := r.pipe.Config()

	text, err := r.provider.ReadDocument(ctx, ref)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	out, rep, err := r.pipe.Process(ctx, text, b)
	if err != nil {
		return err
	}

	if out != text {
		for _, d := range dmp.DiffMain(text, out, false) {
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				rep.CharsAdded += len(d.Text)
			case diffmatchpatch.DiffDelete:
				rep.CharsRemoved += len(d.Text)
			}
		}
		if err := r.provider.WriteDocument(ctx, ref, out); err != nil {
			return fmt.Errorf("write: %w", err)
		}
	}

	total.Merge(rep)
	cfg.Logger.Info("document processed", "ref", ref,
		"text_rewritten", rep.TextRewritten,
		"images_regenerated", rep.ImagesRegenerated,
		"skipped", rep.Skipped(),
		"chars_added", rep.CharsAdded,
		"chars_removed", rep.CharsRemoved)
	return nil
}

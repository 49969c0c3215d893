// Package rewrite regenerates human-visible content inside markup documents:
// prose text nodes are sent to a rephrasing capability and referenced raster
// images are normalized and replaced with AI-generated variations, all under
// a per-run generation budget.
//
// The pipeline parses a document into a raw-preserving tree (package markup),
// walks it depth-first in document order, mutates eligible nodes in place,
// and serializes the tree back. Untouched regions of the document survive
// byte-for-byte.
//
// Every external dependency — rephraser, image generator, image normalizer,
// workspace resolver — is an injected interface, and every per-node call is
// wrapped in its own failure boundary: a bad node is logged, counted, and
// skipped, never allowed to invalidate the rest of the document.
//
// Usage:
//
//	pipe := rewrite.New(rewrite.Config{TextLimit: 30}, rewrite.Deps{
//	    Rephraser: rephrase.New(rephraseCfg),
//	})
//	b := budget.New(30, 0)
//	out, report, err := pipe.Process(ctx, documentText, b)
package rewrite

import (
	"context"
	"fmt"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hazyhaar/redraft/budget"
	"github.com/hazyhaar/redraft/imagegen"
	"github.com/hazyhaar/redraft/imaging"
	"github.com/hazyhaar/redraft/markup"
	"github.com/hazyhaar/redraft/rephrase"
	"github.com/hazyhaar/redraft/workspace"
)

// Normalizer is the image-normalization contract consumed by the walker.
// *imaging.Normalizer satisfies it.
type Normalizer interface {
	Normalize(ctx context.Context, src []byte) (*imaging.Normalized, error)
}

// Deps are the injected capabilities. Nil fields fall back to no-op
// implementations (identity rephraser/regenerator, default normalizer,
// nothing-resolves resolver).
type Deps struct {
	Rephraser   rephrase.Rephraser
	Regenerator imagegen.Regenerator
	Normalizer  Normalizer
	Resolver    workspace.Resolver
}

// Pipeline rewrites one document at a time. It holds no per-document state
// and may be reused across documents and runs.
type Pipeline struct {
	cfg      Config
	deps     Deps
	sanitize *bluemonday.Policy
}

// New creates a Pipeline with the given configuration and capabilities.
func New(cfg Config, deps Deps) *Pipeline {
	cfg.defaults()
	if deps.Rephraser == nil {
		deps.Rephraser = rephrase.New(rephrase.Config{Logger: cfg.Logger})
	}
	if deps.Regenerator == nil {
		deps.Regenerator = imagegen.New(imagegen.Config{Logger: cfg.Logger})
	}
	if deps.Normalizer == nil {
		deps.Normalizer = imaging.New(imaging.Config{Logger: cfg.Logger})
	}
	if deps.Resolver == nil {
		deps.Resolver = unresolvable{}
	}
	return &Pipeline{
		cfg:  cfg,
		deps: deps,
		// Capability output may contain markup; only plain text may enter
		// a text node.
		sanitize: bluemonday.StrictPolicy(),
	}
}

// Config returns the pipeline's effective configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Process parses documentText, rewrites eligible nodes against the given
// budget, and returns the serialized result plus a per-document report.
//
// A parse failure is fatal for this document only. Node-level failures never
// surface here; they are counted in the report. Cancellation stops the walk
// at the next node boundary and the partially mutated document is still
// serialized and returned, so completed edits are never lost.
func (p *Pipeline) Process(ctx context.Context, documentText string, b *budget.Budget) (string, *Report, error) {
	rep := &Report{}
	root, err := markup.Parse([]byte(documentText))
	if err != nil {
		return "", rep, fmt.Errorf("parse document: %w", err)
	}

	w := &walker{p: p, budget: b, rep: rep}
	w.walk(ctx, root)

	out := string(markup.Render(root))
	rep.Documents = 1
	rep.Budget = b.Snapshot()
	return out, rep, nil
}

// unresolvable is the resolver used when none is injected: every image
// reference is treated as an asset that cannot be located.
type unresolvable struct{}

func (unresolvable) Resolve(string) (string, error) { return "", workspace.ErrNotFound }

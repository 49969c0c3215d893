package rewrite

import (
	"fmt"

	"github.com/hazyhaar/redraft/budget"
)

// Report accumulates what happened during a run: nodes rewritten, nodes
// skipped per reason, and the final budget state.
type Report struct {
	Documents       int `json:"documents"`
	DocumentsFailed int `json:"documents_failed"`

	TextRewritten     int `json:"text_rewritten"`
	ImagesRegenerated int `json:"images_regenerated"`

	SkippedBudget    int `json:"skipped_budget"`    // reservation refused
	SkippedMissing   int `json:"skipped_missing"`   // asset not found in workspace
	SkippedNormalize int `json:"skipped_normalize"` // image could not be normalized
	SkippedFailed    int `json:"skipped_failed"`    // capability or I/O failure

	// CharsAdded/CharsRemoved summarize the textual delta across documents.
	CharsAdded   int `json:"chars_added"`
	CharsRemoved int `json:"chars_removed"`

	Canceled bool `json:"canceled"`

	Budget budget.Snapshot `json:"budget"`
}

// Merge folds another report's counters into r. The budget snapshot is not
// merged; the budget owner sets it once at the end of the run.
func (r *Report) Merge(o *Report) {
	r.Documents += o.Documents
	r.DocumentsFailed += o.DocumentsFailed
	r.TextRewritten += o.TextRewritten
	r.ImagesRegenerated += o.ImagesRegenerated
	r.SkippedBudget += o.SkippedBudget
	r.SkippedMissing += o.SkippedMissing
	r.SkippedNormalize += o.SkippedNormalize
	r.SkippedFailed += o.SkippedFailed
	r.CharsAdded += o.CharsAdded
	r.CharsRemoved += o.CharsRemoved
	r.Canceled = r.Canceled || o.Canceled
}

// Skipped is the total number of candidate nodes left unmodified.
func (r *Report) Skipped() int {
	return r.SkippedBudget + r.SkippedMissing + r.SkippedNormalize + r.SkippedFailed
}

// Summary renders one human-readable line.
func (r *Report) Summary() string {
	s := fmt.Sprintf("%d document(s): %d text rewritten, %d image(s) regenerated, %d skipped (%d budget, %d missing, %d normalize, %d failed)",
		r.Documents, r.TextRewritten, r.ImagesRegenerated, r.Skipped(),
		r.SkippedBudget, r.SkippedMissing, r.SkippedNormalize, r.SkippedFailed)
	if r.DocumentsFailed > 0 {
		s += fmt.Sprintf(", %d document(s) failed", r.DocumentsFailed)
	}
	if r.Canceled {
		s += ", canceled"
	}
	return s
}

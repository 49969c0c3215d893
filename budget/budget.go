// Package budget tracks the remaining text/image regeneration quota for one
// run. A Budget is the single point of truth for "how many more generation
// calls are allowed": no component may invoke a capability without a
// successful reservation first.
//
// A Budget is owned by exactly one run and discarded at its end. The walk is
// single-threaded and cooperative, so Reserve needs no lock.
package budget

// Kind selects which quota a reservation draws from.
type Kind int

const (
	Text Kind = iota
	Image
)

func (k Kind) String() string {
	if k == Image {
		return "image"
	}
	return "text"
}

// Budget holds the per-run limits and usage counters.
type Budget struct {
	textLimit  int
	imageLimit int
	textUsed   int
	imageUsed  int
}

// New creates a Budget with the given limits. Negative limits clamp to zero.
func New(textLimit, imageLimit int) *Budget {
	if textLimit < 0 {
		textLimit = 0
	}
	if imageLimit < 0 {
		imageLimit = 0
	}
	return &Budget{textLimit: textLimit, imageLimit: imageLimit}
}

// Reserve attempts to take one unit of the given kind. It returns true and
// increments the usage counter iff used < limit; on failure it returns false
// without mutating anything.
func (b *Budget) Reserve(k Kind) bool {
	switch k {
	case Image:
		if b.imageUsed >= b.imageLimit {
			return false
		}
		b.imageUsed++
	default:
		if b.textUsed >= b.textLimit {
			return false
		}
		b.textUsed++
	}
	return true
}

// Remaining reports how many reservations of the given kind are still
// available.
func (b *Budget) Remaining(k Kind) int {
	if k == Image {
		return b.imageLimit - b.imageUsed
	}
	return b.textLimit - b.textUsed
}

// Exhausted reports whether the given kind has no reservations left.
func (b *Budget) Exhausted(k Kind) bool { return b.Remaining(k) <= 0 }

// Snapshot is a point-in-time copy of the counters, for run reports.
type Snapshot struct {
	TextLimit  int `json:"text_limit"`
	TextUsed   int `json:"text_used"`
	ImageLimit int `json:"image_limit"`
	ImageUsed  int `json:"image_used"`
}

// Snapshot returns the current counters.
func (b *Budget) Snapshot() Snapshot {
	return Snapshot{
		TextLimit:  b.textLimit,
		TextUsed:   b.textUsed,
		ImageLimit: b.imageLimit,
		ImageUsed:  b.imageUsed,
	}
}

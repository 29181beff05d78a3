package pattern

import (
	"time"

	"github.com/roach88/cascade/internal/grid"
)

// DefaultMaxPerKind caps how many patterns a single recognizer may return
// in one pass. A safety valve, not a tuning knob: recognizers in this
// engine emit at most one pattern per pass today.
const DefaultMaxPerKind = 8

// Context carries the immutable parameters of a single recognition pass.
type Context struct {
	// Trigger is the position whose recent change seeds this pass.
	Trigger grid.Position

	// Kinds restricts which pattern kinds to search.
	// Empty means "all enabled kinds".
	Kinds []Kind

	// MaxPerKind caps results per kind. Zero or negative means
	// DefaultMaxPerKind.
	MaxPerKind int

	// StartedAt records when the pass began. Diagnostic only - never
	// feeds into recognition results.
	StartedAt time.Time
}

// NewContext creates a context for a recognition pass at trigger,
// searching all enabled kinds with the default cap.
func NewContext(trigger grid.Position) Context {
	return Context{
		Trigger:    trigger,
		MaxPerKind: DefaultMaxPerKind,
		StartedAt:  time.Now(),
	}
}

// WantsKind reports whether this pass should search the given kind.
// An empty kind filter matches every kind.
func (c Context) WantsKind(k Kind) bool {
	if len(c.Kinds) == 0 {
		return true
	}
	for _, want := range c.Kinds {
		if want == k {
			return true
		}
	}
	return false
}

// PerKindCap returns the effective per-kind result cap.
func (c Context) PerKindCap() int {
	if c.MaxPerKind > 0 {
		return c.MaxPerKind
	}
	return DefaultMaxPerKind
}

// Package pattern defines the pattern model and the recognizers that
// detect candidate patterns on the grid.
//
// Recognizers are pure readers: they never mutate the grid. A recognized
// Pattern is a candidate describing a possible consequence - applying it
// is the engine executors' job, and they re-validate against the live
// grid first.
package pattern

// Kind identifies a pattern category.
//
// Kinds carry an integer priority used purely for conflict resolution,
// not recognition: transmute outranks merge outranks match. Whether a
// kind is searched at all is a separate concern, gated by the host's
// progression state (see Gate).
type Kind string

const (
	// KindMatch is the default-enabled connected-group removal pattern.
	KindMatch Kind = "match"

	// KindMerge consolidates a same-type, same-tier group into one block
	// of the next tier. Unlock-gated.
	KindMerge Kind = "merge"

	// KindTransmute converts a large same-type group into a block of the
	// next type. Unlock-gated.
	KindTransmute Kind = "transmute"
)

// Kind priorities. Higher wins conflict resolution.
const (
	PriorityMatch     = 1
	PriorityMerge     = 2
	PriorityTransmute = 3
)

// Priority returns the kind's resolution priority, or 0 for unknown kinds.
func (k Kind) Priority() int {
	switch k {
	case KindMatch:
		return PriorityMatch
	case KindMerge:
		return PriorityMerge
	case KindTransmute:
		return PriorityTransmute
	default:
		return 0
	}
}

// Known reports whether k is one of the engine's closed kind set.
func (k Kind) Known() bool {
	return k == KindMatch || k == KindMerge || k == KindTransmute
}

// Kinds returns the closed kind set in priority order, lowest first.
func Kinds() []Kind {
	return []Kind{KindMatch, KindMerge, KindTransmute}
}

// Gate answers whether a pattern kind is currently enabled.
//
// Enablement is progression/unlock state owned by the host; the engine
// only consults it. GateAll and GateSet cover the common cases, and the
// rules package compiles CUE configs into a Gate.
type Gate interface {
	Enabled(k Kind) bool
}

// GateAll enables every kind. Used by tests and the default demo setup.
type GateAll struct{}

// Enabled always returns true.
func (GateAll) Enabled(Kind) bool { return true }

// GateSet enables exactly the listed kinds.
type GateSet map[Kind]bool

// Enabled returns true if the kind is in the set.
func (g GateSet) Enabled(k Kind) bool { return g[k] }

// NewGateSet builds a GateSet from a kind list.
func NewGateSet(kinds ...Kind) GateSet {
	g := make(GateSet, len(kinds))
	for _, k := range kinds {
		g[k] = true
	}
	return g
}

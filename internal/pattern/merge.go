package pattern

import "github.com/roach88/cascade/internal/grid"

// MinMergeGroup is the default minimum group size for a merge.
const MinMergeGroup = 3

// MergeRecognizer finds connected groups of same type AND same tier and
// emits a pattern that consolidates them into one block of the next tier
// at the trigger position.
//
// Merge is unlock-gated: it participates in recognition only when the
// host's Gate enables KindMerge.
type MergeRecognizer struct {
	minGroup int
}

// NewMergeRecognizer creates a merge recognizer with the default minimum
// group size of 3.
func NewMergeRecognizer() *MergeRecognizer {
	return &MergeRecognizer{minGroup: MinMergeGroup}
}

// NewMergeRecognizerWithMin creates a merge recognizer with a custom
// minimum group size. Values below 2 are clamped to 2.
func NewMergeRecognizerWithMin(minGroup int) *MergeRecognizer {
	if minGroup < 2 {
		minGroup = 2
	}
	return &MergeRecognizer{minGroup: minGroup}
}

// Kind returns KindMerge.
func (r *MergeRecognizer) Kind() Kind { return KindMerge }

// CanRecognizeAt returns false when the trigger cell is empty or has no
// orthogonal neighbor of the same type and tier.
func (r *MergeRecognizer) CanRecognizeAt(s *grid.Store, pos grid.Position) bool {
	return hasSameTypeNeighbor(s, pos, true)
}

// Recognize flood-fills over same-type, same-tier blocks and emits one
// merge pattern when the group reaches the minimum size. The merged
// block lands at the trigger with tier+1.
func (r *MergeRecognizer) Recognize(s *grid.Store, trigger grid.Position, ctx Context) ([]Pattern, error) {
	blocks, _ := floodFill(s, trigger, true)
	if len(blocks) < r.minGroup {
		return nil, nil
	}

	origin, _ := s.BlockAt(trigger)
	p, err := New(KindMerge, positionsOf(blocks), origin.Type, origin.Tier, Outcome{
		Effect:     EffectMerge,
		Anchor:     trigger,
		ResultType: origin.Type,
		ResultTier: origin.Tier + 1,
	})
	if err != nil {
		return nil, err
	}
	return []Pattern{p}, nil
}

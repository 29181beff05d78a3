package pattern

import "github.com/roach88/cascade/internal/grid"

// MinMatchGroup is the default minimum connected-group size for a match.
const MinMatchGroup = 3

// MatchRecognizer finds connected same-type groups of at least minGroup
// blocks and emits one removal pattern per trigger.
//
// Connectivity is orthogonal only: diagonal neighbors never join a group,
// even when they share the trigger's type.
type MatchRecognizer struct {
	minGroup int
}

// NewMatchRecognizer creates a match recognizer with the default minimum
// group size of 3.
func NewMatchRecognizer() *MatchRecognizer {
	return &MatchRecognizer{minGroup: MinMatchGroup}
}

// NewMatchRecognizerWithMin creates a match recognizer with a custom
// minimum group size. Values below 2 are clamped to 2.
func NewMatchRecognizerWithMin(minGroup int) *MatchRecognizer {
	if minGroup < 2 {
		minGroup = 2
	}
	return &MatchRecognizer{minGroup: minGroup}
}

// Kind returns KindMatch.
func (r *MatchRecognizer) Kind() Kind { return KindMatch }

// CanRecognizeAt returns false when the trigger cell is empty or has no
// orthogonal same-type neighbor - in either case the connected component
// cannot reach the minimum group size.
func (r *MatchRecognizer) CanRecognizeAt(s *grid.Store, pos grid.Position) bool {
	return hasSameTypeNeighbor(s, pos, false)
}

// Recognize flood-fills from the trigger and emits exactly one Pattern
// when the connected component reaches the minimum group size. Smaller
// groups emit nothing. An empty trigger cell emits nothing.
func (r *MatchRecognizer) Recognize(s *grid.Store, trigger grid.Position, ctx Context) ([]Pattern, error) {
	blocks, _ := floodFill(s, trigger, false)
	if len(blocks) < r.minGroup {
		return nil, nil
	}

	origin, _ := s.BlockAt(trigger)
	p, err := New(KindMatch, positionsOf(blocks), origin.Type, origin.Tier, Outcome{
		Effect: EffectRemove,
	})
	if err != nil {
		return nil, err
	}
	return []Pattern{p}, nil
}

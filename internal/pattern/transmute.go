package pattern

import "github.com/roach88/cascade/internal/grid"

// MinTransmuteGroup is the default minimum group size for a transmute.
const MinTransmuteGroup = 5

// transmuteCycle maps each default block type to the type it transmutes
// into. Unknown types transmute to themselves (the host can extend the
// vocabulary without breaking recognition).
var transmuteCycle = map[grid.BlockType]grid.BlockType{
	grid.TypeEmber: grid.TypeFrost,
	grid.TypeFrost: grid.TypeMoss,
	grid.TypeMoss:  grid.TypeStone,
	grid.TypeStone: grid.TypeEmber,
}

// NextType returns the transmutation target for a block type.
func NextType(t grid.BlockType) grid.BlockType {
	if next, ok := transmuteCycle[t]; ok {
		return next
	}
	return t
}

// TransmuteRecognizer finds large connected same-type groups and emits a
// pattern that converts them into one block of the next type at the
// trigger position.
//
// Transmute is the highest-priority kind and unlock-gated.
type TransmuteRecognizer struct {
	minGroup int
}

// NewTransmuteRecognizer creates a transmute recognizer with the default
// minimum group size of 5.
func NewTransmuteRecognizer() *TransmuteRecognizer {
	return &TransmuteRecognizer{minGroup: MinTransmuteGroup}
}

// NewTransmuteRecognizerWithMin creates a transmute recognizer with a
// custom minimum group size. Values below 2 are clamped to 2.
func NewTransmuteRecognizerWithMin(minGroup int) *TransmuteRecognizer {
	if minGroup < 2 {
		minGroup = 2
	}
	return &TransmuteRecognizer{minGroup: minGroup}
}

// Kind returns KindTransmute.
func (r *TransmuteRecognizer) Kind() Kind { return KindTransmute }

// CanRecognizeAt returns false when the trigger cell is empty or has no
// orthogonal same-type neighbor.
func (r *TransmuteRecognizer) CanRecognizeAt(s *grid.Store, pos grid.Position) bool {
	return hasSameTypeNeighbor(s, pos, false)
}

// Recognize flood-fills from the trigger and emits one transmute pattern
// when the connected component reaches the minimum size.
func (r *TransmuteRecognizer) Recognize(s *grid.Store, trigger grid.Position, ctx Context) ([]Pattern, error) {
	blocks, _ := floodFill(s, trigger, false)
	if len(blocks) < r.minGroup {
		return nil, nil
	}

	origin, _ := s.BlockAt(trigger)
	p, err := New(KindTransmute, positionsOf(blocks), origin.Type, origin.Tier, Outcome{
		Effect:     EffectTransmute,
		Anchor:     trigger,
		ResultType: NextType(origin.Type),
		ResultTier: origin.Tier,
	})
	if err != nil {
		return nil, err
	}
	return []Pattern{p}, nil
}

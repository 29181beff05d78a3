package pattern

import (
	"fmt"

	"github.com/roach88/cascade/internal/canon"
	"github.com/roach88/cascade/internal/grid"
)

// Effect names the opaque effect a pattern's execution applies.
// The engine only dispatches on it; scoring and visuals are host concerns.
type Effect string

const (
	// EffectRemove vacates every participant position.
	EffectRemove Effect = "remove"

	// EffectMerge replaces the group with one higher-tier block at the
	// anchor position.
	EffectMerge Effect = "merge"

	// EffectTransmute replaces the group with one block of the next type
	// at the anchor position.
	EffectTransmute Effect = "transmute"
)

// Outcome is the effect descriptor a pattern carries.
// Opaque beyond this engine: the executor dispatches on Effect, the host
// reads the rest for scoring and visuals.
type Outcome struct {
	Effect Effect

	// Anchor is where replacement effects (merge, transmute) land.
	Anchor grid.Position

	// ResultType and ResultTier describe the replacement block, when the
	// effect produces one.
	ResultType grid.BlockType
	ResultTier int

	// Size is the participant count, duplicated here so hosts can score
	// from the outcome alone.
	Size int
}

// Pattern is a detected candidate group.
//
// Patterns are immutable once produced and are discarded after
// resolution and execution; they are never persisted by the engine.
// The ID is content-addressed over kind, block type, tier, and the
// sorted participant set, which gives the resolver a deterministic
// lexicographic tie-break for any given board state.
type Pattern struct {
	// ID is the content-addressed identity.
	ID string

	// Kind is the pattern category.
	Kind Kind

	// Positions are the participants in row-major order.
	Positions []grid.Position

	// Priority is Kind.Priority(), denormalized for the resolver.
	Priority int

	// BlockType and Tier record what the recognizer saw at recognition
	// time. Executors re-validate the live grid against them.
	BlockType grid.BlockType
	Tier      int

	// Outcome is the derived effect descriptor.
	Outcome Outcome
}

// New assembles a Pattern, sorting the participants and computing the
// content-addressed ID.
func New(kind Kind, positions []grid.Position, blockType grid.BlockType, tier int, outcome Outcome) (Pattern, error) {
	sorted := make([]grid.Position, len(positions))
	copy(sorted, positions)
	grid.SortPositions(sorted)

	id, err := computeID(kind, sorted, blockType, tier)
	if err != nil {
		return Pattern{}, err
	}

	outcome.Size = len(sorted)
	return Pattern{
		ID:        id,
		Kind:      kind,
		Positions: sorted,
		Priority:  kind.Priority(),
		BlockType: blockType,
		Tier:      tier,
		Outcome:   outcome,
	}, nil
}

// Size returns the participant count.
func (p Pattern) Size() int { return len(p.Positions) }

// Contains reports whether pos is a participant.
func (p Pattern) Contains(pos grid.Position) bool {
	for _, pp := range p.Positions {
		if pp == pos {
			return true
		}
	}
	return false
}

// Overlaps reports whether the two patterns share any participant
// position.
func (p Pattern) Overlaps(o Pattern) bool {
	for _, pp := range p.Positions {
		if o.Contains(pp) {
			return true
		}
	}
	return false
}

// computeID derives the content-addressed pattern identity.
// Stable across runs: same kind + participants + block type + tier
// always hash to the same ID.
func computeID(kind Kind, sorted []grid.Position, blockType grid.BlockType, tier int) (string, error) {
	cells := make([]any, len(sorted))
	for i, pos := range sorted {
		cells[i] = map[string]any{"x": pos.X, "y": pos.Y}
	}
	data, err := canon.Marshal(map[string]any{
		"kind":      string(kind),
		"type":      string(blockType),
		"tier":      tier,
		"positions": cells,
	})
	if err != nil {
		return "", fmt.Errorf("pattern id: %w", err)
	}
	return canon.Hash(canon.DomainPattern, data), nil
}

package engine

import (
	"fmt"

	"github.com/roach88/cascade/internal/grid"
	"github.com/roach88/cascade/internal/pattern"
)

// ExecutionResult reports what applying a pattern changed on the grid.
// The chain processor uses it to seed the next recognition round.
type ExecutionResult struct {
	// Removed are the positions vacated by the execution.
	Removed []grid.Position

	// Altered are positions that still hold a block but a different one
	// than before (the anchor of a merge or transmute).
	Altered []grid.Position
}

// Affected returns removed and altered positions as one slice.
func (r ExecutionResult) Affected() []grid.Position {
	out := make([]grid.Position, 0, len(r.Removed)+len(r.Altered))
	out = append(out, r.Removed...)
	out = append(out, r.Altered...)
	return out
}

// Executor applies a winning pattern's effect to the live grid.
//
// CONTRACT: execution must be idempotent-safe against a pattern whose
// positions have already changed underneath it. Executors re-validate
// through the store's atomic group operations; a mismatch yields a
// StaleError and the grid is untouched. Executors never panic.
type Executor interface {
	Kind() pattern.Kind
	Execute(s *grid.Store, p pattern.Pattern) (ExecutionResult, error)
}

// NewExecutorTable builds the closed kind -> executor table resolved once
// at startup. Returns an error on duplicate or unknown kinds.
func NewExecutorTable(execs ...Executor) (map[pattern.Kind]Executor, error) {
	table := make(map[pattern.Kind]Executor, len(execs))
	for _, ex := range execs {
		k := ex.Kind()
		if !k.Known() {
			return nil, fmt.Errorf("executor for unknown kind %q", k)
		}
		if _, dup := table[k]; dup {
			return nil, fmt.Errorf("duplicate executor for kind %q", k)
		}
		table[k] = ex
	}
	return table, nil
}

// DefaultExecutors returns one executor per kind, sharing the given
// token generator for replacement-block ids.
func DefaultExecutors(ids TokenGenerator) []Executor {
	return []Executor{
		NewRemoveExecutor(),
		NewMergeExecutor(ids),
		NewTransmuteExecutor(ids),
	}
}

// RemoveExecutor applies match patterns: every participant is removed.
type RemoveExecutor struct{}

// NewRemoveExecutor creates the match executor.
func NewRemoveExecutor() *RemoveExecutor { return &RemoveExecutor{} }

// Kind returns KindMatch.
func (e *RemoveExecutor) Kind() pattern.Kind { return pattern.KindMatch }

// Execute atomically removes the participant group, re-validating type
// occupancy first. A grid changed underneath the pattern yields a
// StaleError and no mutation.
func (e *RemoveExecutor) Execute(s *grid.Store, p pattern.Pattern) (ExecutionResult, error) {
	if _, err := s.RemoveGroup(p.Positions, p.BlockType); err != nil {
		return ExecutionResult{}, staleFromViolation(p, err)
	}
	return ExecutionResult{Removed: p.Positions}, nil
}

// MergeExecutor applies merge patterns: the group collapses into one
// block of the next tier at the anchor.
type MergeExecutor struct {
	ids TokenGenerator
}

// NewMergeExecutor creates the merge executor. Replacement blocks get
// ids from the given generator.
func NewMergeExecutor(ids TokenGenerator) *MergeExecutor {
	return &MergeExecutor{ids: ids}
}

// Kind returns KindMerge.
func (e *MergeExecutor) Kind() pattern.Kind { return pattern.KindMerge }

// Execute atomically replaces the group with the merged block,
// re-validating type and tier occupancy first.
func (e *MergeExecutor) Execute(s *grid.Store, p pattern.Pattern) (ExecutionResult, error) {
	replacement := grid.Block{
		ID:   "blk-" + e.ids.Generate(),
		Type: p.Outcome.ResultType,
		Tier: p.Outcome.ResultTier,
	}
	if _, err := s.MergeGroup(p.Positions, p.Outcome.Anchor, p.BlockType, p.Tier, replacement); err != nil {
		return ExecutionResult{}, staleFromViolation(p, err)
	}
	return ExecutionResult{
		Removed: withoutPosition(p.Positions, p.Outcome.Anchor),
		Altered: []grid.Position{p.Outcome.Anchor},
	}, nil
}

// TransmuteExecutor applies transmute patterns: the group collapses into
// one block of the next type at the anchor.
type TransmuteExecutor struct {
	ids TokenGenerator
}

// NewTransmuteExecutor creates the transmute executor.
func NewTransmuteExecutor(ids TokenGenerator) *TransmuteExecutor {
	return &TransmuteExecutor{ids: ids}
}

// Kind returns KindTransmute.
func (e *TransmuteExecutor) Kind() pattern.Kind { return pattern.KindTransmute }

// Execute atomically replaces the group with the transmuted block.
// Tier is not re-validated - transmute groups may mix tiers.
func (e *TransmuteExecutor) Execute(s *grid.Store, p pattern.Pattern) (ExecutionResult, error) {
	replacement := grid.Block{
		ID:   "blk-" + e.ids.Generate(),
		Type: p.Outcome.ResultType,
		Tier: p.Outcome.ResultTier,
	}
	if _, err := s.MergeGroup(p.Positions, p.Outcome.Anchor, p.BlockType, 0, replacement); err != nil {
		return ExecutionResult{}, staleFromViolation(p, err)
	}
	return ExecutionResult{
		Removed: withoutPosition(p.Positions, p.Outcome.Anchor),
		Altered: []grid.Position{p.Outcome.Anchor},
	}, nil
}

// withoutPosition returns positions minus the excluded one.
func withoutPosition(positions []grid.Position, exclude grid.Position) []grid.Position {
	out := make([]grid.Position, 0, len(positions))
	for _, pos := range positions {
		if pos != exclude {
			out = append(out, pos)
		}
	}
	return out
}

package engine

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cascade/internal/grid"
	"github.com/roach88/cascade/internal/pattern"
)

func newChainProcessor(t *testing.T, s *grid.Store, gate pattern.Gate, opts ...Option) *Processor {
	t.Helper()
	recognizers := []pattern.Recognizer{
		pattern.NewMatchRecognizer(),
		pattern.NewMergeRecognizer(),
		pattern.NewTransmuteRecognizer(),
	}
	p, err := NewProcessor(s, recognizers,
		DefaultExecutors(NewSequenceGenerator("blk")),
		gate, NewSequenceGenerator("chain"), opts...)
	require.NoError(t, err)
	return p
}

func TestNewProcessorValidation(t *testing.T) {
	s := newBoard(t)

	t.Run("nil store", func(t *testing.T) {
		_, err := NewProcessor(nil, nil, DefaultExecutors(NewSequenceGenerator("blk")), nil, nil)
		assert.Error(t, err)
	})

	t.Run("duplicate recognizer", func(t *testing.T) {
		_, err := NewProcessor(s,
			[]pattern.Recognizer{pattern.NewMatchRecognizer(), pattern.NewMatchRecognizer()},
			DefaultExecutors(NewSequenceGenerator("blk")), nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate recognizer")
	})

	t.Run("defaults", func(t *testing.T) {
		p, err := NewProcessor(s, nil, DefaultExecutors(NewSequenceGenerator("blk")), nil, nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultMaxDepth, p.MaxDepth())
	})
}

func TestProcessAtThreeInARow(t *testing.T) {
	s := newBoard(t)
	fill(t, s, grid.TypeEmber, 1,
		grid.Position{X: 0, Y: 0}, grid.Position{X: 1, Y: 0}, grid.Position{X: 2, Y: 0})

	p := newChainProcessor(t, s, pattern.NewGateSet(pattern.KindMatch))
	res := p.ProcessAt(grid.Position{X: 1, Y: 0})

	assert.Equal(t, "chain-1", res.Token)
	assert.Equal(t, AbortNone, res.Abort)
	assert.Empty(t, res.Faults)
	require.Len(t, res.Executed, 1)

	ex := res.Executed[0]
	assert.Equal(t, int64(1), ex.Seq)
	assert.Equal(t, pattern.KindMatch, ex.Pattern.Kind)
	assert.Len(t, ex.Result.Removed, 3)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 1, res.Rounds)
}

func TestProcessAtEmptyTriggerIsNoOp(t *testing.T) {
	s := newBoard(t)
	fill(t, s, grid.TypeEmber, 1, grid.Position{X: 0, Y: 0})

	p := newChainProcessor(t, s, pattern.GateAll{})
	res := p.ProcessAt(grid.Position{X: 5, Y: 5})

	assert.Empty(t, res.Executed)
	assert.Empty(t, res.Faults)
	assert.Equal(t, AbortNone, res.Abort)
	assert.Equal(t, 1, s.Len())
}

func TestProcessAtLShape(t *testing.T) {
	s := newBoard(t)
	fill(t, s, grid.TypeFrost, 1,
		grid.Position{X: 0, Y: 0}, grid.Position{X: 0, Y: 1},
		grid.Position{X: 0, Y: 2}, grid.Position{X: 1, Y: 2})

	p := newChainProcessor(t, s, pattern.NewGateSet(pattern.KindMatch))
	res := p.ProcessAt(grid.Position{X: 0, Y: 1})

	require.Len(t, res.Executed, 1)
	assert.Equal(t, 4, res.Executed[0].Pattern.Size())
	assert.Equal(t, 0, s.Len())
}

func TestProcessAtTwoRoundCascade(t *testing.T) {
	// Row 0 matches at the trigger. Row 1 holds a frost group that is NOT
	// connected to the trigger but whose cells neighbor the vacated
	// positions, so the second round finds and removes it.
	s := newBoard(t)
	fill(t, s, grid.TypeEmber, 1,
		grid.Position{X: 0, Y: 0}, grid.Position{X: 1, Y: 0}, grid.Position{X: 2, Y: 0})
	fill(t, s, grid.TypeFrost, 1,
		grid.Position{X: 0, Y: 1}, grid.Position{X: 1, Y: 1}, grid.Position{X: 2, Y: 1})

	p := newChainProcessor(t, s, pattern.NewGateSet(pattern.KindMatch))
	res := p.ProcessAt(grid.Position{X: 1, Y: 0})

	require.Len(t, res.Executed, 2)
	assert.Equal(t, grid.TypeEmber, res.Executed[0].Pattern.BlockType)
	assert.Equal(t, grid.TypeFrost, res.Executed[1].Pattern.BlockType)
	assert.Equal(t, int64(1), res.Executed[0].Seq)
	assert.Equal(t, int64(2), res.Executed[1].Seq)
	assert.Equal(t, 2, res.Rounds)
	assert.Equal(t, AbortNone, res.Abort)
	assert.Equal(t, 0, s.Len())
}

func TestProcessAtMergeCascadesIntoMatch(t *testing.T) {
	// Three tier-1 embers form both a match and a merge group at the
	// trigger; merge outranks match, so the row collapses into a single
	// tier-2 ember instead of vanishing. Gate only match+merge.
	s := newBoard(t)
	fill(t, s, grid.TypeEmber, 1,
		grid.Position{X: 0, Y: 0}, grid.Position{X: 1, Y: 0}, grid.Position{X: 2, Y: 0})
	fill(t, s, grid.TypeFrost, 1,
		grid.Position{X: 1, Y: 1}, grid.Position{X: 1, Y: 2})

	p := newChainProcessor(t, s, pattern.NewGateSet(pattern.KindMatch, pattern.KindMerge))
	res := p.ProcessAt(grid.Position{X: 1, Y: 0})

	// Round 1: the three embers match AND merge; merge wins on priority.
	require.NotEmpty(t, res.Executed)
	assert.Equal(t, pattern.KindMerge, res.Executed[0].Pattern.Kind)

	merged, ok := s.BlockAt(grid.Position{X: 1, Y: 0})
	require.True(t, ok)
	assert.Equal(t, grid.TypeEmber, merged.Type)
	assert.Equal(t, 2, merged.Tier)

	// The frost pair below never reached group size 3.
	assert.Equal(t, 3, s.Len())
}

func TestProcessAtGateBlocksKind(t *testing.T) {
	s := newBoard(t)
	fill(t, s, grid.TypeEmber, 1,
		grid.Position{X: 0, Y: 0}, grid.Position{X: 1, Y: 0}, grid.Position{X: 2, Y: 0})

	// Merge-only gate on a board that only matches: nothing happens.
	p := newChainProcessor(t, s, pattern.NewGateSet(pattern.KindMerge))
	fill(t, s, grid.TypeEmber, 2, grid.Position{X: 5, Y: 5})

	res := p.ProcessAt(grid.Position{X: 1, Y: 0})
	// The three tier-1 embers DO form a merge group (same type, same tier).
	require.Len(t, res.Executed, 1)
	assert.Equal(t, pattern.KindMerge, res.Executed[0].Pattern.Kind)

	// Now a gate with nothing enabled.
	s2 := newBoard(t)
	fill(t, s2, grid.TypeEmber, 1,
		grid.Position{X: 0, Y: 0}, grid.Position{X: 1, Y: 0}, grid.Position{X: 2, Y: 0})
	p2 := newChainProcessor(t, s2, pattern.NewGateSet())
	res2 := p2.ProcessAt(grid.Position{X: 1, Y: 0})
	assert.Empty(t, res2.Executed)
	assert.Equal(t, 3, s2.Len())
}

func TestProcessAtDepthLimit(t *testing.T) {
	// A long double row cascades one match per round when seeded from the
	// left edge... simpler: force depth 1 and give the board two rounds of
	// work.
	s := newBoard(t)
	fill(t, s, grid.TypeEmber, 1,
		grid.Position{X: 0, Y: 0}, grid.Position{X: 1, Y: 0}, grid.Position{X: 2, Y: 0})
	fill(t, s, grid.TypeFrost, 1,
		grid.Position{X: 0, Y: 1}, grid.Position{X: 1, Y: 1}, grid.Position{X: 2, Y: 1})

	p := newChainProcessor(t, s, pattern.NewGateSet(pattern.KindMatch), WithMaxDepth(1))
	res := p.ProcessAt(grid.Position{X: 1, Y: 0})

	assert.Equal(t, AbortDepth, res.Abort)
	require.Len(t, res.Executed, 1)
	assert.Equal(t, 1, res.Rounds)
	// Partial result: the frost row is still on the board.
	assert.Equal(t, 3, s.Len())
}

func TestProcessAtChainTokensAreUnique(t *testing.T) {
	s := newBoard(t)
	p := newChainProcessor(t, s, pattern.GateAll{})

	r1 := p.ProcessAt(grid.Position{X: 0, Y: 0})
	r2 := p.ProcessAt(grid.Position{X: 0, Y: 0})
	assert.NotEqual(t, r1.Token, r2.Token)
}

func TestProcessAtSeqSpansChains(t *testing.T) {
	// The logical clock is engine-wide: a second chain continues the
	// sequence, never restarts it.
	s := newBoard(t)
	fill(t, s, grid.TypeEmber, 1,
		grid.Position{X: 0, Y: 0}, grid.Position{X: 1, Y: 0}, grid.Position{X: 2, Y: 0})
	fill(t, s, grid.TypeFrost, 1,
		grid.Position{X: 0, Y: 5}, grid.Position{X: 1, Y: 5}, grid.Position{X: 2, Y: 5})

	p := newChainProcessor(t, s, pattern.NewGateSet(pattern.KindMatch))

	r1 := p.ProcessAt(grid.Position{X: 1, Y: 0})
	require.Len(t, r1.Executed, 1)
	assert.Equal(t, int64(1), r1.Executed[0].Seq)

	r2 := p.ProcessAt(grid.Position{X: 1, Y: 5})
	require.Len(t, r2.Executed, 1)
	assert.Equal(t, int64(2), r2.Executed[0].Seq)
	assert.Equal(t, int64(2), p.Clock().Current())
}

func TestProcessAtWithClock(t *testing.T) {
	s := newBoard(t)
	fill(t, s, grid.TypeEmber, 1,
		grid.Position{X: 0, Y: 0}, grid.Position{X: 1, Y: 0}, grid.Position{X: 2, Y: 0})

	p := newChainProcessor(t, s, pattern.NewGateSet(pattern.KindMatch), WithClock(NewClockAt(100)))
	res := p.ProcessAt(grid.Position{X: 1, Y: 0})
	require.Len(t, res.Executed, 1)
	assert.Equal(t, int64(101), res.Executed[0].Seq)
}

func TestProcessAtDeterministicTrace(t *testing.T) {
	build := func(t *testing.T) (*grid.Store, *Processor) {
		s := newBoard(t)
		fill(t, s, grid.TypeEmber, 1,
			grid.Position{X: 0, Y: 0}, grid.Position{X: 1, Y: 0}, grid.Position{X: 2, Y: 0})
		fill(t, s, grid.TypeFrost, 1,
			grid.Position{X: 0, Y: 1}, grid.Position{X: 1, Y: 1}, grid.Position{X: 2, Y: 1})
		return s, newChainProcessor(t, s, pattern.NewGateSet(pattern.KindMatch))
	}

	_, p1 := build(t)
	_, p2 := build(t)
	r1 := p1.ProcessAt(grid.Position{X: 1, Y: 0})
	r2 := p2.ProcessAt(grid.Position{X: 1, Y: 0})

	require.Equal(t, len(r1.Executed), len(r2.Executed))
	for i := range r1.Executed {
		assert.Equal(t, r1.Executed[i].Pattern.ID, r2.Executed[i].Pattern.ID)
		assert.Equal(t, r1.Executed[i].Seq, r2.Executed[i].Seq)
	}
}

func TestProcessAtConcurrentChains(t *testing.T) {
	// Many goroutines fire chains at disjoint regions; the store's group
	// atomicity keeps every execution consistent and stale patterns are
	// skipped, never half-applied.
	s, err := grid.NewStore(30, 30)
	require.NoError(t, err)

	for g := 0; g < 10; g++ {
		y := g * 3
		for x := 0; x < 3; x++ {
			require.NoError(t, s.Place(grid.Block{
				ID:   fmt.Sprintf("b-%d-%d", x, y),
				Type: grid.TypeEmber, Tier: 1,
				Pos: grid.Position{X: x, Y: y},
			}))
		}
	}

	p, err := NewProcessor(s,
		[]pattern.Recognizer{pattern.NewMatchRecognizer()},
		DefaultExecutors(UUIDv7Generator{}),
		pattern.NewGateSet(pattern.KindMatch), UUIDv7Generator{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]ChainResult, 10)
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			results[g] = p.ProcessAt(grid.Position{X: 1, Y: g * 3})
		}(g)
	}
	wg.Wait()

	assert.True(t, p.InFlight().WaitIdle(0))

	executed := 0
	for _, r := range results {
		executed += len(r.Executed)
		for _, f := range r.Faults {
			assert.True(t, f.Stale(), "non-stale fault: %v", f.Err)
		}
	}
	assert.Equal(t, 10, executed)
	assert.Equal(t, 0, s.Len())
}

// noopExecutor reports positions as affected without mutating the grid,
// simulating an effect that restores the board it started from.
type noopExecutor struct{}

func (noopExecutor) Kind() pattern.Kind { return pattern.KindMatch }

func (noopExecutor) Execute(_ *grid.Store, p pattern.Pattern) (ExecutionResult, error) {
	return ExecutionResult{Altered: p.Positions}, nil
}

func TestProcessAtCycleGuard(t *testing.T) {
	// An oscillating board: the executor leaves the grid unchanged, so the
	// same pattern keeps recognizing. The signature guard must abort after
	// one round instead of looping to the depth cap.
	s := newBoard(t)
	fill(t, s, grid.TypeEmber, 1,
		grid.Position{X: 0, Y: 0}, grid.Position{X: 1, Y: 0}, grid.Position{X: 2, Y: 0})

	p, err := NewProcessor(s,
		[]pattern.Recognizer{pattern.NewMatchRecognizer()},
		[]Executor{noopExecutor{}},
		pattern.GateAll{}, NewSequenceGenerator("chain"))
	require.NoError(t, err)

	res := p.ProcessAt(grid.Position{X: 1, Y: 0})
	assert.Equal(t, AbortCycle, res.Abort)
	assert.Equal(t, 1, res.Rounds)
	require.Len(t, res.Executed, 1)
	assert.Equal(t, 3, s.Len())
}

func TestProcessAtSkipsStaleWithoutMutation(t *testing.T) {
	// An executor table missing the match kind turns every winner into a
	// fault; the chain must finish cleanly with the grid untouched.
	s := newBoard(t)
	fill(t, s, grid.TypeEmber, 1,
		grid.Position{X: 0, Y: 0}, grid.Position{X: 1, Y: 0}, grid.Position{X: 2, Y: 0})

	p, err := NewProcessor(s,
		[]pattern.Recognizer{pattern.NewMatchRecognizer()},
		[]Executor{NewMergeExecutor(NewSequenceGenerator("blk"))},
		pattern.GateAll{}, NewSequenceGenerator("chain"))
	require.NoError(t, err)

	res := p.ProcessAt(grid.Position{X: 1, Y: 0})
	assert.Empty(t, res.Executed)
	require.NotEmpty(t, res.Faults)
	assert.Contains(t, res.Faults[0].Err.Error(), "no executor")
	assert.Equal(t, 3, s.Len())
}

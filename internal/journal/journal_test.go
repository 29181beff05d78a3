package journal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cascade/internal/engine"
	"github.com/roach88/cascade/internal/grid"
	"github.com/roach88/cascade/internal/pattern"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func sampleChain(t *testing.T, token string, seqs ...int64) engine.ChainResult {
	t.Helper()

	res := engine.ChainResult{
		Token:   token,
		Trigger: grid.Position{X: 1, Y: 0},
	}
	for _, seq := range seqs {
		y := int(seq)
		positions := []grid.Position{{X: 0, Y: y}, {X: 1, Y: y}, {X: 2, Y: y}}
		p, err := pattern.New(pattern.KindMatch, positions, grid.TypeEmber, 1,
			pattern.Outcome{Effect: pattern.EffectRemove})
		require.NoError(t, err)

		res.Executed = append(res.Executed, engine.ExecutedPattern{
			Seq:     seq,
			Pattern: p,
			Result:  engine.ExecutionResult{Removed: positions},
		})
	}
	res.Rounds = len(seqs)
	return res
}

func TestOpenCreatesSchema(t *testing.T) {
	j := openTestJournal(t)

	chains, err := j.ListChains(context.Background())
	require.NoError(t, err)
	assert.Empty(t, chains)
}

func TestOpenExistingJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")

	j1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j1.WriteChain(context.Background(), sampleChain(t, "chain-a", 1)))
	require.NoError(t, j1.Close())

	// Reopening applies the schema idempotently and sees existing rows.
	j2, err := Open(path)
	require.NoError(t, err)
	defer j2.Close()

	chains, err := j2.ListChains(context.Background())
	require.NoError(t, err)
	assert.Len(t, chains, 1)
}

func TestWriteReadRoundTrip(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	original := sampleChain(t, "chain-a", 1, 2)
	original.Abort = engine.AbortDepth
	require.NoError(t, j.WriteChain(ctx, original))

	rec, err := j.ReadChain(ctx, "chain-a")
	require.NoError(t, err)

	assert.Equal(t, "chain-a", rec.Token)
	assert.Equal(t, grid.Position{X: 1, Y: 0}, rec.Trigger)
	assert.Equal(t, string(engine.AbortDepth), rec.AbortReason)
	assert.Equal(t, 2, rec.Rounds)
	assert.Equal(t, 2, rec.ExecutedCount)
	assert.Equal(t, 0, rec.FaultCount)
	assert.NotEmpty(t, rec.RecordedAt)

	require.Len(t, rec.Executions, 2)
	ex := rec.Executions[0]
	assert.Equal(t, int64(1), ex.Seq)
	assert.Equal(t, original.Executed[0].Pattern.ID, ex.PatternID)
	assert.Equal(t, "match", ex.Kind)
	assert.Equal(t, "ember", ex.BlockType)
	assert.Equal(t, 1, ex.Tier)
	assert.Equal(t, "remove", ex.Effect)
	assert.Equal(t, []grid.Position{{X: 0, Y: 1}, {X: 1, Y: 1}, {X: 2, Y: 1}}, ex.Positions)
	assert.Equal(t, ex.Positions, ex.Removed)
	assert.Empty(t, ex.Altered)
}

func TestExecutionsOrderedBySeq(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	// Insert out of order; reads come back seq-ascending.
	res := sampleChain(t, "chain-a", 3, 1, 2)
	require.NoError(t, j.WriteChain(ctx, res))

	rec, err := j.ReadChain(ctx, "chain-a")
	require.NoError(t, err)
	require.Len(t, rec.Executions, 3)
	assert.Equal(t, int64(1), rec.Executions[0].Seq)
	assert.Equal(t, int64(2), rec.Executions[1].Seq)
	assert.Equal(t, int64(3), rec.Executions[2].Seq)
}

func TestWriteChainIdempotent(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	res := sampleChain(t, "chain-a", 1)
	require.NoError(t, j.WriteChain(ctx, res))
	require.NoError(t, j.WriteChain(ctx, res))

	chains, err := j.ListChains(ctx)
	require.NoError(t, err)
	assert.Len(t, chains, 1)

	rec, err := j.ReadChain(ctx, "chain-a")
	require.NoError(t, err)
	assert.Len(t, rec.Executions, 1)
}

func TestListChainsOrderedByToken(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.WriteChain(ctx, sampleChain(t, "chain-c", 1)))
	require.NoError(t, j.WriteChain(ctx, sampleChain(t, "chain-a", 2)))
	require.NoError(t, j.WriteChain(ctx, sampleChain(t, "chain-b", 3)))

	chains, err := j.ListChains(ctx)
	require.NoError(t, err)
	require.Len(t, chains, 3)
	assert.Equal(t, "chain-a", chains[0].Token)
	assert.Equal(t, "chain-b", chains[1].Token)
	assert.Equal(t, "chain-c", chains[2].Token)
}

func TestReadChainNotFound(t *testing.T) {
	j := openTestJournal(t)

	_, err := j.ReadChain(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrChainNotFound)
	assert.Contains(t, err.Error(), "missing")
}

func TestWriteChainWithNoExecutions(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	res := engine.ChainResult{Token: "empty", Trigger: grid.Position{X: 5, Y: 5}}
	require.NoError(t, j.WriteChain(ctx, res))

	rec, err := j.ReadChain(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, rec.Executions)
	assert.Equal(t, 0, rec.ExecutedCount)
}

func TestJournalEndToEnd(t *testing.T) {
	// Run a real chain and journal its trace.
	s, err := grid.NewStore(8, 8)
	require.NoError(t, err)
	for i, pos := range []grid.Position{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}} {
		require.NoError(t, s.Place(grid.Block{
			ID: string(rune('a' + i)), Type: grid.TypeEmber, Tier: 1, Pos: pos,
		}))
	}

	proc, err := engine.NewProcessor(s,
		[]pattern.Recognizer{pattern.NewMatchRecognizer()},
		engine.DefaultExecutors(engine.NewSequenceGenerator("blk")),
		pattern.GateAll{}, engine.NewSequenceGenerator("e2e"))
	require.NoError(t, err)

	res := proc.ProcessAt(grid.Position{X: 1, Y: 0})
	require.Len(t, res.Executed, 1)

	j := openTestJournal(t)
	ctx := context.Background()
	require.NoError(t, j.WriteChain(ctx, res))

	rec, err := j.ReadChain(ctx, res.Token)
	require.NoError(t, err)
	require.Len(t, rec.Executions, 1)
	assert.Equal(t, res.Executed[0].Pattern.ID, rec.Executions[0].PatternID)
	assert.Len(t, rec.Executions[0].Removed, 3)
}

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cascade/internal/grid"
	"github.com/roach88/cascade/internal/pattern"
)

func mustPattern(t *testing.T, kind pattern.Kind, typ grid.BlockType, tier int, positions ...grid.Position) pattern.Pattern {
	t.Helper()
	outcome := pattern.Outcome{Effect: pattern.EffectRemove}
	switch kind {
	case pattern.KindMerge:
		outcome = pattern.Outcome{
			Effect:     pattern.EffectMerge,
			Anchor:     positions[0],
			ResultType: typ,
			ResultTier: tier + 1,
		}
	case pattern.KindTransmute:
		outcome = pattern.Outcome{
			Effect:     pattern.EffectTransmute,
			Anchor:     positions[0],
			ResultType: pattern.NextType(typ),
			ResultTier: tier,
		}
	}
	p, err := pattern.New(kind, positions, typ, tier, outcome)
	require.NoError(t, err)
	return p
}

func TestResolveEmpty(t *testing.T) {
	assert.Nil(t, Resolve(nil))
	assert.Nil(t, Resolve([]pattern.Pattern{}))
}

func TestResolveSingleCandidate(t *testing.T) {
	p := mustPattern(t, pattern.KindMatch, grid.TypeEmber, 1,
		grid.Position{X: 0, Y: 0}, grid.Position{X: 1, Y: 0}, grid.Position{X: 2, Y: 0})

	winners := Resolve([]pattern.Pattern{p})
	require.Len(t, winners, 1)
	assert.Equal(t, p.ID, winners[0].ID)
}

func TestResolveIndependentPatternsBothWin(t *testing.T) {
	a := mustPattern(t, pattern.KindMatch, grid.TypeEmber, 1,
		grid.Position{X: 0, Y: 0}, grid.Position{X: 1, Y: 0}, grid.Position{X: 2, Y: 0})
	b := mustPattern(t, pattern.KindMatch, grid.TypeFrost, 1,
		grid.Position{X: 0, Y: 5}, grid.Position{X: 1, Y: 5}, grid.Position{X: 2, Y: 5})

	winners := Resolve([]pattern.Pattern{a, b})
	assert.Len(t, winners, 2)
}

func TestResolveOverlapHigherPriorityWins(t *testing.T) {
	match := mustPattern(t, pattern.KindMatch, grid.TypeEmber, 1,
		grid.Position{X: 0, Y: 0}, grid.Position{X: 1, Y: 0}, grid.Position{X: 2, Y: 0})
	merge := mustPattern(t, pattern.KindMerge, grid.TypeEmber, 1,
		grid.Position{X: 2, Y: 0}, grid.Position{X: 3, Y: 0}, grid.Position{X: 4, Y: 0})

	winners := Resolve([]pattern.Pattern{match, merge})
	require.Len(t, winners, 1)
	assert.Equal(t, pattern.KindMerge, winners[0].Kind)

	// Candidate order must not change the outcome.
	winners = Resolve([]pattern.Pattern{merge, match})
	require.Len(t, winners, 1)
	assert.Equal(t, pattern.KindMerge, winners[0].Kind)
}

func TestResolveSamePrioritySizeWins(t *testing.T) {
	small := mustPattern(t, pattern.KindMatch, grid.TypeEmber, 1,
		grid.Position{X: 0, Y: 0}, grid.Position{X: 1, Y: 0}, grid.Position{X: 2, Y: 0})
	large := mustPattern(t, pattern.KindMatch, grid.TypeFrost, 1,
		grid.Position{X: 2, Y: 0}, grid.Position{X: 2, Y: 1},
		grid.Position{X: 2, Y: 2}, grid.Position{X: 2, Y: 3})

	winners := Resolve([]pattern.Pattern{small, large})
	require.Len(t, winners, 1)
	assert.Equal(t, large.ID, winners[0].ID)
}

func TestResolveFullTieBreaksOnID(t *testing.T) {
	// Same kind, same size, overlapping at (1,0): only the ID decides.
	a := mustPattern(t, pattern.KindMatch, grid.TypeEmber, 1,
		grid.Position{X: 0, Y: 0}, grid.Position{X: 1, Y: 0}, grid.Position{X: 2, Y: 0})
	b := mustPattern(t, pattern.KindMatch, grid.TypeFrost, 1,
		grid.Position{X: 1, Y: 0}, grid.Position{X: 1, Y: 1}, grid.Position{X: 1, Y: 2})

	expected := a
	if b.ID < a.ID {
		expected = b
	}

	for i := 0; i < 5; i++ {
		winners := Resolve([]pattern.Pattern{a, b})
		require.Len(t, winners, 1)
		assert.Equal(t, expected.ID, winners[0].ID)

		winners = Resolve([]pattern.Pattern{b, a})
		require.Len(t, winners, 1)
		assert.Equal(t, expected.ID, winners[0].ID)
	}
}

func TestResolveTransitiveOverlapFormsOneGroup(t *testing.T) {
	// a overlaps b, b overlaps c, a and c do not touch. One group, one
	// winner.
	a := mustPattern(t, pattern.KindMatch, grid.TypeEmber, 1,
		grid.Position{X: 0, Y: 0}, grid.Position{X: 1, Y: 0}, grid.Position{X: 2, Y: 0})
	b := mustPattern(t, pattern.KindMatch, grid.TypeFrost, 1,
		grid.Position{X: 2, Y: 0}, grid.Position{X: 3, Y: 0}, grid.Position{X: 4, Y: 0})
	c := mustPattern(t, pattern.KindMerge, grid.TypeMoss, 1,
		grid.Position{X: 4, Y: 0}, grid.Position{X: 5, Y: 0}, grid.Position{X: 6, Y: 0})

	assert.False(t, a.Overlaps(c))

	winners := Resolve([]pattern.Pattern{a, b, c})
	require.Len(t, winners, 1)
	assert.Equal(t, c.ID, winners[0].ID) // merge outranks both matches
}

func TestResolveWinnersRankOrdered(t *testing.T) {
	match := mustPattern(t, pattern.KindMatch, grid.TypeEmber, 1,
		grid.Position{X: 0, Y: 0}, grid.Position{X: 1, Y: 0}, grid.Position{X: 2, Y: 0})
	transmute := mustPattern(t, pattern.KindTransmute, grid.TypeFrost, 1,
		grid.Position{X: 0, Y: 5}, grid.Position{X: 1, Y: 5}, grid.Position{X: 2, Y: 5},
		grid.Position{X: 3, Y: 5}, grid.Position{X: 4, Y: 5})

	winners := Resolve([]pattern.Pattern{match, transmute})
	require.Len(t, winners, 2)
	assert.Equal(t, pattern.KindTransmute, winners[0].Kind)
	assert.Equal(t, pattern.KindMatch, winners[1].Kind)
}

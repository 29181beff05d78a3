package engine

import (
	"sort"

	"github.com/roach88/cascade/internal/pattern"
)

// Resolve picks the deterministic winners among candidate patterns.
//
// Candidates are partitioned into conflict groups: two patterns are in
// the same group if they overlap in participant positions, directly or
// transitively. Patterns sharing no position with anyone are their own
// group. Exactly one winner proceeds per group, chosen by:
//
//  1. highest priority
//  2. if tied, largest number of participant positions
//  3. if still tied, lexicographically smallest pattern ID
//
// The final tie-break is total because pattern IDs are content-addressed,
// so the same board state always resolves to the same winners. Losers are
// discarded for this round; if still valid they re-emerge in a later
// recognition round.
//
// Winners are returned in rank order (best first), which is also the
// execution order within a round.
func Resolve(candidates []pattern.Pattern) []pattern.Pattern {
	switch len(candidates) {
	case 0:
		return nil
	case 1:
		return []pattern.Pattern{candidates[0]}
	}

	groups := conflictGroups(candidates)

	winners := make([]pattern.Pattern, 0, len(groups))
	for _, group := range groups {
		winners = append(winners, bestOf(group))
	}
	sortByRank(winners)
	return winners
}

// conflictGroups partitions candidates into connected components of the
// overlap graph, using union-find over candidate indices.
func conflictGroups(candidates []pattern.Pattern) [][]pattern.Pattern {
	parent := make([]int, len(candidates))
	for i := range parent {
		parent[i] = i
	}

	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]] // path halving
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			if candidates[i].Overlaps(candidates[j]) {
				union(i, j)
			}
		}
	}

	byRoot := make(map[int][]pattern.Pattern)
	order := make([]int, 0)
	for i, c := range candidates {
		root := find(i)
		if _, seen := byRoot[root]; !seen {
			order = append(order, root)
		}
		byRoot[root] = append(byRoot[root], c)
	}

	groups := make([][]pattern.Pattern, 0, len(order))
	for _, root := range order {
		groups = append(groups, byRoot[root])
	}
	return groups
}

// bestOf returns the group's winner by priority, size, then smallest ID.
func bestOf(group []pattern.Pattern) pattern.Pattern {
	best := group[0]
	for _, c := range group[1:] {
		if ranksAbove(c, best) {
			best = c
		}
	}
	return best
}

// ranksAbove reports whether a outranks b under the resolution order.
func ranksAbove(a, b pattern.Pattern) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if a.Size() != b.Size() {
		return a.Size() > b.Size()
	}
	return a.ID < b.ID
}

// sortByRank orders patterns best-first under the resolution order.
func sortByRank(ps []pattern.Pattern) {
	sort.Slice(ps, func(i, j int) bool {
		return ranksAbove(ps[i], ps[j])
	})
}

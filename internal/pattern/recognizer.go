package pattern

import "github.com/roach88/cascade/internal/grid"

// MaxFloodNodes is the hard traversal cap for connected-component
// searches. Bounds worst-case recognition cost on pathological boards.
const MaxFloodNodes = 100

// Recognizer detects candidate patterns of a single kind.
//
// CONTRACT:
//   - Kind() is constant for the recognizer's lifetime
//   - CanRecognizeAt must return false only when full recognition would
//     certainly find nothing (false negatives are forbidden; false
//     positives are acceptable but should be rare)
//   - Recognize is read-only with respect to the grid and returns zero
//     or more immutable Patterns
//   - Both calls tolerate empty trigger cells and grid-edge positions
type Recognizer interface {
	Kind() Kind
	CanRecognizeAt(s *grid.Store, pos grid.Position) bool
	Recognize(s *grid.Store, trigger grid.Position, ctx Context) ([]Pattern, error)
}

// floodFill collects the connected component of same-type blocks
// reachable from start through orthogonal adjacency.
//
// Traversal uses an explicit frontier and visited set - never recursion -
// and stops hard at MaxFloodNodes. Returns the component's blocks in
// visit order and whether the cap truncated the search.
//
// An empty start cell yields an empty component.
func floodFill(s *grid.Store, start grid.Position, sameTier bool) (blocks []grid.Block, capped bool) {
	origin, ok := s.BlockAt(start)
	if !ok {
		return nil, false
	}

	visited := map[grid.Position]bool{start: true}
	frontier := []grid.Position{start}
	blocks = append(blocks, origin)

	for len(frontier) > 0 {
		if len(blocks) >= MaxFloodNodes {
			return blocks, true
		}

		pos := frontier[0]
		frontier = frontier[1:]

		for _, n := range pos.Adjacent() {
			if visited[n] {
				continue
			}
			visited[n] = true

			// Edge and out-of-bounds neighbors simply find no block.
			b, ok := s.BlockAt(n)
			if !ok || b.Type != origin.Type {
				continue
			}
			if sameTier && b.Tier != origin.Tier {
				continue
			}

			blocks = append(blocks, b)
			frontier = append(frontier, n)
			if len(blocks) >= MaxFloodNodes {
				return blocks, true
			}
		}
	}

	return blocks, false
}

// hasSameTypeNeighbor is the shared cheap pre-check: a connected group of
// two or more containing pos requires at least one orthogonal same-type
// neighbor, so its absence proves full recognition would find nothing.
func hasSameTypeNeighbor(s *grid.Store, pos grid.Position, sameTier bool) bool {
	origin, ok := s.BlockAt(pos)
	if !ok {
		return false
	}
	for _, n := range s.AdjacentBlocks(pos) {
		if n.Type != origin.Type {
			continue
		}
		if sameTier && n.Tier != origin.Tier {
			continue
		}
		return true
	}
	return false
}

// positionsOf extracts the positions of a block slice.
func positionsOf(blocks []grid.Block) []grid.Position {
	ps := make([]grid.Position, len(blocks))
	for i, b := range blocks {
		ps[i] = b.Pos
	}
	return ps
}

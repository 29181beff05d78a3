// Package grid provides the concurrency-safe block registry that is the
// sole source of truth for "what occupies where".
//
// The Store maintains two indices over the same block set (by-position and
// by-id) and keeps them consistent under concurrent mutation. All mutating
// operations validate first and commit under a single lock, so a failed
// call never leaves the indices disagreeing.
package grid

import "fmt"

// Position identifies a single grid cell.
type Position struct {
	X int `yaml:"x" json:"x"`
	Y int `yaml:"y" json:"y"`
}

// String returns the position in "(x,y)" form for logs and errors.
func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Adjacent returns the four orthogonal neighbors of p.
//
// Diagonal cells are deliberately excluded: connectivity in this engine is
// orthogonal-only, both for flood fill and for chain seeding. Returned
// positions are NOT bounds-checked - callers filter through Store.IsValid.
func (p Position) Adjacent() [4]Position {
	return [4]Position{
		{X: p.X, Y: p.Y - 1}, // up
		{X: p.X, Y: p.Y + 1}, // down
		{X: p.X - 1, Y: p.Y}, // left
		{X: p.X + 1, Y: p.Y}, // right
	}
}

// Less orders positions row-major (Y, then X). Used wherever a
// deterministic position ordering is required (pattern participants,
// grid signatures).
func (p Position) Less(o Position) bool {
	if p.Y != o.Y {
		return p.Y < o.Y
	}
	return p.X < o.X
}

// SortPositions sorts positions in place into row-major order.
func SortPositions(ps []Position) {
	// Insertion sort: participant sets are small (bounded by the flood cap).
	for i := 1; i < len(ps); i++ {
		for j := i; j > 0 && ps[j].Less(ps[j-1]); j-- {
			ps[j], ps[j-1] = ps[j-1], ps[j]
		}
	}
}

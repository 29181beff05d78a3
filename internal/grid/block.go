package grid

import "time"

// BlockType is the enumerable category of a block.
//
// The engine treats types as opaque: equality is all that matters for
// recognition. The concrete vocabulary is owned by the host's content
// catalog; the constants below are the default set used by tests and
// the demo scenarios.
type BlockType string

const (
	TypeEmber BlockType = "ember"
	TypeFrost BlockType = "frost"
	TypeMoss  BlockType = "moss"
	TypeStone BlockType = "stone"
)

// Block is a typed, positioned, uniquely-identified token occupying one
// grid cell.
//
// INVARIANTS:
//   - ID never changes for the block's lifetime
//   - Pos changes only through a store-mediated Move
//   - Tier >= 1
type Block struct {
	ID         string
	Type       BlockType
	Tier       int
	Pos        Position
	CreatedAt  time.Time
	ModifiedAt time.Time
}

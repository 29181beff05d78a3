package grid

import (
	"fmt"
	"sync"
	"time"

	"github.com/roach88/cascade/internal/canon"
)

// MaxDimension bounds grid width and height.
const MaxDimension = 1000

// Store is the concurrency-safe registry mapping positions and ids to
// blocks.
//
// Thread-safety model:
//   - All mutation methods are safe from any goroutine without external
//     locking by the caller
//   - Lookups reflect a consistent snapshot per call, but NOT across
//     multiple calls under concurrent writers
//   - Group operations (RemoveGroup, MergeGroup) validate and commit under
//     one critical section, which is the atomicity executors rely on to
//     never interleave on overlapping positions
//
// INVARIANTS:
//   - At most one block per position
//   - Every stored block's position lies within bounds
//   - byPos and byID always agree: any block reachable by id is reachable
//     by its declared position, and vice versa
type Store struct {
	mu     sync.RWMutex
	width  int
	height int
	byPos  map[Position]*Block
	byID   map[string]*Block
}

// NewStore creates an empty store with the given dimensions.
// Returns an error if either dimension is non-positive or exceeds
// MaxDimension.
func NewStore(width, height int) (*Store, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("grid dimensions must be positive: %dx%d", width, height)
	}
	if width > MaxDimension || height > MaxDimension {
		return nil, fmt.Errorf("grid dimensions exceed %d: %dx%d", MaxDimension, width, height)
	}
	return &Store{
		width:  width,
		height: height,
		byPos:  make(map[Position]*Block),
		byID:   make(map[string]*Block),
	}, nil
}

// Width returns the grid width.
func (s *Store) Width() int { return s.width }

// Height returns the grid height.
func (s *Store) Height() int { return s.height }

// Len returns the number of stored blocks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byPos)
}

// IsValid reports whether the position lies within the grid rectangle.
func (s *Store) IsValid(pos Position) bool {
	return pos.X >= 0 && pos.X < s.width && pos.Y >= 0 && pos.Y < s.height
}

// IsOccupied reports whether a block occupies the position.
// Out-of-bounds positions are never occupied.
func (s *Store) IsOccupied(pos Position) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byPos[pos]
	return ok
}

// BlockAt returns a copy of the block at the position, if any.
func (s *Store) BlockAt(pos Position) (Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.byPos[pos]
	if !ok {
		return Block{}, false
	}
	return *b, true
}

// BlockByID returns a copy of the block with the given id, if any.
func (s *Store) BlockByID(id string) (Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.byID[id]
	if !ok {
		return Block{}, false
	}
	return *b, true
}

// BlocksOfType returns copies of all blocks of the given type, in
// row-major position order.
func (s *Store) BlocksOfType(t BlockType) []Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Block
	for _, b := range s.byPos {
		if b.Type == t {
			out = append(out, *b)
		}
	}
	sortBlocks(out)
	return out
}

// AdjacentBlocks returns copies of the blocks in the four orthogonal
// neighbor cells of pos, in up/down/left/right probe order. Neighbors
// outside the grid or unoccupied are simply absent.
func (s *Store) AdjacentBlocks(pos Position) []Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Block
	for _, n := range pos.Adjacent() {
		if b, ok := s.byPos[n]; ok {
			out = append(out, *b)
		}
	}
	return out
}

// Place registers a new block at its declared position.
//
// Fails with a Violation if the position is out of bounds, already
// occupied, or the id is already registered. On success both indices are
// updated atomically. Zero timestamps are stamped with the current time.
func (s *Store) Place(b Block) error {
	if b.ID == "" {
		return &Violation{Code: ErrCodeNotFound, Message: "block id must not be empty", Pos: b.Pos}
	}
	if b.Tier < 1 {
		b.Tier = 1
	}
	if !s.IsValid(b.Pos) {
		return errOutOfBounds(b.Pos)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byPos[b.Pos]; ok {
		return errOccupied(b.Pos)
	}
	if _, ok := s.byID[b.ID]; ok {
		return errDuplicateID(b.ID)
	}

	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.ModifiedAt.IsZero() {
		b.ModifiedAt = now
	}

	stored := b
	s.byPos[stored.Pos] = &stored
	s.byID[stored.ID] = &stored
	return nil
}

// Remove deletes the block at the position from both indices atomically.
// Returns a copy of the removed block, or a not-found Violation.
func (s *Store) Remove(pos Position) (Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(pos)
}

// RemoveByID deletes the block with the given id from both indices
// atomically. Returns a copy of the removed block, or a not-found
// Violation.
func (s *Store) RemoveByID(id string) (Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.byID[id]
	if !ok {
		return Block{}, errNotFoundID(id)
	}
	return s.removeLocked(b.Pos)
}

// removeLocked removes from both indices. Caller must hold mu.
func (s *Store) removeLocked(pos Position) (Block, error) {
	b, ok := s.byPos[pos]
	if !ok {
		return Block{}, errNotFoundAt(pos)
	}
	delete(s.byPos, pos)
	delete(s.byID, b.ID)
	return *b, nil
}

// Move relocates the block at from to to.
//
// Fails with a Violation if from holds no block, to is out of bounds, or
// to is occupied. Validation happens before any mutation, so a rejected
// move leaves both blocks exactly where they started.
func (s *Store) Move(from, to Position) error {
	if !s.IsValid(to) {
		return errOutOfBounds(to)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.byPos[from]
	if !ok {
		return errNotFoundAt(from)
	}
	return s.moveLocked(b, to)
}

// MoveByID relocates the block with the given id to to.
// Same contract as Move, keyed by id instead of source position.
func (s *Store) MoveByID(id string, to Position) error {
	if !s.IsValid(to) {
		return errOutOfBounds(to)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.byID[id]
	if !ok {
		return errNotFoundID(id)
	}
	return s.moveLocked(b, to)
}

// moveLocked commits a validated move. Caller must hold mu.
func (s *Store) moveLocked(b *Block, to Position) error {
	if to == b.Pos {
		return nil
	}
	if _, ok := s.byPos[to]; ok {
		return errOccupied(to)
	}

	delete(s.byPos, b.Pos)
	b.Pos = to
	b.ModifiedAt = time.Now()
	s.byPos[to] = b
	return nil
}

// RemoveGroup atomically removes every listed position, first verifying
// that each holds a block of the expected type.
//
// All-or-nothing: if any position is empty or holds a different type, a
// group-conflict Violation is returned and nothing is removed. This is
// how executors detect stale patterns without ever leaving the grid
// partially mutated.
//
// Returns copies of the removed blocks in row-major order.
func (s *Store) RemoveGroup(positions []Position, expect BlockType) ([]Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate every position before touching anything.
	for _, pos := range positions {
		b, ok := s.byPos[pos]
		if !ok {
			return nil, errGroupConflict(pos, "expected block is gone")
		}
		if b.Type != expect {
			return nil, errGroupConflict(pos, fmt.Sprintf("expected type %q, found %q", expect, b.Type))
		}
	}

	removed := make([]Block, 0, len(positions))
	for _, pos := range positions {
		b := s.byPos[pos]
		delete(s.byPos, pos)
		delete(s.byID, b.ID)
		removed = append(removed, *b)
	}
	sortBlocks(removed)
	return removed, nil
}

// MergeGroup atomically removes every listed position and places the
// replacement block at the anchor position.
//
// Every listed position must hold a block of the expected type and tier,
// and the anchor must be one of the listed positions. On any mismatch a
// group-conflict Violation is returned and the grid is untouched.
//
// Returns copies of the removed blocks in row-major order.
func (s *Store) MergeGroup(positions []Position, anchor Position, expect BlockType, expectTier int, replacement Block) ([]Block, error) {
	if replacement.ID == "" {
		return nil, &Violation{Code: ErrCodeNotFound, Message: "replacement id must not be empty", Pos: anchor}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	anchorListed := false
	for _, pos := range positions {
		b, ok := s.byPos[pos]
		if !ok {
			return nil, errGroupConflict(pos, "expected block is gone")
		}
		if b.Type != expect {
			return nil, errGroupConflict(pos, fmt.Sprintf("expected type %q, found %q", expect, b.Type))
		}
		if expectTier > 0 && b.Tier != expectTier {
			return nil, errGroupConflict(pos, fmt.Sprintf("expected tier %d, found %d", expectTier, b.Tier))
		}
		if pos == anchor {
			anchorListed = true
		}
	}
	if !anchorListed {
		return nil, errGroupConflict(anchor, "anchor is not a group participant")
	}
	if _, ok := s.byID[replacement.ID]; ok {
		return nil, errDuplicateID(replacement.ID)
	}

	removed := make([]Block, 0, len(positions))
	for _, pos := range positions {
		b := s.byPos[pos]
		delete(s.byPos, pos)
		delete(s.byID, b.ID)
		removed = append(removed, *b)
	}

	now := time.Now()
	replacement.Pos = anchor
	if replacement.Tier < 1 {
		replacement.Tier = 1
	}
	if replacement.CreatedAt.IsZero() {
		replacement.CreatedAt = now
	}
	replacement.ModifiedAt = now
	stored := replacement
	s.byPos[anchor] = &stored
	s.byID[stored.ID] = &stored

	sortBlocks(removed)
	return removed, nil
}

// Signature computes a content-addressed hash of the current occupancy.
//
// The signature covers position, type, and tier of every block, in
// row-major order; ids and timestamps are excluded so that two boards
// that look the same ARE the same for cycle-guard purposes.
func (s *Store) Signature() (string, error) {
	s.mu.RLock()
	blocks := make([]Block, 0, len(s.byPos))
	for _, b := range s.byPos {
		blocks = append(blocks, *b)
	}
	s.mu.RUnlock()

	sortBlocks(blocks)

	cells := make([]any, len(blocks))
	for i, b := range blocks {
		cells[i] = map[string]any{
			"x":    b.Pos.X,
			"y":    b.Pos.Y,
			"type": string(b.Type),
			"tier": b.Tier,
		}
	}
	data, err := canon.Marshal(map[string]any{
		"width":  s.width,
		"height": s.height,
		"cells":  cells,
	})
	if err != nil {
		return "", fmt.Errorf("grid signature: %w", err)
	}
	return canon.Hash(canon.DomainSignature, data), nil
}

// sortBlocks orders blocks row-major by position.
func sortBlocks(bs []Block) {
	for i := 1; i < len(bs); i++ {
		for j := i; j > 0 && bs[j].Pos.Less(bs[j-1].Pos); j-- {
			bs[j], bs[j-1] = bs[j-1], bs[j]
		}
	}
}

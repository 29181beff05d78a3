package grid

import (
	"errors"
	"fmt"
)

// Violation represents a rejected store operation.
//
// Violations are ordinary returned errors, never panics, and a rejected
// operation always leaves the store exactly as it was before the call.
//
// Violation categories:
//   - Out of bounds: position outside the grid rectangle
//   - Occupied: target position already holds a block
//   - Not found: no block at the source position / with the given id
//   - Duplicate id: a block with that id is already registered
//   - Group conflict: an atomic group operation found the grid no longer
//     matches the caller's assumptions (the concurrent-modification case)
type Violation struct {
	// Code identifies the violation category.
	Code ViolationCode

	// Message is a human-readable description.
	Message string

	// Pos is the offending position, when the violation is positional.
	Pos Position

	// ID is the offending block id, when the violation is id-keyed.
	ID string
}

// ViolationCode categorizes store violations.
type ViolationCode string

const (
	// ErrCodeOutOfBounds indicates a position outside the grid.
	ErrCodeOutOfBounds ViolationCode = "OUT_OF_BOUNDS"

	// ErrCodeOccupied indicates the target position already holds a block.
	ErrCodeOccupied ViolationCode = "OCCUPIED"

	// ErrCodeNotFound indicates no block exists at the position / with the id.
	ErrCodeNotFound ViolationCode = "NOT_FOUND"

	// ErrCodeDuplicateID indicates the block id is already registered.
	ErrCodeDuplicateID ViolationCode = "DUPLICATE_ID"

	// ErrCodeGroupConflict indicates an atomic group operation found the
	// grid changed underneath the caller's assumptions.
	ErrCodeGroupConflict ViolationCode = "GROUP_CONFLICT"
)

// Error implements the error interface.
func (v *Violation) Error() string {
	if v.ID != "" {
		return fmt.Sprintf("%s: %s (id=%s)", v.Code, v.Message, v.ID)
	}
	return fmt.Sprintf("%s: %s at %s", v.Code, v.Message, v.Pos)
}

// IsViolation returns the Violation if err is (or wraps) one.
func IsViolation(err error) (*Violation, bool) {
	var v *Violation
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

// IsGroupConflict returns true if the error is a group-conflict violation.
// Executors use this to distinguish "stale pattern" from hard failures.
func IsGroupConflict(err error) bool {
	v, ok := IsViolation(err)
	return ok && v.Code == ErrCodeGroupConflict
}

func errOutOfBounds(pos Position) *Violation {
	return &Violation{Code: ErrCodeOutOfBounds, Message: "position outside grid", Pos: pos}
}

func errOccupied(pos Position) *Violation {
	return &Violation{Code: ErrCodeOccupied, Message: "position already occupied", Pos: pos}
}

func errNotFoundAt(pos Position) *Violation {
	return &Violation{Code: ErrCodeNotFound, Message: "no block at position", Pos: pos}
}

func errNotFoundID(id string) *Violation {
	return &Violation{Code: ErrCodeNotFound, Message: "no block with id", ID: id}
}

func errDuplicateID(id string) *Violation {
	return &Violation{Code: ErrCodeDuplicateID, Message: "block id already registered", ID: id}
}

func errGroupConflict(pos Position, msg string) *Violation {
	return &Violation{Code: ErrCodeGroupConflict, Message: msg, Pos: pos}
}

package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/cascade/internal/grid"
	"github.com/roach88/cascade/internal/pattern"
)

// StaleError reports that a pattern's positions changed between
// recognition and execution.
//
// A stale pattern is skipped, never applied: the executor's store-level
// re-validation rejected it before any mutation, so the grid is intact
// and the chain continues with the next candidate.
type StaleError struct {
	// PatternID identifies the stale pattern.
	PatternID string

	// Kind is the stale pattern's kind.
	Kind pattern.Kind

	// Pos is the position where re-validation failed, when known.
	Pos grid.Position

	// Reason describes the mismatch.
	Reason string
}

// Error implements the error interface.
func (e *StaleError) Error() string {
	return fmt.Sprintf("stale %s pattern %.12s: %s at %s", e.Kind, e.PatternID, e.Reason, e.Pos)
}

// IsStale returns true if the error is (or wraps) a StaleError.
func IsStale(err error) bool {
	var se *StaleError
	return errors.As(err, &se)
}

// staleFromViolation converts a store group-conflict into a StaleError.
// Other violations pass through unchanged - they indicate a bug in the
// executor, not a racing grid.
func staleFromViolation(p pattern.Pattern, err error) error {
	if !grid.IsGroupConflict(err) {
		return err
	}
	v, _ := grid.IsViolation(err)
	return &StaleError{
		PatternID: p.ID,
		Kind:      p.Kind,
		Pos:       v.Pos,
		Reason:    v.Message,
	}
}

// AbortReason explains why a chain stopped before its queue drained.
// Aborting is not a failure: already-executed patterns are still
// returned, the board simply stops cascading this turn.
type AbortReason string

const (
	// AbortNone means the chain ran to quiescence.
	AbortNone AbortReason = ""

	// AbortDepth means the hard chain-depth cap was hit.
	AbortDepth AbortReason = "DEPTH_LIMIT"

	// AbortCycle means a previously seen grid signature recurred
	// (oscillating board).
	AbortCycle AbortReason = "CYCLE_DETECTED"
)

// Fault records a per-step error captured during a chain.
//
// Faults never unwind the chain: recognition, resolution, and execution
// errors are recorded here and processing continues with the next
// candidate. The worst user-visible symptom is "no further cascade".
type Fault struct {
	// PatternID identifies the affected pattern, when one existed.
	PatternID string

	// Kind is the pattern kind being processed when the fault occurred.
	Kind pattern.Kind

	// Err is the captured error.
	Err error
}

// Stale reports whether this fault was a skipped stale pattern.
func (f Fault) Stale() bool {
	return IsStale(f.Err)
}

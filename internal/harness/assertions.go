package harness

import (
	"errors"
	"fmt"

	"github.com/roach88/cascade/internal/grid"
)

// Check evaluates every assertion against the result.
// All failures are collected and joined, not just the first.
func Check(result *Result) error {
	var errs []error
	for i, a := range result.Scenario.Assertions {
		if err := checkOne(result, a); err != nil {
			errs = append(errs, fmt.Errorf("assertion %d (%s): %w", i, a.Type, err))
		}
	}
	return errors.Join(errs...)
}

// checkOne evaluates a single assertion.
func checkOne(result *Result, a Assertion) error {
	switch a.Type {
	case AssertExecutedCount:
		if got := len(result.Trace); got != a.Count {
			return fmt.Errorf("expected %d executed patterns, got %d", a.Count, got)
		}

	case AssertExecutedKind:
		if a.Index >= len(result.Trace) {
			return fmt.Errorf("index %d out of range (%d executed)", a.Index, len(result.Trace))
		}
		if got := result.Trace[a.Index].Kind; got != a.Kind {
			return fmt.Errorf("execution %d: expected kind %q, got %q", a.Index, a.Kind, got)
		}

	case AssertPositionsEmpty:
		for _, pos := range a.Positions {
			if result.Store.IsOccupied(pos) {
				return fmt.Errorf("expected %s empty, found a block", pos)
			}
		}

	case AssertOccupied:
		if a.At == nil {
			return fmt.Errorf("occupied assertion requires 'at'")
		}
		b, ok := result.Store.BlockAt(*a.At)
		if !ok {
			return fmt.Errorf("expected a block at %s, found none", *a.At)
		}
		if a.BlockType != "" && b.Type != grid.BlockType(a.BlockType) {
			return fmt.Errorf("block at %s: expected type %q, got %q", *a.At, a.BlockType, b.Type)
		}
		if a.Tier > 0 && b.Tier != a.Tier {
			return fmt.Errorf("block at %s: expected tier %d, got %d", *a.At, a.Tier, b.Tier)
		}

	case AssertTraceOrder:
		if len(result.Trace) != len(a.Kinds) {
			return fmt.Errorf("expected %d executions, got %d", len(a.Kinds), len(result.Trace))
		}
		for i, want := range a.Kinds {
			if got := result.Trace[i].Kind; got != want {
				return fmt.Errorf("execution %d: expected kind %q, got %q", i, want, got)
			}
		}

	case AssertAbort:
		if got := string(result.Chain.Abort); got != a.Abort {
			return fmt.Errorf("expected abort reason %q, got %q", a.Abort, got)
		}

	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

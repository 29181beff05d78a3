package harness

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/cascade/internal/grid"
)

// Scenario defines a conformance test scenario: a board setup, a trigger
// position, and assertions on the resulting chain.
type Scenario struct {
	// Name uniquely identifies this scenario. Also the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Grid gives the board dimensions.
	Grid GridSpec `yaml:"grid"`

	// Kinds lists the enabled pattern kinds. Empty means the default
	// progression state (match only).
	Kinds []string `yaml:"kinds,omitempty"`

	// Blocks places the initial board. Ids are optional; blocks without
	// one get "b1", "b2", ... in declaration order.
	Blocks []BlockSpec `yaml:"blocks"`

	// Trigger is the position handed to ProcessAt.
	Trigger grid.Position `yaml:"trigger"`

	// Assertions validate the chain result and final board.
	// Supported types: executed_count, executed_kind, positions_empty,
	// occupied, trace_order, abort.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// GridSpec gives board dimensions.
type GridSpec struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// BlockSpec places one block on the initial board.
type BlockSpec struct {
	ID   string `yaml:"id,omitempty"`
	Type string `yaml:"type"`
	Tier int    `yaml:"tier,omitempty"`
	X    int    `yaml:"x"`
	Y    int    `yaml:"y"`
}

// Assertion validates the chain result or final board state.
type Assertion struct {
	// Type selects the assertion:
	//   - "executed_count": exactly Count patterns executed
	//   - "executed_kind": execution at Index has kind Kind
	//   - "positions_empty": every listed position is vacant afterwards
	//   - "occupied": At holds a block of BlockType (and Tier, if set)
	//   - "trace_order": executed kinds appear exactly in Kinds order
	//   - "abort": the chain aborted with reason Abort ("" = no abort)
	Type string `yaml:"type"`

	Count     int             `yaml:"count,omitempty"`
	Index     int             `yaml:"index,omitempty"`
	Kind      string          `yaml:"kind,omitempty"`
	Kinds     []string        `yaml:"kinds,omitempty"`
	Positions []grid.Position `yaml:"positions,omitempty"`
	At        *grid.Position  `yaml:"at,omitempty"`
	BlockType string          `yaml:"block_type,omitempty"`
	Tier      int             `yaml:"tier,omitempty"`
	Abort     string          `yaml:"abort,omitempty"`
}

// Assertion type constants.
const (
	AssertExecutedCount  = "executed_count"
	AssertExecutedKind   = "executed_kind"
	AssertPositionsEmpty = "positions_empty"
	AssertOccupied       = "occupied"
	AssertTraceOrder     = "trace_order"
	AssertAbort          = "abort"
)

// Load reads and validates a scenario from a YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &s, nil
}

// Validate checks structural requirements before running.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Grid.Width < 1 || s.Grid.Height < 1 {
		return fmt.Errorf("grid dimensions must be positive: %dx%d", s.Grid.Width, s.Grid.Height)
	}
	for i, a := range s.Assertions {
		switch a.Type {
		case AssertExecutedCount, AssertExecutedKind, AssertPositionsEmpty,
			AssertOccupied, AssertTraceOrder, AssertAbort:
		default:
			return fmt.Errorf("assertion %d: unknown type %q", i, a.Type)
		}
	}
	return nil
}

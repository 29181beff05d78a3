package harness

import (
	"fmt"

	"github.com/roach88/cascade/internal/engine"
	"github.com/roach88/cascade/internal/grid"
	"github.com/roach88/cascade/internal/pattern"
	"github.com/roach88/cascade/internal/rules"
)

// TraceEvent is one executed pattern, flattened for assertions and
// golden comparison.
type TraceEvent struct {
	Seq       int64
	Kind      string
	Effect    string
	BlockType string
	Tier      int
	Positions []grid.Position
}

// Result holds everything a scenario run produced.
type Result struct {
	Scenario *Scenario
	Chain    engine.ChainResult
	Store    *grid.Store
	Trace    []TraceEvent
}

// Run executes a scenario: builds the board, wires a processor with
// deterministic generators, triggers one chain, and flattens the trace.
//
// Determinism: the chain token is fixed to "<name>-chain" and
// replacement-block ids come from a sequence generator, so repeated runs
// of the same scenario produce byte-identical golden traces.
func Run(s *Scenario) (*Result, error) {
	store, err := grid.NewStore(s.Grid.Width, s.Grid.Height)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	for i, bs := range s.Blocks {
		id := bs.ID
		if id == "" {
			id = fmt.Sprintf("b%d", i+1)
		}
		tier := bs.Tier
		if tier < 1 {
			tier = 1
		}
		b := grid.Block{
			ID:   id,
			Type: grid.BlockType(bs.Type),
			Tier: tier,
			Pos:  grid.Position{X: bs.X, Y: bs.Y},
		}
		if err := store.Place(b); err != nil {
			return nil, fmt.Errorf("scenario %s: place block %d: %w", s.Name, i, err)
		}
	}

	cfg := rules.Default()
	if len(s.Kinds) > 0 {
		for _, k := range pattern.Kinds() {
			cfg.SetEnabled(k, false)
		}
		for _, name := range s.Kinds {
			k := pattern.Kind(name)
			if !k.Known() {
				return nil, fmt.Errorf("scenario %s: unknown kind %q", s.Name, name)
			}
			cfg.SetEnabled(k, true)
		}
	}

	proc, err := engine.NewProcessor(
		store,
		cfg.Recognizers(),
		engine.DefaultExecutors(engine.NewSequenceGenerator(s.Name)),
		cfg,
		engine.NewFixedGenerator(s.Name+"-chain"),
	)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	chain := proc.ProcessAt(s.Trigger)

	trace := make([]TraceEvent, len(chain.Executed))
	for i, ex := range chain.Executed {
		trace[i] = TraceEvent{
			Seq:       ex.Seq,
			Kind:      string(ex.Pattern.Kind),
			Effect:    string(ex.Pattern.Outcome.Effect),
			BlockType: string(ex.Pattern.BlockType),
			Tier:      ex.Pattern.Tier,
			Positions: ex.Pattern.Positions,
		}
	}

	return &Result{
		Scenario: s,
		Chain:    chain,
		Store:    store,
		Trace:    trace,
	}, nil
}

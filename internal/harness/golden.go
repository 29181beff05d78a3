package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/cascade/internal/canon"
)

// snapshotMap flattens a result's trace into the map form canon.Marshal
// accepts, so golden files are canonical JSON.
func snapshotMap(scenarioName string, trace []TraceEvent) map[string]any {
	events := make([]any, len(trace))
	for i, ev := range trace {
		positions := make([]any, len(ev.Positions))
		for j, pos := range ev.Positions {
			positions[j] = map[string]any{"x": pos.X, "y": pos.Y}
		}
		events[i] = map[string]any{
			"seq":        ev.Seq,
			"kind":       ev.Kind,
			"effect":     ev.Effect,
			"block_type": ev.BlockType,
			"tier":       ev.Tier,
			"positions":  positions,
		}
	}
	return map[string]any{
		"scenario_name": scenarioName,
		"trace":         events,
	}
}

// RunWithGolden executes a scenario and compares the trace against a
// golden file at testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files:
//
//	go test ./internal/harness -update
//
// Golden files are canonical JSON, so they are byte-stable across runs
// and platforms.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	traceJSON, err := canon.Marshal(snapshotMap(scenario.Name, result.Trace))
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, traceJSON)

	return result, nil
}

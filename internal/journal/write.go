package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/cascade/internal/canon"
	"github.com/roach88/cascade/internal/engine"
	"github.com/roach88/cascade/internal/grid"
)

// WriteChain records a chain result and all its executions in a single
// transaction - either the whole chain is journaled or none of it.
//
// Uses ON CONFLICT DO NOTHING keyed by chain token for idempotency:
// re-recording the same chain is a silent no-op.
func (j *Journal) WriteChain(ctx context.Context, res engine.ChainResult) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write chain: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO chains
		(token, trigger_x, trigger_y, abort_reason, rounds, executed_count, fault_count, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`,
		res.Token,
		res.Trigger.X,
		res.Trigger.Y,
		string(res.Abort),
		res.Rounds,
		len(res.Executed),
		len(res.Faults),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("write chain %s: %w", res.Token, err)
	}

	for _, ex := range res.Executed {
		positions, err := marshalPositions(ex.Pattern.Positions)
		if err != nil {
			return fmt.Errorf("write chain %s: %w", res.Token, err)
		}
		removed, err := marshalPositions(ex.Result.Removed)
		if err != nil {
			return fmt.Errorf("write chain %s: %w", res.Token, err)
		}
		altered, err := marshalPositions(ex.Result.Altered)
		if err != nil {
			return fmt.Errorf("write chain %s: %w", res.Token, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO executions
			(chain_token, seq, pattern_id, kind, block_type, tier, effect, positions, removed, altered)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(chain_token, seq) DO NOTHING
		`,
			res.Token,
			ex.Seq,
			ex.Pattern.ID,
			string(ex.Pattern.Kind),
			string(ex.Pattern.BlockType),
			ex.Pattern.Tier,
			string(ex.Pattern.Outcome.Effect),
			positions,
			removed,
			altered,
		)
		if err != nil {
			return fmt.Errorf("write execution seq %d: %w", ex.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write chain %s: commit: %w", res.Token, err)
	}
	return nil
}

// marshalPositions serializes positions as a canonical JSON array of
// {x,y} objects, so identical chains journal to identical bytes.
func marshalPositions(ps []grid.Position) (string, error) {
	cells := make([]any, len(ps))
	for i, p := range ps {
		cells[i] = map[string]any{"x": p.X, "y": p.Y}
	}
	data, err := canon.Marshal(cells)
	if err != nil {
		return "", fmt.Errorf("marshal positions: %w", err)
	}
	return string(data), nil
}

package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/cascade/internal/grid"
)

// ChainSummary is one row of the chain listing.
type ChainSummary struct {
	Token         string        `json:"token"`
	Trigger       grid.Position `json:"trigger"`
	AbortReason   string        `json:"abort_reason,omitempty"`
	Rounds        int           `json:"rounds"`
	ExecutedCount int           `json:"executed_count"`
	FaultCount    int           `json:"fault_count"`
	RecordedAt    string        `json:"recorded_at"`
}

// ExecutionRecord is one journaled execution.
type ExecutionRecord struct {
	Seq       int64           `json:"seq"`
	PatternID string          `json:"pattern_id"`
	Kind      string          `json:"kind"`
	BlockType string          `json:"block_type"`
	Tier      int             `json:"tier"`
	Effect    string          `json:"effect"`
	Positions []grid.Position `json:"positions"`
	Removed   []grid.Position `json:"removed"`
	Altered   []grid.Position `json:"altered"`
}

// ChainRecord is a fully loaded chain with its executions in seq order.
type ChainRecord struct {
	ChainSummary
	Executions []ExecutionRecord `json:"executions"`
}

// ErrChainNotFound is returned when no chain exists for a token.
var ErrChainNotFound = fmt.Errorf("chain not found")

// ListChains returns summaries of every journaled chain, ordered by
// token ascending (UUIDv7 tokens, so creation order).
func (j *Journal) ListChains(ctx context.Context) ([]ChainSummary, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT token, trigger_x, trigger_y, abort_reason, rounds, executed_count, fault_count, recorded_at
		FROM chains
		ORDER BY token COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list chains: %w", err)
	}
	defer rows.Close()

	summaries := []ChainSummary{}
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chains: %w", err)
	}
	return summaries, nil
}

// ReadChain loads one chain and its executions in seq order.
// Returns ErrChainNotFound if the token is unknown.
func (j *Journal) ReadChain(ctx context.Context, token string) (ChainRecord, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT token, trigger_x, trigger_y, abort_reason, rounds, executed_count, fault_count, recorded_at
		FROM chains
		WHERE token = ?
	`, token)

	var rec ChainRecord
	var tx, ty int
	err := row.Scan(&rec.Token, &tx, &ty, &rec.AbortReason, &rec.Rounds,
		&rec.ExecutedCount, &rec.FaultCount, &rec.RecordedAt)
	if err == sql.ErrNoRows {
		return ChainRecord{}, fmt.Errorf("%w: %s", ErrChainNotFound, token)
	}
	if err != nil {
		return ChainRecord{}, fmt.Errorf("read chain %s: %w", token, err)
	}
	rec.Trigger = grid.Position{X: tx, Y: ty}

	// Deterministic ordering: seq ASC, pattern_id as a stable second key.
	rows, err := j.db.QueryContext(ctx, `
		SELECT seq, pattern_id, kind, block_type, tier, effect, positions, removed, altered
		FROM executions
		WHERE chain_token = ?
		ORDER BY seq ASC, pattern_id COLLATE BINARY ASC
	`, token)
	if err != nil {
		return ChainRecord{}, fmt.Errorf("read executions for %s: %w", token, err)
	}
	defer rows.Close()

	rec.Executions = []ExecutionRecord{}
	for rows.Next() {
		ex, err := scanExecution(rows)
		if err != nil {
			return ChainRecord{}, err
		}
		rec.Executions = append(rec.Executions, ex)
	}
	if err := rows.Err(); err != nil {
		return ChainRecord{}, fmt.Errorf("iterate executions: %w", err)
	}
	return rec, nil
}

// scanSummary scans one chains row.
func scanSummary(rows *sql.Rows) (ChainSummary, error) {
	var s ChainSummary
	var tx, ty int
	if err := rows.Scan(&s.Token, &tx, &ty, &s.AbortReason, &s.Rounds,
		&s.ExecutedCount, &s.FaultCount, &s.RecordedAt); err != nil {
		return ChainSummary{}, fmt.Errorf("scan chain: %w", err)
	}
	s.Trigger = grid.Position{X: tx, Y: ty}
	return s, nil
}

// scanExecution scans one executions row, decoding the position arrays.
func scanExecution(rows *sql.Rows) (ExecutionRecord, error) {
	var ex ExecutionRecord
	var positions, removed, altered string
	if err := rows.Scan(&ex.Seq, &ex.PatternID, &ex.Kind, &ex.BlockType,
		&ex.Tier, &ex.Effect, &positions, &removed, &altered); err != nil {
		return ExecutionRecord{}, fmt.Errorf("scan execution: %w", err)
	}

	for _, pair := range []struct {
		raw  string
		into *[]grid.Position
	}{
		{positions, &ex.Positions},
		{removed, &ex.Removed},
		{altered, &ex.Altered},
	} {
		if err := json.Unmarshal([]byte(pair.raw), pair.into); err != nil {
			return ExecutionRecord{}, fmt.Errorf("decode positions: %w", err)
		}
	}
	return ex, nil
}

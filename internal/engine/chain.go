package engine

import (
	"fmt"
	"log/slog"

	"github.com/roach88/cascade/internal/grid"
	"github.com/roach88/cascade/internal/pattern"
)

// DefaultMaxDepth is the default hard cap on execution rounds per chain.
// Prevents runaway cascades from consuming unbounded time.
const DefaultMaxDepth = 32

// ExecutedPattern is one entry of a chain's ordered execution trace.
type ExecutedPattern struct {
	// Seq is the engine-wide logical sequence number of this execution.
	Seq int64

	// Pattern is the executed pattern.
	Pattern pattern.Pattern

	// Result reports the positions the execution vacated or altered.
	Result ExecutionResult
}

// ChainResult is everything a chain produced, in execution order.
//
// A chain always returns its best partial result: faults and aborts
// never discard already-executed patterns.
type ChainResult struct {
	// Token correlates this chain's log lines and journal rows.
	Token string

	// Trigger is the position that seeded the chain.
	Trigger grid.Position

	// Executed lists every executed pattern in execution order.
	Executed []ExecutedPattern

	// Faults lists per-step errors captured during the chain
	// (stale patterns, executor failures). Non-fatal diagnostics.
	Faults []Fault

	// Abort explains an early stop, or AbortNone for quiescence.
	Abort AbortReason

	// Rounds counts execution rounds (chain depth reached).
	Rounds int
}

// Processor orchestrates recognize -> resolve -> execute rounds seeded by
// the positions each execution just affected.
//
// States: Idle -> Processing -> Idle. Recursive by construction but
// implemented iteratively with an explicit position queue, an explicit
// depth counter, and a seen-signature set, so the termination guarantee
// is mechanically checkable.
//
// Thread-safety model:
//   - ProcessAt is safe to call from multiple goroutines; the grid
//     store's own atomicity serializes conflicting executions
//   - The processor itself holds no mutable per-chain state between calls
type Processor struct {
	store       *grid.Store
	recognizers []pattern.Recognizer
	executors   map[pattern.Kind]Executor
	gate        pattern.Gate
	tokens      TokenGenerator
	clock       *Clock
	inflight    *InFlight
	maxDepth    int
	maxPerKind  int
}

// Option configures a Processor.
type Option func(*Processor)

// WithMaxDepth sets the hard chain-depth cap.
func WithMaxDepth(depth int) Option {
	return func(p *Processor) {
		if depth > 0 {
			p.maxDepth = depth
		}
	}
}

// WithMaxPerKind sets the per-kind recognition result cap.
func WithMaxPerKind(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxPerKind = n
		}
	}
}

// WithClock installs a pre-positioned logical clock.
// Used when resuming on top of an existing journal.
func WithClock(c *Clock) Option {
	return func(p *Processor) {
		p.clock = c
	}
}

// NewProcessor creates a chain processor.
//
// The recognizer slice order is preserved and determines candidate
// collection order (which never affects winners - resolution is order
// independent - but keeps traces stable). The executor table is built
// once here; no runtime reflection or lookup registration happens later.
//
// The host owns the store's and gate's lifetimes and injects them
// explicitly; the processor holds no ambient/static state.
func NewProcessor(
	s *grid.Store,
	recognizers []pattern.Recognizer,
	executors []Executor,
	gate pattern.Gate,
	tokens TokenGenerator,
	opts ...Option,
) (*Processor, error) {
	if s == nil {
		return nil, fmt.Errorf("store is required")
	}
	if gate == nil {
		gate = pattern.GateAll{}
	}
	if tokens == nil {
		tokens = UUIDv7Generator{}
	}

	seen := make(map[pattern.Kind]bool, len(recognizers))
	for _, r := range recognizers {
		if seen[r.Kind()] {
			return nil, fmt.Errorf("duplicate recognizer for kind %q", r.Kind())
		}
		seen[r.Kind()] = true
	}

	table, err := NewExecutorTable(executors...)
	if err != nil {
		return nil, err
	}

	recsCopy := make([]pattern.Recognizer, len(recognizers))
	copy(recsCopy, recognizers)

	p := &Processor{
		store:       s,
		recognizers: recsCopy,
		executors:   table,
		gate:        gate,
		tokens:      tokens,
		clock:       NewClock(),
		inflight:    NewInFlight(),
		maxDepth:    DefaultMaxDepth,
		maxPerKind:  pattern.DefaultMaxPerKind,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Clock returns the processor's logical clock.
func (p *Processor) Clock() *Clock { return p.clock }

// InFlight returns the settle counter for host-side bounded waits.
func (p *Processor) InFlight() *InFlight { return p.inflight }

// MaxDepth returns the configured chain-depth cap.
func (p *Processor) MaxDepth() int { return p.maxDepth }

// ProcessAt runs a full cascade chain seeded at trigger and returns the
// ordered executed-pattern trace.
//
// ProcessAt never returns an error and never panics on pattern or
// executor failures: per-step errors are captured in ChainResult.Faults
// and processing continues with the next candidate. Invoked synchronously
// on whatever goroutine handles the host's "block changed" event.
func (p *Processor) ProcessAt(trigger grid.Position) ChainResult {
	p.inflight.Begin()
	defer p.inflight.End()

	res := ChainResult{
		Token:   p.tokens.Generate(),
		Trigger: trigger,
	}

	slog.Debug("chain started",
		"chain", res.Token,
		"trigger", trigger.String(),
	)

	queue := []grid.Position{trigger}
	queued := map[grid.Position]bool{trigger: true}

	// Cycle guard: the pre-chain signature counts as seen, so a round
	// that restores the starting board aborts instead of oscillating.
	seen := make(map[string]bool)
	if sig, err := p.store.Signature(); err == nil {
		seen[sig] = true
	}

	depth := 0
	for len(queue) > 0 {
		pos := queue[0]
		queue = queue[1:]
		delete(queued, pos)

		candidates := p.recognizeAt(pos, &res)
		winners := Resolve(candidates)
		if len(winners) == 0 {
			continue
		}

		var affected []grid.Position
		executed := false
		for _, w := range winners {
			exec, ok := p.executors[w.Kind]
			if !ok {
				res.Faults = append(res.Faults, Fault{
					PatternID: w.ID,
					Kind:      w.Kind,
					Err:       fmt.Errorf("no executor for kind %q", w.Kind),
				})
				continue
			}

			result, err := exec.Execute(p.store, w)
			if err != nil {
				res.Faults = append(res.Faults, Fault{PatternID: w.ID, Kind: w.Kind, Err: err})
				if IsStale(err) {
					slog.Debug("stale pattern skipped",
						"chain", res.Token,
						"pattern", w.ID,
						"kind", w.Kind,
					)
				} else {
					slog.Warn("pattern execution failed",
						"chain", res.Token,
						"pattern", w.ID,
						"kind", w.Kind,
						"error", err,
					)
				}
				continue
			}

			res.Executed = append(res.Executed, ExecutedPattern{
				Seq:     p.clock.Next(),
				Pattern: w,
				Result:  result,
			})
			executed = true
			affected = append(affected, result.Affected()...)

			slog.Debug("pattern executed",
				"chain", res.Token,
				"pattern", w.ID,
				"kind", w.Kind,
				"size", w.Size(),
				"removed", len(result.Removed),
				"altered", len(result.Altered),
			)
		}

		if !executed {
			continue
		}

		depth++
		res.Rounds = depth
		if depth >= p.maxDepth {
			res.Abort = AbortDepth
			slog.Warn("chain aborted: depth limit",
				"chain", res.Token,
				"depth", depth,
				"limit", p.maxDepth,
			)
			break
		}

		sig, err := p.store.Signature()
		if err == nil {
			if seen[sig] {
				res.Abort = AbortCycle
				slog.Warn("chain aborted: repeated grid state",
					"chain", res.Token,
					"depth", depth,
				)
				break
			}
			seen[sig] = true
		}

		// Seed the next round: every orthogonal neighbor of every
		// vacated/altered position, deduplicated.
		for _, ap := range affected {
			for _, n := range ap.Adjacent() {
				if !p.store.IsValid(n) || queued[n] {
					continue
				}
				queued[n] = true
				queue = append(queue, n)
			}
		}
	}

	slog.Info("chain finished",
		"chain", res.Token,
		"trigger", trigger.String(),
		"executed", len(res.Executed),
		"faults", len(res.Faults),
		"rounds", res.Rounds,
		"abort", string(res.Abort),
	)
	return res
}

// recognizeAt collects candidate patterns at pos from every enabled,
// applicable recognizer. Recognition errors become faults; per-kind cap
// overflow simply truncates (not an error).
func (p *Processor) recognizeAt(pos grid.Position, res *ChainResult) []pattern.Pattern {
	ctx := pattern.NewContext(pos)
	ctx.MaxPerKind = p.maxPerKind

	var out []pattern.Pattern
	for _, r := range p.recognizers {
		if !p.gate.Enabled(r.Kind()) || !ctx.WantsKind(r.Kind()) {
			continue
		}
		if !r.CanRecognizeAt(p.store, pos) {
			continue
		}

		ps, err := r.Recognize(p.store, pos, ctx)
		if err != nil {
			res.Faults = append(res.Faults, Fault{Kind: r.Kind(), Err: err})
			slog.Warn("recognition failed",
				"chain", res.Token,
				"kind", r.Kind(),
				"pos", pos.String(),
				"error", err,
			)
			continue
		}
		if limit := ctx.PerKindCap(); len(ps) > limit {
			ps = ps[:limit]
		}
		out = append(out, ps...)
	}
	return out
}

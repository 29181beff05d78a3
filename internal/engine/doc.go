// Package engine implements the cascade chain processor.
//
// The engine is the rule-evaluation core of the grid game: it receives a
// "block changed at position P" trigger, recognizes candidate patterns,
// resolves conflicts among them, executes the winners against the grid
// store, and re-evaluates the positions each execution affected until
// the board goes quiet.
//
// # Processing flow
//
//  1. ProcessAt(trigger) enqueues the trigger position
//  2. For each queued position: collect candidates from every enabled
//     recognizer whose cheap pre-check passes
//  3. Resolve picks one deterministic winner per conflict group
//     (priority, then size, then smallest content-addressed pattern ID)
//  4. Executors apply winners through the grid store's atomic group
//     operations, re-validating the live grid first (stale patterns are
//     skipped, never applied)
//  5. Orthogonal neighbors of every vacated/altered position seed the
//     next round
//
// # Termination
//
// Two independent guards bound every chain:
//   - A hard depth cap on execution rounds (DefaultMaxDepth)
//   - A cycle guard: the grid's content-addressed signature is recorded
//     after each round and a repeat aborts the chain
//
// The first catches linear explosions, the second oscillating boards.
// Together they make termination mechanically checkable - there is no
// unbounded recursion anywhere in the chain.
//
// # Error policy
//
// A chain never unwinds on a per-candidate failure. Recognition,
// resolution, and execution errors are captured as Faults on the
// ChainResult and processing continues; the chain always returns its
// best partial result. Ordering uses the logical clock seq, never wall
// time.
package engine

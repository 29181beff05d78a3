package engine

import (
	"sync"
	"time"
)

// InFlight counts chains currently processing so hosts can await
// "has all cascading settled".
//
// Begin increments when a chain starts, End decrements when it finishes -
// including on abort and error paths. WaitIdle blocks with an explicit
// timeout; timing out is a caller-visible signal, not an engine error.
//
// Thread-safety: all methods are safe for concurrent use.
type InFlight struct {
	mu   sync.Mutex
	n    int
	idle chan struct{} // closed while n == 0
}

// NewInFlight creates an idle counter.
func NewInFlight() *InFlight {
	idle := make(chan struct{})
	close(idle)
	return &InFlight{idle: idle}
}

// Begin records a chain starting.
func (f *InFlight) Begin() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.n++
	if f.n == 1 {
		f.idle = make(chan struct{})
	}
}

// End records a chain finishing. Panics on underflow - an End without a
// matching Begin is a programming error worth failing fast on.
func (f *InFlight) End() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.n == 0 {
		panic("InFlight: End without matching Begin")
	}
	f.n--
	if f.n == 0 {
		close(f.idle)
	}
}

// Count returns the number of chains currently processing.
func (f *InFlight) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.n
}

// WaitIdle blocks until no chains are processing or the timeout elapses.
// Returns true if idle was reached, false on timeout.
//
// Note the usual settle caveat: a chain starting after WaitIdle returns
// is not waited for. Callers serializing against their own triggers get
// the guarantee they expect.
func (f *InFlight) WaitIdle(timeout time.Duration) bool {
	f.mu.Lock()
	ch := f.idle
	f.mu.Unlock()

	select {
	case <-ch:
		return true
	case <-time.After(timeout):
		// Re-check: the counter may have hit zero exactly at the deadline.
		select {
		case <-ch:
			return true
		default:
			return false
		}
	}
}

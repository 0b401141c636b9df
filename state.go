package asyncio

import (
	"sync/atomic"
)

// LoopState represents a Loop's lifecycle, as actually driven by Run,
// Shutdown, and Close - this package never parks the loop in an
// intermediate "sleeping" state the way a multi-threaded poller might,
// since PollIO already blocks synchronously inside Run's own goroutine.
//
// State Machine:
//
//	StateCreated (0) → StateRunning (1)      [Run() begins]
//	StateRunning (1) → StateTerminating (2)  [Shutdown() requests an early stop]
//	StateRunning (1) → StateTerminated (3)   [Run() returns, idle or ctx canceled]
//	StateTerminating (2) → StateTerminated (3) [Run()'s next iteration observes Shutdown]
//	StateTerminated (3) → (terminal)
//
// Use TryTransition/TransitionAny (CAS) for every transition above; Store
// is reserved for the final, irreversible move to StateTerminated.
type LoopState uint64

const (
	// StateCreated indicates the loop has been constructed but Run has not
	// yet been called.
	StateCreated LoopState = 0
	// StateRunning indicates Run is actively driving next-tick callbacks,
	// timers, and I/O dispatch.
	StateRunning LoopState = 1
	// StateTerminating indicates Shutdown has been requested but Run has
	// not yet observed it.
	StateTerminating LoopState = 2
	// StateTerminated indicates Run has returned; the loop is done.
	StateTerminated LoopState = 3
)

// String returns a human-readable representation of the state.
func (s LoopState) String() string {
	switch s {
	case StateCreated:
		return "Created"
	case StateRunning:
		return "Running"
	case StateTerminating:
		return "Terminating"
	case StateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// FastState is a lock-free state holder for a Loop's lifecycle, cache-line
// padded so repeated Load calls from the hot poll loop never false-share
// with a neighboring field.
type FastState struct { // betteralign:ignore
	_ [64]byte      // cache line padding (before value) //nolint:unused
	v atomic.Uint64 // state value
	_ [56]byte      // pad to complete cache line (64 - 8 = 56) //nolint:unused
}

// NewFastState creates a new state machine in the Created state.
func NewFastState() *FastState {
	s := &FastState{}
	s.v.Store(uint64(StateCreated))
	return s
}

// Load returns the current state atomically.
func (s *FastState) Load() LoopState {
	return LoopState(s.v.Load())
}

// Store atomically stores a new state, bypassing transition validation;
// reserved for the final move to StateTerminated.
func (s *FastState) Store(state LoopState) {
	s.v.Store(uint64(state))
}

// TryTransition attempts to atomically move from one state to another,
// succeeding only if the current state is exactly from.
func (s *FastState) TryTransition(from, to LoopState) bool {
	return s.v.CompareAndSwap(uint64(from), uint64(to))
}

// TransitionAny attempts to move to the target state from any one of
// validFrom, trying each in turn until one CAS succeeds.
func (s *FastState) TransitionAny(validFrom []LoopState, to LoopState) bool {
	for _, from := range validFrom {
		if s.v.CompareAndSwap(uint64(from), uint64(to)) {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the loop has finished running. Close uses
// this to log if it's invoked before Run has actually returned.
func (s *FastState) IsTerminal() bool {
	return s.Load() == StateTerminated
}

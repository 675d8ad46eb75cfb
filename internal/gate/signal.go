package gate

import "sync/atomic"

// State of a Signal.
type State int32

// Signal states.
const (
	Pending State = iota
	Signaled
)

func (s State) String() string {
	if s == Signaled {
		return "signaled"
	}
	return "pending"
}

// Signal is a single-use latch around a completion callback.
// Only the first Fire reaches the callback, whichever path it comes from.
type Signal struct {
	state atomic.Int32
	fn    func(err error)
}

// NewSignal wraps fn.
func NewSignal(fn func(err error)) *Signal {
	return &Signal{fn: fn}
}

// Fire invokes the callback on the first call only.
func (s *Signal) Fire(err error) {
	if !s.state.CompareAndSwap(int32(Pending), int32(Signaled)) {
		return
	}
	if s.fn != nil {
		s.fn(err)
	}
}

// State returns the current state.
func (s *Signal) State() State {
	return State(s.state.Load())
}

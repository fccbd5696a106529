package services

import "sync/atomic"

// EngineState holds the runtime-toggleable flags shared between the decision
// engine, the schedule evaluator and the administrative surface. The enabled
// flag is written by the schedule ticker and read on every decision, so both
// fields are atomics rather than mutex-guarded booleans.
type EngineState struct {
	enabled atomic.Bool
	logging atomic.Bool
}

// NewEngineState constructs the shared runtime state with its starting flags.
func NewEngineState(enabled, logging bool) *EngineState {
	s := &EngineState{}
	s.enabled.Store(enabled)
	s.logging.Store(logging)
	return s
}

// Enabled reports whether protection is currently active.
func (s *EngineState) Enabled() bool {
	return s.enabled.Load()
}

// SetEnabled flips the protection flag.
func (s *EngineState) SetEnabled(v bool) {
	s.enabled.Store(v)
}

// Logging reports whether decision-path logging is active.
func (s *EngineState) Logging() bool {
	return s.logging.Load()
}

// ToggleLogging flips the logging flag and returns the new value.
func (s *EngineState) ToggleLogging() bool {
	for {
		old := s.logging.Load()
		if s.logging.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

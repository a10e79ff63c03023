package sim

import "fmt"

// InvalidStateError is returned when an operation is attempted on a process
// whose state does not allow it, e.g. executing a process that is not RUNNING.
type InvalidStateError struct {
	PID  int
	From ProcessState
	To   ProcessState
	Op   string
}

func (e *InvalidStateError) Error() string {
	if e.Op == "execute" {
		return fmt.Sprintf("cannot execute process %d: state is %s, want %s", e.PID, e.From, StateRunning)
	}
	return fmt.Sprintf("invalid process state transition: %s → %s (pid %d)", e.From, e.To, e.PID)
}

// InvalidArgumentError is returned for missing or out-of-range parameters:
// real-time registration without period/deadline, non-positive quanta,
// unknown policy names.
type InvalidArgumentError struct {
	Field  string
	Value  any
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// ConfigurationError is returned when the simulation as a whole is
// misconfigured, e.g. a run that exceeds its tick limit.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

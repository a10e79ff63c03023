// Defines the Process struct that models a single simulated unit of work.
// Tracks arrival, burst progress, I/O bursts and the timestamps used for
// waiting/turnaround/response metrics.

package sim

import (
	"fmt"
)

// ProcessState represents the lifecycle state of a process.
type ProcessState string

const (
	StateNew        ProcessState = "NEW"
	StateReady      ProcessState = "READY"
	StateRunning    ProcessState = "RUNNING"
	StateWaiting    ProcessState = "WAITING"
	StateTerminated ProcessState = "TERMINATED"
)

// String returns the string representation of the process state.
func (s ProcessState) String() string {
	return string(s)
}

// IsTerminal returns true if no further transition is possible.
func (s ProcessState) IsTerminal() bool {
	return s == StateTerminated
}

// validTransitions defines the allowed state transitions for processes.
var validTransitions = map[ProcessState][]ProcessState{
	StateNew:     {StateReady},
	StateReady:   {StateRunning},
	StateRunning: {StateReady, StateWaiting, StateTerminated},
	StateWaiting: {StateReady},
}

// CanTransitionTo returns true if moving from the current state to next is valid.
func (s ProcessState) CanTransitionTo(next ProcessState) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IOOperation is a blocking I/O burst on the process's own timeline.
// StartOffset counts executed CPU ticks; Duration counts ticks spent WAITING.
type IOOperation struct {
	StartOffset int64 `json:"start_offset" yaml:"start_offset"`
	Duration    int64 `json:"duration" yaml:"duration"`
}

// Process models a single process's lifecycle in the simulation.
type Process struct {
	PID int // Unique, positive, caller-assigned

	ArrivalTime  int64         // Tick at which the process becomes READY
	BurstTime    int64         // Total CPU time required
	Priority     int           // Lower value = more urgent
	Period       *int64        // Real-time policies only
	Deadline     *int64        // Relative deadline, EDF only
	IOOperations []IOOperation // Always non-nil, possibly empty

	State           ProcessState
	RemainingTime   int64
	WaitingTime     int64  // Ticks spent READY (plus MLFQ demotion penalties)
	TurnaroundTime  int64  // CompletionTime - ArrivalTime, set at completion
	StartTime       *int64 // First dispatch tick; never changes once set
	CompletionTime  *int64 // Tick after the last executed unit
	ContextSwitches int    // Number of transitions into RUNNING

	nextIO    int   // index of the next I/O operation not yet started
	ioReadyAt int64 // clock at which the current I/O burst completes
}

// NewProcess constructs a Process in the NEW state with RemainingTime = burst.
func NewProcess(pid int, arrival, burst int64, priority int) *Process {
	return &Process{
		PID:           pid,
		ArrivalTime:   arrival,
		BurstTime:     burst,
		Priority:      priority,
		IOOperations:  []IOOperation{},
		State:         StateNew,
		RemainingTime: burst,
	}
}

// WithIO appends I/O operations and returns the process for chaining.
func (p *Process) WithIO(ops ...IOOperation) *Process {
	p.IOOperations = append(p.IOOperations, ops...)
	return p
}

// WithPeriod sets the real-time period and returns the process for chaining.
func (p *Process) WithPeriod(period int64) *Process {
	p.Period = &period
	return p
}

// WithDeadline sets the relative deadline and returns the process for chaining.
func (p *Process) WithDeadline(deadline int64) *Process {
	p.Deadline = &deadline
	return p
}

// Validate checks the static parameters of the process.
func (p *Process) Validate() error {
	if p.PID <= 0 {
		return &InvalidArgumentError{Field: "pid", Value: p.PID, Reason: "must be positive"}
	}
	if p.ArrivalTime < 0 {
		return &InvalidArgumentError{Field: "arrival_time", Value: p.ArrivalTime, Reason: "must be non-negative"}
	}
	if p.BurstTime <= 0 {
		return &InvalidArgumentError{Field: "burst_time", Value: p.BurstTime, Reason: "must be positive"}
	}
	if p.Period != nil && *p.Period <= 0 {
		return &InvalidArgumentError{Field: "period", Value: *p.Period, Reason: "must be positive"}
	}
	if p.Deadline != nil && *p.Deadline <= 0 {
		return &InvalidArgumentError{Field: "deadline", Value: *p.Deadline, Reason: "must be positive"}
	}
	var last int64
	for i, op := range p.IOOperations {
		field := fmt.Sprintf("io_operations[%d]", i)
		if op.StartOffset <= 0 || op.StartOffset >= p.BurstTime {
			return &InvalidArgumentError{Field: field + ".start_offset", Value: op.StartOffset,
				Reason: fmt.Sprintf("must be in (0, %d)", p.BurstTime)}
		}
		if op.StartOffset <= last {
			return &InvalidArgumentError{Field: field + ".start_offset", Value: op.StartOffset,
				Reason: "offsets must be strictly increasing"}
		}
		if op.Duration <= 0 {
			return &InvalidArgumentError{Field: field + ".duration", Value: op.Duration, Reason: "must be positive"}
		}
		last = op.StartOffset
	}
	return nil
}

// Transition moves the process to next. Same-state transitions are no-ops.
// Every transition into RUNNING counts as a context switch.
func (p *Process) Transition(next ProcessState) error {
	if p.State == next {
		return nil
	}
	if !p.State.CanTransitionTo(next) {
		return &InvalidStateError{PID: p.PID, From: p.State, To: next, Op: "transition"}
	}
	p.State = next
	if next == StateRunning {
		p.ContextSwitches++
	}
	return nil
}

// Execute runs the process for up to units ticks and returns the time used.
// The process must be RUNNING; it becomes TERMINATED when RemainingTime hits 0.
func (p *Process) Execute(units int64) (int64, error) {
	if p.State != StateRunning {
		return 0, &InvalidStateError{PID: p.PID, From: p.State, To: StateRunning, Op: "execute"}
	}
	used := min(units, p.RemainingTime)
	if used < 0 {
		used = 0
	}
	p.RemainingTime -= used
	if p.RemainingTime == 0 {
		p.State = StateTerminated
	}
	return used, nil
}

// IsCompleted reports whether the process has terminated.
func (p *Process) IsCompleted() bool {
	return p.State == StateTerminated
}

// Executed returns the CPU time consumed so far.
func (p *Process) Executed() int64 {
	return p.BurstTime - p.RemainingTime
}

// ResponseTime returns StartTime - ArrivalTime once the process has been dispatched.
func (p *Process) ResponseTime() (int64, bool) {
	if p.StartTime == nil {
		return 0, false
	}
	return *p.StartTime - p.ArrivalTime, true
}

// pendingIO returns the next I/O operation if it is due at the current executed time.
func (p *Process) pendingIO() (IOOperation, bool) {
	if p.nextIO >= len(p.IOOperations) {
		return IOOperation{}, false
	}
	op := p.IOOperations[p.nextIO]
	if op.StartOffset != p.Executed() {
		return IOOperation{}, false
	}
	return op, true
}

// Clone returns a deep copy. Comparisons across policies must clone inputs
// because a Process is owned by exactly one engine per run.
func (p *Process) Clone() *Process {
	c := *p
	c.IOOperations = append([]IOOperation{}, p.IOOperations...)
	c.Period = cloneInt64(p.Period)
	c.Deadline = cloneInt64(p.Deadline)
	c.StartTime = cloneInt64(p.StartTime)
	c.CompletionTime = cloneInt64(p.CompletionTime)
	return &c
}

// CloneProcesses deep-copies every process in procs.
func CloneProcesses(procs []*Process) []*Process {
	out := make([]*Process, len(procs))
	for i, p := range procs {
		out[i] = p.Clone()
	}
	return out
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// This method returns a human-readable string representation of a Process.
func (p Process) String() string {
	return fmt.Sprintf("Process: (PID: %d, State: %s, Remaining: %d, Arrival: %d)", p.PID, p.State, p.RemainingTime, p.ArrivalTime)
}

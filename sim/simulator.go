// sim/simulator.go
package sim

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/cpu-sim/cpu-sim/sim/trace"
)

// DefaultMaxTicks bounds Run so a misconfigured workload cannot spin forever.
const DefaultMaxTicks int64 = 1_000_000

// leveler is implemented by multi-level policies to report a process's queue level.
type leveler interface {
	Level(pid int) (int, bool)
}

// deadlineTracker is implemented by real-time policies that detect deadline misses.
type deadlineTracker interface {
	MissedDeadline(pid int) bool
}

// Slice is one contiguous stretch of CPU time given to a process.
// Start is inclusive, End exclusive.
type Slice struct {
	PID   int   `json:"pid"`
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Engine is the core object that holds simulation time, the registered
// processes and the step loop. It owns its processes exclusively for one run
// and is not safe for concurrent use.
type Engine struct {
	policy Policy
	procs  []*Process
	byPID  map[int]*Process
	clock  int64
	// current is the RUNNING process, nil when the CPU is idle
	current  *Process
	trace    *trace.SimulationTrace
	timeline []Slice
	maxTicks int64
}

// Option configures optional Engine behavior.
type Option func(*Engine)

// WithTrace attaches a decision trace to the engine.
func WithTrace(st *trace.SimulationTrace) Option {
	return func(e *Engine) {
		e.trace = st
	}
}

// WithMaxTicks overrides DefaultMaxTicks. Non-positive values keep the default.
func WithMaxTicks(n int64) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxTicks = n
		}
	}
}

// NewEngine creates an Engine driving the given policy.
func NewEngine(policy Policy, opts ...Option) *Engine {
	e := &Engine{
		policy:   policy,
		procs:    make([]*Process, 0),
		byPID:    make(map[int]*Process),
		timeline: make([]Slice, 0),
		maxTicks: DefaultMaxTicks,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Add registers a process with the engine and its policy.
// The process must be NEW, valid, and carry a PID not yet registered.
func (e *Engine) Add(p *Process, args RegistrationArgs) error {
	if p == nil {
		return &InvalidArgumentError{Field: "process", Reason: "must not be nil"}
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if p.State != StateNew {
		return &InvalidStateError{PID: p.PID, From: p.State, To: StateNew, Op: "register"}
	}
	if _, dup := e.byPID[p.PID]; dup {
		return &InvalidArgumentError{Field: "pid", Value: p.PID, Reason: "already registered"}
	}
	if p.IOOperations == nil {
		p.IOOperations = []IOOperation{}
	}
	if err := e.policy.Register(e, p, args); err != nil {
		return err
	}
	e.procs = append(e.procs, p)
	e.byPID[p.PID] = p
	if o, ok := e.policy.(ProcessOrderer); ok {
		o.OrderProcesses(e.procs)
	}
	return nil
}

// AddAll registers every process with empty registration arguments.
func (e *Engine) AddAll(procs ...*Process) error {
	for _, p := range procs {
		if err := e.Add(p, RegistrationArgs{}); err != nil {
			return err
		}
	}
	return nil
}

// Step advances the simulation by one tick and reports whether any process
// is still incomplete. A step on an empty or finished engine does nothing.
func (e *Engine) Step() (bool, error) {
	if e.IsAllCompleted() {
		return false, nil
	}

	// Subprocess: arrivals and I/O completions enter READY
	if err := e.admit(); err != nil {
		return false, fmt.Errorf("admit at tick %d: %w", e.clock, err)
	}

	// Subprocess: policy decision, possibly preempting the current process
	next, err := e.policy.Select(e)
	if err != nil {
		return false, fmt.Errorf("select at tick %d: %w", e.clock, err)
	}
	if next != nil && next != e.current {
		if e.current != nil {
			return false, &ConfigurationError{Reason: fmt.Sprintf(
				"policy %s selected pid %d while pid %d still runs", e.policy.Name(), next.PID, e.current.PID)}
		}
		if err := e.dispatch(next); err != nil {
			return false, err
		}
	}

	// Subprocess: execute the current process for one time unit
	if e.current != nil {
		if err := e.execute(); err != nil {
			return false, err
		}
	}

	for _, p := range e.procs {
		if p.State == StateReady {
			p.WaitingTime++
		}
	}
	e.clock++

	return !e.IsAllCompleted(), nil
}

// Run steps the simulation until every process has terminated.
func (e *Engine) Run() error {
	return e.RunContext(context.Background())
}

// RunContext is Run with cancellation checked between ticks.
func (e *Engine) RunContext(ctx context.Context) error {
	logrus.Infof("[tick %07d] Starting %s with %d processes", e.clock, e.policy.Name(), len(e.procs))
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		more, err := e.Step()
		if err != nil {
			return err
		}
		if !more {
			break
		}
		if e.clock >= e.maxTicks {
			return &ConfigurationError{Reason: fmt.Sprintf("simulation exceeded %d ticks", e.maxTicks)}
		}
	}
	logrus.Infof("[tick %07d] Simulation ended", e.clock)
	return nil
}

// IsAllCompleted reports whether every registered process has terminated.
// An engine with no processes is complete.
func (e *Engine) IsAllCompleted() bool {
	for _, p := range e.procs {
		if !p.IsCompleted() {
			return false
		}
	}
	return true
}

// Clock returns the current simulation time.
func (e *Engine) Clock() int64 {
	return e.clock
}

// Processes returns the registered processes in engine order.
// The slice is a copy; the processes are not.
func (e *Engine) Processes() []*Process {
	return append([]*Process(nil), e.procs...)
}

// Process returns the registered process with pid, or nil.
func (e *Engine) Process(pid int) *Process {
	return e.byPID[pid]
}

// Current returns the RUNNING process, or nil when the CPU is idle.
func (e *Engine) Current() *Process {
	return e.current
}

// Policy returns the policy driving this engine.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Timeline returns the executed CPU slices in time order.
func (e *Engine) Timeline() []Slice {
	return append([]Slice(nil), e.timeline...)
}

// Trace returns the attached decision trace, which may be nil.
func (e *Engine) Trace() *trace.SimulationTrace {
	return e.trace
}

// Preempt returns the current process to READY and releases the CPU.
// The policy is responsible for re-queueing it. Returns the preempted process,
// or nil if the CPU was idle.
func (e *Engine) Preempt(reason string) (*Process, error) {
	p := e.current
	if p == nil {
		return nil, nil
	}
	if err := p.Transition(StateReady); err != nil {
		return nil, err
	}
	e.current = nil
	logrus.Debugf("[tick %07d] Preempted pid %d (%s)", e.clock, p.PID, reason)
	if e.trace.Enabled() {
		e.trace.RecordPreemption(trace.PreemptionRecord{PID: p.PID, Clock: e.clock, Reason: reason})
	}
	return p, nil
}

// admit promotes arrived NEW processes and finished WAITING processes to READY.
func (e *Engine) admit() error {
	for _, p := range e.procs {
		switch {
		case p.State == StateNew && p.ArrivalTime <= e.clock:
			if err := p.Transition(StateReady); err != nil {
				return err
			}
			logrus.Debugf("[tick %07d] Arrival: pid %d", e.clock, p.PID)
			e.policy.OnReady(e, p)
		case p.State == StateWaiting && p.ioReadyAt <= e.clock:
			if err := p.Transition(StateReady); err != nil {
				return err
			}
			logrus.Debugf("[tick %07d] I/O complete: pid %d", e.clock, p.PID)
			e.policy.OnReady(e, p)
		}
	}
	return nil
}

func (e *Engine) dispatch(p *Process) error {
	if err := p.Transition(StateRunning); err != nil {
		return err
	}
	if p.StartTime == nil {
		start := e.clock
		p.StartTime = &start
	}
	e.current = p
	level := 0
	if l, ok := e.policy.(leveler); ok {
		level, _ = l.Level(p.PID)
	}
	logrus.Debugf("[tick %07d] Dispatch: pid %d", e.clock, p.PID)
	if e.trace.Enabled() {
		e.trace.RecordDispatch(trace.DispatchRecord{PID: p.PID, Clock: e.clock, Level: level})
	}
	e.policy.OnDispatch(e, p)
	return nil
}

func (e *Engine) execute() error {
	p := e.current
	if _, err := p.Execute(1); err != nil {
		return err
	}
	e.recordSlice(p.PID)

	if p.IsCompleted() {
		completion := e.clock + 1
		p.CompletionTime = &completion
		p.TurnaroundTime = completion - p.ArrivalTime
		e.current = nil
		logrus.Debugf("[tick %07d] Finished pid %d at %d (turnaround %d)", e.clock, p.PID, completion, p.TurnaroundTime)
		e.policy.OnComplete(e, p)
		missed := false
		if dt, ok := e.policy.(deadlineTracker); ok {
			missed = dt.MissedDeadline(p.PID)
		}
		e.recordCompletion(p, missed)
		return nil
	}

	if op, ok := p.pendingIO(); ok {
		if err := p.Transition(StateWaiting); err != nil {
			return err
		}
		p.nextIO++
		p.ioReadyAt = e.clock + 1 + op.Duration
		e.current = nil
		logrus.Debugf("[tick %07d] I/O block: pid %d for %d ticks", e.clock, p.PID, op.Duration)
		if e.trace.Enabled() {
			e.trace.RecordIO(trace.IORecord{PID: p.PID, Clock: e.clock, Duration: op.Duration})
		}
		e.policy.OnBlocked(e, p)
		return nil
	}

	return e.policy.OnExecuted(e, p)
}

// recordCompletion appends a completion record; missed marks a real-time deadline miss.
func (e *Engine) recordCompletion(p *Process, missed bool) {
	if !e.trace.Enabled() || p.CompletionTime == nil {
		return
	}
	e.trace.RecordCompletion(trace.CompletionRecord{
		PID:            p.PID,
		Clock:          *p.CompletionTime,
		Turnaround:     p.TurnaroundTime,
		Waiting:        p.WaitingTime,
		DeadlineMissed: missed,
	})
}

func (e *Engine) recordSlice(pid int) {
	if n := len(e.timeline); n > 0 {
		last := &e.timeline[n-1]
		if last.PID == pid && last.End == e.clock {
			last.End = e.clock + 1
			return
		}
	}
	e.timeline = append(e.timeline, Slice{PID: pid, Start: e.clock, End: e.clock + 1})
}

package sim

import "github.com/sirupsen/logrus"

// RoundRobinPolicy time-slices the CPU among READY processes in FIFO order.
// A process that used its full quantum goes to the back of the ready queue.
type RoundRobinPolicy struct {
	TimeQuantum int64

	readyQ      ReadyQueue
	quantumUsed int64
}

// NewRoundRobinPolicy creates a Round Robin policy. quantum must be positive.
func NewRoundRobinPolicy(quantum int64) (*RoundRobinPolicy, error) {
	if quantum <= 0 {
		return nil, &InvalidArgumentError{Field: "time_quantum", Value: quantum, Reason: "must be positive"}
	}
	return &RoundRobinPolicy{TimeQuantum: quantum}, nil
}

func (rr *RoundRobinPolicy) Name() string { return PolicyRoundRobin }

func (rr *RoundRobinPolicy) Register(_ *Engine, p *Process, args RegistrationArgs) error {
	applyPriority(p, args)
	return nil
}

// OnReady appends the process to the ready queue tail (never twice).
func (rr *RoundRobinPolicy) OnReady(_ *Engine, p *Process) {
	rr.readyQ.Enqueue(p)
}

// Select expires the quantum of the running process if needed, then hands the
// CPU to the front of the ready queue.
func (rr *RoundRobinPolicy) Select(e *Engine) (*Process, error) {
	if cur := e.current; cur != nil && rr.quantumUsed >= rr.TimeQuantum && !cur.IsCompleted() {
		if _, err := e.Preempt("quantum-expired"); err != nil {
			return nil, err
		}
		rr.readyQ.Enqueue(cur)
		rr.quantumUsed = 0
	}
	if e.current != nil {
		return e.current, nil
	}
	next := rr.readyQ.Dequeue()
	for next != nil && next.State != StateReady {
		// stale entry; processes only leave READY through dispatch
		next = rr.readyQ.Dequeue()
	}
	if next != nil {
		logrus.Debugf("[tick %07d] RR ready queue after dispatch of pid %d: %s", e.clock, next.PID, rr.readyQ.String())
	}
	return next, nil
}

func (rr *RoundRobinPolicy) OnDispatch(_ *Engine, _ *Process) {
	rr.quantumUsed = 0
}

func (rr *RoundRobinPolicy) OnExecuted(_ *Engine, _ *Process) error {
	rr.quantumUsed++
	return nil
}

func (rr *RoundRobinPolicy) OnBlocked(_ *Engine, _ *Process) {
	rr.quantumUsed = 0
}

func (rr *RoundRobinPolicy) OnComplete(_ *Engine, _ *Process) {
	rr.quantumUsed = 0
}

// QueuedPIDs returns the ready queue contents in FIFO order.
func (rr *RoundRobinPolicy) QueuedPIDs() []int {
	return rr.readyQ.PIDs()
}

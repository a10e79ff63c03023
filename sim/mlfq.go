package sim

import (
	"github.com/sirupsen/logrus"

	"github.com/cpu-sim/cpu-sim/sim/trace"
)

// MLFQPolicy is a multi-level feedback queue. Level 0 has the highest
// priority; a process that exhausts its level's quantum is demoted one level.
//
// Quantum(L) = BaseQuantum * 2^L, so demoted processes receive longer slices.
// Every dispatch charges ContextSwitchPenalty ticks to the clock, and every
// demotion charges it to the demoted process's waiting time.
type MLFQPolicy struct {
	NumQueues            int
	BaseQuantum          int64
	ContextSwitchPenalty int64

	queues      []ReadyQueue
	levels      map[int]int // pid → queue level; removed on termination
	quantumUsed int64
}

// NewMLFQPolicy creates an MLFQ policy with numQueues levels.
func NewMLFQPolicy(numQueues int, baseQuantum, penalty int64) (*MLFQPolicy, error) {
	if numQueues < 1 {
		return nil, &InvalidArgumentError{Field: "num_queues", Value: numQueues, Reason: "must be at least 1"}
	}
	if baseQuantum <= 0 {
		return nil, &InvalidArgumentError{Field: "base_quantum", Value: baseQuantum, Reason: "must be positive"}
	}
	if penalty < 0 {
		return nil, &InvalidArgumentError{Field: "context_switch_penalty", Value: penalty, Reason: "must be non-negative"}
	}
	return &MLFQPolicy{
		NumQueues:            numQueues,
		BaseQuantum:          baseQuantum,
		ContextSwitchPenalty: penalty,
		queues:               make([]ReadyQueue, numQueues),
		levels:               make(map[int]int),
	}, nil
}

func (m *MLFQPolicy) Name() string { return PolicyMLFQ }

// Quantum returns the time slice for a queue level.
func (m *MLFQPolicy) Quantum(level int) int64 {
	return m.BaseQuantum << uint(level)
}

// Level returns the queue level of a registered, unfinished process.
func (m *MLFQPolicy) Level(pid int) (int, bool) {
	l, ok := m.levels[pid]
	return l, ok
}

// QueuedPIDs returns the contents of one level's queue in FIFO order.
func (m *MLFQPolicy) QueuedPIDs(level int) []int {
	if level < 0 || level >= len(m.queues) {
		return nil
	}
	return m.queues[level].PIDs()
}

// Register places every new process at level 0.
func (m *MLFQPolicy) Register(_ *Engine, p *Process, args RegistrationArgs) error {
	applyPriority(p, args)
	m.levels[p.PID] = 0
	return nil
}

// OnReady enqueues the process at the tail of its current level.
func (m *MLFQPolicy) OnReady(_ *Engine, p *Process) {
	m.queues[m.levels[p.PID]].Enqueue(p)
}

// Select keeps the running process, or takes the front of the first
// non-empty level, skipping entries that already terminated.
func (m *MLFQPolicy) Select(e *Engine) (*Process, error) {
	if e.current != nil {
		return e.current, nil
	}
	for level := range m.queues {
		q := &m.queues[level]
		for q.Len() > 0 {
			p := q.Dequeue()
			if p.IsCompleted() {
				continue
			}
			return p, nil
		}
	}
	return nil, nil
}

// OnDispatch charges the context-switch cost to the clock.
func (m *MLFQPolicy) OnDispatch(e *Engine, _ *Process) {
	m.quantumUsed = 0
	e.clock += m.ContextSwitchPenalty
}

// OnExecuted demotes the process once it has used its level's full quantum.
func (m *MLFQPolicy) OnExecuted(e *Engine, p *Process) error {
	m.quantumUsed++
	level := m.levels[p.PID]
	if m.quantumUsed < m.Quantum(level) {
		return nil
	}
	next := min(level+1, m.NumQueues-1)
	reason := "demoted"
	if next == level {
		reason = "quantum-expired"
	}
	if _, err := e.Preempt(reason); err != nil {
		return err
	}
	m.levels[p.PID] = next
	m.queues[next].Enqueue(p)
	p.WaitingTime += m.ContextSwitchPenalty
	m.quantumUsed = 0
	logrus.Debugf("[tick %07d] MLFQ demote pid %d: level %d → %d", e.clock, p.PID, level, next)
	if e.trace.Enabled() && next != level {
		e.trace.RecordDemotion(trace.DemotionRecord{PID: p.PID, Clock: e.clock, FromLevel: level, ToLevel: next})
	}
	return nil
}

func (m *MLFQPolicy) OnBlocked(_ *Engine, _ *Process) {
	m.quantumUsed = 0
}

func (m *MLFQPolicy) OnComplete(_ *Engine, p *Process) {
	m.quantumUsed = 0
	delete(m.levels, p.PID)
}

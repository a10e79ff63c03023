package sim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cpu-sim/cpu-sim/sim/internal/testutil"
)

// newTestEngine builds an engine for cfg and registers procs with empty
// registration arguments.
func newTestEngine(t *testing.T, cfg PolicyConfig, procs ...*Process) *Engine {
	t.Helper()
	policy, err := NewPolicy(cfg)
	require.NoError(t, err)
	e := NewEngine(policy)
	require.NoError(t, e.AddAll(procs...))
	return e
}

// runEngine runs e to completion and checks the timing invariants of every process.
func runEngine(t *testing.T, e *Engine) {
	t.Helper()
	require.NoError(t, e.Run())
	require.True(t, e.IsAllCompleted())
	assertInvariants(t, e)
}

func assertInvariants(t *testing.T, e *Engine) {
	t.Helper()
	mlfq, _ := e.Policy().(*MLFQPolicy)
	for _, p := range e.Processes() {
		var io int64
		for _, op := range p.IOOperations {
			io += op.Duration
		}
		// Every dispatch ends in completion, an I/O block or an MLFQ requeue.
		var charge int64
		if mlfq != nil {
			requeues := int64(p.ContextSwitches - 1 - len(p.IOOperations))
			charge = requeues * (mlfq.ContextSwitchPenalty + 1)
		}
		testutil.AssertConservation(t, testutil.ProcessTimes{
			PID:            p.PID,
			ArrivalTime:    p.ArrivalTime,
			BurstTime:      p.BurstTime,
			RemainingTime:  p.RemainingTime,
			Terminated:     p.State == StateTerminated,
			CompletionTime: p.CompletionTime,
			TurnaroundTime: p.TurnaroundTime,
			WaitingTime:    p.WaitingTime,
			IOTime:         io,
			RequeueCharge:  charge,
		})
	}
}

func completion(t *testing.T, p *Process) int64 {
	t.Helper()
	require.NotNil(t, p.CompletionTime, "pid %d has no completion time", p.PID)
	return *p.CompletionTime
}

func start(t *testing.T, p *Process) int64 {
	t.Helper()
	require.NotNil(t, p.StartTime, "pid %d was never dispatched", p.PID)
	return *p.StartTime
}

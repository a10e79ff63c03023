package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpu-sim/cpu-sim/sim/trace"
)

func rrConfig(quantum int64) PolicyConfig {
	cfg := DefaultPolicyConfig(PolicyRoundRobin)
	cfg.TimeQuantum = quantum
	return cfg
}

func TestRoundRobin_Fairness(t *testing.T) {
	// GIVEN quantum 2 with p1 (burst 4) and p2 (burst 3), both at 0
	p1, p2 := NewProcess(1, 0, 4, 0), NewProcess(2, 0, 3, 0)
	e := newTestEngine(t, rrConfig(2), p1, p2)

	// WHEN run
	runEngine(t, e)

	// THEN both finish, interleaved: P1 P1 P2 P2 P1 P1 P2
	assert.Equal(t, int64(0), p1.RemainingTime)
	assert.Equal(t, int64(0), p2.RemainingTime)
	assert.Greater(t, completion(t, p1), p1.BurstTime)
	assert.Equal(t, int64(6), completion(t, p1))
	assert.Equal(t, int64(7), completion(t, p2))
	assert.Equal(t, int64(2), p1.WaitingTime)
	assert.Equal(t, int64(4), p2.WaitingTime)
	assert.Equal(t, []Slice{
		{PID: 1, Start: 0, End: 2},
		{PID: 2, Start: 2, End: 4},
		{PID: 1, Start: 4, End: 6},
		{PID: 2, Start: 6, End: 7},
	}, e.Timeline())
}

func TestRoundRobin_QuantumExpiry_RequeuesAtTail(t *testing.T) {
	// GIVEN three processes and quantum 1
	rr, err := NewRoundRobinPolicy(1)
	require.NoError(t, err)
	e := NewEngine(rr)
	require.NoError(t, e.AddAll(NewProcess(1, 0, 2, 0), NewProcess(2, 0, 2, 0), NewProcess(3, 0, 2, 0)))

	// WHEN two ticks run
	_, err = e.Step()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, rr.QueuedPIDs())
	_, err = e.Step()
	require.NoError(t, err)

	// THEN p1 went to the back of the queue behind p3, and p2 runs
	assert.Equal(t, 2, e.Current().PID)
	assert.Equal(t, []int{3, 1}, rr.QueuedPIDs())
}

func TestRoundRobin_LoneProcessIsRequeuedEachQuantum(t *testing.T) {
	// GIVEN a single process with quantum 1
	st := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelDecisions})
	p := NewProcess(1, 0, 3, 0)
	e := NewEngine(MustNewPolicy(rrConfig(1)), WithTrace(st))
	require.NoError(t, e.AddAll(p))

	runEngine(t, e)

	// THEN every expiry preempts it and it is redispatched on the same tick
	assert.Equal(t, int64(3), completion(t, p))
	assert.Equal(t, int64(0), p.WaitingTime)
	assert.Equal(t, 3, p.ContextSwitches)
	require.Len(t, st.Preemptions, 2)
	for i, pr := range st.Preemptions {
		assert.Equal(t, trace.PreemptionRecord{PID: 1, Clock: int64(i + 1), Reason: "quantum-expired"}, pr)
	}
	require.Len(t, st.Dispatches, 3)
}

func TestRoundRobin_ArrivalQueuedBeforeExpiredProcess(t *testing.T) {
	// GIVEN p1 running when p2 arrives on the tick its quantum expires
	p1, p2 := NewProcess(1, 0, 4, 0), NewProcess(2, 2, 1, 0)
	e := newTestEngine(t, rrConfig(2), p1, p2)

	runEngine(t, e)

	// THEN the arrival runs first and p1 resumes afterwards
	assert.Equal(t, int64(2), start(t, p2))
	assert.Equal(t, int64(3), completion(t, p2))
	assert.Equal(t, int64(5), completion(t, p1))
}

func TestRoundRobin_IOResetsQuantum(t *testing.T) {
	p1 := NewProcess(1, 0, 3, 0).WithIO(IOOperation{StartOffset: 1, Duration: 1})
	p2 := NewProcess(2, 0, 2, 0)
	e := newTestEngine(t, rrConfig(2), p1, p2)

	runEngine(t, e)

	// P1 blocks after one tick, P2 runs its full quantum, P1 returns
	assert.Equal(t, []Slice{
		{PID: 1, Start: 0, End: 1},
		{PID: 2, Start: 1, End: 3},
		{PID: 1, Start: 3, End: 5},
	}, e.Timeline())
}

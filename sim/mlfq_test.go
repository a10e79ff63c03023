package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpu-sim/cpu-sim/sim/trace"
)

func mlfqConfig(queues int, base, penalty int64) PolicyConfig {
	cfg := DefaultPolicyConfig(PolicyMLFQ)
	cfg.NumQueues = queues
	cfg.BaseQuantum = base
	cfg.ContextSwitchPenalty = penalty
	return cfg
}

func TestMLFQ_Quantum_GrowsPerLevel(t *testing.T) {
	m, err := NewMLFQPolicy(4, 2, 1)
	require.NoError(t, err)
	for level, want := range []int64{2, 4, 8, 16} {
		assert.Equal(t, want, m.Quantum(level), "level %d", level)
	}
}

func TestMLFQ_SingleProcess_DemotedWithPenalty(t *testing.T) {
	// GIVEN 3 levels, base quantum 2, penalty 1 and one process of burst 5
	st := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelDecisions})
	policy := MustNewPolicy(mlfqConfig(3, 2, 1))
	e := NewEngine(policy, WithTrace(st))
	p := NewProcess(1, 0, 5, 0)
	require.NoError(t, e.AddAll(p))

	// WHEN run
	runEngine(t, e)

	// THEN each dispatch costs one tick and the demotion charges the penalty
	// plus the tick the process spent READY in its new queue
	assert.Equal(t, int64(0), start(t, p), "start time is set before the penalty")
	assert.Equal(t, int64(7), completion(t, p))
	assert.Greater(t, p.TurnaroundTime, p.BurstTime)
	assert.Equal(t, int64(2), p.WaitingTime)
	assert.Equal(t, []Slice{{PID: 1, Start: 1, End: 3}, {PID: 1, Start: 4, End: 7}}, e.Timeline())
	require.Len(t, st.Demotions, 1)
	assert.Equal(t, trace.DemotionRecord{PID: 1, Clock: 2, FromLevel: 0, ToLevel: 1}, st.Demotions[0])

	_, tracked := policy.(*MLFQPolicy).Level(1)
	assert.False(t, tracked, "terminated processes leave the level map")
}

func TestMLFQ_MultipleProcesses(t *testing.T) {
	// GIVEN three processes arriving together
	p1, p2, p3 := NewProcess(1, 0, 3, 0), NewProcess(2, 0, 4, 0), NewProcess(3, 0, 2, 0)
	e := newTestEngine(t, mlfqConfig(3, 2, 1), p1, p2, p3)

	// WHEN run
	runEngine(t, e)

	// THEN p3 fits in its level-0 quantum and finishes first; p1 and p2 were demoted
	assert.Equal(t, int64(9), completion(t, p3))
	assert.Equal(t, int64(11), completion(t, p1))
	assert.Equal(t, int64(14), completion(t, p2))
	assert.Equal(t, int64(6), p1.WaitingTime)
	assert.Equal(t, int64(7), p2.WaitingTime)
	assert.Equal(t, int64(4), p3.WaitingTime)
}

func TestMLFQ_BottomLevel_RequeuesWithoutDemotion(t *testing.T) {
	// GIVEN a single level with quantum 1 and no penalty
	st := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelDecisions})
	e := NewEngine(MustNewPolicy(mlfqConfig(1, 1, 0)), WithTrace(st))
	p := NewProcess(1, 0, 3, 0)
	require.NoError(t, e.AddAll(p))

	runEngine(t, e)

	// THEN the quantum expires twice and is requeued at the same level,
	// each requeue counting one READY tick
	assert.Equal(t, int64(3), completion(t, p))
	assert.Equal(t, int64(2), p.WaitingTime)
	assert.Empty(t, st.Demotions)
	require.Len(t, st.Preemptions, 2)
	for _, pr := range st.Preemptions {
		assert.Equal(t, "quantum-expired", pr.Reason)
	}
}

func TestMLFQ_NewArrivalsEnterLevelZero(t *testing.T) {
	// GIVEN a long job demoted after its first tick
	m, err := NewMLFQPolicy(3, 1, 0)
	require.NoError(t, err)
	e := NewEngine(m)
	long, short := NewProcess(1, 0, 6, 0), NewProcess(2, 1, 1, 0)
	require.NoError(t, e.AddAll(long, short))

	_, err = e.Step()
	require.NoError(t, err)
	level, ok := m.Level(1)
	require.True(t, ok)
	assert.Equal(t, 1, level)
	assert.Equal(t, []int{1}, m.QueuedPIDs(1))

	// WHEN the short job arrives
	_, err = e.Step()
	require.NoError(t, err)

	// THEN it runs ahead of the demoted job
	assert.Equal(t, int64(1), start(t, short))
	assert.Equal(t, int64(2), completion(t, short))
	assert.Equal(t, []int{1}, m.QueuedPIDs(1))
	assert.Nil(t, m.QueuedPIDs(5))
	runEngine(t, e)
}

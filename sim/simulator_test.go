package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpu-sim/cpu-sim/sim/trace"
)

func TestEngine_Step_EmptyEngineIsComplete(t *testing.T) {
	// GIVEN an engine with no processes
	e := NewEngine(&FCFSPolicy{})

	// WHEN stepped
	more, err := e.Step()

	// THEN nothing happens and the clock stays at 0
	require.NoError(t, err)
	assert.False(t, more)
	assert.True(t, e.IsAllCompleted())
	assert.Equal(t, int64(0), e.Clock())
	assert.NoError(t, e.Run())
}

func TestEngine_Step_FollowsTickContract(t *testing.T) {
	// GIVEN p1 arriving at 0 and p2 arriving at 2 under FCFS
	p1, p2 := NewProcess(1, 0, 2, 0), NewProcess(2, 2, 1, 0)
	e := newTestEngine(t, DefaultPolicyConfig(PolicyFCFS), p1, p2)

	// WHEN one step runs
	more, err := e.Step()

	// THEN p1 was admitted, dispatched at 0 and executed one unit; p2 is still NEW
	require.NoError(t, err)
	assert.True(t, more)
	assert.Equal(t, int64(1), e.Clock())
	assert.Equal(t, StateRunning, p1.State)
	assert.Equal(t, int64(1), p1.RemainingTime)
	assert.Equal(t, int64(0), start(t, p1))
	assert.Same(t, p1, e.Current())
	assert.Equal(t, StateNew, p2.State)

	// WHEN the second step finishes p1
	_, err = e.Step()
	require.NoError(t, err)

	// THEN completion is the tick after the last executed unit and the CPU is free
	assert.Equal(t, int64(2), completion(t, p1))
	assert.Equal(t, int64(2), p1.TurnaroundTime)
	assert.Nil(t, e.Current())

	// WHEN stepping to the end
	more, err = e.Step()
	require.NoError(t, err)
	assert.False(t, more)
	assert.Equal(t, int64(3), completion(t, p2))

	// AND stepping a finished engine is a no-op
	more, err = e.Step()
	require.NoError(t, err)
	assert.False(t, more)
	assert.Equal(t, int64(3), e.Clock())
}

func TestEngine_IdlesUntilFirstArrival(t *testing.T) {
	p := NewProcess(1, 3, 2, 0)
	e := newTestEngine(t, DefaultPolicyConfig(PolicyFCFS), p)
	runEngine(t, e)

	assert.Equal(t, int64(3), start(t, p))
	assert.Equal(t, int64(5), completion(t, p))
	assert.Equal(t, int64(0), p.WaitingTime)
	assert.Equal(t, []Slice{{PID: 1, Start: 3, End: 5}}, e.Timeline())
}

func TestEngine_Add_Errors(t *testing.T) {
	e := NewEngine(&FCFSPolicy{})
	require.NoError(t, e.Add(NewProcess(1, 0, 1, 0), RegistrationArgs{}))

	var argErr *InvalidArgumentError
	err := e.Add(NewProcess(1, 2, 3, 0), RegistrationArgs{})
	require.True(t, errors.As(err, &argErr), "duplicate pid")
	assert.Equal(t, "pid", argErr.Field)

	err = e.Add(NewProcess(2, 0, 0, 0), RegistrationArgs{})
	require.True(t, errors.As(err, &argErr), "invalid burst")
	assert.Equal(t, "burst_time", argErr.Field)

	err = e.Add(nil, RegistrationArgs{})
	require.True(t, errors.As(err, &argErr), "nil process")

	started := NewProcess(3, 0, 1, 0)
	require.NoError(t, started.Transition(StateReady))
	var stateErr *InvalidStateError
	assert.True(t, errors.As(e.Add(started, RegistrationArgs{}), &stateErr), "non-NEW process")

	assert.Len(t, e.Processes(), 1, "failed registrations leave no trace")
}

func TestEngine_Add_PriorityOverride(t *testing.T) {
	e := NewEngine(NewPriorityPolicy(true))
	p := NewProcess(1, 0, 1, 5)
	prio := 1
	require.NoError(t, e.Add(p, RegistrationArgs{Priority: &prio}))
	assert.Equal(t, 1, p.Priority)
	assert.Same(t, p, e.Process(1))
	assert.Nil(t, e.Process(2))
}

func TestEngine_IOBurst_BlocksAndResumes(t *testing.T) {
	// GIVEN p1 that blocks for 3 ticks after 2 units, and p2 that fills the gap
	p1 := NewProcess(1, 0, 4, 0).WithIO(IOOperation{StartOffset: 2, Duration: 3})
	p2 := NewProcess(2, 0, 2, 0)
	e := newTestEngine(t, DefaultPolicyConfig(PolicyFCFS), p1, p2)

	// WHEN two steps run
	for i := 0; i < 2; i++ {
		_, err := e.Step()
		require.NoError(t, err)
	}

	// THEN p1 is WAITING and the CPU is free
	assert.Equal(t, StateWaiting, p1.State)
	assert.Nil(t, e.Current())

	// WHEN run to completion
	runEngine(t, e)

	// THEN p2 ran during the I/O, the CPU idled one tick, and p1 resumed at 5
	assert.Equal(t, int64(2), start(t, p2))
	assert.Equal(t, int64(4), completion(t, p2))
	assert.Equal(t, int64(7), completion(t, p1))
	assert.Equal(t, int64(0), p1.WaitingTime, "WAITING ticks are not READY ticks")
	assert.Equal(t, int64(2), p2.WaitingTime)
	assert.Equal(t, 2, p1.ContextSwitches)
	assert.Equal(t, []Slice{
		{PID: 1, Start: 0, End: 2},
		{PID: 2, Start: 2, End: 4},
		{PID: 1, Start: 5, End: 7},
	}, e.Timeline())
}

func TestEngine_Run_MaxTicksGuard(t *testing.T) {
	policy := MustNewPolicy(DefaultPolicyConfig(PolicyFCFS))
	e := NewEngine(policy, WithMaxTicks(3))
	require.NoError(t, e.AddAll(NewProcess(1, 0, 10, 0)))

	err := e.Run()

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, err.Error(), "exceeded 3 ticks")
}

func TestEngine_RunContext_Cancelled(t *testing.T) {
	e := newTestEngine(t, DefaultPolicyConfig(PolicyFCFS), NewProcess(1, 0, 10, 0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.RunContext(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(0), e.Clock())
}

// misbehavingPolicy selects a new process without preempting the current one.
type misbehavingPolicy struct {
	FCFSPolicy
}

func (m *misbehavingPolicy) Select(e *Engine) (*Process, error) {
	for _, p := range e.procs {
		if p.State == StateReady {
			return p, nil
		}
	}
	return e.current, nil
}

func TestEngine_Step_RejectsSelectionWithoutPreemption(t *testing.T) {
	e := NewEngine(&misbehavingPolicy{})
	require.NoError(t, e.AddAll(NewProcess(1, 0, 3, 0), NewProcess(2, 1, 3, 0)))

	_, err := e.Step()
	require.NoError(t, err)
	_, err = e.Step()

	var cfgErr *ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

// admission is one OnReady notification seen by readyRecorder.
type admission struct {
	PID   int
	Clock int64
}

type readyRecorder struct {
	FCFSPolicy
	seen []admission
}

func (r *readyRecorder) OnReady(e *Engine, p *Process) {
	r.seen = append(r.seen, admission{PID: p.PID, Clock: e.Clock()})
}

func TestEngine_Step_AdmitsArrivalsAndIOCompletions(t *testing.T) {
	// GIVEN p1 blocking for one tick after one unit, and p2 arriving at 2
	rec := &readyRecorder{}
	e := NewEngine(rec)
	p1 := NewProcess(1, 0, 2, 0).WithIO(IOOperation{StartOffset: 1, Duration: 1})
	p2 := NewProcess(2, 2, 1, 0)
	require.NoError(t, e.AddAll(p1, p2))

	// WHEN three steps run
	for i := 0; i < 3; i++ {
		_, err := e.Step()
		require.NoError(t, err)
	}

	// THEN both promotions to READY reach the policy on their tick, in registration order
	assert.Equal(t, []admission{{PID: 1, Clock: 0}, {PID: 1, Clock: 2}, {PID: 2, Clock: 2}}, rec.seen)
	assert.Equal(t, StateReady, p2.State)
	runEngine(t, e)
}

func TestEngine_Trace_RecordsDecisions(t *testing.T) {
	// GIVEN a priority engine with a decision trace
	st := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelDecisions})
	e := NewEngine(NewPriorityPolicy(true), WithTrace(st))
	require.NoError(t, e.AddAll(NewProcess(1, 0, 4, 2), NewProcess(2, 1, 2, 1)))

	// WHEN run
	runEngine(t, e)

	// THEN dispatches, the priority preemption and completions are recorded
	assert.Same(t, st, e.Trace())
	assert.Len(t, st.Dispatches, 3)
	require.Len(t, st.Preemptions, 1)
	assert.Equal(t, trace.PreemptionRecord{PID: 1, Clock: 1, Reason: "priority"}, st.Preemptions[0])
	require.Len(t, st.Completions, 2)
	assert.Equal(t, 2, st.Completions[0].PID)
	assert.Equal(t, int64(3), st.Completions[0].Clock)
}

func TestEngine_Processes_ReturnsCopyOfSlice(t *testing.T) {
	e := newTestEngine(t, DefaultPolicyConfig(PolicyFCFS), NewProcess(1, 0, 1, 0))
	procs := e.Processes()
	procs[0] = nil
	assert.NotNil(t, e.Processes()[0])
}

package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func priorityConfig(preemptive bool) PolicyConfig {
	cfg := DefaultPolicyConfig(PolicyPriority)
	cfg.Preemptive = preemptive
	return cfg
}

func TestPriority_Preemptive_UrgentArrivalPreempts(t *testing.T) {
	// GIVEN p1 (priority 2) running when p2 (priority 1) arrives at tick 1
	p1, p2 := NewProcess(1, 0, 4, 2), NewProcess(2, 1, 2, 1)
	e := newTestEngine(t, priorityConfig(true), p1, p2)

	// WHEN run
	runEngine(t, e)

	// THEN p2 runs immediately and p1 resumes afterwards
	assert.Equal(t, int64(1), start(t, p2))
	assert.Equal(t, int64(3), completion(t, p2))
	assert.Equal(t, int64(6), completion(t, p1))
	assert.Equal(t, int64(2), p1.WaitingTime)
	assert.Equal(t, 2, p1.ContextSwitches)
}

func TestPriority_NonPreemptive_WaitsForCPU(t *testing.T) {
	p1, p2 := NewProcess(1, 0, 4, 2), NewProcess(2, 1, 2, 1)
	e := newTestEngine(t, priorityConfig(false), p1, p2)

	runEngine(t, e)

	assert.Equal(t, int64(4), completion(t, p1))
	assert.Equal(t, int64(4), start(t, p2))
	assert.Equal(t, 1, p1.ContextSwitches)
}

func TestPriority_EqualPriorityDoesNotPreempt(t *testing.T) {
	p1, p2 := NewProcess(1, 0, 3, 1), NewProcess(2, 1, 1, 1)
	e := newTestEngine(t, priorityConfig(true), p1, p2)

	runEngine(t, e)

	assert.Equal(t, int64(3), completion(t, p1))
	assert.Equal(t, int64(3), start(t, p2))
}

func TestPriority_Ordering(t *testing.T) {
	tests := []struct {
		name      string
		procs     []*Process
		wantOrder []int
	}{
		{
			name:      "lower value first",
			procs:     []*Process{NewProcess(1, 0, 1, 3), NewProcess(2, 0, 1, 0), NewProcess(3, 0, 1, 1)},
			wantOrder: []int{2, 3, 1},
		},
		{
			name:      "earlier arrival breaks ties",
			procs:     []*Process{NewProcess(1, 0, 2, 9), NewProcess(2, 1, 1, 1), NewProcess(3, 0, 1, 1)},
			wantOrder: []int{3, 2, 1},
		},
		{
			name:      "smaller pid breaks remaining ties",
			procs:     []*Process{NewProcess(7, 0, 1, 0), NewProcess(4, 0, 1, 0)},
			wantOrder: []int{4, 7},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, priorityConfig(true), tt.procs...)
			runEngine(t, e)
			var got []int
			for _, s := range e.Timeline() {
				if len(got) == 0 || got[len(got)-1] != s.PID {
					got = append(got, s.PID)
				}
			}
			assert.Equal(t, tt.wantOrder, got)
		})
	}
}

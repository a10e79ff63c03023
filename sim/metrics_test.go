package sim

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateMetrics_EmptyInput(t *testing.T) {
	assert.Equal(t, Metrics{}, CalculateMetrics(nil, 10))
	assert.Equal(t, Metrics{}, CalculateMetrics([]*Process{}, 0))
}

func TestCalculateMetrics_FCFSRun(t *testing.T) {
	// GIVEN a finished FCFS run of p1 (0,3) and p2 (1,2)
	e := newTestEngine(t, DefaultPolicyConfig(PolicyFCFS), NewProcess(1, 0, 3, 0), NewProcess(2, 1, 2, 0))
	runEngine(t, e)

	// WHEN metrics are computed over the elapsed time
	m := CalculateMetrics(e.Processes(), e.Clock())

	// THEN averages are per process
	assert.Equal(t, Metrics{
		AvgWaitingTime:     1,
		AvgTurnaroundTime:  3.5,
		AvgResponseTime:    1,
		CPUUtilization:     100,
		Throughput:         0.4,
		ContextSwitches:    2,
		TotalProcesses:     2,
		CompletedProcesses: 2,
		TotalTime:          5,
	}, m)
}

func TestCalculateMetrics_Idempotent(t *testing.T) {
	e := newTestEngine(t, rrConfig(1), NewProcess(1, 0, 3, 0), NewProcess(2, 0, 2, 0), NewProcess(3, 2, 4, 0))
	runEngine(t, e)
	procs := e.Processes()
	before := CloneProcesses(procs)

	first := CalculateMetrics(procs, e.Clock())
	second := CalculateMetrics(procs, e.Clock())

	assert.Equal(t, first, second)
	for i := range procs {
		assert.Equal(t, before[i].WaitingTime, procs[i].WaitingTime)
		assert.Equal(t, before[i].TurnaroundTime, procs[i].TurnaroundTime)
		assert.Equal(t, before[i].State, procs[i].State)
	}
}

func TestCalculateMetrics_Edges(t *testing.T) {
	finished := func(pid int, arrival, burst, waiting int64) *Process {
		p := NewProcess(pid, arrival, burst, 0)
		start := arrival + waiting
		done := start + burst
		p.StartTime = &start
		p.CompletionTime = &done
		p.TurnaroundTime = done - arrival
		p.WaitingTime = waiting
		p.RemainingTime = 0
		p.State = StateTerminated
		return p
	}

	t.Run("utilization clamped to 100", func(t *testing.T) {
		m := CalculateMetrics([]*Process{finished(1, 0, 10, 0)}, 5)
		assert.Equal(t, 100.0, m.CPUUtilization)
	})
	t.Run("non-positive total time treated as 1", func(t *testing.T) {
		m := CalculateMetrics([]*Process{finished(1, 0, 1, 0)}, 0)
		assert.Equal(t, int64(1), m.TotalTime)
		assert.Equal(t, 1.0, m.Throughput)
	})
	t.Run("averages rounded to two places", func(t *testing.T) {
		m := CalculateMetrics([]*Process{finished(1, 0, 1, 1), finished(2, 0, 1, 0), finished(3, 0, 1, 0)}, 10)
		assert.Equal(t, 0.33, m.AvgWaitingTime)
		assert.Equal(t, 30.0, m.CPUUtilization)
	})
	t.Run("unstarted processes excluded from response", func(t *testing.T) {
		m := CalculateMetrics([]*Process{finished(1, 0, 2, 4), NewProcess(2, 0, 5, 0)}, 6)
		assert.Equal(t, 4.0, m.AvgResponseTime)
		assert.Equal(t, 1, m.CompletedProcesses)
		assert.Equal(t, 2, m.TotalProcesses)
		assert.Equal(t, 2.0, m.AvgWaitingTime)
	})
}

func TestMetrics_Print(t *testing.T) {
	var buf bytes.Buffer
	m := Metrics{AvgWaitingTime: 1.5, CPUUtilization: 87.5, TotalProcesses: 4, CompletedProcesses: 4, TotalTime: 16}
	require.NoError(t, m.Print(&buf))
	out := buf.String()
	assert.Contains(t, out, "Average Waiting      : 1.50 ticks")
	assert.Contains(t, out, "CPU Utilization      : 87.50%")
	assert.Contains(t, out, "Processes            : 4 (4 completed)")
}

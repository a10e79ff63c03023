package sim

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReport_SnapshotsEngine(t *testing.T) {
	e := newTestEngine(t, DefaultPolicyConfig(PolicyFCFS), NewProcess(1, 0, 3, 0), NewProcess(2, 1, 2, 0))
	runEngine(t, e)

	r := NewReport(e)

	assert.Equal(t, PolicyFCFS, r.Policy)
	assert.Equal(t, CalculateMetrics(e.Processes(), e.Clock()), r.Metrics)
	require.Len(t, r.Processes, 2)
	assert.Equal(t, "TERMINATED", r.Processes[1].State)
	require.NotNil(t, r.Processes[1].ResponseTime)
	assert.Equal(t, int64(2), *r.Processes[1].ResponseTime)
	assert.Equal(t, e.Timeline(), r.Timeline)
	assert.Nil(t, r.Schedulable, "non-real-time policies carry no schedulability")
	assert.Nil(t, r.DeadlineMisses)
}

func TestNewReport_MidRunIsDetached(t *testing.T) {
	// GIVEN a report taken after one tick
	p := NewProcess(1, 0, 3, 0)
	e := newTestEngine(t, DefaultPolicyConfig(PolicyFCFS), p)
	_, err := e.Step()
	require.NoError(t, err)
	r := NewReport(e)

	// WHEN the engine finishes
	runEngine(t, e)

	// THEN the report still shows the earlier state
	assert.Equal(t, "RUNNING", r.Processes[0].State)
	assert.Nil(t, r.Processes[0].CompletionTime)
	assert.Equal(t, int64(1), r.Metrics.TotalTime)
}

func TestReport_WriteJSON(t *testing.T) {
	e := NewEngine(NewRateMonotonicPolicy())
	require.NoError(t, e.AddAll(NewProcess(1, 0, 1, 0).WithPeriod(4)))
	runEngine(t, e)

	var buf bytes.Buffer
	require.NoError(t, NewReport(e).WriteJSON(&buf))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "rm", decoded["policy"])
	assert.Equal(t, 0.25, decoded["utilization"])
	assert.Equal(t, true, decoded["schedulable"])
	assert.Equal(t, float64(0), decoded["deadline_misses"])
	metrics, ok := decoded["metrics"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), metrics["completed_processes"])
}

func TestReport_WriteText(t *testing.T) {
	e := NewEngine(NewEDFPolicy())
	require.NoError(t, e.AddAll(NewProcess(7, 0, 2, 0).WithDeadline(1).WithPeriod(4)))
	runEngine(t, e)

	var buf bytes.Buffer
	require.NoError(t, NewReport(e).WriteText(&buf))

	out := buf.String()
	assert.Contains(t, out, "Earliest Deadline First")
	assert.Contains(t, out, "=== Simulation Metrics ===")
	assert.Contains(t, out, "Utilization          : 0.50 (schedulable: true)")
	assert.Contains(t, out, "Deadline Misses      : 1")
	assert.Contains(t, out, "TURNAROUND")
	assert.Contains(t, out, "TERMINATED")
}

func TestGenerateReport_EmptySet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, GenerateReport(&buf, "Empty Run", nil, 0))
	out := buf.String()
	assert.Contains(t, out, "Empty Run")
	assert.Contains(t, out, "Processes            : 0 (0 completed)")
}

func TestWriteGantt(t *testing.T) {
	tests := []struct {
		name     string
		timeline []Slice
		want     []string
	}{
		{
			name:     "empty",
			timeline: nil,
			want:     []string{"Gantt schedule: (empty)"},
		},
		{
			name:     "idle gap",
			timeline: []Slice{{PID: 1, Start: 0, End: 2}, {PID: 2, Start: 3, End: 5}},
			want:     []string{"|   P1   |   -   |   P2   |", "0\t2\t3\t5"},
		},
		{
			name:     "idle start",
			timeline: []Slice{{PID: 4, Start: 2, End: 3}},
			want:     []string{"|   -   |   P4   |", "0\t2\t3"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteGantt(&buf, tt.timeline))
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

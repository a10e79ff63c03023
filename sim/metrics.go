// Aggregate scheduling statistics over a finished or in-progress process set.

package sim

import (
	"fmt"
	"io"
	"math"
)

// Metrics aggregates statistics about one simulation run for final
// reporting. All averages are rounded to 2 decimal places.
type Metrics struct {
	AvgWaitingTime     float64 `json:"avg_waiting_time"`
	AvgTurnaroundTime  float64 `json:"avg_turnaround_time"`
	AvgResponseTime    float64 `json:"avg_response_time"`
	CPUUtilization     float64 `json:"cpu_utilization"` // percent, clamped to [0,100]
	Throughput         float64 `json:"throughput"`      // completed processes per tick
	ContextSwitches    int     `json:"context_switches"`
	TotalProcesses     int     `json:"total_processes"`
	CompletedProcesses int     `json:"completed_processes"`
	TotalTime          int64   `json:"total_time"`
}

// CalculateMetrics derives Metrics from procs and the elapsed simulation
// time. It never mutates procs and never fails: an empty set yields zero
// Metrics. totalTime is clamped to at least 1.
func CalculateMetrics(procs []*Process, totalTime int64) Metrics {
	if len(procs) == 0 {
		return Metrics{}
	}
	if totalTime < 1 {
		totalTime = 1
	}

	var (
		waiting, turnaround, response, burst int64
		started, completed, switches         int
	)
	for _, p := range procs {
		waiting += p.WaitingTime
		turnaround += p.TurnaroundTime
		burst += p.BurstTime
		switches += p.ContextSwitches
		if rt, ok := p.ResponseTime(); ok {
			response += rt
			started++
		}
		if p.IsCompleted() {
			completed++
		}
	}

	n := float64(len(procs))
	m := Metrics{
		AvgWaitingTime:     round2(float64(waiting) / n),
		AvgTurnaroundTime:  round2(float64(turnaround) / n),
		CPUUtilization:     round2(math.Min(100, math.Max(0, float64(burst)/float64(totalTime)*100))),
		Throughput:         round2(float64(completed) / float64(totalTime)),
		ContextSwitches:    switches,
		TotalProcesses:     len(procs),
		CompletedProcesses: completed,
		TotalTime:          totalTime,
	}
	if started > 0 {
		m.AvgResponseTime = round2(float64(response) / float64(started))
	}
	return m
}

// Print writes the summary block used at the end of a CLI run.
func (m Metrics) Print(w io.Writer) error {
	_, err := fmt.Fprintf(w, `=== Simulation Metrics ===
Total Time           : %d ticks
Processes            : %d (%d completed)
Average Waiting      : %.2f ticks
Average Turnaround   : %.2f ticks
Average Response     : %.2f ticks
CPU Utilization      : %.2f%%
Throughput           : %.2f processes/tick
Context Switches     : %d
`, m.TotalTime, m.TotalProcesses, m.CompletedProcesses, m.AvgWaitingTime, m.AvgTurnaroundTime,
		m.AvgResponseTime, m.CPUUtilization, m.Throughput, m.ContextSwitches)
	return err
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

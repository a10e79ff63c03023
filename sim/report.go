package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// ProcessResult is the per-process line of a report.
type ProcessResult struct {
	PID             int    `json:"pid"`
	ArrivalTime     int64  `json:"arrival_time"`
	BurstTime       int64  `json:"burst_time"`
	Priority        int    `json:"priority"`
	State           string `json:"state"`
	StartTime       *int64 `json:"start_time,omitempty"`
	CompletionTime  *int64 `json:"completion_time,omitempty"`
	WaitingTime     int64  `json:"waiting_time"`
	TurnaroundTime  int64  `json:"turnaround_time"`
	ResponseTime    *int64 `json:"response_time,omitempty"`
	ContextSwitches int    `json:"context_switches"`
}

// Report is the serializable outcome of one simulation: aggregate metrics,
// per-process results and the CPU timeline.
type Report struct {
	Policy         string          `json:"policy"`
	Metrics        Metrics         `json:"metrics"`
	Processes      []ProcessResult `json:"processes"`
	Timeline       []Slice         `json:"timeline"`
	DeadlineMisses *int            `json:"deadline_misses,omitempty"`
	Schedulable    *bool           `json:"schedulable,omitempty"`
	Utilization    *float64        `json:"utilization,omitempty"`
}

// NewProcessResults converts processes into report lines.
func NewProcessResults(procs []*Process) []ProcessResult {
	out := make([]ProcessResult, 0, len(procs))
	for _, p := range procs {
		r := ProcessResult{
			PID:             p.PID,
			ArrivalTime:     p.ArrivalTime,
			BurstTime:       p.BurstTime,
			Priority:        p.Priority,
			State:           p.State.String(),
			StartTime:       cloneInt64(p.StartTime),
			CompletionTime:  cloneInt64(p.CompletionTime),
			WaitingTime:     p.WaitingTime,
			TurnaroundTime:  p.TurnaroundTime,
			ContextSwitches: p.ContextSwitches,
		}
		if rt, ok := p.ResponseTime(); ok {
			r.ResponseTime = &rt
		}
		out = append(out, r)
	}
	return out
}

// NewReport snapshots an engine. It can be taken mid-run.
func NewReport(e *Engine) Report {
	procs := e.Processes()
	r := Report{
		Policy:    e.policy.Name(),
		Metrics:   CalculateMetrics(procs, e.Clock()),
		Processes: NewProcessResults(procs),
		Timeline:  e.Timeline(),
	}
	if s, ok := e.policy.(Schedulable); ok {
		fits := s.CheckSchedulability()
		u := round2(s.Utilization())
		r.Schedulable = &fits
		r.Utilization = &u
	}
	if dm, ok := e.policy.(interface{ DeadlineMisses() int }); ok {
		n := dm.DeadlineMisses()
		r.DeadlineMisses = &n
	}
	return r
}

// WriteJSON writes the report as indented JSON.
func (r Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteText writes the title, the metrics block, real-time details if any,
// and the per-process table.
func (r Report) WriteText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s\n%s\n\n", PolicyDisplayName(r.Policy), strings.Repeat("-", len(PolicyDisplayName(r.Policy)))); err != nil {
		return err
	}
	if err := r.Metrics.Print(w); err != nil {
		return err
	}
	if r.Schedulable != nil {
		if _, err := fmt.Fprintf(w, "Utilization          : %.2f (schedulable: %t)\n", *r.Utilization, *r.Schedulable); err != nil {
			return err
		}
	}
	if r.DeadlineMisses != nil {
		if _, err := fmt.Fprintf(w, "Deadline Misses      : %d\n", *r.DeadlineMisses); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	writeProcessTable(w, r.Processes, r.Metrics)
	return nil
}

// GenerateReport writes the text report for procs. It never fails on an
// empty set beyond writer errors.
func GenerateReport(w io.Writer, title string, procs []*Process, totalTime int64) error {
	r := Report{
		Policy:    title,
		Metrics:   CalculateMetrics(procs, totalTime),
		Processes: NewProcessResults(procs),
	}
	return r.WriteText(w)
}

func writeProcessTable(w io.Writer, results []ProcessResult, m Metrics) {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			fmt.Sprint(r.PID),
			fmt.Sprint(r.Priority),
			fmt.Sprint(r.BurstTime),
			fmt.Sprint(r.ArrivalTime),
			optInt64(r.StartTime),
			fmt.Sprint(r.WaitingTime),
			fmt.Sprint(r.TurnaroundTime),
			optInt64(r.CompletionTime),
			r.State,
		})
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"PID", "Priority", "Burst", "Arrival", "Start", "Wait", "Turnaround", "Exit", "State"})
	table.AppendBulk(rows)
	table.SetFooter([]string{"", "", "", "",
		fmt.Sprintf("Average\n%.2f", m.AvgResponseTime),
		fmt.Sprintf("Average\n%.2f", m.AvgWaitingTime),
		fmt.Sprintf("Average\n%.2f", m.AvgTurnaroundTime),
		fmt.Sprintf("Throughput\n%.2f/t", m.Throughput),
		""})
	table.Render()
}

// WriteGantt renders the timeline as a text Gantt chart. Gaps where the CPU
// was idle are shown as "-".
func WriteGantt(w io.Writer, timeline []Slice) error {
	if len(timeline) == 0 {
		_, err := fmt.Fprintln(w, "Gantt schedule: (empty)")
		return err
	}
	type cell struct {
		label      string
		start, end int64
	}
	cells := make([]cell, 0, len(timeline))
	var at int64
	for _, s := range timeline {
		if s.Start > at {
			cells = append(cells, cell{label: "-", start: at, end: s.Start})
		}
		cells = append(cells, cell{label: fmt.Sprintf("P%d", s.PID), start: s.Start, end: s.End})
		at = s.End
	}

	var bars, ticks strings.Builder
	bars.WriteString("|")
	for _, c := range cells {
		pad := strings.Repeat(" ", max(0, (8-len(c.label))/2))
		bars.WriteString(pad + c.label + pad + "|")
		ticks.WriteString(fmt.Sprintf("%d\t", c.start))
	}
	ticks.WriteString(fmt.Sprint(cells[len(cells)-1].end))
	_, err := fmt.Fprintf(w, "Gantt schedule\n%s\n%s\n\n", bars.String(), ticks.String())
	return err
}

func optInt64(v *int64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}

package sim

import (
	"context"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// ComparisonResult is the outcome of one policy in a comparison.
type ComparisonResult struct {
	Config PolicyConfig `json:"config"`
	Report Report       `json:"report"`
}

// Compare runs every configuration against its own deep copy of procs and
// returns one result per configuration, in order. The input processes are
// never mutated. args supplies per-pid registration payloads and may be nil.
func Compare(ctx context.Context, procs []*Process, cfgs []PolicyConfig, args map[int]RegistrationArgs, opts ...Option) ([]ComparisonResult, error) {
	if len(cfgs) == 0 {
		return nil, &ConfigurationError{Reason: "no policies to compare"}
	}
	results := make([]ComparisonResult, 0, len(cfgs))
	for _, cfg := range cfgs {
		policy, err := NewPolicy(cfg)
		if err != nil {
			return nil, err
		}
		e := NewEngine(policy, opts...)
		for _, p := range CloneProcesses(procs) {
			if err := e.Add(p, args[p.PID]); err != nil {
				return nil, fmt.Errorf("%s: registering pid %d: %w", cfg.Name, p.PID, err)
			}
		}
		if err := e.RunContext(ctx); err != nil {
			return nil, fmt.Errorf("%s: %w", cfg.Name, err)
		}
		results = append(results, ComparisonResult{Config: cfg, Report: NewReport(e)})
	}
	return results, nil
}

// WriteComparison renders one table row per policy.
func WriteComparison(w io.Writer, results []ComparisonResult) {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		m := r.Report.Metrics
		rows = append(rows, []string{
			PolicyDisplayName(r.Config.Name),
			fmt.Sprintf("%.2f", m.AvgWaitingTime),
			fmt.Sprintf("%.2f", m.AvgTurnaroundTime),
			fmt.Sprintf("%.2f", m.AvgResponseTime),
			fmt.Sprintf("%.2f%%", m.CPUUtilization),
			fmt.Sprintf("%.2f", m.Throughput),
			fmt.Sprint(m.ContextSwitches),
			fmt.Sprint(m.TotalTime),
		})
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Policy", "Avg Wait", "Avg Turnaround", "Avg Response", "CPU", "Throughput", "Switches", "Time"})
	table.AppendBulk(rows)
	table.Render()
}

package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalDispatches     int            `json:"total_dispatches"`
	TotalPreemptions    int            `json:"total_preemptions"`
	TotalDemotions      int            `json:"total_demotions"`
	TotalIOBlocks       int            `json:"total_io_blocks"`
	Completions         int            `json:"completions"`
	DeadlineMisses      int            `json:"deadline_misses"`
	MaxLevel            int            `json:"max_level"`              // deepest MLFQ level any process was demoted to
	DispatchesPerPID    map[int]int    `json:"dispatches_per_pid"`     // pid → number of dispatches
	PreemptionsByReason map[string]int `json:"preemptions_by_reason"` // reason → count
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		DispatchesPerPID:    make(map[int]int),
		PreemptionsByReason: make(map[string]int),
	}
	if st == nil {
		return summary
	}
	summary.TotalDispatches = len(st.Dispatches)
	for _, d := range st.Dispatches {
		summary.DispatchesPerPID[d.PID]++
	}
	summary.TotalPreemptions = len(st.Preemptions)
	for _, p := range st.Preemptions {
		summary.PreemptionsByReason[p.Reason]++
	}
	summary.TotalDemotions = len(st.Demotions)
	for _, d := range st.Demotions {
		if d.ToLevel > summary.MaxLevel {
			summary.MaxLevel = d.ToLevel
		}
	}
	summary.TotalIOBlocks = len(st.IOBlocks)
	summary.Completions = len(st.Completions)
	for _, c := range st.Completions {
		if c.DeadlineMissed {
			summary.DeadlineMisses++
		}
	}
	return summary
}

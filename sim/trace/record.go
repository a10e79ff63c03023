// Package trace provides decision-trace recording for scheduling policy analysis.
// This package has no dependencies on sim/: it stores pure data types.
package trace

// DispatchRecord captures a process being given the CPU.
type DispatchRecord struct {
	PID   int
	Clock int64
	Level int // MLFQ queue level at dispatch; 0 for single-queue policies
}

// PreemptionRecord captures a running process being returned to READY
// before it finished.
type PreemptionRecord struct {
	PID    int
	Clock  int64
	Reason string // "quantum-expired", "priority", "period", "demoted"
}

// DemotionRecord captures an MLFQ process moving to a lower-priority level.
type DemotionRecord struct {
	PID       int
	Clock     int64
	FromLevel int
	ToLevel   int
}

// IORecord captures a process blocking on an I/O burst.
type IORecord struct {
	PID      int
	Clock    int64
	Duration int64
}

// CompletionRecord captures a process terminating.
type CompletionRecord struct {
	PID            int
	Clock          int64 // completion time
	Turnaround     int64
	Waiting        int64
	DeadlineMissed bool // real-time policies only
}

// Package testutil provides shared test infrastructure for the scheduling
// simulator: assertion helpers and invariant checks used across sim/ test
// packages.
package testutil

import (
	"math"
	"testing"
)

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 { return &v }

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// ProcessTimes is the slice of a finished process that invariant checks need.
// It mirrors sim.Process fields so testutil does not import sim.
type ProcessTimes struct {
	PID            int
	ArrivalTime    int64
	BurstTime      int64
	RemainingTime  int64
	Terminated     bool
	CompletionTime *int64
	TurnaroundTime int64
	WaitingTime    int64
	IOTime         int64 // total ticks spent WAITING on I/O
	RequeueCharge  int64 // waiting charged for ticks the process itself ran (MLFQ requeues)
}

// AssertConservation checks the timing invariants every policy must keep:
// remaining == 0 iff terminated, turnaround == completion - arrival, and
// turnaround >= waiting - requeue charge + burst + io. Equality holds unless
// the policy charges extra clock time (context-switch penalties) or idles
// while the process is READY, so only the lower bound is asserted here.
func AssertConservation(t *testing.T, p ProcessTimes) {
	t.Helper()
	if (p.RemainingTime == 0) != p.Terminated {
		t.Errorf("pid %d: remaining=%d but terminated=%v", p.PID, p.RemainingTime, p.Terminated)
	}
	if !p.Terminated {
		return
	}
	if p.CompletionTime == nil {
		t.Errorf("pid %d: terminated without completion time", p.PID)
		return
	}
	if got, want := p.TurnaroundTime, *p.CompletionTime-p.ArrivalTime; got != want {
		t.Errorf("pid %d: turnaround %d, want completion-arrival %d", p.PID, got, want)
	}
	if lower := p.WaitingTime - p.RequeueCharge + p.BurstTime + p.IOTime; p.TurnaroundTime < lower {
		t.Errorf("pid %d: turnaround %d below waiting+burst+io %d (requeue charge %d)",
			p.PID, p.TurnaroundTime, lower, p.RequeueCharge)
	}
}

package sim

import "fmt"

// Schedulable is implemented by real-time policies that can check whether
// their registered task set fits the utilization bound.
type Schedulable interface {
	// Utilization returns Σ burst/period over registered processes.
	Utilization() float64
	// CheckSchedulability reports Utilization() ≤ 1.0. An empty set is schedulable.
	CheckSchedulability() bool
}

// utilization sums burst/period over procs using the given period table.
func utilization(procs []*Process, periods map[int]int64) float64 {
	total := 0.0
	for _, p := range procs {
		period, ok := periods[p.PID]
		if !ok || period <= 0 {
			continue
		}
		total += float64(p.BurstTime) / float64(period)
	}
	return total
}

// requirePositive resolves a required real-time parameter from the
// registration payload, falling back to the process's own field.
func requirePositive(field, policy string, arg, own *int64) (int64, error) {
	v := arg
	if v == nil {
		v = own
	}
	if v == nil {
		return 0, &InvalidArgumentError{Field: field, Reason: fmt.Sprintf("required by %s policy", policy)}
	}
	if *v <= 0 {
		return 0, &InvalidArgumentError{Field: field, Value: *v, Reason: "must be positive"}
	}
	return *v, nil
}

// deadlineLedger tracks absolute deadlines and misses for real-time policies.
type deadlineLedger struct {
	deadlines map[int]int64 // pid → absolute deadline
	missed    map[int]bool
}

func newDeadlineLedger() deadlineLedger {
	return deadlineLedger{
		deadlines: make(map[int]int64),
		missed:    make(map[int]bool),
	}
}

// check marks p as missed when it completed after its absolute deadline.
func (d *deadlineLedger) check(p *Process) {
	dl, ok := d.deadlines[p.PID]
	if !ok || p.CompletionTime == nil {
		return
	}
	if *p.CompletionTime > dl {
		d.missed[p.PID] = true
	}
}

// MissedDeadline reports whether pid completed after its absolute deadline.
func (d *deadlineLedger) MissedDeadline(pid int) bool {
	return d.missed[pid]
}

// DeadlineMisses returns the number of processes that missed their deadline.
func (d *deadlineLedger) DeadlineMisses() int {
	return len(d.missed)
}

// AbsoluteDeadline returns the current absolute deadline of pid.
func (d *deadlineLedger) AbsoluteDeadline(pid int) (int64, bool) {
	dl, ok := d.deadlines[pid]
	return dl, ok
}

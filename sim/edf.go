package sim

// EDFPolicy is dynamic-priority real-time scheduling: the READY process with
// the earliest absolute deadline runs, then by arrival time, then by PID.
// It is non-preemptive.
type EDFPolicy struct {
	noopHooks
	deadlineLedger

	periods map[int]int64
	procs   []*Process
}

// NewEDFPolicy creates an earliest-deadline-first policy.
func NewEDFPolicy() *EDFPolicy {
	return &EDFPolicy{
		deadlineLedger: newDeadlineLedger(),
		periods:        make(map[int]int64),
	}
}

func (ed *EDFPolicy) Name() string { return PolicyEDF }

// Register requires a positive relative deadline and period, from args or
// the process, and stores the absolute deadline ArrivalTime + Deadline.
func (ed *EDFPolicy) Register(_ *Engine, p *Process, args RegistrationArgs) error {
	deadline, err := requirePositive("deadline", PolicyEDF, args.Deadline, p.Deadline)
	if err != nil {
		return err
	}
	period, err := requirePositive("period", PolicyEDF, args.Period, p.Period)
	if err != nil {
		return err
	}
	applyPriority(p, args)
	p.Deadline = &deadline
	p.Period = &period
	ed.deadlines[p.PID] = p.ArrivalTime + deadline
	ed.periods[p.PID] = period
	ed.procs = append(ed.procs, p)
	return nil
}

// UpdateDeadlines advances the absolute deadline of pid by its period, for
// the next instance of a periodic task. Unknown pids are ignored.
func (ed *EDFPolicy) UpdateDeadlines(pid int) {
	period, ok := ed.periods[pid]
	if !ok {
		return
	}
	if _, ok := ed.deadlines[pid]; ok {
		ed.deadlines[pid] += period
	}
}

func (ed *EDFPolicy) byDeadline(a, b *Process) bool {
	da, db := ed.deadlines[a.PID], ed.deadlines[b.PID]
	if da != db {
		return da < db
	}
	if a.ArrivalTime != b.ArrivalTime {
		return a.ArrivalTime < b.ArrivalTime
	}
	return a.PID < b.PID
}

// Select only picks when the CPU is idle; a running process keeps it until it
// completes or blocks.
func (ed *EDFPolicy) Select(e *Engine) (*Process, error) {
	if e.current != nil {
		return e.current, nil
	}
	return bestReady(e, ed.byDeadline), nil
}

// OnComplete records a miss against the instance that just finished, then
// rolls the deadline forward to the next period.
func (ed *EDFPolicy) OnComplete(_ *Engine, p *Process) {
	ed.check(p)
	ed.UpdateDeadlines(p.PID)
}

// Utilization returns Σ burst/period over registered processes.
func (ed *EDFPolicy) Utilization() float64 {
	return utilization(ed.procs, ed.periods)
}

// CheckSchedulability reports Σ burst/period ≤ 1.0.
func (ed *EDFPolicy) CheckSchedulability() bool {
	return ed.Utilization() <= 1.0
}

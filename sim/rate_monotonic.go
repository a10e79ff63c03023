package sim

// RateMonotonicPolicy is fixed-priority real-time scheduling: the shorter the
// period, the higher the priority. Registration sets Priority = Period so the
// "lower value wins" convention carries over to reports.
//
// Misses are counted against the implicit deadline ArrivalTime + Period.
type RateMonotonicPolicy struct {
	noopHooks
	deadlineLedger

	periods map[int]int64
	procs   []*Process
}

// NewRateMonotonicPolicy creates a rate-monotonic policy.
func NewRateMonotonicPolicy() *RateMonotonicPolicy {
	return &RateMonotonicPolicy{
		deadlineLedger: newDeadlineLedger(),
		periods:        make(map[int]int64),
	}
}

func (rm *RateMonotonicPolicy) Name() string { return PolicyRateMonotonic }

// Register requires a positive period from args or the process.
func (rm *RateMonotonicPolicy) Register(_ *Engine, p *Process, args RegistrationArgs) error {
	period, err := requirePositive("period", PolicyRateMonotonic, args.Period, p.Period)
	if err != nil {
		return err
	}
	p.Period = &period
	p.Priority = int(period)
	rm.periods[p.PID] = period
	rm.deadlines[p.PID] = p.ArrivalTime + period
	rm.procs = append(rm.procs, p)
	return nil
}

// Period returns the registered period of pid.
func (rm *RateMonotonicPolicy) Period(pid int) (int64, bool) {
	period, ok := rm.periods[pid]
	return period, ok
}

func (rm *RateMonotonicPolicy) byPeriod(a, b *Process) bool {
	pa, pb := rm.periods[a.PID], rm.periods[b.PID]
	if pa != pb {
		return pa < pb
	}
	if a.ArrivalTime != b.ArrivalTime {
		return a.ArrivalTime < b.ArrivalTime
	}
	return a.PID < b.PID
}

// Select is preemptive: a READY process with a strictly shorter period
// displaces the running one.
func (rm *RateMonotonicPolicy) Select(e *Engine) (*Process, error) {
	best := bestReady(e, rm.byPeriod)
	if e.current == nil {
		return best, nil
	}
	if best != nil && rm.periods[best.PID] < rm.periods[e.current.PID] {
		if _, err := e.Preempt("period"); err != nil {
			return nil, err
		}
		return best, nil
	}
	return e.current, nil
}

func (rm *RateMonotonicPolicy) OnComplete(_ *Engine, p *Process) {
	rm.check(p)
}

// Utilization returns Σ burst/period over registered processes.
func (rm *RateMonotonicPolicy) Utilization() float64 {
	return utilization(rm.procs, rm.periods)
}

// CheckSchedulability applies the simplified bound Σ burst/period ≤ 1.0
// rather than the tighter n(2^(1/n)−1) Liu-Layland bound.
func (rm *RateMonotonicPolicy) CheckSchedulability() bool {
	return rm.Utilization() <= 1.0
}

package sim

// PriorityPolicy runs the READY process with the lowest priority value,
// then by arrival time (ascending), then by PID (ascending) for determinism.
// Lower numeric value = higher priority throughout.
type PriorityPolicy struct {
	noopHooks
	// Preemptive lets a strictly more urgent READY process displace the running one.
	Preemptive bool
}

// NewPriorityPolicy creates a priority policy.
func NewPriorityPolicy(preemptive bool) *PriorityPolicy {
	return &PriorityPolicy{Preemptive: preemptive}
}

func (pp *PriorityPolicy) Name() string { return PolicyPriority }

// Register applies an explicit priority override. A process without one keeps
// its own Priority, which defaults to 0.
func (pp *PriorityPolicy) Register(_ *Engine, p *Process, args RegistrationArgs) error {
	applyPriority(p, args)
	return nil
}

func byPriority(a, b *Process) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	if a.ArrivalTime != b.ArrivalTime {
		return a.ArrivalTime < b.ArrivalTime
	}
	return a.PID < b.PID
}

func (pp *PriorityPolicy) Select(e *Engine) (*Process, error) {
	best := bestReady(e, byPriority)
	if e.current == nil {
		return best, nil
	}
	if pp.Preemptive && best != nil && best.Priority < e.current.Priority {
		if _, err := e.Preempt("priority"); err != nil {
			return nil, err
		}
		return best, nil
	}
	return e.current, nil
}

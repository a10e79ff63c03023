package sim

import (
	"fmt"
	"sort"
)

// Policy decides which READY process occupies the CPU each tick.
// The Engine drives the shared step loop and calls these hooks; policies keep
// their own auxiliary state (ready queues, level maps, deadline tables).
type Policy interface {
	// Name returns the canonical policy name (see ValidPolicies).
	Name() string
	// Register validates the policy-specific registration payload for p.
	Register(e *Engine, p *Process, args RegistrationArgs) error
	// OnReady is called whenever p enters READY via arrival or I/O completion.
	OnReady(e *Engine, p *Process)
	// Select returns the process that should run this tick, or nil to idle.
	// A policy that wants to replace the current process MUST call e.Preempt first.
	Select(e *Engine) (*Process, error)
	// OnDispatch is called after p has transitioned to RUNNING.
	OnDispatch(e *Engine, p *Process)
	// OnExecuted is called after a tick in which p ran without terminating or blocking.
	OnExecuted(e *Engine, p *Process) error
	// OnBlocked is called after p left the CPU for an I/O burst.
	OnBlocked(e *Engine, p *Process)
	// OnComplete is called after p terminated.
	OnComplete(e *Engine, p *Process)
}

// ProcessOrderer is implemented by policies that keep the engine's process
// list in a specific order. Called after every registration.
// Implementations sort the slice in-place using sort.SliceStable for determinism.
type ProcessOrderer interface {
	OrderProcesses(procs []*Process)
}

// RegistrationArgs is the policy-specific payload passed with a process.
// Nil fields fall back to the process's own values.
type RegistrationArgs struct {
	Period   *int64 // required by rate-monotonic and edf
	Deadline *int64 // required by edf (relative)
	Priority *int   // overrides Process.Priority when set
}

// noopHooks provides empty hook implementations for policies to embed.
type noopHooks struct{}

func (noopHooks) OnReady(_ *Engine, _ *Process)          {}
func (noopHooks) OnDispatch(_ *Engine, _ *Process)       {}
func (noopHooks) OnExecuted(_ *Engine, _ *Process) error { return nil }
func (noopHooks) OnBlocked(_ *Engine, _ *Process)        {}
func (noopHooks) OnComplete(_ *Engine, _ *Process)       {}

// applyPriority copies an explicit priority override onto the process.
func applyPriority(p *Process, args RegistrationArgs) {
	if args.Priority != nil {
		p.Priority = *args.Priority
	}
}

// bestReady returns the READY process minimal under less, scanning in
// registration order so equal keys keep the earlier-registered process.
func bestReady(e *Engine, less func(a, b *Process) bool) *Process {
	var best *Process
	for _, p := range e.procs {
		if p.State != StateReady {
			continue
		}
		if best == nil || less(p, best) {
			best = p
		}
	}
	return best
}

// FCFSPolicy runs processes in arrival order, never preempting.
type FCFSPolicy struct {
	noopHooks
}

func (f *FCFSPolicy) Name() string { return PolicyFCFS }

func (f *FCFSPolicy) Register(_ *Engine, p *Process, args RegistrationArgs) error {
	applyPriority(p, args)
	return nil
}

// OrderProcesses keeps the process list sorted by arrival time. The sort is
// stable, so registration order breaks ties.
func (f *FCFSPolicy) OrderProcesses(procs []*Process) {
	sort.SliceStable(procs, func(i, j int) bool {
		return procs[i].ArrivalTime < procs[j].ArrivalTime
	})
}

func (f *FCFSPolicy) Select(e *Engine) (*Process, error) {
	if e.current != nil {
		return e.current, nil
	}
	return bestReady(e, func(a, b *Process) bool {
		return a.ArrivalTime < b.ArrivalTime
	}), nil
}

// SJFPolicy runs the READY process with the smallest total burst time,
// then by arrival time (ascending), then by PID (ascending) for determinism.
// Non-preemptive: a dispatched job runs to completion or I/O.
// Warning: SJF can cause starvation for long jobs under sustained load.
type SJFPolicy struct {
	noopHooks
}

func (s *SJFPolicy) Name() string { return PolicySJF }

func (s *SJFPolicy) Register(_ *Engine, p *Process, args RegistrationArgs) error {
	applyPriority(p, args)
	return nil
}

func (s *SJFPolicy) Select(e *Engine) (*Process, error) {
	if e.current != nil {
		return e.current, nil
	}
	return bestReady(e, func(a, b *Process) bool {
		if a.BurstTime != b.BurstTime {
			return a.BurstTime < b.BurstTime
		}
		if a.ArrivalTime != b.ArrivalTime {
			return a.ArrivalTime < b.ArrivalTime
		}
		return a.PID < b.PID
	}), nil
}

// Canonical policy names.
const (
	PolicyFCFS          = "fcfs"
	PolicySJF           = "sjf"
	PolicyRoundRobin    = "rr"
	PolicyPriority      = "priority"
	PolicyMLFQ          = "mlfq"
	PolicyRateMonotonic = "rm"
	PolicyEDF           = "edf"
)

// ValidPolicies is the set of recognized policy names.
// Shared by PolicyBundle.Validate() and NewPolicy() to avoid duplication.
var ValidPolicies = map[string]bool{
	PolicyFCFS: true, PolicySJF: true, PolicyRoundRobin: true, PolicyPriority: true,
	PolicyMLFQ: true, PolicyRateMonotonic: true, PolicyEDF: true,
}

// ValidPolicyNames returns the recognized policy names in display order.
func ValidPolicyNames() []string {
	return []string{PolicyFCFS, PolicySJF, PolicyRoundRobin, PolicyPriority, PolicyMLFQ, PolicyRateMonotonic, PolicyEDF}
}

// IsValidPolicy reports whether name is a recognized policy name.
func IsValidPolicy(name string) bool {
	return ValidPolicies[name]
}

// policyDisplayNames maps canonical names to report titles.
var policyDisplayNames = map[string]string{
	PolicyFCFS:          "First-Come-First-Served",
	PolicySJF:           "Shortest-Job-First",
	PolicyRoundRobin:    "Round Robin",
	PolicyPriority:      "Priority",
	PolicyMLFQ:          "Multi-Level Feedback Queue",
	PolicyRateMonotonic: "Rate Monotonic",
	PolicyEDF:           "Earliest Deadline First",
}

// PolicyDisplayName returns a human-readable title for a policy name.
func PolicyDisplayName(name string) string {
	if title, ok := policyDisplayNames[name]; ok {
		return title
	}
	return name
}

// PolicyConfig selects a policy and carries its construction parameters.
// Fields irrelevant to the chosen policy are ignored.
type PolicyConfig struct {
	Name                 string `json:"name"`
	TimeQuantum          int64  `json:"time_quantum"`           // rr
	NumQueues            int    `json:"num_queues"`             // mlfq
	BaseQuantum          int64  `json:"base_quantum"`           // mlfq
	ContextSwitchPenalty int64  `json:"context_switch_penalty"` // mlfq
	Preemptive           bool   `json:"preemptive"`             // priority
}

// Default policy parameters.
const (
	DefaultTimeQuantum          = 2
	DefaultNumQueues            = 3
	DefaultBaseQuantum          = 2
	DefaultContextSwitchPenalty = 1
)

// DefaultPolicyConfig returns the configuration used when only a name is given.
func DefaultPolicyConfig(name string) PolicyConfig {
	return PolicyConfig{
		Name:                 name,
		TimeQuantum:          DefaultTimeQuantum,
		NumQueues:            DefaultNumQueues,
		BaseQuantum:          DefaultBaseQuantum,
		ContextSwitchPenalty: DefaultContextSwitchPenalty,
		Preemptive:           true,
	}
}

// NewPolicy creates a Policy from its configuration.
// Unknown names and out-of-range parameters return *InvalidArgumentError.
func NewPolicy(cfg PolicyConfig) (Policy, error) {
	if !IsValidPolicy(cfg.Name) {
		return nil, &InvalidArgumentError{Field: "policy", Value: fmt.Sprintf("%q", cfg.Name),
			Reason: fmt.Sprintf("unknown policy; valid: %v", ValidPolicyNames())}
	}
	switch cfg.Name {
	case PolicyFCFS:
		return &FCFSPolicy{}, nil
	case PolicySJF:
		return &SJFPolicy{}, nil
	case PolicyRoundRobin:
		return NewRoundRobinPolicy(cfg.TimeQuantum)
	case PolicyPriority:
		return NewPriorityPolicy(cfg.Preemptive), nil
	case PolicyMLFQ:
		return NewMLFQPolicy(cfg.NumQueues, cfg.BaseQuantum, cfg.ContextSwitchPenalty)
	case PolicyRateMonotonic:
		return NewRateMonotonicPolicy(), nil
	case PolicyEDF:
		return NewEDFPolicy(), nil
	default:
		panic(fmt.Sprintf("unhandled policy %q", cfg.Name))
	}
}

// MustNewPolicy is like NewPolicy but panics on error.
func MustNewPolicy(cfg PolicyConfig) Policy {
	p, err := NewPolicy(cfg)
	if err != nil {
		panic(err)
	}
	return p
}

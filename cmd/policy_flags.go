package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cpu-sim/cpu-sim/sim"
)

// policyFlags are the policy-shaping flags shared by run and compare.
type policyFlags struct {
	configPath  string
	quantum     int64
	queues      int
	baseQuantum int64
	penalty     int64
	preemptive  bool
	maxTicks    int64
}

func (f *policyFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "policy-config", "", "Path to policy YAML (policy, time_quantum, num_queues, base_quantum, context_switch_penalty, preemptive, max_ticks)")
	fl.Int64Var(&f.quantum, "quantum", sim.DefaultTimeQuantum, "Round Robin time quantum")
	fl.IntVar(&f.queues, "queues", sim.DefaultNumQueues, "Number of MLFQ levels")
	fl.Int64Var(&f.baseQuantum, "base-quantum", sim.DefaultBaseQuantum, "MLFQ level-0 quantum; level i gets base << i")
	fl.Int64Var(&f.penalty, "penalty", sim.DefaultContextSwitchPenalty, "MLFQ context switch penalty (ticks)")
	fl.BoolVar(&f.preemptive, "preemptive", true, "Priority scheduling preempts on a better arrival")
	fl.Int64Var(&f.maxTicks, "max-ticks", 0, "Abort a run after this many ticks (0 = engine default)")
}

// resolve builds the configuration for name from the policy defaults, then the
// policy file, then the flags set explicitly on cmd. An empty name takes the
// policy named in the file. The returned tick limit is 0 when unset.
func (f *policyFlags) resolve(cmd *cobra.Command, name string) (sim.PolicyConfig, int64, error) {
	bundle := &sim.PolicyBundle{}
	if f.configPath != "" {
		var err error
		if bundle, err = sim.LoadPolicyBundle(f.configPath); err != nil {
			return sim.PolicyConfig{}, 0, err
		}
		if err := bundle.Validate(); err != nil {
			return sim.PolicyConfig{}, 0, fmt.Errorf("policy config %s: %w", f.configPath, err)
		}
	}
	if name == "" {
		name = bundle.Policy
	}
	if name == "" {
		return sim.PolicyConfig{}, 0, fmt.Errorf("no policy given; set --policy or policy in --policy-config")
	}

	cfg := bundle.ApplyTo(sim.DefaultPolicyConfig(name))
	cfg.Name = name
	var maxTicks int64
	if bundle.MaxTicks != nil {
		maxTicks = *bundle.MaxTicks
	}

	changed := cmd.Flags().Changed
	if changed("quantum") {
		cfg.TimeQuantum = f.quantum
	}
	if changed("queues") {
		cfg.NumQueues = f.queues
	}
	if changed("base-quantum") {
		cfg.BaseQuantum = f.baseQuantum
	}
	if changed("penalty") {
		cfg.ContextSwitchPenalty = f.penalty
	}
	if changed("preemptive") {
		cfg.Preemptive = f.preemptive
	}
	if changed("max-ticks") {
		if f.maxTicks <= 0 {
			return sim.PolicyConfig{}, 0, fmt.Errorf("--max-ticks must be positive, got %d", f.maxTicks)
		}
		maxTicks = f.maxTicks
	}

	// Construct once so parameter errors surface before any workload is read.
	if _, err := sim.NewPolicy(cfg); err != nil {
		return sim.PolicyConfig{}, 0, err
	}
	return cfg, maxTicks, nil
}

// engineOptions turns the resolved tick limit into engine options.
func engineOptions(maxTicks int64) []sim.Option {
	if maxTicks > 0 {
		return []sim.Option{sim.WithMaxTicks(maxTicks)}
	}
	return nil
}

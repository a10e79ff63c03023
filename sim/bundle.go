package sim

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PolicyBundle holds policy configuration loadable from a YAML file.
// Nil pointer fields mean "not set in YAML" and leave defaults or CLI flags in
// place. An empty Policy means "not set".
type PolicyBundle struct {
	Policy               string `yaml:"policy"`
	TimeQuantum          *int64 `yaml:"time_quantum"`
	NumQueues            *int   `yaml:"num_queues"`
	BaseQuantum          *int64 `yaml:"base_quantum"`
	ContextSwitchPenalty *int64 `yaml:"context_switch_penalty"`
	Preemptive           *bool  `yaml:"preemptive"`
	MaxTicks             *int64 `yaml:"max_ticks"`
}

// LoadPolicyBundle reads and parses a YAML policy configuration file.
// Unknown keys are rejected.
func LoadPolicyBundle(path string) (*PolicyBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy config: %w", err)
	}
	return ParsePolicyBundle(data)
}

// ParsePolicyBundle parses YAML bytes with strict field checking.
func ParsePolicyBundle(data []byte) (*PolicyBundle, error) {
	var bundle PolicyBundle
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&bundle); err != nil {
		return nil, fmt.Errorf("parsing policy config: %w", err)
	}
	return &bundle, nil
}

// Validate checks the policy name and parameter ranges in the bundle.
func (b *PolicyBundle) Validate() error {
	if b.Policy != "" && !IsValidPolicy(b.Policy) {
		return fmt.Errorf("unknown policy %q; valid: %v", b.Policy, ValidPolicyNames())
	}
	if b.TimeQuantum != nil && *b.TimeQuantum <= 0 {
		return fmt.Errorf("time_quantum must be positive, got %d", *b.TimeQuantum)
	}
	if b.NumQueues != nil && *b.NumQueues < 1 {
		return fmt.Errorf("num_queues must be at least 1, got %d", *b.NumQueues)
	}
	if b.BaseQuantum != nil && *b.BaseQuantum <= 0 {
		return fmt.Errorf("base_quantum must be positive, got %d", *b.BaseQuantum)
	}
	if b.ContextSwitchPenalty != nil && *b.ContextSwitchPenalty < 0 {
		return fmt.Errorf("context_switch_penalty must be non-negative, got %d", *b.ContextSwitchPenalty)
	}
	if b.MaxTicks != nil && *b.MaxTicks <= 0 {
		return fmt.Errorf("max_ticks must be positive, got %d", *b.MaxTicks)
	}
	return nil
}

// ApplyTo overlays the fields set in the bundle onto cfg.
func (b *PolicyBundle) ApplyTo(cfg PolicyConfig) PolicyConfig {
	if b.Policy != "" {
		cfg.Name = b.Policy
	}
	if b.TimeQuantum != nil {
		cfg.TimeQuantum = *b.TimeQuantum
	}
	if b.NumQueues != nil {
		cfg.NumQueues = *b.NumQueues
	}
	if b.BaseQuantum != nil {
		cfg.BaseQuantum = *b.BaseQuantum
	}
	if b.ContextSwitchPenalty != nil {
		cfg.ContextSwitchPenalty = *b.ContextSwitchPenalty
	}
	if b.Preemptive != nil {
		cfg.Preemptive = *b.Preemptive
	}
	return cfg
}

// ToPolicyConfig returns the default configuration for the bundle's policy
// with every set field applied.
func (b *PolicyBundle) ToPolicyConfig() PolicyConfig {
	return b.ApplyTo(DefaultPolicyConfig(b.Policy))
}

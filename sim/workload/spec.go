package workload

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// WorkloadSpec is the top-level configuration of the synthetic generator.
// Loaded from YAML via LoadWorkloadSpec(path).
type WorkloadSpec struct {
	Seed         int64         `yaml:"seed"`
	NumProcesses int           `yaml:"num_processes"`
	Arrival      ArrivalSpec   `yaml:"arrival"`
	Burst        DistSpec      `yaml:"burst"`
	Priority     IntRange      `yaml:"priority"`
	IO           *IOSpec       `yaml:"io,omitempty"`
	Realtime     *RealtimeSpec `yaml:"realtime,omitempty"`
}

// ArrivalSpec configures the inter-arrival process. The first process
// always arrives at tick 0.
type ArrivalSpec struct {
	Process string  `yaml:"process"`
	Rate    float64 `yaml:"rate,omitempty"`    // arrivals per tick: poisson, constant
	MaxGap  int64   `yaml:"max_gap,omitempty"` // uniform: gap drawn from [0, max_gap]
}

// DistSpec parameterizes a length distribution.
type DistSpec struct {
	Type   string             `yaml:"type"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

// IntRange is an inclusive integer range. The zero value yields 0.
type IntRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// IOSpec configures blocking I/O bursts.
type IOSpec struct {
	Probability   float64  `yaml:"probability"`    // chance a process performs I/O
	MaxOperations int      `yaml:"max_operations"` // upper bound per process (default 1)
	Duration      DistSpec `yaml:"duration"`
}

// RealtimeSpec adds a period and relative deadline to every process.
// Periods shorter than the burst are raised to the burst.
type RealtimeSpec struct {
	Period         DistSpec `yaml:"period"`
	DeadlineFactor float64  `yaml:"deadline_factor"` // deadline = round(period × factor); default 1
}

// Valid value registries.
var (
	validArrivalProcesses = map[string]bool{
		"poisson": true, "constant": true, "uniform": true,
	}
	validDistTypes = map[string]bool{
		"uniform": true, "gaussian": true, "exponential": true, "constant": true,
	}
)

// LoadWorkloadSpec reads and parses a YAML workload specification file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadWorkloadSpec(path string) (*WorkloadSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workload spec: %w", err)
	}
	var spec WorkloadSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing workload spec: %w", err)
	}
	return &spec, nil
}

// Validate checks that all fields in the spec are valid.
func (s *WorkloadSpec) Validate() error {
	if s.NumProcesses <= 0 {
		return fmt.Errorf("num_processes must be positive, got %d", s.NumProcesses)
	}
	if !validArrivalProcesses[s.Arrival.Process] {
		return fmt.Errorf("unknown arrival process %q; valid: poisson, constant, uniform", s.Arrival.Process)
	}
	switch s.Arrival.Process {
	case "poisson", "constant":
		if err := validateFinitePositive("arrival.rate", s.Arrival.Rate); err != nil {
			return err
		}
	case "uniform":
		if s.Arrival.MaxGap < 0 {
			return fmt.Errorf("arrival.max_gap must be non-negative, got %d", s.Arrival.MaxGap)
		}
	}
	if err := validateDistSpec("burst", &s.Burst); err != nil {
		return err
	}
	if s.Priority.Max < s.Priority.Min {
		return fmt.Errorf("priority.max %d below priority.min %d", s.Priority.Max, s.Priority.Min)
	}
	if s.IO != nil {
		if s.IO.Probability < 0 || s.IO.Probability > 1 || math.IsNaN(s.IO.Probability) {
			return fmt.Errorf("io.probability must be in [0, 1], got %f", s.IO.Probability)
		}
		if s.IO.MaxOperations < 0 {
			return fmt.Errorf("io.max_operations must be non-negative, got %d", s.IO.MaxOperations)
		}
		if err := validateDistSpec("io.duration", &s.IO.Duration); err != nil {
			return err
		}
	}
	if s.Realtime != nil {
		if err := validateDistSpec("realtime.period", &s.Realtime.Period); err != nil {
			return err
		}
		if s.Realtime.DeadlineFactor < 0 || math.IsNaN(s.Realtime.DeadlineFactor) || math.IsInf(s.Realtime.DeadlineFactor, 0) {
			return fmt.Errorf("realtime.deadline_factor must be a non-negative finite number, got %f", s.Realtime.DeadlineFactor)
		}
	}
	return nil
}

func validateDistSpec(prefix string, d *DistSpec) error {
	if !validDistTypes[d.Type] {
		return fmt.Errorf("%s: unknown distribution type %q; valid: uniform, gaussian, exponential, constant", prefix, d.Type)
	}
	for name, val := range d.Params {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return fmt.Errorf("%s.params.%s must be a finite number, got %f", prefix, name, val)
		}
	}
	if _, err := NewLengthSampler(*d); err != nil {
		return fmt.Errorf("%s: %w", prefix, err)
	}
	return nil
}

func validateFinitePositive(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%s must be a finite number, got %f", name, val)
	}
	if val <= 0 {
		return fmt.Errorf("%s must be positive, got %f", name, val)
	}
	return nil
}

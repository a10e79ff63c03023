package workload

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/cpu-sim/cpu-sim/sim"
)

// Generate creates a process list from a WorkloadSpec.
// Deterministic given the same spec and seed.
// Returns processes sorted by ArrivalTime with sequential PIDs starting at 1.
func Generate(spec *WorkloadSpec) ([]*sim.Process, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workload spec: %w", err)
	}

	rng := NewPartitionedRNG(spec.Seed)
	arrivals := NewArrivalSampler(spec.Arrival)
	bursts, err := NewLengthSampler(spec.Burst)
	if err != nil {
		return nil, fmt.Errorf("burst: %w", err)
	}
	var ioDurations, periods LengthSampler
	if spec.IO != nil {
		if ioDurations, err = NewLengthSampler(spec.IO.Duration); err != nil {
			return nil, fmt.Errorf("io.duration: %w", err)
		}
	}
	if spec.Realtime != nil {
		if periods, err = NewLengthSampler(spec.Realtime.Period); err != nil {
			return nil, fmt.Errorf("realtime.period: %w", err)
		}
	}

	procs := make([]*sim.Process, 0, spec.NumProcesses)
	var clock int64
	for i := 0; i < spec.NumProcesses; i++ {
		if i > 0 {
			clock += arrivals.SampleIAT(rng.ForSubsystem(SubsystemArrival))
		}
		burst := bursts.Sample(rng.ForSubsystem(SubsystemBurst))
		priority := spec.Priority.Min
		if span := spec.Priority.Max - spec.Priority.Min; span > 0 {
			priority += rng.ForSubsystem(SubsystemPriority).Intn(span + 1)
		}
		p := sim.NewProcess(i+1, clock, burst, priority)

		if spec.IO != nil {
			p.WithIO(sampleIO(rng.ForSubsystem(SubsystemIO), spec.IO, ioDurations, burst)...)
		}
		if spec.Realtime != nil {
			period := max(burst, periods.Sample(rng.ForSubsystem(SubsystemRealtime)))
			factor := spec.Realtime.DeadlineFactor
			if factor == 0 {
				factor = 1
			}
			p.WithPeriod(period).WithDeadline(max(1, int64(math.Round(float64(period)*factor))))
		}
		procs = append(procs, p)
	}

	// Arrivals are generated in order; the sort keeps the contract explicit.
	sort.SliceStable(procs, func(i, j int) bool {
		return procs[i].ArrivalTime < procs[j].ArrivalTime
	})
	return procs, nil
}

// sampleIO draws I/O operations at distinct offsets strictly inside (0, burst).
// A burst of 1 has no room for I/O.
func sampleIO(rng *rand.Rand, spec *IOSpec, durations LengthSampler, burst int64) []sim.IOOperation {
	if burst < 2 || rng.Float64() >= spec.Probability {
		return nil
	}
	maxOps := max(1, spec.MaxOperations)
	n := int64(1 + rng.Intn(maxOps))
	n = min(n, burst-1)

	offsets := make(map[int64]bool, n)
	for int64(len(offsets)) < n {
		offsets[1+rng.Int63n(burst-1)] = true
	}
	sorted := make([]int64, 0, n)
	for off := range offsets {
		sorted = append(sorted, off)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	ops := make([]sim.IOOperation, 0, n)
	for _, off := range sorted {
		ops = append(ops, sim.IOOperation{StartOffset: off, Duration: durations.Sample(rng)})
	}
	return ops
}

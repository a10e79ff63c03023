package workload

import (
	"math"
	"math/rand"
)

// ArrivalSampler generates inter-arrival gaps in ticks.
type ArrivalSampler interface {
	// SampleIAT returns the next inter-arrival gap. Always >= 0: several
	// processes may arrive on the same tick.
	SampleIAT(rng *rand.Rand) int64
}

// PoissonSampler generates exponentially-distributed gaps (CV=1).
type PoissonSampler struct {
	rate float64 // arrivals per tick
}

func (s *PoissonSampler) SampleIAT(rng *rand.Rand) int64 {
	return int64(rng.ExpFloat64() / s.rate)
}

// ConstantArrivalSampler spaces arrivals evenly at 1/rate ticks.
type ConstantArrivalSampler struct {
	gap int64
}

func (s *ConstantArrivalSampler) SampleIAT(_ *rand.Rand) int64 {
	return s.gap
}

// UniformArrivalSampler draws gaps uniformly from [0, maxGap].
type UniformArrivalSampler struct {
	maxGap int64
}

func (s *UniformArrivalSampler) SampleIAT(rng *rand.Rand) int64 {
	if s.maxGap <= 0 {
		return 0
	}
	return rng.Int63n(s.maxGap + 1)
}

// NewArrivalSampler creates an ArrivalSampler from a validated spec.
func NewArrivalSampler(spec ArrivalSpec) ArrivalSampler {
	rate := spec.Rate
	// Floor avoids division by zero for a rate left at zero
	if rate < 1e-9 {
		rate = 1e-9
	}
	switch spec.Process {
	case "constant":
		return &ConstantArrivalSampler{gap: int64(math.Round(1 / rate))}
	case "uniform":
		return &UniformArrivalSampler{maxGap: spec.MaxGap}
	default:
		return &PoissonSampler{rate: rate}
	}
}

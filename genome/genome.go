// Package genome defines the heritable consumer traits and the rules
// for generating and mutating them.
package genome

import "math/rand"

// Trait ranges. Every live genome lies within these closed intervals;
// creation and mutation clamp on write, so out-of-range values never
// propagate.
const (
	SpeedMin = 0.5
	SpeedMax = 2.0
	SizeMin  = 0.3
	SizeMax  = 1.0
	SenseMin = 3.0
	SenseMax = 15.0
)

// Genome holds the three heritable traits of a consumer.
type Genome struct {
	Speed float64 // movement force multiplier
	Size  float64 // body scale; drives predation eligibility
	Sense float64 // perception radius in world units
}

// Service generates and mutates genomes.
type Service struct {
	// Magnitude is the half-width of the uniform multiplicative
	// perturbation applied per trait on mutation.
	Magnitude float64
}

// NewService creates a genome service with the given mutation magnitude.
func NewService(magnitude float64) *Service {
	return &Service{Magnitude: magnitude}
}

// NewRandom draws each trait independently and uniformly within its
// declared range.
func (s *Service) NewRandom(rng *rand.Rand) Genome {
	return Genome{
		Speed: uniform(rng, SpeedMin, SpeedMax),
		Size:  uniform(rng, SizeMin, SizeMax),
		Sense: uniform(rng, SenseMin, SenseMax),
	}
}

// Mutate returns a mutated copy of g. Each trait is perturbed by an
// independent factor drawn uniformly from [1-m, 1+m], then clamped to
// its range. Traits mutate independently: a speed perturbation does not
// correlate with size or sense.
func (s *Service) Mutate(rng *rand.Rand, g Genome) Genome {
	return Genome{
		Speed: clamp(g.Speed*s.factor(rng), SpeedMin, SpeedMax),
		Size:  clamp(g.Size*s.factor(rng), SizeMin, SizeMax),
		Sense: clamp(g.Sense*s.factor(rng), SenseMin, SenseMax),
	}
}

func (s *Service) factor(rng *rand.Rand) float64 {
	return 1 + (rng.Float64()*2-1)*s.Magnitude
}

// Clamp returns g with every trait forced into its declared range.
func Clamp(g Genome) Genome {
	return Genome{
		Speed: clamp(g.Speed, SpeedMin, SpeedMax),
		Size:  clamp(g.Size, SizeMin, SizeMax),
		Sense: clamp(g.Sense, SenseMin, SenseMax),
	}
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

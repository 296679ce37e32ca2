package genome

import (
	"math/rand"
	"testing"
)

func inRange(g Genome) bool {
	return g.Speed >= SpeedMin && g.Speed <= SpeedMax &&
		g.Size >= SizeMin && g.Size <= SizeMax &&
		g.Sense >= SenseMin && g.Sense <= SenseMax
}

func TestNewRandomInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	svc := NewService(0.05)

	for i := 0; i < 1000; i++ {
		g := svc.NewRandom(rng)
		if !inRange(g) {
			t.Fatalf("NewRandom produced out-of-range genome: %+v", g)
		}
	}
}

func TestMutateStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	svc := NewService(0.05)

	// Drift a lineage for many generations; every intermediate genome
	// must stay within the declared ranges.
	g := svc.NewRandom(rng)
	for i := 0; i < 5000; i++ {
		g = svc.Mutate(rng, g)
		if !inRange(g) {
			t.Fatalf("generation %d out of range: %+v", i, g)
		}
	}
}

func TestMutateMagnitudeBound(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	svc := NewService(0.05)

	// With speed=1.0 the pre-clamp value is in [0.95, 1.05], and no
	// clamping can occur there, so the result must stay in that band.
	for i := 0; i < 2000; i++ {
		g := svc.Mutate(rng, Genome{Speed: 1.0, Size: 0.6, Sense: 9.0})
		if g.Speed < 0.95 || g.Speed > 1.05 {
			t.Fatalf("speed mutation out of [0.95, 1.05]: %v", g.Speed)
		}
		if g.Size < 0.6*0.95 || g.Size > 0.6*1.05 {
			t.Fatalf("size mutation out of band: %v", g.Size)
		}
	}
}

func TestMutateIndependence(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	svc := NewService(0.05)

	// Traits draw separate perturbations; over many mutations the
	// relative deltas must not be identical across traits.
	base := Genome{Speed: 1.0, Size: 0.6, Sense: 9.0}
	identical := 0
	const trials = 200
	for i := 0; i < trials; i++ {
		m := svc.Mutate(rng, base)
		speedDelta := m.Speed / base.Speed
		sizeDelta := m.Size / base.Size
		if speedDelta == sizeDelta {
			identical++
		}
	}
	if identical == trials {
		t.Fatal("speed and size perturbations are perfectly correlated")
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name string
		in   Genome
		want Genome
	}{
		{"below", Genome{Speed: 0.1, Size: 0.0, Sense: -2}, Genome{Speed: SpeedMin, Size: SizeMin, Sense: SenseMin}},
		{"above", Genome{Speed: 5, Size: 2, Sense: 99}, Genome{Speed: SpeedMax, Size: SizeMax, Sense: SenseMax}},
		{"inside", Genome{Speed: 1.2, Size: 0.5, Sense: 7}, Genome{Speed: 1.2, Size: 0.5, Sense: 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.in); got != tt.want {
				t.Errorf("Clamp(%+v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

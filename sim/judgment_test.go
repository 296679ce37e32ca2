package sim

import (
	"math"
	"testing"

	"github.com/pthm-cable/veldt/config"
	"github.com/pthm-cable/veldt/genome"
	"github.com/pthm-cable/veldt/telemetry"
)

func TestJudgmentRules(t *testing.T) {
	cfg := config.Cfg()
	s := newTestStore(40)
	collector := telemetry.NewCollector()
	j := NewJudgmentEngine(s, collector)

	// foodEaten per consumer: 0 and 0 starve, 1 survives, 2 and 2
	// survive and each spawn one offspring. Population 5 -> 5.
	counts := []int{0, 1, 2, 2, 0}
	ids := make([]uint64, len(counts))
	for i, n := range counts {
		ids[i] = s.spawnConsumer(genome.Genome{Speed: 1, Size: 0.5, Sense: 5}, 2, 0, float64(i), 0)
		for k := 0; k < n; k++ {
			s.IncrementFoodEaten(ids[i])
		}
	}

	snap := j.Run(1)

	if snap.Day != 1 {
		t.Errorf("Day = %d, want 1", snap.Day)
	}
	if snap.Population != 5 {
		t.Errorf("Population = %d, want 5 (3 survivors + 2 births)", snap.Population)
	}
	if snap.Births != 2 {
		t.Errorf("Births = %d, want 2", snap.Births)
	}
	if snap.StarvationDeaths != 2 {
		t.Errorf("StarvationDeaths = %d, want 2", snap.StarvationDeaths)
	}
	if snap.MaxGeneration != 2 {
		t.Errorf("MaxGeneration = %d, want 2 (pre-judgment)", snap.MaxGeneration)
	}

	if s.HasConsumer(ids[0]) || s.HasConsumer(ids[4]) {
		t.Error("starved consumers still present")
	}

	var offspring int
	for _, id := range s.ConsumerIDs() {
		pos, _, energy, cons, _ := s.Consumer(id)
		if energy.Value != cfg.Entity.MaxEnergy {
			t.Errorf("consumer %d energy = %v, want full", id, energy.Value)
		}
		if cons.FoodEaten != 0 {
			t.Errorf("consumer %d foodEaten = %d, want 0", id, cons.FoodEaten)
		}
		if cons.Generation == 3 {
			offspring++
			if cons.ParentID != ids[2] && cons.ParentID != ids[3] {
				t.Errorf("offspring %d parent = %d, want one of the reproducers", id, cons.ParentID)
			}
			continue
		}
		dist := math.Hypot(pos.X, pos.Z)
		if math.Abs(dist-cfg.Arena.EdgeRadius) > 1e-9 {
			t.Errorf("survivor %d at distance %v, want edge radius", id, dist)
		}
	}
	if offspring != 2 {
		t.Errorf("found %d generation-3 offspring, want 2", offspring)
	}
}

func TestJudgmentTraitStatsArePreJudgment(t *testing.T) {
	s := newTestStore(41)
	j := NewJudgmentEngine(s, telemetry.NewCollector())

	// The fast starver must still count toward the day's averages.
	fast := s.spawnConsumer(genome.Genome{Speed: 2.0, Size: 0.5, Sense: 5}, 1, 0, 0, 0)
	slow := s.spawnConsumer(genome.Genome{Speed: 1.0, Size: 0.5, Sense: 5}, 1, 0, 1, 0)
	s.IncrementFoodEaten(slow)

	snap := j.Run(1)

	if s.HasConsumer(fast) {
		t.Fatal("starver survived")
	}
	if got, want := snap.AvgSpeed, 1.5; math.Abs(got-want) > 1e-9 {
		t.Errorf("AvgSpeed = %v, want %v", got, want)
	}
	if got := snap.MaxSpeed; got != 2.0 {
		t.Errorf("MaxSpeed = %v, want 2.0", got)
	}
	if snap.Population != 1 {
		t.Errorf("Population = %d, want post-judgment 1", snap.Population)
	}
}

func TestJudgmentSkipsZombies(t *testing.T) {
	s := newTestStore(42)
	j := NewJudgmentEngine(s, telemetry.NewCollector())

	zombie := s.spawnConsumer(genome.Genome{Speed: 1, Size: 0.4, Sense: 5}, 1, 0, 0, 0)
	s.MarkBeingEaten(zombie, 99, 0, 0, 0)

	snap := j.Run(1)

	// Zero food would normally starve it; the predation path owns its
	// fate instead.
	if !s.HasConsumer(zombie) {
		t.Fatal("judgment removed a zombie")
	}
	if snap.StarvationDeaths != 0 {
		t.Errorf("StarvationDeaths = %d, want 0", snap.StarvationDeaths)
	}
}

func TestJudgmentReplacesResources(t *testing.T) {
	cfg := config.Cfg()
	s := newTestStore(43)
	j := NewJudgmentEngine(s, telemetry.NewCollector())

	s.SpawnResourceBatch(3)
	j.Run(1)

	if got := s.ResourceCount(); got != cfg.Population.Resources {
		t.Errorf("ResourceCount = %d, want fresh batch of %d", got, cfg.Population.Resources)
	}
}

func TestJudgmentEmptyPopulation(t *testing.T) {
	s := newTestStore(44)
	j := NewJudgmentEngine(s, telemetry.NewCollector())

	snap := j.Run(1)
	if snap.Population != 0 || snap.Births != 0 || snap.StarvationDeaths != 0 {
		t.Errorf("snapshot for empty population = %+v, want zeros", snap)
	}
	if snap.AvgSpeed != 0 || snap.MaxSpeed != 0 {
		t.Errorf("trait stats for empty population = %v/%v, want 0/0", snap.AvgSpeed, snap.MaxSpeed)
	}
}

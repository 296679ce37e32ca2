package sim

import (
	"log/slog"

	"github.com/pthm-cable/veldt/config"
	"github.com/pthm-cable/veldt/telemetry"
)

// JudgmentEngine applies the end-of-day pass: death, survival, and
// reproduction keyed purely on each consumer's daily food count. It
// runs exactly once per Night -> Day transition.
type JudgmentEngine struct {
	store     *EntityStore
	collector *telemetry.Collector
}

// NewJudgmentEngine creates an engine bound to a store and a day
// collector.
func NewJudgmentEngine(store *EntityStore, collector *telemetry.Collector) *JudgmentEngine {
	return &JudgmentEngine{store: store, collector: collector}
}

// Run judges the completed day and returns its snapshot. Rules, per
// non-zombie consumer:
//
//	foodEaten < 1   removed (starvation)
//	1 <= food < 2   survives: full energy, fresh edge position, counter reset
//	foodEaten >= 2  survives under the same reset and spawns exactly one
//	                offspring with a mutated genome and generation+1
//
// Consumers still marked being-eaten are excluded entirely; the
// predation path owns their fate. Resources are replaced wholesale and
// the spatial index is rebuilt in one pass afterwards.
func (j *JudgmentEngine) Run(day int) telemetry.DaySnapshot {
	cfg := config.Cfg()

	type subject struct {
		id        uint64
		foodEaten int
	}

	var (
		subjects []subject
		speeds   []float64
		sizes    []float64
		senses   []float64
		maxGen   int
	)

	// Pre-judgment statistics over the non-zombie population, captured
	// before any composition change.
	for _, id := range j.store.ConsumerIDs() {
		_, g, _, cons, ok := j.store.Consumer(id)
		if !ok || cons.BeingEatenBy != 0 {
			continue
		}
		subjects = append(subjects, subject{id: id, foodEaten: cons.FoodEaten})
		speeds = append(speeds, g.Speed)
		sizes = append(sizes, g.Size)
		senses = append(senses, g.Sense)
		if cons.Generation > maxGen {
			maxGen = cons.Generation
		}
	}

	avgSpeed, maxSpeed := telemetry.TraitStats(speeds)
	avgSize, maxSize := telemetry.TraitStats(sizes)
	avgSense, maxSense := telemetry.TraitStats(senses)

	var deaths, births int
	for _, sub := range subjects {
		switch {
		case sub.foodEaten < 1:
			j.store.Remove(sub.id)
			deaths++

		case sub.foodEaten >= 2:
			x, z := j.store.RandomEdgePoint()
			j.store.ResetForNewDay(sub.id, x, z)
			if _, ok := j.store.Reproduce(sub.id, x, z); ok {
				births++
			}

		default:
			x, z := j.store.RandomEdgePoint()
			j.store.ResetForNewDay(sub.id, x, z)
		}
	}

	j.store.ReplaceResources(cfg.Population.Resources)
	j.store.RebuildIndex()

	snap := telemetry.DaySnapshot{
		Day:               day,
		Population:        j.store.ConsumerCount(),
		Births:            births,
		Deaths:            deaths + j.collector.PredationDeaths(),
		StarvationDeaths:  deaths,
		PredationDeaths:   j.collector.PredationDeaths(),
		ResourcesConsumed: j.collector.ResourcesConsumed(),
		PreyConsumed:      j.collector.PreyConsumed(),
		AvgSpeed:          avgSpeed,
		AvgSize:           avgSize,
		AvgSense:          avgSense,
		MaxSpeed:          maxSpeed,
		MaxSize:           maxSize,
		MaxSense:          maxSense,
		MaxGeneration:     maxGen,
	}

	if cfg.Telemetry.LogDays {
		slog.Info("day judged", "snapshot", snap)
	}

	return snap
}

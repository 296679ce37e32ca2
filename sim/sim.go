package sim

import (
	"log/slog"
	"math/rand"

	"github.com/pthm-cable/veldt/config"
	"github.com/pthm-cable/veldt/genome"
	"github.com/pthm-cable/veldt/systems"
	"github.com/pthm-cable/veldt/telemetry"
)

// Steering is one agent's desired steering force for this tick. The
// external physics layer converts it into acceleration and reports the
// resolved position back through SyncPosition; the core never writes
// velocity or position into the physics layer.
type Steering struct {
	ID    uint64
	State State
	Force systems.Vec2
}

// ConsumerView is a read-only projection of one consumer for rendering
// and statistics.
type ConsumerView struct {
	ID         uint64
	X, Y, Z    float64
	Genome     genome.Genome
	Energy     float64
	FoodEaten  int
	Generation int
	ParentID   uint64
	BeingEaten bool
	State      State
}

// Options configures a new simulation.
type Options struct {
	Seed   int64
	Output *telemetry.OutputManager // nil disables CSV output
}

// pendingPredation tracks a claimed prey until its consumption
// completes and the zombie is purged.
type pendingPredation struct {
	prey      uint64
	remaining float64 // sim seconds
}

// Simulation owns the complete core state and advances it one tick at a
// time. Single-threaded and cooperative: the external driver supplies
// per-frame elapsed time, and every read and write for that frame
// happens synchronously before Tick returns.
type Simulation struct {
	store     *EntityStore
	behavior  *BehaviorEngine
	phases    *PhaseController
	judge     *JudgmentEngine
	collector *telemetry.Collector
	out       *telemetry.OutputManager

	speed   float64
	paused  bool
	elapsed float64 // total simulation seconds

	history []telemetry.DaySnapshot
	pending []pendingPredation
}

// NewSimulation creates an empty simulation. Call Setup before Tick.
func NewSimulation(opts Options) *Simulation {
	cfg := config.Cfg()

	rng := rand.New(rand.NewSource(opts.Seed))
	genomes := genome.NewService(cfg.Genome.MutationMagnitude)
	index := systems.NewSpatialIndex(cfg.Spatial.CellSize)
	store := NewEntityStore(rng, genomes, index)
	collector := telemetry.NewCollector()

	return &Simulation{
		store:     store,
		behavior:  NewBehaviorEngine(store),
		phases:    NewPhaseController(),
		judge:     NewJudgmentEngine(store, collector),
		collector: collector,
		out:       opts.Output,
		speed:     1,
	}
}

// Setup atomically replaces the population and the clock state. No
// partial-reset state is observable: by the time Setup returns, the
// store, index, phase clock, history, and per-day trackers are all
// fresh.
func (s *Simulation) Setup(consumerCount, resourceCount int) {
	s.store.Setup(consumerCount, resourceCount)
	s.phases.Reset()
	s.behavior.ResetDay()
	s.collector.Reset()
	s.history = s.history[:0]
	s.pending = s.pending[:0]
	s.elapsed = 0

	slog.Info("simulation setup", "consumers", consumerCount, "resources", resourceCount)
}

// Tick advances the simulation by elapsedSeconds of real time (scaled
// by the speed multiplier, gated by pause) and returns the steering
// decisions for the physics layer. During night, and while paused, no
// forces are produced.
func (s *Simulation) Tick(elapsedSeconds float64) []Steering {
	cfg := config.Cfg()

	dt := 0.0
	if !s.paused {
		dt = elapsedSeconds * s.speed
	}

	allAtEdge := s.allAtEdge()
	popZero := s.liveCount() == 0

	// The failsafe is the only exit that needs attribution; record it
	// before the controller consumes it.
	if s.phases.Phase() == PhaseSunset && !allAtEdge && !popZero &&
		s.phases.SunsetElapsed() >= cfg.Derived.SunsetFailsafe {
		s.collector.RecordFailsafeTrip()
	}

	switch s.phases.Advance(dt, allAtEdge, popZero) {
	case PhaseEventSunset:
		slog.Debug("sunset", "day", s.phases.Day())
	case PhaseEventNight:
		slog.Debug("night", "day", s.phases.Day())
	case PhaseEventDay:
		s.runJudgment()
	}

	if s.paused {
		// Countdowns, energy decay, and force application all freeze.
		return nil
	}

	s.advancePredations(dt)
	s.elapsed += dt

	if !s.phases.Active() {
		return nil
	}

	remaining := s.phases.Remaining()
	ids := s.store.ConsumerIDs()
	decisions := make([]Steering, 0, len(ids))

	for _, id := range ids {
		_, g, _, cons, ok := s.store.Consumer(id)
		if !ok || cons.BeingEatenBy != 0 {
			// Consumed earlier in this same tick; expected, not an
			// error.
			continue
		}

		d := s.behavior.Decide(id, remaining, s.elapsed)
		if d.Consume != nil {
			// Applied immediately so later agents in this tick observe
			// the post-mutation state; two predators can never claim
			// the same prey.
			s.applyConsumption(id, d.Consume)
		}

		cost := cfg.Energy.BaseCost +
			cfg.Energy.MoveCost*g.Size*g.Size*g.Size*g.Speed*g.Speed +
			cfg.Energy.SenseCost*g.Sense
		s.store.UpdateEnergy(id, -cost*dt)

		decisions = append(decisions, Steering{ID: id, State: d.State, Force: d.Force})
	}

	return decisions
}

// applyConsumption performs the idempotent consumption operation for a
// one-shot eating event. Stale targets no-op: the engine may report a
// target another agent already claimed this tick.
func (s *Simulation) applyConsumption(eater uint64, c *Consumption) {
	cfg := config.Cfg()

	switch c.Kind {
	case TargetResource:
		if !s.store.HasResource(c.Target) {
			return
		}
		s.store.Remove(c.Target)
		s.store.UpdateEnergy(eater, cfg.Energy.ResourceGain)
		s.store.IncrementFoodEaten(eater)
		s.collector.RecordResourceConsumed()

	case TargetPrey:
		pos, _, _, _, ok := s.store.Consumer(eater)
		if !ok {
			return
		}
		if !s.store.MarkBeingEaten(c.Target, eater, pos.X, pos.Y, pos.Z) {
			return
		}
		s.store.UpdateEnergy(eater, cfg.Energy.PreyGain)
		s.store.IncrementFoodEaten(eater)
		s.collector.RecordPreyConsumed()
		s.pending = append(s.pending, pendingPredation{
			prey:      c.Target,
			remaining: cfg.Behavior.ConsumeDuration,
		})
	}
}

// advancePredations counts down consumption timers and purges zombies
// whose consumption has completed.
func (s *Simulation) advancePredations(dt float64) {
	kept := s.pending[:0]
	for _, p := range s.pending {
		p.remaining -= dt
		if p.remaining <= 0 {
			s.store.Remove(p.prey)
			s.collector.RecordPredationDeath()
			continue
		}
		kept = append(kept, p)
	}
	s.pending = kept
}

// runJudgment resolves outstanding predations, judges the completed
// day, and appends its snapshot to history.
func (s *Simulation) runJudgment() {
	// Zombies never reach judgment: outstanding predations complete
	// now.
	for _, p := range s.pending {
		s.store.Remove(p.prey)
		s.collector.RecordPredationDeath()
	}
	s.pending = s.pending[:0]

	day := s.phases.Day() - 1
	snap := s.judge.Run(day)
	s.history = append(s.history, snap)

	if err := s.out.WriteDay(snap); err != nil {
		// Telemetry is fire-and-forget; never fail the tick.
		slog.Warn("day snapshot write failed", "day", day, "error", err)
	}

	s.collector.Reset()
	s.behavior.ResetDay()
}

// allAtEdge reports whether every live, non-zombie consumer has
// reported edge arrival.
func (s *Simulation) allAtEdge() bool {
	for _, id := range s.store.ConsumerIDs() {
		_, _, _, cons, ok := s.store.Consumer(id)
		if !ok || cons.BeingEatenBy != 0 {
			continue
		}
		if !s.phases.AtEdge(id) {
			return false
		}
	}
	return true
}

// liveCount returns the number of live, non-zombie consumers.
func (s *Simulation) liveCount() int {
	n := 0
	for _, id := range s.store.ConsumerIDs() {
		_, _, _, cons, ok := s.store.Consumer(id)
		if ok && cons.BeingEatenBy == 0 {
			n++
		}
	}
	return n
}

// Pause freezes countdowns, energy decay, and force application.
func (s *Simulation) Pause() {
	s.paused = true
}

// Resume unfreezes the simulation.
func (s *Simulation) Resume() {
	s.paused = false
}

// Paused reports whether the simulation is paused.
func (s *Simulation) Paused() bool {
	return s.paused
}

// SetSpeed sets the multiplier applied to simulation-time deltas. It
// never scales the sunset wall-clock failsafe.
func (s *Simulation) SetSpeed(multiplier float64) {
	if multiplier < 0 {
		multiplier = 0
	}
	s.speed = multiplier
}

// Speed returns the current speed multiplier.
func (s *Simulation) Speed() float64 {
	return s.speed
}

// SyncPosition mirrors an authoritative post-integration position from
// the physics layer.
func (s *Simulation) SyncPosition(id uint64, x, y, z float64) {
	s.store.SyncPosition(id, x, y, z)
}

// ReportAtEdge records that the movement layer resolved an agent's
// position across the edge threshold.
func (s *Simulation) ReportAtEdge(id uint64) {
	if !s.store.HasConsumer(id) || s.phases.AtEdge(id) {
		return
	}
	s.phases.ReportAtEdge(id)
	s.collector.RecordEdgeArrival()
}

// NearbyConsumerIDs returns consumers within radius r of (x, z).
func (s *Simulation) NearbyConsumerIDs(x, z, r float64) []uint64 {
	return s.store.NearbyConsumers(x, z, r, 0)
}

// NearbyResourceIDs returns resources within radius r of (x, z).
func (s *Simulation) NearbyResourceIDs(x, z, r float64) []uint64 {
	return s.store.NearbyResources(x, z, r)
}

// Consumers returns a read-only projection of the current population in
// stable id order.
func (s *Simulation) Consumers() []ConsumerView {
	ids := s.store.ConsumerIDs()
	views := make([]ConsumerView, 0, len(ids))
	for _, id := range ids {
		pos, g, energy, cons, ok := s.store.Consumer(id)
		if !ok {
			continue
		}
		state, _ := s.behavior.LastState(id)
		views = append(views, ConsumerView{
			ID:         id,
			X:          pos.X,
			Y:          pos.Y,
			Z:          pos.Z,
			Genome:     *g,
			Energy:     energy.Value,
			FoodEaten:  cons.FoodEaten,
			Generation: cons.Generation,
			ParentID:   cons.ParentID,
			BeingEaten: cons.BeingEatenBy != 0,
			State:      state,
		})
	}
	return views
}

// ConsumerCount returns the live consumer count, zombies included.
func (s *Simulation) ConsumerCount() int {
	return s.store.ConsumerCount()
}

// ResourceCount returns the live resource count.
func (s *Simulation) ResourceCount() int {
	return s.store.ResourceCount()
}

// Phase returns the current phase.
func (s *Simulation) Phase() Phase {
	return s.phases.Phase()
}

// Day returns the current day index, starting at 1.
func (s *Simulation) Day() int {
	return s.phases.Day()
}

// Remaining returns the displayed remaining day time in simulation
// seconds.
func (s *Simulation) Remaining() float64 {
	return s.phases.Remaining()
}

// Elapsed returns total simulation time in seconds.
func (s *Simulation) Elapsed() float64 {
	return s.elapsed
}

// History returns the append-only list of day snapshots. Snapshots are
// immutable once appended.
func (s *Simulation) History() []telemetry.DaySnapshot {
	return s.history
}

// Store exposes the entity store for in-package tests and the behavior
// engine.
func (s *Simulation) Store() *EntityStore {
	return s.store
}

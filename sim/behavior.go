package sim

import (
	"math"

	"github.com/pthm-cable/veldt/config"
	"github.com/pthm-cable/veldt/systems"
)

// State identifies a behavior FSM state. States are listed in strict
// priority order: the first whose trigger holds wins, re-evaluated from
// scratch every tick.
type State uint8

const (
	StateFleeing State = iota
	StateReturningTime
	StateEating
	StateHunting
	StateReturningPressure
	StateWandering
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateFleeing:
		return "fleeing"
	case StateReturningTime:
		return "returning"
	case StateEating:
		return "eating"
	case StateHunting:
		return "hunting"
	case StateReturningPressure:
		return "returning-pressure"
	case StateWandering:
		return "wandering"
	default:
		return "unknown"
	}
}

// TargetKind distinguishes what a consumption event refers to.
type TargetKind uint8

const (
	TargetResource TargetKind = iota
	TargetPrey
)

// Consumption is a one-shot eat event. The engine reports it at most
// once per target per encounter; the caller applies the actual state
// mutation exactly once.
type Consumption struct {
	Target uint64
	Kind   TargetKind
}

// Decision is the output of one FSM evaluation for one agent: the
// winning state, the desired steering force for the physics layer, and
// an optional consumption event.
type Decision struct {
	State   State
	Force   systems.Vec2
	Consume *Consumption
}

// BehaviorEngine evaluates the priority FSM once per agent per tick. It
// reads the store and the spatial index and never mutates either; all
// effects flow back through the caller.
type BehaviorEngine struct {
	store *EntityStore

	// lastState labels the most recent decision per agent. Diagnostics
	// only; no behavior reads it.
	lastState map[uint64]State

	// consumed records the last target each agent was credited for, so
	// an eating animation spanning several ticks yields one credit.
	consumed map[uint64]uint64

	scratch []uint64 // reused query buffer
}

// NewBehaviorEngine creates an engine bound to a store.
func NewBehaviorEngine(store *EntityStore) *BehaviorEngine {
	return &BehaviorEngine{
		store:     store,
		lastState: make(map[uint64]State),
		consumed:  make(map[uint64]uint64),
	}
}

// Decide evaluates the FSM for one agent. remaining is the day time
// left in simulation seconds; elapsed is total simulation time, used to
// seed the deterministic wander heading. Zombie and stale agents get a
// zero decision.
func (b *BehaviorEngine) Decide(id uint64, remaining, elapsed float64) Decision {
	pos, g, _, cons, ok := b.store.Consumer(id)
	if !ok || cons.BeingEatenBy != 0 {
		return Decision{State: StateWandering}
	}

	cfg := config.Cfg()
	sense := g.Sense

	var (
		threatID, preyID, resourceID    uint64
		threatDistSq                    = math.MaxFloat64
		preyDistSq                      = math.MaxFloat64
		resourceDistSq                  = math.MaxFloat64
		threatX, threatZ                float64
		targetX, targetZ                float64
	)

	// One pass over the candidate set. The index returns a superset;
	// an AABB check rejects most of it before the exact distance.
	b.scratch = b.store.Index().QueryRadiusInto(b.scratch[:0], pos.X, pos.Z, sense)
	for _, nid := range b.scratch {
		if nid == id {
			continue
		}

		if npos, ng, _, ncons, ok := b.store.Consumer(nid); ok {
			if ncons.BeingEatenBy != 0 {
				continue
			}
			if !systems.WithinAABB(pos.X, pos.Z, npos.X, npos.Z, sense) {
				continue
			}
			distSq := systems.DistSq(pos.X, pos.Z, npos.X, npos.Z)
			if distSq > sense*sense {
				continue
			}
			switch {
			case ng.Size > g.Size*cfg.Behavior.PredationRatio:
				// Ties keep the first-encountered candidate.
				if distSq < threatDistSq {
					threatDistSq = distSq
					threatID = nid
					threatX, threatZ = npos.X, npos.Z
				}
			case g.Size > ng.Size*cfg.Behavior.PredationRatio:
				if distSq < preyDistSq {
					preyDistSq = distSq
					preyID = nid
				}
			}
			continue
		}

		if rx, rz, ok := b.store.ResourcePosition(nid); ok {
			if !systems.WithinAABB(pos.X, pos.Z, rx, rz, sense) {
				continue
			}
			distSq := systems.DistSq(pos.X, pos.Z, rx, rz)
			if distSq > sense*sense {
				continue
			}
			if distSq < resourceDistSq {
				resourceDistSq = distSq
				resourceID = nid
			}
		}
	}

	avoid := systems.BoundaryAvoidance(pos.X, pos.Z,
		cfg.Arena.SoftBoundary, cfg.Arena.Radius, cfg.Behavior.BoundaryForce)

	// 1. Fleeing: a larger consumer in sense range beats everything,
	// even a closer food target.
	if threatID != 0 {
		away := systems.Vec2{X: pos.X - threatX, Z: pos.Z - threatZ}.Normalized()
		force := away.Scale(cfg.Behavior.FleeForce * g.Speed).Add(avoid)
		return b.done(id, Decision{State: StateFleeing, Force: force})
	}

	// 2. Time-based return: head for the edge along the agent's own
	// radial. Boundary avoidance is suppressed so the agent can reach
	// the true perimeter.
	if remaining <= cfg.Phase.ReturnThreshold {
		dir := systems.EdgeDirection(pos.X, pos.Z, cons.SpawnX, cons.SpawnZ)
		dist := math.Sqrt(pos.X*pos.X + pos.Z*pos.Z)
		decay := (cfg.Arena.EdgeRadius - dist) / cfg.Arena.EdgeRadius
		if decay < 0 {
			decay = 0
		}
		force := dir.Scale(cfg.Behavior.ReturnForce * decay)
		return b.done(id, Decision{State: StateReturningTime, Force: force})
	}

	// Pick the nearer of huntable prey and resource.
	targetID := resourceID
	targetDistSq := resourceDistSq
	targetKind := TargetResource
	if preyID != 0 && preyDistSq < resourceDistSq {
		targetID = preyID
		targetDistSq = preyDistSq
		targetKind = TargetPrey
	}

	if targetID != 0 {
		// 3. Eating: close enough; stop and report a one-shot event.
		eatDist := cfg.Behavior.EatDistance
		if targetDistSq <= eatDist*eatDist {
			d := Decision{State: StateEating}
			if b.consumed[id] != targetID {
				b.consumed[id] = targetID
				d.Consume = &Consumption{Target: targetID, Kind: targetKind}
			}
			return b.done(id, d)
		}

		// 4. Hunting: steer toward the target.
		if targetKind == TargetPrey {
			tp, _, _, _, ok := b.store.Consumer(targetID)
			if !ok {
				return b.done(id, Decision{State: StateWandering, Force: avoid})
			}
			targetX, targetZ = tp.X, tp.Z
		} else {
			targetX, targetZ, _ = b.store.ResourcePosition(targetID)
		}
		toward := systems.Vec2{X: targetX - pos.X, Z: targetZ - pos.Z}.Normalized()
		force := toward.Scale(cfg.Behavior.HuntForce * g.Speed).Add(avoid)
		return b.done(id, Decision{State: StateHunting, Force: force})
	}

	wander := systems.WanderDirection(cons.SpawnX, cons.SpawnZ, elapsed).
		Scale(cfg.Behavior.WanderForce)

	// 5. Boundary pressure: nothing to chase and drifting out of the
	// soft boundary.
	dist := math.Sqrt(pos.X*pos.X + pos.Z*pos.Z)
	if dist > cfg.Arena.SoftBoundary {
		return b.done(id, Decision{State: StateReturningPressure, Force: wander.Add(avoid)})
	}

	// 6. Wandering: the default.
	return b.done(id, Decision{State: StateWandering, Force: wander.Add(avoid)})
}

func (b *BehaviorEngine) done(id uint64, d Decision) Decision {
	b.lastState[id] = d.State
	return d
}

// LastState returns the most recent state label for an agent.
func (b *BehaviorEngine) LastState(id uint64) (State, bool) {
	s, ok := b.lastState[id]
	return s, ok
}

// ResetDay clears per-day encounter state after judgment.
func (b *BehaviorEngine) ResetDay() {
	clear(b.lastState)
	clear(b.consumed)
}

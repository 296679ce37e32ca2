// Package components defines ECS components for the simulation.
package components

// Position is an entity's arena position. X and Z span the ground
// plane. Y is the vertical axis owned by the external physics layer and
// is only mirrored here; the core never writes it on its own.
type Position struct {
	X, Y, Z float64
}

// Consumer holds per-agent lineage and lifecycle state.
type Consumer struct {
	ID         uint64
	Generation int    // >= 1, parent's generation + 1 along a lineage
	ParentID   uint64 // 0 = founder (non-owning back-reference)

	// BeingEatenBy names the predator currently consuming this agent,
	// 0 if none. While set, the agent is excluded from behavior and
	// interaction and is pending removal.
	BeingEatenBy uint64

	// FoodEaten counts consumption credits since the last day reset.
	FoodEaten int

	// Spawn anchor; seeds the agent's deterministic wander heading.
	SpawnX, SpawnZ float64
}

// Energy is a consumer's energy reserve, clamped to [0, max] by the
// store on every write.
type Energy struct {
	Value float64
}

// Resource marks a stationary consumable.
type Resource struct {
	ID uint64
}

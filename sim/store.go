// Package sim implements the simulation core: entity store, behavior
// FSM, phase clock, and the end-of-day judgment pass.
package sim

import (
	"math"
	"math/rand"
	"sort"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/veldt/components"
	"github.com/pthm-cable/veldt/config"
	"github.com/pthm-cable/veldt/genome"
	"github.com/pthm-cable/veldt/systems"
)

// EntityStore is the single source of truth for consumer and resource
// state. Entities live in an ECS world (dense archetype storage with
// stable handles); the store adds id-indexed O(1) lookups on top and
// keeps the spatial index in sync through its mutators. Nothing else
// writes entity fields or touches the index directly.
//
// All mutators are silent no-ops when the target id no longer exists.
// An agent can be removed mid-tick (eaten) before another agent's
// queued mutation runs; that is an expected race, not a fault.
type EntityStore struct {
	world *ecs.World
	rng   *rand.Rand

	genomes *genome.Service
	index   *systems.SpatialIndex

	consumerMapper *ecs.Map4[components.Position, genome.Genome, components.Energy, components.Consumer]
	consumerFilter *ecs.Filter4[components.Position, genome.Genome, components.Energy, components.Consumer]
	resourceMapper *ecs.Map2[components.Position, components.Resource]
	resourceFilter *ecs.Filter2[components.Position, components.Resource]

	posMap    *ecs.Map1[components.Position]
	genMap    *ecs.Map1[genome.Genome]
	energyMap *ecs.Map1[components.Energy]
	consMap   *ecs.Map1[components.Consumer]

	consumers map[uint64]ecs.Entity
	resources map[uint64]ecs.Entity
	nextID    uint64
}

// NewEntityStore creates an empty store backed by a fresh ECS world.
func NewEntityStore(rng *rand.Rand, genomes *genome.Service, index *systems.SpatialIndex) *EntityStore {
	world := ecs.NewWorld()

	return &EntityStore{
		world:   world,
		rng:     rng,
		genomes: genomes,
		index:   index,
		consumerMapper: ecs.NewMap4[
			components.Position,
			genome.Genome,
			components.Energy,
			components.Consumer,
		](world),
		consumerFilter: ecs.NewFilter4[
			components.Position,
			genome.Genome,
			components.Energy,
			components.Consumer,
		](world),
		resourceMapper: ecs.NewMap2[
			components.Position,
			components.Resource,
		](world),
		resourceFilter: ecs.NewFilter2[
			components.Position,
			components.Resource,
		](world),
		posMap:    ecs.NewMap1[components.Position](world),
		genMap:    ecs.NewMap1[genome.Genome](world),
		energyMap: ecs.NewMap1[components.Energy](world),
		consMap:   ecs.NewMap1[components.Consumer](world),
		consumers: make(map[uint64]ecs.Entity),
		resources: make(map[uint64]ecs.Entity),
		nextID:    1,
	}
}

// Setup replaces the entire population: consumers spaced along the
// arena edge ring with random genomes, resources scattered within the
// central zone, all counters reset, spatial index rebuilt.
func (s *EntityStore) Setup(consumerCount, resourceCount int) {
	cfg := config.Cfg()

	s.removeAll()

	for i := 0; i < consumerCount; i++ {
		angle := 2 * math.Pi * float64(i) / float64(consumerCount)
		x := math.Cos(angle) * cfg.Arena.EdgeRadius
		z := math.Sin(angle) * cfg.Arena.EdgeRadius
		s.spawnConsumer(s.genomes.NewRandom(s.rng), 1, 0, x, z)
	}

	s.SpawnResourceBatch(resourceCount)
	s.RebuildIndex()
}

// removeAll purges every entity from the world and the index.
func (s *EntityStore) removeAll() {
	for id, e := range s.consumers {
		s.consumerMapper.Remove(e)
		delete(s.consumers, id)
	}
	for id, e := range s.resources {
		s.resourceMapper.Remove(e)
		delete(s.resources, id)
	}
	s.index.Rebuild(nil)
}

// spawnConsumer creates a consumer and registers it with the index.
func (s *EntityStore) spawnConsumer(g genome.Genome, generation int, parentID uint64, x, z float64) uint64 {
	cfg := config.Cfg()

	id := s.nextID
	s.nextID++

	pos := components.Position{X: x, Z: z}
	gen := g
	energy := components.Energy{Value: cfg.Entity.MaxEnergy}
	cons := components.Consumer{
		ID:         id,
		Generation: generation,
		ParentID:   parentID,
		SpawnX:     x,
		SpawnZ:     z,
	}

	e := s.consumerMapper.NewEntity(&pos, &gen, &energy, &cons)
	s.consumers[id] = e
	s.index.Insert(id, x, z)

	return id
}

// spawnResource creates a resource and registers it with the index.
func (s *EntityStore) spawnResource(x, z float64) uint64 {
	id := s.nextID
	s.nextID++

	pos := components.Position{X: x, Z: z}
	res := components.Resource{ID: id}

	e := s.resourceMapper.NewEntity(&pos, &res)
	s.resources[id] = e
	s.index.Insert(id, x, z)

	return id
}

// SpawnResourceBatch scatters count resources at random positions
// within the central zone.
func (s *EntityStore) SpawnResourceBatch(count int) {
	cfg := config.Cfg()
	for i := 0; i < count; i++ {
		// sqrt for uniform area density
		r := cfg.Arena.CenterZone * math.Sqrt(s.rng.Float64())
		angle := s.rng.Float64() * 2 * math.Pi
		s.spawnResource(math.Cos(angle)*r, math.Sin(angle)*r)
	}
}

// ReplaceResources removes every resource and spawns a fresh batch.
func (s *EntityStore) ReplaceResources(count int) {
	for id, e := range s.resources {
		s.resourceMapper.Remove(e)
		s.index.Remove(id)
		delete(s.resources, id)
	}
	s.SpawnResourceBatch(count)
}

// UpdateEnergy adjusts a consumer's energy by delta, clamped to
// [0, max]. No-op for stale ids.
func (s *EntityStore) UpdateEnergy(id uint64, delta float64) {
	e, ok := s.consumers[id]
	if !ok {
		return
	}
	energy := s.energyMap.Get(e)
	if energy == nil {
		return
	}
	max := config.Cfg().Entity.MaxEnergy
	energy.Value += delta
	if energy.Value < 0 {
		energy.Value = 0
	} else if energy.Value > max {
		energy.Value = max
	}
}

// SyncPosition mirrors an authoritative post-integration position from
// the external physics layer and keeps the spatial index consistent.
// No-op for stale ids.
func (s *EntityStore) SyncPosition(id uint64, x, y, z float64) {
	e, ok := s.consumers[id]
	if !ok {
		return
	}
	pos := s.posMap.Get(e)
	if pos == nil {
		return
	}
	pos.X, pos.Y, pos.Z = x, y, z
	s.index.Update(id, x, z)
}

// IncrementFoodEaten adds one consumption credit. No-op for stale ids.
func (s *EntityStore) IncrementFoodEaten(id uint64) {
	e, ok := s.consumers[id]
	if !ok {
		return
	}
	if cons := s.consMap.Get(e); cons != nil {
		cons.FoodEaten++
	}
}

// ResetFoodEaten clears the daily consumption counter. No-op for stale
// ids.
func (s *EntityStore) ResetFoodEaten(id uint64) {
	e, ok := s.consumers[id]
	if !ok {
		return
	}
	if cons := s.consMap.Get(e); cons != nil {
		cons.FoodEaten = 0
	}
}

// MarkBeingEaten claims prey for a predator: the prey becomes a zombie
// excluded from behavior and interaction, pending removal, and its
// position snaps to the predator's mouth. Returns false without effect
// if the prey is stale or already claimed, so only the first predator
// in a tick gets the credit.
func (s *EntityStore) MarkBeingEaten(preyID, predatorID uint64, px, py, pz float64) bool {
	e, ok := s.consumers[preyID]
	if !ok {
		return false
	}
	cons := s.consMap.Get(e)
	if cons == nil || cons.BeingEatenBy != 0 {
		return false
	}
	cons.BeingEatenBy = predatorID

	if pos := s.posMap.Get(e); pos != nil {
		pos.X, pos.Y, pos.Z = px, py, pz
		s.index.Update(preyID, px, pz)
	}
	return true
}

// Remove purges an entity (consumer or resource) from the world and the
// spatial index. No-op for stale ids.
func (s *EntityStore) Remove(id uint64) {
	if e, ok := s.consumers[id]; ok {
		s.consumerMapper.Remove(e)
		delete(s.consumers, id)
		s.index.Remove(id)
		return
	}
	if e, ok := s.resources[id]; ok {
		s.resourceMapper.Remove(e)
		delete(s.resources, id)
		s.index.Remove(id)
	}
}

// Reproduce spawns one offspring of parentID near (px, pz): mutated
// genome, generation = parent + 1, full energy. The spawn offset is
// proportional to the combined parent and child radii so the physics
// layer never resolves an interpenetration on birth. Returns the new id
// and false without effect for stale parents.
func (s *EntityStore) Reproduce(parentID uint64, px, pz float64) (uint64, bool) {
	e, ok := s.consumers[parentID]
	if !ok {
		return 0, false
	}
	parentGenome := s.genMap.Get(e)
	parentCons := s.consMap.Get(e)
	if parentGenome == nil || parentCons == nil {
		return 0, false
	}

	cfg := config.Cfg()
	child := s.genomes.Mutate(s.rng, *parentGenome)

	offset := (parentGenome.Size + child.Size) * cfg.Entity.BodyRadius * 1.1
	angle := s.rng.Float64() * 2 * math.Pi
	x := px + math.Cos(angle)*offset
	z := pz + math.Sin(angle)*offset

	return s.spawnConsumer(child, parentCons.Generation+1, parentID, x, z), true
}

// ResetForNewDay restores a surviving consumer for the next day: full
// energy, a fresh edge position, and a cleared food counter. No-op for
// stale ids.
func (s *EntityStore) ResetForNewDay(id uint64, x, z float64) {
	e, ok := s.consumers[id]
	if !ok {
		return
	}
	if pos := s.posMap.Get(e); pos != nil {
		pos.X, pos.Y, pos.Z = x, 0, z
		s.index.Update(id, x, z)
	}
	if energy := s.energyMap.Get(e); energy != nil {
		energy.Value = config.Cfg().Entity.MaxEnergy
	}
	if cons := s.consMap.Get(e); cons != nil {
		cons.FoodEaten = 0
	}
}

// RandomEdgePoint returns a uniformly random point on the edge ring.
func (s *EntityStore) RandomEdgePoint() (x, z float64) {
	r := config.Cfg().Arena.EdgeRadius
	angle := s.rng.Float64() * 2 * math.Pi
	return math.Cos(angle) * r, math.Sin(angle) * r
}

// RebuildIndex reconstructs the spatial index from the full population
// in one linear pass.
func (s *EntityStore) RebuildIndex() {
	entries := make([]systems.IndexEntry, 0, len(s.consumers)+len(s.resources))

	query := s.consumerFilter.Query()
	for query.Next() {
		pos, _, _, cons := query.Get()
		entries = append(entries, systems.IndexEntry{ID: cons.ID, X: pos.X, Z: pos.Z})
	}
	rq := s.resourceFilter.Query()
	for rq.Next() {
		pos, res := rq.Get()
		entries = append(entries, systems.IndexEntry{ID: res.ID, X: pos.X, Z: pos.Z})
	}

	s.index.Rebuild(entries)
}

// Consumer returns direct views of a consumer's components, or ok=false
// for stale ids. The pointers stay valid until the next structural
// change (spawn or removal).
func (s *EntityStore) Consumer(id uint64) (*components.Position, *genome.Genome, *components.Energy, *components.Consumer, bool) {
	e, ok := s.consumers[id]
	if !ok {
		return nil, nil, nil, nil, false
	}
	pos := s.posMap.Get(e)
	g := s.genMap.Get(e)
	energy := s.energyMap.Get(e)
	cons := s.consMap.Get(e)
	if pos == nil || g == nil || energy == nil || cons == nil {
		return nil, nil, nil, nil, false
	}
	return pos, g, energy, cons, true
}

// ResourcePosition returns a resource's position, or ok=false for stale
// ids.
func (s *EntityStore) ResourcePosition(id uint64) (x, z float64, ok bool) {
	e, ok := s.resources[id]
	if !ok {
		return 0, 0, false
	}
	pos := s.posMap.Get(e)
	if pos == nil {
		return 0, 0, false
	}
	return pos.X, pos.Z, true
}

// HasConsumer reports whether id names a live consumer.
func (s *EntityStore) HasConsumer(id uint64) bool {
	_, ok := s.consumers[id]
	return ok
}

// HasResource reports whether id names a live resource.
func (s *EntityStore) HasResource(id uint64) bool {
	_, ok := s.resources[id]
	return ok
}

// ConsumerCount returns the number of live consumers, zombies included.
func (s *EntityStore) ConsumerCount() int {
	return len(s.consumers)
}

// ResourceCount returns the number of live resources.
func (s *EntityStore) ResourceCount() int {
	return len(s.resources)
}

// ConsumerIDs returns all live consumer ids in ascending id order. Ids
// are assigned monotonically, so this is creation order and stable
// across calls.
func (s *EntityStore) ConsumerIDs() []uint64 {
	ids := make([]uint64, 0, len(s.consumers))
	for id := range s.consumers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// NearbyConsumers returns ids of consumers within radius r of (x, z),
// excluding excludeID, refined by exact distance.
func (s *EntityStore) NearbyConsumers(x, z, r float64, excludeID uint64) []uint64 {
	candidates := s.index.QueryRadius(x, z, r)
	out := make([]uint64, 0, len(candidates))
	for _, id := range candidates {
		if id == excludeID {
			continue
		}
		e, ok := s.consumers[id]
		if !ok {
			continue
		}
		pos := s.posMap.Get(e)
		if pos == nil {
			continue
		}
		if systems.DistSq(x, z, pos.X, pos.Z) <= r*r {
			out = append(out, id)
		}
	}
	return out
}

// NearbyResources returns ids of resources within radius r of (x, z),
// refined by exact distance.
func (s *EntityStore) NearbyResources(x, z, r float64) []uint64 {
	candidates := s.index.QueryRadius(x, z, r)
	out := make([]uint64, 0, len(candidates))
	for _, id := range candidates {
		e, ok := s.resources[id]
		if !ok {
			continue
		}
		pos := s.posMap.Get(e)
		if pos == nil {
			continue
		}
		if systems.DistSq(x, z, pos.X, pos.Z) <= r*r {
			out = append(out, id)
		}
	}
	return out
}

// Index exposes the spatial index for behavior queries. Read-only by
// convention: all mutation goes through the store.
func (s *EntityStore) Index() *systems.SpatialIndex {
	return s.index
}

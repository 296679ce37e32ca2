// Package systems provides simulation helpers with no entity-store
// dependency: the spatial index and steering math.
package systems

import "math"

// CellKey identifies a grid cell by floor-divided coordinates.
type CellKey struct {
	X, Z int
}

// SpatialIndex buckets entity ids into a uniform grid for
// O(1)-amortized maintenance and O(k) radius queries, where k is the
// candidate count in overlapping cells. Query results are a superset of
// the true neighbor set; callers refine by exact distance.
//
// The index holds non-owning ids only. Each indexed entity belongs to
// exactly one cell, and empty cells are pruned on removal.
type SpatialIndex struct {
	cellSize float64
	cells    map[CellKey]map[uint64]struct{}
	keys     map[uint64]CellKey // id -> current cell
}

// IndexEntry is one entity for a bulk Rebuild.
type IndexEntry struct {
	ID   uint64
	X, Z float64
}

// NewSpatialIndex creates an index with the given cell size. Cell size
// should approximate the typical sense radius: larger cells mean fewer
// cells scanned per query but longer candidate lists.
func NewSpatialIndex(cellSize float64) *SpatialIndex {
	return &SpatialIndex{
		cellSize: cellSize,
		cells:    make(map[CellKey]map[uint64]struct{}),
		keys:     make(map[uint64]CellKey),
	}
}

// CellSize returns the configured cell size.
func (s *SpatialIndex) CellSize() float64 {
	return s.cellSize
}

func (s *SpatialIndex) keyFor(x, z float64) CellKey {
	return CellKey{
		X: int(math.Floor(x / s.cellSize)),
		Z: int(math.Floor(z / s.cellSize)),
	}
}

// Insert buckets id into the cell for (x, z). Inserting an id that is
// already present re-buckets it (idempotent overwrite).
func (s *SpatialIndex) Insert(id uint64, x, z float64) {
	key := s.keyFor(x, z)
	if cur, ok := s.keys[id]; ok {
		if cur == key {
			return
		}
		s.removeFromCell(id, cur)
	}
	cell, ok := s.cells[key]
	if !ok {
		cell = make(map[uint64]struct{}, 4)
		s.cells[key] = cell
	}
	cell[id] = struct{}{}
	s.keys[id] = key
}

// Remove deletes id from its cell and prunes the cell if it becomes
// empty. No-op if the id is absent.
func (s *SpatialIndex) Remove(id uint64) {
	key, ok := s.keys[id]
	if !ok {
		return
	}
	s.removeFromCell(id, key)
	delete(s.keys, id)
}

func (s *SpatialIndex) removeFromCell(id uint64, key CellKey) {
	cell, ok := s.cells[key]
	if !ok {
		return
	}
	delete(cell, id)
	if len(cell) == 0 {
		delete(s.cells, key)
	}
}

// Update moves id to the cell for its new position. Position jitter
// within a cell is free: the remove+insert pair only runs when the cell
// key actually changes. No-op if the id is absent.
func (s *SpatialIndex) Update(id uint64, x, z float64) {
	cur, ok := s.keys[id]
	if !ok {
		return
	}
	key := s.keyFor(x, z)
	if key == cur {
		return
	}
	s.removeFromCell(id, cur)
	cell, ok := s.cells[key]
	if !ok {
		cell = make(map[uint64]struct{}, 4)
		s.cells[key] = cell
	}
	cell[id] = struct{}{}
	s.keys[id] = key
}

// QueryRadius returns the ids of all cells within ceil(r/cellSize)
// cell-steps of the cell containing (x, z).
func (s *SpatialIndex) QueryRadius(x, z, r float64) []uint64 {
	return s.QueryRadiusInto(nil, x, z, r)
}

// QueryRadiusInto appends candidates to dst and returns the updated
// slice. Reuse dst across calls to avoid allocations.
func (s *SpatialIndex) QueryRadiusInto(dst []uint64, x, z, r float64) []uint64 {
	steps := int(math.Ceil(r / s.cellSize))
	center := s.keyFor(x, z)

	for dx := -steps; dx <= steps; dx++ {
		for dz := -steps; dz <= steps; dz++ {
			cell, ok := s.cells[CellKey{X: center.X + dx, Z: center.Z + dz}]
			if !ok {
				continue
			}
			for id := range cell {
				dst = append(dst, id)
			}
		}
	}
	return dst
}

// Rebuild clears the index and reinserts every entry in one linear
// pass. Used after a full-population judgment pass, where incremental
// repair would be both slower and easier to get wrong.
func (s *SpatialIndex) Rebuild(entries []IndexEntry) {
	s.cells = make(map[CellKey]map[uint64]struct{}, len(s.cells))
	s.keys = make(map[uint64]CellKey, len(entries))
	for _, e := range entries {
		s.Insert(e.ID, e.X, e.Z)
	}
}

// Len returns the number of indexed entities.
func (s *SpatialIndex) Len() int {
	return len(s.keys)
}

// CellCount returns the number of live (non-pruned) cells.
func (s *SpatialIndex) CellCount() int {
	return len(s.cells)
}

// Contains reports whether id is indexed.
func (s *SpatialIndex) Contains(id uint64) bool {
	_, ok := s.keys[id]
	return ok
}

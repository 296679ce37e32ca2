package systems

import (
	"math"
	"math/rand"
	"testing"
)

func TestInsertAndQuery(t *testing.T) {
	idx := NewSpatialIndex(10)
	idx.Insert(1, 5, 5)
	idx.Insert(2, 15, 5)
	idx.Insert(3, 95, 95)

	got := idx.QueryRadius(5, 5, 12)
	if !containsID(got, 1) || !containsID(got, 2) {
		t.Errorf("query missing close ids: %v", got)
	}
	if containsID(got, 3) {
		t.Errorf("query returned far id: %v", got)
	}
}

func TestInsertIdempotent(t *testing.T) {
	idx := NewSpatialIndex(10)
	idx.Insert(1, 5, 5)
	idx.Insert(1, 5, 5)

	if idx.Len() != 1 {
		t.Fatalf("Len = %d after double insert, want 1", idx.Len())
	}

	// Re-insert at a new position re-buckets rather than duplicating.
	idx.Insert(1, 55, 55)
	if idx.Len() != 1 {
		t.Fatalf("Len = %d after re-insert, want 1", idx.Len())
	}
	if got := idx.QueryRadius(5, 5, 2); len(got) != 0 {
		t.Errorf("stale bucket still holds id: %v", got)
	}
	if got := idx.QueryRadius(55, 55, 2); !containsID(got, 1) {
		t.Errorf("new bucket missing id: %v", got)
	}
}

func TestRemovePrunesEmptyCells(t *testing.T) {
	idx := NewSpatialIndex(10)
	idx.Insert(1, 5, 5)
	idx.Insert(2, 5, 6)

	idx.Remove(1)
	if idx.CellCount() != 1 {
		t.Errorf("CellCount = %d, want 1", idx.CellCount())
	}
	idx.Remove(2)
	if idx.CellCount() != 0 {
		t.Errorf("CellCount = %d after removing all, want 0", idx.CellCount())
	}

	// Removing an absent id is a no-op.
	idx.Remove(99)
	if idx.Len() != 0 {
		t.Errorf("Len = %d, want 0", idx.Len())
	}
}

func TestUpdateOnlyRebucketsOnKeyChange(t *testing.T) {
	idx := NewSpatialIndex(10)
	idx.Insert(1, 5, 5)

	// Jitter within the same cell keeps the same bucket.
	idx.Update(1, 6, 7)
	if got := idx.QueryRadius(5, 5, 2); !containsID(got, 1) {
		t.Errorf("id missing after in-cell jitter: %v", got)
	}

	// Crossing a cell boundary moves the id.
	idx.Update(1, 25, 5)
	if got := idx.QueryRadius(5, 5, 2); containsID(got, 1) {
		t.Errorf("id still in old cell after move: %v", got)
	}
	if got := idx.QueryRadius(25, 5, 2); !containsID(got, 1) {
		t.Errorf("id missing from new cell: %v", got)
	}

	// Updating an absent id is a no-op.
	idx.Update(42, 1, 1)
	if idx.Contains(42) {
		t.Error("update inserted an unknown id")
	}
}

func TestQueryRadiusSuperset(t *testing.T) {
	// Property: the query result is always a superset of the true
	// neighbor set, and exact-distance filtering recovers it.
	rng := rand.New(rand.NewSource(7))
	idx := NewSpatialIndex(8)

	type pt struct{ x, z float64 }
	points := make(map[uint64]pt)
	for id := uint64(1); id <= 300; id++ {
		p := pt{x: rng.Float64()*100 - 50, z: rng.Float64()*100 - 50}
		points[id] = p
		idx.Insert(id, p.x, p.z)
	}

	for trial := 0; trial < 50; trial++ {
		qx := rng.Float64()*100 - 50
		qz := rng.Float64()*100 - 50
		r := rng.Float64()*20 + 1

		got := idx.QueryRadius(qx, qz, r)
		gotSet := make(map[uint64]bool, len(got))
		for _, id := range got {
			gotSet[id] = true
		}

		for id, p := range points {
			if DistSq(qx, qz, p.x, p.z) <= r*r && !gotSet[id] {
				t.Fatalf("trial %d: id %d within radius %.2f but not returned", trial, id, r)
			}
		}

		// Candidates must be within ceil(r/cellSize) cell-steps.
		steps := math.Ceil(r / idx.CellSize())
		maxDelta := (steps + 1) * idx.CellSize()
		for _, id := range got {
			p := points[id]
			if math.Abs(p.x-qx) > maxDelta || math.Abs(p.z-qz) > maxDelta {
				t.Fatalf("trial %d: id %d outside scanned cell range", trial, id)
			}
		}
	}
}

func TestRebuild(t *testing.T) {
	idx := NewSpatialIndex(10)
	idx.Insert(1, 5, 5)
	idx.Insert(2, 15, 15)

	idx.Rebuild([]IndexEntry{
		{ID: 3, X: 5, Z: 5},
		{ID: 4, X: 100, Z: 100},
	})

	if idx.Len() != 2 {
		t.Fatalf("Len = %d after rebuild, want 2", idx.Len())
	}
	if idx.Contains(1) || idx.Contains(2) {
		t.Error("rebuild retained stale ids")
	}
	if !idx.Contains(3) || !idx.Contains(4) {
		t.Error("rebuild dropped new ids")
	}
}

func containsID(ids []uint64, want uint64) bool {
	for _, id := range ids {
		if id == want {
			return true
		}
	}
	return false
}

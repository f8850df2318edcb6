package spatial

import (
	"fmt"
	"math/rand"
	"testing"
)

func TestGridInsertAndSelfQuery(t *testing.T) {
	g := NewGrid(500)
	g.Insert("a", 100, 100, 10)

	// A zero-radius query at the entity's own position must find it.
	got := g.QueryRadius(100, 100, 0)
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("self query returned %v, want [a]", got)
	}
	if got[0].Distance != 0 {
		t.Errorf("self query distance = %v, want 0", got[0].Distance)
	}
}

func TestGridRemoveIdempotent(t *testing.T) {
	g := NewGrid(500)
	g.Insert("a", 50, 50, 5)
	g.Remove("a")
	g.Remove("a") // absent, must be a no-op
	g.Remove("never-inserted")

	if g.Len() != 0 {
		t.Errorf("grid len = %d after removes, want 0", g.Len())
	}
	if got := g.QueryRadius(50, 50, 100); len(got) != 0 {
		t.Errorf("query after remove returned %v", got)
	}
}

func TestGridMoveAcrossCells(t *testing.T) {
	g := NewGrid(500)
	g.Insert("a", 100, 100, 10)
	g.Move("a", 2600, 2600, 10)

	if got := g.QueryRadius(100, 100, 50); len(got) != 0 {
		t.Errorf("entity still found at old position: %v", got)
	}
	got := g.QueryRadius(2600, 2600, 50)
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("entity not found at new position, got %v", got)
	}
}

func TestGridMoveWithinCell(t *testing.T) {
	g := NewGrid(500)
	g.Insert("a", 100, 100, 10)
	// Same bucket, new coordinates. Query must see the new position.
	g.Move("a", 150, 150, 10)

	got := g.QueryRadius(150, 150, 1)
	if len(got) != 1 || got[0].X != 150 || got[0].Y != 150 {
		t.Fatalf("move within cell not reflected, got %v", got)
	}
}

func TestGridIdenticalPositions(t *testing.T) {
	g := NewGrid(500)
	g.Insert("a", 300, 300, 5)
	g.Insert("b", 300, 300, 5)
	g.Insert("c", 300, 300, 5)

	got := g.QueryRadius(300, 300, 10)
	if len(got) != 3 {
		t.Fatalf("stacked entities: got %d results, want 3", len(got))
	}
	seen := map[string]bool{}
	for _, r := range got {
		if seen[r.ID] {
			t.Errorf("duplicate result for %s", r.ID)
		}
		seen[r.ID] = true
	}
}

func TestGridQuerySortedByDistance(t *testing.T) {
	g := NewGrid(500)
	g.Insert("far", 1000, 0, 5)
	g.Insert("near", 100, 0, 5)
	g.Insert("mid", 400, 0, 5)

	got := g.QueryRadius(0, 0, 1500)
	if len(got) != 3 {
		t.Fatalf("got %d results, want 3", len(got))
	}
	want := []string{"near", "mid", "far"}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("result[%d] = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestGridEntityRadiusReachesQuery(t *testing.T) {
	g := NewGrid(100)
	// Entity center is outside the query radius but its own radius
	// closes the gap: 140 away, query radius 100, entity radius 50.
	g.Insert("big", 140, 0, 50)

	got := g.QueryRadius(0, 0, 100)
	if len(got) != 1 {
		t.Fatalf("large entity just outside query center not found: %v", got)
	}
	// With a tiny radius it should fall out of range.
	g.Move("big", 140, 0, 5)
	if got := g.QueryRadius(0, 0, 100); len(got) != 0 {
		t.Errorf("small entity at 140 should not intersect query radius 100: %v", got)
	}
}

func TestGridCellKeyConsistency(t *testing.T) {
	// Drive a batch of entities through random walks and verify every one
	// remains findable from its own position, which fails if a bucket key
	// ever drifts from the stored coordinates.
	g := NewGrid(500)
	rng := rand.New(rand.NewSource(7))

	pos := make(map[string][2]float64)
	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("e%d", i)
		x, y := rng.Float64()*10000, rng.Float64()*10000
		g.Insert(id, x, y, 10)
		pos[id] = [2]float64{x, y}
	}
	for step := 0; step < 200; step++ {
		for id, p := range pos {
			x := p[0] + (rng.Float64()-0.5)*800
			y := p[1] + (rng.Float64()-0.5)*800
			g.Move(id, x, y, 10)
			pos[id] = [2]float64{x, y}
		}
	}
	for id, p := range pos {
		got := g.QueryRadius(p[0], p[1], 0)
		found := false
		for _, r := range got {
			if r.ID == id {
				found = true
			}
		}
		if !found {
			t.Fatalf("entity %s lost after moves (at %v)", id, p)
		}
	}
	if g.Len() != 50 {
		t.Errorf("grid len = %d, want 50", g.Len())
	}
}

// Package spatial provides a uniform-grid neighbor index for circular
// entities. Entities are tracked by a stable string key, never by position,
// so a move only rehashes buckets when the grid key actually changes.
package spatial

import (
	"math"
	"sort"
)

type cellKey struct {
	cx, cy int
}

type entry struct {
	x, y   float64
	radius float64
	cell   cellKey
}

// Result is one neighbor returned from a radius query.
type Result struct {
	ID       string
	X, Y     float64
	Radius   float64
	Distance float64 // from the query center
}

// Grid is a uniform spatial hash. It is not safe for concurrent use; the
// owning room serializes all access.
type Grid struct {
	cellSize float64
	cells    map[cellKey]map[string]struct{}
	entries  map[string]entry
}

// NewGrid creates a grid with the given bucket size in world units.
func NewGrid(cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = 500
	}
	return &Grid{
		cellSize: cellSize,
		cells:    make(map[cellKey]map[string]struct{}),
		entries:  make(map[string]entry),
	}
}

func (g *Grid) keyFor(x, y float64) cellKey {
	return cellKey{
		cx: int(math.Floor(x / g.cellSize)),
		cy: int(math.Floor(y / g.cellSize)),
	}
}

// Insert adds or repositions an entity. Inserting an existing id behaves
// like Move with a radius update.
func (g *Grid) Insert(id string, x, y, radius float64) {
	if old, ok := g.entries[id]; ok {
		g.update(id, old, x, y, radius)
		return
	}
	k := g.keyFor(x, y)
	g.entries[id] = entry{x: x, y: y, radius: radius, cell: k}
	g.addToCell(k, id)
}

// Remove deletes an entity. Removing an absent id is a no-op.
func (g *Grid) Remove(id string) {
	e, ok := g.entries[id]
	if !ok {
		return
	}
	delete(g.entries, id)
	g.removeFromCell(e.cell, id)
}

// Move updates an entity's position and radius, rehashing its bucket only
// when the grid key changed. Moving an untracked id inserts it.
func (g *Grid) Move(id string, x, y, radius float64) {
	old, ok := g.entries[id]
	if !ok {
		g.Insert(id, x, y, radius)
		return
	}
	g.update(id, old, x, y, radius)
}

func (g *Grid) update(id string, old entry, x, y, radius float64) {
	k := g.keyFor(x, y)
	g.entries[id] = entry{x: x, y: y, radius: radius, cell: k}
	if k != old.cell {
		g.removeFromCell(old.cell, id)
		g.addToCell(k, id)
	}
}

func (g *Grid) addToCell(k cellKey, id string) {
	c, ok := g.cells[k]
	if !ok {
		c = make(map[string]struct{})
		g.cells[k] = c
	}
	c[id] = struct{}{}
}

func (g *Grid) removeFromCell(k cellKey, id string) {
	c, ok := g.cells[k]
	if !ok {
		return
	}
	delete(c, id)
	if len(c) == 0 {
		delete(g.cells, k)
	}
}

// Len returns the number of tracked entities.
func (g *Grid) Len() int {
	return len(g.entries)
}

// Contains reports whether an id is tracked.
func (g *Grid) Contains(id string) bool {
	_, ok := g.entries[id]
	return ok
}

// QueryRadius returns every tracked entity whose own circle intersects the
// query circle, sorted by ascending distance from the query center. Cost is
// bounded by the cells the query circle spans, not by total entity count.
func (g *Grid) QueryRadius(x, y, radius float64) []Result {
	// Expand the scan by one cell so entities whose radius reaches into
	// the query circle from a neighboring bucket are not missed.
	minK := g.keyFor(x-radius-g.cellSize, y-radius-g.cellSize)
	maxK := g.keyFor(x+radius+g.cellSize, y+radius+g.cellSize)

	var out []Result
	for cx := minK.cx; cx <= maxK.cx; cx++ {
		for cy := minK.cy; cy <= maxK.cy; cy++ {
			cell, ok := g.cells[cellKey{cx, cy}]
			if !ok {
				continue
			}
			for id := range cell {
				e := g.entries[id]
				d := math.Hypot(e.x-x, e.y-y)
				if d <= radius+e.radius {
					out = append(out, Result{
						ID: id, X: e.x, Y: e.y,
						Radius: e.radius, Distance: d,
					})
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out
}

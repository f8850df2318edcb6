package game

// The map splits into four square zones, gated by how much value a player
// carries. Higher-stake players unlock richer quadrants; nobody can cross
// into a zone their stake does not cover.
//
//	1 Bronze  | 2 Silver
//	----------+----------
//	3 Gold    | 4 Diamond

// ZoneInfo describes one quadrant.
type ZoneInfo struct {
	ID        int
	Name      string
	Color     string
	MinSOL    float64 // entry threshold in whole SOL
	MinLamports uint64
	MinX, MinY float64
	MaxX, MaxY float64
}

// Zones lists the four quadrants of a 10000x10000 map in ID order.
var Zones = []ZoneInfo{
	{ID: 1, Name: "Bronze", Color: "#CD7F32", MinSOL: 0, MinLamports: 0,
		MinX: 0, MinY: 0, MaxX: 5000, MaxY: 5000},
	{ID: 2, Name: "Silver", Color: "#C0C0C0", MinSOL: 1, MinLamports: 1 * LamportsPerSOL,
		MinX: 5000, MinY: 0, MaxX: 10000, MaxY: 5000},
	{ID: 3, Name: "Gold", Color: "#FFD700", MinSOL: 5, MinLamports: 5 * LamportsPerSOL,
		MinX: 0, MinY: 5000, MaxX: 5000, MaxY: 10000},
	{ID: 4, Name: "Diamond", Color: "#B9F2FF", MinSOL: 10, MinLamports: 10 * LamportsPerSOL,
		MinX: 5000, MinY: 5000, MaxX: 10000, MaxY: 10000},
}

// ZoneAt returns the zone ID containing a point. Points on the shared
// boundary belong to the higher-numbered side.
func ZoneAt(x, y float64) int {
	if x < 5000 {
		if y < 5000 {
			return 1
		}
		return 3
	}
	if y < 5000 {
		return 2
	}
	return 4
}

// ZoneByID looks up a quadrant; IDs outside 1-4 return the Bronze zone.
func ZoneByID(id int) ZoneInfo {
	if id < 1 || id > 4 {
		return Zones[0]
	}
	return Zones[id-1]
}

// ZoneForValue returns the richest zone a stake of the given lamports may
// enter.
func ZoneForValue(lamports uint64) ZoneInfo {
	best := Zones[0]
	for _, z := range Zones[1:] {
		if lamports >= z.MinLamports {
			best = z
		}
	}
	return best
}

// CanEnter reports whether a stake covers the zone's entry threshold.
func CanEnter(zone int, lamports uint64) bool {
	return lamports >= ZoneByID(zone).MinLamports
}

// ClampToZone confines a point to a zone's interior, keeping a circle of
// the given radius fully inside the quadrant.
func ClampToZone(zone int, x, y, radius float64) (float64, float64) {
	z := ZoneByID(zone)
	return Clamp(x, z.MinX+radius, z.MaxX-radius), Clamp(y, z.MinY+radius, z.MaxY-radius)
}

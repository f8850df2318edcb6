package game

import "testing"

func TestZoneAt(t *testing.T) {
	cases := []struct {
		x, y float64
		want int
	}{
		{100, 100, 1},
		{4999, 4999, 1},
		{5000, 0, 2},
		{9999, 4999, 2},
		{0, 5000, 3},
		{4999, 9999, 3},
		{5000, 5000, 4},
		{9999, 9999, 4},
	}
	for _, c := range cases {
		if got := ZoneAt(c.x, c.y); got != c.want {
			t.Errorf("ZoneAt(%v, %v) = %d, want %d", c.x, c.y, got, c.want)
		}
	}
}

func TestZoneForValue(t *testing.T) {
	cases := []struct {
		lamports uint64
		want     int
	}{
		{0, 1},
		{LamportsPerSOL - 1, 1},
		{LamportsPerSOL, 2},
		{4 * LamportsPerSOL, 2},
		{5 * LamportsPerSOL, 3},
		{10 * LamportsPerSOL, 4},
		{250 * LamportsPerSOL, 4},
	}
	for _, c := range cases {
		if got := ZoneForValue(c.lamports).ID; got != c.want {
			t.Errorf("ZoneForValue(%d) = zone %d, want %d", c.lamports, got, c.want)
		}
	}
}

func TestCanEnter(t *testing.T) {
	// One SOL unlocks Silver but not Gold.
	if !CanEnter(2, LamportsPerSOL) {
		t.Error("1 SOL should enter Silver")
	}
	if CanEnter(3, LamportsPerSOL) {
		t.Error("1 SOL should not enter Gold")
	}
	// Everyone enters Bronze.
	if !CanEnter(1, 0) {
		t.Error("zero stake should enter Bronze")
	}
}

func TestClampToZone(t *testing.T) {
	// A point pushed beyond the Silver quadrant snaps back inside it.
	x, y := ClampToZone(2, 12000, -50, 10)
	if x != 10000-10 || y != 10 {
		t.Errorf("ClampToZone = (%v, %v), want (9990, 10)", x, y)
	}
	// Interior points pass through untouched.
	x, y = ClampToZone(1, 2500, 2500, 10)
	if x != 2500 || y != 2500 {
		t.Errorf("interior point moved to (%v, %v)", x, y)
	}
}

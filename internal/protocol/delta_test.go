package protocol

import (
	"testing"

	"sol-arena/internal/game"
)

func baseView() game.PlayerView {
	return game.PlayerView{
		Self: game.SelfView{
			Address: "viewer", X: 100, Y: 200, Radius: 12.62, Mass: 20,
			Alive: true, SolValue: 1_000_000_000, SolDisplay: "1",
			Zone: 2, CanCashOut: true,
		},
		Players: []game.NearbyPlayer{
			{Address: "bob", X: 300, Y: 300, Radius: 15, Mass: 28, Alive: true, Zone: 2},
		},
		Food: []game.NearbyFood{
			{ID: "food_1", X: 150, Y: 150, Radius: 5},
			{ID: "food_2", X: 180, Y: 120, Radius: 6},
		},
		Leaderboard: []game.LeaderboardEntry{
			{Address: "bob", SolValue: 2_000_000_000, Rank: 1},
		},
		Summary: game.RoomSummary{RoomID: 1, PlayerCount: 2, FoodCount: 2, TotalSOL: "3"},
	}
}

func TestDeltaFirstFrameIsFull(t *testing.T) {
	c := NewCompressor()
	d := c.Compute("viewer", baseView())
	if d == nil || d.Full == nil {
		t.Fatal("first frame must be a full payload")
	}
	if d.Full.Self.Address != "viewer" {
		t.Error("full payload lost the view")
	}
}

func TestDeltaUnchangedViewReturnsNil(t *testing.T) {
	c := NewCompressor()
	c.Compute("viewer", baseView())
	if d := c.Compute("viewer", baseView()); d != nil {
		t.Errorf("unchanged view produced %+v", d)
	}
}

func TestDeltaSelfFieldChanges(t *testing.T) {
	c := NewCompressor()
	c.Compute("viewer", baseView())

	v := baseView()
	v.Self.X = 110
	v.Self.Mass = 25
	d := c.Compute("viewer", v)
	if d == nil || d.Full != nil {
		t.Fatal("expected an incremental delta")
	}
	if d.Self["x"] != 110.0 || d.Self["mass"] != 25.0 {
		t.Errorf("self delta = %v", d.Self)
	}
	if _, present := d.Self["y"]; present {
		t.Error("unchanged field leaked into the delta")
	}
}

func TestDeltaValueChangeCarriesDisplay(t *testing.T) {
	c := NewCompressor()
	c.Compute("viewer", baseView())

	v := baseView()
	v.Self.SolValue = 2_000_000_000
	v.Self.SolDisplay = "2"
	d := c.Compute("viewer", v)
	if d.Self["solValue"] != uint64(2_000_000_000) || d.Self["solDisplay"] != "2" {
		t.Errorf("value delta = %v", d.Self)
	}
}

func TestDeltaPlayerAddUpdateRemove(t *testing.T) {
	c := NewCompressor()
	c.Compute("viewer", baseView())

	v := baseView()
	v.Players = []game.NearbyPlayer{
		{Address: "bob", X: 320, Y: 300, Radius: 15, Mass: 28, Alive: true, Zone: 2}, // moved
		{Address: "carol", X: 400, Y: 400, Radius: 13, Mass: 22, Alive: true, Zone: 2},
	}
	d := c.Compute("viewer", v)
	if len(d.PlayersAdded) != 1 || d.PlayersAdded[0].Address != "carol" {
		t.Errorf("added = %+v", d.PlayersAdded)
	}
	if len(d.PlayersUpdated) != 1 || d.PlayersUpdated[0].Address != "bob" {
		t.Errorf("updated = %+v", d.PlayersUpdated)
	}

	// Next frame bob is gone.
	v2 := v
	v2.Players = v.Players[1:]
	d = c.Compute("viewer", v2)
	if len(d.PlayersRemoved) != 1 || d.PlayersRemoved[0] != "bob" {
		t.Errorf("removed = %v", d.PlayersRemoved)
	}
	if len(d.PlayersUpdated) != 0 {
		t.Errorf("carol unchanged but listed updated: %+v", d.PlayersUpdated)
	}
}

func TestDeltaFoodPresenceOnly(t *testing.T) {
	c := NewCompressor()
	c.Compute("viewer", baseView())

	v := baseView()
	// food_1 eaten, food_3 spawned, food_2 drifted (ignored).
	v.Food = []game.NearbyFood{
		{ID: "food_2", X: 999, Y: 999, Radius: 6},
		{ID: "food_3", X: 210, Y: 210, Radius: 4},
	}
	d := c.Compute("viewer", v)
	if len(d.FoodAdded) != 1 || d.FoodAdded[0].ID != "food_3" {
		t.Errorf("food added = %+v", d.FoodAdded)
	}
	if len(d.FoodRemoved) != 1 || d.FoodRemoved[0] != "food_1" {
		t.Errorf("food removed = %v", d.FoodRemoved)
	}
}

func TestDeltaLeaderboardComparison(t *testing.T) {
	c := NewCompressor()
	c.Compute("viewer", baseView())

	// Same ids, changed value: must re-send.
	v := baseView()
	v.Leaderboard[0].SolValue = 3_000_000_000
	d := c.Compute("viewer", v)
	if d == nil || d.Leaderboard == nil {
		t.Fatal("value change should refresh the leaderboard")
	}

	// Mass-only change on an entry does not count.
	v2 := v
	v2.Leaderboard = []game.LeaderboardEntry{
		{Address: "bob", SolValue: 3_000_000_000, Mass: 99, Rank: 1},
	}
	if d := c.Compute("viewer", v2); d != nil && d.Leaderboard != nil {
		t.Error("id+value sequence unchanged, leaderboard should not re-send")
	}
}

func TestDeltaSummaryChange(t *testing.T) {
	c := NewCompressor()
	c.Compute("viewer", baseView())

	v := baseView()
	v.Summary.PlayerCount = 3
	d := c.Compute("viewer", v)
	if d.Summary == nil || d.Summary.PlayerCount != 3 {
		t.Errorf("summary delta = %+v", d.Summary)
	}
	// Food count alone is not a tracked summary field.
	v2 := v
	v2.Summary.FoodCount = 500
	if d := c.Compute("viewer", v2); d != nil && d.Summary != nil {
		t.Error("food count change should not re-send the summary")
	}
}

func TestDeltaForgetForcesFull(t *testing.T) {
	c := NewCompressor()
	c.Compute("viewer", baseView())
	c.Forget("viewer")
	d := c.Compute("viewer", baseView())
	if d == nil || d.Full == nil {
		t.Error("forgotten viewer should get a full frame")
	}
}

func TestDeltaIndependentViewers(t *testing.T) {
	c := NewCompressor()
	c.Compute("a", baseView())
	d := c.Compute("b", baseView())
	if d == nil || d.Full == nil {
		t.Error("second viewer's first frame must be full")
	}
}

package protocol

import (
	"sync"

	"sol-arena/internal/game"
)

// Delta is the minimal difference between a viewer's previous view and the
// current one. A nil Delta from Compute means nothing worth sending.
type Delta struct {
	// Full carries the entire view on a viewer's first frame.
	Full *game.PlayerView `json:"full,omitempty"`

	Self           map[string]interface{}  `json:"self,omitempty"`
	PlayersAdded   []game.NearbyPlayer     `json:"playersAdded,omitempty"`
	PlayersUpdated []game.NearbyPlayer     `json:"playersUpdated,omitempty"`
	PlayersRemoved []string                `json:"playersRemoved,omitempty"`
	FoodAdded      []game.NearbyFood       `json:"foodAdded,omitempty"`
	FoodRemoved    []string                `json:"foodRemoved,omitempty"`
	Leaderboard    []game.LeaderboardEntry `json:"leaderboard,omitempty"`
	Summary        *game.RoomSummary       `json:"summary,omitempty"`
}

func (d *Delta) empty() bool {
	return d.Self == nil &&
		len(d.PlayersAdded) == 0 && len(d.PlayersUpdated) == 0 && len(d.PlayersRemoved) == 0 &&
		len(d.FoodAdded) == 0 && len(d.FoodRemoved) == 0 &&
		d.Leaderboard == nil && d.Summary == nil
}

// Compressor tracks the last view sent to each viewer. Views handed to
// Compute are already fresh per-broadcast snapshots, so caching them is the
// structural copy; the compressor never aliases live entity state.
type Compressor struct {
	mu   sync.Mutex
	prev map[string]*game.PlayerView
}

// NewCompressor creates an empty compressor.
func NewCompressor() *Compressor {
	return &Compressor{prev: make(map[string]*game.PlayerView)}
}

// Forget drops a viewer's cached view, forcing a full frame on their next
// Compute. Call on disconnect.
func (c *Compressor) Forget(viewer string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.prev, viewer)
}

// Compute diffs the view against the viewer's last one. The first call for
// a viewer returns a full payload; an unchanged view returns nil.
func (c *Compressor) Compute(viewer string, view game.PlayerView) *Delta {
	c.mu.Lock()
	defer c.mu.Unlock()

	old, ok := c.prev[viewer]
	c.prev[viewer] = &view
	if !ok {
		return &Delta{Full: &view}
	}

	d := &Delta{}
	d.Self = diffSelf(old.Self, view.Self)
	diffPlayers(d, old.Players, view.Players)
	diffFood(d, old.Food, view.Food)
	if leaderboardChanged(old.Leaderboard, view.Leaderboard) {
		d.Leaderboard = view.Leaderboard
		if d.Leaderboard == nil {
			d.Leaderboard = []game.LeaderboardEntry{}
		}
	}
	if old.Summary.PlayerCount != view.Summary.PlayerCount || old.Summary.TotalSOL != view.Summary.TotalSOL {
		s := view.Summary
		d.Summary = &s
	}

	if d.empty() {
		return nil
	}
	return d
}

// diffSelf compares the tracked own-state fields one by one and returns a
// map of only the changed ones, nil when nothing moved.
func diffSelf(old, cur game.SelfView) map[string]interface{} {
	out := make(map[string]interface{})
	if cur.X != old.X {
		out["x"] = cur.X
	}
	if cur.Y != old.Y {
		out["y"] = cur.Y
	}
	if cur.Radius != old.Radius {
		out["radius"] = cur.Radius
	}
	if cur.Mass != old.Mass {
		out["mass"] = cur.Mass
	}
	if cur.Alive != old.Alive {
		out["alive"] = cur.Alive
	}
	if cur.Boosting != old.Boosting {
		out["boosting"] = cur.Boosting
	}
	if cur.SolValue != old.SolValue {
		out["solValue"] = cur.SolValue
		out["solDisplay"] = cur.SolDisplay
	}
	if cur.Zone != old.Zone {
		out["zone"] = cur.Zone
	}
	if cur.CanAdvance != old.CanAdvance {
		out["canAdvance"] = cur.CanAdvance
	}
	if cur.CanCashOut != old.CanCashOut {
		out["canCashOut"] = cur.CanCashOut
	}
	if cur.CombatRemaining != old.CombatRemaining {
		out["combatRemaining"] = cur.CombatRemaining
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// diffPlayers computes added, updated and removed nearby players by id.
// Updated only includes entries whose tracked fields actually differ.
func diffPlayers(d *Delta, old, cur []game.NearbyPlayer) {
	prev := make(map[string]game.NearbyPlayer, len(old))
	for _, p := range old {
		prev[p.Address] = p
	}
	seen := make(map[string]struct{}, len(cur))
	for _, p := range cur {
		seen[p.Address] = struct{}{}
		o, existed := prev[p.Address]
		switch {
		case !existed:
			d.PlayersAdded = append(d.PlayersAdded, p)
		case o != p:
			d.PlayersUpdated = append(d.PlayersUpdated, p)
		}
	}
	for _, p := range old {
		if _, still := seen[p.Address]; !still {
			d.PlayersRemoved = append(d.PlayersRemoved, p.Address)
		}
	}
}

// diffFood compares food by presence only. Pellet fields are not diffed;
// clients animate drifting pellets locally.
func diffFood(d *Delta, old, cur []game.NearbyFood) {
	prev := make(map[string]struct{}, len(old))
	for _, f := range old {
		prev[f.ID] = struct{}{}
	}
	seen := make(map[string]struct{}, len(cur))
	for _, f := range cur {
		seen[f.ID] = struct{}{}
		if _, existed := prev[f.ID]; !existed {
			d.FoodAdded = append(d.FoodAdded, f)
		}
	}
	for _, f := range old {
		if _, still := seen[f.ID]; !still {
			d.FoodRemoved = append(d.FoodRemoved, f.ID)
		}
	}
}

// leaderboardChanged compares the id+value sequence.
func leaderboardChanged(old, cur []game.LeaderboardEntry) bool {
	if len(old) != len(cur) {
		return true
	}
	for i := range cur {
		if cur[i].Address != old[i].Address || cur[i].SolValue != old[i].SolValue {
			return true
		}
	}
	return false
}

package game

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// View tuning.
const (
	ViewRadiusBase   = 600.0 // minimum visibility range
	ViewRadiusFactor = 3.0   // extra range per unit of player radius
)

// ViewRadius grows with the player so large players see proportionally
// further.
func ViewRadius(playerRadius float64) float64 {
	return ViewRadiusBase + ViewRadiusFactor*playerRadius
}

// SolDisplay formats lamports as a SOL string with four fixed decimals,
// matching what clients print next to player names.
func SolDisplay(lamports uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -9).StringFixed(4)
}

// SelfView is the viewer's own state as sent to their client.
type SelfView struct {
	Address         string  `json:"address"`
	Name            string  `json:"name"`
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	Radius          float64 `json:"radius"`
	Mass            float64 `json:"mass"`
	Alive           bool    `json:"alive"`
	Boosting        bool    `json:"boosting"`
	SolValue        uint64  `json:"solValue"`
	SolDisplay      string  `json:"solDisplay"`
	Zone            int     `json:"zone"`
	CanAdvance      bool    `json:"canAdvance"`
	CanCashOut      bool    `json:"canCashOut"`
	CombatRemaining float64 `json:"combatRemaining"` // seconds, 0 if clear
	Color           string  `json:"color"`
}

// NearbyPlayer is another player inside the viewer's range.
type NearbyPlayer struct {
	Address  string  `json:"address"`
	Name     string  `json:"name"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Radius   float64 `json:"radius"`
	Mass     float64 `json:"mass"`
	Alive    bool    `json:"alive"`
	Boosting bool    `json:"boosting"`
	SolValue uint64  `json:"solValue"`
	Zone     int     `json:"zone"`
	Color    string  `json:"color"`
}

// NearbyFood is a pellet inside the viewer's range.
type NearbyFood struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
	Color  string  `json:"color"`
}

// Barrier is a zone boundary segment crossing the viewer's range. Clients
// render it as a wall with the far side's entry price.
type Barrier struct {
	Vertical bool    `json:"vertical"` // x = Position if true, else y = Position
	Position float64 `json:"position"`
	From     float64 `json:"from"`
	To       float64 `json:"to"`
	FarZone  int     `json:"farZone"` // zone on the far side of the wall
	MinSOL   float64 `json:"minSol"`  // entry threshold of the far zone
	CanPass  bool    `json:"canPass"` // viewer's value covers the far side
}

// ZoneStat summarizes one quadrant for the room view.
type ZoneStat struct {
	Zone       int    `json:"zone"`
	Name       string `json:"name"`
	Players    int    `json:"players"`
	Food       int    `json:"food"`
	TotalValue uint64 `json:"totalValue"`
	TotalSOL   string `json:"totalSol"`
}

// RoomSummary is the lightweight room header included in every view.
type RoomSummary struct {
	RoomID      int    `json:"roomId"`
	PlayerCount int    `json:"playerCount"`
	FoodCount   int    `json:"foodCount"`
	TotalValue  uint64 `json:"totalValue"`
	TotalSOL    string `json:"totalSol"`
	MapSize     float64 `json:"mapSize"`
}

// PlayerView is the complete per-viewer projection assembled each broadcast
// tick. It is a derived snapshot, never shared entity state.
type PlayerView struct {
	Self        SelfView           `json:"self"`
	Players     []NearbyPlayer     `json:"players"`
	Food        []NearbyFood       `json:"food"`
	Barriers    []Barrier          `json:"barriers"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	Summary     RoomSummary        `json:"summary"`
}

// GameState is the room-wide projection used by spectators and the pool's
// stats endpoints.
type GameState struct {
	Summary     RoomSummary        `json:"summary"`
	Zones       []ZoneStat         `json:"zones"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	Uptime      float64            `json:"uptimeSeconds"`
	TickAvg     float64            `json:"tickAvgMs"`
	TickWorst   float64            `json:"tickWorstMs"`
}

func selfView(p *Player, now time.Time) SelfView {
	remaining := p.CombatUntil.Sub(now).Seconds()
	if remaining < 0 {
		remaining = 0
	}
	return SelfView{
		Address:         p.ID,
		Name:            p.Name,
		X:               p.X,
		Y:               p.Y,
		Radius:          p.Radius(),
		Mass:            p.Mass,
		Alive:           p.Alive,
		Boosting:        p.Boosting(now),
		SolValue:        p.SolValue,
		SolDisplay:      SolDisplay(p.SolValue),
		Zone:            p.Zone,
		CanAdvance:      p.CanAdvance,
		CanCashOut:      p.Alive && !p.InCombat(now),
		CombatRemaining: remaining,
		Color:           p.Color.Hex(),
	}
}

// visibleBarriers returns the zone boundary segments that cross a circle of
// the given radius around (x, y). The two interior walls sit on the map's
// center lines.
func visibleBarriers(x, y, radius, mapSize float64, lamports uint64) []Barrier {
	mid := mapSize / 2
	var out []Barrier
	if x-radius <= mid && x+radius >= mid {
		// Sample a point just across the wall from the viewer's side.
		farX := mid + 1
		if x >= mid {
			farX = mid - 1
		}
		farZone := ZoneAt(farX, y)
		out = append(out, Barrier{
			Vertical: true,
			Position: mid,
			From:     Clamp(y-radius, 0, mapSize),
			To:       Clamp(y+radius, 0, mapSize),
			FarZone:  farZone,
			MinSOL:   ZoneByID(farZone).MinSOL,
			CanPass:  CanEnter(farZone, lamports),
		})
	}
	if y-radius <= mid && y+radius >= mid {
		farY := mid + 1
		if y >= mid {
			farY = mid - 1
		}
		farZone := ZoneAt(x, farY)
		out = append(out, Barrier{
			Vertical: false,
			Position: mid,
			From:     Clamp(x-radius, 0, mapSize),
			To:       Clamp(x+radius, 0, mapSize),
			FarZone:  farZone,
			MinSOL:   ZoneByID(farZone).MinSOL,
			CanPass:  CanEnter(farZone, lamports),
		})
	}
	return out
}

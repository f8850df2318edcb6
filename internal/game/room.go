package game

import (
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"sol-arena/internal/game/spatial"
)

// Spawn search tuning.
const (
	SpawnMargin        = 200.0 // inset from zone edges
	SpawnAttempts      = 50
	SpawnClearanceSelf = 4.0 // clearance = otherRadius + 4x own radius
	SpawnClearanceBig  = 3.0 // 3x the other's radius when it is much larger
	SpawnBigThreshold  = 1.5 // "much larger" cutoff

	// CorpsePellets caps how many pellets a dead player sheds.
	CorpsePellets = 10
)

var (
	ErrRoomFull     = errors.New("room is full")
	ErrNoSuchPlayer = errors.New("player not in room")
	ErrInCombat     = errors.New("cannot cash out while in combat")
)

// RoomConfig carries the per-room tuning the pool hands down from the
// application config.
type RoomConfig struct {
	MapSize      float64
	GridCellSize float64
	TickRate     int
	PerfSample   int // sample and publish perf stats every N ticks
	MaxPlayers   int

	FoodBasePerZone   int
	FoodPerPlayerMult int
	FoodMaxPerZone    int
	FoodMaxTotal      int
	FoodMinMass       float64
	FoodMaxMass       float64
	FoodSpawnMargin   float64
}

// DefaultRoomConfig mirrors the production tuning.
func DefaultRoomConfig() RoomConfig {
	return RoomConfig{
		MapSize:      10000,
		GridCellSize: 500,
		TickRate:     60,
		PerfSample:   60,
		MaxPlayers:   50,

		FoodBasePerZone:   300,
		FoodPerPlayerMult: 50,
		FoodMaxPerZone:    1000,
		FoodMaxTotal:      4000,
		FoodMinMass:       10,
		FoodMaxMass:       25,
		FoodSpawnMargin:   100,
	}
}

// Room is one independent simulation. A mutex serializes the two mutation
// sources, the periodic tick and asynchronous input, so no tick ever
// overlaps itself or an input application.
type Room struct {
	ID  int
	cfg RoomConfig

	mu      sync.RWMutex
	rng     *rand.Rand
	players map[string]*Player
	food    map[string]*Food

	playerGrid *spatial.Grid
	foodGrid   *spatial.Grid

	sink        *EventSink
	leaderboard []LeaderboardEntry

	running  bool
	ticker   *time.Ticker
	stopChan chan struct{}

	startedAt  time.Time
	lastActive time.Time // last moment the room held at least one player

	tickCount      uint64
	totalJoined    uint64
	totalCashedOut uint64

	// Perf window, reset every PerfSample ticks.
	perfSum   time.Duration
	perfCount int
	perfLast  time.Duration
	perfWorst time.Duration
	avgTickMs float64
	worstMs   float64
}

// NewRoom creates a stopped room.
func NewRoom(id int, cfg RoomConfig, sink *EventSink) *Room {
	return &Room{
		ID:         id,
		cfg:        cfg,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano() + int64(id))),
		players:    make(map[string]*Player),
		food:       make(map[string]*Food),
		playerGrid: spatial.NewGrid(cfg.GridCellSize),
		foodGrid:   spatial.NewGrid(cfg.GridCellSize),
		sink:       sink,
		stopChan:   make(chan struct{}),
		lastActive: time.Now(),
	}
}

// Start seeds initial food and arms the tick scheduler. Starting a running
// room is a no-op.
func (r *Room) Start() {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.startedAt = time.Now()
	r.stopChan = make(chan struct{})
	if len(r.food) == 0 {
		for _, z := range Zones {
			for i := 0; i < r.cfg.FoodBasePerZone; i++ {
				r.addFood(NewFood(r.rng, z.ID, r.cfg.FoodMinMass, r.cfg.FoodMaxMass, r.cfg.FoodSpawnMargin))
			}
		}
	}
	r.ticker = time.NewTicker(time.Second / time.Duration(r.cfg.TickRate))
	ticker, stop := r.ticker, r.stopChan
	r.mu.Unlock()

	go func() {
		for {
			select {
			case <-ticker.C:
				r.tick()
			case <-stop:
				return
			}
		}
	}()
	log.Printf("🏟️ Room %d started at %d TPS with %d food", r.ID, r.cfg.TickRate, r.cfg.FoodBasePerZone*len(Zones))
}

// Stop cancels future ticks. Entity state is left as-is; rooms are reusable.
func (r *Room) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.running = false
	r.ticker.Stop()
	close(r.stopChan)
	log.Printf("🛑 Room %d stopped after %d ticks", r.ID, r.tickCount)
}

// tick runs one fixed-period simulation step. Phases run in a fixed order
// so each phase sees the previous phase's grid updates already applied.
func (r *Room) tick() {
	start := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()

	now := start
	dt := 1.0 / float64(r.cfg.TickRate)
	r.tickCount++

	r.stepMovement(now, dt)
	r.stepFood()
	r.stepCollisions(now)
	r.stepReplenish()
	r.stepLeaderboard()
	r.samplePerf(time.Since(start))
}

// stepMovement advances every living player, enforcing map bounds and zone
// gating. A move into a zone the player's value does not cover is reverted
// and clamped back into the previous zone, an edge bounce rather than a
// teleport.
func (r *Room) stepMovement(now time.Time, dt float64) {
	for _, p := range r.players {
		if !p.Alive {
			continue
		}
		oldX, oldY := p.X, p.Y

		p.Step(now)
		p.Decay(dt)

		radius := p.Radius()
		p.X = Clamp(p.X, radius, r.cfg.MapSize-radius)
		p.Y = Clamp(p.Y, radius, r.cfg.MapSize-radius)

		newZone := ZoneAt(p.X, p.Y)
		if newZone != p.Zone {
			if CanEnter(newZone, p.SolValue) {
				p.Zone = newZone
			} else {
				p.X, p.Y = oldX, oldY
				p.X, p.Y = ClampToZone(p.Zone, p.X, p.Y, radius)
			}
		}
		p.RefreshAdvance()
		r.playerGrid.Move(p.ID, p.X, p.Y, radius)
	}
}

// stepFood integrates pellets still carrying ejection velocity.
func (r *Room) stepFood() {
	for _, f := range r.food {
		if f.Step() {
			r.foodGrid.Move(f.ID, f.X, f.Y, f.Radius())
		}
	}
}

// stepCollisions resolves player-food and player-player contacts. Any touch
// between players flags combat on both sides; consumption additionally
// requires deep overlap and a clear size advantage.
func (r *Room) stepCollisions(now time.Time) {
	for _, p := range r.players {
		if !p.Alive {
			continue
		}
		radius := p.Radius()
		for _, hit := range r.foodGrid.QueryRadius(p.X, p.Y, radius) {
			f, ok := r.food[hit.ID]
			if !ok {
				continue
			}
			// Pellet center inside the player's circle, player larger.
			// No eat margin here; that rule is for player-on-player.
			if hit.Distance < radius && radius > f.Radius() {
				p.EatFood(f)
				radius = p.Radius()
				r.removeFood(f.ID)
				metricFoodEaten.Inc()
			}
		}
		r.playerGrid.Move(p.ID, p.X, p.Y, radius)
	}

	for _, p := range r.players {
		if !p.Alive {
			continue
		}
		pr := p.Radius()
		for _, hit := range r.playerGrid.QueryRadius(p.X, p.Y, pr) {
			if hit.ID == p.ID {
				continue
			}
			other, ok := r.players[hit.ID]
			if !ok || !other.Alive || !p.Alive {
				continue
			}
			// Query intersection already guarantees a touch.
			p.MarkCombat(now)
			other.MarkCombat(now)

			if !EatOverlap(p.X, p.Y, p.Radius(), other.X, other.Y, other.Radius(), EatCoverage) {
				continue
			}
			var eater, eaten *Player
			switch {
			case CanEat(p.Radius(), other.Radius()):
				eater, eaten = p, other
			case CanEat(other.Radius(), p.Radius()):
				eater, eaten = other, p
			default:
				continue
			}
			r.resolveEat(eater, eaten, now)
		}
	}
}

// resolveEat transfers the full value, sheds the corpse as food, removes
// the eaten player in the same step, and reports the settlement.
func (r *Room) resolveEat(eater, eaten *Player, now time.Time) {
	transferred := eater.EatPlayer(eaten)
	r.shedCorpse(eaten)
	r.playerGrid.Remove(eaten.ID)
	delete(r.players, eaten.ID)
	eater.RefreshAdvance()

	metricPlayersEaten.Inc()
	r.sink.Emit(SettlementEvent{
		Type:      EventTypeEat,
		RoomID:    r.ID,
		Eater:     eater.ID,
		Eaten:     eaten.ID,
		Lamports:  transferred,
		Timestamp: now,
	})
	log.Printf("🍽️ Room %d: %s ate %s for %s SOL", r.ID, eater.Name, eaten.Name, SolDisplay(transferred))
}

// shedCorpse converts a dead player's mass into a ring of drifting pellets.
func (r *Room) shedCorpse(p *Player) {
	n := int(p.Mass / r.cfg.FoodMinMass)
	if n > CorpsePellets {
		n = CorpsePellets
	}
	if n < 1 {
		n = 1
	}
	each := p.Mass / float64(n)
	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / float64(n)
		speed := 2 + r.rng.Float64()*4
		f := NewEjectedFood(r.rng, p.Zone,
			p.X+math.Cos(angle)*p.Radius(), p.Y+math.Sin(angle)*p.Radius(),
			math.Cos(angle)*speed, math.Sin(angle)*speed, each)
		if len(r.food) < r.cfg.FoodMaxTotal {
			r.addFood(f)
		}
	}
}

// stepReplenish tops zones up toward a population that grows with the log
// of the zone's live player count.
func (r *Room) stepReplenish() {
	if len(r.food) >= r.cfg.FoodMaxTotal {
		return
	}
	playersPerZone := make(map[int]int)
	for _, p := range r.players {
		if p.Alive {
			playersPerZone[p.Zone]++
		}
	}
	foodPerZone := make(map[int]int)
	for _, f := range r.food {
		foodPerZone[f.Zone]++
	}
	for _, z := range Zones {
		target := r.cfg.FoodBasePerZone +
			int(math.Log2(float64(playersPerZone[z.ID]+1))*float64(r.cfg.FoodPerPlayerMult))
		if target > r.cfg.FoodMaxPerZone {
			target = r.cfg.FoodMaxPerZone
		}
		for foodPerZone[z.ID] < target && len(r.food) < r.cfg.FoodMaxTotal {
			r.addFood(NewFood(r.rng, z.ID, r.cfg.FoodMinMass, r.cfg.FoodMaxMass, r.cfg.FoodSpawnMargin))
			foodPerZone[z.ID]++
		}
	}
}

func (r *Room) stepLeaderboard() {
	r.leaderboard = ComputeLeaderboard(r.players)
}

// samplePerf accumulates tick timings and publishes a window every
// PerfSample ticks, counted in ticks rather than wall clock so scheduler
// jitter cannot skip or double-fire a sample.
func (r *Room) samplePerf(d time.Duration) {
	r.perfLast = d
	r.perfSum += d
	r.perfCount++
	if d > r.perfWorst {
		r.perfWorst = d
	}
	if r.tickCount%uint64(r.cfg.PerfSample) != 0 {
		return
	}
	r.avgTickMs = float64(r.perfSum.Microseconds()) / float64(r.perfCount) / 1000
	r.worstMs = float64(r.perfWorst.Microseconds()) / 1000
	r.perfSum, r.perfCount, r.perfWorst = 0, 0, 0

	metricTickDuration.Observe(d.Seconds())
	label := strconv.Itoa(r.ID)
	metricPlayersPerRoom.WithLabelValues(label).Set(float64(len(r.players)))
	metricFoodPerRoom.WithLabelValues(label).Set(float64(len(r.food)))
	metricRoomValue.WithLabelValues(label).Set(float64(r.totalValueLocked()))
}

func (r *Room) addFood(f *Food) {
	r.food[f.ID] = f
	r.foodGrid.Insert(f.ID, f.X, f.Y, f.Radius())
}

func (r *Room) removeFood(id string) {
	delete(r.food, id)
	r.foodGrid.Remove(id)
}

// totalValueLocked sums live player value. Caller holds the lock.
func (r *Room) totalValueLocked() uint64 {
	var total uint64
	for _, p := range r.players {
		total += p.SolValue
	}
	return total
}

// ─────────────────────────────────────────────
// Player lifecycle
// ─────────────────────────────────────────────

// AddPlayer joins a player with the given stake. The starting zone is the
// richest one the stake unlocks, and the spawn point keeps clearance from
// nearby live players.
func (r *Room) AddPlayer(address, name string, stake uint64) (*Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.players) >= r.cfg.MaxPlayers {
		return nil, ErrRoomFull
	}
	if _, exists := r.players[address]; exists {
		return nil, fmt.Errorf("player %s already in room %d", address, r.ID)
	}

	zone := ZoneForValue(stake).ID
	x, y := r.findSafeSpawn(zone)
	p := NewPlayer(r.rng, address, name, x, y, stake, zone)
	p.RefreshAdvance()

	r.players[address] = p
	r.playerGrid.Insert(address, x, y, p.Radius())
	r.totalJoined++
	r.lastActive = time.Now()

	log.Printf("👤 Room %d: %s joined zone %d (%s) with %s SOL", r.ID, name, zone, ZoneByID(zone).Name, SolDisplay(stake))
	return p, nil
}

// findSafeSpawn searches for a point keeping clearance from live players,
// falling back to an unchecked random point after the attempt budget.
func (r *Room) findSafeSpawn(zone int) (float64, float64) {
	z := ZoneByID(zone)
	selfRadius := RadiusForMass(BaseMass, PlayerRadiusFactor)

	randPoint := func() (float64, float64) {
		return z.MinX + SpawnMargin + r.rng.Float64()*(z.MaxX-z.MinX-2*SpawnMargin),
			z.MinY + SpawnMargin + r.rng.Float64()*(z.MaxY-z.MinY-2*SpawnMargin)
	}

	for attempt := 0; attempt < SpawnAttempts; attempt++ {
		x, y := randPoint()
		safe := true
		for _, hit := range r.playerGrid.QueryRadius(x, y, ViewRadiusBase) {
			clearance := hit.Radius + SpawnClearanceSelf*selfRadius
			if hit.Radius > SpawnBigThreshold*selfRadius {
				clearance = SpawnClearanceBig * hit.Radius
			}
			if hit.Distance < clearance {
				safe = false
				break
			}
		}
		if safe {
			return x, y
		}
	}
	return randPoint()
}

// CashOut removes a player voluntarily, carrying their value out. Fails
// while the combat cooldown runs.
func (r *Room) CashOut(address string) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[address]
	if !ok {
		return 0, ErrNoSuchPlayer
	}
	now := time.Now()
	if p.InCombat(now) {
		return 0, ErrInCombat
	}
	value := p.SolValue
	r.dropPlayer(address)
	r.totalCashedOut++

	metricCashOuts.Inc()
	r.sink.Emit(SettlementEvent{
		Type:      EventTypeCashOut,
		RoomID:    r.ID,
		Eaten:     address,
		Lamports:  value,
		Timestamp: now,
	})
	log.Printf("💰 Room %d: %s cashed out %s SOL", r.ID, p.Name, SolDisplay(value))
	return value, nil
}

// RemovePlayer drops a player without settlement, used for disconnects.
// Their mass is shed as food; their value leaves with them.
func (r *Room) RemovePlayer(address string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.players[address]; ok {
		r.shedCorpse(p)
		r.dropPlayer(address)
		log.Printf("👋 Room %d: %s left", r.ID, p.Name)
	}
}

// dropPlayer removes the record and its index entry. Caller holds the lock.
func (r *Room) dropPlayer(address string) {
	delete(r.players, address)
	r.playerGrid.Remove(address)
	if len(r.players) == 0 {
		r.lastActive = time.Now()
	}
}

// ─────────────────────────────────────────────
// Input
// ─────────────────────────────────────────────

// Input is one client control frame. Split and Eject are one-shot triggers.
type Input struct {
	TargetX *float64 `json:"targetX,omitempty"`
	TargetY *float64 `json:"targetY,omitempty"`
	Split   bool     `json:"split,omitempty"`
	Eject   bool     `json:"eject,omitempty"`
}

// HandleInput applies a control frame immediately under the room lock.
// Input for a player no longer present is dropped silently.
func (r *Room) HandleInput(address string, in Input) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[address]
	if !ok || !p.Alive {
		return
	}
	now := time.Now()
	if in.TargetX != nil && in.TargetY != nil {
		p.SetTarget(*in.TargetX, *in.TargetY)
	}
	if in.Split {
		p.StartBoost(now)
	}
	if in.Eject {
		if x, y, vx, vy, ok := p.TryEject(now); ok && len(r.food) < r.cfg.FoodMaxTotal {
			f := NewEjectedFood(r.rng, p.Zone, x, y, vx, vy, EjectMassCost)
			r.addFood(f)
		}
	}
}

// ─────────────────────────────────────────────
// Views
// ─────────────────────────────────────────────

// GetPlayerView assembles a viewer's projection from a consistent read of
// room state. It never mutates the simulation.
func (r *Room) GetPlayerView(address string) (PlayerView, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.players[address]
	if !ok {
		return PlayerView{}, false
	}
	now := time.Now()
	viewRadius := ViewRadius(p.Radius())

	var nearby []NearbyPlayer
	for _, hit := range r.playerGrid.QueryRadius(p.X, p.Y, viewRadius) {
		if hit.ID == address {
			continue
		}
		o, ok := r.players[hit.ID]
		if !ok {
			continue
		}
		nearby = append(nearby, NearbyPlayer{
			Address:  o.ID,
			Name:     o.Name,
			X:        o.X,
			Y:        o.Y,
			Radius:   o.Radius(),
			Mass:     o.Mass,
			Alive:    o.Alive,
			Boosting: o.Boosting(now),
			SolValue: o.SolValue,
			Zone:     o.Zone,
			Color:    o.Color.Hex(),
		})
	}

	var pellets []NearbyFood
	for _, hit := range r.foodGrid.QueryRadius(p.X, p.Y, viewRadius) {
		f, ok := r.food[hit.ID]
		if !ok {
			continue
		}
		pellets = append(pellets, NearbyFood{
			ID:     f.ID,
			X:      f.X,
			Y:      f.Y,
			Radius: f.Radius(),
			Color:  f.Color.Hex(),
		})
	}

	return PlayerView{
		Self:        selfView(p, now),
		Players:     nearby,
		Food:        pellets,
		Barriers:    visibleBarriers(p.X, p.Y, viewRadius, r.cfg.MapSize, p.SolValue),
		Leaderboard: r.leaderboard,
		Summary:     r.summaryLocked(),
	}, true
}

// GetGameState returns the room-wide projection.
func (r *Room) GetGameState() GameState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	zones := make([]ZoneStat, 0, len(Zones))
	for _, z := range Zones {
		s := ZoneStat{Zone: z.ID, Name: z.Name}
		for _, p := range r.players {
			if p.Alive && p.Zone == z.ID {
				s.Players++
				s.TotalValue += p.SolValue
			}
		}
		for _, f := range r.food {
			if f.Zone == z.ID {
				s.Food++
			}
		}
		s.TotalSOL = SolDisplay(s.TotalValue)
		zones = append(zones, s)
	}
	var uptime float64
	if r.running {
		uptime = time.Since(r.startedAt).Seconds()
	}
	return GameState{
		Summary:     r.summaryLocked(),
		Zones:       zones,
		Leaderboard: r.leaderboard,
		Uptime:      uptime,
		TickAvg:     r.avgTickMs,
		TickWorst:   r.worstMs,
	}
}

func (r *Room) summaryLocked() RoomSummary {
	total := r.totalValueLocked()
	return RoomSummary{
		RoomID:      r.ID,
		PlayerCount: len(r.players),
		FoodCount:   len(r.food),
		TotalValue:  total,
		TotalSOL:    SolDisplay(total),
		MapSize:     r.cfg.MapSize,
	}
}

// Leaderboard returns the last computed top ten.
func (r *Room) Leaderboard() []LeaderboardEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]LeaderboardEntry, len(r.leaderboard))
	copy(out, r.leaderboard)
	return out
}

// ─────────────────────────────────────────────
// Pool accessors
// ─────────────────────────────────────────────

// PlayerCount returns the number of players currently in the room.
func (r *Room) PlayerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

// Capacity returns the configured player cap.
func (r *Room) Capacity() int {
	return r.cfg.MaxPlayers
}

// IdleSince reports the last moment the room held a player; the pool uses
// it to recycle long-empty rooms.
func (r *Room) IdleSince() (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastActive, len(r.players) == 0
}

// Stats returns lifetime counters for the pool's aggregate view.
func (r *Room) Stats() (joined, cashedOut uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.totalJoined, r.totalCashedOut
}

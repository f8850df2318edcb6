package game

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mr-tron/base58"
)

var (
	ErrPoolFull       = errors.New("all rooms are full")
	ErrAlreadyPlaying = errors.New("player already assigned to a room")
	ErrBadAddress     = errors.New("invalid wallet address")
)

// nearFullFraction marks the fill level past which a room is de-prioritized
// for new joins.
const nearFullFraction = 0.9

// PoolConfig tunes the scheduler.
type PoolConfig struct {
	Rooms         int
	RoomConfig    RoomConfig
	IdleRecycle   time.Duration // recycle rooms empty longer than this
	StatsInterval time.Duration
}

// DefaultPoolConfig mirrors the production tuning.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		Rooms:         20,
		RoomConfig:    DefaultRoomConfig(),
		IdleRecycle:   30 * time.Minute,
		StatsInterval: time.Minute,
	}
}

// PoolStats aggregates counters across all rooms.
type PoolStats struct {
	Rooms          int                `json:"rooms"`
	Players        int                `json:"players"`
	Food           int                `json:"food"`
	TotalValue     uint64             `json:"totalValue"`
	TotalSOL       string             `json:"totalSol"`
	TotalJoined    uint64             `json:"totalJoined"`
	TotalCashedOut uint64             `json:"totalCashedOut"`
	Leaderboard    []LeaderboardEntry `json:"leaderboard"`
}

// Pool owns a fixed set of rooms and the player-to-room assignment table.
// Rooms tick independently; the pool only routes and supervises.
type Pool struct {
	cfg  PoolConfig
	sink *EventSink

	mu      sync.RWMutex
	rooms   []*Room
	byAddr  map[string]*Room
	running bool

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewPool creates the fixed room set, stopped.
func NewPool(cfg PoolConfig, sink *EventSink) *Pool {
	p := &Pool{
		cfg:      cfg,
		sink:     sink,
		byAddr:   make(map[string]*Room),
		stopChan: make(chan struct{}),
	}
	for i := 0; i < cfg.Rooms; i++ {
		p.rooms = append(p.rooms, NewRoom(i, cfg.RoomConfig, sink))
	}
	return p
}

// Start launches every room and the supervision loop.
func (p *Pool) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	rooms := p.rooms
	p.mu.Unlock()

	for _, r := range rooms {
		r.Start()
	}
	p.wg.Add(1)
	go p.supervise()
	log.Printf("🏊 Room pool started: %d rooms x %d players", p.cfg.Rooms, p.cfg.RoomConfig.MaxPlayers)
}

// Stop halts every room and the supervision loop.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopChan)
	rooms := p.rooms
	p.mu.Unlock()

	for _, r := range rooms {
		r.Stop()
	}
	p.wg.Wait()
	log.Printf("🛑 Room pool stopped")
}

// supervise recycles idle rooms and logs aggregate stats on fixed
// intervals.
func (p *Pool) supervise() {
	defer p.wg.Done()
	recycle := time.NewTicker(p.cfg.StatsInterval)
	defer recycle.Stop()
	for {
		select {
		case <-recycle.C:
			p.recycleIdle()
			p.logStats()
		case <-p.stopChan:
			return
		}
	}
}

// recycleIdle stops and recreates rooms that have sat empty past the
// timeout, clearing accumulated food and counters.
func (p *Pool) recycleIdle() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, r := range p.rooms {
		since, empty := r.IdleSince()
		if !empty || time.Since(since) < p.cfg.IdleRecycle {
			continue
		}
		r.Stop()
		fresh := NewRoom(r.ID, p.cfg.RoomConfig, p.sink)
		fresh.Start()
		p.rooms[i] = fresh
		metricRoomRecycles.Inc()
		log.Printf("♻️ Room %d recycled after %s idle", r.ID, time.Since(since).Round(time.Second))
	}
}

func (p *Pool) logStats() {
	s := p.Stats()
	log.Printf("📊 Pool: %d players, %d food, %s SOL locked, %d joined / %d cashed out lifetime",
		s.Players, s.Food, s.TotalSOL, s.TotalJoined, s.TotalCashedOut)
}

// scoreRoom implements the join heuristic: empty rooms score zero so
// partially-filled rooms always win over them, and near-full rooms fall
// behind mid-fill ones.
func scoreRoom(count, capacity int) int {
	if count == 0 || count >= capacity {
		return 0
	}
	if float64(count)/float64(capacity) < nearFullFraction {
		return count
	}
	return 100 - count
}

// Join assigns a player to the best-scoring room, falling back to the
// first room with capacity when every candidate scores zero. The address
// must be valid base58.
func (p *Pool) Join(address, name string, stake uint64) (*Room, *Player, error) {
	if _, err := base58.Decode(address); err != nil || address == "" {
		return nil, nil, fmt.Errorf("%w: %q", ErrBadAddress, address)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, taken := p.byAddr[address]; taken {
		return nil, nil, ErrAlreadyPlaying
	}

	var best *Room
	bestScore := 0
	for _, r := range p.rooms {
		if s := scoreRoom(r.PlayerCount(), r.Capacity()); s > bestScore {
			best, bestScore = r, s
		}
	}
	if best == nil {
		for _, r := range p.rooms {
			if r.PlayerCount() < r.Capacity() {
				best = r
				break
			}
		}
	}
	if best == nil {
		return nil, nil, ErrPoolFull
	}

	player, err := best.AddPlayer(address, name, stake)
	if err != nil {
		return nil, nil, err
	}
	p.byAddr[address] = best
	return best, player, nil
}

// RoomOf returns the player's assigned room.
func (p *Pool) RoomOf(address string) (*Room, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	r, ok := p.byAddr[address]
	return r, ok
}

// CashOut removes the player cleanly, returning their value. The
// assignment is released even if the player died mid-call.
func (p *Pool) CashOut(address string) (uint64, error) {
	p.mu.Lock()
	r, ok := p.byAddr[address]
	if !ok {
		p.mu.Unlock()
		return 0, ErrNoSuchPlayer
	}
	p.mu.Unlock()

	value, err := r.CashOut(address)
	if err == ErrInCombat {
		return 0, err
	}
	p.mu.Lock()
	delete(p.byAddr, address)
	p.mu.Unlock()
	return value, err
}

// Leave drops a disconnected player without settlement.
func (p *Pool) Leave(address string) {
	p.mu.Lock()
	r, ok := p.byAddr[address]
	delete(p.byAddr, address)
	p.mu.Unlock()
	if ok {
		r.RemovePlayer(address)
	}
}

// Release clears a stale assignment for a player a room already dropped,
// such as one eaten during a tick.
func (p *Pool) Release(address string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if r, ok := p.byAddr[address]; ok && r.PlayerCount() >= 0 {
		if _, alive := r.GetPlayerView(address); !alive {
			delete(p.byAddr, address)
		}
	}
}

// HandleInput routes a control frame to the player's room. Frames for
// unassigned players are dropped.
func (p *Pool) HandleInput(address string, in Input) {
	if r, ok := p.RoomOf(address); ok {
		r.HandleInput(address, in)
	}
}

// GetPlayerView routes a view request to the player's room.
func (p *Pool) GetPlayerView(address string) (PlayerView, bool) {
	r, ok := p.RoomOf(address)
	if !ok {
		return PlayerView{}, false
	}
	return r.GetPlayerView(address)
}

// Rooms returns a snapshot of the current room set.
func (p *Pool) Rooms() []*Room {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Room, len(p.rooms))
	copy(out, p.rooms)
	return out
}

// Stats aggregates counters and the global top ten across all rooms.
func (p *Pool) Stats() PoolStats {
	rooms := p.Rooms()
	s := PoolStats{Rooms: len(rooms)}
	boards := make([][]LeaderboardEntry, 0, len(rooms))
	for _, r := range rooms {
		st := r.GetGameState()
		s.Players += st.Summary.PlayerCount
		s.Food += st.Summary.FoodCount
		s.TotalValue += st.Summary.TotalValue
		joined, cashed := r.Stats()
		s.TotalJoined += joined
		s.TotalCashedOut += cashed
		boards = append(boards, r.Leaderboard())
	}
	s.TotalSOL = SolDisplay(s.TotalValue)
	s.Leaderboard = MergeLeaderboards(boards...)
	return s
}

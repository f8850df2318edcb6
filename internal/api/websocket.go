package api

import (
	"log"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/time/rate"

	"sol-arena/internal/game"
	"sol-arena/internal/protocol"
)

// HubConfig carries the WebSocket tuning from the server config.
type HubConfig struct {
	Pool            *game.Pool
	BroadcastRate   int // state frames per second per session
	MaxConnsTotal   int
	MaxConnsPerIP   int
	InputsPerSecond float64
	InputBurst      int
	AllowedOrigins  []string
}

// Hub owns all live WebSocket sessions. Each player session pairs a read
// pump (inputs) with a write pump (delta frames at the broadcast cadence);
// the simulation itself never touches a socket.
type Hub struct {
	cfg        HubConfig
	compressor *protocol.Compressor
	connCount  atomic.Int32
	ipLimiter  *ConnLimiter
	upgrader   websocket.Upgrader
}

// NewHub creates the session hub.
func NewHub(cfg HubConfig) *Hub {
	if cfg.BroadcastRate <= 0 {
		cfg.BroadcastRate = 20
	}
	h := &Hub{
		cfg:        cfg,
		compressor: protocol.NewCompressor(),
		ipLimiter:  NewConnLimiter(cfg.MaxConnsPerIP),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || IsAllowedOrigin(origin, cfg.AllowedOrigins) {
				return true
			}
			log.Printf("⚠️ WebSocket rejected from origin: %s", origin)
			recordRejected("origin")
			return false
		},
	}
	return h
}

// ClientCount returns the number of live sessions.
func (h *Hub) ClientCount() int {
	return int(h.connCount.Load())
}

// outboundFrame is the msgpack envelope written to player sessions.
type outboundFrame struct {
	Type  string          `msgpack:"type"` // "state", "eliminated"
	Delta *protocol.Delta `msgpack:"delta,omitempty"`
}

// HandlePlayerWS upgrades a player connection, joins them to the pool, and
// runs their session until disconnect or elimination.
//
// Query parameters: address (base58 wallet), name, stake (lamports),
// format=binary for fixed-layout packets instead of msgpack deltas.
func (h *Hub) HandlePlayerWS(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)
	if int(h.connCount.Load()) >= h.cfg.MaxConnsTotal {
		recordRejected("ws_total_limit")
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}
	if !h.ipLimiter.Allow(ip) {
		recordRejected("ws_ip_limit")
		http.Error(w, "too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	q := r.URL.Query()
	address := q.Get("address")
	name := q.Get("name")
	if name == "" {
		name = "anonymous"
	}
	stake, _ := strconv.ParseUint(q.Get("stake"), 10, 64)
	binaryMode := q.Get("format") == "binary"

	_, _, err := h.cfg.Pool.Join(address, name, stake)
	if err != nil {
		h.ipLimiter.Release(ip)
		recordRejected("join")
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.cfg.Pool.Leave(address)
		h.ipLimiter.Release(ip)
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	h.connCount.Add(1)
	wsConnectionsActive.Set(float64(h.connCount.Load()))
	log.Printf("📱 %s connected from %s (%d total)", name, ip, h.connCount.Load())

	done := make(chan struct{})
	go h.writePump(conn, address, binaryMode, done)
	h.readPump(conn, address)
	close(done)

	// The room may have dropped the player already (eaten); Leave is a
	// no-op then, but the assignment still needs clearing.
	if _, alive := h.cfg.Pool.GetPlayerView(address); alive {
		h.cfg.Pool.Leave(address)
	} else {
		h.cfg.Pool.Release(address)
	}
	h.compressor.Forget(address)
	h.ipLimiter.Release(ip)
	h.connCount.Add(-1)
	wsConnectionsActive.Set(float64(h.connCount.Load()))
	conn.Close()
	log.Printf("📱 %s disconnected (%d remaining)", name, h.connCount.Load())
}

// readPump applies input frames, throttled per session.
func (h *Hub) readPump(conn *websocket.Conn, address string) {
	limiter := rate.NewLimiter(rate.Limit(h.cfg.InputsPerSecond), h.cfg.InputBurst)
	conn.SetReadLimit(512)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var in game.Input
		if err := msgpack.Unmarshal(data, &in); err != nil {
			continue
		}
		if !limiter.Allow() {
			wsInputsDropped.Inc()
			continue
		}
		h.cfg.Pool.HandleInput(address, in)
	}
}

// writePump ships state frames at the broadcast cadence, decoupled from
// the 60Hz simulation. A frame is skipped entirely when the delta
// compressor reports nothing changed.
func (h *Hub) writePump(conn *websocket.Conn, address string, binaryMode bool, done <-chan struct{}) {
	ticker := time.NewTicker(time.Second / time.Duration(h.cfg.BroadcastRate))
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			view, ok := h.cfg.Pool.GetPlayerView(address)
			if !ok {
				// Eaten mid-session: tell the client and hang up.
				if data, err := msgpack.Marshal(outboundFrame{Type: "eliminated"}); err == nil {
					conn.WriteMessage(websocket.BinaryMessage, data)
				}
				conn.Close()
				return
			}
			if binaryMode {
				for _, frame := range binaryFrames(view) {
					if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
						return
					}
					wsFramesSent.Inc()
				}
				continue
			}
			delta := h.compressor.Compute(address, view)
			if delta == nil {
				continue
			}
			data, err := msgpack.Marshal(outboundFrame{Type: "state", Delta: delta})
			if err != nil {
				continue
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				return
			}
			wsFramesSent.Inc()
		}
	}
}

// binaryFrames renders a view as fixed-layout packets: own state, nearby
// entities, the room header, and the leaderboard.
func binaryFrames(view game.PlayerView) [][]byte {
	frames := make([][]byte, 0, 4)

	self := view.Self
	sr, sg, sb := hexRGB(self.Color)
	frames = append(frames, protocol.EncodePlayerUpdate(protocol.PlayerUpdate{
		IDHash: protocol.HashID(self.Address),
		X:      float32(self.X), Y: float32(self.Y),
		Radius: float32(self.Radius), Mass: float32(self.Mass),
		R: sr, G: sg, B: sb,
		Alive: self.Alive, Boosting: self.Boosting, IsSelf: true,
	}))

	batch := protocol.EntityBatch{}
	for _, p := range view.Players {
		r8, g8, b8 := hexRGB(p.Color)
		batch.Entities = append(batch.Entities, protocol.BatchEntity{
			IDHash: protocol.HashID(p.Address),
			X:      float32(p.X), Y: float32(p.Y), Radius: float32(p.Radius),
			Type:       protocol.EntityPlayer,
			ColorIndex: packRGB(r8, g8, b8),
		})
	}
	for _, f := range view.Food {
		r8, g8, b8 := hexRGB(f.Color)
		batch.Entities = append(batch.Entities, protocol.BatchEntity{
			IDHash: protocol.HashID(f.ID),
			X:      float32(f.X), Y: float32(f.Y), Radius: float32(f.Radius),
			Type:       protocol.EntityFood,
			ColorIndex: packRGB(r8, g8, b8),
		})
	}
	frames = append(frames, protocol.EncodeEntityBatch(batch))

	frames = append(frames, protocol.EncodeGameState(protocol.GameStatePacket{
		RoomID:      uint16(view.Summary.RoomID),
		PlayerCount: uint16(view.Summary.PlayerCount),
		FoodCount:   uint16(view.Summary.FoodCount),
		TotalValue:  view.Summary.TotalValue,
		MapSize:     uint32(view.Summary.MapSize),
	}))

	lb := protocol.LeaderboardPacket{}
	for _, e := range view.Leaderboard {
		lb.Entries = append(lb.Entries, protocol.LeaderboardWireEntry{
			IDHash: protocol.HashID(e.Address),
			Value:  e.SolValue,
			Zone:   uint8(e.Zone),
			Rank:   uint8(e.Rank),
		})
	}
	frames = append(frames, protocol.EncodeLeaderboard(lb))
	return frames
}

// hexRGB parses a #RRGGBB display string back to components.
func hexRGB(hex string) (r, g, b uint8) {
	c, err := game.ParseHex(hex)
	if err != nil {
		return 255, 255, 255
	}
	return c.RGB()
}

func packRGB(r, g, b uint8) uint32 {
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// HandleSpectateWS streams room-wide binary frames to a viewer who is not
// playing. Query parameter: room.
func (h *Hub) HandleSpectateWS(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)
	if !h.ipLimiter.Allow(ip) {
		recordRejected("ws_ip_limit")
		http.Error(w, "too many connections from your IP", http.StatusTooManyRequests)
		return
	}
	defer h.ipLimiter.Release(ip)

	roomID, _ := strconv.Atoi(r.URL.Query().Get("room"))
	var room *game.Room
	for _, candidate := range h.cfg.Pool.Rooms() {
		if candidate.ID == roomID {
			room = candidate
			break
		}
	}
	if room == nil {
		http.Error(w, "no such room", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// Spectators get the room header and leaderboard at a relaxed cadence.
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		state := room.GetGameState()
		frames := [][]byte{
			protocol.EncodeGameState(protocol.GameStatePacket{
				RoomID:      uint16(state.Summary.RoomID),
				PlayerCount: uint16(state.Summary.PlayerCount),
				FoodCount:   uint16(state.Summary.FoodCount),
				TotalValue:  state.Summary.TotalValue,
				MapSize:     uint32(state.Summary.MapSize),
			}),
		}
		lb := protocol.LeaderboardPacket{}
		for _, e := range state.Leaderboard {
			lb.Entries = append(lb.Entries, protocol.LeaderboardWireEntry{
				IDHash: protocol.HashID(e.Address),
				Value:  e.SolValue,
				Zone:   uint8(e.Zone),
				Rank:   uint8(e.Rank),
			})
		}
		frames = append(frames, protocol.EncodeLeaderboard(lb))
		for _, frame := range frames {
			if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return
			}
			wsFramesSent.Inc()
		}
	}
}

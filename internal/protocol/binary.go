// Package protocol implements the fixed-layout binary wire format and the
// per-viewer delta compressor. All integers are little-endian; identities
// travel as 32-bit hashes of the wallet address to keep packets small.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Packet type tags. Tags 2 and 5 are reserved by the wire format for
// single-food and removal packets the current server never sends.
const (
	TagPlayerUpdate byte = 1
	TagFood         byte = 2
	TagEntityBatch  byte = 3
	TagGameState    byte = 4
	TagRemoved      byte = 5
	TagLeaderboard  byte = 6
)

// ErrUnknownPacket reports a tag byte the decoder does not recognize.
var ErrUnknownPacket = errors.New("unknown packet type")

// ErrShortPacket reports a truncated payload.
var ErrShortPacket = errors.New("short packet")

// Entity type codes for batch packets.
const (
	EntityPlayer uint8 = 0
	EntityFood   uint8 = 1
)

// HashID compresses an address string to 32 bits with a polynomial rolling
// hash, absolute-valued. Collisions are accepted for packet size.
func HashID(id string) uint32 {
	var h int32
	for i := 0; i < len(id); i++ {
		h = (h << 5) - h + int32(id[i])
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return uint32(v)
}

// PlayerUpdate flag bits.
const (
	FlagAlive    uint8 = 1 << 0
	FlagBoosting uint8 = 1 << 1
	FlagSelf     uint8 = 1 << 2
)

// PlayerUpdate is one player's per-frame state.
type PlayerUpdate struct {
	IDHash  uint32
	X, Y    float32
	Radius  float32
	Mass    float32
	R, G, B uint8
	Alive    bool
	Boosting bool
	IsSelf   bool
}

const playerUpdateSize = 1 + 4 + 4*4 + 3 + 1

// EncodePlayerUpdate lays out one player update packet.
func EncodePlayerUpdate(u PlayerUpdate) []byte {
	buf := make([]byte, playerUpdateSize)
	buf[0] = TagPlayerUpdate
	binary.LittleEndian.PutUint32(buf[1:], u.IDHash)
	binary.LittleEndian.PutUint32(buf[5:], math.Float32bits(u.X))
	binary.LittleEndian.PutUint32(buf[9:], math.Float32bits(u.Y))
	binary.LittleEndian.PutUint32(buf[13:], math.Float32bits(u.Radius))
	binary.LittleEndian.PutUint32(buf[17:], math.Float32bits(u.Mass))
	buf[21] = u.R
	buf[22] = u.G
	buf[23] = u.B
	var flags uint8
	if u.Alive {
		flags |= FlagAlive
	}
	if u.Boosting {
		flags |= FlagBoosting
	}
	if u.IsSelf {
		flags |= FlagSelf
	}
	buf[24] = flags
	return buf
}

func decodePlayerUpdate(data []byte) (PlayerUpdate, error) {
	if len(data) < playerUpdateSize {
		return PlayerUpdate{}, fmt.Errorf("player update: %w", ErrShortPacket)
	}
	flags := data[24]
	return PlayerUpdate{
		IDHash:   binary.LittleEndian.Uint32(data[1:]),
		X:        math.Float32frombits(binary.LittleEndian.Uint32(data[5:])),
		Y:        math.Float32frombits(binary.LittleEndian.Uint32(data[9:])),
		Radius:   math.Float32frombits(binary.LittleEndian.Uint32(data[13:])),
		Mass:     math.Float32frombits(binary.LittleEndian.Uint32(data[17:])),
		R:        data[21],
		G:        data[22],
		B:        data[23],
		Alive:    flags&FlagAlive != 0,
		Boosting: flags&FlagBoosting != 0,
		IsSelf:   flags&FlagSelf != 0,
	}, nil
}

// BatchEntity is one entry in an entity batch packet. Type and color index
// pack into one u32: type in the top byte, palette index below.
type BatchEntity struct {
	IDHash     uint32
	X, Y       float32
	Radius     float32
	Type       uint8
	ColorIndex uint32 // 24 bits
}

const batchEntitySize = 4 + 4*3 + 4

// EntityBatch groups many entities into one frame.
type EntityBatch struct {
	Entities []BatchEntity
}

// EncodeEntityBatch lays out a count-prefixed entity batch.
func EncodeEntityBatch(b EntityBatch) []byte {
	buf := make([]byte, 1+4+len(b.Entities)*batchEntitySize)
	buf[0] = TagEntityBatch
	binary.LittleEndian.PutUint32(buf[1:], uint32(len(b.Entities)))
	off := 5
	for _, e := range b.Entities {
		binary.LittleEndian.PutUint32(buf[off:], e.IDHash)
		binary.LittleEndian.PutUint32(buf[off+4:], math.Float32bits(e.X))
		binary.LittleEndian.PutUint32(buf[off+8:], math.Float32bits(e.Y))
		binary.LittleEndian.PutUint32(buf[off+12:], math.Float32bits(e.Radius))
		packed := uint32(e.Type)<<24 | e.ColorIndex&0x00FFFFFF
		binary.LittleEndian.PutUint32(buf[off+16:], packed)
		off += batchEntitySize
	}
	return buf
}

func decodeEntityBatch(data []byte) (EntityBatch, error) {
	if len(data) < 5 {
		return EntityBatch{}, fmt.Errorf("entity batch: %w", ErrShortPacket)
	}
	count := binary.LittleEndian.Uint32(data[1:])
	need := 5 + int(count)*batchEntitySize
	if len(data) < need {
		return EntityBatch{}, fmt.Errorf("entity batch: %w", ErrShortPacket)
	}
	b := EntityBatch{Entities: make([]BatchEntity, count)}
	off := 5
	for i := range b.Entities {
		packed := binary.LittleEndian.Uint32(data[off+16:])
		b.Entities[i] = BatchEntity{
			IDHash:     binary.LittleEndian.Uint32(data[off:]),
			X:          math.Float32frombits(binary.LittleEndian.Uint32(data[off+4:])),
			Y:          math.Float32frombits(binary.LittleEndian.Uint32(data[off+8:])),
			Radius:     math.Float32frombits(binary.LittleEndian.Uint32(data[off+12:])),
			Type:       uint8(packed >> 24),
			ColorIndex: packed & 0x00FFFFFF,
		}
		off += batchEntitySize
	}
	return b, nil
}

// GameStatePacket is the lightweight room header frame.
type GameStatePacket struct {
	RoomID      uint16
	PlayerCount uint16
	FoodCount   uint16
	TotalValue  uint64
	MapSize     uint32
}

const gameStateSize = 1 + 2*3 + 8 + 4

// EncodeGameState lays out a room header packet.
func EncodeGameState(s GameStatePacket) []byte {
	buf := make([]byte, gameStateSize)
	buf[0] = TagGameState
	binary.LittleEndian.PutUint16(buf[1:], s.RoomID)
	binary.LittleEndian.PutUint16(buf[3:], s.PlayerCount)
	binary.LittleEndian.PutUint16(buf[5:], s.FoodCount)
	binary.LittleEndian.PutUint64(buf[7:], s.TotalValue)
	binary.LittleEndian.PutUint32(buf[15:], s.MapSize)
	return buf
}

func decodeGameState(data []byte) (GameStatePacket, error) {
	if len(data) < gameStateSize {
		return GameStatePacket{}, fmt.Errorf("game state: %w", ErrShortPacket)
	}
	return GameStatePacket{
		RoomID:      binary.LittleEndian.Uint16(data[1:]),
		PlayerCount: binary.LittleEndian.Uint16(data[3:]),
		FoodCount:   binary.LittleEndian.Uint16(data[5:]),
		TotalValue:  binary.LittleEndian.Uint64(data[7:]),
		MapSize:     binary.LittleEndian.Uint32(data[15:]),
	}, nil
}

// LeaderboardWireEntry is one ranked row on the wire.
type LeaderboardWireEntry struct {
	IDHash uint32
	Value  uint64
	Zone   uint8
	Rank   uint8
}

const leaderboardEntrySize = 4 + 8 + 1 + 1 + 2 // trailing u16 padding

// LeaderboardPacket is the top-ten frame.
type LeaderboardPacket struct {
	Entries []LeaderboardWireEntry
}

// EncodeLeaderboard lays out a count-prefixed leaderboard packet.
func EncodeLeaderboard(l LeaderboardPacket) []byte {
	buf := make([]byte, 1+4+len(l.Entries)*leaderboardEntrySize)
	buf[0] = TagLeaderboard
	binary.LittleEndian.PutUint32(buf[1:], uint32(len(l.Entries)))
	off := 5
	for _, e := range l.Entries {
		binary.LittleEndian.PutUint32(buf[off:], e.IDHash)
		binary.LittleEndian.PutUint64(buf[off+4:], e.Value)
		buf[off+12] = e.Zone
		buf[off+13] = e.Rank
		// two padding bytes stay zero
		off += leaderboardEntrySize
	}
	return buf
}

func decodeLeaderboard(data []byte) (LeaderboardPacket, error) {
	if len(data) < 5 {
		return LeaderboardPacket{}, fmt.Errorf("leaderboard: %w", ErrShortPacket)
	}
	count := binary.LittleEndian.Uint32(data[1:])
	need := 5 + int(count)*leaderboardEntrySize
	if len(data) < need {
		return LeaderboardPacket{}, fmt.Errorf("leaderboard: %w", ErrShortPacket)
	}
	l := LeaderboardPacket{Entries: make([]LeaderboardWireEntry, count)}
	off := 5
	for i := range l.Entries {
		l.Entries[i] = LeaderboardWireEntry{
			IDHash: binary.LittleEndian.Uint32(data[off:]),
			Value:  binary.LittleEndian.Uint64(data[off+4:]),
			Zone:   data[off+12],
			Rank:   data[off+13],
		}
		off += leaderboardEntrySize
	}
	return l, nil
}

// Decode dispatches on the tag byte. The returned value is one of
// PlayerUpdate, EntityBatch, GameStatePacket or LeaderboardPacket.
func Decode(data []byte) (interface{}, error) {
	if len(data) == 0 {
		return nil, ErrShortPacket
	}
	switch data[0] {
	case TagPlayerUpdate:
		return decodePlayerUpdate(data)
	case TagEntityBatch:
		return decodeEntityBatch(data)
	case TagGameState:
		return decodeGameState(data)
	case TagLeaderboard:
		return decodeLeaderboard(data)
	default:
		return nil, fmt.Errorf("%w: tag %d", ErrUnknownPacket, data[0])
	}
}

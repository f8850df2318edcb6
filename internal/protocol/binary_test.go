package protocol

import (
	"errors"
	"testing"
)

func TestHashID(t *testing.T) {
	if HashID("") != 0 {
		t.Error("empty id should hash to 0")
	}
	// Deterministic and stable across calls.
	a := HashID("4Nd1mY3sWalletAddr")
	if a != HashID("4Nd1mY3sWalletAddr") {
		t.Error("hash not deterministic")
	}
	if a == HashID("4Nd1mY3sWalletAddx") {
		t.Error("distinct ids should usually hash apart")
	}
	// Single character is its char code.
	if HashID("a") != uint32('a') {
		t.Errorf("HashID(a) = %d", HashID("a"))
	}
	// "ab" = 31*'a' + 'b' under h = h*31 + c.
	if HashID("ab") != 31*uint32('a')+uint32('b') {
		t.Errorf("HashID(ab) = %d", HashID("ab"))
	}
}

func TestPlayerUpdateRoundTrip(t *testing.T) {
	in := PlayerUpdate{
		IDHash: HashID("someAddress"),
		X:      1234.5, Y: 6789.25,
		Radius: 12.62, Mass: 20,
		R: 205, G: 127, B: 50,
		Alive: true, Boosting: true, IsSelf: false,
	}
	buf := EncodePlayerUpdate(in)
	if len(buf) != 25 {
		t.Errorf("player update size = %d, want 25", len(buf))
	}
	if buf[0] != TagPlayerUpdate {
		t.Errorf("tag = %d", buf[0])
	}

	out, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got, ok := out.(PlayerUpdate)
	if !ok {
		t.Fatalf("decoded %T", out)
	}
	if got != in {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, in)
	}
}

func TestEntityBatchRoundTrip(t *testing.T) {
	in := EntityBatch{Entities: []BatchEntity{
		{IDHash: 1, X: 10, Y: 20, Radius: 5, Type: EntityFood, ColorIndex: 3},
		{IDHash: 2, X: 30, Y: 40, Radius: 12, Type: EntityPlayer, ColorIndex: 0xABCDE},
	}}
	buf := EncodeEntityBatch(in)
	if len(buf) != 1+4+2*20 {
		t.Errorf("batch size = %d", len(buf))
	}

	out, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got := out.(EntityBatch)
	if len(got.Entities) != 2 {
		t.Fatalf("count = %d", len(got.Entities))
	}
	for i := range in.Entities {
		if got.Entities[i] != in.Entities[i] {
			t.Errorf("entity %d mismatch: got %+v want %+v", i, got.Entities[i], in.Entities[i])
		}
	}
}

func TestGameStateRoundTrip(t *testing.T) {
	in := GameStatePacket{
		RoomID:      7,
		PlayerCount: 42,
		FoodCount:   1800,
		TotalValue:  123_456_789_000,
		MapSize:     10000,
	}
	buf := EncodeGameState(in)
	if len(buf) != 19 {
		t.Errorf("game state size = %d, want 19", len(buf))
	}
	out, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := out.(GameStatePacket); got != in {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestLeaderboardRoundTrip(t *testing.T) {
	in := LeaderboardPacket{Entries: []LeaderboardWireEntry{
		{IDHash: HashID("first"), Value: 10_000_000_000, Zone: 4, Rank: 1},
		{IDHash: HashID("second"), Value: 2_500_000_000, Zone: 2, Rank: 2},
	}}
	buf := EncodeLeaderboard(in)
	if len(buf) != 1+4+2*16 {
		t.Errorf("leaderboard size = %d", len(buf))
	}
	out, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got := out.(LeaderboardPacket)
	for i := range in.Entries {
		if got.Entries[i] != in.Entries[i] {
			t.Errorf("entry %d mismatch: %+v", i, got.Entries[i])
		}
	}
}

func TestDecodeUnknownTag(t *testing.T) {
	_, err := Decode([]byte{99, 0, 0, 0})
	if !errors.Is(err, ErrUnknownPacket) {
		t.Errorf("err = %v, want ErrUnknownPacket", err)
	}
	// Reserved tags have no decoder either.
	_, err = Decode([]byte{TagFood})
	if !errors.Is(err, ErrUnknownPacket) {
		t.Errorf("reserved tag err = %v, want ErrUnknownPacket", err)
	}
}

func TestDecodeTruncated(t *testing.T) {
	if _, err := Decode(nil); !errors.Is(err, ErrShortPacket) {
		t.Errorf("empty: %v", err)
	}
	full := EncodePlayerUpdate(PlayerUpdate{IDHash: 1})
	if _, err := Decode(full[:10]); !errors.Is(err, ErrShortPacket) {
		t.Errorf("truncated player update: %v", err)
	}
	// A batch claiming more entities than the payload holds.
	batch := EncodeEntityBatch(EntityBatch{Entities: []BatchEntity{{IDHash: 1}}})
	batch[1] = 200 // inflate count
	if _, err := Decode(batch); !errors.Is(err, ErrShortPacket) {
		t.Errorf("inflated batch count: %v", err)
	}
}

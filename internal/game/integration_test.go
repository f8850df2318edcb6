package game

import (
	"testing"
	"time"
)

// =============================================================================
// INTEGRATION TESTS: FULL ROOM LIFECYCLE ON A LIVE TICKER
// These run the real 60 Hz loop instead of driving ticks by hand.
// =============================================================================

func TestIntegration_LiveRoomLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	sink := NewEventSink(256)
	cfg := DefaultRoomConfig()
	cfg.FoodBasePerZone = 100
	cfg.FoodMaxPerZone = 150
	cfg.FoodMaxTotal = 600
	r := NewRoom(1, cfg, sink)
	r.Start()
	defer r.Stop()

	hunter, err := r.AddPlayer("HunterWallet1", "hunter", 3*LamportsPerSOL)
	if err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	prey, err := r.AddPlayer("PreyWallet1", "prey", LamportsPerSOL)
	if err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}

	// Fatten the hunter and park the prey on its position. The live loop
	// should resolve contact, combat and consumption on its own.
	r.mu.Lock()
	hunter.Mass = 400
	prey.X, prey.Y = hunter.X, hunter.Y
	prey.TargetX, prey.TargetY = prey.X, prey.Y
	hunter.TargetX, hunter.TargetY = hunter.X, hunter.Y
	r.playerGrid.Move(prey.ID, prey.X, prey.Y, prey.Radius())
	r.mu.Unlock()

	deadline := time.After(2 * time.Second)
	var eat SettlementEvent
waitEat:
	for {
		select {
		case ev := <-sink.Events():
			if ev.Type == EventTypeEat {
				eat = ev
				break waitEat
			}
		case <-deadline:
			t.Fatal("prey never consumed on live ticker")
		}
	}

	if eat.Eater != "HunterWallet1" || eat.Eaten != "PreyWallet1" {
		t.Errorf("eat event %s -> %s, want HunterWallet1 -> PreyWallet1", eat.Eater, eat.Eaten)
	}
	if eat.Lamports != LamportsPerSOL {
		t.Errorf("transferred %d lamports, want %d", eat.Lamports, LamportsPerSOL)
	}
	if _, ok := r.GetPlayerView("PreyWallet1"); ok {
		t.Error("eaten player still has a view")
	}

	// Contact pins the combat cooldown, so an immediate cash-out must fail.
	if _, err := r.CashOut("HunterWallet1"); err != ErrInCombat {
		t.Fatalf("cash-out during combat: got %v, want ErrInCombat", err)
	}

	// Rewind the cooldown instead of sleeping five seconds.
	r.mu.Lock()
	hunter.CombatUntil = time.Now().Add(-time.Second)
	r.mu.Unlock()

	lamports, err := r.CashOut("HunterWallet1")
	if err != nil {
		t.Fatalf("CashOut: %v", err)
	}
	if lamports != 4*LamportsPerSOL {
		t.Errorf("cashed out %d lamports, want %d", lamports, 4*LamportsPerSOL)
	}

	var cash SettlementEvent
	deadline = time.After(time.Second)
waitCash:
	for {
		select {
		case ev := <-sink.Events():
			if ev.Type == EventTypeCashOut {
				cash = ev
				break waitCash
			}
		case <-deadline:
			t.Fatal("cash-out settlement never emitted")
		}
	}
	if cash.Eaten != "HunterWallet1" || cash.Lamports != 4*LamportsPerSOL {
		t.Errorf("cash-out event %s/%d, want HunterWallet1/%d", cash.Eaten, cash.Lamports, 4*LamportsPerSOL)
	}

	if r.PlayerCount() != 0 {
		t.Errorf("room not empty after cash-out: %d players", r.PlayerCount())
	}
}

func TestIntegration_LiveRoomGrowsOnFood(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cfg := DefaultRoomConfig()
	cfg.FoodBasePerZone = 200
	cfg.FoodMaxPerZone = 250
	cfg.FoodMaxTotal = 1000
	r := NewRoom(1, cfg, NewEventSink(64))
	r.Start()
	defer r.Stop()

	p, err := r.AddPlayer("GrazerWallet1", "grazer", 0)
	if err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}

	// Plant a trail of pellets straight ahead of the player so consumption
	// does not depend on random spawn positions.
	r.mu.Lock()
	startX, startY := p.X, p.Y
	for i := 1; i <= 10; i++ {
		f := NewFood(r.rng, 1, cfg.FoodMinMass, cfg.FoodMaxMass, cfg.FoodSpawnMargin)
		f.X = Clamp(startX+float64(i)*20, 100, 4900)
		f.Y = startY
		r.addFood(f)
	}
	r.mu.Unlock()

	tx, ty := Clamp(startX+400, 100, 4900), startY
	r.HandleInput(p.ID, Input{TargetX: &tx, TargetY: &ty})

	poll := time.NewTicker(50 * time.Millisecond)
	defer poll.Stop()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case <-poll.C:
			view, ok := r.GetPlayerView("GrazerWallet1")
			if !ok {
				t.Fatal("grazer view lost")
			}
			if view.Self.Mass > BaseMass+5 {
				return // grew past decay, pellets are being consumed
			}
			r.HandleInput(p.ID, Input{TargetX: &tx, TargetY: &ty})
		case <-deadline:
			t.Fatalf("never grew past %v mass on a planted pellet trail", BaseMass+5)
		}
	}
}

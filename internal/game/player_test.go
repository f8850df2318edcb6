package game

import (
	"math"
	"math/rand"
	"testing"
	"time"
)

func testPlayer(stake uint64) *Player {
	rng := rand.New(rand.NewSource(1))
	return NewPlayer(rng, "addr_test", "tester", 2500, 2500, stake, ZoneForValue(stake).ID)
}

func TestPlayerRadiusTracksMass(t *testing.T) {
	p := testPlayer(0)
	if math.Abs(p.Radius()-12.6157) > 0.01 {
		t.Errorf("base radius = %.4f, want ~12.62", p.Radius())
	}
	p.Mass = 80
	want := math.Sqrt(80/math.Pi) * 5
	if math.Abs(p.Radius()-want) > 1e-9 {
		t.Errorf("radius after mass change = %v, want %v", p.Radius(), want)
	}
}

func TestPlayerStepMovesTowardTarget(t *testing.T) {
	now := time.Now()
	p := testPlayer(0)
	p.SetTarget(3500, 2500)

	before := p.X
	p.Step(now)
	if p.X <= before {
		t.Error("player should move toward target on +x")
	}
	if p.Y != 2500 {
		t.Errorf("player drifted on y: %v", p.Y)
	}
	// Does not overshoot a close target.
	p.X, p.Y = 2500, 2500
	p.SetTarget(2502, 2500)
	p.Step(now)
	if p.X > 2502 {
		t.Errorf("player overshot target: %v", p.X)
	}
}

func TestPlayerSetTargetRejectsBadInput(t *testing.T) {
	p := testPlayer(0)
	p.SetTarget(100, 200)
	p.SetTarget(math.NaN(), 500)
	p.SetTarget(math.Inf(1), math.Inf(-1))
	if p.TargetX != 100 || p.TargetY != 200 {
		t.Errorf("bad input changed target to (%v, %v)", p.TargetX, p.TargetY)
	}
}

func TestPlayerDecay(t *testing.T) {
	p := testPlayer(0)
	p.Mass = 100
	p.Decay(1)
	if math.Abs(p.Mass-99.8) > 1e-9 {
		t.Errorf("mass after 1s decay = %v, want 99.8", p.Mass)
	}
	// Decay never drops below the floor.
	p.Mass = BaseMass
	p.Decay(10)
	if p.Mass != BaseMass {
		t.Errorf("floor mass decayed to %v", p.Mass)
	}
	// Value is independent of decay.
	p.SolValue = 5 * LamportsPerSOL
	p.Mass = 100
	p.Decay(1)
	if p.SolValue != 5*LamportsPerSOL {
		t.Error("decay must never touch value")
	}
}

func TestPlayerBoost(t *testing.T) {
	now := time.Now()
	p := testPlayer(0)
	p.Mass = 100

	if !p.StartBoost(now) {
		t.Fatal("boost should start")
	}
	if math.Abs(p.Mass-90) > 1e-9 {
		t.Errorf("mass after boost = %v, want 90", p.Mass)
	}
	if !p.Boosting(now) {
		t.Error("player should be boosting")
	}
	if got := p.Speed(now); math.Abs(got-SpeedForMass(90)*2) > 1e-9 {
		t.Errorf("boosted speed = %v, want doubled", got)
	}
	// Re-trigger while active is refused.
	if p.StartBoost(now.Add(100 * time.Millisecond)) {
		t.Error("boost re-trigger while active should fail")
	}
	// Still on cooldown after expiry.
	if p.StartBoost(now.Add(BoostDuration + time.Millisecond)) {
		t.Error("boost should still be on cooldown")
	}
	// Available again once the cooldown lapses.
	if !p.StartBoost(now.Add(BoostCooldown + time.Millisecond)) {
		t.Error("boost should be available after cooldown")
	}
}

func TestPlayerBoostRefusedAtFloor(t *testing.T) {
	p := testPlayer(0)
	if p.StartBoost(time.Now()) {
		t.Error("boost at base mass would cut below the floor")
	}
}

func TestPlayerBoostRequiresMinimumMass(t *testing.T) {
	now := time.Now()

	// Below 35 the boost is refused even though the 10% cut would stay
	// above the mass floor.
	p := testPlayer(0)
	p.Mass = 30
	if p.StartBoost(now) {
		t.Errorf("boost accepted at mass 30 (mass after: %v)", p.Mass)
	}
	if p.Mass != 30 {
		t.Errorf("refused boost must not burn mass, got %v", p.Mass)
	}

	p.Mass = MinActionMass
	if !p.StartBoost(now) {
		t.Error("boost at exactly the minimum mass should succeed")
	}
	if math.Abs(p.Mass-MinActionMass*(1-BoostMassCost)) > 1e-9 {
		t.Errorf("mass after boost = %v", p.Mass)
	}
}

func TestPlayerEject(t *testing.T) {
	now := time.Now()
	p := testPlayer(0)
	p.Mass = 50
	p.FacingX, p.FacingY = 1, 0

	x, _, vx, vy, ok := p.TryEject(now)
	if !ok {
		t.Fatal("eject should succeed at mass 50")
	}
	if math.Abs(p.Mass-35) > 1e-9 {
		t.Errorf("mass after eject = %v, want 35", p.Mass)
	}
	if vx != EjectVelocity || vy != 0 {
		t.Errorf("eject velocity = (%v, %v)", vx, vy)
	}
	if x <= p.X+p.Radius() {
		t.Error("pellet must spawn beyond the player's rim")
	}
	// Cooldown blocks an immediate second eject.
	if _, _, _, _, ok := p.TryEject(now.Add(50 * time.Millisecond)); ok {
		t.Error("eject inside cooldown should fail")
	}
	// Mass is exactly 35 now, which still meets the minimum.
	if _, _, _, _, ok := p.TryEject(now.Add(EjectCooldown + time.Millisecond)); !ok {
		t.Error("eject at exactly the minimum mass should succeed")
	}
	// Down at mass 20, below the minimum.
	if _, _, _, _, ok := p.TryEject(now.Add(time.Second)); ok {
		t.Error("eject below minimum mass should fail")
	}
}

func TestPlayerEatTransfersFullValue(t *testing.T) {
	eater := testPlayer(2 * LamportsPerSOL)
	victim := testPlayer(3 * LamportsPerSOL)
	victim.ID = "addr_victim"
	eaterMassBefore := eater.Mass

	moved := eater.EatPlayer(victim)
	if moved != 3*LamportsPerSOL {
		t.Errorf("transferred %d, want 3 SOL", moved)
	}
	if eater.SolValue != 5*LamportsPerSOL {
		t.Errorf("eater value = %d, want 5 SOL", eater.SolValue)
	}
	if victim.SolValue != 0 || victim.Alive {
		t.Error("victim must be zeroed and dead")
	}
	if eater.Mass-eaterMassBefore != 3*MassPerSOLEaten {
		t.Errorf("mass bonus = %v, want %v", eater.Mass-eaterMassBefore, 3*MassPerSOLEaten)
	}
	if eater.PlayersEaten != 1 || eater.TotalEarned != 3*LamportsPerSOL {
		t.Error("lifetime counters not updated")
	}
}

func TestPlayerCombatCooldown(t *testing.T) {
	now := time.Now()
	p := testPlayer(0)
	if p.InCombat(now) {
		t.Error("fresh player should not be in combat")
	}
	p.MarkCombat(now)
	if !p.InCombat(now.Add(CombatCooldown - time.Millisecond)) {
		t.Error("combat flag should hold for the full cooldown")
	}
	if p.InCombat(now.Add(CombatCooldown + time.Millisecond)) {
		t.Error("combat flag should lapse after the cooldown")
	}
	// Repeated contact pushes the deadline out.
	p.MarkCombat(now.Add(2 * time.Second))
	if !p.InCombat(now.Add(CombatCooldown + time.Second)) {
		t.Error("repeated contact should reset the cooldown")
	}
}

func TestPlayerRefreshAdvance(t *testing.T) {
	p := testPlayer(0)
	p.RefreshAdvance()
	if p.CanAdvance {
		t.Error("zero stake cannot advance past Bronze")
	}
	p.SolValue = 5 * LamportsPerSOL
	p.RefreshAdvance()
	if !p.CanAdvance {
		t.Error("5 SOL in Bronze should flag advance")
	}
	p.Zone = 3
	p.RefreshAdvance()
	if p.CanAdvance {
		t.Error("5 SOL in Gold cannot advance to Diamond")
	}
}

func TestFoodStepFriction(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	f := NewEjectedFood(rng, 1, 2500, 2500, EjectVelocity, 0, EjectMassCost)

	if !f.Moving() {
		t.Fatal("ejected pellet should move")
	}
	f.Step()
	if math.Abs(f.VX-EjectVelocity*FoodFriction) > 1e-9 {
		t.Errorf("velocity after one tick = %v", f.VX)
	}
	// Friction eventually parks the pellet.
	for i := 0; i < 300 && f.Moving(); i++ {
		f.Step()
	}
	if f.Moving() {
		t.Error("pellet should park under friction")
	}
	// A parked pellet's Step is a no-op.
	x := f.X
	if f.Step() {
		t.Error("parked pellet reported movement")
	}
	if f.X != x {
		t.Error("parked pellet moved")
	}
}

func TestFoodStaysInZone(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	// Launch toward the Bronze/Silver boundary from just inside Bronze.
	f := NewEjectedFood(rng, 1, 4990, 2500, 100, 0, 15)
	for i := 0; i < 50; i++ {
		f.Step()
	}
	if f.X+f.Radius() > 5000 {
		t.Errorf("pellet escaped its zone: x=%v", f.X)
	}
}

func TestNewFoodSpawnBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		f := NewFood(rng, 4, 10, 25, 100)
		if f.X < 5100 || f.X > 9900 || f.Y < 5100 || f.Y > 9900 {
			t.Fatalf("pellet outside margin-inset Diamond bounds: (%v, %v)", f.X, f.Y)
		}
		if f.Mass < 10 || f.Mass >= 25 {
			t.Fatalf("pellet mass %v outside [10, 25)", f.Mass)
		}
	}
}

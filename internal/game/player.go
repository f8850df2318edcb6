package game

import (
	"math"
	"math/rand"
	"time"
)

// Player tuning.
const (
	BaseMass      = 20.0  // mass floor; decay never goes below this
	MassDecayRate = 0.002 // fraction of mass lost per second above the floor

	BoostMassCost   = 0.10 // fraction of current mass burned on boost
	BoostMultiplier = 2.0
	BoostDuration   = time.Second
	BoostCooldown   = 3 * time.Second

	// MinActionMass gates both boost and eject; lighter players can only
	// graze until they bulk up.
	MinActionMass = 35.0

	EjectMassCost = 15.0
	EjectOffset   = 20.0 // spawn gap beyond the player's radius
	EjectVelocity = 24.0 // pellet launch speed, world units per tick
	EjectCooldown = 100 * time.Millisecond

	// CombatCooldown starts on any player contact and resets on repeated
	// contact. Cash-out is blocked while it runs.
	CombatCooldown = 5 * time.Second

	// Mass granted per whole SOL absorbed when eating another player.
	MassPerSOLEaten = 10.0
)

// Player is one live agent in a room. All mutation happens under the
// owning room's lock; Player itself carries no synchronization.
type Player struct {
	ID   string // wallet address, unique per room
	Name string

	X, Y             float64
	TargetX, TargetY float64
	FacingX, FacingY float64 // last nonzero move direction, unit vector

	Mass     float64
	SolValue uint64 // lamports; never reduced except by being eaten
	Alive    bool
	Zone     int
	CanAdvance bool // value covers the next zone's threshold

	Color Color

	// Timers, all wall-clock deadlines.
	BoostUntil         time.Time
	BoostCooldownUntil time.Time
	EjectCooldownUntil time.Time
	CombatUntil        time.Time

	// Lifetime counters.
	PlayersEaten int
	TotalEarned  uint64 // lamports gained by eating, cumulative

	JoinedAt time.Time
}

// NewPlayer creates a live player at the given spawn point with its
// starting stake.
func NewPlayer(rng *rand.Rand, address, name string, x, y float64, stake uint64, zone int) *Player {
	return &Player{
		ID:       address,
		Name:     name,
		X:        x,
		Y:        y,
		TargetX:  x,
		TargetY:  y,
		FacingX:  1,
		Mass:     BaseMass,
		SolValue: stake,
		Alive:    true,
		Zone:     zone,
		Color:    RandomPlayerColor(rng),
		JoinedAt: time.Now(),
	}
}

// Radius derives the player's circle from its mass.
func (p *Player) Radius() float64 {
	return RadiusForMass(p.Mass, PlayerRadiusFactor)
}

// Speed is the per-tick movement speed, including any active boost.
func (p *Player) Speed(now time.Time) float64 {
	s := SpeedForMass(p.Mass)
	if p.Boosting(now) {
		s *= BoostMultiplier
	}
	return s
}

// Boosting reports whether a boost is currently active.
func (p *Player) Boosting(now time.Time) bool {
	return now.Before(p.BoostUntil)
}

// InCombat reports whether the contact cooldown is still running.
func (p *Player) InCombat(now time.Time) bool {
	return now.Before(p.CombatUntil)
}

// MarkCombat starts (or restarts) the combat cooldown.
func (p *Player) MarkCombat(now time.Time) {
	p.CombatUntil = now.Add(CombatCooldown)
}

// SetTarget points the player at a steering destination. NaN or infinite
// coordinates are dropped.
func (p *Player) SetTarget(x, y float64) {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return
	}
	p.TargetX = x
	p.TargetY = y
}

// Step advances movement one tick toward the target, recording the facing
// direction. The caller clamps the result to bounds and zones.
func (p *Player) Step(now time.Time) {
	dx := p.TargetX - p.X
	dy := p.TargetY - p.Y
	dist := math.Hypot(dx, dy)
	if dist < 1 {
		return
	}
	p.FacingX = dx / dist
	p.FacingY = dy / dist

	speed := p.Speed(now)
	if speed > dist {
		speed = dist
	}
	p.X += p.FacingX * speed
	p.Y += p.FacingY * speed
}

// Decay bleeds mass above the floor at the configured fraction per second.
// Economic value is untouched.
func (p *Player) Decay(dt float64) {
	if p.Mass <= BaseMass {
		return
	}
	p.Mass -= p.Mass * MassDecayRate * dt
	if p.Mass < BaseMass {
		p.Mass = BaseMass
	}
}

// StartBoost burns 10% of current mass for a timed speed multiplier.
// Returns false while already boosting, on cooldown, or at the mass floor.
func (p *Player) StartBoost(now time.Time) bool {
	if p.Boosting(now) || now.Before(p.BoostCooldownUntil) {
		return false
	}
	if p.Mass < MinActionMass || p.Mass*(1-BoostMassCost) < BaseMass {
		return false
	}
	p.Mass *= 1 - BoostMassCost
	p.BoostUntil = now.Add(BoostDuration)
	p.BoostCooldownUntil = now.Add(BoostCooldown)
	return true
}

// TryEject deducts the eject mass cost and returns the spawn position and
// velocity for the resulting pellet. ok is false if the player is too
// small or still on cooldown.
func (p *Player) TryEject(now time.Time) (x, y, vx, vy float64, ok bool) {
	if p.Mass < MinActionMass || now.Before(p.EjectCooldownUntil) {
		return 0, 0, 0, 0, false
	}
	p.Mass -= EjectMassCost
	p.EjectCooldownUntil = now.Add(EjectCooldown)

	offset := p.Radius() + EjectOffset
	return p.X + p.FacingX*offset, p.Y + p.FacingY*offset,
		p.FacingX * EjectVelocity, p.FacingY * EjectVelocity, true
}

// EatFood absorbs a pellet's mass. Value is unaffected.
func (p *Player) EatFood(f *Food) {
	p.Mass += f.Mass
}

// EatPlayer transfers the victim's entire value to p, exactly, plus a mass
// bonus proportional to the value absorbed. Returns the lamports moved.
// The caller removes the victim from the room.
func (p *Player) EatPlayer(victim *Player) uint64 {
	transferred := victim.SolValue
	victim.SolValue = 0
	victim.Alive = false

	p.SolValue += transferred
	p.TotalEarned += transferred
	p.PlayersEaten++
	p.Mass += float64(transferred) / LamportsPerSOL * MassPerSOLEaten
	return transferred
}

// RefreshAdvance recomputes whether the stake unlocks a zone above the
// current one. The flag is read by views; movement gating applies it.
func (p *Player) RefreshAdvance() {
	p.CanAdvance = ZoneForValue(p.SolValue).ID > p.Zone
}

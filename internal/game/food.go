package game

import (
	"fmt"
	"math/rand"
	"sync/atomic"
)

// Food tuning.
const (
	FoodFriction     = 0.95 // residual velocity decay per tick
	FoodStopVelocity = 0.1  // below this speed the pellet parks
)

// Food is a passive pellet. Most food sits still; pellets ejected by a
// player or shed by a corpse carry residual velocity that decays each tick.
type Food struct {
	ID    string
	X, Y  float64
	Mass  float64
	Color Color
	Zone  int

	// Residual velocity in world units per tick, zero for static pellets.
	VX, VY float64
}

// foodSeq is shared across rooms so pellet ids stay unique process-wide.
var foodSeq atomic.Uint64

func nextFoodID() string {
	return fmt.Sprintf("food_%d", foodSeq.Add(1))
}

// NewFood spawns a static pellet at a random position inside the zone,
// inset from the zone edges by the configured margin.
func NewFood(rng *rand.Rand, zone int, minMass, maxMass, margin float64) *Food {
	z := ZoneByID(zone)
	return &Food{
		ID:    nextFoodID(),
		X:     z.MinX + margin + rng.Float64()*(z.MaxX-z.MinX-2*margin),
		Y:     z.MinY + margin + rng.Float64()*(z.MaxY-z.MinY-2*margin),
		Mass:  minMass + rng.Float64()*(maxMass-minMass),
		Color: RandomFoodColor(rng),
		Zone:  zone,
	}
}

// NewEjectedFood spawns a moving pellet, used for player ejections and
// corpse conversion. Position is clamped to the zone before return.
func NewEjectedFood(rng *rand.Rand, zone int, x, y, vx, vy, mass float64) *Food {
	f := &Food{
		ID:    nextFoodID(),
		Mass:  mass,
		Color: RandomFoodColor(rng),
		Zone:  zone,
		VX:    vx,
		VY:    vy,
	}
	f.X, f.Y = ClampToZone(zone, x, y, f.Radius())
	return f
}

// Radius derives the pellet's circle from its mass.
func (f *Food) Radius() float64 {
	return RadiusForMass(f.Mass, FoodRadiusFactor)
}

// Moving reports whether the pellet still carries residual velocity.
func (f *Food) Moving() bool {
	return f.VX != 0 || f.VY != 0
}

// Step integrates one tick of residual velocity with friction, parking the
// pellet once it slows below the stop threshold. The pellet never leaves
// its zone. Returns true if the position changed.
func (f *Food) Step() bool {
	if !f.Moving() {
		return false
	}
	f.X += f.VX
	f.Y += f.VY
	f.VX *= FoodFriction
	f.VY *= FoodFriction
	if f.VX*f.VX+f.VY*f.VY < FoodStopVelocity*FoodStopVelocity {
		f.VX, f.VY = 0, 0
	}
	f.X, f.Y = ClampToZone(f.Zone, f.X, f.Y, f.Radius())
	return true
}

package game

import "math"

// Physical tuning constants. Radius grows with the square root of mass so
// area stays proportional to mass.
const (
	PlayerRadiusFactor = 5.0 // player radius = sqrt(mass/pi) * 5
	FoodRadiusFactor   = 3.0 // food radius = sqrt(mass/pi) * 3

	BaseSpeed = 15.0 // world units per tick step at mass 0

	// EatCoverage is the fraction of the summed radii that must be covered
	// before a player-player contact counts as consumption rather than a
	// graze. A mere touch only flags combat.
	EatCoverage = 0.8

	// EatMargin is how much larger (by radius) an eater must be than its
	// target. 1.1 means at least 10% larger.
	EatMargin = 1.1
)

// LamportsPerSOL converts between the integer value unit carried by players
// and whole SOL used for zone thresholds and display.
const LamportsPerSOL = 1_000_000_000

// Distance returns the Euclidean distance between two points.
func Distance(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return math.Sqrt(dx*dx + dy*dy)
}

// CircleOverlap reports whether two circles touch or overlap at all.
func CircleOverlap(x1, y1, r1, x2, y2, r2 float64) bool {
	return Distance(x1, y1, x2, y2) < r1+r2
}

// EatOverlap reports whether two circles overlap deeply enough for
// consumption: the gap between centers must close to within
// (1-coverage) of the summed radii.
func EatOverlap(x1, y1, r1, x2, y2, r2, coverage float64) bool {
	return Distance(x1, y1, x2, y2) <= (r1+r2)*(1-coverage)
}

// CanEat reports whether a circle of radius eater may consume one of
// radius eaten, requiring the eater to exceed the target by EatMargin.
func CanEat(eater, eaten float64) bool {
	return eater > eaten*EatMargin
}

// SpeedForMass maps mass to movement speed. Speed falls off inversely with
// mass and never reaches zero, so even huge players keep crawling.
func SpeedForMass(mass float64) float64 {
	return BaseSpeed * (20 / (mass + 20))
}

// RadiusForMass returns the circle radius for a mass at the given growth
// factor (PlayerRadiusFactor or FoodRadiusFactor).
func RadiusForMass(mass, factor float64) float64 {
	return math.Sqrt(mass/math.Pi) * factor
}

// Clamp restricts v to [min, max].
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

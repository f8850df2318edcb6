package game

import (
	"fmt"
	"math"
	"math/rand"
)

// Color is stored in HSL so hue can be randomized uniformly; it converts to
// RGB only at the wire boundary.
type Color struct {
	H float64 // degrees, 0-360
	S float64 // 0-1
	L float64 // 0-1
}

// foodPalette is the fixed set of pellet colors.
var foodPalette = []Color{
	mustHex("#FF6B6B"),
	mustHex("#4ECDC4"),
	mustHex("#FFE66D"),
	mustHex("#95E1D3"),
	mustHex("#F38181"),
	mustHex("#AA96DA"),
	mustHex("#FCBAD3"),
	mustHex("#A8D8EA"),
}

// RandomPlayerColor picks a saturated mid-lightness color with a uniformly
// random hue.
func RandomPlayerColor(rng *rand.Rand) Color {
	return Color{H: rng.Float64() * 360, S: 0.7, L: 0.5}
}

// RandomFoodColor picks from the fixed pellet palette.
func RandomFoodColor(rng *rand.Rand) Color {
	return foodPalette[rng.Intn(len(foodPalette))]
}

// RGB converts to 8-bit RGB components.
func (c Color) RGB() (r, g, b uint8) {
	h := math.Mod(c.H, 360) / 360
	if h < 0 {
		h++
	}
	s := Clamp(c.S, 0, 1)
	l := Clamp(c.L, 0, 1)

	if s == 0 {
		v := uint8(math.Round(l * 255))
		return v, v, v
	}

	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q

	rf := hueToRGB(p, q, h+1.0/3)
	gf := hueToRGB(p, q, h)
	bf := hueToRGB(p, q, h-1.0/3)
	return uint8(math.Round(rf * 255)), uint8(math.Round(gf * 255)), uint8(math.Round(bf * 255))
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 1.0/2:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	default:
		return p
	}
}

// Hex renders the color as a #RRGGBB string for JSON surfaces.
func (c Color) Hex() string {
	r, g, b := c.RGB()
	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}

// ParseHex parses a #RRGGBB string into a Color, converting through HSL so
// palette entries round-trip with the same representation players use.
func ParseHex(s string) (Color, error) {
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "#%02X%02X%02X", &r, &g, &b); err != nil {
		return Color{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	return fromRGB(r, g, b), nil
}

func mustHex(s string) Color {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

func fromRGB(r8, g8, b8 uint8) Color {
	r := float64(r8) / 255
	g := float64(g8) / 255
	b := float64(b8) / 255

	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	l := (max + min) / 2

	if max == min {
		return Color{H: 0, S: 0, L: l}
	}

	d := max - min
	var s float64
	if l > 0.5 {
		s = d / (2 - max - min)
	} else {
		s = d / (max + min)
	}

	var h float64
	switch max {
	case r:
		h = (g - b) / d
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	return Color{H: h * 60, S: s, L: l}
}

// Package units defines the scalar types mechanisms report values in.
package units

import "math"

type (
	Radians          float64
	Meters           float64
	RadiansPerSecond float64
)

func Degrees(d float64) Radians {
	return Radians(d * math.Pi / 180)
}

func (r Radians) Degrees() float64 {
	return float64(r) * 180 / math.Pi
}

// RPM converts revolutions per minute to radians per second.
func RPM(rpm float64) RadiansPerSecond {
	return RadiansPerSecond(rpm * 2 * math.Pi / 60)
}

func (w RadiansPerSecond) RPM() float64 {
	return float64(w) * 60 / (2 * math.Pi)
}

func Inches(in float64) Meters {
	return Meters(in * 0.0254)
}

// Package sensor normalizes rotary encoders and heading gyros.
//
// Encoders report integer counts and counts/second; gyros report degrees in
// the range [0, 360) and degrees/second. Both apply the same sign and zero
// offset rules, implemented once by Polarity.
package sensor

import "math"

// Number is a sensor reading type.
type Number interface {
	~int | ~float64
}

// Polarity flips the sign of a raw reading and shifts it by a zero offset.
// The offset applies to positions only, never to rates.
type Polarity[T Number] struct {
	Inverted bool
	Offset   T
}

// Position returns the raw position sign corrected and offset.
func (p Polarity[T]) Position(raw T) T {
	if p.Inverted {
		raw = -raw
	}
	return raw + p.Offset
}

// Rate returns the raw rate sign corrected. Rates are float64 whatever T
// is, so an integer encoder still reports fractional counts/second.
func (p Polarity[T]) Rate(raw float64) float64 {
	if p.Inverted {
		return -raw
	}
	return raw
}

// Round rounds value half up to the given number of decimals.
func Round(value float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Floor(value*scale+0.5) / scale
}

// NormalizeAngle wraps an angle into [0, 360) rounded to 3 decimals.
func NormalizeAngle(angle float64) float64 {
	a := math.Mod(angle, 360)
	if a < 0 {
		a += 360
	}
	a = Round(a, 3)
	if a >= 360 {
		a -= 360
	}
	if a == 0 {
		// avoid -0
		return 0
	}
	return a
}

// HeadingError returns the signed shortest turn from heading to target in
// the range [-180, 180).
func HeadingError(target, heading float64) float64 {
	e := math.Mod(target-heading, 360)
	if e >= 180 {
		e -= 360
	} else if e < -180 {
		e += 360
	}
	return e
}

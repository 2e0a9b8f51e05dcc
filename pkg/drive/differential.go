package drive

import (
	"math"

	"github.com/gwillem/cyclebot/pkg/oi"
)

// Arcade mixes a forward speed and a clockwise rotation into side speeds.
// When either side would exceed full output both are scaled down together,
// so the ratio between them holds.
func Arcade(speed, rotation float64) (left, right float64) {
	left = speed + rotation
	right = speed - rotation

	if m := math.Max(math.Abs(left), math.Abs(right)); m > 1 {
		left /= m
		right /= m
	}
	return left, right
}

// Tank passes each stick straight to its side.
func Tank(left, right float64) (float64, float64) {
	return clamp(left, -1, 1), clamp(right, -1, 1)
}

// Mix converts the stick positions to side speeds for a drive type.
//
// Arcade drives forward on the left stick and turns on the right one.
// SingleStick does both on the stick on singleSide.
func Mix(t oi.DriveType, left, right oi.Stick, singleSide oi.Side) (float64, float64) {
	switch t {
	case oi.Tank:
		return Tank(left.Y, right.Y)
	case oi.SingleStick:
		s := right
		if singleSide == oi.Left {
			s = left
		}
		return Arcade(s.Y, s.X)
	default:
		return Arcade(left.Y, right.X)
	}
}

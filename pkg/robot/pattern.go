// Package robot wires the drive base, pneumatics and power panel of a
// robot from its configuration, and builds the autonomous routines.
package robot

import (
	"strings"

	"github.com/pkg/errors"
)

// Pattern names an autonomous routine.
type Pattern string

// Autonomous patterns.
const (
	StraightWithPID Pattern = "straight_with_pid"
	StraightNoPID   Pattern = "straight_no_pid"
	Box             Pattern = "box"
)

// DefaultPattern runs when the operator picks nothing.
const DefaultPattern = StraightNoPID

// AllPatterns returns all patterns in menu order.
func AllPatterns() []Pattern {
	return []Pattern{
		StraightWithPID,
		StraightNoPID,
		Box,
	}
}

// Title is the menu label of the pattern.
func (p Pattern) Title() string {
	switch p {
	case StraightWithPID:
		return "Straight with heading control"
	case StraightNoPID:
		return "Straight for time"
	case Box:
		return "Two feet, then a three foot box"
	}
	return string(p)
}

// ParsePattern looks a pattern up by name.
func ParsePattern(s string) (Pattern, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, p := range AllPatterns() {
		if string(p) == s {
			return p, nil
		}
	}
	return DefaultPattern, errors.Errorf("unknown pattern %q", s)
}

// StartPosition is where the robot stands on the field at the start of
// autonomous.
type StartPosition string

const (
	StartLeft   StartPosition = "left"
	StartCenter StartPosition = "center"
	StartRight  StartPosition = "right"
)

// ParseStartPosition looks a start position up by name.
func ParseStartPosition(s string) (StartPosition, error) {
	switch p := StartPosition(strings.ToLower(strings.TrimSpace(s))); p {
	case StartLeft, StartCenter, StartRight:
		return p, nil
	}
	return StartCenter, errors.Errorf("unknown start position %q", s)
}

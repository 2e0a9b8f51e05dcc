// Package oi holds the operator input: drive sticks and buttons.
//
// The terminal UI writes it from its own goroutine while the control loop
// reads it, so every accessor locks.
package oi

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Stick is a joystick position. Forward and right are positive, both in
// [-1, 1].
type Stick struct {
	X float64
	Y float64
}

// Side picks one of the two drive sticks.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Right {
		return "right"
	}
	return "left"
}

// DriveType is how the sticks map to the drive base.
type DriveType int

const (
	Arcade DriveType = iota
	Tank
	SingleStick
)

var driveTypeNames = map[DriveType]string{
	Arcade:      "arcade",
	Tank:        "tank",
	SingleStick: "single_stick",
}

func (t DriveType) String() string {
	if name, ok := driveTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseDriveType parses a drive type name.
func ParseDriveType(s string) (DriveType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range driveTypeNames {
		if name == s {
			return t, nil
		}
	}
	return Arcade, errors.Errorf("unknown drive type %q", s)
}

// Input is the current operator input.
type Input struct {
	mu sync.RWMutex

	cancel     bool
	turbo      bool
	compressor bool
	left       Stick
	right      Stick
	driveType  DriveType
	singleSide Side
}

// New creates input with the compressor enabled and the sticks centred.
func New(driveType DriveType) *Input {
	return &Input{compressor: true, driveType: driveType, singleSide: Right}
}

// Cancel reports whether the operator is holding cancel.
func (in *Input) Cancel() bool {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.cancel
}

// SetCancel sets the cancel button.
func (in *Input) SetCancel(on bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.cancel = on
}

// Turbo reports whether the operator wants high gear.
func (in *Input) Turbo() bool {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.turbo
}

// ToggleTurbo flips the turbo button and returns the new value.
func (in *Input) ToggleTurbo() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.turbo = !in.turbo
	return in.turbo
}

// CompressorEnabled reports whether the compressor may run.
func (in *Input) CompressorEnabled() bool {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.compressor
}

// ToggleCompressor flips the compressor switch and returns the new value.
func (in *Input) ToggleCompressor() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.compressor = !in.compressor
	return in.compressor
}

// Sticks returns both stick positions.
func (in *Input) Sticks() (left, right Stick) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.left, in.right
}

// SetStick moves one stick. Axes are clamped to [-1, 1].
func (in *Input) SetStick(side Side, s Stick) {
	s.X = clamp(s.X)
	s.Y = clamp(s.Y)

	in.mu.Lock()
	defer in.mu.Unlock()
	if side == Right {
		in.right = s
	} else {
		in.left = s
	}
}

// CentreSticks releases both sticks.
func (in *Input) CentreSticks() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.left = Stick{}
	in.right = Stick{}
}

// DriveType returns the selected drive type.
func (in *Input) DriveType() DriveType {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.driveType
}

// SetDriveType selects the drive type.
func (in *Input) SetDriveType(t DriveType) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.driveType = t
}

// SingleStickSide returns the stick used by SingleStick drive.
func (in *Input) SingleStickSide() Side {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.singleSide
}

// SetSingleStickSide picks the stick used by SingleStick drive.
func (in *Input) SetSingleStickSide(side Side) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.singleSide = side
}

func clamp(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

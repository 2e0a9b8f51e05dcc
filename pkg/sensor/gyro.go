package sensor

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/gwillem/cyclebot/pkg/hw"
)

// GyroVariant identifies the native heading source behind a Gyro.
type GyroVariant int

const (
	GyroAnalog GyroVariant = iota
	GyroADXRS450
	GyroNavX
	GyroPigeon
)

func (v GyroVariant) String() string {
	switch v {
	case GyroAnalog:
		return "analog"
	case GyroADXRS450:
		return "adxrs450"
	case GyroNavX:
		return "navx"
	case GyroPigeon:
		return "pigeon_imu"
	}
	return "unknown"
}

// SupportsPitch reports whether the variant has a second axis.
func (v GyroVariant) SupportsPitch() bool {
	return v == GyroNavX || v == GyroPigeon
}

// Axis selects which orientation component reports pitch. Which one does
// depends on how the board is mounted.
type Axis int

const (
	AxisPitch Axis = iota
	AxisRoll
)

func (a Axis) String() string {
	if a == AxisRoll {
		return "roll"
	}
	return "pitch"
}

// DefaultAnalogSensitivity is for a VEX analog yaw rate gyro, in
// volts/degree/second.
const DefaultAnalogSensitivity = 0.00172

// gyroSource reads one native heading sensor.
type gyroSource interface {
	rawAngle() float64
	rate() float64
	calibrate()
	setSensitivity(v float64)
	// orientation returns roll, pitch and yaw. ok is false for single
	// axis sensors.
	orientation() (v r3.Vector, ok bool, err error)
	close() error
}

// Gyro unifies heading sensors. Angle is always in [0, 360).
type Gyro struct {
	variant   GyroVariant
	src       gyroSource
	pol       Polarity[float64]
	pitchAxis Axis
	logger    golog.Logger
}

// NewAnalogGyro wraps an analog rate gyro and applies the default
// sensitivity.
func NewAnalogGyro(g hw.AnalogGyro, inverted bool, logger golog.Logger) *Gyro {
	g.SetSensitivity(DefaultAnalogSensitivity)
	return &Gyro{
		variant: GyroAnalog,
		src:     &analogSource{g: g},
		pol:     Polarity[float64]{Inverted: inverted},
		logger:  logger,
	}
}

// NewADXRS450Gyro wraps an SPI gyro.
func NewADXRS450Gyro(g hw.SPIGyro, inverted bool, logger golog.Logger) *Gyro {
	return &Gyro{
		variant: GyroADXRS450,
		src:     spiSource{g},
		pol:     Polarity[float64]{Inverted: inverted},
		logger:  logger,
	}
}

// NewNavXGyro wraps a navX IMU. pitchAxis names the orientation component
// that reads as pitch on this mount.
func NewNavXGyro(n hw.NavX, inverted bool, pitchAxis Axis, logger golog.Logger) *Gyro {
	return &Gyro{
		variant:   GyroNavX,
		src:       navXSource{n},
		pol:       Polarity[float64]{Inverted: inverted},
		pitchAxis: pitchAxis,
		logger:    logger,
	}
}

// NewPigeonGyro wraps a Pigeon IMU.
func NewPigeonGyro(p hw.Pigeon, inverted bool, pitchAxis Axis, logger golog.Logger) *Gyro {
	return &Gyro{
		variant:   GyroPigeon,
		src:       pigeonSource{p},
		pol:       Polarity[float64]{Inverted: inverted},
		pitchAxis: pitchAxis,
		logger:    logger,
	}
}

// Variant returns the native sensor kind.
func (g *Gyro) Variant() GyroVariant {
	return g.variant
}

// PitchAxis returns the configured pitch axis.
func (g *Gyro) PitchAxis() Axis {
	return g.pitchAxis
}

// Inverted reports whether the heading is sign inverted.
func (g *Gyro) Inverted() bool {
	return g.pol.Inverted
}

// SupportsPitch reports whether Pitch can return anything but 0.
func (g *Gyro) SupportsPitch() bool {
	return g.variant.SupportsPitch()
}

// Calibrate runs the native calibration and zeroes the heading.
//
// Some gyros only calibrate on power up; make sure the robot is at rest
// when it is turned on.
func (g *Gyro) Calibrate() {
	g.pol.Offset = 0
	g.src.calibrate()
	g.SetAngle(0)
}

// Angle returns the heading in degrees, 0 <= angle < 360, rounded to three
// decimals.
func (g *Gyro) Angle() float64 {
	return NormalizeAngle(g.pol.Position(g.src.rawAngle()))
}

// Rate returns the heading rate in degrees/second, or 0 when the sensor
// has no rate output.
func (g *Gyro) Rate() float64 {
	return g.pol.Rate(g.src.rate())
}

// Pitch returns the pitch in degrees, or 0 when it is not supported or the
// read fails.
func (g *Gyro) Pitch() float64 {
	v, ok, err := g.src.orientation()
	if !ok {
		return 0
	}
	if err != nil {
		var fault *hw.Fault
		if errors.As(err, &fault) {
			g.logger.Warnw("read pitch failed", "device", fault.Device, "code", fault.Code)
		} else {
			g.logger.Warnw("read pitch failed", "error", err)
		}
		return 0
	}
	if g.pitchAxis == AxisRoll {
		return v.X
	}
	return v.Y
}

// SetAngle makes the current heading read as angle.
func (g *Gyro) SetAngle(angle float64) {
	g.pol.Offset = 0
	g.pol.Offset = -g.Angle() + angle
}

// Reset zeroes the heading. It never recalibrates, so drift is unchanged.
func (g *Gyro) Reset() {
	g.SetAngle(0)
}

// SetSensitivity sets the analog gyro sensitivity in volts/degree/second.
// Other variants ignore it.
func (g *Gyro) SetSensitivity(voltsPerDegreePerSecond float64) {
	g.src.setSensitivity(voltsPerDegreePerSecond)
}

// Close releases the sensor.
func (g *Gyro) Close() error {
	return g.src.close()
}

// analogSource discards single samples that jump by more than a full turn
// from the previous one; analog rate gyros occasionally produce them.
type analogSource struct {
	g       hw.AnalogGyro
	lastRaw float64
	primed  bool
}

func (s *analogSource) rawAngle() float64 {
	raw := s.g.Angle()
	if s.primed && math.Abs(raw-s.lastRaw) > 360 {
		raw = s.lastRaw
	}
	s.lastRaw = raw
	s.primed = true
	return raw
}

func (s *analogSource) rate() float64            { return s.g.Rate() }
func (s *analogSource) calibrate()               { s.g.Calibrate() }
func (s *analogSource) setSensitivity(v float64) { s.g.SetSensitivity(v) }
func (s *analogSource) close() error             { return s.g.Close() }

func (s *analogSource) orientation() (r3.Vector, bool, error) {
	return r3.Vector{}, false, nil
}

type spiSource struct{ g hw.SPIGyro }

func (s spiSource) rawAngle() float64        { return s.g.Angle() }
func (s spiSource) rate() float64            { return s.g.Rate() }
func (s spiSource) calibrate()               { s.g.Calibrate() }
func (s spiSource) setSensitivity(v float64) {}
func (s spiSource) close() error             { return s.g.Close() }

func (s spiSource) orientation() (r3.Vector, bool, error) {
	return r3.Vector{}, false, nil
}

type navXSource struct{ n hw.NavX }

func (s navXSource) rawAngle() float64 { return s.n.Angle() }
func (s navXSource) rate() float64     { return s.n.Rate() }

// The navX calibrates on power up; the call is kept in case that changes.
func (s navXSource) calibrate() { s.n.Calibrate() }

func (s navXSource) setSensitivity(v float64) {}

// close is not supported on the navX.
func (s navXSource) close() error { return nil }

func (s navXSource) orientation() (r3.Vector, bool, error) {
	v, err := s.n.Orientation()
	return v, true, err
}

type pigeonSource struct{ p hw.Pigeon }

func (s pigeonSource) rawAngle() float64 { return s.p.CompassHeading() }

// The Pigeon has no rate output.
func (s pigeonSource) rate() float64 { return 0 }

// The Pigeon calibrates on power up.
func (s pigeonSource) calibrate() {}

func (s pigeonSource) setSensitivity(v float64) {}

func (s pigeonSource) close() error {
	s.p.Destroy()
	return nil
}

func (s pigeonSource) orientation() (r3.Vector, bool, error) {
	v, err := s.p.Orientation()
	return v, true, err
}

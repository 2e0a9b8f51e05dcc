// Package drive implements a differential (left/right) drive base and the
// commands that move it.
//
// Positive speed drives forward on both sides. Headings are in degrees,
// 0 <= heading < 360, increasing clockwise.
package drive

import (
	"github.com/edaniels/golog"
	"go.uber.org/multierr"

	"github.com/gwillem/cyclebot/pkg/hw"
	"github.com/gwillem/cyclebot/pkg/motor"
	"github.com/gwillem/cyclebot/pkg/sensor"
)

// Shifter positions.
const (
	LowGear  = false
	HighGear = true
)

// Config holds the drive constants.
type Config struct {
	// CountsPerInch converts encoder counts to distance travelled.
	CountsPerInch float64
	// GyroKP and GyroKI are the heading controller gains, in output per
	// degree of heading error.
	GyroKP float64
	GyroKI float64
	// MaxRotation limits the steering output of the heading controller.
	MaxRotation float64
	// LowGearSpeed and HighGearSpeed are the top encoder speeds in
	// counts/second, for telemetry.
	LowGearSpeed  float64
	HighGearSpeed float64
}

// DefaultConfig returns the constants of the test robot.
func DefaultConfig() Config {
	return Config{
		CountsPerInch: 55.6,
		GyroKP:        .07,
		GyroKI:        .07 / 20,
		MaxRotation:   .6,
		LowGearSpeed:  320,
		HighGearSpeed: 900,
	}
}

// Drive is the drive base subsystem.
type Drive struct {
	cfg    Config
	logger golog.Logger

	left, right       *motor.Group
	leftEnc, rightEnc *sensor.Encoder
	gyro              *sensor.Gyro
	shifter           hw.Solenoid

	leftSpeed, rightSpeed float64
	turbo                 bool
}

// New builds a drive base. gyro and shifter may be nil. Encoders come from
// the motor groups; a side without one does not count towards distance.
func New(left, right *motor.Group, gyro *sensor.Gyro, shifter hw.Solenoid, cfg Config, logger golog.Logger) *Drive {
	d := &Drive{
		cfg:     cfg,
		logger:  logger,
		left:    left,
		right:   right,
		gyro:    gyro,
		shifter: shifter,
	}

	var err error
	if d.leftEnc, err = left.Encoder(); err != nil {
		logger.Warnw("left side has no encoder", "error", err)
	}
	if d.rightEnc, err = right.Encoder(); err != nil {
		logger.Warnw("right side has no encoder", "error", err)
	}
	if cfg.CountsPerInch <= 0 {
		logger.Warnw("counts per inch not set, distance will read 0")
	}
	if d.shifter != nil {
		d.shifter.Set(LowGear)
	}
	return d
}

// Config returns the drive constants.
func (d *Drive) Config() Config { return d.cfg }

// Logger returns the subsystem logger.
func (d *Drive) Logger() golog.Logger { return d.logger }

// Periodic is called every cycle.
func (d *Drive) Periodic() {}

// SetSpeed drives each side. Values are clamped to [-1, 1].
func (d *Drive) SetSpeed(left, right float64) {
	d.leftSpeed = clamp(left, -1, 1)
	d.rightSpeed = clamp(right, -1, 1)
	d.left.Set(d.leftSpeed)
	d.right.Set(d.rightSpeed)
}

// Speeds returns the last speeds set.
func (d *Drive) Speeds() (left, right float64) {
	return d.leftSpeed, d.rightSpeed
}

// Stop sets both sides to 0.
func (d *Drive) Stop() {
	d.SetSpeed(0, 0)
}

// ResetEncoders zeroes both encoders.
func (d *Drive) ResetEncoders() {
	if d.leftEnc != nil {
		d.leftEnc.Reset()
	}
	if d.rightEnc != nil {
		d.rightEnc.Reset()
	}
}

// EncoderCounts returns both encoder positions.
func (d *Drive) EncoderCounts() (left, right int) {
	if d.leftEnc != nil {
		left = d.leftEnc.Get()
	}
	if d.rightEnc != nil {
		right = d.rightEnc.Get()
	}
	return left, right
}

// DistanceInches returns the distance travelled since the last reset,
// averaged over the sides that have an encoder.
func (d *Drive) DistanceInches() float64 {
	if d.cfg.CountsPerInch <= 0 {
		return 0
	}
	left, right := d.EncoderCounts()
	var n int
	if d.leftEnc != nil {
		n++
	}
	if d.rightEnc != nil {
		n++
	}
	if n == 0 {
		return 0
	}
	return float64(left+right) / float64(n) / d.cfg.CountsPerInch
}

// Heading returns the gyro angle, or 0 without a gyro.
func (d *Drive) Heading() float64 {
	if d.gyro == nil {
		return 0
	}
	return d.gyro.Angle()
}

// Gyro returns the heading sensor, or nil.
func (d *Drive) Gyro() *sensor.Gyro { return d.gyro }

// Motors returns the left and right motor groups.
func (d *Drive) Motors() (left, right *motor.Group) { return d.left, d.right }

// EnableTurbo shifts to high gear.
func (d *Drive) EnableTurbo() {
	d.setTurbo(true)
}

// DisableTurbo shifts to low gear.
func (d *Drive) DisableTurbo() {
	d.setTurbo(false)
}

func (d *Drive) setTurbo(on bool) {
	if d.turbo != on {
		d.logger.Debugw("shift", "turbo", on)
	}
	d.turbo = on
	if d.shifter != nil {
		d.shifter.Set(on)
	}
}

// Turbo reports whether high gear is selected.
func (d *Drive) Turbo() bool { return d.turbo }

// MaxEncoderSpeed is the top speed in counts/second for the current gear.
func (d *Drive) MaxEncoderSpeed() float64 {
	if d.turbo {
		return d.cfg.HighGearSpeed
	}
	return d.cfg.LowGearSpeed
}

// Close stops and releases the motors and the gyro.
func (d *Drive) Close() error {
	d.Stop()
	err := multierr.Combine(d.left.Close(), d.right.Close())
	if d.gyro != nil {
		err = multierr.Append(err, d.gyro.Close())
	}
	return err
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

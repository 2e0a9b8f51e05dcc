// Package hw defines the native device families the robot talks to.
//
// Every vendor exposes its devices differently: CTRE controllers take a
// percent output and report sensor counts, Spark MAX and Venom report motor
// revolutions, PWM controllers only remember the last value written. Each
// family gets one interface here so the adapters in pkg/motor and pkg/sensor
// can select an implementation once, at construction.
package hw

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// ErrClosed is returned when a device is opened on a closed provider.
var ErrClosed = errors.New("hardware provider closed")

// Fault is a vendor device fault code.
type Fault struct {
	Device string
	Code   int
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s fault code %d", f.Device, f.Code)
}

// CTRE is a CTRE motor controller on the CAN bus (Talon SRX, Victor SPX).
// CTRE devices cannot be closed.
type CTRE interface {
	SetPercentOutput(v float64)
	MotorOutputPercent() float64
}

// TalonSRX is a CTRE controller with a quadrature encoder input.
type TalonSRX interface {
	CTRE
	ConfigQuadEncoder() error
	SetSensorPosition(counts int)
	// SensorPosition is in encoder counts.
	SensorPosition() float64
	// SensorVelocity is in encoder counts/second.
	SensorVelocity() float64
}

// RelativeEncoder is the integrated sensor of a Spark MAX.
type RelativeEncoder interface {
	// Position is in motor revolutions.
	Position() float64
	// Velocity is in motor revolutions/second.
	Velocity() float64
}

// SparkMax is a REV Spark MAX on the CAN bus.
type SparkMax interface {
	Set(v float64)
	Get() float64
	Encoder() RelativeEncoder
	Close() error
}

// Venom is a Playing With Fusion Venom on the CAN bus.
type Venom interface {
	Set(v float64)
	Get() float64
	// Position is in motor revolutions.
	Position() float64
	// Speed is in motor revolutions/second.
	Speed() float64
	Close() error
}

// PWM is any PWM-driven speed controller.
type PWM interface {
	Set(v float64)
	Get() float64
	Close() error
}

// ServoWheel is a serial bus servo running in continuous (wheel) mode.
type ServoWheel interface {
	Set(v float64)
	Get() float64
	// Steps is the multi-turn position in servo steps.
	Steps() int
	// StepRate is in servo steps/second.
	StepRate() float64
	// StepsPerRevolution is the servo's native resolution.
	StepsPerRevolution() int
	Close() error
}

// Counter is a single channel pulse counter on a digital input.
type Counter interface {
	Get() int
	Rate() float64
	Close() error
}

// Quadrature is a two channel quadrature encoder on digital inputs.
type Quadrature interface {
	Get() int
	Rate() float64
	Close() error
}

// AnalogGyro is a yaw rate gyro on an analog input whose rate is
// integrated into an angle.
type AnalogGyro interface {
	Angle() float64
	Rate() float64
	Calibrate()
	SetSensitivity(voltsPerDegreePerSecond float64)
	Close() error
}

// SPIGyro is a factory calibrated gyro on the SPI port (ADXRS450).
type SPIGyro interface {
	Angle() float64
	Rate() float64
	Calibrate()
	Close() error
}

// NavX is an inertial measurement unit on the MXP port. It calibrates on
// power up and cannot be closed.
type NavX interface {
	Angle() float64
	Rate() float64
	Calibrate()
	// Orientation returns roll (X), pitch (Y) and yaw (Z) in degrees.
	Orientation() (r3.Vector, error)
}

// Pigeon is a CTRE Pigeon IMU, either on the CAN bus or cabled to a Talon.
type Pigeon interface {
	CompassHeading() float64
	// Orientation returns roll (X), pitch (Y) and yaw (Z) in degrees.
	Orientation() (r3.Vector, error)
	Destroy()
}

// Solenoid is a single acting pneumatic solenoid.
type Solenoid interface {
	Set(on bool)
	Get() bool
}

// Compressor is the pneumatics module compressor.
type Compressor interface {
	SetClosedLoop(on bool)
	ClosedLoop() bool
	Enabled() bool
}

// PowerDistribution is the power distribution panel.
type PowerDistribution interface {
	Current(channel int) float64
	Voltage() float64
}

// PWMModel names a PWM controller model.
type PWMModel string

// CTREModel names a CTRE CAN controller model.
type CTREModel string

const (
	ModelTalonSRX  CTREModel = "talon_srx"
	ModelVictorSPX CTREModel = "victor_spx"
)

// Provider opens native devices by address.
type Provider interface {
	TalonSRX(id int) (TalonSRX, error)
	VictorSPX(id int) (CTRE, error)
	SparkMax(id int, brushless bool) (SparkMax, error)
	Venom(id int) (Venom, error)
	ServoWheel(id int) (ServoWheel, error)
	PWM(model PWMModel, channel int) (PWM, error)

	Counter(channel int) (Counter, error)
	Quadrature(channelA, channelB int) (Quadrature, error)

	AnalogGyro(channel int) (AnalogGyro, error)
	ADXRS450() (SPIGyro, error)
	NavX() (NavX, error)
	Pigeon(id int) (Pigeon, error)
	PigeonOnTalon(talonID int) (Pigeon, error)

	Solenoid(channel int) (Solenoid, error)
	Compressor() (Compressor, error)
	PowerDistribution() (PowerDistribution, error)
}

// Stepper is implemented by providers that advance simulated time.
type Stepper interface {
	Step(dtSeconds float64)
}

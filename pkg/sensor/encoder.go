package sensor

import (
	"github.com/edaniels/golog"

	"github.com/gwillem/cyclebot/pkg/hw"
)

// EncoderVariant identifies the native position source behind an Encoder.
type EncoderVariant int

const (
	EncoderCounter EncoderVariant = iota
	EncoderQuadrature
	EncoderTalonSRX
	EncoderSparkMax
	EncoderVenom
	EncoderServo
)

func (v EncoderVariant) String() string {
	switch v {
	case EncoderCounter:
		return "counter"
	case EncoderQuadrature:
		return "quadrature"
	case EncoderTalonSRX:
		return "talon_srx"
	case EncoderSparkMax:
		return "spark_max"
	case EncoderVenom:
		return "venom"
	case EncoderServo:
		return "servo"
	}
	return "unknown"
}

// Native resolutions of the integrated motor sensors.
const (
	SparkMaxCountsPerRev = 64
	VenomCountsPerRev    = 256
)

// encoderSource reads one native sensor in raw counts.
type encoderSource interface {
	position() int
	rate() float64
}

// Encoder unifies rotary sensors behind a counts based interface.
//
// Position is always the raw count sign corrected plus a zero offset, so
// Reset and Set never touch the hardware.
type Encoder struct {
	variant      EncoderVariant
	src          encoderSource
	countsPerRev int
	pol          Polarity[int]
	logger       golog.Logger
}

func newEncoder(variant EncoderVariant, src encoderSource, countsPerRev int, inverted bool, logger golog.Logger) *Encoder {
	if inverted && variant == EncoderCounter {
		logger.Warnw("inversion is not supported for counter encoders")
		inverted = false
	}
	return &Encoder{
		variant:      variant,
		src:          src,
		countsPerRev: countsPerRev,
		pol:          Polarity[int]{Inverted: inverted},
		logger:       logger,
	}
}

// NewCounterEncoder wraps a single channel pulse counter. Counters cannot
// sense direction, so inversion is refused.
func NewCounterEncoder(c hw.Counter, inverted bool, logger golog.Logger) *Encoder {
	return newEncoder(EncoderCounter, counterSource{c}, 1, inverted, logger)
}

// NewQuadratureEncoder wraps a two channel quadrature encoder.
func NewQuadratureEncoder(q hw.Quadrature, inverted bool, logger golog.Logger) *Encoder {
	return newEncoder(EncoderQuadrature, quadSource{q}, 1, inverted, logger)
}

// NewTalonEncoder wraps the quadrature encoder plugged into a Talon SRX.
// The sensor is selected and zeroed.
func NewTalonEncoder(t hw.TalonSRX, inverted bool, logger golog.Logger) *Encoder {
	if err := t.ConfigQuadEncoder(); err != nil {
		logger.Warnw("select quadrature sensor failed", "error", err)
	}
	t.SetSensorPosition(0)
	return newEncoder(EncoderTalonSRX, talonSource{t}, 1, inverted, logger)
}

// NewSparkMaxEncoder wraps the integrated sensor of a Spark MAX.
func NewSparkMaxEncoder(s hw.SparkMax, inverted bool, logger golog.Logger) *Encoder {
	src := &sparkSource{enc: s.Encoder()}
	return newEncoder(EncoderSparkMax, src, SparkMaxCountsPerRev, inverted, logger)
}

// NewVenomEncoder wraps the integrated sensor of a Venom.
func NewVenomEncoder(v hw.Venom, inverted bool, logger golog.Logger) *Encoder {
	return newEncoder(EncoderVenom, venomSource{v}, VenomCountsPerRev, inverted, logger)
}

// NewServoEncoder wraps the position sensor of a bus servo in wheel mode.
func NewServoEncoder(w hw.ServoWheel, inverted bool, logger golog.Logger) *Encoder {
	return newEncoder(EncoderServo, servoSource{w}, w.StepsPerRevolution(), inverted, logger)
}

// Variant returns the native sensor kind.
func (e *Encoder) Variant() EncoderVariant {
	return e.variant
}

// CountsPerRevolution is the number of counts reported per turn of the
// sensed shaft, or 1 when the source already reports counts.
func (e *Encoder) CountsPerRevolution() int {
	return e.countsPerRev
}

// Get returns the position in encoder counts.
func (e *Encoder) Get() int {
	return e.pol.Position(e.src.position())
}

// Rate returns the speed in encoder counts/second.
func (e *Encoder) Rate() float64 {
	return e.pol.Rate(e.src.rate())
}

// Reset zeroes the position reported from the current reading.
func (e *Encoder) Reset() {
	e.pol.Offset = 0
	e.pol.Offset = -e.Get()
}

// Set makes the current position read as count.
func (e *Encoder) Set(count int) {
	e.pol.Offset = 0
	e.pol.Offset = -e.Get() + count
}

// Inverted reports whether counts are sign inverted.
func (e *Encoder) Inverted() bool {
	return e.pol.Inverted
}

// SetInverted changes the count direction. A change resets the encoder so
// the distance travelled so far is not mirrored across the new direction.
func (e *Encoder) SetInverted(inverted bool) {
	if e.variant == EncoderCounter {
		if inverted {
			e.logger.Warnw("inversion is not supported for counter encoders")
		}
		e.pol.Inverted = false
		return
	}

	if e.pol.Inverted != inverted {
		e.pol.Inverted = inverted
		e.Reset()
	}
}

type counterSource struct{ c hw.Counter }

func (s counterSource) position() int { return s.c.Get() }
func (s counterSource) rate() float64 { return s.c.Rate() }

type quadSource struct{ q hw.Quadrature }

func (s quadSource) position() int { return s.q.Get() }
func (s quadSource) rate() float64 { return s.q.Rate() }

type talonSource struct{ t hw.TalonSRX }

func (s talonSource) position() int { return int(s.t.SensorPosition()) }
func (s talonSource) rate() float64 { return s.t.SensorVelocity() }

// sparkSource filters the exact zero positions the Spark MAX sometimes
// reports between real readings.
type sparkSource struct {
	enc  hw.RelativeEncoder
	prev float64
}

func (s *sparkSource) position() int {
	pos := s.enc.Position()
	if pos == 0 {
		pos = s.prev
	}
	s.prev = pos
	return int(pos * SparkMaxCountsPerRev)
}

func (s *sparkSource) rate() float64 { return s.enc.Velocity() * SparkMaxCountsPerRev }

type venomSource struct{ v hw.Venom }

func (s venomSource) position() int { return int(s.v.Position() * VenomCountsPerRev) }
func (s venomSource) rate() float64 { return s.v.Speed() * VenomCountsPerRev }

type servoSource struct{ w hw.ServoWheel }

func (s servoSource) position() int { return s.w.Steps() }
func (s servoSource) rate() float64 { return s.w.StepRate() }

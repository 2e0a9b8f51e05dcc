package motor

import (
	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/gwillem/cyclebot/pkg/hw"
	"github.com/gwillem/cyclebot/pkg/sensor"
)

// controller drives one native device. The implementation is picked once,
// when the group is built.
type controller interface {
	set(v float64)
	get() float64
	encoder(inverted bool, logger golog.Logger) (*sensor.Encoder, error)
	close() error
}

func open(p hw.Provider, kind Kind, address int) (controller, error) {
	switch kind {
	case TalonSRX:
		t, err := p.TalonSRX(address)
		if err != nil {
			return nil, err
		}
		return ctreController{dev: t, talon: t}, nil
	case VictorSPX:
		v, err := p.VictorSPX(address)
		if err != nil {
			return nil, err
		}
		return ctreController{dev: v}, nil
	case SparkMaxBrushless, SparkMaxBrushed:
		s, err := p.SparkMax(address, kind == SparkMaxBrushless)
		if err != nil {
			return nil, err
		}
		return sparkController{s}, nil
	case Venom:
		v, err := p.Venom(address)
		if err != nil {
			return nil, err
		}
		return venomController{v}, nil
	case FeetechServo:
		w, err := p.ServoWheel(address)
		if err != nil {
			return nil, err
		}
		return servoController{w}, nil
	}

	if kind.IsPWM() {
		pwm, err := p.PWM(hw.PWMModel(kind.String()), address)
		if err != nil {
			return nil, err
		}
		return pwmController{pwm}, nil
	}
	return nil, errors.Wrapf(ErrUnknownKind, "kind %d", int(kind))
}

type ctreController struct {
	dev hw.CTRE
	// talon is nil for a Victor SPX.
	talon hw.TalonSRX
}

func (c ctreController) set(v float64) { c.dev.SetPercentOutput(v) }
func (c ctreController) get() float64  { return c.dev.MotorOutputPercent() }

func (c ctreController) encoder(inverted bool, logger golog.Logger) (*sensor.Encoder, error) {
	if c.talon == nil {
		return nil, ErrNoEncoder
	}
	return sensor.NewTalonEncoder(c.talon, inverted, logger), nil
}

// CTRE devices cannot be closed.
func (c ctreController) close() error { return nil }

type sparkController struct{ s hw.SparkMax }

func (c sparkController) set(v float64) { c.s.Set(v) }
func (c sparkController) get() float64  { return c.s.Get() }
func (c sparkController) close() error  { return c.s.Close() }

func (c sparkController) encoder(inverted bool, logger golog.Logger) (*sensor.Encoder, error) {
	return sensor.NewSparkMaxEncoder(c.s, inverted, logger), nil
}

type venomController struct{ v hw.Venom }

func (c venomController) set(v float64) { c.v.Set(v) }
func (c venomController) get() float64  { return c.v.Get() }
func (c venomController) close() error  { return c.v.Close() }

func (c venomController) encoder(inverted bool, logger golog.Logger) (*sensor.Encoder, error) {
	return sensor.NewVenomEncoder(c.v, inverted, logger), nil
}

type servoController struct{ w hw.ServoWheel }

func (c servoController) set(v float64) { c.w.Set(v) }
func (c servoController) get() float64  { return c.w.Get() }
func (c servoController) close() error  { return c.w.Close() }

func (c servoController) encoder(inverted bool, logger golog.Logger) (*sensor.Encoder, error) {
	return sensor.NewServoEncoder(c.w, inverted, logger), nil
}

type pwmController struct{ p hw.PWM }

func (c pwmController) set(v float64) { c.p.Set(v) }
func (c pwmController) get() float64  { return c.p.Get() }
func (c pwmController) close() error  { return c.p.Close() }

func (c pwmController) encoder(bool, golog.Logger) (*sensor.Encoder, error) {
	return nil, ErrNoEncoder
}

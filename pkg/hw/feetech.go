package hw

import (
	"context"
	"time"

	"github.com/edaniels/golog"
	"github.com/hipsterbrown/feetech-servo/feetech"
	"github.com/pkg/errors"
)

// Feetech STS servos report an absolute position of 4096 steps per turn.
const feetechStepsPerRev = 4096

// FeetechConfig configures a feetech serial bus.
type FeetechConfig struct {
	Port     string
	BaudRate int
	Timeout  time.Duration
	// MaxVelocity is the raw velocity in steps/second commanded at full
	// output.
	MaxVelocity int
}

// FeetechProvider serves the ServoWheel family from a real feetech bus and
// everything else from the wrapped provider.
type FeetechProvider struct {
	Provider

	bus    *feetech.Bus
	cfg    FeetechConfig
	logger golog.Logger
}

// NewFeetechProvider opens the bus described by cfg.
func NewFeetechProvider(base Provider, cfg FeetechConfig, logger golog.Logger) (*FeetechProvider, error) {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = 1_000_000
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 100 * time.Millisecond
	}
	if cfg.MaxVelocity <= 0 {
		cfg.MaxVelocity = 2400
	}

	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     cfg.Port,
		BaudRate: cfg.BaudRate,
		Protocol: feetech.ProtocolSTS,
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open feetech bus %s", cfg.Port)
	}

	return &FeetechProvider{
		Provider: base,
		bus:      bus,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// Close closes the bus. Devices of the wrapped provider are not touched.
func (p *FeetechProvider) Close() error {
	return p.bus.Close()
}

// ServoWheel switches servo id to velocity mode and returns it as a motor.
func (p *FeetechProvider) ServoWheel(id int) (ServoWheel, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 4*p.cfg.Timeout)
	defer cancel()

	servo := feetech.NewServo(p.bus, id, nil)

	// The operating mode can only change with torque off
	if err := servo.Disable(ctx); err != nil {
		return nil, errors.Wrapf(err, "disable servo %d", id)
	}
	if err := servo.SetOperatingMode(ctx, feetech.ModeVelocity); err != nil {
		return nil, errors.Wrapf(err, "set velocity mode on servo %d", id)
	}
	if err := servo.Enable(ctx); err != nil {
		return nil, errors.Wrapf(err, "enable servo %d", id)
	}

	w := &servoWheel{
		id:      id,
		servo:   servo,
		scale:   VelocityScale{Max: p.cfg.MaxVelocity},
		timeout: p.cfg.Timeout,
		logger:  p.logger.Named("feetech"),
		now:     time.Now,
	}
	w.Steps()
	return w, nil
}

// VelocityScale maps a normalized speed in [-1, 1] to raw servo velocity.
type VelocityScale struct {
	Max int
}

// Denormalize converts a normalized speed to a raw velocity. The servo
// cannot go faster than Max, so the speed is limited to [-1, 1].
func (v VelocityScale) Denormalize(speed float64) int {
	speed = min(1, max(-1, speed))
	return int(speed * float64(v.Max))
}

// Normalize converts a raw velocity to a normalized speed.
func (v VelocityScale) Normalize(raw int) float64 {
	if v.Max == 0 {
		return 0
	}
	return float64(raw) / float64(v.Max)
}

// turnCounter extends an absolute single-turn position into a multi-turn
// count, assuming less than half a turn between samples.
type turnCounter struct {
	stepsPerRev int
	last        int
	total       int
	primed      bool
}

func (t *turnCounter) update(raw int) int {
	if !t.primed {
		t.last = raw
		t.total = raw
		t.primed = true
		return t.total
	}
	delta := raw - t.last
	half := t.stepsPerRev / 2
	switch {
	case delta > half:
		delta -= t.stepsPerRev
	case delta < -half:
		delta += t.stepsPerRev
	}
	t.last = raw
	t.total += delta
	return t.total
}

type servoWheel struct {
	id      int
	servo   *feetech.Servo
	scale   VelocityScale
	timeout time.Duration
	logger  golog.Logger
	now     func() time.Time

	speed    float64
	turns    turnCounter
	steps    int
	sampled  time.Time
	stepRate float64
}

func (w *servoWheel) Set(v float64) {
	w.speed = v
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if err := w.servo.SetVelocity(ctx, w.scale.Denormalize(v)); err != nil {
		w.logger.Warnw("set velocity failed", "servo", w.id, "error", err)
	}
}

func (w *servoWheel) Get() float64 {
	return w.speed
}

// Steps reads the position. A failed read keeps the last good position.
func (w *servoWheel) Steps() int {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	raw, err := w.servo.Position(ctx)
	if err != nil {
		w.logger.Warnw("read position failed", "servo", w.id, "error", err)
		return w.steps
	}
	w.sample(raw, w.now())
	return w.steps
}

func (w *servoWheel) sample(raw int, at time.Time) {
	if w.turns.stepsPerRev == 0 {
		w.turns.stepsPerRev = feetechStepsPerRev
	}
	steps := w.turns.update(raw)
	if !w.sampled.IsZero() {
		if dt := at.Sub(w.sampled).Seconds(); dt > 0 {
			w.stepRate = float64(steps-w.steps) / dt
		}
	}
	w.steps = steps
	w.sampled = at
}

// StepRate is the rate measured between the last two position reads.
func (w *servoWheel) StepRate() float64 {
	return w.stepRate
}

func (w *servoWheel) StepsPerRevolution() int {
	return feetechStepsPerRev
}

func (w *servoWheel) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*w.timeout)
	defer cancel()
	if err := w.servo.SetVelocity(ctx, 0); err != nil {
		return errors.Wrapf(err, "stop servo %d", w.id)
	}
	return w.servo.Disable(ctx)
}

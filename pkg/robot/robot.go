package robot

import (
	"fmt"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/gwillem/cyclebot/pkg/command"
	"github.com/gwillem/cyclebot/pkg/drive"
	"github.com/gwillem/cyclebot/pkg/hw"
	"github.com/gwillem/cyclebot/pkg/motor"
	"github.com/gwillem/cyclebot/pkg/oi"
	"github.com/gwillem/cyclebot/pkg/sensor"
)

// Robot holds the subsystems of one robot and the scheduler that runs them.
type Robot struct {
	Drive *drive.Drive
	// Pneumatics is nil when the config disables it.
	Pneumatics *Pneumatics
	Power      *Power
	Input      *oi.Input
	Scheduler  *command.Scheduler

	cfg    *Config
	clock  command.Clock
	logger golog.Logger
}

// New opens every device named in cfg on p and registers the subsystems
// with a new scheduler. Devices already opened are closed again when a
// later one fails.
func New(p hw.Provider, cfg *Config, clock command.Clock, logger golog.Logger) (*Robot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	driveType, _ := oi.ParseDriveType(cfg.Operator.DriveType)

	r := &Robot{
		Input:     oi.New(driveType),
		Scheduler: command.NewScheduler(logger.Named("scheduler")),
		cfg:       cfg,
		clock:     clock,
		logger:    logger,
	}

	d, err := newDrive(p, cfg, logger.Named("drive"))
	if err != nil {
		return nil, err
	}
	r.Drive = d

	if cfg.Pneumatics.Enabled {
		c, err := p.Compressor()
		if err != nil {
			return nil, multierr.Append(errors.Wrap(err, "open compressor"), r.Close())
		}
		r.Pneumatics = NewPneumatics(c, logger.Named("pneumatics"))
	}

	pdp, err := p.PowerDistribution()
	if err != nil {
		return nil, multierr.Append(errors.Wrap(err, "open power distribution"), r.Close())
	}
	r.Power = NewPower(pdp, cfg.PowerChannels)

	r.Scheduler.Register(r.Drive, r.Power)
	r.Scheduler.SetDefault(r.Drive, drive.NewDefault(r.Input, r.Drive, command.WithClock(clock)))
	if r.Pneumatics != nil {
		r.Scheduler.SetDefault(r.Pneumatics, NewCompressorCommand(r.Input, r.Pneumatics, command.WithClock(clock)))
	}

	left, right := r.Drive.Motors()
	logger.Infow("robot ready",
		"left", left.Description(),
		"right", right.Description(),
		"gyro", cfg.Gyro.Kind,
		"hz", cfg.Hz,
	)
	return r, nil
}

func newDrive(p hw.Provider, cfg *Config, logger golog.Logger) (*drive.Drive, error) {
	left, err := newMotorGroup(p, cfg.Drive.Left, logger.Named("left"))
	if err != nil {
		return nil, errors.Wrap(err, "left motors")
	}
	right, err := newMotorGroup(p, cfg.Drive.Right, logger.Named("right"))
	if err != nil {
		return nil, multierr.Append(errors.Wrap(err, "right motors"), left.Close())
	}

	closeMotors := func(err error) error {
		return multierr.Combine(err, left.Close(), right.Close())
	}

	gyro, err := newGyro(p, cfg.Gyro, logger.Named("gyro"))
	if err != nil {
		return nil, closeMotors(errors.Wrap(err, "gyro"))
	}
	if gyro != nil {
		gyro.Calibrate()
	}

	var shifter hw.Solenoid
	if cfg.Drive.ShifterChannel != NoChannel {
		if shifter, err = p.Solenoid(cfg.Drive.ShifterChannel); err != nil {
			err = errors.Wrap(err, "shifter")
			if gyro != nil {
				err = multierr.Append(err, gyro.Close())
			}
			return nil, closeMotors(err)
		}
	}

	return drive.New(left, right, gyro, shifter, cfg.DriveConstants(), logger), nil
}

func newMotorGroup(p hw.Provider, mc MotorConfig, logger golog.Logger) (*motor.Group, error) {
	kind, err := motor.ParseKind(mc.Kind)
	if err != nil {
		return nil, err
	}
	if mc.FollowerKind == "" {
		return motor.New(p, logger, kind, mc.Address, mc.Inverted, mc.Followers...)
	}
	followerKind, err := motor.ParseKind(mc.FollowerKind)
	if err != nil {
		return nil, err
	}
	if len(mc.Followers) != 1 {
		return nil, errors.Errorf("a %s follower needs exactly one address", followerKind)
	}
	return motor.NewMixed(p, logger, kind, mc.Address, followerKind, mc.Followers[0], mc.Inverted)
}

// newGyro opens the configured gyro, or returns nil for GyroNone.
func newGyro(p hw.Provider, gc GyroConfig, logger golog.Logger) (*sensor.Gyro, error) {
	attrs, err := gc.DecodeAttributes()
	if err != nil {
		return nil, err
	}
	axis, err := parseAxis(attrs.PitchAxis)
	if err != nil {
		return nil, err
	}
	if attrs.Sensitivity != 0 && gc.Kind != GyroAnalog {
		logger.Warnw("sensitivity only applies to analog gyros, ignored", "kind", gc.Kind)
	}

	var g *sensor.Gyro
	switch gc.Kind {
	case GyroNone:
		return nil, nil
	case GyroAnalog:
		ag, err := p.AnalogGyro(gc.Port)
		if err != nil {
			return nil, err
		}
		g = sensor.NewAnalogGyro(ag, gc.Inverted, logger)
		if attrs.Sensitivity != 0 {
			g.SetSensitivity(attrs.Sensitivity)
		}
	case GyroADXRS450:
		sg, err := p.ADXRS450()
		if err != nil {
			return nil, err
		}
		g = sensor.NewADXRS450Gyro(sg, gc.Inverted, logger)
	case GyroNavX:
		n, err := p.NavX()
		if err != nil {
			return nil, err
		}
		g = sensor.NewNavXGyro(n, gc.Inverted, axis, logger)
	case GyroPigeon:
		open := p.Pigeon
		if gc.OnTalon {
			open = p.PigeonOnTalon
		}
		pg, err := open(gc.Port)
		if err != nil {
			return nil, err
		}
		g = sensor.NewPigeonGyro(pg, gc.Inverted, axis, logger)
	default:
		return nil, errors.Errorf("unknown gyro kind %q", gc.Kind)
	}
	return g, nil
}

// Config returns the configuration the robot was built from.
func (r *Robot) Config() *Config { return r.cfg }

// Clock returns the clock the robot's commands time out on.
func (r *Robot) Clock() command.Clock { return r.clock }

// Logger returns the robot logger.
func (r *Robot) Logger() golog.Logger { return r.logger }

// Device is one line of the device listing.
type Device struct {
	Subsystem   string
	Name        string
	Description string
}

// Devices lists the opened devices.
func (r *Robot) Devices() []Device {
	left, right := r.Drive.Motors()
	devs := []Device{
		{"drive", "left motors", left.Description()},
		{"drive", "right motors", right.Description()},
	}
	for _, side := range []struct {
		name string
		g    *motor.Group
	}{{"left encoder", left}, {"right encoder", right}} {
		desc := "none"
		if enc, err := side.g.Encoder(); err == nil {
			desc = enc.Variant().String()
			if cpr := enc.CountsPerRevolution(); cpr > 1 {
				desc += fmt.Sprintf(", %d counts/rev", cpr)
			}
			if enc.Inverted() {
				desc += ", inverted"
			}
		}
		devs = append(devs, Device{"drive", side.name, desc})
	}

	gyro := "none"
	if g := r.Drive.Gyro(); g != nil {
		gyro = g.Variant().String()
		if g.SupportsPitch() {
			gyro += ", pitch from " + g.PitchAxis().String()
		}
		if g.Inverted() {
			gyro += ", inverted"
		}
	}
	devs = append(devs, Device{"drive", "gyro", gyro})

	if r.Pneumatics != nil {
		devs = append(devs, Device{"pneumatics", "compressor", "closed loop"})
	}
	for _, ch := range r.Power.Channels() {
		devs = append(devs, Device{"power", fmt.Sprintf("channel %d", ch), "current"})
	}
	return devs
}

// Close stops the scheduler and releases the devices.
func (r *Robot) Close() error {
	r.Scheduler.CancelAll()
	var err error
	if r.Drive != nil {
		err = multierr.Append(err, r.Drive.Close())
	}
	if r.Pneumatics != nil {
		r.Pneumatics.Disable()
	}
	return err
}

package drive

import (
	"fmt"
	"math"
	"time"

	"github.com/gwillem/cyclebot/pkg/command"
	"github.com/gwillem/cyclebot/pkg/sensor"
)

// HeadingTolerance is how close in degrees RotateToHeading must get.
const HeadingTolerance = 2.0

// DefaultRotateTimeout bounds RotateToHeading when no timeout is given.
const DefaultRotateTimeout = 5 * time.Second

func validHeading(h float64) bool {
	return h >= 0 && h < 360
}

// headingPI steers towards a target heading.
type headingPI struct {
	kP, kI, max float64
	integral    float64
}

func (p *headingPI) reset() {
	p.integral = 0
}

// steer returns the rotation output for a heading error in degrees over dt
// seconds. The integral is bounded so its term alone never exceeds max.
func (p *headingPI) steer(errDeg, dt float64) float64 {
	if p.kI > 0 && dt > 0 {
		p.integral += errDeg * dt
		limit := p.max / p.kI
		p.integral = clamp(p.integral, -limit, limit)
	}
	return clamp(p.kP*errDeg+p.kI*p.integral, -p.max, p.max)
}

// HeadingDistance drives on a heading until the robot has travelled a
// distance.
type HeadingDistance struct {
	*command.Safe
	inches  float64
	heading float64
	speed   float64
	brake   bool
	drive   *Drive

	pi   headingPI
	last time.Duration
}

// NewHeadingDistance creates the command. heading must be in [0, 360) or
// the command ends on its first poll. speed is clamped to [0, 1].
func NewHeadingDistance(inches, heading, speed float64, timeout time.Duration, brake bool, d *Drive, cancel func() bool, opts ...command.Option) *HeadingDistance {
	cfg := d.Config()
	c := &HeadingDistance{
		inches:  inches,
		heading: heading,
		speed:   clamp(speed, 0, 1),
		brake:   brake,
		drive:   d,
		pi:      headingPI{kP: cfg.GyroKP, kI: cfg.GyroKI, max: cfg.MaxRotation},
	}
	opts = append([]command.Option{
		command.WithLogger(d.Logger()),
		command.WithRequirements(d),
		command.WithDescription(func() string {
			return fmt.Sprintf("(dist %.1fin, heading %.1f, speed %.2f, %s)", c.inches, c.heading, c.speed, endMode(c.brake))
		}),
	}, opts...)
	c.Safe = command.NewSafe("drive-on-heading", timeout, cancel, opts...)
	return c
}

func (c *HeadingDistance) Initialize() {
	c.Safe.Initialize()
	c.drive.ResetEncoders()
	c.pi.reset()
	c.last = 0

	if !validHeading(c.heading) {
		c.Logger().Errorw("heading must be in [0, 360), command ends", "heading", c.heading)
		c.Finish()
	}
}

func (c *HeadingDistance) Execute() {
	if c.State() != command.Running {
		return
	}
	now := c.Elapsed()
	dt := (now - c.last).Seconds()
	c.last = now

	steer := c.pi.steer(sensor.HeadingError(c.heading, c.drive.Heading()), dt)
	c.drive.SetSpeed(c.speed+steer, c.speed-steer)
}

func (c *HeadingDistance) IsFinished() bool {
	return c.Until(func() bool { return c.drive.DistanceInches() >= c.inches })
}

func (c *HeadingDistance) End(interrupted bool) {
	c.Safe.End(interrupted)
	c.Logger().Infow(c.Name()+" ending", "distance", c.drive.DistanceInches())
	if c.brake {
		c.drive.SetSpeed(0, 0)
	}
}

// RotateToHeading turns in place until the heading is within
// HeadingTolerance of the target.
type RotateToHeading struct {
	*command.Safe
	heading float64
	drive   *Drive
	kP, max float64
}

// NewRotateToHeading creates the command. A timeout of 0 uses
// DefaultRotateTimeout.
func NewRotateToHeading(heading float64, timeout time.Duration, d *Drive, cancel func() bool, opts ...command.Option) *RotateToHeading {
	if timeout == 0 {
		timeout = DefaultRotateTimeout
	}
	cfg := d.Config()
	c := &RotateToHeading{heading: heading, drive: d, kP: cfg.GyroKP, max: cfg.MaxRotation}
	opts = append([]command.Option{
		command.WithLogger(d.Logger()),
		command.WithRequirements(d),
		command.WithDescription(func() string {
			return fmt.Sprintf("(heading %.1f)", c.heading)
		}),
	}, opts...)
	c.Safe = command.NewSafe("rotate-to-heading", timeout, cancel, opts...)
	return c
}

func (c *RotateToHeading) Initialize() {
	c.Safe.Initialize()
	if !validHeading(c.heading) {
		c.Logger().Errorw("heading must be in [0, 360), command ends", "heading", c.heading)
		c.Finish()
	}
}

func (c *RotateToHeading) headingError() float64 {
	return sensor.HeadingError(c.heading, c.drive.Heading())
}

func (c *RotateToHeading) Execute() {
	if c.State() != command.Running {
		return
	}
	out := clamp(c.kP*c.headingError(), -c.max, c.max)
	c.drive.SetSpeed(out, -out)
}

func (c *RotateToHeading) IsFinished() bool {
	return c.Until(func() bool { return math.Abs(c.headingError()) <= HeadingTolerance })
}

func (c *RotateToHeading) End(interrupted bool) {
	c.Safe.End(interrupted)
	c.drive.SetSpeed(0, 0)
}

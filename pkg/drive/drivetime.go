package drive

import (
	"fmt"
	"time"

	"github.com/gwillem/cyclebot/pkg/command"
)

// DriveTime drives straight at a fixed speed until its timeout, without
// heading control.
type DriveTime struct {
	*command.Safe
	speed float64
	brake bool
	drive *Drive
}

// NewDriveTime creates the command. speed is clamped to [0, 1]; the
// timeout is how long to drive.
func NewDriveTime(speed float64, timeout time.Duration, brake bool, d *Drive, cancel func() bool, opts ...command.Option) *DriveTime {
	c := &DriveTime{
		speed: clamp(speed, 0, 1),
		brake: brake,
		drive: d,
	}
	opts = append([]command.Option{
		command.WithLogger(d.Logger()),
		command.WithRequirements(d),
		command.WithDescription(func() string {
			return fmt.Sprintf("(speed %.2f, %.1fs, %s)", c.speed, timeout.Seconds(), endMode(c.brake))
		}),
	}, opts...)
	c.Safe = command.NewSafe("drive-time", timeout, cancel, opts...)
	return c
}

func (c *DriveTime) Initialize() {
	c.Safe.Initialize()
	c.drive.SetSpeed(c.speed, c.speed)
}

func (c *DriveTime) Execute() {
	c.drive.SetSpeed(c.speed, c.speed)
}

func (c *DriveTime) End(interrupted bool) {
	c.Safe.End(interrupted)
	if c.brake {
		c.drive.SetSpeed(0, 0)
	}
}

func endMode(brake bool) string {
	if brake {
		return "brake"
	}
	return "coast"
}

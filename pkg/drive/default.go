package drive

import (
	"github.com/gwillem/cyclebot/pkg/command"
	"github.com/gwillem/cyclebot/pkg/oi"
)

// Operator is the operator input the default command reads.
type Operator interface {
	Turbo() bool
	Sticks() (left, right oi.Stick)
	DriveType() oi.DriveType
	SingleStickSide() oi.Side
}

// Default drives from the operator sticks. It never finishes; the
// scheduler interrupts it when an autonomous command needs the drive.
type Default struct {
	*command.Safe
	op    Operator
	drive *Drive
}

// NewDefault creates the default drive command.
func NewDefault(op Operator, d *Drive, opts ...command.Option) *Default {
	c := &Default{op: op, drive: d}
	opts = append([]command.Option{
		command.WithLogger(d.Logger()),
		command.WithRequirements(d),
		command.WithDescription(func() string { return "(" + op.DriveType().String() + ")" }),
	}, opts...)
	c.Safe = command.NewSafe("default-drive", command.NoTimeout, nil, opts...)
	return c
}

func (c *Default) Execute() {
	if c.op.Turbo() {
		c.drive.EnableTurbo()
	} else {
		c.drive.DisableTurbo()
	}

	left, right := c.op.Sticks()
	c.drive.SetSpeed(Mix(c.op.DriveType(), left, right, c.op.SingleStickSide()))
}

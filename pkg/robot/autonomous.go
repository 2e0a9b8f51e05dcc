package robot

import (
	"time"

	"github.com/gwillem/cyclebot/pkg/command"
	"github.com/gwillem/cyclebot/pkg/drive"
)

const (
	brake = true
	coast = false
)

// Autonomous builds the routine for pattern. Every step stops early when
// the operator presses cancel.
func (r *Robot) Autonomous(pattern Pattern, start StartPosition) *command.Sequence {
	r.logger.Infow("autonomous configuration",
		"start_position", start,
		"pattern", pattern,
	)

	d := r.Drive
	cancel := r.Input.Cancel
	opts := []command.Option{command.WithClock(r.clock)}
	stepTimeout := r.cfg.CommandTimeout()

	headingDistance := func(inches, heading, speed float64, timeout time.Duration, brake bool) command.Command {
		return drive.NewHeadingDistance(inches, heading, speed, timeout, brake, d, cancel, opts...)
	}
	rotate := func(heading float64) command.Command {
		return drive.NewRotateToHeading(heading, stepTimeout, d, cancel, opts...)
	}

	var steps []command.Command
	switch pattern {
	case StraightWithPID:
		steps = append(steps, headingDistance(250, 0, .95, 15*time.Second, brake))

	case Box:
		// 2 ft out, then a 3 ft box
		steps = append(steps,
			headingDistance(24, 0, .5, stepTimeout, coast),
			headingDistance(36, 0, .5, stepTimeout, brake),
			rotate(90),
			headingDistance(36, 90, .5, stepTimeout, brake),
			rotate(180),
			headingDistance(36, 180, .5, stepTimeout, brake),
			rotate(270),
			headingDistance(36, 270, .5, stepTimeout, brake),
			rotate(0),
		)

	default:
		steps = append(steps, drive.NewDriveTime(.95, 6*time.Second, brake, d, cancel, opts...))
	}

	return command.NewSequence("autonomous", cancel, steps,
		command.WithLogger(r.logger.Named("autonomous")),
		command.WithClock(r.clock),
	)
}

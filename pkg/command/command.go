// Package command runs robot behaviours one control cycle at a time.
//
// A Command is initialized once, executed and polled every cycle until it
// reports finished, then ended once. Safe supplies the timeout, cancel and
// interrupt handling every concrete command shares.
package command

import "time"

// Command is a behaviour run by the Scheduler.
type Command interface {
	Initialize()
	Execute()
	IsFinished() bool
	End(interrupted bool)
}

// Subsystem is a mechanism that at most one command drives at a time.
type Subsystem interface {
	// Periodic runs every cycle whether or not a command uses the
	// subsystem.
	Periodic()
}

// Requirer is implemented by commands that need exclusive use of
// subsystems.
type Requirer interface {
	Requirements() []Subsystem
}

// Clock tells commands the time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ManualClock only moves when advanced. The control loop uses it to run
// commands on simulated time.
type ManualClock struct {
	t time.Time
}

// NewManualClock returns a clock set to start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{t: start}
}

func (c *ManualClock) Now() time.Time { return c.t }

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func requirements(c Command) []Subsystem {
	if r, ok := c.(Requirer); ok {
		return r.Requirements()
	}
	return nil
}

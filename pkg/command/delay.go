package command

import (
	"fmt"
	"time"
)

// Delay waits for a fixed time, for example between steps of an autonomous
// routine.
type Delay struct {
	*Safe
	d time.Duration
}

// NewDelay creates a command that completes after d, or earlier when cancel
// fires.
func NewDelay(d time.Duration, cancel func() bool, opts ...Option) *Delay {
	c := &Delay{d: d}
	opts = append([]Option{WithDescription(func() string {
		return fmt.Sprintf("(%.1fs)", c.d.Seconds())
	})}, opts...)
	c.Safe = NewSafe("delay", NoTimeout, cancel, opts...)
	return c
}

func (c *Delay) IsFinished() bool {
	return c.Until(func() bool { return c.Elapsed() >= c.d })
}

// Package control runs the robot control loop.
package control

import (
	"context"
	"sync"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/gwillem/cyclebot/pkg/command"
	"github.com/gwillem/cyclebot/pkg/hw"
	"github.com/gwillem/cyclebot/pkg/robot"
)

// State is the telemetry published after every cycle.
type State struct {
	Heading    float64
	Distance   float64
	Left       float64
	Right      float64
	Turbo      bool
	Compressor bool
	Voltage    float64
	Currents   map[int]float64
	// Commands describes the scheduled commands.
	Commands  []string
	Timestamp time.Time
}

// Controller manages the control loop.
type Controller struct {
	robot   *robot.Robot
	hz      int
	stepper hw.Stepper
	clock   *command.ManualClock
	logger  golog.Logger

	mu       sync.Mutex
	running  bool
	requests []func()

	stateCh chan State
}

// Config holds configuration for the controller.
type Config struct {
	Hz int
	// Stepper advances simulated hardware by one period per cycle.
	Stepper hw.Stepper
	// Clock, when set, is advanced by one period per cycle instead of
	// following the wall clock.
	Clock *command.ManualClock
}

// NewController creates a controller for r.
func NewController(r *robot.Robot, cfg Config) *Controller {
	if cfg.Hz <= 0 {
		cfg.Hz = 50
	}
	return &Controller{
		robot:   r,
		hz:      cfg.Hz,
		stepper: cfg.Stepper,
		clock:   cfg.Clock,
		logger:  r.Logger().Named("control"),
		stateCh: make(chan State, 1),
	}
}

// Close releases the robot.
func (c *Controller) Close() error {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()
	return c.robot.Close()
}

// States returns a channel that receives state updates.
func (c *Controller) States() <-chan State {
	return c.stateCh
}

// Hz returns the control frequency.
func (c *Controller) Hz() int {
	return c.hz
}

// Period is the time between cycles.
func (c *Controller) Period() time.Duration {
	return time.Second / time.Duration(c.hz)
}

// Robot returns the controlled robot. Its input may be used from any
// goroutine; everything else belongs to the loop.
func (c *Controller) Robot() *robot.Robot {
	return c.robot
}

// Do runs f on the loop at the start of the next cycle.
func (c *Controller) Do(f func()) {
	c.mu.Lock()
	c.requests = append(c.requests, f)
	c.mu.Unlock()
}

// RunAutonomous schedules the autonomous routine for pattern. A routine
// still running is interrupted.
func (c *Controller) RunAutonomous(pattern robot.Pattern, start robot.StartPosition) {
	c.Do(func() {
		c.robot.Input.SetCancel(false)
		c.robot.Scheduler.Schedule(c.robot.Autonomous(pattern, start))
	})
}

// Start runs the control loop until ctx is done.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errors.New("already running")
	}
	c.running = true
	c.mu.Unlock()

	c.logger.Infof("control loop started at %d Hz", c.hz)

	ticker := time.NewTicker(c.Period())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return ctx.Err()
		case <-ticker.C:
			c.Step()
		}
	}
}

// Step runs one cycle: pending requests, simulated time, the scheduler,
// then telemetry.
func (c *Controller) Step() {
	c.mu.Lock()
	requests := c.requests
	c.requests = nil
	c.mu.Unlock()
	for _, f := range requests {
		f()
	}

	dt := c.Period()
	if c.stepper != nil {
		c.stepper.Step(dt.Seconds())
	}
	if c.clock != nil {
		c.clock.Advance(dt)
	}
	c.robot.Scheduler.Run()

	c.sendState(c.snapshot())
}

func (c *Controller) snapshot() State {
	r := c.robot
	s := State{
		Heading:   r.Drive.Heading(),
		Distance:  r.Drive.DistanceInches(),
		Turbo:     r.Drive.Turbo(),
		Voltage:   r.Power.Voltage(),
		Currents:  r.Power.Currents(),
		Timestamp: r.Clock().Now(),
	}
	s.Left, s.Right = r.Drive.Speeds()
	if r.Pneumatics != nil {
		s.Compressor = r.Pneumatics.Enabled()
	}
	for _, cmd := range r.Scheduler.Running() {
		if d, ok := cmd.(interface{ Description() string }); ok {
			s.Commands = append(s.Commands, d.Description())
		}
	}
	return s
}

func (c *Controller) sendState(s State) {
	select {
	case c.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-c.stateCh:
		default:
		}
		c.stateCh <- s
	}
}

func (c *Controller) shutdown() {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	c.robot.Scheduler.CancelAll()
	c.robot.Drive.Stop()
	c.logger.Info("control loop stopped")
}

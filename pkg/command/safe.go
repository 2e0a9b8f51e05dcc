package command

import (
	"time"

	"github.com/edaniels/golog"
)

// State is where a command is in its lifecycle.
type State int

const (
	Idle State = iota
	Running
	TimedOut
	Cancelled
	Completed
	Interrupted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case TimedOut:
		return "timed out"
	case Cancelled:
		return "cancelled"
	case Completed:
		return "completed"
	case Interrupted:
		return "interrupted"
	}
	return "unknown"
}

// Done reports whether s is a terminal state.
func (s State) Done() bool {
	return s > Running
}

// NoTimeout disables the deadline of a Safe command. Any negative timeout
// does the same.
const NoTimeout time.Duration = -1

// Option configures a Safe command.
type Option func(*Safe)

// WithLogger sets the logger. The default is the global logger.
func WithLogger(logger golog.Logger) Option {
	return func(s *Safe) { s.logger = logger }
}

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(s *Safe) { s.clock = c }
}

// WithDescription adds the command parameters to every log line.
func WithDescription(describe func() string) Option {
	return func(s *Safe) { s.describe = describe }
}

// WithRequirements names the subsystems the command drives.
func WithRequirements(subsystems ...Subsystem) Option {
	return func(s *Safe) { s.requirements = subsystems }
}

// Safe is the skeleton every command embeds. It ends the command when the
// cancel predicate fires or the timeout expires, and records why the command
// stopped.
//
// Checks run in a fixed order every poll: cancel, then timeout, then the
// command's own completion condition.
type Safe struct {
	name         string
	timeout      time.Duration
	cancel       func() bool
	describe     func() string
	clock        Clock
	logger       golog.Logger
	requirements []Subsystem

	state    State
	start    time.Time
	deadline time.Time
}

// NewSafe creates the skeleton. timeout may be NoTimeout and cancel may be
// nil.
func NewSafe(name string, timeout time.Duration, cancel func() bool, opts ...Option) *Safe {
	s := &Safe{
		name:    name,
		timeout: timeout,
		cancel:  cancel,
		clock:   SystemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = golog.Global()
	}
	return s
}

// Name returns the command name.
func (s *Safe) Name() string { return s.name }

// State returns the lifecycle state.
func (s *Safe) State() State { return s.state }

// Timeout returns the configured timeout, or NoTimeout.
func (s *Safe) Timeout() time.Duration { return s.timeout }

// Logger returns the command's logger.
func (s *Safe) Logger() golog.Logger { return s.logger }

// Requirements returns the subsystems the command drives.
func (s *Safe) Requirements() []Subsystem { return s.requirements }

// Description is the name followed by the parameters, if any.
func (s *Safe) Description() string {
	if s.describe == nil {
		return s.name
	}
	return s.name + " " + s.describe()
}

// Elapsed returns the time since Initialize.
func (s *Safe) Elapsed() time.Duration {
	if s.state == Idle {
		return 0
	}
	return s.clock.Now().Sub(s.start)
}

// Initialize starts the command.
func (s *Safe) Initialize() {
	s.start = s.clock.Now()
	if s.timeout >= 0 {
		s.deadline = s.start.Add(s.timeout)
	}
	s.state = Running
	s.logger.Infof("%s starting", s.Description())
}

// Execute does nothing; commands that act every cycle override it.
func (s *Safe) Execute() {}

// IsFinished reports whether the command was cancelled or timed out.
func (s *Safe) IsFinished() bool {
	return s.Until(nil)
}

// Until is IsFinished with an extra completion condition that is checked
// after cancel and timeout. done may be nil.
func (s *Safe) Until(done func() bool) bool {
	switch {
	case s.state.Done():
		return true
	case s.state != Running:
		return false
	case s.cancel != nil && s.cancel():
		s.finish(Cancelled)
	case s.timeout >= 0 && !s.clock.Now().Before(s.deadline):
		s.finish(TimedOut)
	case done != nil && done():
		s.finish(Completed)
	default:
		return false
	}
	return true
}

// Finish marks a running command Completed so the next poll reports it
// finished. Commands use it when they find they cannot run.
func (s *Safe) Finish() {
	if s.state == Running {
		s.finish(Completed)
	}
}

func (s *Safe) finish(state State) {
	s.state = state
	s.logger.Infow(s.Description()+" "+state.String(), "elapsed", s.Elapsed().Seconds())
}

// End records an interruption if the command was still running.
func (s *Safe) End(interrupted bool) {
	if s.state != Running {
		return
	}
	if interrupted {
		s.finish(Interrupted)
		return
	}
	s.finish(Completed)
}

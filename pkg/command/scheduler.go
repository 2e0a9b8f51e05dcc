package command

import (
	"github.com/edaniels/golog"
)

// Scheduler runs commands and subsystem periodics, one cycle per Run.
// It is not safe for concurrent use; call it from the control loop only.
type Scheduler struct {
	logger golog.Logger

	subsystems []Subsystem
	defaults   map[Subsystem]Command
	owners     map[Subsystem]Command
	scheduled  []Command
}

// NewScheduler creates an empty scheduler.
func NewScheduler(logger golog.Logger) *Scheduler {
	return &Scheduler{
		logger:   logger,
		defaults: make(map[Subsystem]Command),
		owners:   make(map[Subsystem]Command),
	}
}

// Register adds subsystems whose Periodic runs every cycle.
func (s *Scheduler) Register(subsystems ...Subsystem) {
	for _, sub := range subsystems {
		if !containsSubsystem(s.subsystems, sub) {
			s.subsystems = append(s.subsystems, sub)
		}
	}
}

// SetDefault sets the command that drives sub whenever no other command
// requires it. The command must require sub.
func (s *Scheduler) SetDefault(sub Subsystem, c Command) {
	if !containsSubsystem(requirements(c), sub) {
		s.logger.Warnw("default command does not require its subsystem, ignored")
		return
	}
	s.Register(sub)
	s.defaults[sub] = c
}

// Schedule initializes c and runs it from the next Run. Commands holding a
// subsystem c requires are interrupted first. Scheduling a running command
// does nothing.
func (s *Scheduler) Schedule(c Command) {
	if s.IsScheduled(c) {
		return
	}
	for _, sub := range requirements(c) {
		if owner, ok := s.owners[sub]; ok {
			s.Cancel(owner)
		}
	}
	for _, sub := range requirements(c) {
		s.owners[sub] = c
	}
	s.scheduled = append(s.scheduled, c)
	c.Initialize()
}

// Cancel interrupts a scheduled command.
func (s *Scheduler) Cancel(c Command) {
	if !s.remove(c) {
		return
	}
	c.End(true)
}

// CancelAll interrupts every scheduled command.
func (s *Scheduler) CancelAll() {
	for len(s.scheduled) > 0 {
		s.Cancel(s.scheduled[0])
	}
}

// IsScheduled reports whether c is running.
func (s *Scheduler) IsScheduled(c Command) bool {
	for _, sc := range s.scheduled {
		if sc == c {
			return true
		}
	}
	return false
}

// Running returns the scheduled commands in scheduling order.
func (s *Scheduler) Running() []Command {
	return append([]Command(nil), s.scheduled...)
}

// Run runs one cycle: subsystem periodics, then every scheduled command,
// then the default commands of idle subsystems.
func (s *Scheduler) Run() {
	for _, sub := range s.subsystems {
		sub.Periodic()
	}

	for _, c := range s.Running() {
		if !s.IsScheduled(c) {
			continue
		}
		c.Execute()
		if c.IsFinished() {
			s.remove(c)
			c.End(false)
		}
	}

	for _, sub := range s.subsystems {
		def, ok := s.defaults[sub]
		if !ok {
			continue
		}
		if _, busy := s.owners[sub]; !busy {
			s.Schedule(def)
		}
	}
}

func (s *Scheduler) remove(c Command) bool {
	for i, sc := range s.scheduled {
		if sc != c {
			continue
		}
		s.scheduled = append(s.scheduled[:i], s.scheduled[i+1:]...)
		for _, sub := range requirements(c) {
			if s.owners[sub] == c {
				delete(s.owners, sub)
			}
		}
		return true
	}
	return false
}

func containsSubsystem(list []Subsystem, sub Subsystem) bool {
	for _, s := range list {
		if s == sub {
			return true
		}
	}
	return false
}

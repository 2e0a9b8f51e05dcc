package command

import (
	"testing"
	"time"

	"github.com/edaniels/golog"
)

type fakeSubsystem struct {
	periodic int
}

func (f *fakeSubsystem) Periodic() { f.periodic++ }

// countingCommand finishes after a number of executes.
type countingCommand struct {
	*Safe
	executes int
	limit    int
}

func newCountingCommand(t *testing.T, name string, limit int, subs ...Subsystem) *countingCommand {
	c := &countingCommand{limit: limit}
	c.Safe = NewSafe(name, NoTimeout, nil,
		WithClock(newClock()),
		WithLogger(golog.NewTestLogger(t)),
		WithRequirements(subs...),
	)
	return c
}

func (c *countingCommand) Execute() { c.executes++ }

func (c *countingCommand) IsFinished() bool {
	return c.Until(func() bool { return c.limit > 0 && c.executes >= c.limit })
}

func TestScheduler_RunsToCompletion(t *testing.T) {
	s := NewScheduler(golog.NewTestLogger(t))
	sub := &fakeSubsystem{}
	s.Register(sub)

	c := newCountingCommand(t, "count", 3, sub)
	s.Schedule(c)
	if c.State() != Running {
		t.Fatalf("State() after Schedule = %v, want running", c.State())
	}

	for i := 0; i < 5; i++ {
		s.Run()
	}

	if c.executes != 3 {
		t.Errorf("executes = %d, want 3", c.executes)
	}
	if c.State() != Completed {
		t.Errorf("State() = %v, want completed", c.State())
	}
	if s.IsScheduled(c) {
		t.Error("finished command still scheduled")
	}
	if sub.periodic != 5 {
		t.Errorf("periodic = %d, want 5", sub.periodic)
	}
}

func TestScheduler_RequirementInterrupts(t *testing.T) {
	s := NewScheduler(golog.NewTestLogger(t))
	sub := &fakeSubsystem{}
	other := &fakeSubsystem{}

	first := newCountingCommand(t, "first", 0, sub)
	unrelated := newCountingCommand(t, "unrelated", 0, other)
	second := newCountingCommand(t, "second", 0, sub)

	s.Schedule(first)
	s.Schedule(unrelated)
	s.Run()
	s.Schedule(second)

	if first.State() != Interrupted {
		t.Errorf("first State() = %v, want interrupted", first.State())
	}
	if !s.IsScheduled(unrelated) || !s.IsScheduled(second) {
		t.Error("commands without a conflict were removed")
	}

	// Scheduling a running command is a no-op
	s.Schedule(second)
	if got := len(s.Running()); got != 2 {
		t.Errorf("running = %d, want 2", got)
	}
}

func TestScheduler_DefaultCommand(t *testing.T) {
	s := NewScheduler(golog.NewTestLogger(t))
	sub := &fakeSubsystem{}

	def := newCountingCommand(t, "default", 0, sub)
	s.SetDefault(sub, def)

	s.Run()
	if !s.IsScheduled(def) {
		t.Fatal("default command not scheduled on an idle subsystem")
	}
	s.Run()
	if def.executes != 1 {
		t.Errorf("default executes = %d, want 1", def.executes)
	}

	auto := newCountingCommand(t, "auto", 2, sub)
	s.Schedule(auto)
	if def.State() != Interrupted {
		t.Errorf("default State() = %v, want interrupted", def.State())
	}

	s.Run()
	s.Run()
	if auto.State() != Completed {
		t.Fatalf("auto State() = %v, want completed", auto.State())
	}
	if !s.IsScheduled(def) {
		t.Error("default command not rescheduled after auto finished")
	}
	if def.State() != Running {
		t.Errorf("default State() = %v, want running", def.State())
	}
}

func TestScheduler_DefaultMustRequireSubsystem(t *testing.T) {
	s := NewScheduler(golog.NewTestLogger(t))
	sub := &fakeSubsystem{}

	s.SetDefault(sub, newCountingCommand(t, "free", 0))
	s.Run()
	if got := len(s.Running()); got != 0 {
		t.Errorf("running = %d, want 0", got)
	}
}

func TestScheduler_CancelAll(t *testing.T) {
	s := NewScheduler(golog.NewTestLogger(t))
	a := newCountingCommand(t, "a", 0)
	b := newCountingCommand(t, "b", 0)
	s.Schedule(a)
	s.Schedule(b)

	s.CancelAll()
	if a.State() != Interrupted || b.State() != Interrupted {
		t.Errorf("states = %v, %v, want interrupted", a.State(), b.State())
	}
	if len(s.Running()) != 0 {
		t.Error("commands left after CancelAll")
	}
}

func TestSequence(t *testing.T) {
	clock := newClock()
	logger := golog.NewTestLogger(t)
	sub := &fakeSubsystem{}

	first := newCountingCommand(t, "first", 2, sub)
	pause := NewDelay(time.Second, nil, WithClock(clock), WithLogger(logger))
	last := newCountingCommand(t, "last", 1)

	q := NewSequence("auto", nil, []Command{first, pause, last}, WithClock(clock), WithLogger(logger))
	if reqs := q.Requirements(); len(reqs) != 1 || reqs[0] != sub {
		t.Errorf("Requirements() = %v, want the first command's subsystem", reqs)
	}

	s := NewScheduler(logger)
	s.Schedule(q)
	if first.State() != Running {
		t.Fatalf("first step not started")
	}

	s.Run()
	s.Run()
	if first.State() != Completed || pause.State() != Running {
		t.Fatalf("after two cycles: first %v, pause %v", first.State(), pause.State())
	}

	s.Run()
	if q.Current() != pause {
		t.Fatal("sequence left the delay early")
	}
	clock.Advance(time.Second)
	s.Run()
	if last.State() != Running {
		t.Fatalf("last State() = %v, want running", last.State())
	}

	s.Run()
	if q.State() != Completed || s.IsScheduled(q) {
		t.Errorf("sequence State() = %v, want completed and unscheduled", q.State())
	}
}

func TestSequence_InterruptStopsCurrentStep(t *testing.T) {
	logger := golog.NewTestLogger(t)
	first := newCountingCommand(t, "first", 0)
	second := newCountingCommand(t, "second", 0)

	q := NewSequence("auto", nil, []Command{first, second}, WithClock(newClock()), WithLogger(logger))
	q.Initialize()
	q.Execute()
	q.End(true)

	if first.State() != Interrupted {
		t.Errorf("first State() = %v, want interrupted", first.State())
	}
	if second.State() != Idle {
		t.Errorf("second State() = %v, want idle", second.State())
	}
	if q.State() != Interrupted {
		t.Errorf("sequence State() = %v, want interrupted", q.State())
	}
}

func TestSequence_CancelDoesNotStartNextStep(t *testing.T) {
	tests := []struct {
		name           string
		sequenceCancel bool
	}{
		{"shared cancel", true},
		{"step cancel only", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newClock()
			logger := golog.NewTestLogger(t)
			cancelled := false
			cancel := func() bool { return cancelled }

			first := NewDelay(time.Minute, cancel, WithClock(clock), WithLogger(logger))
			second := NewDelay(time.Minute, cancel, WithClock(clock), WithLogger(logger))
			var seqCancel func() bool
			if tt.sequenceCancel {
				seqCancel = cancel
			}
			q := NewSequence("auto", seqCancel, []Command{first, second}, WithClock(clock), WithLogger(logger))

			s := NewScheduler(logger)
			s.Schedule(q)
			s.Run()
			cancelled = true
			s.Run()

			if first.State() != Cancelled {
				t.Errorf("first State() = %v, want cancelled", first.State())
			}
			if second.State() != Idle {
				t.Errorf("second State() = %v, want idle", second.State())
			}
			if q.State() != Cancelled {
				t.Errorf("sequence State() = %v, want cancelled", q.State())
			}
			if s.IsScheduled(q) {
				t.Error("sequence still scheduled")
			}
		})
	}
}

package command

import "fmt"

// Sequence runs commands one after another. It requires every subsystem any
// of its commands requires.
type Sequence struct {
	*Safe
	cmds    []Command
	current int
}

// NewSequence creates a sequential group. The group itself has no timeout;
// cancel stops whichever command is running.
func NewSequence(name string, cancel func() bool, cmds []Command, opts ...Option) *Sequence {
	q := &Sequence{cmds: cmds}

	var reqs []Subsystem
	for _, c := range cmds {
		for _, sub := range requirements(c) {
			if !containsSubsystem(reqs, sub) {
				reqs = append(reqs, sub)
			}
		}
	}
	opts = append([]Option{
		WithRequirements(reqs...),
		WithDescription(func() string {
			return fmt.Sprintf("(step %d of %d)", min(q.current+1, len(q.cmds)), len(q.cmds))
		}),
	}, opts...)
	q.Safe = NewSafe(name, NoTimeout, cancel, opts...)
	return q
}

// Commands returns the steps.
func (q *Sequence) Commands() []Command {
	return q.cmds
}

// Current returns the running step, or nil once the sequence is done.
func (q *Sequence) Current() Command {
	if q.current >= len(q.cmds) {
		return nil
	}
	return q.cmds[q.current]
}

func (q *Sequence) Initialize() {
	q.current = 0
	q.Safe.Initialize()
	if c := q.Current(); c != nil {
		c.Initialize()
	}
}

func (q *Sequence) Execute() {
	c := q.Current()
	if c == nil {
		return
	}
	c.Execute()
	if !c.IsFinished() {
		return
	}
	c.End(false)
	if q.stopped(c) {
		// The next step must not start once the operator has cancelled.
		q.current = len(q.cmds)
		if q.state == Running {
			q.finish(Cancelled)
		}
		return
	}
	q.current++
	if next := q.Current(); next != nil {
		next.Initialize()
	}
}

// stopped reports whether the sequence's cancel fired or the finished step
// c ended cancelled.
func (q *Sequence) stopped(c Command) bool {
	if q.cancel != nil && q.cancel() {
		return true
	}
	s, ok := c.(interface{ State() State })
	return ok && s.State() == Cancelled
}

func (q *Sequence) IsFinished() bool {
	return q.Until(func() bool { return q.current >= len(q.cmds) })
}

// End interrupts the running step when the sequence is stopped early.
func (q *Sequence) End(interrupted bool) {
	if c := q.Current(); c != nil {
		c.End(true)
		q.current = len(q.cmds)
	}
	q.Safe.End(interrupted)
}

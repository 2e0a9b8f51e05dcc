// Package motor groups motor controllers that drive the same mechanism.
//
// A Group has one primary controller and any number of followers. Every
// member receives the same speed, and the group can provide an encoder from
// the primary's integrated sensor.
package motor

import (
	"fmt"
	"strings"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/gwillem/cyclebot/pkg/hw"
	"github.com/gwillem/cyclebot/pkg/sensor"
)

var (
	// ErrNoEncoder is returned by Encoder when the primary controller has
	// no sensor input.
	ErrNoEncoder = errors.New("motor controller has no encoder")
	// ErrUnknownKind is returned for a kind outside AllKinds.
	ErrUnknownKind = errors.New("unknown motor kind")
)

type entry struct {
	kind     Kind
	address  int
	inverted bool
	c        controller
}

// Group drives one primary motor controller and its followers as a unit.
type Group struct {
	entries []*entry
	logger  golog.Logger

	enc *sensor.Encoder
}

// New opens a group of same-kind controllers. The first address is the
// primary; followers get the same kind and inversion.
func New(p hw.Provider, logger golog.Logger, kind Kind, address int, inverted bool, followers ...int) (*Group, error) {
	g := &Group{logger: logger}
	for _, addr := range append([]int{address}, followers...) {
		if err := g.add(p, kind, addr, inverted); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// NewMixed opens a primary and a single follower of a different kind, like a
// Talon SRX with an encoder followed by a Victor SPX.
func NewMixed(p hw.Provider, logger golog.Logger, kind Kind, address int, followerKind Kind, followerAddress int, inverted bool) (*Group, error) {
	g := &Group{logger: logger}
	if err := g.add(p, kind, address, inverted); err != nil {
		return nil, err
	}
	if err := g.add(p, followerKind, followerAddress, inverted); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Group) add(p hw.Provider, kind Kind, address int, inverted bool) error {
	c, err := open(p, kind, address)
	if err != nil {
		err = errors.Wrapf(err, "open %s %d", kind, address)
		return multierr.Append(err, g.Close())
	}
	g.entries = append(g.entries, &entry{kind: kind, address: address, inverted: inverted, c: c})
	return nil
}

func sign(inverted bool) float64 {
	if inverted {
		return -1
	}
	return 1
}

// Set sends speed to every controller in order, negated for inverted
// entries. Values are passed through unclamped.
func (g *Group) Set(speed float64) {
	for _, e := range g.entries {
		e.c.set(speed * sign(e.inverted))
	}
}

// Get returns the primary controller's speed, sign corrected.
func (g *Group) Get() float64 {
	if len(g.entries) == 0 {
		return 0
	}
	e := g.entries[0]
	return e.c.get() * sign(e.inverted)
}

// Stop sets every controller to 0.
func (g *Group) Stop() {
	g.Set(0)
}

// Disable stops the group.
func (g *Group) Disable() {
	g.Stop()
}

// Inverted reports the primary controller's inversion.
func (g *Group) Inverted() bool {
	if len(g.entries) == 0 {
		return false
	}
	return g.entries[0].inverted
}

// SetInverted changes the inversion of every controller in the group. An
// existing encoder follows the new direction.
func (g *Group) SetInverted(inverted bool) {
	if len(g.entries) == 0 || g.Inverted() == inverted {
		return
	}
	for _, e := range g.entries {
		e.inverted = inverted
	}
	if g.enc != nil {
		g.enc.SetInverted(inverted)
	}
}

// Kind returns the primary controller's kind.
func (g *Group) Kind() Kind {
	if len(g.entries) == 0 {
		return 0
	}
	return g.entries[0].kind
}

// Encoder returns the encoder attached to the primary controller. It is
// built on first use and zeroed then.
func (g *Group) Encoder() (*sensor.Encoder, error) {
	if g.enc != nil {
		return g.enc, nil
	}
	if len(g.entries) == 0 {
		return nil, ErrNoEncoder
	}

	e := g.entries[0]
	enc, err := e.c.encoder(e.inverted, g.logger)
	if err != nil {
		g.logger.Warnw("encoder requested from a controller without one", "group", g.Description())
		return nil, err
	}
	g.enc = enc
	return enc, nil
}

// Description lists the group members, for example
// "TALON_SRX:10(I)|VICTOR_SPX:11(I)".
func (g *Group) Description() string {
	parts := make([]string, len(g.entries))
	for i, e := range g.entries {
		s := fmt.Sprintf("%s:%d", strings.ToUpper(e.kind.String()), e.address)
		if e.inverted {
			s += "(I)"
		}
		parts[i] = s
	}
	return strings.Join(parts, "|")
}

// Close releases every controller that supports it and returns all errors
// combined.
func (g *Group) Close() error {
	var err error
	for _, e := range g.entries {
		err = multierr.Append(err, e.c.close())
	}
	return err
}

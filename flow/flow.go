/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package flow drives one user's way through the wheel: pick yourself,
// spin, see the match, spin again.
package flow

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/Seednode/matchwheel/roster"
	"github.com/Seednode/matchwheel/wheel"
)

var (
	ErrInvalidState  = errors.New("action not allowed right now")
	ErrUnknownMember = errors.New("unknown member")
)

// State is a step of the selection flow.
type State int

const (
	Idle State = iota
	SelectingSelf
	ReadyToSpin
	Spinning
	ResultShown
)

var stateNames = [...]string{
	Idle:          "idle",
	SelectingSelf: "selecting_self",
	ReadyToSpin:   "ready_to_spin",
	Spinning:      "spinning",
	ResultShown:   "result_shown",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Event is what a Tick produced.
type Event int

const (
	// Nothing happened.
	None Event = iota
	// Moved is a new rotation during a spin.
	Moved
	// Resolved means the wheel stopped and a match was chosen.
	Resolved
	// Revealed means the result card is now shown.
	Revealed
)

// Controller is not safe for concurrent use.
type Controller struct {
	engine      *wheel.Engine
	revealDelay time.Duration

	state      State
	members    []roster.Member
	self       *roster.Member
	candidates []roster.Member
	match      *roster.Member
	revealAt   time.Time
}

// New returns a controller in the Idle state.
func New(engine *wheel.Engine, members []roster.Member, revealDelay time.Duration) *Controller {
	return &Controller{
		engine:      engine,
		revealDelay: revealDelay,
		members:     slices.Clone(members),
	}
}

// Begin leaves Idle and asks the user who they are.
func (c *Controller) Begin() {
	if c.state == Idle {
		c.state = SelectingSelf
	}
}

func (c *Controller) State() State {
	return c.state
}

// Members is the full roster offered in the selector.
func (c *Controller) Members() []roster.Member {
	return slices.Clone(c.members)
}

// Candidates is everyone on the wheel: the roster minus the current user.
func (c *Controller) Candidates() []roster.Member {
	return slices.Clone(c.candidates)
}

// Self is the current user, once chosen.
func (c *Controller) Self() (roster.Member, bool) {
	if c.self == nil {
		return roster.Member{}, false
	}
	return *c.self, true
}

// Match is the member the last spin landed on.
func (c *Controller) Match() (roster.Member, bool) {
	if c.match == nil {
		return roster.Member{}, false
	}
	return *c.match, true
}

// Rotation is the current wheel orientation.
func (c *Controller) Rotation() float64 {
	return c.engine.Rotation()
}

// Spin returns the spin in flight, if any.
func (c *Controller) Spin() (wheel.SpinState, bool) {
	return c.engine.State()
}

// Active reports whether the controller needs ticks.
func (c *Controller) Active() bool {
	return c.state == Spinning
}

// SelectSelf sets the current user and puts their wheel up.
func (c *Controller) SelectSelf(id string) error {
	if c.state != SelectingSelf && c.state != ReadyToSpin {
		return fmt.Errorf("%w: cannot choose a member while %s", ErrInvalidState, c.state)
	}

	i := slices.IndexFunc(c.members, func(m roster.Member) bool { return m.ID == id })
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownMember, id)
	}

	self := c.members[i]
	c.self = &self
	c.match = nil
	c.candidates = roster.Filter(c.members, roster.Except(self.ID))
	c.state = ReadyToSpin

	return nil
}

// StartSpin spins the wheel at now.
func (c *Controller) StartSpin(now time.Time) error {
	if c.state != ReadyToSpin {
		return fmt.Errorf("%w: cannot spin while %s", ErrInvalidState, c.state)
	}

	if err := c.engine.RequestSpin(now, WheelCandidates(c.candidates)); err != nil {
		return err
	}

	c.match = nil
	c.state = Spinning

	return nil
}

// Tick advances the spin and the reveal delay.
func (c *Controller) Tick(now time.Time) Event {
	if c.state != Spinning {
		return None
	}

	if c.engine.Spinning() {
		winner, ok := c.engine.Tick(now)
		if !ok {
			return Moved
		}

		// The snapshot may name a member the roster has since dropped; the
		// result stands either way.
		match := c.lookup(winner)
		c.match = &match
		c.revealAt = now.Add(c.revealDelay)

		if c.revealDelay > 0 {
			return Resolved
		}
	}

	if c.match != nil && !now.Before(c.revealAt) {
		c.state = ResultShown
		return Revealed
	}

	return None
}

// SpinAgain leaves the result card and returns to the wheel.
func (c *Controller) SpinAgain() error {
	if c.state != ResultShown {
		return fmt.Errorf("%w: no result to dismiss", ErrInvalidState)
	}

	if !slices.ContainsFunc(c.members, func(m roster.Member) bool { return m.ID == c.self.ID }) {
		return c.ChangeSelf()
	}

	c.match = nil
	c.state = ReadyToSpin

	return nil
}

// ChangeSelf forgets the current user. A running spin cannot be abandoned.
func (c *Controller) ChangeSelf() error {
	if c.state == Spinning {
		return fmt.Errorf("%w: the wheel is spinning", ErrInvalidState)
	}

	c.self = nil
	c.match = nil
	c.candidates = nil
	c.state = SelectingSelf

	return nil
}

// SetRoster swaps in a new roster. The wheel keeps its rotation; a spin in
// flight resolves against the candidates it started with. If the current
// user left the roster, the flow returns to the selector once it is not
// spinning.
func (c *Controller) SetRoster(members []roster.Member) {
	c.members = slices.Clone(members)

	if c.self == nil {
		return
	}

	i := slices.IndexFunc(c.members, func(m roster.Member) bool { return m.ID == c.self.ID })
	if i < 0 {
		if c.state != Spinning {
			_ = c.ChangeSelf()
		}
		return
	}

	self := c.members[i]
	c.self = &self
	c.candidates = roster.Filter(c.members, roster.Except(self.ID))
}

func (c *Controller) lookup(w wheel.Candidate) roster.Member {
	for _, m := range c.members {
		if m.ID == w.ID {
			return m
		}
	}
	return roster.Member{ID: w.ID, Name: w.Name, Color: w.Color}
}

// WheelCandidates converts members into wheel entries.
func WheelCandidates(members []roster.Member) []wheel.Candidate {
	out := make([]wheel.Candidate, len(members))
	for i, m := range members {
		out[i] = wheel.Candidate{ID: m.ID, Name: m.Name, Color: m.Color}
	}
	return out
}

package spawn

import (
	"time"

	"github.com/vovakirdan/tapfield/internal/core"
)

const noDeadline time.Duration = -1

// Slot is one fixed position of a pool. Only the pool mutates it; callers
// read it through the accessor methods.
type Slot struct {
	index  int
	home   core.Vec
	pos    core.Vec
	vel    core.Vec
	radius float64

	occupant *Entity
	policy   CapturePolicy
	last     string // template id of the previous occupant

	state     State
	enteredAt time.Duration
	deadline  time.Duration // noDeadline when nothing is scheduled
	gen       uint64

	taps       int
	owner      core.PointerID
	claimFrame uint64
}

func newSlot(index int, pos core.Vec, radius float64) *Slot {
	return &Slot{
		index:    index,
		home:     pos,
		pos:      pos,
		radius:   radius,
		state:    StateEmpty,
		deadline: noDeadline,
	}
}

// Index returns the slot's position in the pool.
func (s *Slot) Index() int { return s.index }

// Home returns the configured position.
func (s *Slot) Home() core.Vec { return s.home }

// Pos returns the current position; it differs from Home only for mobile pools.
func (s *Slot) Pos() core.Vec { return s.pos }

// Radius returns the capture radius, scaled by the occupant's template.
func (s *Slot) Radius() float64 {
	if s.occupant != nil {
		return s.radius * s.occupant.Template.scale()
	}
	return s.radius
}

// State returns the lifecycle state.
func (s *Slot) State() State { return s.state }

// Occupant returns the current entity, if any.
func (s *Slot) Occupant() (Entity, bool) {
	if s.occupant == nil {
		return Entity{}, false
	}
	return *s.occupant, true
}

// EnteredAt returns the pool time at which the current state was entered.
func (s *Slot) EnteredAt() time.Duration { return s.enteredAt }

// Deadline returns the pool time of the next automatic transition.
func (s *Slot) Deadline() (time.Duration, bool) {
	return s.deadline, s.deadline != noDeadline
}

// Generation increments on every transition.
func (s *Slot) Generation() uint64 { return s.gen }

// Taps returns the presses landed on the current occupant.
func (s *Slot) Taps() int { return s.taps }

// TapsNeeded returns the presses the occupant's policy requires.
func (s *Slot) TapsNeeded() int { return s.policy.TapsNeeded() }

// Owner returns the pointer that started the current capture.
func (s *Slot) Owner() core.PointerID { return s.owner }

// Contains reports whether p falls inside the capture circle.
func (s *Slot) Contains(p core.Vec) bool {
	return core.Circle{Center: s.pos, R: s.Radius()}.Contains(p)
}

// awaitingTaps is true while a multi-tap capture waits for the next press.
func (s *Slot) awaitingTaps() bool {
	return s.state == StateResolving && s.occupant != nil && s.taps < s.policy.TapsNeeded()
}

// Capturable reports whether a press from pointer may claim this slot now.
func (s *Slot) Capturable(pointer core.PointerID) bool {
	switch {
	case s.occupant == nil:
		return false
	case s.state == StateIdle:
		return true
	case s.awaitingTaps():
		if s.occupant.Template.Flags.Has(FlagProtected) && s.owner != "" && s.owner != pointer {
			return false
		}
		return true
	}
	return false
}

// Busy reports whether the slot is presenting a capture. A multi-tap slot
// waiting for its next press is not busy.
func (s *Slot) Busy() bool {
	if !s.state.OnRewardPath() {
		return false
	}
	return !s.awaitingTaps()
}

// enter switches state, stamping the entry time and replacing any pending
// deadline. The generation bump invalidates tickets issued for the old state.
func (s *Slot) enter(state State, at, after time.Duration) {
	s.state = state
	s.enteredAt = at
	s.gen++
	if after < 0 {
		s.deadline = noDeadline
	} else {
		s.deadline = at + after
	}
}

func (s *Slot) templateID() string {
	if s.occupant == nil {
		return ""
	}
	return s.occupant.Template.ID
}

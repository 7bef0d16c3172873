package spawn

import (
	"math"
	"time"

	"github.com/vovakirdan/tapfield/internal/core"
)

// swayRate is the angular speed of a falling passenger's swing, in rad/s.
const swayRate = 1.5

// DropRule lets normal-tier occupants of a mobile pool carry a passenger.
// The passenger falls out when the carrier's reward is presented; carriers
// that expire or leave the playfield take it with them.
type DropRule struct {
	// Chance is rolled once per normal-tier occupant when it is armed.
	Chance float64
	// Kinds are picked uniformly for each carrier.
	Kinds []string
	// Fall is the velocity of a released passenger.
	Fall core.Vec
	// Sway is the amplitude of the sideways swing.
	Sway  float64
	Sound string
}

// Drop is a released passenger. Drops are decoration: presses never
// claim them and they leave once they fall out of the exit bounds.
type Drop struct {
	Serial uint64
	Kind   string
	Origin core.Vec
	Pos    core.Vec
	Born   time.Duration
}

// Drops returns the passengers currently falling.
func (p *Pool) Drops() []Drop {
	return append([]Drop(nil), p.drops...)
}

// cargo rolls the passenger of a freshly selected occupant.
func (p *Pool) cargo(tmpl Template) string {
	d := p.cfg.Drop
	if d.Chance <= 0 || tmpl.Tier != TierNormal {
		return ""
	}
	if p.src.Float64() >= d.Chance {
		return ""
	}
	return d.Kinds[intn(p.src, len(d.Kinds))]
}

// release lets the passenger of a rewarded occupant fall.
func (p *Pool) release(s *Slot, at time.Duration) {
	if s.occupant == nil || s.occupant.Cargo == "" {
		return
	}
	p.serial++
	p.drops = append(p.drops, Drop{
		Serial: p.serial,
		Kind:   s.occupant.Cargo,
		Origin: s.pos,
		Pos:    s.pos,
		Born:   at,
	})
	p.play(p.cfg.Drop.Sound)
	p.logger.Debug("passenger released", "slot", s.index, "kind", s.occupant.Cargo)
}

// moveDrops places every passenger on its swinging fall path and forgets
// those below the playfield.
func (p *Pool) moveDrops() {
	if len(p.drops) == 0 || p.cfg.Motion == nil {
		return
	}
	d := p.cfg.Drop
	exit := p.cfg.Motion.Bounds.Inflate(p.cfg.Motion.ExitMargin)
	kept := p.drops[:0]
	for _, dr := range p.drops {
		age := (p.now - dr.Born).Seconds()
		dr.Pos = dr.Origin.Add(d.Fall.Scale(age))
		dr.Pos.X += d.Sway * math.Sin(swayRate*age)
		if exit.Contains(dr.Pos) {
			kept = append(kept, dr)
		}
	}
	p.drops = kept
}

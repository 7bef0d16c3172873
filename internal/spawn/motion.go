package spawn

import (
	"time"

	"github.com/vovakirdan/tapfield/internal/core"
)

// launch places a mobile occupant on the spawn line with its own velocity.
func (p *Pool) launch(s *Slot, tmpl Template) {
	m := p.cfg.Motion
	f := p.src.Float64()
	s.pos = m.SpawnFrom.Add(m.SpawnTo.Sub(m.SpawnFrom).Scale(f))
	jitter := core.V(
		between(p.src, -m.Jitter.X, m.Jitter.X),
		between(p.src, -m.Jitter.Y, m.Jitter.Y),
	)
	s.vel = m.Velocity.Add(jitter).Scale(tmpl.speed())
}

// move drifts every appearing, idle or tap-awaiting mobile occupant and
// applies the exit edge to those that left the playfield. Occupants playing
// a capture or a reward stay put.
func (p *Pool) move(dt time.Duration) {
	m := p.cfg.Motion
	if m == nil || dt <= 0 {
		return
	}
	exit := m.Bounds.Inflate(m.ExitMargin)
	secs := dt.Seconds()
	for _, s := range p.slots {
		if s.state != StateSpawning && s.state != StateIdle && !s.awaitingTaps() {
			continue
		}
		s.pos = s.pos.Add(s.vel.Scale(secs))
		if exit.Contains(s.pos) {
			continue
		}
		p.logger.Debug("left playfield", "slot", s.index, "template", s.templateID())
		if m.Exit == ExitDisable {
			p.disable(s, p.now)
		} else {
			p.vacate(s, p.now, true)
		}
	}
}

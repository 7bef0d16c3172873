package spawn

import (
	"github.com/vovakirdan/tapfield/internal/core"
)

// ClaimTicket is the outcome of one press in an arbitration batch.
type ClaimTicket struct {
	Pointer core.PointerID
	Pos     core.Vec
	// Slot is the claimed slot index, or -1 when the press claimed nothing.
	Slot int
	// Generation is the slot generation seen during arbitration; a commit
	// against a newer generation is ignored.
	Generation uint64
}

// Claimed reports whether the ticket resolved to a slot.
func (t ClaimTicket) Claimed() bool { return t.Slot >= 0 }

// Arbiter resolves a batch of presses against the slots.
type Arbiter struct {
	Mode Exclusivity
}

// NewArbiter returns an arbiter using the given exclusivity rule.
func NewArbiter(mode Exclusivity) Arbiter {
	return Arbiter{Mode: mode}
}

// Arbitrate produces one ticket per Began press, in arrival order. Each slot
// is claimed at most once per batch, and under ExclusiveGlobal at most one
// press wins and none does while a slot is busy. Slots are only read.
func (a Arbiter) Arbitrate(presses []core.Press, slots []*Slot) []ClaimTicket {
	tickets := make([]ClaimTicket, 0, len(presses))
	claimed := make(map[int]bool)

	blocked := false
	if a.Mode == ExclusiveGlobal {
		for _, s := range slots {
			if s.Busy() {
				blocked = true
				break
			}
		}
	}

	for _, p := range presses {
		if p.Phase != core.PhaseBegan {
			continue
		}
		t := ClaimTicket{Pointer: p.Pointer, Pos: p.Pos, Slot: -1}
		if !blocked {
			if s := hitTest(p, slots, claimed); s != nil {
				t.Slot = s.index
				t.Generation = s.gen
				claimed[s.index] = true
				if a.Mode == ExclusiveGlobal {
					blocked = true
				}
			}
		}
		tickets = append(tickets, t)
	}
	return tickets
}

// hitTest returns the capturable slot nearest to the press, ties going to
// the lower index.
func hitTest(p core.Press, slots []*Slot, claimed map[int]bool) *Slot {
	var best *Slot
	bestDist := 0.0
	for _, s := range slots {
		if claimed[s.index] || !s.Capturable(p.Pointer) || !s.Contains(p.Pos) {
			continue
		}
		d := s.pos.Dist(p.Pos)
		if best == nil || d < bestDist {
			best, bestDist = s, d
		}
	}
	return best
}

package spawn

import (
	"testing"

	"github.com/vovakirdan/tapfield/internal/core"
)

func idleSlot(i int, x, y, r float64) *Slot {
	s := newSlot(i, core.V(x, y), r)
	s.occupant = &Entity{Template: tmpl("mole", TierNormal, 1), Serial: uint64(i + 1)}
	s.policy = CapturePolicy{Taps: 1}
	s.enter(StateIdle, 0, noDeadline)
	return s
}

func began(ptr string, x, y float64) core.Press {
	return core.Press{Pointer: core.PointerID(ptr), Pos: core.V(x, y), Phase: core.PhaseBegan}
}

func claimedSlots(tickets []ClaimTicket) []int {
	var out []int
	for _, t := range tickets {
		if t.Claimed() {
			out = append(out, t.Slot)
		}
	}
	return out
}

func TestArbitrateSingleClaimPerSlot(t *testing.T) {
	slots := []*Slot{idleSlot(0, 0, 0, 1)}
	presses := []core.Press{
		began("a", 0, 0),
		began("b", 0.2, 0),
		began("c", -0.3, 0.1),
		began("d", 0, -0.5),
	}

	tickets := NewArbiter(ExclusivePerSlot).Arbitrate(presses, slots)

	if len(tickets) != len(presses) {
		t.Fatalf("got %d tickets, expected one per press", len(tickets))
	}
	if got := claimedSlots(tickets); len(got) != 1 {
		t.Fatalf("claims = %v, expected exactly one", got)
	}
	if !tickets[0].Claimed() || tickets[0].Pointer != "a" {
		t.Errorf("first press in arrival order should win, tickets = %+v", tickets)
	}
}

func TestArbitrateModes(t *testing.T) {
	presses := []core.Press{began("a", -3, 0), began("b", 3, 0)}

	tests := []struct {
		name  string
		mode  Exclusivity
		claim []int
	}{
		{"per-slot claims both", ExclusivePerSlot, []int{0, 1}},
		{"global claims first only", ExclusiveGlobal, []int{0}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			slots := []*Slot{idleSlot(0, -3, 0, 1), idleSlot(1, 3, 0, 1)}
			got := claimedSlots(NewArbiter(tc.mode).Arbitrate(presses, slots))
			if len(got) != len(tc.claim) {
				t.Fatalf("claims = %v, expected %v", got, tc.claim)
			}
			for i := range got {
				if got[i] != tc.claim[i] {
					t.Errorf("claims = %v, expected %v", got, tc.claim)
				}
			}
		})
	}
}

func TestArbitrateGlobalBusyBlocks(t *testing.T) {
	busy := idleSlot(0, -3, 0, 1)
	busy.enter(StateDisplaying, 0, noDeadline)
	slots := []*Slot{busy, idleSlot(1, 3, 0, 1)}

	tickets := NewArbiter(ExclusiveGlobal).Arbitrate([]core.Press{began("a", 3, 0)}, slots)
	if got := claimedSlots(tickets); len(got) != 0 {
		t.Errorf("claims while busy = %v, expected none", got)
	}

	tickets = NewArbiter(ExclusivePerSlot).Arbitrate([]core.Press{began("a", 3, 0)}, slots)
	if got := claimedSlots(tickets); len(got) != 1 {
		t.Errorf("per-slot arbitration ignores busy slots, claims = %v", got)
	}
}

func TestArbitrateIgnoresNonBeganAndMisses(t *testing.T) {
	slots := []*Slot{idleSlot(0, 0, 0, 1)}
	presses := []core.Press{
		{Pointer: "a", Pos: core.V(0, 0), Phase: core.PhaseMoved},
		{Pointer: "a", Pos: core.V(0, 0), Phase: core.PhaseEnded},
		began("b", 5, 5),
	}

	tickets := NewArbiter(ExclusivePerSlot).Arbitrate(presses, slots)
	if len(tickets) != 1 {
		t.Fatalf("got %d tickets, expected only the Began press", len(tickets))
	}
	if tickets[0].Claimed() || tickets[0].Slot != -1 {
		t.Errorf("miss should produce Slot -1, got %+v", tickets[0])
	}
}

func TestArbitrateNearestSlotWins(t *testing.T) {
	slots := []*Slot{idleSlot(0, 0, 0, 2), idleSlot(1, 1.5, 0, 2)}

	tickets := NewArbiter(ExclusivePerSlot).Arbitrate([]core.Press{began("a", 1.2, 0)}, slots)
	if tickets[0].Slot != 1 {
		t.Errorf("overlapping hit should go to the nearest centre, got slot %d", tickets[0].Slot)
	}

	tickets = NewArbiter(ExclusivePerSlot).Arbitrate([]core.Press{began("a", 0.75, 0)}, slots)
	if tickets[0].Slot != 0 {
		t.Errorf("equidistant hit should go to the lower index, got slot %d", tickets[0].Slot)
	}
}

func TestArbitrateSkipsNonCapturable(t *testing.T) {
	spawning := idleSlot(0, 0, 0, 1)
	spawning.enter(StateSpawning, 0, noDeadline)
	empty := newSlot(1, core.V(3, 0), 1)

	tickets := NewArbiter(ExclusivePerSlot).Arbitrate(
		[]core.Press{began("a", 0, 0), began("b", 3, 0)},
		[]*Slot{spawning, empty},
	)
	if got := claimedSlots(tickets); len(got) != 0 {
		t.Errorf("claims = %v, expected none", got)
	}
}

func TestArbitrateProtectedMultiTap(t *testing.T) {
	egg := idleSlot(0, 0, 0, 1.5)
	egg.occupant.Template.Flags = FlagProtected
	egg.policy = CapturePolicy{Taps: 3}
	egg.taps = 1
	egg.owner = "alice"
	egg.enter(StateResolving, 0, noDeadline)

	arb := NewArbiter(ExclusivePerSlot)

	tickets := arb.Arbitrate([]core.Press{began("bob", 0, 0)}, []*Slot{egg})
	if tickets[0].Claimed() {
		t.Error("a rival pointer must not continue a protected capture")
	}

	tickets = arb.Arbitrate([]core.Press{began("bob", 0, 0), began("alice", 0, 0)}, []*Slot{egg})
	if got := claimedSlots(tickets); len(got) != 1 || tickets[1].Pointer != "alice" {
		t.Errorf("owner should continue the capture, tickets = %+v", tickets)
	}

	egg.occupant.Template.Flags = 0
	tickets = arb.Arbitrate([]core.Press{began("bob", 0, 0)}, []*Slot{egg})
	if !tickets[0].Claimed() {
		t.Error("an unprotected multi-tap capture accepts any pointer")
	}
}

func TestArbitrateDoesNotMutate(t *testing.T) {
	s := idleSlot(0, 0, 0, 1)
	gen := s.Generation()

	NewArbiter(ExclusivePerSlot).Arbitrate([]core.Press{began("a", 0, 0), began("b", 0, 0)}, []*Slot{s})

	if s.State() != StateIdle || s.Generation() != gen || s.Taps() != 0 {
		t.Errorf("arbitration changed the slot: state=%s gen=%d taps=%d", s.State(), s.Generation(), s.Taps())
	}
}

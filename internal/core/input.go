package core

import "fmt"

// Action represents a semantic game action, abstracted from physical keys.
type Action int

const (
	ActionNone    Action = iota
	ActionConfirm        // Enter - confirm selection in menu
	ActionBack           // B, Escape - go back to menu
	ActionRestart        // R key - restart after the round ends
	ActionQuit           // Q, Ctrl+C - exit game/session
	ActionPause          // P - pause/unpause game

	// ActionSlot1 .. ActionSlot9 press the slot with that number (keyboard play).
	ActionSlot1
	ActionSlot2
	ActionSlot3
	ActionSlot4
	ActionSlot5
	ActionSlot6
	ActionSlot7
	ActionSlot8
	ActionSlot9
)

// MaxSlotKeys is the number of slots reachable from the keyboard.
const MaxSlotKeys = 9

// SlotAction returns the action pressing slot number n (1-based).
func SlotAction(n int) Action {
	if n < 1 || n > MaxSlotKeys {
		return ActionNone
	}
	return ActionSlot1 + Action(n-1)
}

// SlotNumber returns the 1-based slot number of a slot action.
func (a Action) SlotNumber() (int, bool) {
	if a < ActionSlot1 || a > ActionSlot9 {
		return 0, false
	}
	return int(a-ActionSlot1) + 1, true
}

// String returns a human-readable name for the action.
func (a Action) String() string {
	if n, ok := a.SlotNumber(); ok {
		return fmt.Sprintf("Slot%d", n)
	}
	switch a {
	case ActionNone:
		return "None"
	case ActionConfirm:
		return "Confirm"
	case ActionBack:
		return "Back"
	case ActionRestart:
		return "Restart"
	case ActionQuit:
		return "Quit"
	case ActionPause:
		return "Pause"
	default:
		return "Unknown"
	}
}

// PointerID identifies one pointer: a mouse, a keyboard, or a remote player's mouse.
type PointerID string

// LocalPointer is the single player at a terminal. The mouse and the digit
// keys share it, so a capture started with one can be finished with the other.
const LocalPointer PointerID = "local"

// Phase is the stage of a pointer contact.
type Phase int

const (
	PhaseBegan Phase = iota
	PhaseMoved
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseBegan:
		return "began"
	case PhaseMoved:
		return "moved"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// PointerEvent is a pointer contact in screen cells, as delivered by the terminal.
type PointerEvent struct {
	Pointer PointerID
	X, Y    int
	Phase   Phase
}

// Press is a pointer contact in world coordinates.
type Press struct {
	Pointer PointerID
	Pos     Vec
	Phase   Phase
}

// InputFrame collects the input of one simulation tick.
type InputFrame struct {
	// Actions maps action types to whether they were triggered this frame.
	Actions map[Action]bool
	// Pointers holds pointer events in arrival order.
	Pointers []PointerEvent
}

// NewInputFrame creates an empty input frame.
func NewInputFrame() InputFrame {
	return InputFrame{
		Actions: make(map[Action]bool),
	}
}

// Set marks an action as triggered for this frame.
func (f *InputFrame) Set(a Action) {
	if f.Actions == nil {
		f.Actions = make(map[Action]bool)
	}
	f.Actions[a] = true
}

// Has returns true if the given action was triggered this frame.
func (f InputFrame) Has(a Action) bool {
	return f.Actions[a]
}

// AddPointer appends a pointer event, keeping arrival order.
func (f *InputFrame) AddPointer(ev PointerEvent) {
	f.Pointers = append(f.Pointers, ev)
}

// Merge appends the actions and pointer events of o to f.
func (f *InputFrame) Merge(o InputFrame) {
	for a, on := range o.Actions {
		if on {
			f.Set(a)
		}
	}
	f.Pointers = append(f.Pointers, o.Pointers...)
}

// Clear resets all input for the next frame.
func (f *InputFrame) Clear() {
	for k := range f.Actions {
		delete(f.Actions, k)
	}
	f.Pointers = f.Pointers[:0]
}

// Clone creates a deep copy of this input frame.
func (f InputFrame) Clone() InputFrame {
	clone := NewInputFrame()
	for k, v := range f.Actions {
		clone.Actions[k] = v
	}
	if len(f.Pointers) > 0 {
		clone.Pointers = append([]PointerEvent(nil), f.Pointers...)
	}
	return clone
}

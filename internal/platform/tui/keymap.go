package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tapfield/internal/core"
)

// MousePointer is the pointer id of the local terminal mouse.
const MousePointer = core.LocalPointer

// KeyMapper translates Bubble Tea key and mouse messages to game input.
// This centralizes bindings and makes them testable.
type KeyMapper struct{}

// NewKeyMapper creates a new key mapper with default bindings.
func NewKeyMapper() *KeyMapper {
	return &KeyMapper{}
}

// MapKey translates a key message to an action.
// Returns the action (may be ActionNone) and whether it's a quit request.
func (km *KeyMapper) MapKey(msg tea.KeyMsg) (action core.Action, isQuit bool) {
	key := msg.String()

	switch key {
	case "ctrl+c", "q":
		return core.ActionQuit, true
	}

	// 1..9 press the slot with that number
	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		return core.SlotAction(int(key[0] - '0')), false
	}

	switch key {
	case "enter":
		return core.ActionConfirm, false
	case "b", "esc":
		return core.ActionBack, false
	case "p":
		return core.ActionPause, false
	case "r":
		return core.ActionRestart, false
	}

	return core.ActionNone, false
}

// MapKeyToFrame updates an input frame based on a key message.
// Returns true if the key was a quit request.
func (km *KeyMapper) MapKeyToFrame(msg tea.KeyMsg, frame *core.InputFrame) bool {
	action, isQuit := km.MapKey(msg)
	if action != core.ActionNone {
		frame.Set(action)
	}
	return isQuit
}

// MapMouse translates a mouse message to a pointer event. yOffset is the
// number of terminal rows above the game screen. Only the left button
// presses; wheel and other buttons report false.
func (km *KeyMapper) MapMouse(msg tea.MouseMsg, yOffset int) (core.PointerEvent, bool) {
	ev := core.PointerEvent{Pointer: MousePointer, X: msg.X, Y: msg.Y - yOffset}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return ev, false
		}
		ev.Phase = core.PhaseBegan
	case tea.MouseActionMotion:
		if msg.Button != tea.MouseButtonLeft {
			return ev, false
		}
		ev.Phase = core.PhaseMoved
	case tea.MouseActionRelease:
		ev.Phase = core.PhaseEnded
	default:
		return ev, false
	}
	if ev.Y < 0 {
		return ev, false
	}
	return ev, true
}

// MapMouseToFrame appends the pointer event of a mouse message to frame.
func (km *KeyMapper) MapMouseToFrame(msg tea.MouseMsg, yOffset int, frame *core.InputFrame) {
	if ev, ok := km.MapMouse(msg, yOffset); ok {
		frame.AddPointer(ev)
	}
}

// MenuAction represents a menu-specific action derived from input.
type MenuAction int

const (
	MenuActionNone MenuAction = iota
	MenuActionUp
	MenuActionDown
	MenuActionSelect
	MenuActionBack
	MenuActionQuit
	MenuActionScoreboard
	MenuActionRoom
)

// MapKeyToMenuAction translates a key to a menu action.
func (km *KeyMapper) MapKeyToMenuAction(msg tea.KeyMsg) MenuAction {
	key := msg.String()

	switch key {
	case "ctrl+c", "q":
		return MenuActionQuit
	case "w", "up", "k": // vim-style k for up
		return MenuActionUp
	case "s", "down", "j": // vim-style j for down
		return MenuActionDown
	case "enter", " ":
		return MenuActionSelect
	case "b", "esc":
		return MenuActionBack
	case "tab":
		return MenuActionScoreboard
	case "o":
		return MenuActionRoom
	}

	return MenuActionNone
}

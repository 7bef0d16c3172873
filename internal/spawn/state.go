package spawn

import "fmt"

// State is the lifecycle state of a slot.
type State int

const (
	// StateEmpty has no occupant. Static pools re-arm it, interval pools wait
	// for the spawner.
	StateEmpty State = iota
	// StateSpawning plays the appear animation.
	StateSpawning
	// StateIdle is capturable; an optional lifetime deadline auto-expires it.
	StateIdle
	// StateCaptured plays the reaction to a press (swing, shake, crack).
	StateCaptured
	// StateResolving waits for further presses of a multi-tap policy, then
	// reveals the result. When the tap window lapses the occupant goes back
	// to Idle.
	StateResolving
	// StateDisplaying presents the reward.
	StateDisplaying
	// StateRespawning fades out before the pool picks new content.
	StateRespawning
	// StateDisabled is terminal.
	StateDisabled
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateSpawning:
		return "spawning"
	case StateIdle:
		return "idle"
	case StateCaptured:
		return "captured"
	case StateResolving:
		return "resolving"
	case StateDisplaying:
		return "displaying"
	case StateRespawning:
		return "respawning"
	case StateDisabled:
		return "disabled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// HasOccupant reports whether a slot in this state holds an entity.
func (s State) HasOccupant() bool {
	return s != StateEmpty && s != StateDisabled
}

// OnRewardPath reports whether the state belongs to a capture in progress.
func (s State) OnRewardPath() bool {
	return s == StateCaptured || s == StateResolving || s == StateDisplaying
}

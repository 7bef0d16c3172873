// Package multiplayer runs shared tap fields: several sessions press on the
// same pool, and the room settles who got what with the game's own capture
// arbitration. It knows nothing about SSH or Bubble Tea; sessions are
// reached through SessionHandle.
package multiplayer

import (
	"strings"

	"github.com/vovakirdan/tapfield/internal/core"
)

// SessionID uniquely identifies a player's session (e.g., SSH connection).
type SessionID string

// RoomID uniquely identifies one shared round.
type RoomID string

// End reasons stored with a room result.
const (
	EndCompleted = "completed" // the round timer ran out
	EndAbandoned = "abandoned" // every player left
	EndStopped   = "stopped"   // the server shut down
	EndFailed    = "failed"    // the game could not be started
)

// SharedGame is what a room needs from a game. registry.Game together with
// registry.PlayerScorer provides it; SlotCenter lets digit keys of remote
// players become pointer presses of their own.
type SharedGame interface {
	Step(in core.InputFrame) core.StepResult
	Render(dst *core.Screen)
	State() core.GameState
	PlayerScores() map[core.PointerID]int
	SlotCenter(i int) (x, y int, ok bool)
}

// GameFactory creates game instances for rooms.
type GameFactory func(gameID string, cfg core.RuntimeConfig) (SharedGame, error)

// PlayerResult is one player's score in a room.
type PlayerResult struct {
	Session SessionID
	Name    string
	Score   int
}

// RoomResult contains room result data for persistence.
type RoomResult struct {
	RoomID       string
	Code         string
	GameID       string
	Players      []PlayerResult
	EndReason    string
	DurationSecs int
}

// ResultSaver is an interface for saving room results.
// This allows the coordinator to save results without depending on the storage package.
type ResultSaver interface {
	SaveRoomResult(result RoomResult) error
}

// pointerPrefix namespaces the pointers of one session.
func pointerPrefix(id SessionID) string {
	return string(id) + "/"
}

// namespaced returns the pointer id a room hands to the game for p.
func namespaced(id SessionID, p core.PointerID) core.PointerID {
	return core.PointerID(pointerPrefix(id) + string(p))
}

// owner returns the session a namespaced pointer belongs to.
func owner(p core.PointerID) (SessionID, bool) {
	s, _, ok := strings.Cut(string(p), "/")
	if !ok || s == "" {
		return "", false
	}
	return SessionID(s), true
}

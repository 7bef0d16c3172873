package multiplayer

import "github.com/vovakirdan/tapfield/internal/core"

// SessionEvent represents an event sent to a session.
type SessionEvent interface {
	sessionEvent()
}

// RoomJoinedEvent is sent to a session once it is in a room, the creator included.
type RoomJoinedEvent struct {
	RoomID RoomID
	Code   string
	GameID string
}

func (RoomJoinedEvent) sessionEvent() {}

// RoomErrorEvent is sent when a room operation fails.
type RoomErrorEvent struct {
	Message string
}

func (RoomErrorEvent) sessionEvent() {}

// PlayerJoinedEvent tells the members of a room someone joined.
type PlayerJoinedEvent struct {
	Code string
	Name string
}

func (PlayerJoinedEvent) sessionEvent() {}

// PlayerLeftEvent tells the members of a room someone left.
type PlayerLeftEvent struct {
	Code string
	Name string
}

func (PlayerLeftEvent) sessionEvent() {}

// FrameEvent carries one rendered tick of the shared field.
// Screen is never written after it is sent; receivers must not modify it.
type FrameEvent struct {
	RoomID  RoomID
	Tick    uint64
	Screen  *core.Screen
	State   core.GameState
	Players []PlayerResult // best first
}

func (FrameEvent) sessionEvent() {}

// RoomEndedEvent is sent to every member when the room closes.
type RoomEndedEvent struct {
	RoomID  RoomID
	Reason  string
	Players []PlayerResult // best first
}

func (RoomEndedEvent) sessionEvent() {}

// CoordinatorMessage represents a message from a session to the coordinator.
type CoordinatorMessage interface {
	coordinatorMessage()
}

// CreateRoomMsg opens a new room and joins its creator.
type CreateRoomMsg struct {
	SessionID SessionID
	GameID    string
}

func (CreateRoomMsg) coordinatorMessage() {}

// JoinRoomMsg joins an existing room by code.
type JoinRoomMsg struct {
	SessionID SessionID
	Code      string
}

func (JoinRoomMsg) coordinatorMessage() {}

// LeaveRoomMsg leaves the session's room.
type LeaveRoomMsg struct {
	SessionID SessionID
}

func (LeaveRoomMsg) coordinatorMessage() {}

// InputMsg carries one session's input for its room's next tick.
type InputMsg struct {
	SessionID SessionID
	Input     core.InputFrame
}

func (InputMsg) coordinatorMessage() {}

// SessionDisconnectedMsg is sent when a session disconnects.
type SessionDisconnectedMsg struct {
	SessionID SessionID
}

func (SessionDisconnectedMsg) coordinatorMessage() {}

package multiplayer

import (
	"strings"
	"sync"
	"testing"

	"github.com/vovakirdan/tapfield/internal/core"
)

type savedResults struct {
	mu      sync.Mutex
	results []RoomResult
}

func (s *savedResults) SaveRoomResult(r RoomResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
	return nil
}

func newTestCoordinator(t *testing.T, maxPlayers int) (*Coordinator, *SessionRegistry, *savedResults) {
	t.Helper()
	reg := NewSessionRegistry()
	factory := func(gameID string, cfg core.RuntimeConfig) (SharedGame, error) {
		if gameID != "mole" {
			return nil, errNoGame
		}
		return newFakeGame(), nil
	}
	cfg := DefaultCoordinatorConfig()
	cfg.MaxPlayers = maxPlayers
	c := NewCoordinator(cfg, factory, reg)
	saver := &savedResults{}
	c.SetResultSaver(saver)
	t.Cleanup(c.Stop)
	return c, reg, saver
}

func newSession(reg *SessionRegistry, id, name string) *ChannelSession {
	s := NewChannelSession(SessionID(id), name, 512)
	reg.Register(s)
	return s
}

// firstOf returns the first event of type T a session received.
func firstOf[T SessionEvent](s *ChannelSession) (T, bool) {
	for _, e := range drainEvents(s) {
		if v, ok := e.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func TestCoordinatorCreateAndJoin(t *testing.T) {
	c, reg, _ := newTestCoordinator(t, 0)
	host := newSession(reg, "h", "host")
	guest := newSession(reg, "g", "guest")

	c.handleMessage(CreateRoomMsg{SessionID: "h", GameID: "mole"})
	joined, ok := firstOf[RoomJoinedEvent](host)
	if !ok {
		t.Fatal("host got no RoomJoinedEvent")
	}
	if len(joined.Code) != CodeLength || strings.ToUpper(joined.Code) != joined.Code {
		t.Errorf("code %q is not %d upper-case letters", joined.Code, CodeLength)
	}
	if c.RoomCount() != 1 {
		t.Errorf("RoomCount() = %d, want 1", c.RoomCount())
	}

	c.handleMessage(JoinRoomMsg{SessionID: "g", Code: strings.ToLower(joined.Code)})
	if ev, ok := firstOf[RoomJoinedEvent](guest); !ok || ev.RoomID != joined.RoomID {
		t.Errorf("guest join = %+v, %v", ev, ok)
	}
	if ev, ok := firstOf[PlayerJoinedEvent](host); !ok || ev.Name != "guest" {
		t.Errorf("host notification = %+v, %v", ev, ok)
	}

	room, ok := c.RoomOf("g")
	if !ok || len(room.Members()) != 2 {
		t.Fatalf("RoomOf(g) = %v, %v", room, ok)
	}
}

func TestCoordinatorErrors(t *testing.T) {
	c, reg, _ := newTestCoordinator(t, 1)
	host := newSession(reg, "h", "host")
	guest := newSession(reg, "g", "guest")

	c.handleMessage(CreateRoomMsg{SessionID: "g", GameID: "nope"})
	if ev, ok := firstOf[RoomErrorEvent](guest); !ok || ev.Message != "Failed to create game" {
		t.Errorf("unknown game: %+v, %v", ev, ok)
	}

	c.handleMessage(JoinRoomMsg{SessionID: "g", Code: "ZZZZ"})
	if ev, ok := firstOf[RoomErrorEvent](guest); !ok || ev.Message != "Room not found" {
		t.Errorf("unknown code: %+v, %v", ev, ok)
	}

	c.handleMessage(CreateRoomMsg{SessionID: "h", GameID: "mole"})
	joined, _ := firstOf[RoomJoinedEvent](host)

	c.handleMessage(CreateRoomMsg{SessionID: "h", GameID: "mole"})
	if ev, ok := firstOf[RoomErrorEvent](host); !ok || ev.Message != "Already in a room" {
		t.Errorf("second room: %+v, %v", ev, ok)
	}

	c.handleMessage(JoinRoomMsg{SessionID: "g", Code: joined.Code})
	if ev, ok := firstOf[RoomErrorEvent](guest); !ok || ev.Message != "Room is full" {
		t.Errorf("full room: %+v, %v", ev, ok)
	}
}

func TestCoordinatorLeave(t *testing.T) {
	c, reg, _ := newTestCoordinator(t, 0)
	host := newSession(reg, "h", "host")
	newSession(reg, "g", "guest")

	c.handleMessage(CreateRoomMsg{SessionID: "h", GameID: "mole"})
	joined, _ := firstOf[RoomJoinedEvent](host)
	c.handleMessage(JoinRoomMsg{SessionID: "g", Code: joined.Code})
	drainEvents(host)

	c.handleMessage(SessionDisconnectedMsg{SessionID: "g"})
	if ev, ok := firstOf[PlayerLeftEvent](host); !ok || ev.Name != "guest" {
		t.Errorf("leave notification = %+v, %v", ev, ok)
	}
	if _, ok := c.RoomOf("g"); ok {
		t.Error("guest still mapped to the room")
	}

	// leaving twice is harmless
	c.handleMessage(LeaveRoomMsg{SessionID: "g"})
}

func TestCoordinatorStopSavesResults(t *testing.T) {
	c, reg, saver := newTestCoordinator(t, 0)
	host := newSession(reg, "h", "host")

	c.handleMessage(CreateRoomMsg{SessionID: "h", GameID: "mole"})
	joined, _ := firstOf[RoomJoinedEvent](host)

	c.Stop()

	saver.mu.Lock()
	defer saver.mu.Unlock()
	if len(saver.results) != 1 {
		t.Fatalf("saved %d results, want 1", len(saver.results))
	}
	res := saver.results[0]
	if res.Code != joined.Code || res.EndReason != EndStopped || len(res.Players) != 1 || res.Players[0].Name != "host" {
		t.Errorf("result = %+v", res)
	}
	if c.RoomCount() != 0 {
		t.Errorf("RoomCount() = %d after Stop", c.RoomCount())
	}
}

func TestJoinCodeAlphabet(t *testing.T) {
	for range 200 {
		code := generateJoinCode()
		if len(code) != CodeLength {
			t.Fatalf("code %q has length %d", code, len(code))
		}
		for _, r := range code {
			if !strings.ContainsRune(codeAlphabet, r) {
				t.Fatalf("code %q contains %q", code, r)
			}
		}
	}
}

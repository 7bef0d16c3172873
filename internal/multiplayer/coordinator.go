package multiplayer

import (
	"crypto/rand"
	"io"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/tapfield/internal/core"
)

// codeAlphabet leaves out I and O, which read as 1 and 0.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ"

// CodeLength is the number of letters in a join code.
const CodeLength = 4

// CoordinatorConfig holds configuration for the coordinator.
type CoordinatorConfig struct {
	TickRate   int // Room tick rate (Hz)
	ScreenW    int // Size of the shared field every member sees
	ScreenH    int
	MaxPlayers int    // Per room; 0 means unlimited
	Difficulty string // Preset applied to every room's game
}

// DefaultCoordinatorConfig returns sensible defaults.
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		TickRate:   30,
		ScreenW:    80,
		ScreenH:    22,
		MaxPlayers: 8,
	}
}

// Coordinator owns the rooms and routes session messages to them.
type Coordinator struct {
	config      CoordinatorConfig
	gameFactory GameFactory
	sessions    *SessionRegistry
	resultSaver ResultSaver // Optional, can be nil
	logger      *log.Logger

	mu          sync.RWMutex
	rooms       map[string]*Room     // code -> room
	sessionRoom map[SessionID]string // sessionID -> room code

	msgChan chan CoordinatorMessage
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// NewCoordinator creates a new coordinator.
func NewCoordinator(cfg CoordinatorConfig, factory GameFactory, sessions *SessionRegistry) *Coordinator {
	return &Coordinator{
		config:      cfg,
		gameFactory: factory,
		sessions:    sessions,
		logger:      log.New(io.Discard),
		rooms:       make(map[string]*Room),
		sessionRoom: make(map[SessionID]string),
		msgChan:     make(chan CoordinatorMessage, 256),
		done:        make(chan struct{}),
	}
}

// SetResultSaver sets the optional room result saver.
func (c *Coordinator) SetResultSaver(saver ResultSaver) {
	c.resultSaver = saver
}

// SetLogger sets the logger used by the coordinator and its rooms.
func (c *Coordinator) SetLogger(l *log.Logger) {
	if l != nil {
		c.logger = l
	}
}

// Start begins processing messages.
func (c *Coordinator) Start() {
	go c.processMessages()
}

// Stop closes every room and waits for their results to be saved.
func (c *Coordinator) Stop() {
	c.once.Do(func() {
		close(c.done)
		c.mu.RLock()
		for _, r := range c.rooms {
			r.Stop()
		}
		c.mu.RUnlock()
		c.wg.Wait()
	})
}

// Send sends a message to the coordinator for async processing.
func (c *Coordinator) Send(msg CoordinatorMessage) {
	select {
	case c.msgChan <- msg:
	case <-c.done:
	}
}

func (c *Coordinator) processMessages() {
	for {
		select {
		case msg := <-c.msgChan:
			c.handleMessage(msg)
		case <-c.done:
			return
		}
	}
}

func (c *Coordinator) handleMessage(msg CoordinatorMessage) {
	switch m := msg.(type) {
	case CreateRoomMsg:
		c.handleCreateRoom(m)
	case JoinRoomMsg:
		c.handleJoinRoom(m)
	case LeaveRoomMsg:
		c.leave(m.SessionID)
	case InputMsg:
		c.handleInput(m)
	case SessionDisconnectedMsg:
		c.leave(m.SessionID)
	}
}

func (c *Coordinator) handleCreateRoom(msg CreateRoomMsg) {
	session, ok := c.sessions.Get(msg.SessionID)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, inRoom := c.sessionRoom[msg.SessionID]; inRoom {
		session.Send(RoomErrorEvent{Message: "Already in a room"})
		return
	}

	cfg := core.RuntimeConfig{
		ScreenW:    c.config.ScreenW,
		ScreenH:    c.config.ScreenH,
		TickRate:   c.config.TickRate,
		Seed:       time.Now().UnixNano(),
		Difficulty: c.config.Difficulty,
	}
	game, err := c.gameFactory(msg.GameID, cfg)
	if err != nil {
		c.logger.Error("room game failed", "game", msg.GameID, "err", err)
		session.Send(RoomErrorEvent{Message: "Failed to create game"})
		return
	}

	code := c.generateUniqueCode()
	room := NewRoom(RoomID(uuid.NewString()), code, msg.GameID, game, cfg)
	room.SetLogger(c.logger)
	room.Join(session)

	c.rooms[code] = room
	c.sessionRoom[msg.SessionID] = code

	session.Send(RoomJoinedEvent{RoomID: room.ID(), Code: code, GameID: msg.GameID})
	c.logger.Info("room opened", "room", code, "game", msg.GameID, "host", session.Name())

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		room.Run(func(result RoomResult) {
			c.handleRoomEnded(room, result)
		})
	}()
}

func (c *Coordinator) handleJoinRoom(msg JoinRoomMsg) {
	session, ok := c.sessions.Get(msg.SessionID)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, inRoom := c.sessionRoom[msg.SessionID]; inRoom {
		session.Send(RoomErrorEvent{Message: "Already in a room"})
		return
	}

	code := strings.ToUpper(strings.TrimSpace(msg.Code))
	room, exists := c.rooms[code]
	if !exists {
		session.Send(RoomErrorEvent{Message: "Room not found"})
		return
	}
	if c.config.MaxPlayers > 0 && len(room.Members()) >= c.config.MaxPlayers {
		session.Send(RoomErrorEvent{Message: "Room is full"})
		return
	}

	others := room.Members()
	if !room.Join(session) {
		session.Send(RoomErrorEvent{Message: "Room has closed"})
		return
	}
	c.sessionRoom[msg.SessionID] = code

	session.Send(RoomJoinedEvent{RoomID: room.ID(), Code: code, GameID: room.GameID()})
	for _, m := range others {
		m.Send(PlayerJoinedEvent{Code: code, Name: session.Name()})
	}
	c.logger.Info("player joined", "room", code, "player", session.Name())
}

func (c *Coordinator) handleInput(msg InputMsg) {
	c.mu.RLock()
	room, ok := c.rooms[c.sessionRoom[msg.SessionID]]
	c.mu.RUnlock()

	if ok {
		room.SendInput(msg.SessionID, msg.Input)
	}
}

func (c *Coordinator) leave(id SessionID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	code, inRoom := c.sessionRoom[id]
	if !inRoom {
		return
	}
	delete(c.sessionRoom, id)

	room, ok := c.rooms[code]
	if !ok || !room.Leave(id) {
		return
	}
	name := string(id)
	if s, ok := c.sessions.Get(id); ok {
		name = s.Name()
	}
	for _, m := range room.Members() {
		m.Send(PlayerLeftEvent{Code: code, Name: name})
	}
}

func (c *Coordinator) handleRoomEnded(room *Room, result RoomResult) {
	c.mu.Lock()
	if c.rooms[room.Code()] == room {
		delete(c.rooms, room.Code())
	}
	for id, code := range c.sessionRoom {
		if code == room.Code() {
			delete(c.sessionRoom, id)
		}
	}
	c.mu.Unlock()

	// a room nobody scored in is not worth a row
	if c.resultSaver == nil || len(result.Players) == 0 {
		return
	}
	if err := c.resultSaver.SaveRoomResult(result); err != nil {
		c.logger.Error("saving room result", "room", result.Code, "err", err)
	}
}

// generateUniqueCode must be called with the lock held.
func (c *Coordinator) generateUniqueCode() string {
	for {
		code := generateJoinCode()
		if _, exists := c.rooms[code]; !exists {
			return code
		}
	}
}

// generateJoinCode creates a CodeLength-letter uppercase code.
func generateJoinCode() string {
	var sb strings.Builder
	n := big.NewInt(int64(len(codeAlphabet)))
	for range CodeLength {
		i, err := rand.Int(rand.Reader, n)
		if err != nil {
			// fall back to the clock rather than fail a room
			i = big.NewInt(time.Now().UnixNano() % int64(len(codeAlphabet)))
		}
		sb.WriteByte(codeAlphabet[i.Int64()])
	}
	return sb.String()
}

// Room returns a room by code.
func (c *Coordinator) Room(code string) (*Room, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.rooms[strings.ToUpper(code)]
	return r, ok
}

// RoomOf returns the room a session is in.
func (c *Coordinator) RoomOf(id SessionID) (*Room, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.rooms[c.sessionRoom[id]]
	return r, ok
}

// RoomCount returns the number of open rooms.
func (c *Coordinator) RoomCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rooms)
}

package multiplayer

import (
	"io"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tapfield/internal/core"
)

// Room is one shared field: an authoritative game loop and the sessions
// pressing on it. Only Run touches the game.
type Room struct {
	id       RoomID
	code     string
	gameID   string
	game     SharedGame
	width    int
	height   int
	tickRate int
	logger   *log.Logger

	mu      sync.Mutex
	members []SessionHandle
	names   map[SessionID]string // everyone who ever joined, for results
	closed  bool

	inputs chan roomInput
	tick   uint64

	done     chan struct{}
	doneOnce sync.Once
}

type roomInput struct {
	session SessionID
	input   core.InputFrame
}

// NewRoom creates a room around a game that was already Reset with cfg.
func NewRoom(id RoomID, code, gameID string, game SharedGame, cfg core.RuntimeConfig) *Room {
	return &Room{
		id:       id,
		code:     code,
		gameID:   gameID,
		game:     game,
		width:    cfg.ScreenW,
		height:   cfg.ScreenH,
		tickRate: max(cfg.TickRate, 1),
		logger:   log.New(io.Discard),
		names:    make(map[SessionID]string),
		inputs:   make(chan roomInput, 256),
		done:     make(chan struct{}),
	}
}

// SetLogger sets the room logger.
func (r *Room) SetLogger(l *log.Logger) {
	if l != nil {
		r.logger = l
	}
}

// ID returns the room identifier.
func (r *Room) ID() RoomID { return r.id }

// Code returns the join code.
func (r *Room) Code() string { return r.code }

// GameID returns the game identifier.
func (r *Room) GameID() string { return r.gameID }

// Join adds a session. It reports false once the room has closed.
func (r *Room) Join(s SessionHandle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false
	}
	for _, m := range r.members {
		if m.ID() == s.ID() {
			return true
		}
	}
	r.members = append(r.members, s)
	r.names[s.ID()] = s.Name()
	return true
}

// Leave removes a session. It reports whether it was a member.
func (r *Room) Leave(id SessionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, m := range r.members {
		if m.ID() == id {
			r.members = append(r.members[:i], r.members[i+1:]...)
			return true
		}
	}
	return false
}

// Members returns the current members in join order.
func (r *Room) Members() []SessionHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SessionHandle(nil), r.members...)
}

// SendInput queues a session's input for the next tick.
// Non-blocking: under a flood the newest input is dropped.
func (r *Room) SendInput(id SessionID, in core.InputFrame) {
	select {
	case r.inputs <- roomInput{session: id, input: in.Clone()}:
	default:
		r.logger.Warn("room input dropped", "room", r.code, "session", id)
	}
}

// Stop ends the room at the next tick.
func (r *Room) Stop() {
	r.doneOnce.Do(func() {
		close(r.done)
	})
}

// Run is the authoritative loop. It returns when the round ends, every
// member has left or Stop is called, and hands the result to onEnd.
func (r *Room) Run(onEnd func(RoomResult)) {
	ticker := time.NewTicker(time.Second / time.Duration(r.tickRate))
	defer ticker.Stop()

	reason := EndStopped
loop:
	for {
		select {
		case <-ticker.C:
			if ended, why := r.step(); ended {
				reason = why
				break loop
			}
		case <-r.done:
			break loop
		}
	}

	r.finish(reason, onEnd)
}

func (r *Room) finish(reason string, onEnd func(RoomResult)) {
	r.Stop()
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	result := r.Result(reason)
	r.broadcast(RoomEndedEvent{RoomID: r.id, Reason: reason, Players: result.Players})
	r.logger.Info("room closed", "room", r.code, "game", r.gameID, "reason", reason, "ticks", r.tick)
	if onEnd != nil {
		onEnd(result)
	}
}

// step runs one tick: prune departed sessions, batch every queued input in
// arrival order, step the game and broadcast the frame.
func (r *Room) step() (bool, string) {
	r.prune()
	if len(r.Members()) == 0 {
		return true, EndAbandoned
	}

	st := r.game.Step(r.batch()).State
	r.tick++

	scr := core.NewScreen(r.width, r.height)
	r.game.Render(scr)
	r.broadcast(FrameEvent{
		RoomID:  r.id,
		Tick:    r.tick,
		Screen:  scr,
		State:   st,
		Players: r.players(),
	})

	if st.GameOver {
		return true, EndCompleted
	}
	return false, ""
}

// prune drops members whose session has ended.
func (r *Room) prune() {
	for _, m := range r.Members() {
		select {
		case <-m.Done():
			r.Leave(m.ID())
		default:
		}
	}
}

// batch drains the queued input into one frame. Pointers are namespaced by
// session so the game's arbiter sees every player as a distinct pointer; a
// digit key becomes a press at that slot's centre. Other actions (pause,
// restart) belong to the room, not to a player, and are dropped.
func (r *Room) batch() core.InputFrame {
	frame := core.NewInputFrame()
	members := make(map[SessionID]bool)
	for _, m := range r.Members() {
		members[m.ID()] = true
	}

	for {
		select {
		case ri := <-r.inputs:
			if !members[ri.session] {
				continue
			}
			for _, ev := range ri.input.Pointers {
				ev.Pointer = namespaced(ri.session, ev.Pointer)
				frame.AddPointer(ev)
			}
			for n := 1; n <= core.MaxSlotKeys; n++ {
				if !ri.input.Has(core.SlotAction(n)) {
					continue
				}
				if x, y, ok := r.game.SlotCenter(n - 1); ok {
					frame.AddPointer(core.PointerEvent{
						Pointer: namespaced(ri.session, core.LocalPointer),
						X:       x,
						Y:       y,
						Phase:   core.PhaseBegan,
					})
				}
			}
		default:
			return frame
		}
	}
}

// players sums the game's per-pointer scores by session. Current members
// are listed even without a score.
func (r *Room) players() []PlayerResult {
	scores := make(map[SessionID]int)
	for p, s := range r.game.PlayerScores() {
		if id, ok := owner(p); ok {
			scores[id] += s
		}
	}
	for _, m := range r.Members() {
		if _, ok := scores[m.ID()]; !ok {
			scores[m.ID()] = 0
		}
	}

	r.mu.Lock()
	out := make([]PlayerResult, 0, len(scores))
	for id, s := range scores {
		name := r.names[id]
		if name == "" {
			name = string(id)
		}
		out = append(out, PlayerResult{Session: id, Name: name, Score: s})
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Result returns the room's result as it stands.
func (r *Room) Result(reason string) RoomResult {
	return RoomResult{
		RoomID:       string(r.id),
		Code:         r.code,
		GameID:       r.gameID,
		Players:      r.players(),
		EndReason:    reason,
		DurationSecs: int(r.tick / uint64(r.tickRate)),
	}
}

func (r *Room) broadcast(evt SessionEvent) {
	for _, m := range r.Members() {
		m.Send(evt)
	}
}

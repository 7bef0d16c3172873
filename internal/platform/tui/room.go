package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tapfield/internal/core"
	"github.com/vovakirdan/tapfield/internal/multiplayer"
)

// roomHeaderRows is the number of rows drawn above the shared field.
const roomHeaderRows = 1

// RoomState is the stage of the shared room flow.
type RoomState int

const (
	RoomStateChoose    RoomState = iota // Open a room or join one
	RoomStateEnterCode                  // Typing a join code
	RoomStateWaiting                    // Request sent to the coordinator
	RoomStatePlaying                    // In a room, receiving frames
	RoomStateEnded                      // Room closed, showing standings
)

// RoomModel opens or joins a shared room and plays on it.
type RoomModel struct {
	state       RoomState
	width       int
	height      int
	keyMapper   *KeyMapper
	gameID      string
	gameTitle   string
	session     *multiplayer.ChannelSession
	coordinator *multiplayer.Coordinator
	painter     *Painter

	code      string
	codeInput string
	joining   bool // Whether the pending request is a join
	err       string
	notice    string

	frame  *multiplayer.FrameEvent
	result *multiplayer.RoomEndedEvent

	backToMenu bool
	quitting   bool
}

// NewRoomModel creates a room model for gameID.
func NewRoomModel(
	gameID, gameTitle string,
	session *multiplayer.ChannelSession,
	coordinator *multiplayer.Coordinator,
	painter *Painter,
	width, height int,
) RoomModel {
	if painter == nil {
		painter = NewPainter(nil)
	}
	return RoomModel{
		painter:     painter,
		state:       RoomStateChoose,
		width:       width,
		height:      height,
		keyMapper:   NewKeyMapper(),
		gameID:      gameID,
		gameTitle:   gameTitle,
		session:     session,
		coordinator: coordinator,
	}
}

// Init starts listening for room events.
func (m RoomModel) Init() tea.Cmd {
	return m.waitForEvent()
}

// waitForEvent returns a command that waits for the next session event.
func (m RoomModel) waitForEvent() tea.Cmd {
	events := m.session.Events()
	done := m.session.Done()
	return func() tea.Msg {
		select {
		case evt := <-events:
			return evt
		case <-done:
			return nil
		}
	}
}

// Update handles messages.
func (m RoomModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case multiplayer.RoomJoinedEvent:
		m.code = msg.Code
		m.err = ""
		m.state = RoomStatePlaying
		return m, m.waitForEvent()
	case multiplayer.RoomErrorEvent:
		m.err = msg.Message
		if m.joining {
			m.state = RoomStateEnterCode
		} else {
			m.state = RoomStateChoose
		}
		return m, m.waitForEvent()
	case multiplayer.PlayerJoinedEvent:
		m.notice = msg.Name + " joined"
		return m, m.waitForEvent()
	case multiplayer.PlayerLeftEvent:
		m.notice = msg.Name + " left"
		return m, m.waitForEvent()
	case multiplayer.FrameEvent:
		m.frame = &msg
		return m, m.waitForEvent()
	case multiplayer.RoomEndedEvent:
		m.result = &msg
		m.state = RoomStateEnded
		return m, m.waitForEvent()
	}
	return m, nil
}

func (m RoomModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}

	switch m.state {
	case RoomStateChoose:
		return m.handleChooseKey(msg)
	case RoomStateEnterCode:
		return m.handleCodeKey(msg)
	case RoomStateWaiting:
		if action, _ := m.keyMapper.MapKey(msg); action == core.ActionBack {
			m.state = RoomStateChoose
		}
	case RoomStatePlaying:
		return m.handlePlayingKey(msg)
	case RoomStateEnded:
		switch msg.String() {
		case "q":
			return m.quit()
		case "b", "esc", "enter":
			m.backToMenu = true
		}
	}
	return m, nil
}

func (m RoomModel) handleChooseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "h", "H", "1":
		m.joining = false
		m.err = ""
		m.state = RoomStateWaiting
		m.coordinator.Send(multiplayer.CreateRoomMsg{
			SessionID: m.session.ID(),
			GameID:    m.gameID,
		})
	case "j", "J", "2":
		m.state = RoomStateEnterCode
		m.codeInput = ""
		m.err = ""
	case "esc", "b":
		m.backToMenu = true
	case "q":
		return m.quit()
	}
	return m, nil
}

func (m RoomModel) handleCodeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case "esc":
		m.state = RoomStateChoose
	case "enter":
		if len(m.codeInput) == multiplayer.CodeLength {
			m.joining = true
			m.err = ""
			m.state = RoomStateWaiting
			m.coordinator.Send(multiplayer.JoinRoomMsg{
				SessionID: m.session.ID(),
				Code:      m.codeInput,
			})
		}
	case "backspace":
		if m.codeInput != "" {
			m.codeInput = m.codeInput[:len(m.codeInput)-1]
		}
	default:
		if len(key) == 1 && len(m.codeInput) < multiplayer.CodeLength {
			c := strings.ToUpper(key)
			if c[0] >= 'A' && c[0] <= 'Z' {
				m.codeInput += c
			}
		}
	}
	return m, nil
}

func (m RoomModel) handlePlayingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action, isQuit := m.keyMapper.MapKey(msg)
	switch {
	case isQuit:
		return m.quit()
	case action == core.ActionBack:
		m.coordinator.Send(multiplayer.LeaveRoomMsg{SessionID: m.session.ID()})
		m.backToMenu = true
	case action != core.ActionNone:
		in := core.NewInputFrame()
		in.Set(action)
		m.send(in)
	}
	return m, nil
}

func (m RoomModel) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.state != RoomStatePlaying {
		return m, nil
	}
	in := core.NewInputFrame()
	m.keyMapper.MapMouseToFrame(msg, roomHeaderRows, &in)
	if len(in.Pointers) > 0 {
		m.send(in)
	}
	return m, nil
}

func (m RoomModel) send(in core.InputFrame) {
	m.coordinator.Send(multiplayer.InputMsg{SessionID: m.session.ID(), Input: in})
}

func (m RoomModel) quit() (tea.Model, tea.Cmd) {
	if m.state == RoomStatePlaying {
		m.coordinator.Send(multiplayer.LeaveRoomMsg{SessionID: m.session.ID()})
	}
	m.quitting = true
	return m, tea.Quit
}

// View renders the current state.
func (m RoomModel) View() string {
	if m.quitting {
		return ""
	}

	switch m.state {
	case RoomStateEnterCode:
		return m.viewEnterCode()
	case RoomStateWaiting:
		return m.viewWaiting()
	case RoomStatePlaying:
		return m.viewPlaying()
	case RoomStateEnded:
		return m.viewEnded()
	}
	return m.viewChoose()
}

func (m RoomModel) viewChoose() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(centerText("SHARED ROOM - "+strings.ToUpper(m.gameTitle), m.width))
	b.WriteString("\n\n")
	b.WriteString(centerText("Everyone taps the same field.", m.width))
	b.WriteString("\n\n")
	b.WriteString(centerText("[H] Open a room", m.width))
	b.WriteString("\n")
	b.WriteString(centerText("[J] Join with a code", m.width))
	b.WriteString("\n")
	m.writeError(&b)
	b.WriteString("\n")
	b.WriteString(centerText("Esc: Back  |  Q: Quit", m.width))

	return b.String()
}

func (m RoomModel) viewEnterCode() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(centerText("JOIN ROOM", m.width))
	b.WriteString("\n\n")
	b.WriteString(centerText("Enter the room code:", m.width))
	b.WriteString("\n\n")

	code := m.codeInput
	if len(code) < multiplayer.CodeLength {
		code += "_" + strings.Repeat(" ", multiplayer.CodeLength-len(code)-1)
	}
	b.WriteString(centerText(fmt.Sprintf("[ %s ]", code), m.width))
	b.WriteString("\n")
	m.writeError(&b)
	b.WriteString("\n")
	b.WriteString(centerText("Enter: Join  |  Esc: Back", m.width))

	return b.String()
}

func (m RoomModel) viewWaiting() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(centerText("CONNECTING", m.width))
	b.WriteString("\n\n")
	if m.joining {
		b.WriteString(centerText("Joining room "+m.codeInput, m.width))
	} else {
		b.WriteString(centerText("Opening a room...", m.width))
	}
	b.WriteString("\n\n")
	b.WriteString(centerText("Esc: Cancel", m.width))

	return b.String()
}

func (m RoomModel) viewPlaying() string {
	var b strings.Builder

	header := fmt.Sprintf(" Room %s  %s", m.code, m.gameTitle)
	if m.notice != "" {
		header += "  (" + m.notice + ")"
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(header))
	b.WriteString("\n")

	if m.frame == nil {
		b.WriteString(centerText("Waiting for the first frame...", m.width))
		return b.String()
	}
	b.WriteString(m.painter.Paint(m.frame.Screen))
	b.WriteString("\n")
	b.WriteString(standings(m.frame.Players, m.session.ID()))
	return b.String()
}

func (m RoomModel) viewEnded() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(centerText("ROOM "+m.code+" CLOSED", m.width))
	b.WriteString("\n\n")
	if m.result != nil {
		for i, p := range m.result.Players {
			line := fmt.Sprintf("%d. %-12s %5d", i+1, p.Name, p.Score)
			if p.Session == m.session.ID() {
				line += "  <- you"
			}
			b.WriteString(centerText(line, m.width))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(centerText("Enter: Menu  |  Q: Quit", m.width))

	return b.String()
}

func (m RoomModel) writeError(b *strings.Builder) {
	if m.err == "" {
		return
	}
	b.WriteString("\n")
	b.WriteString(centerText("Error: "+m.err, m.width))
	b.WriteString("\n")
}

// standings renders the player scores on one line, best first, with the
// viewer's own entry highlighted.
func standings(players []multiplayer.PlayerResult, self multiplayer.SessionID) string {
	own := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	parts := make([]string, 0, len(players))
	for _, p := range players {
		entry := fmt.Sprintf("%s %d", p.Name, p.Score)
		if p.Session == self {
			entry = own.Render(entry)
		}
		parts = append(parts, entry)
	}
	return " " + strings.Join(parts, "  |  ")
}

// State returns the current room state.
func (m RoomModel) State() RoomState {
	return m.state
}

// Code returns the join code of the room, once in one.
func (m RoomModel) Code() string {
	return m.code
}

// BackToMenu returns true if user wants to go back to menu.
func (m RoomModel) BackToMenu() bool {
	return m.backToMenu
}

// IsQuitting returns true if user wants to quit entirely.
func (m RoomModel) IsQuitting() bool {
	return m.quitting
}

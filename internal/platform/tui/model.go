package tui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tapfield/internal/config"
	"github.com/vovakirdan/tapfield/internal/core"
	"github.com/vovakirdan/tapfield/internal/games/field"
	"github.com/vovakirdan/tapfield/internal/registry"
	"github.com/vovakirdan/tapfield/internal/spawn"
	"github.com/vovakirdan/tapfield/internal/storage"
)

// Options configure a play session.
type Options struct {
	Store  *storage.Store    // Optional; nil plays without saving
	Player string            // Name saved with scores
	Logger *log.Logger       // Optional; nil discards
	Sound  spawn.SoundPlayer // Optional; nil is silent
	Watch  bool              // Restart the round when the variant's YAML changes
	// Renderer styles the playfield; nil uses the local terminal.
	Renderer *lipgloss.Renderer
}

// reloadMsg reports a changed variant file.
type reloadMsg struct{ path string }

// Model is the Bubble Tea model for running one tap field game.
type Model struct {
	game       registry.Game
	screen     *core.Screen
	painter    *Painter
	store      *storage.Store
	player     string
	logger     *log.Logger
	sound      spawn.SoundPlayer
	config     core.RuntimeConfig
	keyMapper  *KeyMapper
	inputFrame core.InputFrame
	gameState  core.GameState
	watch      bool
	watcher    *config.Watcher
	quitting   bool
	backToMenu bool
	scoreSaved bool // Whether the score has been saved for the current round
}

// NewModel creates a new Bubble Tea model for the given game.
// Start must be called before the model is run.
func NewModel(game registry.Game, cfg core.RuntimeConfig, opts Options) Model {
	// Use time-based seed if not specified
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	player := opts.Player
	if player == "" {
		player = DefaultPlayer()
	}

	return Model{
		game:       game,
		screen:     core.NewScreen(cfg.ScreenW, cfg.ScreenH),
		painter:    NewPainter(opts.Renderer),
		store:      opts.Store,
		player:     player,
		logger:     logger,
		sound:      opts.Sound,
		config:     cfg,
		keyMapper:  NewKeyMapper(),
		inputFrame: core.NewInputFrame(),
		watch:      opts.Watch,
	}
}

// Start wires the game to the session and resets it. With Watch set it also
// starts watching the variant's config directories.
func (m *Model) Start() error {
	if s, ok := m.game.(registry.LoggerSetter); ok {
		s.SetLogger(m.logger)
	}
	if s, ok := m.game.(registry.SoundSetter); ok && m.sound != nil {
		s.SetSoundPlayer(m.sound)
	}
	if err := m.game.Reset(m.config); err != nil {
		return fmt.Errorf("cannot start %s: %w", m.game.ID(), err)
	}
	m.gameState = m.game.State()

	if m.watch {
		w, err := config.NewWatcher(config.SearchDirs(m.config.ConfigPath)...)
		if err != nil {
			m.logger.Warn("config watch disabled", "err", err)
			return nil
		}
		m.watcher = w
		m.logger.Info("watching configs", "dirs", w.Watching())
	}
	return nil
}

// Stop releases the config watcher.
func (m *Model) Stop() {
	if m.watcher != nil {
		if err := m.watcher.Close(); err != nil {
			m.logger.Warn("closing config watcher", "err", err)
		}
		m.watcher = nil
	}
}

// Init starts the tick loop and, when watching, the reload listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(m.config), m.watchCmd())
}

func (m Model) watchCmd() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	events := m.watcher.Events
	return func() tea.Msg {
		path, ok := <-events
		if !ok {
			return nil
		}
		return reloadMsg{path: path}
	}
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.keyMapper.MapMouseToFrame(msg, 0, &m.inputFrame)
		return m, nil

	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case TickMsg:
		return m.handleTick()

	case reloadMsg:
		return m.handleReload(msg)
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+s" {
		m.saveScreenshot()
		return m, nil
	}

	action, isQuit := m.keyMapper.MapKey(msg)
	switch {
	case isQuit:
		m.quitting = true
		return m, tea.Quit
	case action == core.ActionBack:
		if m.gameState.GameOver || m.gameState.Paused {
			m.backToMenu = true
			return m, tea.Quit
		}
	case action != core.ActionNone:
		m.inputFrame.Set(action)
	}

	return m, nil
}

// handleResize follows the terminal size. Games that cannot resize in place
// restart the round.
func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.config.ScreenW = msg.Width
	m.config.ScreenH = msg.Height
	m.screen.Resize(msg.Width, msg.Height)

	if r, ok := m.game.(registry.Resizer); ok {
		r.Resize(msg.Width, msg.Height)
		return m, nil
	}
	if !m.gameState.GameOver {
		if err := m.game.Reset(m.config); err != nil {
			m.logger.Error("reset after resize", "game", m.game.ID(), "err", err)
		}
	}
	return m, nil
}

// handleReload saves the running round, like a restart does, then starts a
// new one with the changed config. A file that fails to load leaves the
// running round alone.
func (m Model) handleReload(msg reloadMsg) (tea.Model, tea.Cmd) {
	if config.VariantID(msg.path) != m.game.ID() && msg.path != m.config.ConfigPath {
		return m, m.watchCmd()
	}
	m.saveResult()
	if err := m.game.Reset(m.config); err != nil {
		m.logger.Warn("config reload failed", "path", msg.path, "err", err)
		return m, m.watchCmd()
	}
	m.logger.Info("config reloaded", "game", m.game.ID(), "path", msg.path)
	m.gameState = m.game.State()
	m.scoreSaved = false
	return m, m.watchCmd()
}

// handleTick processes simulation ticks.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	if m.inputFrame.Has(core.ActionRestart) && (m.gameState.GameOver || m.gameState.Paused) {
		m.saveResult()
		m.config.Seed = time.Now().UnixNano()
		if err := m.game.Reset(m.config); err != nil {
			m.logger.Error("restart failed", "game", m.game.ID(), "err", err)
		}
		m.gameState = m.game.State()
		m.scoreSaved = false
		m.inputFrame.Clear()
		return m, tickCmd(m.config)
	}

	result := m.game.Step(m.inputFrame)
	m.gameState = result.State

	if m.gameState.GameOver {
		m.saveResult()
	}

	m.inputFrame.Clear()
	return m, tickCmd(m.config)
}

// saveResult stores the round once: the score and the capture tally.
func (m *Model) saveResult() {
	if m.scoreSaved || m.gameState.Score <= 0 {
		return
	}
	m.scoreSaved = true
	if m.store == nil {
		return
	}

	id := m.game.ID()
	if _, err := m.store.SaveScore(id, m.player, m.gameState.Score, m.gameState.Captures); err != nil {
		m.logger.Error("saving score", "game", id, "err", err)
		return
	}
	if r, ok := m.game.(rewarder); ok {
		if err := m.store.AddCaptures(id, captureCounts(r.Rewards())); err != nil {
			m.logger.Error("saving captures", "game", id, "err", err)
		}
	}
	m.logger.Info("round saved", "game", id, "player", m.player, "score", m.gameState.Score)
}

// rewarder is implemented by games that list the rewards of a round.
type rewarder interface {
	Rewards() []field.Reward
}

// captureCounts folds a round's rewards into one count per template,
// in first-collected order.
func captureCounts(rewards []field.Reward) []storage.CaptureCount {
	index := make(map[string]int)
	var out []storage.CaptureCount
	for _, r := range rewards {
		i, ok := index[r.Template]
		if !ok {
			i = len(out)
			index[r.Template] = i
			out = append(out, storage.CaptureCount{TemplateID: r.Template, Tier: r.Tier.String()})
		}
		out[i].Count++
	}
	return out
}

// saveScreenshot saves the current screen to ~/.tapfield/screenshots.
func (m *Model) saveScreenshot() {
	m.screen.Clear()
	m.game.Render(m.screen)

	home, err := os.UserHomeDir()
	if err != nil {
		m.logger.Warn("screenshot skipped", "err", err)
		return
	}
	dir := filepath.Join(home, ".tapfield", "screenshots")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		m.logger.Warn("screenshot skipped", "err", err)
		return
	}

	timestamp := time.Now().Format("20060102_150405")
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.txt", m.game.ID(), timestamp))
	if err := os.WriteFile(path, []byte(m.screen.String()), 0o600); err != nil {
		m.logger.Warn("screenshot failed", "path", path, "err", err)
		return
	}
	m.logger.Info("screenshot saved", "path", path)
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	m.screen.Clear()
	m.game.Render(m.screen)
	return m.painter.Paint(m.screen)
}

// State returns the last stepped game state.
func (m Model) State() core.GameState {
	return m.gameState
}

// IsQuitting returns true if user requested to quit entirely.
func (m Model) IsQuitting() bool {
	return m.quitting
}

// BackToMenu returns true if user requested to go back to menu.
func (m Model) BackToMenu() bool {
	return m.backToMenu
}

// DefaultPlayer returns the name scores are saved under when none is given.
func DefaultPlayer() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "player"
}

// Run starts the Bubble Tea program with the given game. The round's score
// is saved when it ends, or when the player quits mid-round.
func Run(game registry.Game, cfg core.RuntimeConfig, opts Options) error {
	model := NewModel(game, cfg, opts)
	if err := model.Start(); err != nil {
		return err
	}
	defer model.Stop()

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),       // Use alternate screen buffer
		tea.WithMouseCellMotion(), // Clicks and drags become pointer events
	)

	final, err := p.Run()
	if m, ok := final.(Model); ok {
		m.gameState = m.game.State()
		m.saveResult()
	}
	return err
}

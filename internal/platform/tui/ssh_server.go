package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/google/uuid"

	"github.com/vovakirdan/tapfield/internal/core"
	"github.com/vovakirdan/tapfield/internal/multiplayer"
	"github.com/vovakirdan/tapfield/internal/registry"
	"github.com/vovakirdan/tapfield/internal/storage"
)

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":23234").
	Address string

	// HostKeyPath is the path to the host key file.
	// If empty, a key will be auto-generated at ~/.tapfield/host_key.
	HostKeyPath string

	// DBPath is the path to the scores database.
	DBPath string

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration

	// TickRate is the simulation rate of solo games and shared rooms.
	TickRate int

	// ConfigPath and Difficulty are passed to every game the server starts.
	ConfigPath string
	Difficulty string

	// MaxPlayers caps the members of a shared room; 0 means unlimited.
	MaxPlayers int

	// Logger receives server logs; nil logs to stderr.
	Logger *log.Logger
}

// DefaultSSHServerConfig returns a config with sensible defaults.
func DefaultSSHServerConfig() SSHServerConfig {
	return SSHServerConfig{
		Address:     ":23234",
		DBPath:      storage.DefaultPath,
		IdleTimeout: 30 * time.Minute,
		TickRate:    30,
		MaxPlayers:  8,
	}
}

// SSHServer wraps a Wish SSH server for tapfield.
type SSHServer struct {
	config      SSHServerConfig
	server      *ssh.Server
	store       *storage.Store
	logger      *log.Logger
	sessions    *multiplayer.SessionRegistry
	coordinator *multiplayer.Coordinator
}

// NewSSHServer creates a new SSH server with the given configuration.
func NewSSHServer(cfg SSHServerConfig) (*SSHServer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "tapfield-ssh",
		})
	}

	// Continue without storage when the database cannot be opened
	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		logger.Warn("could not open scores database", "error", err)
		store = nil
	}

	srv := &SSHServer{
		config:   cfg,
		store:    store,
		logger:   logger,
		sessions: multiplayer.NewSessionRegistry(),
	}

	roomCfg := multiplayer.DefaultCoordinatorConfig()
	if cfg.TickRate > 0 {
		roomCfg.TickRate = cfg.TickRate
	}
	roomCfg.MaxPlayers = cfg.MaxPlayers
	roomCfg.Difficulty = cfg.Difficulty
	srv.coordinator = multiplayer.NewCoordinator(roomCfg, srv.sharedGame, srv.sessions)
	srv.coordinator.SetLogger(logger.WithPrefix("rooms"))
	if store != nil {
		srv.coordinator.SetResultSaver(store)
	}

	// Resolve host key path
	hostKeyPath := cfg.HostKeyPath
	if hostKeyPath == "" {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			srv.closeStore()
			return nil, fmt.Errorf("cannot get home directory: %w", homeErr)
		}
		hostKeyPath = filepath.Join(home, ".tapfield", "host_key")
	}

	if mkdirErr := os.MkdirAll(filepath.Dir(hostKeyPath), 0o700); mkdirErr != nil {
		srv.closeStore()
		return nil, fmt.Errorf("cannot create host key directory: %w", mkdirErr)
	}

	opts := []ssh.Option{
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	}

	server, err := wish.NewServer(opts...)
	if err != nil {
		srv.closeStore()
		return nil, fmt.Errorf("cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// sharedGame builds the authoritative game of a room.
func (s *SSHServer) sharedGame(gameID string, cfg core.RuntimeConfig) (multiplayer.SharedGame, error) {
	game, err := registry.Create(gameID)
	if err != nil {
		return nil, err
	}
	shared, ok := game.(multiplayer.SharedGame)
	if !ok {
		return nil, fmt.Errorf("game %q cannot be shared", gameID)
	}
	if ls, ok := game.(registry.LoggerSetter); ok {
		ls.SetLogger(s.logger.With("game", gameID))
	}
	cfg.ConfigPath = s.config.ConfigPath
	if err := game.Reset(cfg); err != nil {
		return nil, err
	}
	return shared, nil
}

// teaHandler creates a Bubble Tea program for each SSH session.
func (s *SSHServer) teaHandler(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sshSession.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sshSession.User())
		return nil, nil
	}

	cfg := core.RuntimeConfig{
		ScreenW:    pty.Window.Width,
		ScreenH:    pty.Window.Height,
		TickRate:   s.config.TickRate,
		ConfigPath: s.config.ConfigPath,
		Difficulty: s.config.Difficulty,
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = 30
	}

	session := multiplayer.NewChannelSession(multiplayer.SessionID(uuid.NewString()), sshSession.User(), 64)
	s.sessions.Register(session)
	go func() {
		<-sshSession.Context().Done()
		session.Close()
		s.coordinator.Send(multiplayer.SessionDisconnectedMsg{SessionID: session.ID()})
		s.sessions.Unregister(session.ID())
	}()

	model := NewSessionModel(s.store, s.coordinator, session, cfg, bubbletea.MakeRenderer(sshSession), s.logger.With("user", sshSession.User()))

	return model, []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	}
}

// loggingMiddleware logs SSH session events.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		s.logger.Info("session started",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
		next(sshSession)
		s.logger.Info("session ended",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
	}
}

// ListenAndServe starts the SSH server and blocks until shutdown.
func (s *SSHServer) ListenAndServe() error {
	s.logger.Info("starting SSH server", "address", s.config.Address)
	s.coordinator.Start()

	// Setup signal handling for graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			s.logger.Error("server error", "error", err)
		}
	}()

	<-done
	s.logger.Info("shutting down...")
	return s.Shutdown()
}

// Shutdown closes the open rooms, saving their results, then stops the server.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.coordinator.Stop()
	s.closeStore()

	return s.server.Shutdown(ctx)
}

func (s *SSHServer) closeStore() {
	if s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn("closing scores database", "error", err)
	}
	s.store = nil
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Address
}

// sessionView is the screen a session model is showing.
type sessionView int

const (
	viewMenu sessionView = iota
	viewGame
	viewScoreboard
	viewRoom
)

// SessionModel manages the full session flow: menu -> game or room -> menu.
// This is the top-level model used for SSH sessions.
type SessionModel struct {
	store       *storage.Store
	coordinator *multiplayer.Coordinator
	session     *multiplayer.ChannelSession
	config      core.RuntimeConfig
	logger      *log.Logger
	renderer    *lipgloss.Renderer
	painter     *Painter
	view        sessionView
	menu        MenuModel
	game        Model
	scoreboard  ScoreboardModel
	room        RoomModel
	notice      string // Shown above the menu, e.g. a failed start
	quitting    bool
}

// NewSessionModel creates a new session model.
func NewSessionModel(
	store *storage.Store,
	coordinator *multiplayer.Coordinator,
	session *multiplayer.ChannelSession,
	cfg core.RuntimeConfig,
	renderer *lipgloss.Renderer,
	logger *log.Logger,
) SessionModel {
	return SessionModel{
		renderer:    renderer,
		painter:     NewPainter(renderer),
		store:       store,
		coordinator: coordinator,
		session:     session,
		config:      cfg,
		logger:      logger,
		menu:        NewMenuModel(store, cfg).WithRooms(),
	}
}

// Init initializes the session.
func (m SessionModel) Init() tea.Cmd {
	return m.menu.Init()
}

// Update handles messages for the session. Sub-models end with tea.Quit
// when they are run on their own; here those commands are swallowed and
// the session switches view instead.
func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.config.ScreenW = wsm.Width
		m.config.ScreenH = wsm.Height
	}

	switch m.view {
	case viewGame:
		return m.updateGame(msg)
	case viewScoreboard:
		return m.updateScoreboard(msg)
	case viewRoom:
		return m.updateRoom(msg)
	}
	if _, ok := msg.(multiplayer.SessionEvent); ok {
		// a stale room listener; nothing to deliver it to
		return m, nil
	}
	return m.updateMenu(msg)
}

func (m SessionModel) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	newMenu, cmd := m.menu.Update(msg)
	if menuModel, ok := newMenu.(MenuModel); ok {
		m.menu = menuModel
	}

	switch {
	case m.menu.IsQuitting():
		m.quitting = true
		return m, tea.Quit

	case m.menu.WantsScoreboard():
		m.view = viewScoreboard
		m.scoreboard = NewScoreboardModel(m.store, m.config.ScreenW, m.config.ScreenH)
		return m, m.scoreboard.Init()

	case m.menu.Selected() != nil && m.menu.WantsRoom():
		item := m.menu.Selected()
		m.view = viewRoom
		m.room = NewRoomModel(item.GameID, item.Title, m.session, m.coordinator, m.painter, m.config.ScreenW, m.config.ScreenH)
		return m, m.room.Init()

	case m.menu.Selected() != nil:
		return m.startGame(m.menu.Selected().GameID)
	}

	return m, cmd
}

func (m SessionModel) startGame(gameID string) (tea.Model, tea.Cmd) {
	game, err := registry.Create(gameID)
	if err != nil {
		return m.backToMenu(err.Error())
	}

	cfg := m.config
	cfg.Seed = time.Now().UnixNano()
	m.game = NewModel(game, cfg, Options{
		Store:    m.store,
		Player:   m.session.Name(),
		Logger:   m.logger,
		Renderer: m.renderer,
	})
	if err := m.game.Start(); err != nil {
		m.logger.Error("game failed to start", "game", gameID, "err", err)
		return m.backToMenu(err.Error())
	}
	m.view = viewGame
	return m, m.game.Init()
}

func (m SessionModel) updateGame(msg tea.Msg) (tea.Model, tea.Cmd) {
	newModel, cmd := m.game.Update(msg)
	if gameModel, ok := newModel.(Model); ok {
		m.game = gameModel
	}

	if m.game.BackToMenu() || m.game.IsQuitting() {
		m.game.saveResult()
		m.game.Stop()
	}
	if m.game.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}
	if m.game.BackToMenu() {
		return m.backToMenu("")
	}
	return m, cmd
}

func (m SessionModel) updateScoreboard(msg tea.Msg) (tea.Model, tea.Cmd) {
	newModel, cmd := m.scoreboard.Update(msg)
	if sb, ok := newModel.(ScoreboardModel); ok {
		m.scoreboard = sb
	}

	if m.scoreboard.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}
	if m.scoreboard.IsGoingBack() {
		return m.backToMenu("")
	}
	return m, cmd
}

func (m SessionModel) updateRoom(msg tea.Msg) (tea.Model, tea.Cmd) {
	newModel, cmd := m.room.Update(msg)
	if rm, ok := newModel.(RoomModel); ok {
		m.room = rm
	}

	if m.room.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}
	if m.room.BackToMenu() {
		return m.backToMenu("")
	}
	return m, cmd
}

func (m SessionModel) backToMenu(notice string) (tea.Model, tea.Cmd) {
	m.view = viewMenu
	m.notice = notice
	m.menu = NewMenuModel(m.store, m.config).WithRooms()
	return m, m.menu.Init()
}

// View renders the current view.
func (m SessionModel) View() string {
	if m.quitting {
		return ""
	}

	switch m.view {
	case viewGame:
		return m.game.View()
	case viewScoreboard:
		return m.scoreboard.View()
	case viewRoom:
		return m.room.View()
	}

	if m.notice != "" {
		return centerText("! "+m.notice, m.config.ScreenW) + "\n" + m.menu.View()
	}
	return m.menu.View()
}

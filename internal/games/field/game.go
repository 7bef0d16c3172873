// Package field implements the tap field games. Every variant is the same
// game: a spawn.Pool laid out on a playfield, configured by one YAML file
// (moles, insects, eggs, balloons, ...). The player presses occupants with
// the mouse or with the digit keys before they leave.
package field

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tapfield/internal/config"
	"github.com/vovakirdan/tapfield/internal/core"
	"github.com/vovakirdan/tapfield/internal/registry"
	"github.com/vovakirdan/tapfield/internal/spawn"
)

// KeyboardPointer is the pointer id used for digit-key presses. It is the
// same player as the local mouse.
const KeyboardPointer = core.LocalPointer

func init() {
	for _, id := range config.Variants() {
		registry.Register(id, func() registry.Game { return New(id) })
	}
}

// Reward is one presented reward.
type Reward struct {
	Pointer  core.PointerID
	Template string
	Tier     spawn.Tier
	Score    int
	At       time.Duration
}

// Game hosts one variant.
type Game struct {
	id          string
	title       string
	description string

	variant config.VariantConfig
	pool    *spawn.Pool
	diff    *config.DifficultyManager
	view    viewport
	dt      time.Duration

	sound  spawn.SoundPlayer
	logger *log.Logger

	score     int
	captures  int
	players   map[core.PointerID]int
	tally     map[string]int
	rewards   []Reward
	popups    map[int]int // slot -> score shown while Displaying
	ticks     int
	remaining time.Duration
	gameOver  bool
	paused    bool
}

// New creates the game of variant id. Reset must be called before Step.
func New(id string) *Game {
	g := &Game{
		id:     id,
		title:  id,
		sound:  spawn.SoundFunc(func(string) {}),
		logger: log.New(io.Discard),
	}
	if cfg, ok := config.Default(id); ok {
		if cfg.Name != "" {
			g.title = cfg.Name
		}
		g.description = cfg.Description
	}
	return g
}

// ID returns the variant id.
func (g *Game) ID() string { return g.id }

// Title returns the display name.
func (g *Game) Title() string { return g.title }

// Description returns the one-line description of the variant.
func (g *Game) Description() string { return g.description }

// SetSoundPlayer routes the pool's sound cues; takes effect on the next Reset.
func (g *Game) SetSoundPlayer(p spawn.SoundPlayer) {
	if p == nil {
		p = spawn.SoundFunc(func(string) {})
	}
	g.sound = p
}

// SetLogger sets the logger handed to the pool; takes effect on the next Reset.
func (g *Game) SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard)
	}
	g.logger = l
}

// Reset loads the variant configuration and starts a new round.
func (g *Game) Reset(rc core.RuntimeConfig) error {
	cfg, err := config.Load(g.id, rc.ConfigPath)
	if err != nil {
		return fmt.Errorf("field: %w", err)
	}
	if rc.Difficulty != "" {
		preset, err := config.ParsePreset(rc.Difficulty)
		if err != nil {
			return fmt.Errorf("field: %w", err)
		}
		config.ApplyPreset(&cfg, preset)
	}
	return g.start(cfg, rc)
}

// ResetWith starts a new round from an already loaded configuration.
func (g *Game) ResetWith(cfg config.VariantConfig, rc core.RuntimeConfig) error {
	return g.start(cfg, rc)
}

func (g *Game) start(cfg config.VariantConfig, rc core.RuntimeConfig) error {
	sc, err := cfg.ToSpawnConfig()
	if err != nil {
		return fmt.Errorf("field: %w", err)
	}

	src := spawn.DefaultSource()
	if rc.Seed != 0 {
		src = spawn.NewSeededSource(uint64(rc.Seed))
	}
	pool, err := spawn.New(sc,
		spawn.WithSource(src),
		spawn.WithPresenter(g),
		spawn.WithSoundPlayer(g.sound),
		spawn.WithLogger(g.logger.With("game", g.id)),
	)
	if err != nil {
		return fmt.Errorf("field: %w", err)
	}

	if cfg.Name != "" {
		g.title = cfg.Name
	}
	g.description = cfg.Description
	g.variant = cfg
	g.pool = pool
	g.diff = config.NewDifficultyManager(cfg.Difficulty)
	g.view = newViewport(cfg.Field.World, rc.ScreenW, rc.ScreenH)
	g.dt = rc.TickDuration()

	g.score = 0
	g.captures = 0
	g.players = make(map[core.PointerID]int)
	g.tally = make(map[string]int)
	g.rewards = nil
	g.popups = make(map[int]int)
	g.ticks = 0
	g.remaining = cfg.Round.D()
	g.gameOver = false
	g.paused = false

	g.logger.Debug("round started", "game", g.id, "round", cfg.Round, "slots", len(pool.Slots()), "seed", rc.Seed)
	return nil
}

// Resize follows a terminal resize without restarting the round.
func (g *Game) Resize(w, h int) {
	g.view = newViewport(g.variant.Field.World, w, h)
}

// Step advances the round by one tick.
func (g *Game) Step(in core.InputFrame) core.StepResult {
	if g.pool == nil || g.gameOver {
		return core.StepResult{State: g.State()}
	}

	if in.Has(core.ActionPause) {
		g.paused = !g.paused
	}
	if g.paused {
		return core.StepResult{State: g.State()}
	}

	g.ticks++
	g.pool.SetPace(g.diff.Pace(g.score, g.ticks))
	g.pool.Step(g.dt, g.presses(in))

	if g.variant.Round > 0 {
		g.remaining -= g.dt
		if g.remaining <= 0 {
			g.remaining = 0
			g.gameOver = true
			g.logger.Info("round over", "game", g.id, "score", g.score, "captures", g.captures)
		}
	}

	return core.StepResult{State: g.State()}
}

// presses converts the frame's input into world presses: pointer events in
// arrival order, then digit keys aimed at the centre of their slot.
func (g *Game) presses(in core.InputFrame) []core.Press {
	var out []core.Press
	for _, ev := range in.Pointers {
		out = append(out, core.Press{
			Pointer: ev.Pointer,
			Pos:     g.view.toWorld(ev.X, ev.Y),
			Phase:   ev.Phase,
		})
	}
	slots := g.pool.Slots()
	for n := 1; n <= core.MaxSlotKeys && n <= len(slots); n++ {
		if in.Has(core.SlotAction(n)) {
			out = append(out, core.Press{
				Pointer: KeyboardPointer,
				Pos:     slots[n-1].Pos(),
				Phase:   core.PhaseBegan,
			})
		}
	}
	return out
}

// PresentVisual keeps score from the pool's reward cues.
func (g *Game) PresentVisual(c spawn.Cue) {
	switch c.State {
	case spawn.StateDisplaying:
		g.score += c.Score
		g.captures++
		g.players[c.Pointer] += c.Score
		g.tally[c.Entity.ID()]++
		g.popups[c.Slot] = c.Score
		g.rewards = append(g.rewards, Reward{
			Pointer:  c.Pointer,
			Template: c.Entity.ID(),
			Tier:     c.Entity.Tier(),
			Score:    c.Score,
			At:       g.pool.Now(),
		})
	case spawn.StateRespawning, spawn.StateEmpty, spawn.StateDisabled:
		delete(g.popups, c.Slot)
	}
}

// State returns the current game state.
func (g *Game) State() core.GameState {
	return core.GameState{
		Score:     g.score,
		Captures:  g.captures,
		Remaining: g.remaining,
		GameOver:  g.gameOver,
		Paused:    g.paused,
	}
}

// PlayerScores returns the score of every pointer that collected a reward.
func (g *Game) PlayerScores() map[core.PointerID]int {
	out := make(map[core.PointerID]int, len(g.players))
	for p, s := range g.players {
		out[p] = s
	}
	return out
}

// Tally returns how many rewards of each template were collected.
func (g *Game) Tally() map[string]int {
	out := make(map[string]int, len(g.tally))
	for id, n := range g.tally {
		out[id] = n
	}
	return out
}

// Rewards returns the rewards of the round in presentation order.
func (g *Game) Rewards() []Reward {
	return append([]Reward(nil), g.rewards...)
}

// Pool exposes the engine, mainly for tests and the simulator.
func (g *Game) Pool() *spawn.Pool { return g.pool }

// Variant returns the configuration of the running round.
func (g *Game) Variant() config.VariantConfig { return g.variant }

// SlotCenter returns the screen cell at the current position of slot i.
func (g *Game) SlotCenter(i int) (int, int, bool) {
	if g.pool == nil {
		return 0, 0, false
	}
	s, err := g.pool.Slot(i)
	if err != nil {
		return 0, 0, false
	}
	x, y := g.view.toScreen(s.Pos())
	return x, y, true
}

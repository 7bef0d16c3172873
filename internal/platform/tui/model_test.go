package tui

import (
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tapfield/internal/core"
	"github.com/vovakirdan/tapfield/internal/games/field"
	"github.com/vovakirdan/tapfield/internal/spawn"
	"github.com/vovakirdan/tapfield/internal/storage"
)

// stubGame scores one point per began pointer and ends after roundTicks.
type stubGame struct {
	roundTicks int
	ticks      int
	resets     int
	resized    [2]int
	last       core.InputFrame
	state      core.GameState
	rewards    []field.Reward
}

func (g *stubGame) ID() string    { return "stub" }
func (g *stubGame) Title() string { return "Stub" }

func (g *stubGame) Reset(core.RuntimeConfig) error {
	g.resets++
	g.ticks = 0
	g.state = core.GameState{}
	g.rewards = nil
	return nil
}

func (g *stubGame) Step(in core.InputFrame) core.StepResult {
	g.last = in.Clone()
	g.ticks++
	for _, ev := range in.Pointers {
		if ev.Phase == core.PhaseBegan {
			g.state.Score += 10
			g.state.Captures++
			g.rewards = append(g.rewards, field.Reward{Pointer: ev.Pointer, Template: "mole", Tier: spawn.TierNormal, Score: 10})
		}
	}
	if g.ticks >= g.roundTicks {
		g.state.GameOver = true
	}
	return core.StepResult{State: g.state}
}

func (g *stubGame) Render(dst *core.Screen) { dst.DrawText(0, 0, "stub field") }
func (g *stubGame) State() core.GameState   { return g.state }
func (g *stubGame) Resize(w, h int)         { g.resized = [2]int{w, h} }
func (g *stubGame) Rewards() []field.Reward { return g.rewards }

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "scores.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func startModel(t *testing.T, g *stubGame, store *storage.Store) Model {
	t.Helper()
	m := NewModel(g, core.RuntimeConfig{ScreenW: 40, ScreenH: 12, TickRate: 30, Seed: 1}, Options{Store: store, Player: "ann"})
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return out
}

func TestModelClickReachesGame(t *testing.T) {
	g := &stubGame{roundTicks: 100}
	m := startModel(t, g, nil)

	m = update(t, m, tea.MouseMsg{X: 3, Y: 2, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m = update(t, m, runeKey("2"))
	m = update(t, m, TickMsg{})

	if len(g.last.Pointers) != 1 || g.last.Pointers[0].Pointer != MousePointer {
		t.Errorf("pointers = %+v, want one mouse press", g.last.Pointers)
	}
	if !g.last.Has(core.SlotAction(2)) {
		t.Error("slot key did not reach the game")
	}
	if m.State().Score != 10 {
		t.Errorf("score = %d, want 10", m.State().Score)
	}

	// input is cleared after each tick
	m = update(t, m, TickMsg{})
	if len(g.last.Pointers) != 0 {
		t.Errorf("pointers carried over: %+v", g.last.Pointers)
	}
}

func TestModelSavesRoundOnce(t *testing.T) {
	store := openStore(t)
	g := &stubGame{roundTicks: 2}
	m := startModel(t, g, store)

	m = update(t, m, tea.MouseMsg{X: 1, Y: 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m = update(t, m, TickMsg{})
	m = update(t, m, TickMsg{})
	m = update(t, m, TickMsg{})
	if !m.State().GameOver {
		t.Fatal("round did not end")
	}

	scores, err := store.TopScores("stub", 10)
	if err != nil {
		t.Fatalf("TopScores: %v", err)
	}
	if len(scores) != 1 {
		t.Fatalf("saved %d scores, want 1", len(scores))
	}
	if s := scores[0]; s.Player != "ann" || s.Score != 10 || s.Captures != 1 {
		t.Errorf("score = %+v", s)
	}

	tally, err := store.Captures("stub")
	if err != nil {
		t.Fatalf("Captures: %v", err)
	}
	if len(tally) != 1 || tally[0].TemplateID != "mole" || tally[0].Count != 1 || tally[0].Tier != "normal" {
		t.Errorf("tally = %+v", tally)
	}
}

func TestModelRestartAfterRound(t *testing.T) {
	g := &stubGame{roundTicks: 1}
	m := startModel(t, g, nil)

	m = update(t, m, TickMsg{})
	if !m.State().GameOver {
		t.Fatal("round did not end")
	}
	m = update(t, m, runeKey("r"))
	m = update(t, m, TickMsg{})

	if g.resets != 2 {
		t.Errorf("resets = %d, want 2", g.resets)
	}
	if m.State().GameOver {
		t.Error("still over after restart")
	}
}

func TestModelBackOnlyWhenStopped(t *testing.T) {
	g := &stubGame{roundTicks: 1}
	m := startModel(t, g, nil)

	m = update(t, m, runeKey("b"))
	if m.BackToMenu() {
		t.Fatal("back accepted mid-round")
	}

	m = update(t, m, TickMsg{})
	next, cmd := m.Update(runeKey("b"))
	m = next.(Model)
	if !m.BackToMenu() || cmd == nil {
		t.Error("back not accepted after the round")
	}
}

func TestModelQuit(t *testing.T) {
	m := startModel(t, &stubGame{roundTicks: 10}, nil)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if !m.IsQuitting() {
		t.Error("ctrl+c did not quit")
	}
	if m.View() != "" {
		t.Error("quitting model still renders")
	}
}

func TestModelResizeKeepsRound(t *testing.T) {
	g := &stubGame{roundTicks: 10}
	m := startModel(t, g, nil)

	m = update(t, m, tea.WindowSizeMsg{Width: 60, Height: 20})
	if g.resized != [2]int{60, 20} {
		t.Errorf("resized = %v", g.resized)
	}
	if g.resets != 1 {
		t.Errorf("resize restarted the round (%d resets)", g.resets)
	}
	if !strings.HasPrefix(m.View(), "stub field") {
		t.Errorf("view = %q", m.View())
	}
}

func TestModelReloadIgnoresOtherVariants(t *testing.T) {
	g := &stubGame{roundTicks: 10}
	m := startModel(t, g, nil)

	m = update(t, m, reloadMsg{path: "/tmp/configs/eggs.yaml"})
	if g.resets != 1 {
		t.Errorf("unrelated file reset the game")
	}
	m = update(t, m, reloadMsg{path: "/tmp/configs/stub.yaml"})
	if g.resets != 2 {
		t.Errorf("resets = %d after own file changed, want 2", g.resets)
	}
}

func TestModelReloadSavesRound(t *testing.T) {
	store := openStore(t)
	g := &stubGame{roundTicks: 100}
	m := startModel(t, g, store)

	m = update(t, m, tea.MouseMsg{X: 1, Y: 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m = update(t, m, TickMsg{})
	m = update(t, m, reloadMsg{path: "/tmp/configs/stub.yaml"})

	if g.resets != 2 || m.State().Score != 0 {
		t.Fatalf("resets = %d score = %d, want a fresh round", g.resets, m.State().Score)
	}
	scores, err := store.TopScores("stub", 10)
	if err != nil {
		t.Fatalf("TopScores: %v", err)
	}
	if len(scores) != 1 || scores[0].Score != 10 {
		t.Errorf("scores = %+v, want the interrupted round saved", scores)
	}

	// the fresh round is saved on its own
	m = update(t, m, tea.MouseMsg{X: 1, Y: 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m = update(t, m, TickMsg{})
	m = update(t, m, reloadMsg{path: "/tmp/configs/stub.yaml"})
	if scores, _ := store.TopScores("stub", 10); len(scores) != 2 {
		t.Errorf("saved %d rounds, want 2", len(scores))
	}
}

func TestCaptureCounts(t *testing.T) {
	rewards := []field.Reward{
		{Template: "egg", Tier: spawn.TierNormal},
		{Template: "golden", Tier: spawn.TierSuperRare},
		{Template: "egg", Tier: spawn.TierNormal},
	}
	got := captureCounts(rewards)
	if len(got) != 2 {
		t.Fatalf("counts = %+v", got)
	}
	if got[0].TemplateID != "egg" || got[0].Count != 2 {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].TemplateID != "golden" || got[1].Count != 1 || got[1].Tier != spawn.TierSuperRare.String() {
		t.Errorf("second = %+v", got[1])
	}
	if captureCounts(nil) != nil {
		t.Error("no rewards should give no counts")
	}
}

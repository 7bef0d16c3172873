package field

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/vovakirdan/tapfield/internal/config"
	"github.com/vovakirdan/tapfield/internal/core"
	"github.com/vovakirdan/tapfield/internal/registry"
	"github.com/vovakirdan/tapfield/internal/spawn"
)

var (
	_ registry.Game         = (*Game)(nil)
	_ registry.Resizer      = (*Game)(nil)
	_ registry.SoundSetter  = (*Game)(nil)
	_ registry.LoggerSetter = (*Game)(nil)
	_ registry.PlayerScorer = (*Game)(nil)
)

func testRuntime() core.RuntimeConfig {
	rc := core.DefaultConfig()
	rc.Seed = 7
	return rc
}

// newGame resets variant id with HOME pointed at an empty directory so
// only the embedded defaults are seen.
func newGame(t *testing.T, id string) *Game {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	g := New(id)
	if err := g.Reset(testRuntime()); err != nil {
		t.Fatalf("Reset(%s): %v", id, err)
	}
	return g
}

// stepUntil steps with empty input until cond holds.
func stepUntil(t *testing.T, g *Game, maxTicks int, cond func() bool) {
	t.Helper()
	for i := 0; i < maxTicks; i++ {
		if cond() {
			return
		}
		g.Step(core.NewInputFrame())
	}
	if !cond() {
		t.Fatalf("condition not met after %d ticks", maxTicks)
	}
}

func slotState(g *Game, i int) spawn.State {
	return g.Pool().Slots()[i].State()
}

func TestVariantsRegistered(t *testing.T) {
	for _, id := range config.Variants() {
		if !registry.Exists(id) {
			t.Errorf("variant %q not registered", id)
			continue
		}
		g, err := registry.Create(id)
		if err != nil {
			t.Fatalf("Create(%s): %v", id, err)
		}
		if g.ID() != id {
			t.Errorf("ID() = %q, want %q", g.ID(), id)
		}
		if g.Title() == "" || g.Title() == id {
			t.Errorf("%s: title %q not taken from config", id, g.Title())
		}
	}
}

func TestResetAllVariants(t *testing.T) {
	for _, id := range config.Variants() {
		t.Run(id, func(t *testing.T) {
			g := newGame(t, id)
			if len(g.Pool().Slots()) == 0 {
				t.Fatal("no slots")
			}
			if got, want := g.State().Remaining, g.Variant().Round.D(); got != want {
				t.Errorf("Remaining = %v, want %v", got, want)
			}
			for range 300 {
				g.Step(core.NewInputFrame())
			}
			if g.State().GameOver {
				t.Error("round ended after 10s")
			}
		})
	}
}

func TestResetErrors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	err := New("nope").Reset(testRuntime())
	if !errors.Is(err, config.ErrUnknownVariant) {
		t.Errorf("unknown variant: err = %v, want ErrUnknownVariant", err)
	}

	rc := testRuntime()
	rc.Difficulty = "insane"
	if err := New("mole").Reset(rc); err == nil {
		t.Error("expected error for unknown difficulty")
	}
}

func TestKeyboardCapture(t *testing.T) {
	g := newGame(t, "mole")

	stepUntil(t, g, 300, func() bool { return slotState(g, 0) == spawn.StateIdle })
	want, _ := g.Pool().Slots()[0].Occupant()

	in := core.NewInputFrame()
	in.Set(core.SlotAction(1))
	g.Step(in)
	if got := slotState(g, 0); got != spawn.StateCaptured {
		t.Fatalf("slot 1 state = %v, want captured", got)
	}

	stepUntil(t, g, 60, func() bool { return g.State().Captures == 1 })
	if g.State().Score != 1 {
		t.Errorf("Score = %d, want 1", g.State().Score)
	}
	if got := g.PlayerScores()[KeyboardPointer]; got != 1 {
		t.Errorf("keyboard score = %d, want 1", got)
	}
	if got := g.Tally()[want.ID()]; got != 1 {
		t.Errorf("Tally[%s] = %d, want 1", want.ID(), got)
	}
	rewards := g.Rewards()
	if len(rewards) != 1 || rewards[0].Template != want.ID() || rewards[0].Pointer != KeyboardPointer {
		t.Errorf("Rewards = %+v", rewards)
	}
}

func TestKeyOutsideFieldIgnored(t *testing.T) {
	g := newGame(t, "eggs") // four nests

	in := core.NewInputFrame()
	in.Set(core.SlotAction(9))
	if got := g.presses(in); len(got) != 0 {
		t.Errorf("presses = %+v, want none", got)
	}
}

func TestMousePressHitsSlot(t *testing.T) {
	g := newGame(t, "mole")

	stepUntil(t, g, 300, func() bool { return slotState(g, 4) == spawn.StateIdle })
	x, y, ok := g.SlotCenter(4)
	if !ok {
		t.Fatal("SlotCenter(4) not found")
	}

	in := core.NewInputFrame()
	in.AddPointer(core.PointerEvent{Pointer: "mouse", X: x, Y: y, Phase: core.PhaseBegan})
	g.Step(in)

	s := g.Pool().Slots()[4]
	if s.State() != spawn.StateCaptured {
		t.Fatalf("state = %v, want captured", s.State())
	}
	if s.Owner() != "mouse" {
		t.Errorf("owner = %q, want mouse", s.Owner())
	}
}

func TestMouseAndKeysAreOnePlayer(t *testing.T) {
	g := newGame(t, "eggs")

	stepUntil(t, g, 300, func() bool { return slotState(g, 0) == spawn.StateIdle })
	x, y, _ := g.SlotCenter(0)
	in := core.NewInputFrame()
	in.AddPointer(core.PointerEvent{Pointer: core.LocalPointer, X: x, Y: y, Phase: core.PhaseBegan})
	g.Step(in)

	// the nest is protected: the keys may only finish it as the same player
	for tap := 2; tap <= 3; tap++ {
		stepUntil(t, g, 60, func() bool { return slotState(g, 0) == spawn.StateResolving })
		in := core.NewInputFrame()
		in.Set(core.SlotAction(1))
		g.Step(in)
		if got := g.Pool().Slots()[0].Taps(); got != tap {
			t.Fatalf("taps = %d after key press, want %d", got, tap)
		}
	}

	stepUntil(t, g, 90, func() bool { return g.State().Captures == 1 })
	if got := g.PlayerScores()[KeyboardPointer]; got != g.State().Score {
		t.Errorf("local score = %d, want the whole score %d", got, g.State().Score)
	}
}

func TestPointersScoreSeparately(t *testing.T) {
	g := newGame(t, "mole")

	idle := func() []int {
		var out []int
		for _, s := range g.Pool().Slots() {
			if s.State() == spawn.StateIdle {
				out = append(out, s.Index())
			}
		}
		return out
	}
	stepUntil(t, g, 600, func() bool { return len(idle()) >= 2 })
	targets := idle()[:2]

	in := core.NewInputFrame()
	for i, slot := range targets {
		x, y, _ := g.SlotCenter(slot)
		ptr := core.PointerID([]string{"alice/mouse", "bob/mouse"}[i])
		in.AddPointer(core.PointerEvent{Pointer: ptr, X: x, Y: y, Phase: core.PhaseBegan})
	}
	g.Step(in)

	stepUntil(t, g, 60, func() bool { return g.State().Captures == 2 })
	scores := g.PlayerScores()
	if scores["alice/mouse"] != 1 || scores["bob/mouse"] != 1 {
		t.Errorf("PlayerScores = %v, want one each", scores)
	}
}

func TestRoundEnds(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, ok := config.Default("mole")
	if !ok {
		t.Fatal("no embedded mole config")
	}
	cfg.Round = config.Duration(time.Second)

	rc := testRuntime()
	rc.TickRate = 10
	g := New("mole")
	if err := g.ResetWith(cfg, rc); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 9; i++ {
		if g.Step(core.NewInputFrame()).State.GameOver {
			t.Fatalf("round over after %d ticks", i+1)
		}
	}
	st := g.Step(core.NewInputFrame()).State
	if !st.GameOver || st.Remaining != 0 {
		t.Fatalf("state = %+v, want game over with no time left", st)
	}

	now := g.Pool().Now()
	g.Step(core.NewInputFrame())
	if g.Pool().Now() != now {
		t.Error("pool kept running after the round ended")
	}
}

func TestEndlessRound(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, _ := config.Default("fruit")
	cfg.Round = 0

	g := New("fruit")
	if err := g.ResetWith(cfg, testRuntime()); err != nil {
		t.Fatal(err)
	}
	for range 30 * 120 {
		g.Step(core.NewInputFrame())
	}
	if g.State().GameOver {
		t.Error("endless round ended")
	}
}

func TestPauseFreezesPool(t *testing.T) {
	g := newGame(t, "insects")
	g.Step(core.NewInputFrame())

	pause := core.NewInputFrame()
	pause.Set(core.ActionPause)
	g.Step(pause)
	if !g.State().Paused {
		t.Fatal("not paused")
	}

	now, left := g.Pool().Now(), g.State().Remaining
	for range 10 {
		g.Step(core.NewInputFrame())
	}
	if g.Pool().Now() != now || g.State().Remaining != left {
		t.Error("time advanced while paused")
	}

	g.Step(pause)
	if g.State().Paused {
		t.Error("still paused")
	}
	if g.Pool().Now() == now {
		t.Error("unpause step did not advance the pool")
	}
}

func TestDifficultyPreset(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	base, _ := config.Default("mole")

	rc := testRuntime()
	rc.Difficulty = "hard"
	g := New("mole")
	if err := g.Reset(rc); err != nil {
		t.Fatal(err)
	}
	if got, want := g.Variant().Round.D(), time.Duration(float64(base.Round)*0.75); got != want {
		t.Errorf("hard round = %v, want %v", got, want)
	}
}

func TestSoundsReachPlayer(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	var played []string
	g := New("mole")
	g.SetSoundPlayer(spawn.SoundFunc(func(id string) { played = append(played, id) }))
	if err := g.Reset(testRuntime()); err != nil {
		t.Fatal(err)
	}
	stepUntil(t, g, 300, func() bool { return len(played) > 0 })
	if played[0] != "pop" {
		t.Errorf("first cue = %q, want pop", played[0])
	}
}

func TestSeededRoundsMatch(t *testing.T) {
	run := func() []Reward {
		g := newGame(t, "fossils")
		in := core.NewInputFrame()
		for i := range 900 {
			in.Clear()
			if i%3 == 0 {
				in.Set(core.SlotAction(i%6 + 1))
			}
			g.Step(in)
		}
		return g.Rewards()
	}
	a, b := run(), run()
	if len(a) == 0 {
		t.Fatal("no rewards collected")
	}
	if len(a) != len(b) {
		t.Fatalf("reward counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("reward %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestViewportRoundTrip(t *testing.T) {
	world := config.Box{MinX: -8, MinY: -5, MaxX: 8, MaxY: 5}
	v := newViewport(world, 80, 24)
	sx, sy := v.cellsPerUnit()

	tests := []struct {
		name string
		p    core.Vec
	}{
		{"origin", core.V(0, 0)},
		{"top left", core.V(-8, 5)},
		{"bottom right", core.V(8, -5)},
		{"off grid", core.V(3.3, -1.7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := v.toScreen(tt.p)
			back := v.toWorld(x, y)
			if math.Abs(back.X-tt.p.X) > 0.5/sx+1e-9 || math.Abs(back.Y-tt.p.Y) > 0.5/sy+1e-9 {
				t.Errorf("%v -> (%d,%d) -> %v", tt.p, x, y, back)
			}
		})
	}

	if x, y := v.toScreen(core.V(-8, 5)); x != 0 || y != hudRows {
		t.Errorf("top left maps to (%d,%d), want (0,%d)", x, y, hudRows)
	}
	if _, y := v.toScreen(core.V(0, -5)); y != 24-footerRows-1 {
		t.Errorf("bottom edge maps to row %d, want %d", y, 24-footerRows-1)
	}
}

func TestResizeKeepsRound(t *testing.T) {
	g := newGame(t, "mole")
	for range 60 {
		g.Step(core.NewInputFrame())
	}
	now := g.Pool().Now()
	x0, y0, _ := g.SlotCenter(8)

	g.Resize(160, 48)
	if g.Pool().Now() != now {
		t.Error("resize restarted the round")
	}
	x1, y1, _ := g.SlotCenter(8)
	if x1 <= x0 || y1 <= y0 {
		t.Errorf("slot 9 moved from (%d,%d) to (%d,%d), want further right and down", x0, y0, x1, y1)
	}
}

func TestRender(t *testing.T) {
	g := newGame(t, "mole")
	scr := core.NewScreen(80, 24)
	g.Render(scr)

	if hud := scr.Row(0); !strings.Contains(hud, "Whack-a-Mole") || !strings.Contains(hud, "Score: 0") {
		t.Errorf("HUD row = %q", hud)
	}
	if help := scr.Row(23); !strings.Contains(help, "1-9") {
		t.Errorf("help row = %q", help)
	}
	x, y, _ := g.SlotCenter(0)
	rx, ry := g.view.radii(g.Pool().Config().Radius)
	if got := scr.Get(x-rx, y-ry); got != '1' {
		t.Errorf("slot label = %q, want '1'", got)
	}

	stepUntil(t, g, 300, func() bool { return slotState(g, 0) == spawn.StateIdle })
	e, _ := g.Pool().Slots()[0].Occupant()
	tc, _ := g.Variant().Template(e.ID())
	g.Render(scr)
	if row := scr.Row(y); !strings.Contains(row, tc.Glyph) {
		t.Errorf("row %d = %q, want glyph %q", y, row, tc.Glyph)
	}
}

func TestBalloonPassengerFalls(t *testing.T) {
	cfg, ok := config.Default("balloons")
	if !ok {
		t.Fatal("no balloons default")
	}
	cfg.Drops.Chance = 1
	cfg.Tiers.RareChance = 0
	g := New("balloons")
	if err := g.ResetWith(cfg, testRuntime()); err != nil {
		t.Fatalf("ResetWith: %v", err)
	}

	var carrier *spawn.Slot
	stepUntil(t, g, 600, func() bool {
		for _, s := range g.Pool().Slots() {
			if e, ok := s.Occupant(); ok && e.Cargo != "" && s.State() == spawn.StateIdle && s.Pos().Y > -3 {
				carrier = s
				return true
			}
		}
		return false
	})
	e, _ := carrier.Occupant()
	dc, ok := g.Variant().Drop(e.Cargo)
	if !ok {
		t.Fatalf("cargo %q has no drawing", e.Cargo)
	}

	scr := core.NewScreen(80, 24)
	g.Render(scr)
	if !strings.Contains(scr.String(), dc.Glyph) {
		t.Errorf("carrier drawn without its passenger %q", dc.Glyph)
	}

	x, y, _ := g.SlotCenter(carrier.Index())
	in := core.NewInputFrame()
	in.AddPointer(core.PointerEvent{Pointer: core.LocalPointer, X: x, Y: y, Phase: core.PhaseBegan})
	g.Step(in)
	stepUntil(t, g, 30, func() bool { return len(g.Pool().Drops()) == 1 })

	g.Render(scr)
	if !strings.Contains(scr.String(), dc.Glyph) {
		t.Errorf("falling passenger %q not drawn", dc.Glyph)
	}
}

package field

import (
	"fmt"
	"strings"
	"time"

	"github.com/vovakirdan/tapfield/internal/core"
	"github.com/vovakirdan/tapfield/internal/spawn"
)

// Render draws the playfield, the HUD and the key help.
func (g *Game) Render(dst *core.Screen) {
	dst.Clear()
	if g.pool == nil {
		return
	}

	mobile := g.variant.Motion != nil
	for _, s := range g.pool.Slots() {
		if !mobile {
			g.drawHole(dst, s)
		}
		g.drawOccupant(dst, s)
	}
	for _, d := range g.pool.Drops() {
		g.drawDrop(dst, d.Kind, d.Pos)
	}

	g.drawHUD(dst)

	help := "click or 1-9 to tap  P pause  R restart  B menu  Q quit"
	dst.DrawTextCentered(dst.Height()-1, help, core.ColorGray)

	if g.paused {
		g.drawMessage(dst, "PAUSED", "Press P to resume")
	}
	if g.gameOver {
		g.drawMessage(dst, "TIME UP", fmt.Sprintf("Score: %d  |  Press R to play again", g.score))
	}
}

// drawHole outlines a fixed slot and labels it with its key.
func (g *Game) drawHole(dst *core.Screen, s *spawn.Slot) {
	cx, cy := g.view.toScreen(s.Home())
	rx, ry := g.view.radii(g.pool.Config().Radius)
	if s.State() == spawn.StateDisabled {
		dst.DrawEllipse(cx, cy, rx, ry, 'x', core.ColorGray)
		return
	}
	dst.DrawEllipse(cx, cy, rx, ry, '·', core.ColorGray)
	if n := s.Index() + 1; n <= core.MaxSlotKeys {
		dst.SetColored(cx-rx, cy-ry, rune('0'+n), core.ColorGray)
	}
}

func (g *Game) drawOccupant(dst *core.Screen, s *spawn.Slot) {
	e, ok := s.Occupant()
	if !ok {
		return
	}
	tc, _ := g.variant.Template(e.ID())
	glyph := tc.Glyph
	if glyph == "" {
		glyph = e.ID()
	}
	color, ok := core.ParseColor(tc.Color)
	if !ok {
		color = core.ColorDefault
	}

	cx, cy := g.view.toScreen(s.Pos())
	switch s.State() {
	case spawn.StateSpawning, spawn.StateRespawning:
		centered(dst, cx, cy, glyph, core.ColorGray)
	case spawn.StateIdle:
		centered(dst, cx, cy, glyph, color)
		if e.Cargo != "" {
			g.drawDrop(dst, e.Cargo, s.Pos().Sub(core.V(0, 1)))
		}
	case spawn.StateCaptured:
		centered(dst, cx, cy, "*"+glyph+"*", core.ColorBrightWhite)
	case spawn.StateResolving:
		centered(dst, cx, cy, glyph, core.ColorBrightYellow)
		if need := s.TapsNeeded(); need > 1 {
			centered(dst, cx, cy+1, progress(s.Taps(), need), core.ColorYellow)
		}
	case spawn.StateDisplaying:
		c := core.ColorBrightYellow
		if e.Template.Flags.Has(spawn.FlagFanfare) {
			c = core.ColorBrightMagenta
		}
		label := tc.Label
		if label == "" {
			label = glyph
		}
		centered(dst, cx, cy, label, c)
		centered(dst, cx, cy+1, fmt.Sprintf("+%d", g.popups[s.Index()]), c)
	}
}

// drawDrop draws a passenger, hanging under its carrier or falling free.
func (g *Game) drawDrop(dst *core.Screen, kind string, pos core.Vec) {
	dc, ok := g.variant.Drop(kind)
	if !ok {
		return
	}
	color, ok := core.ParseColor(dc.Color)
	if !ok {
		color = core.ColorDefault
	}
	x, y := g.view.toScreen(pos)
	centered(dst, x, y, dc.Glyph, color)
}

func (g *Game) drawHUD(dst *core.Screen) {
	left := fmt.Sprintf(" %s  Score: %d  Caught: %d", g.title, g.score, g.captures)
	dst.DrawTextColored(0, 0, left, core.ColorBrightWhite)

	if g.variant.Round > 0 {
		secs := int((g.remaining + time.Second - 1) / time.Second)
		right := fmt.Sprintf("Time: %2d ", secs)
		c := core.ColorBrightWhite
		if secs <= 10 {
			c = core.ColorBrightRed
		}
		dst.DrawTextColored(dst.Width()-len(right), 0, right, c)
	}
}

// drawMessage shows a two-line centred banner over the playfield.
func (g *Game) drawMessage(dst *core.Screen, title, subtitle string) {
	midY := dst.Height() / 2
	w := max(len(title), len(subtitle)) + 4
	x := (dst.Width() - w) / 2
	dst.DrawBox(core.NewRect(x, midY-2, w, 5), core.ColorBrightWhite)
	for dx := 1; dx < w-1; dx++ {
		dst.Set(x+dx, midY-1, ' ')
		dst.Set(x+dx, midY, ' ')
		dst.Set(x+dx, midY+1, ' ')
	}
	dst.DrawTextCentered(midY-1, title, core.ColorBrightWhite)
	dst.DrawTextCentered(midY+1, subtitle, core.ColorDefault)
}

func centered(dst *core.Screen, cx, y int, text string, c core.Color) {
	dst.DrawTextColored(cx-len([]rune(text))/2, y, text, c)
}

// progress renders taps as filled and empty pips: "●●○".
func progress(taps, need int) string {
	taps = core.Clamp(taps, 0, need)
	return strings.Repeat("●", taps) + strings.Repeat("○", need-taps)
}

package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tapfield/internal/core"
)

// ansiCodes holds the terminal color of every palette entry; empty keeps
// the terminal's own foreground.
var ansiCodes = [...]string{
	core.ColorDefault:       "",
	core.ColorRed:           "1",
	core.ColorGreen:         "2",
	core.ColorYellow:        "3",
	core.ColorBlue:          "4",
	core.ColorMagenta:       "5",
	core.ColorCyan:          "6",
	core.ColorWhite:         "7",
	core.ColorBrightRed:     "9",
	core.ColorBrightGreen:   "10",
	core.ColorBrightYellow:  "11",
	core.ColorBrightBlue:    "12",
	core.ColorBrightMagenta: "13",
	core.ColorBrightCyan:    "14",
	core.ColorBrightWhite:   "15",
	core.ColorOrange:        "208",
	core.ColorGray:          "245",
	core.ColorBrown:         "130",
}

// Painter turns the playfield buffer into terminal text. Styles come from
// the renderer of one output, so an SSH client is painted for its own
// terminal instead of the server's.
type Painter struct {
	styles [len(ansiCodes)]lipgloss.Style
}

// NewPainter builds the palette for r; nil uses the local terminal.
func NewPainter(r *lipgloss.Renderer) *Painter {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	p := &Painter{}
	for c, code := range ansiCodes {
		p.styles[c] = r.NewStyle()
		if code != "" {
			p.styles[c] = p.styles[c].Foreground(lipgloss.Color(code))
		}
	}
	return p
}

func (p *Painter) style(c core.Color) lipgloss.Style {
	if int(c) >= len(p.styles) {
		return p.styles[core.ColorDefault]
	}
	return p.styles[c]
}

// Paint renders s one row per line. Cells of one color are styled as a
// single run, and the blank tail of a row is dropped.
func (p *Painter) Paint(s *core.Screen) string {
	var sb strings.Builder
	sb.Grow(s.Width()*s.Height() + s.Height())

	var run strings.Builder
	for y := range s.Height() {
		if y > 0 {
			sb.WriteByte('\n')
		}
		end := s.Width()
		for end > 0 {
			if c := s.GetCell(end-1, y); c.Rune != ' ' || c.Color != core.ColorDefault {
				break
			}
			end--
		}

		for x := 0; x < end; {
			color := s.GetCell(x, y).Color
			run.Reset()
			for ; x < end; x++ {
				c := s.GetCell(x, y)
				if c.Color != color {
					break
				}
				run.WriteRune(c.Rune)
			}
			if color == core.ColorDefault {
				sb.WriteString(run.String())
				continue
			}
			sb.WriteString(p.style(color).Render(run.String()))
		}
	}
	return sb.String()
}

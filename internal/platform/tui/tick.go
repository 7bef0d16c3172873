// Package tui provides the Bubble Tea integration for the tapfield games.
// It runs the local and SSH round loops, maps keys and clicks to pointer
// input, and draws the menu, scoreboard and shared room screens.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tapfield/internal/core"
)

// TickMsg is sent once per simulated tick.
type TickMsg time.Time

// tickCmd schedules the next tick. A zero tick rate falls back to the
// default pace of core.RuntimeConfig.
func tickCmd(cfg core.RuntimeConfig) tea.Cmd {
	return tea.Tick(cfg.TickDuration(), func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Package tui provides the Bubble Tea front end for browsing and previewing
// saves, locally or over SSH.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// statusTimeout is how long a status line stays visible.
const statusTimeout = 2 * time.Second

// clearStatusMsg hides the status line set at the given generation.
type clearStatusMsg int

// clearStatusCmd returns a command that expires the status line after d.
func clearStatusCmd(gen int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearStatusMsg(gen)
	})
}

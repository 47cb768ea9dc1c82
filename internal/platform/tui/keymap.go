package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/powdersave/internal/core"
)

// PreviewKeyMap defines the key bindings for the save preview.
type PreviewKeyMap struct {
	RotateCW  key.Binding
	RotateCCW key.Binding
	FlipH     key.Binding
	FlipV     key.Binding
	Reset     key.Binding
	Up        key.Binding
	Down      key.Binding
	Help      key.Binding
	Back      key.Binding
	Quit      key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k PreviewKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.RotateCW, k.FlipH, k.FlipV, k.Reset, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k PreviewKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.RotateCW, k.RotateCCW, k.FlipH, k.FlipV, k.Reset},
		{k.Up, k.Down},
		{k.Help, k.Back, k.Quit},
	}
}

// DefaultPreviewKeyMap returns default key bindings.
func DefaultPreviewKeyMap() PreviewKeyMap {
	return PreviewKeyMap{
		RotateCW: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rotate cw"),
		),
		RotateCCW: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "rotate ccw"),
		),
		FlipH: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "flip horizontal"),
		),
		FlipV: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "flip vertical"),
		),
		Reset: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "reset"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll palette"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "b"),
			key.WithHelp("esc/b", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// transformFor maps a preview key to the matrix it applies.
func (k PreviewKeyMap) transformFor(msg tea.KeyMsg) (core.Mat2, bool) {
	switch {
	case key.Matches(msg, k.RotateCW):
		return core.Rotate90, true
	case key.Matches(msg, k.RotateCCW):
		return core.Rotate270, true
	case key.Matches(msg, k.FlipH):
		return core.FlipH, true
	case key.Matches(msg, k.FlipV):
		return core.FlipV, true
	}
	return core.Identity, false
}

// LibraryKeyMap defines the key bindings for the library browser.
type LibraryKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Open    key.Binding
	Refresh key.Binding
	Back    key.Binding
	Quit    key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k LibraryKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.Refresh, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k LibraryKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open, k.Refresh},
		{k.Back, k.Quit},
	}
}

// DefaultLibraryKeyMap returns default key bindings.
func DefaultLibraryKeyMap() LibraryKeyMap {
	return LibraryKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "down"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "preview"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "refresh"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "b"),
			key.WithHelp("esc/b", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

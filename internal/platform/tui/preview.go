package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/powdersave/internal/core"
	"github.com/vovakirdan/powdersave/internal/elements"
	"github.com/vovakirdan/powdersave/internal/gamesave"
)

// Preview layout constants
const (
	paletteNameWidth  = 14
	paletteCountWidth = 8
	chromeHeight      = 9 // title, info, borders, status and help
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229"))
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208"))
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// PreviewModel shows a save as a character map next to its element counts.
// Rotations and flips apply to a private copy; the save passed in is never
// modified.
type PreviewModel struct {
	title         string
	elements      *elements.Table
	original      *gamesave.GameSave
	current       *gamesave.GameSave
	blocksPerChar int

	palette table.Model
	help    help.Model
	keys    PreviewKeyMap

	width     int
	height    int
	status    string
	statusGen int

	embedded  bool // back returns to the caller instead of quitting
	quitting  bool
	goingBack bool
}

// NewPreviewModel creates a preview of gs.
func NewPreviewModel(gs *gamesave.GameSave, tbl *elements.Table, title string, blocksPerChar, width, height int) PreviewModel {
	h := help.New()
	h.ShowAll = false
	h.Width = width

	m := PreviewModel{
		title:         title,
		elements:      tbl,
		original:      gs.Clone(),
		current:       gs.Clone(),
		blocksPerChar: max(blocksPerChar, 1),
		help:          h,
		keys:          DefaultPreviewKeyMap(),
		width:         width,
		height:        height,
	}
	m.palette = m.createTable()
	m.updatePalette()
	return m
}

func (m *PreviewModel) createTable() table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Element", Width: paletteNameWidth},
			{Title: "Count", Width: paletteCountWidth},
		}),
		table.WithFocused(true),
		table.WithHeight(max(m.height-chromeHeight, 3)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)
	return t
}

// PaletteCount is one row of the element count table.
type PaletteCount struct {
	ID      int
	Name    string
	Missing bool
	Count   int
}

// PaletteCounts lists the element types in gs, most common first.
func PaletteCounts(gs *gamesave.GameSave, tbl *elements.Table) []PaletteCount {
	counts := gs.ElementCounts()
	out := make([]PaletteCount, 0, len(counts))
	for id, n := range counts {
		pc := PaletteCount{ID: id, Count: n}
		if name, ok := gs.MissingElements.Name(id); ok {
			pc.Name, pc.Missing = name, true
		} else if name := tbl.Name(id); name != "" {
			pc.Name = name
		} else {
			pc.Name, pc.Missing = fmt.Sprintf("#%d", id), true
		}
		out = append(out, pc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *PreviewModel) updatePalette() {
	counts := PaletteCounts(m.current, m.elements)
	rows := make([]table.Row, len(counts))
	for i, c := range counts {
		name := c.Name
		if c.Missing {
			name += "?"
		}
		rows[i] = table.Row{name, fmt.Sprintf("%d", c.Count)}
	}
	m.palette.SetRows(rows)
	m.palette.GotoTop()
}

func (m *PreviewModel) setStatus(s string) tea.Cmd {
	m.statusGen++
	m.status = s
	return clearStatusCmd(m.statusGen, statusTimeout)
}

// Init initializes the preview model.
func (m PreviewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the preview.
func (m PreviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if mat, ok := m.keys.transformFor(msg); ok {
			prev := m.current.BlockSize
			next := m.current.Clone()
			// The view is never encoded, so any canvas the format can hold is fine.
			next.Limits = gamesave.Limits{MaxBlockSize: core.V(gamesave.MaxBlockDim, gamesave.MaxBlockDim)}
			if err := next.Transform(mat, core.V(0, 0)); err != nil {
				return m, m.setStatus("transform failed: " + err.Error())
			}
			m.current = next
			m.updatePalette()
			return m, m.setStatus(fmt.Sprintf("%s -> %s blocks", prev, next.BlockSize))
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Back):
			m.goingBack = true
			if m.embedded {
				return m, nil
			}
			return m, tea.Quit

		case key.Matches(msg, m.keys.Reset):
			m.current = m.original.Clone()
			m.updatePalette()
			return m, m.setStatus("reset")

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil

		case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
			m.palette, cmd = m.palette.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.palette.SetHeight(max(m.height-chromeHeight, 3))
		return m, nil

	case clearStatusMsg:
		if int(msg) == m.statusGen {
			m.status = ""
		}
		return m, nil
	}

	return m, nil
}

// View renders the preview.
func (m PreviewModel) View() string {
	if m.quitting || (m.goingBack && !m.embedded) {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(centerText(m.title, m.width)))
	b.WriteString("\n")
	b.WriteString(m.infoLine())
	b.WriteString("\n")

	mapBox := boxStyle.Render(RenderScreen(DrawSave(m.current, m.elements, m.blocksPerChar)))
	var paletteBox string
	if len(m.current.Particles) == 0 {
		paletteBox = boxStyle.Render(dimStyle.Italic(true).Render("No particles."))
	} else {
		paletteBox = boxStyle.Render(m.palette.View())
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, mapBox, " ", paletteBox))
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(warnStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m PreviewModel) infoLine() string {
	gs := m.current
	parts := []string{
		fmt.Sprintf("%s blocks", gs.BlockSize),
		fmt.Sprintf("%d particles", len(gs.Particles)),
		fmt.Sprintf("v%s", gs.Version),
	}
	if len(gs.Signs) > 0 {
		parts = append(parts, fmt.Sprintf("%d signs", len(gs.Signs)))
	}
	line := dimStyle.Render(strings.Join(parts, "  "))
	if gs.FromNewerVersion {
		line += "  " + warnStyle.Render("from a newer version")
	}
	if names := gs.MissingElements.Names(); len(names) > 0 {
		line += "  " + warnStyle.Render("missing: "+strings.Join(names, ", "))
	}
	return line
}

// Current returns the save as currently shown.
func (m PreviewModel) Current() *gamesave.GameSave {
	return m.current
}

// IsGoingBack returns true if user wants to leave the preview.
func (m PreviewModel) IsGoingBack() bool {
	return m.goingBack
}

// IsQuitting returns true if user wants to quit entirely.
func (m PreviewModel) IsQuitting() bool {
	return m.quitting
}

// RunPreview runs a full-screen preview of gs.
func RunPreview(gs *gamesave.GameSave, tbl *elements.Table, title string, blocksPerChar, width, height int) error {
	model := NewPreviewModel(gs, tbl, title, blocksPerChar, width, height)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}

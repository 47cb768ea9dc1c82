package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/powdersave/internal/elements"
	"github.com/vovakirdan/powdersave/internal/gamesave"
	"github.com/vovakirdan/powdersave/internal/storage"
)

// maxEntries bounds how many saves the browser loads.
const maxEntries = 200

// ViewerConfig holds what the browser needs to open saves.
type ViewerConfig struct {
	Elements      *elements.Table
	Decode        gamesave.DecodeOptions
	BlocksPerChar int
}

// LibraryModel is a read-only browser over the save library. Opening an
// entry decodes it and shows a preview; leaving the preview returns here.
type LibraryModel struct {
	store   *storage.Store
	config  ViewerConfig
	entries []storage.SaveEntry

	list    table.Model
	help    help.Model
	keys    LibraryKeyMap
	preview *PreviewModel

	width    int
	height   int
	err      string
	quitting bool
}

// NewLibraryModel creates a browser over store. A nil store shows an empty
// library.
func NewLibraryModel(store *storage.Store, cfg ViewerConfig, width, height int) LibraryModel {
	h := help.New()
	h.ShowAll = false
	h.Width = width

	m := LibraryModel{
		store:  store,
		config: cfg,
		help:   h,
		keys:   DefaultLibraryKeyMap(),
		width:  width,
		height: height,
	}
	m.list = m.createTable()
	m.loadEntries()
	return m
}

func (m *LibraryModel) createTable() table.Model {
	nameWidth := max(m.width-56, 16)
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Name", Width: nameWidth},
			{Title: "Blocks", Width: 9},
			{Title: "Particles", Width: 10},
			{Title: "Version", Width: 8},
			{Title: "Size", Width: 8},
			{Title: "Added", Width: 13},
		}),
		table.WithFocused(true),
		table.WithHeight(max(m.height-6, 3)),
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

// loadEntries reloads the entry list from the store.
func (m *LibraryModel) loadEntries() {
	m.entries = nil
	if m.store != nil {
		entries, err := m.store.ListSaves(maxEntries)
		if err != nil {
			m.err = err.Error()
		} else {
			m.entries = entries
		}
	}
	m.updateTableRows()
}

func (m *LibraryModel) updateTableRows() {
	rows := make([]table.Row, len(m.entries))
	for i, e := range m.entries {
		version := e.Version
		if e.FromNewer {
			version += "+"
		}
		rows[i] = table.Row{
			e.Name,
			fmt.Sprintf("%dx%d", e.BlockW, e.BlockH),
			fmt.Sprintf("%d", e.Particles),
			version,
			formatBytes(e.Size),
			e.CreatedAt.Format("Jan 02 15:04"),
		}
	}
	m.list.SetRows(rows)
	m.list.GotoTop()
}

func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1fM", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fK", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%dB", n)
}

// openSelected decodes the highlighted save into a preview.
func (m *LibraryModel) openSelected() {
	if m.store == nil || len(m.entries) == 0 {
		return
	}
	entry := m.entries[m.list.Cursor()]
	_, data, err := m.store.GetSave(entry.Name)
	if err != nil {
		m.err = err.Error()
		return
	}
	if data == nil {
		m.err = fmt.Sprintf("%s was removed", entry.Name)
		m.loadEntries()
		return
	}
	gs, err := gamesave.Decode(data, m.config.Elements, m.config.Decode)
	if err != nil {
		m.err = fmt.Sprintf("%s: %v", entry.Name, err)
		return
	}
	preview := NewPreviewModel(gs, m.config.Elements, entry.Name, m.config.BlocksPerChar, m.width, m.height)
	preview.embedded = true
	m.preview = &preview
	m.err = ""
}

// Init initializes the library model.
func (m LibraryModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the library browser.
func (m LibraryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = wsm.Width
		m.height = wsm.Height
		m.help.Width = wsm.Width
		m.list = m.createTable()
		m.updateTableRows()
	}

	if m.preview != nil {
		return m.updatePreview(msg)
	}

	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.Back):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Open):
			m.openSelected()
			return m, nil

		case key.Matches(msg, m.keys.Refresh):
			m.err = ""
			m.loadEntries()
			return m, nil
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m LibraryModel) updatePreview(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.preview.Update(msg)
	if pm, ok := next.(PreviewModel); ok {
		m.preview = &pm
	}

	if m.preview.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}
	if m.preview.IsGoingBack() {
		m.preview = nil
		return m, nil
	}
	return m, cmd
}

// View renders the library browser.
func (m LibraryModel) View() string {
	if m.quitting {
		return ""
	}
	if m.preview != nil {
		return m.preview.View()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(centerText("SAVE LIBRARY", m.width)))
	b.WriteString("\n\n")

	if len(m.entries) == 0 {
		empty := dimStyle.Italic(true).Padding(2, 4).
			Render("No saves stored yet.\nAdd one with: powdersave library put <file>")
		b.WriteString(boxStyle.Render(empty))
	} else {
		b.WriteString(boxStyle.Render(m.list.View()))
	}
	b.WriteString("\n")

	if m.err != "" {
		b.WriteString(warnStyle.Render(m.err))
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.help.View(m.keys)))
	return b.String()
}

// Preview returns the open preview, or nil while browsing.
func (m LibraryModel) Preview() *PreviewModel {
	return m.preview
}

// IsQuitting returns true if user wants to quit.
func (m LibraryModel) IsQuitting() bool {
	return m.quitting
}

// RunLibrary runs the library browser full-screen.
func RunLibrary(store *storage.Store, cfg ViewerConfig, width, height int) error {
	model := NewLibraryModel(store, cfg, width, height)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}

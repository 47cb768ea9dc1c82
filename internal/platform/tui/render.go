package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/powdersave/internal/core"
	"github.com/vovakirdan/powdersave/internal/elements"
	"github.com/vovakirdan/powdersave/internal/gamesave"
)

// Glyphs and colours for things that are not plain elements.
const (
	wallGlyph    = '#'
	wallColor    = "245"
	missingGlyph = '?'
	missingColor = "201"
	defaultGlyph = '*'
)

// styleCache avoids rebuilding a lipgloss style for every run of cells.
var styleCache = map[string]lipgloss.Style{
	"": lipgloss.NewStyle(),
}

func styleFor(color string) lipgloss.Style {
	if s, ok := styleCache[color]; ok {
		return s
	}
	s := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	styleCache[color] = s
	return s
}

// RenderScreen converts a Screen buffer to a styled string for display.
// Groups adjacent cells with the same color to minimize ANSI escape sequences.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	// Pre-allocate with extra space for ANSI codes
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	for y := range s.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}

		x := 0
		for x < s.Width() {
			startColor := s.GetCell(x, y).Color

			var run strings.Builder
			for x < s.Width() {
				cell := s.GetCell(x, y)
				if cell.Color != startColor {
					break
				}
				run.WriteRune(cell.Rune)
				x++
			}
			sb.WriteString(styleFor(startColor).Render(run.String()))
		}
	}
	return sb.String()
}

// MapSize returns the character grid a save occupies when every character
// covers blocksPerChar x blocksPerChar blocks.
func MapSize(gs *gamesave.GameSave, blocksPerChar int) core.Vec2 {
	if blocksPerChar < 1 {
		blocksPerChar = 1
	}
	return core.V(
		(gs.BlockSize.X+blocksPerChar-1)/blocksPerChar,
		(gs.BlockSize.Y+blocksPerChar-1)/blocksPerChar,
	)
}

// DrawSave draws a downsampled map of gs into a fresh screen. Each character
// shows the most common particle type in its area, ties going to the lower
// ID. Areas without particles show a wall glyph if any block holds a wall.
func DrawSave(gs *gamesave.GameSave, table *elements.Table, blocksPerChar int) *core.Screen {
	if blocksPerChar < 1 {
		blocksPerChar = 1
	}
	size := MapSize(gs, blocksPerChar)
	screen := core.NewScreen(size.X, size.Y)
	pixelsPerChar := blocksPerChar * gamesave.CellSize

	counts := make([]map[int]int, size.Area())
	for i := range gs.Particles {
		p := &gs.Particles[i]
		px := int(math.Floor(float64(p.X) + 0.5))
		py := int(math.Floor(float64(p.Y) + 0.5))
		cx, cy := px/pixelsPerChar, py/pixelsPerChar
		if cx < 0 || cy < 0 || cx >= size.X || cy >= size.Y {
			continue
		}
		idx := cy*size.X + cx
		if counts[idx] == nil {
			counts[idx] = make(map[int]int)
		}
		counts[idx][p.Type]++
	}

	gs.BlockMap.Each(func(x, y int, wall uint8) {
		if wall == gamesave.WallNone {
			return
		}
		cx, cy := x/blocksPerChar, y/blocksPerChar
		if counts[cy*size.X+cx] == nil {
			screen.SetCell(cx, cy, core.Cell{Rune: wallGlyph, Color: wallColor})
		}
	})

	for idx, c := range counts {
		if c == nil {
			continue
		}
		screen.SetCell(idx%size.X, idx/size.X, elementCell(table, dominant(c)))
	}
	return screen
}

func dominant(counts map[int]int) int {
	best, bestN := 0, -1
	for typ, n := range counts {
		if n > bestN || (n == bestN && typ < best) {
			best, bestN = typ, n
		}
	}
	return best
}

func elementCell(table *elements.Table, typ int) core.Cell {
	if elements.IsMissing(typ) {
		return core.Cell{Rune: missingGlyph, Color: missingColor}
	}
	e, ok := table.ByID(typ)
	if !ok {
		return core.Cell{Rune: missingGlyph, Color: missingColor}
	}
	glyph := defaultGlyph
	if r := []rune(e.Glyph); len(r) > 0 && r[0] != ' ' {
		glyph = r[0]
	}
	return core.Cell{Rune: glyph, Color: e.Color}
}

// centerText centers text within the given width.
func centerText(text string, width int) string {
	textWidth := lipgloss.Width(text)
	if textWidth >= width {
		return text
	}
	padding := (width - textWidth) / 2
	return strings.Repeat(" ", padding) + text
}

package hostterm

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/Gaurav-Gosain/ttyglass/internal/theme"
	"github.com/charmbracelet/x/ansi"
)

func overlayStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.NoticeFg()).
		Background(theme.NoticeBg()).
		Padding(0, 1)
}

// overlayArea is where the notice was drawn, in 1-based cells.
type overlayArea struct {
	col, row, width int
}

// renderOverlay centers text on a cols x rows grid. The returned sequence
// leaves the cursor where it was.
func renderOverlay(text string, cols, rows int) (string, overlayArea) {
	body := overlayStyle().Render(text)
	width := lipgloss.Width(body)
	area := overlayArea{
		col:   max((cols-width)/2, 0) + 1,
		row:   max(rows/2, 1),
		width: width,
	}
	return ansi.SaveCursor + ansi.CursorPosition(area.col, area.row) + body + ansi.RestoreCursor, area
}

// blankOverlay overwrites a previously drawn notice with spaces.
func blankOverlay(area overlayArea) string {
	if area.width <= 0 {
		return ""
	}
	return ansi.SaveCursor + ansi.CursorPosition(area.col, area.row) +
		ansi.ResetStyle + strings.Repeat(" ", area.width) + ansi.RestoreCursor
}

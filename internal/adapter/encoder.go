package adapter

import (
	"fmt"
	"math"

	"github.com/charmbracelet/x/ansi"
)

// SGR button codes and modifier bits.
const (
	motionOffset   = 32
	wheelUpCode    = 64
	wheelDownCode  = 65
	modShiftBit    = 4
	modAltMetaBit  = 8
	modCtrlBit     = 16
	defaultColumns = 80
	defaultRows    = 24
)

// Grid describes the rendered grid: its size in cells and the pixel size of
// the surface it is drawn on.
type Grid struct {
	Columns int
	Rows    int
	Width   float64
	Height  float64
}

// CellAt converts a surface pixel position to a zero-based cell.
func (g Grid) CellAt(x, y float64) Cell {
	cols := g.Columns
	if cols <= 0 {
		cols = defaultColumns
	}
	rows := g.Rows
	if rows <= 0 {
		rows = defaultRows
	}
	if g.Width <= 0 || g.Height <= 0 {
		return Cell{}
	}

	cellWidth := g.Width / float64(cols)
	cellHeight := g.Height / float64(rows)

	return Cell{
		Col: max(int(math.Floor(x/cellWidth)), 0),
		Row: max(int(math.Floor(y/cellHeight)), 0),
	}
}

// Encode converts a pointer event into an SGR mouse report.
//
// It returns false when nothing should be sent: tracking is off, the event
// is motion without any held button, or motion did not leave the last
// reported cell. Press and release update the held buttons in state, and
// every reported press, release or move records its cell as the last one.
func Encode(ev PointerEvent, grid Grid, tracking bool, state *PointerState) (string, bool) {
	if !tracking {
		return "", false
	}

	cell := grid.CellAt(ev.X, ev.Y)

	var code int
	switch ev.Kind {
	case WheelUp:
		code = wheelUpCode
	case WheelDown:
		code = wheelDownCode
	case Press:
		state.press(ev.Button)
		state.last = cell
		code = ev.Button
	case Release:
		state.release(ev.Button)
		state.last = cell
		code = ev.Button
	case Move:
		if cell == state.last {
			return "", false
		}
		// Motion is only reported while dragging.
		if !state.Pressed() {
			return "", false
		}
		state.last = cell
		code = motionOffset + state.first()
	default:
		return "", false
	}

	code += modifierBits(ev.Mods)

	return sgrReport(code, cell, ev.Kind == Release), true
}

// sgrReport formats a report. Codes that do not fit a byte are written as is.
func sgrReport(code int, cell Cell, release bool) string {
	if code >= 0 && code <= math.MaxUint8 {
		return ansi.MouseSgr(byte(code), cell.Col, cell.Row, release)
	}
	final := 'M'
	if release {
		final = 'm'
	}
	return fmt.Sprintf("\x1b[<%d;%d;%d%c", code, cell.Col+1, cell.Row+1, final)
}

func modifierBits(m Modifiers) int {
	var bits int
	if m.Shift {
		bits += modShiftBit
	}
	if m.Alt || m.Meta {
		bits += modAltMetaBit
	}
	if m.Ctrl {
		bits += modCtrlBit
	}
	return bits
}

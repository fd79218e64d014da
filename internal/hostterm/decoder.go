package hostterm

import (
	"bytes"
	"strconv"

	"github.com/Gaurav-Gosain/ttyglass/internal/adapter"
)

const (
	sgrMousePrefix = "\x1b[<"
	// maxReportLen bounds how much an unterminated report may buffer.
	maxReportLen = 32
)

// Input is one decoded chunk of host input: either a pointer report or a
// run of plain keyboard data.
type Input struct {
	Pointer   adapter.PointerEvent
	IsPointer bool
	Data      string
}

type parseStatus int

const (
	parseOK parseStatus = iota
	parseIncomplete
	parseInvalid
	parseIgnored
)

// Decoder splits raw host input into SGR mouse reports and keyboard data.
// A report cut at a read boundary is held back until the next Feed.
type Decoder struct {
	pending []byte
}

// Feed decodes p, prefixed by anything held back from the previous call.
func (d *Decoder) Feed(p []byte) []Input {
	data := p
	if len(d.pending) > 0 {
		data = append(d.pending, p...)
		d.pending = nil
	}

	var (
		out   []Input
		plain []byte
	)
	flush := func() {
		if len(plain) > 0 {
			out = append(out, Input{Data: string(plain)})
			plain = nil
		}
	}

	for i := 0; i < len(data); {
		rest := data[i:]
		if rest[0] == 0x1b {
			if bytes.HasPrefix(rest, []byte(sgrMousePrefix)) {
				ev, n, status := parseSGRMouse(rest)
				switch status {
				case parseOK:
					flush()
					out = append(out, Input{Pointer: ev, IsPointer: true})
					i += n
					continue
				case parseIgnored:
					i += n
					continue
				case parseIncomplete:
					flush()
					d.pending = bytes.Clone(rest)
					return out
				}
			} else if len(rest) < len(sgrMousePrefix) && bytes.HasPrefix([]byte(sgrMousePrefix), rest) && len(rest) > 1 {
				// "\x1b[" at the end of a read may still become a report.
				flush()
				d.pending = bytes.Clone(rest)
				return out
			}
		}
		plain = append(plain, rest[0])
		i++
	}
	flush()
	return out
}

// Pending reports whether a partial report is buffered.
func (d *Decoder) Pending() bool {
	return len(d.pending) > 0
}

// parseSGRMouse parses "ESC [ < b ; x ; y (M|m)" at the start of data.
func parseSGRMouse(data []byte) (adapter.PointerEvent, int, parseStatus) {
	var ev adapter.PointerEvent

	body := data[len(sgrMousePrefix):]
	end := -1
	for i, c := range body {
		if c == 'M' || c == 'm' {
			end = i
			break
		}
		if (c < '0' || c > '9') && c != ';' {
			return ev, 0, parseInvalid
		}
		if i >= maxReportLen {
			return ev, 0, parseInvalid
		}
	}
	if end < 0 {
		if len(body) >= maxReportLen {
			return ev, 0, parseInvalid
		}
		return ev, 0, parseIncomplete
	}

	fields := bytes.Split(body[:end], []byte{';'})
	if len(fields) != 3 {
		return ev, 0, parseInvalid
	}
	var nums [3]int
	for i, f := range fields {
		n, err := strconv.Atoi(string(f))
		if err != nil {
			return ev, 0, parseInvalid
		}
		nums[i] = n
	}
	consumed := len(sgrMousePrefix) + end + 1

	b, x, y := nums[0], nums[1], nums[2]
	ev.Mods = adapter.Modifiers{
		Shift: b&4 != 0,
		Alt:   b&8 != 0,
		Ctrl:  b&16 != 0,
	}
	ev.X = float64(max(x-1, 0))
	ev.Y = float64(max(y-1, 0))

	switch {
	case b&128 != 0:
		// Extra buttons (back, forward) have no counterpart in the encoder.
		return ev, consumed, parseIgnored
	case b&64 != 0:
		switch b & 3 {
		case 0:
			ev.Kind = adapter.WheelUp
		case 1:
			ev.Kind = adapter.WheelDown
		default:
			// Horizontal wheel has no counterpart in the encoder.
			return ev, consumed, parseIgnored
		}
	case b&32 != 0:
		ev.Kind = adapter.Move
		ev.Button = b & 3
	case data[len(sgrMousePrefix)+end] == 'm':
		ev.Kind = adapter.Release
		ev.Button = b & 3
	default:
		ev.Kind = adapter.Press
		ev.Button = b & 3
	}
	return ev, consumed, parseOK
}

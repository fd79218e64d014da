package hostterm

import (
	"testing"

	"github.com/Gaurav-Gosain/ttyglass/internal/adapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoderReports(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want adapter.PointerEvent
	}{
		{
			name: "press",
			in:   "\x1b[<0;5;3M",
			want: adapter.PointerEvent{Kind: adapter.Press, Button: 0, X: 4, Y: 2},
		},
		{
			name: "release right",
			in:   "\x1b[<2;1;1m",
			want: adapter.PointerEvent{Kind: adapter.Release, Button: 2},
		},
		{
			name: "drag with shift",
			in:   "\x1b[<36;10;4M",
			want: adapter.PointerEvent{Kind: adapter.Move, Button: 0, X: 9, Y: 3, Mods: adapter.Modifiers{Shift: true}},
		},
		{
			name: "wheel up",
			in:   "\x1b[<64;2;2M",
			want: adapter.PointerEvent{Kind: adapter.WheelUp, X: 1, Y: 1},
		},
		{
			name: "wheel down with ctrl and alt",
			in:   "\x1b[<89;2;2M",
			want: adapter.PointerEvent{Kind: adapter.WheelDown, X: 1, Y: 1, Mods: adapter.Modifiers{Alt: true, Ctrl: true}},
		},
		{
			name: "pixel coordinates",
			in:   "\x1b[<0;641;321M",
			want: adapter.PointerEvent{Kind: adapter.Press, X: 640, Y: 320},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Decoder
			got := d.Feed([]byte(tt.in))
			require.Len(t, got, 1)
			assert.True(t, got[0].IsPointer)
			assert.Equal(t, tt.want, got[0].Pointer)
			assert.False(t, d.Pending())
		})
	}
}

func TestDecoderSplitsDataAndReports(t *testing.T) {
	var d Decoder
	got := d.Feed([]byte("ls\x1b[<0;1;1M\x1b[<0;1;1m-la\r"))

	require.Len(t, got, 4)
	assert.Equal(t, "ls", got[0].Data)
	assert.Equal(t, adapter.Press, got[1].Pointer.Kind)
	assert.Equal(t, adapter.Release, got[2].Pointer.Kind)
	assert.Equal(t, "-la\r", got[3].Data)
}

func TestDecoderHoldsPartialReport(t *testing.T) {
	var d Decoder

	got := d.Feed([]byte("a\x1b[<0;1"))
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Data)
	assert.True(t, d.Pending())

	got = d.Feed([]byte("2;7M"))
	require.Len(t, got, 1)
	assert.Equal(t, adapter.PointerEvent{Kind: adapter.Press, X: 11, Y: 6}, got[0].Pointer)
	assert.False(t, d.Pending())
}

func TestDecoderHoldsBareCSIPrefix(t *testing.T) {
	var d Decoder

	assert.Empty(t, d.Feed([]byte("\x1b[")))
	got := d.Feed([]byte("<65;1;1M"))
	require.Len(t, got, 1)
	assert.Equal(t, adapter.WheelDown, got[0].Pointer.Kind)

	// The prefix may also turn out to be a cursor key.
	assert.Empty(t, d.Feed([]byte("\x1b[")))
	got = d.Feed([]byte("A"))
	require.Len(t, got, 1)
	assert.Equal(t, "\x1b[A", got[0].Data)
}

func TestDecoderPassesThroughOtherInput(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "escape key", in: "\x1b"},
		{name: "arrow", in: "\x1b[A"},
		{name: "malformed report", in: "\x1b[<0;1M"},
		{name: "garbage in report", in: "\x1b[<0;x;1M"},
		{name: "utf8", in: "héllo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Decoder
			got := d.Feed([]byte(tt.in))
			require.Len(t, got, 1)
			assert.False(t, got[0].IsPointer)
			assert.Equal(t, tt.in, got[0].Data)
		})
	}
}

func TestDecoderDropsUnencodableButtons(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "wheel left", in: "\x1b[<66;1;1M"},
		{name: "wheel right", in: "\x1b[<67;1;1M"},
		{name: "back button", in: "\x1b[<128;5;5M\x1b[<128;5;5m"},
		{name: "forward button", in: "\x1b[<129;5;5M\x1b[<129;5;5m"},
		{name: "back button drag", in: "\x1b[<160;6;5M"},
		{name: "back button with ctrl", in: "\x1b[<144;5;5M"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Decoder
			got := d.Feed([]byte(tt.in + "x"))
			require.Len(t, got, 1)
			assert.False(t, got[0].IsPointer)
			assert.Equal(t, "x", got[0].Data)
		})
	}
}

func TestDecoderUnterminatedReportIsBounded(t *testing.T) {
	var d Decoder
	long := "\x1b[<" + "1111111111;1111111111;1111111111111"
	got := d.Feed([]byte(long))
	assert.False(t, d.Pending())
	require.Len(t, got, 1)
	assert.Equal(t, long, got[0].Data)
}

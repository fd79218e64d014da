// Package theme provides the colors of the on-screen notices.
package theme

import (
	"fmt"
	"image/color"

	"charm.land/lipgloss/v2"
	tint "github.com/lrstanley/bubbletint/v2"
)

var enabled bool

// Initialize selects the named theme. An empty name disables theming and
// the built-in colors are used. Unknown names fall back to the registry
// default and report false.
func Initialize(themeName string) bool {
	if themeName == "" {
		enabled = false
		return true
	}

	enabled = true
	tint.NewDefaultRegistry()

	if !tint.SetTintID(themeName) {
		tint.SetTintID("default")
		return false
	}
	return true
}

// IsEnabled returns true if theming is enabled
func IsEnabled() bool {
	return enabled
}

// Current returns the currently active theme.
// Returns nil if theming is disabled.
func Current() *tint.Tint {
	if !enabled {
		return nil
	}
	return tint.Current()
}

// NoticeFg is the text color of notices.
func NoticeFg() color.Color {
	t := Current()
	if t == nil {
		return lipgloss.Color("#f5f5f5")
	}
	return t.BrightWhite
}

// NoticeBg is the background of notices.
func NoticeBg() color.Color {
	t := Current()
	if t == nil {
		return lipgloss.Color("#3b4252")
	}
	return t.BrightBlack
}

// ColorToString converts a color.Color to a hex string
func ColorToString(c color.Color) string {
	if c == nil {
		return "#000000"
	}
	r, g, b, _ := c.RGBA()
	// RGBA returns values in range 0-65535, convert to 0-255
	r8, g8, b8 := uint8(r>>8), uint8(g>>8), uint8(b>>8)
	return fmt.Sprintf("#%02x%02x%02x", r8, g8, b8)
}

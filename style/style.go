// Package style has small render helpers on top of lipgloss.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/seamui/seamui/anchor"
	"github.com/seamui/seamui/color"
)

func New() lipgloss.Style {
	return lipgloss.NewStyle()
}

// Colored is a style with fg and bg set. Empty colors are left unset.
func Colored(fg, bg lipgloss.Color) lipgloss.Style {
	return New().Foreground(fg).Background(bg)
}

// Fg returns a renderer painting the foreground with c.
func Fg(c lipgloss.Color) func(string) string {
	return func(s string) string { return Colored(c, "").Render(s) }
}

// Truncate returns a renderer limiting output to max columns.
func Truncate(max int) func(string) string {
	return func(s string) string { return New().MaxWidth(max).Render(s) }
}

var (
	Faint  = func(s string) string { return New().Faint(true).Render(s) }
	Bold   = func(s string) string { return New().Bold(true).Render(s) }
	Italic = func(s string) string { return New().Italic(true).Render(s) }
)

var Title = func(s string) string {
	return Colored(color.New("230"), color.New("62")).Padding(0, 1).Render(s)
}

var ErrorTitle = func(s string) string {
	return Colored(color.New("230"), color.Red).Padding(0, 1).Render(s)
}

// Tag renders s as a padded label.
func Tag(fg, bg lipgloss.Color) func(string) string {
	return func(s string) string { return Colored(fg, bg).Padding(0, 1).Render(s) }
}

// State paints s in the color of the anchor state.
func State(state anchor.State) func(string) string {
	switch state {
	case anchor.Live:
		return Fg(LiveColor)
	case anchor.Failed:
		return Fg(FailedColor)
	default:
		return Fg(OfflineColor)
	}
}

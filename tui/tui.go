// Package tui is the interactive live list.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/seamui/seamui/engine"
)

// Engine is the part of the engine the TUI talks to.
type Engine interface {
	Send(cmd engine.Command) bool
	Notifications() <-chan engine.Event
}

// Options configures the TUI.
type Options struct {
	Engine Engine
}

// Run blocks until the user quits or ctx is cancelled.
// Quitting sends Exit to the engine.
func Run(ctx context.Context, options *Options) error {
	bubble := newBubble(options)
	_, err := tea.NewProgram(bubble, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

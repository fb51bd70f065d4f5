// Package ui renders short-lived status messages below a bubbletea view.
package ui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/seamui/seamui/style"
)

// Lifetime is how long a notification stays on screen.
const Lifetime = 3 * time.Second

// NotifyMsg shows Text until a newer notification replaces it or Lifetime passes.
type NotifyMsg struct {
	Text  string
	Error bool
}

type clearMsg struct {
	id int
}

// Model holds the current notification. The zero value is ready to use.
type Model struct {
	text  string
	error bool
	id    int
}

// Notify returns a command that shows text.
func Notify(text string) tea.Cmd {
	return func() tea.Msg {
		return NotifyMsg{Text: text}
	}
}

// NotifyError returns a command that shows err in the error color.
func NotifyError(err error) tea.Cmd {
	return func() tea.Msg {
		return NotifyMsg{Text: err.Error(), Error: true}
	}
}

// Update consumes notification messages and ignores everything else.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case NotifyMsg:
		m.id++
		m.text = msg.Text
		m.error = msg.Error

		id := m.id
		return tea.Tick(Lifetime, func(time.Time) tea.Msg {
			return clearMsg{id: id}
		})
	case clearMsg:
		// a newer notification owns the line
		if msg.id == m.id {
			m.text = ""
		}
	}
	return nil
}

// Text is the notification on screen, if any.
func (m *Model) Text() string {
	return m.text
}

// View appends the notification to the last line of content.
func (m *Model) View(content string) string {
	if m.text == "" {
		return content
	}

	render := style.Faint
	if m.error {
		render = style.Fg(style.Red)
	}

	lines := strings.Split(content, "\n")
	lines[len(lines)-1] += "  " + render(m.text)
	return strings.Join(lines, "\n")
}

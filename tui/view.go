package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wrap"
	"github.com/samber/lo"
	"github.com/seamui/seamui/anchor"
	"github.com/seamui/seamui/icon"
	"github.com/seamui/seamui/style"
)

var (
	listExtraPaddingStyle = lipgloss.NewStyle().Padding(1, 2, 1, 0)
	paddingStyle          = lipgloss.NewStyle().Padding(1, 2)
)

func (b *statefulBubble) View() string {
	var output string

	switch b.state {
	case loadingState:
		output = b.viewLoading()
	case anchorsState:
		output = listExtraPaddingStyle.Render(b.anchorsC.View())
	case followState:
		output = b.viewFollow()
	default:
		output = "Unknown state"
	}

	return b.notifier.View(output)
}

func (b *statefulBubble) viewLoading() string {
	return b.renderLines(true, []string{
		style.Title("Loading"),
		"",
		b.spinnerC.View() + " Checking followed rooms...",
	})
}

func (b *statefulBubble) viewFollow() string {
	lines := []string{
		style.Title("Follow"),
		"",
		b.inputC.View(),
	}

	if suggestion, ok := b.followSuggestion.Get(); ok && suggestion != b.inputC.Value() {
		lines = append(lines, "", style.Faint(icon.Get(icon.Link)+" "+suggestion+" (tab)"))
	}

	lines = append(lines, "", wrap.String(style.Faint("Platforms: "+platformList()), b.width))

	return b.renderLines(true, lines)
}

func (b *statefulBubble) renderLines(addHelp bool, lines []string) string {
	l := strings.Join(lines, "\n")
	if addHelp {
		if h := lipgloss.Height(l); b.height > h {
			l += strings.Repeat("\n", b.height-h)
		}
		l += b.helpC.View(b.keymap)
	}

	return paddingStyle.Render(l)
}

func platformList() string {
	return strings.Join(lo.Map(anchor.Platforms(), func(p anchor.Platform, _ int) string {
		return p.ID()
	}), ", ")
}

package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/seamui/seamui/style"
)

type statefulKeymap struct {
	state state

	quit, forceQuit,
	play, follow, remove, refresh, openURL,
	confirm, acceptSuggestion, back,
	filter,
	up, down, left, right,
	top, bottom,
	showHelp key.Binding
}

func (k *statefulKeymap) setState(newState state) {
	k.state = newState
}

func newStatefulKeymap() *statefulKeymap {
	return &statefulKeymap{
		quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		forceQuit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+d"),
			key.WithHelp("ctrl+c", "quit"),
		),
		play: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp(style.Fg(style.Peach)("enter"), style.Fg(style.Peach)("play")),
		),
		follow: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "follow"),
		),
		remove: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "remove"),
		),
		refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		openURL: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open room page"),
		),
		confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		acceptSuggestion: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "accept suggestion"),
		),
		back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓", "down"),
		),
		left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "prev page"),
		),
		right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "next page"),
		),
		top: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "top"),
		),
		bottom: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "bottom"),
		),
		showHelp: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

func (k *statefulKeymap) help() ([]key.Binding, []key.Binding) {
	h := func(bindings ...key.Binding) []key.Binding {
		return bindings
	}

	switch k.state {
	case loadingState:
		return h(k.follow, k.forceQuit), h(k.follow, k.forceQuit)
	case anchorsState:
		return h(k.play, k.follow, k.remove, k.refresh),
			h(k.play, k.follow, k.remove, k.refresh, k.openURL, k.filter, k.quit)
	case followState:
		return h(k.confirm, k.acceptSuggestion, k.back), h(k.confirm, k.acceptSuggestion, k.back, k.forceQuit)
	default:
		return h(), h()
	}
}

func (k *statefulKeymap) ShortHelp() []key.Binding {
	short, _ := k.help()
	return short
}

func (k *statefulKeymap) FullHelp() [][]key.Binding {
	_, full := k.help()
	return [][]key.Binding{full}
}

func (k *statefulKeymap) forList() list.KeyMap {
	return list.KeyMap{
		CursorUp:             k.up,
		CursorDown:           k.down,
		NextPage:             k.right,
		PrevPage:             k.left,
		GoToStart:            k.top,
		GoToEnd:              k.bottom,
		Filter:               k.filter,
		ClearFilter:          k.back,
		CancelWhileFiltering: k.back,
		AcceptWhileFiltering: k.confirm,
		ShowFullHelp:         k.showHelp,
		CloseFullHelp:        k.showHelp,
		Quit:                 key.NewBinding(key.WithDisabled()),
		ForceQuit:            k.forceQuit,
	}
}

package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/mo"
	"github.com/seamui/seamui/constant"
	"github.com/seamui/seamui/engine"
	"github.com/seamui/seamui/internal/ui"
	"github.com/seamui/seamui/key"
	"github.com/seamui/seamui/style"
	"github.com/seamui/seamui/util"
	"github.com/spf13/viper"
)

type statefulBubble struct {
	state         state
	statesHistory util.Stack[state]

	keymap *statefulKeymap

	spinnerC spinner.Model
	inputC   textinput.Model
	anchorsC list.Model
	helpC    help.Model

	engine Engine
	events <-chan engine.Event

	lastEvent engine.Event
	loaded    bool

	followSuggestion mo.Option[string]
	notifier         *ui.Model

	width, height int
}

func (b *statefulBubble) setState(s state) {
	b.state = s
	b.keymap.setState(s)
}

func (b *statefulBubble) newState(s state) {
	if b.state == s {
		return
	}

	b.statesHistory.Push(b.state)
	b.setState(s)
}

func (b *statefulBubble) previousState() {
	if prev, ok := b.statesHistory.Pop().Get(); ok {
		b.setState(prev)
	}

	// the first snapshot may have arrived while another state was shown
	if b.state == loadingState && b.loaded {
		b.setState(anchorsState)
	}
}

func (b *statefulBubble) resize(width, height int) {
	x, y := paddingStyle.GetFrameSize()
	xx, yy := listExtraPaddingStyle.GetFrameSize()

	listWidth := width - xx
	listHeight := height - yy

	b.anchorsC.SetSize(listWidth, listHeight)
	b.anchorsC.Help.Width = listWidth
	b.inputC.Width = listWidth

	b.width = width - x
	b.height = height - y
	b.helpC.Width = listWidth
}

func newBubble(options *Options) *statefulBubble {
	keymap := newStatefulKeymap()
	bubble := statefulBubble{
		keymap:   keymap,
		engine:   options.Engine,
		events:   options.Engine.Notifications(),
		notifier: &ui.Model{},
	}

	bubble.helpC = help.New()

	bubble.spinnerC = spinner.New()
	bubble.spinnerC.Spinner = spinner.Dot
	bubble.spinnerC.Style = lipgloss.NewStyle().Foreground(style.AccentColor)

	bubble.inputC = textinput.New()
	bubble.inputC.Placeholder = "platform/room, e.g. huya/123"
	bubble.inputC.CharLimit = 80
	bubble.inputC.Prompt = "> "

	delegate := list.NewDefaultDelegate()
	delegate.SetSpacing(viper.GetInt(key.TUIItemSpacing))
	delegate.Styles.SelectedTitle = lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(style.AccentColor).
		Foreground(style.AccentColor).
		Padding(0, 0, 0, 1)
	delegate.Styles.NormalTitle = delegate.Styles.NormalTitle.Foreground(style.Text)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedTitle

	bubble.anchorsC = list.New(nil, delegate, 0, 0)
	bubble.anchorsC.KeyMap = keymap.forList()
	bubble.anchorsC.AdditionalShortHelpKeys = keymap.ShortHelp
	bubble.anchorsC.AdditionalFullHelpKeys = func() []bubblesKey.Binding {
		return keymap.FullHelp()[0]
	}
	bubble.anchorsC.Title = fmt.Sprintf("%s v%s", constant.App, constant.Version)
	bubble.anchorsC.Styles.Title = lipgloss.NewStyle().Foreground(style.Base).Background(style.AccentColor).Padding(0, 1)
	bubble.anchorsC.Styles.NoItems = paddingStyle
	bubble.anchorsC.StatusMessageLifetime = time.Hour
	bubble.anchorsC.SetStatusBarItemName("anchor", "anchors")
	bubble.anchorsC.SetShowPagination(false)

	if w, h, err := util.TerminalSize(); err == nil {
		bubble.resize(w, h)
	}

	bubble.setState(loadingState)
	return &bubble
}

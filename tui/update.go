package tui

import (
	"errors"
	"fmt"
	"strings"

	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"
	"github.com/seamui/seamui/anchor"
	"github.com/seamui/seamui/engine"
	"github.com/seamui/seamui/internal/ui"
	"github.com/seamui/seamui/key"
	"github.com/seamui/seamui/log"
	"github.com/seamui/seamui/open"
	"github.com/seamui/seamui/query"
	"github.com/spf13/viper"
	"golang.org/x/exp/slices"
)

// eventMsg carries a snapshot from the engine.
type eventMsg engine.Event

// closedMsg means the engine stopped publishing.
type closedMsg struct{}

func (b *statefulBubble) Init() tea.Cmd {
	return tea.Batch(b.spinnerC.Tick, b.waitForEvent())
}

func (b *statefulBubble) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-b.events
		if !ok {
			return closedMsg{}
		}
		return eventMsg(event)
	}
}

func (b *statefulBubble) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	notifyCmd := b.notifier.Update(msg)

	switch msg := msg.(type) {
	case eventMsg:
		cmd := b.applyEvent(engine.Event(msg))
		return b, tea.Batch(notifyCmd, cmd, b.waitForEvent())
	case closedMsg:
		return b, tea.Quit
	case tea.WindowSizeMsg:
		b.resize(msg.Width, msg.Height)
	case tea.KeyMsg:
		if bubblesKey.Matches(msg, b.keymap.forceQuit) {
			return b, b.quit()
		}
	}

	var cmd tea.Cmd
	switch b.state {
	case loadingState:
		cmd = b.updateLoading(msg)
	case anchorsState:
		cmd = b.updateAnchors(msg)
	case followState:
		cmd = b.updateFollow(msg)
	}

	return b, tea.Batch(notifyCmd, cmd)
}

func (b *statefulBubble) quit() tea.Cmd {
	b.engine.Send(engine.Exit{})
	return tea.Quit
}

// applyEvent replaces the list with the snapshot, keeping the cursor on
// the same anchor when it is still listed.
func (b *statefulBubble) applyEvent(event engine.Event) tea.Cmd {
	if event.Seq < b.lastEvent.Seq {
		return nil
	}
	b.lastEvent = event
	b.loaded = true

	infos := event.Live
	if viper.GetBool(key.TUIShowOffline) {
		live := lo.SliceToMap(event.Live, func(info anchor.Info) (anchor.Key, struct{}) {
			return info.Key, struct{}{}
		})
		offline := lo.Reject(event.Configured, func(info anchor.Info, _ int) bool {
			_, ok := live[info.Key]
			return ok
		})
		infos = append(slices.Clone(infos), offline...)
	}

	selected, hadSelection := b.selected()

	items := lo.Map(infos, func(info anchor.Info, _ int) list.Item {
		return &listItem{info: info}
	})
	cmd := b.anchorsC.SetItems(items)

	if hadSelection {
		if idx := slices.IndexFunc(infos, func(info anchor.Info) bool {
			return info.Key == selected.Key
		}); idx >= 0 {
			b.anchorsC.Select(idx)
		}
	}

	b.anchorsC.Title = fmt.Sprintf("Live %d", len(event.Live))

	if b.state == loadingState {
		b.setState(anchorsState)
	}

	return cmd
}

func (b *statefulBubble) selected() (anchor.Info, bool) {
	item, ok := b.anchorsC.SelectedItem().(*listItem)
	if !ok {
		return anchor.Info{}, false
	}
	return item.info, true
}

func (b *statefulBubble) updateLoading(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case bubblesKey.Matches(msg, b.keymap.follow):
			return b.startFollow()
		case bubblesKey.Matches(msg, b.keymap.quit):
			return b.quit()
		}
	}

	var cmd tea.Cmd
	b.spinnerC, cmd = b.spinnerC.Update(msg)
	return cmd
}

func (b *statefulBubble) updateAnchors(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok && b.anchorsC.FilterState() != list.Filtering {
		switch {
		case bubblesKey.Matches(msg, b.keymap.quit):
			return b.quit()
		case bubblesKey.Matches(msg, b.keymap.follow):
			return b.startFollow()
		case bubblesKey.Matches(msg, b.keymap.refresh):
			b.engine.Send(engine.Refresh{})
			return ui.Notify("Refreshing...")
		case bubblesKey.Matches(msg, b.keymap.play):
			return b.play()
		case bubblesKey.Matches(msg, b.keymap.remove):
			return b.remove()
		case bubblesKey.Matches(msg, b.keymap.openURL):
			info, ok := b.selected()
			if !ok {
				return nil
			}
			if err := open.Start(info.URL()); err != nil {
				return ui.NotifyError(err)
			}
			return nil
		}
	}

	b.anchorsC, cmd = b.anchorsC.Update(msg)
	return cmd
}

func (b *statefulBubble) play() tea.Cmd {
	info, ok := b.selected()
	if !ok {
		return nil
	}

	if !info.Status.IsLive() {
		return ui.Notify(info.DisplayName() + " is not live")
	}

	b.engine.Send(engine.Play{Sources: info.Status.URLs()})
	return ui.Notify("Playing " + info.DisplayName())
}

func (b *statefulBubble) remove() tea.Cmd {
	info, ok := b.selected()
	if !ok {
		return nil
	}

	b.engine.Send(engine.Remove{Key: info.Key})
	if err := query.Forget(info.Key.String()); err != nil {
		log.Warnf("forget %s: %v", info.Key, err)
	}

	// the next snapshot confirms the removal, drop it now so the list feels immediate
	b.anchorsC.RemoveItem(b.anchorsC.Index())
	return ui.Notify("Removed " + info.DisplayName())
}

func (b *statefulBubble) startFollow() tea.Cmd {
	b.inputC.SetValue("")
	b.followSuggestion = query.Suggest("")
	b.newState(followState)
	return tea.Batch(b.inputC.Focus(), textinput.Blink)
}

func (b *statefulBubble) updateFollow(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case bubblesKey.Matches(msg, b.keymap.back):
			b.inputC.Blur()
			b.previousState()
			return nil
		case bubblesKey.Matches(msg, b.keymap.acceptSuggestion):
			if suggestion, ok := b.followSuggestion.Get(); ok {
				b.inputC.SetValue(suggestion)
				b.inputC.CursorEnd()
			}
			return nil
		case bubblesKey.Matches(msg, b.keymap.confirm):
			return b.submitFollow()
		}
	}

	b.inputC, cmd = b.inputC.Update(msg)
	b.followSuggestion = query.Suggest(b.inputC.Value())
	return cmd
}

func (b *statefulBubble) submitFollow() tea.Cmd {
	value := strings.TrimSpace(b.inputC.Value())
	if value == "" {
		return nil
	}

	k, err := anchor.ParseKey(value)
	if err != nil {
		return ui.NotifyError(err)
	}

	if !b.engine.Send(engine.Follow{Platform: k.Platform, RoomID: k.RoomID}) {
		return ui.NotifyError(errors.New("engine stopped"))
	}

	if err := query.Remember(k.String(), 1); err != nil {
		log.Warnf("remember %s: %v", k, err)
	}

	b.inputC.Blur()
	b.previousState()
	return ui.Notify("Looking up " + k.String())
}

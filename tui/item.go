package tui

import (
	"strings"

	"github.com/samber/lo"
	"github.com/seamui/seamui/anchor"
	"github.com/seamui/seamui/icon"
	"github.com/seamui/seamui/key"
	"github.com/seamui/seamui/style"
	"github.com/spf13/viper"
)

type listItem struct {
	info anchor.Info
}

func (t *listItem) stateIcon() string {
	switch t.info.Status.State {
	case anchor.Live:
		return icon.Get(icon.Live)
	case anchor.Failed:
		return icon.Get(icon.Warn)
	default:
		return icon.Get(icon.Offline)
	}
}

func (t *listItem) Title() string {
	var stateIcon string
	if i := t.stateIcon(); i != "" {
		stateIcon = style.State(t.info.Status.State)(i)
	}

	return strings.Join(lo.Compact([]string{
		stateIcon,
		t.info.DisplayName(),
		style.Faint(t.info.Platform.Name()),
	}), " ")
}

func (t *listItem) Description() string {
	var description string
	switch {
	case t.info.Status.IsLive():
		description = t.info.Status.Title
		if description == "" {
			description = t.info.Title
		}
	case t.info.Status.State == anchor.Failed:
		description = style.State(anchor.Failed)(t.info.Status.Message)
	default:
		description = style.Faint("offline")
	}

	if viper.GetBool(key.TUIShowURLs) {
		description += " " + style.Faint(t.info.URL())
	}

	return description
}

func (t *listItem) FilterValue() string {
	return strings.Join([]string{t.info.DisplayName(), t.info.Key.String(), t.info.Status.Title}, " ")
}

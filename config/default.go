package config

import "github.com/seamui/seamui/key"

// Default maps every key to its field.
var Default = make(map[string]Field)

// EnvExposed lists the keys bound to environment variables.
var EnvExposed []string

func init() {
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("duplicate config key: " + k)
		}
		Default[k] = Field{Key: k, Value: v, Description: desc}
		EnvExposed = append(EnvExposed, k)
	}

	register(key.PlayerPath, "mpv", "Media player executable.\nThe stream URL is passed as the last argument")
	register(key.PlayerArgs, []string{}, "Extra arguments passed to the player before the URL")
	register(key.PollInterval, 60, "Seconds between two refresh passes")
	register(key.PollConcurrency, 5, "Maximum number of lookups in flight at once")
	register(key.PollTimeout, 20, "Seconds a single lookup may take before it is abandoned")
	register(key.AssetsMaxAge, 30, "Days a cached cover or avatar is kept after its last write")
	register(key.AssetsFailTTL, 30, "Seconds a failed asset download is remembered and not retried")
	register(key.PlatformsUpdateURL, "https://raw.githubusercontent.com/seamui/platforms/main/", "Base URL lookup scripts are updated from.\nEmpty disables updates")
	register(key.PlatformsUpdateOnStart, false, "Update lookup scripts when the TUI starts")
	register(key.ServeAddr, "127.0.0.1:7878", "Listen address of the serve command")
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, kaomoji, plain, squares, nerd (nerd-font required)")
	register(key.FollowShowSuggestions, true, "Suggest previously followed rooms in the follow prompt")
	register(key.TUIItemSpacing, 1, "Spacing between items in the TUI")
	register(key.TUIShowURLs, false, "Show the room URL under each anchor")
	register(key.TUIShowOffline, false, "List offline anchors below live ones")
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliVersionCheck, true, "Enable automatic version check")
}

// Package key lists every configuration key. Keys are dotted viper paths.
package key

// Player
const (
	PlayerPath = "player.path"
	PlayerArgs = "player.args"
)

// Polling
const (
	PollInterval    = "poll.interval"
	PollConcurrency = "poll.concurrency"
	PollTimeout     = "poll.timeout"
)

// Asset cache
const (
	AssetsMaxAge  = "assets.max_age"
	AssetsFailTTL = "assets.fail_ttl"
)

// Lookup scripts
const (
	PlatformsUpdateURL     = "platforms.update_url"
	PlatformsUpdateOnStart = "platforms.update_on_start"
)

// Headless server
const (
	ServeAddr = "serve.addr"
)

// Icons
const (
	IconsVariant = "icons.variant"
)

// Follow prompt
const (
	FollowShowSuggestions = "follow.show_suggestions"
)

// TUI
const (
	TUIItemSpacing = "tui.item_spacing"
	TUIShowURLs    = "tui.show_urls"
	TUIShowOffline = "tui.show_offline"
)

// Logs
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)

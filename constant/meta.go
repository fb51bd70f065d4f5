// Package constant holds application-wide identifiers that never change at runtime.
package constant

const (
	// App is used for directory names, the config file name and the env prefix.
	App = "seamui"

	// Version is the current application version.
	Version = "0.3.0"

	// UserAgent is sent with every asset and lookup request.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// Repository is the upstream home of the project.
	Repository = "seamui/seamui"
)

// Build metadata, overwritten through -ldflags.
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)

// runtime.GOOS values the application branches on.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
	Android = "android"
)

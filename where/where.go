// Package where resolves the on-disk locations the application reads and writes.
package where

import (
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/seamui/seamui/constant"
	"github.com/seamui/seamui/filesystem"
)

// EnvConfigPath overrides the config directory when set.
const EnvConfigPath = "SEAMUI_CONFIG_PATH"

// EnvCachePath overrides the cache directory when set.
const EnvCachePath = "SEAMUI_CACHE_PATH"

func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config is the configuration directory.
// It follows XDG_CONFIG_HOME on Linux and the platform equivalent elsewhere.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base := lo.Must(os.UserConfigDir())
	return ensureDir(filepath.Join(base, constant.App))
}

// Cache is the cache directory. Everything below it is safe to delete.
func Cache() string {
	if custom, ok := os.LookupEnv(EnvCachePath); ok {
		return ensureDir(custom)
	}

	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, constant.App))
}

// Assets holds downloaded cover and avatar images.
func Assets() string {
	return ensureDir(filepath.Join(Cache(), "assets"))
}

// Responses holds cached script HTTP responses.
func Responses() string {
	return ensureDir(filepath.Join(Cache(), "responses"))
}

// Logs is the log directory.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// Sources holds one lookup script per platform.
func Sources() string {
	return ensureDir(filepath.Join(Config(), "sources"))
}

// Anchors is the file with the followed anchors.
func Anchors() string {
	return filepath.Join(Config(), "anchors.json")
}

// Env is the optional dotenv file loaded before the configuration.
func Env() string {
	return filepath.Join(Config(), ".env")
}

// Queries is the follow prompt history.
func Queries() string {
	return filepath.Join(Cache(), "queries.json")
}

// Temp is a scratch directory wiped on startup.
func Temp() string {
	return ensureDir(filepath.Join(os.TempDir(), constant.App))
}

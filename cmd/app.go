package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/seamui/seamui/anchor"
	"github.com/seamui/seamui/asset"
	"github.com/seamui/seamui/config"
	"github.com/seamui/seamui/engine"
	"github.com/seamui/seamui/icon"
	"github.com/seamui/seamui/key"
	"github.com/seamui/seamui/log"
	"github.com/seamui/seamui/metrics"
	"github.com/seamui/seamui/player"
	"github.com/seamui/seamui/provider"
	"github.com/seamui/seamui/store"
	"github.com/seamui/seamui/style"
	"github.com/seamui/seamui/where"
	"github.com/spf13/viper"
)

// app is everything a long-running command needs, built from the configuration.
type app struct {
	assets   *asset.Cache
	store    *store.Store
	registry *provider.Registry
	engine   *engine.Engine
}

func seconds(k string) time.Duration {
	return time.Duration(viper.GetInt(k)) * time.Second
}

// openStore loads the followed anchors. An unreadable file is logged and
// treated as an empty one so the user can start over.
func openStore(assets store.Resolver) *store.Store {
	st := store.New(where.Anchors(), assets)
	if _, err := st.Load(); err != nil {
		var persistErr *store.PersistenceError
		if errors.As(err, &persistErr) {
			log.Errorf("no saved anchors: %v", err)
		} else {
			log.Error(err)
		}
	}
	return st
}

func newAssets(m *metrics.Metrics) *asset.Cache {
	return asset.New(asset.Options{
		Dir:     where.Assets(),
		FailTTL: seconds(key.AssetsFailTTL),
		Metrics: m,
	})
}

func newApp(m *metrics.Metrics) *app {
	assets := newAssets(m)
	st := openStore(assets)
	registry := provider.Scripts()

	e := engine.New(engine.Options{
		Store:         st,
		Checker:       registry,
		Player:        &player.External{},
		Interval:      seconds(key.PollInterval),
		Concurrency:   viper.GetInt(key.PollConcurrency),
		LookupTimeout: seconds(key.PollTimeout),
		Metrics:       m,
	})

	config.Watch(func(name string) {
		log.Infof("config %s changed, player is now %q", name, viper.GetString(key.PlayerPath))
	})

	return &app{
		assets:   assets,
		store:    st,
		registry: registry,
		engine:   e,
	}
}

// updateScripts refreshes lookup scripts from platforms.update_url.
// With verbose set every result is printed, otherwise failures are only logged.
func updateScripts(ctx context.Context, platforms []anchor.Platform, verbose bool) int {
	baseURL := viper.GetString(key.PlatformsUpdateURL)
	if baseURL == "" {
		if verbose {
			handleErr(errors.New(key.PlatformsUpdateURL + " is empty"))
		}
		return 0
	}

	var failed int
	for _, res := range provider.UpdateScripts(ctx, baseURL, platforms) {
		switch {
		case res.Err != nil:
			failed++
			log.Warnf("update %s script: %v", res.Platform, res.Err)
			if verbose {
				fmt.Printf("%s %s %s\n", icon.Get(icon.Fail), res.Platform, style.Faint(res.Err.Error()))
			}
		case res.Updated:
			log.Infof("updated %s script", res.Platform)
			if verbose {
				fmt.Printf("%s %s updated\n", icon.Get(icon.Success), res.Platform)
			}
		case verbose:
			fmt.Printf("%s %s up to date\n", icon.Get(icon.Success), res.Platform)
		}
	}

	return failed
}

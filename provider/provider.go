// Package provider resolves the live status of rooms through per-platform lookups.
package provider

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/seamui/seamui/anchor"
	"github.com/seamui/seamui/auth"
	"github.com/seamui/seamui/constant"
	"github.com/seamui/seamui/filesystem"
	"github.com/seamui/seamui/log"
	"github.com/seamui/seamui/provider/custom"
	"github.com/seamui/seamui/where"
)

// ErrNotLive may be returned by a Lookup instead of an offline Room.
var ErrNotLive = errors.New("room is not live")

// ErrNoLookup is wrapped when a platform has no lookup installed.
var ErrNoLookup = errors.New("no lookup installed")

// Lookup fetches the current state of a room on one platform.
type Lookup interface {
	Lookup(ctx context.Context, roomID string) (*anchor.Room, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, roomID string) (*anchor.Room, error)

func (f LookupFunc) Lookup(ctx context.Context, roomID string) (*anchor.Room, error) {
	return f(ctx, roomID)
}

// LookupError is a failed lookup. It never means the room is offline.
type LookupError struct {
	Key anchor.Key
	Err error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup %s: %v", e.Key, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// Registry maps every platform to its lookup.
type Registry struct {
	lookups map[anchor.Platform]Lookup
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{lookups: make(map[anchor.Platform]Lookup)}
}

// Register installs l for p, replacing any previous lookup.
func (r *Registry) Register(p anchor.Platform, l Lookup) {
	r.lookups[p] = l
}

// Get returns the lookup of p.
func (r *Registry) Get(p anchor.Platform) (Lookup, bool) {
	l, ok := r.lookups[p]
	return l, ok
}

// Check looks the room up and returns its Info with a Live or Offline status.
// Every failure, including a panicking lookup, is reported as *LookupError.
func (r *Registry) Check(ctx context.Context, key anchor.Key) (info anchor.Info, err error) {
	lookup, ok := r.lookups[key.Platform]
	if !ok {
		return anchor.Info{}, &LookupError{Key: key, Err: ErrNoLookup}
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Errorf("lookup %s panicked: %v", key, rec)
			err = &LookupError{Key: key, Err: fmt.Errorf("panic: %v", rec)}
		}
	}()

	room, err := lookup.Lookup(ctx, key.RoomID)
	switch {
	case errors.Is(err, ErrNotLive):
		return anchor.Info{Key: key, Status: anchor.OfflineStatus()}, nil
	case err != nil:
		return anchor.Info{}, &LookupError{Key: key, Err: err}
	case room == nil:
		return anchor.Info{Key: key, Status: anchor.OfflineStatus()}, nil
	}

	return room.Info(key), nil
}

// ScriptPath is where the lookup script of p lives.
func ScriptPath(p anchor.Platform) string {
	return filepath.Join(where.Sources(), p.ID()+constant.ScriptExtension)
}

// Installed reports whether a lookup script exists for p.
func Installed(p anchor.Platform) bool {
	exists, err := filesystem.API().Exists(ScriptPath(p))
	return err == nil && exists
}

// Scripts builds a registry backed by the Lua scripts in where.Sources.
// Scripts are resolved at call time, so installing one later needs no restart.
func Scripts() *Registry {
	r := NewRegistry()
	for _, p := range anchor.Platforms() {
		platform := p
		r.Register(platform, &custom.Script{
			Platform: platform,
			Path:     ScriptPath(platform),
			Cookie: func() string {
				cookie, err := auth.Cookie(platform)
				if err != nil {
					log.Warnf("read %s cookie: %v", platform, err)
				}
				return cookie
			},
		})
	}
	return r
}

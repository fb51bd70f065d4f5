// Package store holds the followed anchors and the subset currently live.
//
// Both sets are guarded by one mutex and every mutation is a single critical
// section, so readers never see an anchor that is live but not followed.
// Only the configured set is persisted; live status is rebuilt by polling.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/seamui/seamui/anchor"
	"golang.org/x/exp/slices"
)

// ErrNotTracked is returned when updating an anchor that is no longer followed.
var ErrNotTracked = errors.New("anchor is not followed")

// Resolver turns a remote image URL into a local file.
type Resolver interface {
	Resolve(ctx context.Context, url string) (string, error)
}

// Store is the in-memory anchor state.
type Store struct {
	path   string
	assets Resolver

	mu         sync.Mutex
	configured map[anchor.Key]anchor.Info
	live       map[anchor.Key]anchor.Info

	// serializes Persist so an older snapshot never overwrites a newer one
	persistMu sync.Mutex
}

// New returns an empty store persisted at path.
// A nil assets resolver leaves every local path empty.
func New(path string, assets Resolver) *Store {
	return &Store{
		path:       path,
		assets:     assets,
		configured: make(map[anchor.Key]anchor.Info),
		live:       make(map[anchor.Key]anchor.Info),
	}
}

// Path is the file the configured set is persisted to.
func (s *Store) Path() string {
	return s.path
}

// Prepare resolves the cover and avatar of info into the asset cache.
// It does not touch the store. Any asset failure is returned as is.
func (s *Store) Prepare(ctx context.Context, info anchor.Info) (anchor.Info, error) {
	info = info.Clone()
	info.CoverPath, info.AvatarPath = "", ""

	if s.assets == nil {
		return info, nil
	}

	if info.CoverURL != "" {
		path, err := s.assets.Resolve(ctx, info.CoverURL)
		if err != nil {
			return anchor.Info{}, err
		}
		info.CoverPath = path
	}

	if info.AvatarURL != "" {
		path, err := s.assets.Resolve(ctx, info.AvatarURL)
		if err != nil {
			return anchor.Info{}, err
		}
		info.AvatarPath = path
	}

	return info, nil
}

// Admit inserts or replaces info in the configured set, and in the live set
// when its status is live. It returns the previous configured value.
func (s *Store) Admit(info anchor.Info) mo.Option[anchor.Info] {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.admit(info)
}

func (s *Store) admit(info anchor.Info) mo.Option[anchor.Info] {
	prev, ok := s.configured[info.Key]
	if ok && info.Name == "" {
		info.Name = prev.Name
	}

	info = info.Clone()
	s.configured[info.Key] = info
	if info.Status.IsLive() {
		s.live[info.Key] = info
	} else {
		delete(s.live, info.Key)
	}

	if !ok {
		return mo.None[anchor.Info]()
	}
	return mo.Some(prev)
}

// AddOrUpdateLive resolves the assets of info and admits it.
// Nothing is stored when an asset cannot be resolved.
func (s *Store) AddOrUpdateLive(ctx context.Context, info anchor.Info) (mo.Option[anchor.Info], error) {
	prepared, err := s.Prepare(ctx, info)
	if err != nil {
		return mo.None[anchor.Info](), err
	}
	return s.Admit(prepared), nil
}

// Update is Admit restricted to anchors that are still followed.
func (s *Store) Update(info anchor.Info) (mo.Option[anchor.Info], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.configured[info.Key]; !ok {
		return mo.None[anchor.Info](), fmt.Errorf("%s: %w", info.Key, ErrNotTracked)
	}
	return s.admit(info), nil
}

// MarkOffline records that a followed anchor is not live. Display metadata is
// taken from meta when present; cached paths survive only for unchanged URLs.
// It reports whether the anchor was live before.
func (s *Store) MarkOffline(key anchor.Key, meta anchor.Info) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, ok := s.configured[key]
	if !ok {
		return false, fmt.Errorf("%s: %w", key, ErrNotTracked)
	}

	info.Name = lo.Ternary(meta.Name != "", meta.Name, info.Name)
	info.Title = lo.Ternary(meta.Title != "", meta.Title, info.Title)
	if meta.CoverURL != "" && meta.CoverURL != info.CoverURL {
		info.CoverURL, info.CoverPath = meta.CoverURL, ""
	}
	if meta.AvatarURL != "" && meta.AvatarURL != info.AvatarURL {
		info.AvatarURL, info.AvatarPath = meta.AvatarURL, ""
	}
	info.Status = anchor.OfflineStatus()

	_, wasLive := s.live[key]
	delete(s.live, key)
	s.configured[key] = info

	return wasLive, nil
}

// AddConfigOnly follows info without a live check. Its status is offline.
func (s *Store) AddConfigOnly(info anchor.Info) {
	info = info.Clone()
	info.Status = anchor.OfflineStatus()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.admit(info)
}

// Remove forgets key in both sets. Removing an unknown key is a no-op.
func (s *Store) Remove(key anchor.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.configured[key]
	delete(s.configured, key)
	delete(s.live, key)
	return ok
}

// Get returns the configured anchor of key.
func (s *Store) Get(key anchor.Key) mo.Option[anchor.Info] {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, ok := s.configured[key]
	if !ok {
		return mo.None[anchor.Info]()
	}
	return mo.Some(info.Clone())
}

// Len is the number of followed anchors.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.configured)
}

// Counts returns the number of followed and live anchors as of one instant.
func (s *Store) Counts() (configured, live int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.configured), len(s.live)
}

// SnapshotLive copies the live set, sorted by key.
func (s *Store) SnapshotLive() []anchor.Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	return snapshot(s.live)
}

// Snapshot copies the live and configured sets as of one instant, sorted by key.
func (s *Store) Snapshot() (live, configured []anchor.Info) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return snapshot(s.live), snapshot(s.configured)
}

// SnapshotConfigured copies the configured set, sorted by key.
func (s *Store) SnapshotConfigured() []anchor.Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	return snapshot(s.configured)
}

func snapshot(m map[anchor.Key]anchor.Info) []anchor.Info {
	infos := make([]anchor.Info, 0, len(m))
	for _, info := range m {
		infos = append(infos, info.Clone())
	}

	slices.SortFunc(infos, func(a, b anchor.Info) int {
		return a.Key.Compare(b.Key)
	})
	return infos
}

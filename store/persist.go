package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/samber/lo"
	"github.com/seamui/seamui/anchor"
	"github.com/seamui/seamui/filesystem"
	"github.com/seamui/seamui/log"
)

// PersistenceError is a failure to read or write the anchors file.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

type record struct {
	Platform   anchor.Platform `json:"platform"`
	RoomID     string          `json:"room_id"`
	Name       string          `json:"name"`
	Title      string          `json:"title,omitempty"`
	CoverURL   string          `json:"cover_url,omitempty"`
	CoverPath  string          `json:"cover_path,omitempty"`
	AvatarURL  string          `json:"avatar_url,omitempty"`
	AvatarPath string          `json:"avatar_path,omitempty"`
}

type document struct {
	Anchors []record `json:"anchors"`
}

func toRecord(info anchor.Info) record {
	return record{
		Platform:   info.Platform,
		RoomID:     info.RoomID,
		Name:       info.Name,
		Title:      info.Title,
		CoverURL:   info.CoverURL,
		CoverPath:  info.CoverPath,
		AvatarURL:  info.AvatarURL,
		AvatarPath: info.AvatarPath,
	}
}

func (r record) info() (anchor.Info, error) {
	key, err := anchor.NewKey(r.Platform, r.RoomID)
	if err != nil {
		return anchor.Info{}, err
	}

	info := anchor.Info{
		Key:       key,
		Name:      r.Name,
		Title:     r.Title,
		CoverURL:  r.CoverURL,
		AvatarURL: r.AvatarURL,
		Status:    anchor.OfflineStatus(),
	}

	// a path is only valid while its file is still in the cache
	if r.CoverURL != "" && fileExists(r.CoverPath) {
		info.CoverPath = r.CoverPath
	}
	if r.AvatarURL != "" && fileExists(r.AvatarPath) {
		info.AvatarPath = r.AvatarPath
	}

	return info, nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	exists, err := filesystem.API().Exists(path)
	return err == nil && exists
}

// Load replaces the configured set with the persisted one and clears the
// live set. A missing file is an empty set. Entries that fail validation are
// skipped with a warning.
func (s *Store) Load() ([]anchor.Info, error) {
	data, err := filesystem.API().ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.replace(nil)
		return nil, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "read", Path: s.path, Err: err}
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &PersistenceError{Op: "parse", Path: s.path, Err: err}
	}

	infos := lo.FilterMap(doc.Anchors, func(r record, _ int) (anchor.Info, bool) {
		info, err := r.info()
		if err != nil {
			log.Warnf("skip saved anchor %s/%s: %v", r.Platform, r.RoomID, err)
			return anchor.Info{}, false
		}
		return info, true
	})

	s.replace(infos)
	log.Infof("loaded %d anchors from %s", len(infos), s.path)
	return s.SnapshotConfigured(), nil
}

func (s *Store) replace(infos []anchor.Info) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.configured = make(map[anchor.Key]anchor.Info, len(infos))
	s.live = make(map[anchor.Key]anchor.Info)
	for _, info := range infos {
		s.configured[info.Key] = info
	}
}

// Persist writes the configured set, without live status, to the anchors file.
func (s *Store) Persist() error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	doc := document{
		Anchors: lo.Map(s.SnapshotConfigured(), func(info anchor.Info, _ int) record {
			return toRecord(info)
		}),
	}

	err := filesystem.WriteAtomic(s.path, 0o644, func(w io.Writer) error {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(doc)
	})
	if err != nil {
		return &PersistenceError{Op: "write", Path: s.path, Err: err}
	}

	return nil
}

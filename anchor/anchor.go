package anchor

import (
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
)

// Key identifies an anchor. At most one anchor exists per key.
type Key struct {
	Platform Platform `json:"platform"`
	RoomID   string   `json:"room_id"`
}

// NewKey validates and normalises a platform/room pair.
func NewKey(platform Platform, roomID string) (Key, error) {
	roomID = strings.TrimSpace(roomID)
	if !platform.Valid() {
		return Key{}, fmt.Errorf("%w: %d", ErrUnknownPlatform, int(platform))
	}
	if roomID == "" {
		return Key{}, fmt.Errorf("empty room id for %s", platform)
	}
	return Key{Platform: platform, RoomID: roomID}, nil
}

// ParseKey parses "platform/room".
func ParseKey(s string) (Key, error) {
	platform, room, ok := strings.Cut(s, "/")
	if !ok {
		return Key{}, fmt.Errorf("malformed anchor %q, expected platform/room", s)
	}

	p, err := ParsePlatform(platform)
	if err != nil {
		return Key{}, err
	}

	return NewKey(p, room)
}

func (k Key) String() string {
	return k.Platform.ID() + "/" + k.RoomID
}

// Less orders keys by platform id, then room id.
func (k Key) Less(other Key) bool {
	if k.Platform != other.Platform {
		return k.Platform.ID() < other.Platform.ID()
	}
	return k.RoomID < other.RoomID
}

// Compare is Less as a three-way comparison, for slices.SortFunc.
func (k Key) Compare(other Key) int {
	switch {
	case k.Less(other):
		return -1
	case other.Less(k):
		return 1
	default:
		return 0
	}
}

// URL is the web page of the room.
func (k Key) URL() string {
	return k.Platform.RoomURL(k.RoomID)
}

// Source is one playable stream URL. Format is free-form ("flv", "m3u", "rtmp", ...).
type Source struct {
	Format string `json:"format"`
	URL    string `json:"url"`
}

// State is the coarse status of an anchor.
type State int

const (
	Offline State = iota
	Live
	Failed
)

var stateNames = map[State]string{
	Offline: "offline",
	Live:    "live",
	Failed:  "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

func (State) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Enum: []any{"offline", "live", "failed"}}
}

// Status is the result of the latest lookup. Only a Live status carries sources;
// only a Failed status carries a message.
type Status struct {
	State   State    `json:"state"`
	Title   string   `json:"title,omitempty"`
	Sources []Source `json:"sources,omitempty"`
	Message string   `json:"message,omitempty"`
}

// LiveStatus builds a live status. Source order is kept; the first is the default.
func LiveStatus(title string, sources []Source) Status {
	return Status{State: Live, Title: title, Sources: append([]Source(nil), sources...)}
}

// OfflineStatus builds an offline status.
func OfflineStatus() Status {
	return Status{State: Offline}
}

// FailedStatus builds a failed status with a human readable reason.
func FailedStatus(message string) Status {
	return Status{State: Failed, Message: message}
}

func (s Status) IsLive() bool {
	return s.State == Live
}

// Default is the preferred source of a live status.
func (s Status) Default() (Source, bool) {
	if !s.IsLive() || len(s.Sources) == 0 {
		return Source{}, false
	}
	return s.Sources[0], true
}

// URLs lists source URLs in preference order.
func (s Status) URLs() []string {
	urls := make([]string, len(s.Sources))
	for i, src := range s.Sources {
		urls[i] = src.URL
	}
	return urls
}

// Info is everything known about one anchor. CoverPath and AvatarPath are
// set only once the matching URL has been downloaded into the asset cache.
type Info struct {
	Key
	Name       string `json:"name"`
	Title      string `json:"title,omitempty"`
	CoverURL   string `json:"cover_url,omitempty"`
	CoverPath  string `json:"cover_path,omitempty"`
	AvatarURL  string `json:"avatar_url,omitempty"`
	AvatarPath string `json:"avatar_path,omitempty"`
	Status     Status `json:"status"`
}

// Clone returns a deep copy.
func (i Info) Clone() Info {
	i.Status.Sources = append([]Source(nil), i.Status.Sources...)
	return i
}

// DisplayName falls back to the room id when the anchor name is unknown.
func (i Info) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.RoomID
}

// Room is what a platform lookup reports about a room.
// A room that is not live may still carry display metadata.
type Room struct {
	Live    bool
	Title   string
	Anchor  string
	Cover   string
	Avatar  string
	Sources []Source
}

// Info folds the room into an Info for key, with a Live or Offline status.
func (r *Room) Info(key Key) Info {
	info := Info{
		Key:       key,
		Name:      r.Anchor,
		Title:     r.Title,
		CoverURL:  r.Cover,
		AvatarURL: r.Avatar,
		Status:    OfflineStatus(),
	}

	if r.Live {
		info.Status = LiveStatus(r.Title, r.Sources)
	}

	return info
}

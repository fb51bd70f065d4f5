// Package anchor is the data model of followed live-stream rooms.
package anchor

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/invopop/jsonschema"
)

// ErrUnknownPlatform is returned when a platform id is not recognised.
var ErrUnknownPlatform = errors.New("unknown platform")

// Platform is a supported streaming site.
type Platform int

const (
	Bilibili Platform = iota + 1
	Douyu
	Douyin
	Huya
	Kuaishou
	CC
	Huajiao
	Now
	Afreeca
)

type platformDef struct {
	id      string
	name    string
	room    string
	aliases []string
}

var platforms = map[Platform]platformDef{
	Bilibili: {id: "bilibili", name: "Bilibili", room: "https://live.bilibili.com/%s", aliases: []string{"bili", "b"}},
	Douyu:    {id: "douyu", name: "Douyu", room: "https://www.douyu.com/%s"},
	Douyin:   {id: "douyin", name: "Douyin", room: "https://live.douyin.com/%s"},
	Huya:     {id: "huya", name: "Huya", room: "https://www.huya.com/%s"},
	Kuaishou: {id: "kuaishou", name: "Kuaishou", room: "https://live.kuaishou.com/u/%s", aliases: []string{"ks"}},
	CC:       {id: "cc", name: "NetEase CC", room: "https://cc.163.com/%s"},
	Huajiao:  {id: "huajiao", name: "Huajiao", room: "https://www.huajiao.com/l/%s"},
	Now:      {id: "now", name: "NOW", room: "https://now.qq.com/pcweb/story.html?roomid=%s"},
	Afreeca:  {id: "afreeca", name: "AfreecaTV", room: "https://play.afreecatv.com/%s"},
}

// Platforms returns every supported platform in declaration order.
func Platforms() []Platform {
	return []Platform{Bilibili, Douyu, Douyin, Huya, Kuaishou, CC, Huajiao, Now, Afreeca}
}

// ParsePlatform resolves an id or alias, case-insensitively.
func ParsePlatform(s string) (Platform, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, p := range Platforms() {
		def := platforms[p]
		if def.id == s {
			return p, nil
		}
		for _, alias := range def.aliases {
			if alias == s {
				return p, nil
			}
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownPlatform, s)
}

// Valid reports whether p is one of the supported platforms.
func (p Platform) Valid() bool {
	_, ok := platforms[p]
	return ok
}

// ID is the stable lowercase identifier used in files and URLs.
func (p Platform) ID() string {
	return platforms[p].id
}

// Name is the human readable platform name.
func (p Platform) Name() string {
	return platforms[p].name
}

func (p Platform) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Platform(%d)", int(p))
	}
	return p.ID()
}

// RoomURL is the web page of a room.
func (p Platform) RoomURL(roomID string) string {
	def, ok := platforms[p]
	if !ok {
		return ""
	}
	return fmt.Sprintf(def.room, url.PathEscape(roomID))
}

func (p Platform) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPlatform, int(p))
	}
	return []byte(p.ID()), nil
}

func (p *Platform) UnmarshalText(text []byte) error {
	parsed, err := ParsePlatform(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// JSONSchema describes a platform as its string id.
func (Platform) JSONSchema() *jsonschema.Schema {
	ids := make([]any, 0, len(platforms))
	for _, p := range Platforms() {
		ids = append(ids, p.ID())
	}
	return &jsonschema.Schema{Type: "string", Enum: ids}
}

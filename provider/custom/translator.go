package custom

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/seamui/seamui/anchor"
	lua "github.com/yuin/gopher-lua"
)

func getString(table *lua.LTable, key string) string {
	val := table.RawGetString(key)
	switch val.Type() {
	case lua.LTString, lua.LTNumber:
		return strings.TrimSpace(val.String())
	default:
		return ""
	}
}

// roomFromTable reads { live, title, anchor, cover, avatar, sources }.
// A missing live field counts as live when sources are present.
func roomFromTable(table *lua.LTable) (*anchor.Room, error) {
	sources, err := sourcesFromTable(table.RawGetString("sources"))
	if err != nil {
		return nil, err
	}

	live := len(sources) > 0
	if v := table.RawGetString("live"); v != lua.LNil {
		live = lua.LVAsBool(v)
	}

	if live && len(sources) == 0 {
		return nil, errors.New("room reported live without any source")
	}

	room := &anchor.Room{
		Live:   live,
		Title:  getString(table, "title"),
		Anchor: getString(table, "anchor"),
		Cover:  getString(table, "cover"),
		Avatar: getString(table, "avatar"),
	}
	if live {
		room.Sources = sources
	}

	return room, nil
}

// sourcesFromTable accepts an array of { format, url } tables or bare URL strings.
// Order is preserved.
func sourcesFromTable(val lua.LValue) ([]anchor.Source, error) {
	if val == lua.LNil {
		return nil, nil
	}

	table, ok := val.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("sources must be a table, got %s", val.Type())
	}

	var sources []anchor.Source
	for i := 1; i <= table.Len(); i++ {
		switch entry := table.RawGetInt(i).(type) {
		case lua.LString:
			url := strings.TrimSpace(string(entry))
			if url == "" {
				continue
			}
			sources = append(sources, anchor.Source{Format: guessFormat(url), URL: url})
		case *lua.LTable:
			url := getString(entry, "url")
			if url == "" {
				return nil, fmt.Errorf("source #%d has no url", i)
			}
			format := getString(entry, "format")
			if format == "" {
				format = guessFormat(url)
			}
			sources = append(sources, anchor.Source{Format: format, URL: url})
		default:
			return nil, fmt.Errorf("source #%d must be a table or string", i)
		}
	}

	return sources, nil
}

func guessFormat(url string) string {
	if scheme, _, ok := strings.Cut(url, "://"); ok && scheme == "rtmp" {
		return "rtmp"
	}

	clean, _, _ := strings.Cut(url, "?")
	switch ext := strings.TrimPrefix(path.Ext(clean), "."); ext {
	case "m3u8":
		return "m3u"
	case "":
		return "unknown"
	default:
		return ext
	}
}

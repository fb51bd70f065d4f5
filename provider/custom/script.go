package custom

import (
	"context"
	"fmt"

	"github.com/seamui/seamui/anchor"
	"github.com/seamui/seamui/constant"
	lua "github.com/yuin/gopher-lua"
)

// Script is the lookup of one platform backed by a Lua file.
type Script struct {
	Platform anchor.Platform
	Path     string

	// Cookie, when set, supplies opts.cookie for every call.
	Cookie func() string
}

// Lookup calls GetLive(room_id, opts). A nil return means the room is offline.
func (s *Script) Lookup(ctx context.Context, roomID string) (*anchor.Room, error) {
	L, err := newState(ctx, s.Path)
	if err != nil {
		return nil, err
	}
	defer L.Close()

	opts := L.NewTable()
	if s.Cookie != nil {
		if cookie := s.Cookie(); cookie != "" {
			opts.RawSetString("cookie", lua.LString(cookie))
		}
	}
	opts.RawSetString("platform", lua.LString(s.Platform.ID()))

	err = L.CallByParam(lua.P{
		Fn:      L.GetGlobal(constant.GetLiveFn),
		NRet:    1,
		Protect: true,
	}, lua.LString(roomID), opts)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	ret := L.Get(-1)
	L.Pop(1)

	switch ret.Type() {
	case lua.LTNil:
		return &anchor.Room{}, nil
	case lua.LTTable:
		return roomFromTable(ret.(*lua.LTable))
	default:
		return nil, fmt.Errorf("%s returned %s, expected table or nil", constant.GetLiveFn, ret.Type())
	}
}

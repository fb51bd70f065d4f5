// Package custom runs platform lookups implemented as Lua scripts.
package custom

import (
	"context"
	"fmt"

	libs "github.com/metafates/mangal-lua-libs"
	"github.com/seamui/seamui/constant"
	"github.com/seamui/seamui/internal/scraper"
	lua "github.com/yuin/gopher-lua"
)

// newState prepares a sandbox with the script loaded and GetLive defined.
// Every call gets its own state; an LState must not be shared between goroutines.
func newState(ctx context.Context, path string) (*lua.LState, error) {
	L := lua.NewState()
	libs.Preload(L)
	registerTLSClient(L)
	L.SetContext(ctx)

	if err := scraper.PreCompileAndLoad(L, path); err != nil {
		L.Close()
		return nil, err
	}

	if L.GetGlobal(constant.GetLiveFn).Type() != lua.LTFunction {
		L.Close()
		return nil, fmt.Errorf("function %s is required but not defined in %s", constant.GetLiveFn, path)
	}

	return L, nil
}

// Validate loads the script once and checks that it defines GetLive.
func Validate(path string) error {
	L, err := newState(context.Background(), path)
	if err != nil {
		return err
	}
	L.Close()
	return nil
}

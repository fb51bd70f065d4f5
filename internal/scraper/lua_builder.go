// Package scraper compiles lookup scripts once and replays the bytecode into fresh Lua states.
package scraper

import (
	"sync"
	"time"

	"github.com/seamui/seamui/filesystem"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

type compiled struct {
	proto   *lua.FunctionProto
	modTime time.Time
	size    int64
}

var bytecodeCache sync.Map

// PreCompileAndLoad runs the script at path inside L.
// The compiled prototype is reused until the file changes on disk.
func PreCompileAndLoad(L *lua.LState, path string) error {
	proto, err := prototype(path)
	if err != nil {
		return err
	}

	L.Push(L.NewFunctionFromProto(proto))
	return L.PCall(0, lua.MultRet, nil)
}

func prototype(path string) (*lua.FunctionProto, error) {
	stat, err := filesystem.API().Stat(path)
	if err != nil {
		return nil, err
	}

	if cached, ok := bytecodeCache.Load(path); ok {
		c := cached.(*compiled)
		if c.modTime.Equal(stat.ModTime()) && c.size == stat.Size() {
			return c.proto, nil
		}
	}

	file, err := filesystem.API().Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	chunk, err := parse.Parse(file, path)
	if err != nil {
		return nil, err
	}

	proto, err := lua.Compile(chunk, path)
	if err != nil {
		return nil, err
	}

	bytecodeCache.Store(path, &compiled{proto: proto, modTime: stat.ModTime(), size: stat.Size()})
	return proto, nil
}

// Forget drops the cached bytecode for path.
func Forget(path string) {
	bytecodeCache.Delete(path)
}

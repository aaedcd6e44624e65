package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/flatcollision/flatcollision/internal/physics"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for probe filtering.
// Single-goroutine access only (tick loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger

	accept lua.LValue
	arg    *lua.LTable // reused per call

	calls  uint64
	errors uint64
}

// NewEngine creates a Lua engine and loads path, which may be a single .lua
// file or a directory of them.
func NewEngine(path string, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	info, err := os.Stat(path)
	if err != nil {
		vm.Close()
		return nil, fmt.Errorf("stat scripts %s: %w", path, err)
	}
	if info.IsDir() {
		err = e.loadDir(path)
	} else {
		err = e.loadFile(path)
	}
	if err != nil {
		vm.Close()
		return nil, fmt.Errorf("load probe scripts: %w", err)
	}

	e.bind()
	return e, nil
}

// NewEngineFromString is NewEngine for inline source.
func NewEngineFromString(src string, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	if err := vm.DoString(src); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load probe source: %w", err)
	}
	e := &Engine{vm: vm, log: log}
	e.bind()
	return e, nil
}

func (e *Engine) bind() {
	e.accept = e.vm.GetGlobal("accept")
	if e.accept.Type() != lua.LTFunction {
		e.accept = lua.LNil
		e.log.Warn("lua function accept not found, probes accept every entity")
	}
	e.arg = e.vm.NewTable()
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		if err := e.loadFile(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) loadFile(path string) error {
	if err := e.vm.DoFile(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	e.log.Debug("loaded lua script", zap.String("file", path))
	return nil
}

// HasPredicate reports whether the loaded scripts define accept(e).
func (e *Engine) HasPredicate() bool {
	return e.accept != lua.LNil
}

// Predicate returns Accept as a query predicate, or nil when no accept
// function is defined so the query skips the call entirely.
func (e *Engine) Predicate() func(physics.Entity) bool {
	if !e.HasPredicate() {
		return nil
	}
	return e.Accept
}

// Accept calls the Lua accept(e) function with a table describing ent:
// id, x, y, z, width, height, vx, vz, alive. A script error rejects the
// entity.
func (e *Engine) Accept(ent physics.Entity) bool {
	if e.accept == lua.LNil {
		return true
	}
	e.calls++

	pos := ent.Position()
	vel := ent.Velocity()
	t := e.arg
	t.RawSetString("id", lua.LNumber(ent.ID()))
	t.RawSetString("x", lua.LNumber(pos.X))
	t.RawSetString("y", lua.LNumber(pos.Y))
	t.RawSetString("z", lua.LNumber(pos.Z))
	t.RawSetString("width", lua.LNumber(ent.Width()))
	t.RawSetString("height", lua.LNumber(ent.Height()))
	t.RawSetString("vx", lua.LNumber(vel.X))
	t.RawSetString("vz", lua.LNumber(vel.Z))
	t.RawSetString("alive", lua.LBool(ent.Alive()))

	if err := e.vm.CallByParam(lua.P{
		Fn:      e.accept,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.errors++
		e.log.Error("lua call error", zap.String("func", "accept"), zap.Error(err))
		return false
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)
	return lua.LVAsBool(result)
}

// Calls returns how many times accept ran; Errors how many of those failed.
func (e *Engine) Calls() uint64  { return e.calls }
func (e *Engine) Errors() uint64 { return e.errors }

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}

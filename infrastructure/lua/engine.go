// Package lua embeds a gopher-lua interpreter as a bridge engine.
//
// Modules are "<name>.lua" files loaded with require from the configured
// search paths. A module that returns a table exposes that table's fields;
// any other module exposes its globals. Scripts reach host functions through
// the bridge_host table:
//
//	local resp = bridge_host.call("env_get", '{"name":"HOME"}')
//	bridge_host.log("info", "greeting " .. name)
package lua

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/reglet-dev/hostbridge/domain/errors"
	"github.com/reglet-dev/hostbridge/domain/ports"
	"github.com/reglet-dev/hostbridge/hostfuncs"
	"github.com/reglet-dev/hostbridge/internal/searchpath"
	lua "github.com/yuin/gopher-lua"
)

const (
	// Name is the engine identifier used in configuration.
	Name = "lua"
	// Extension is the module file extension.
	Extension = ".lua"
	// HostTable is the global through which scripts call host functions.
	HostTable = "bridge_host"
)

// Engine starts gopher-lua runtimes.
type Engine struct {
	opts lua.Options
}

// NewEngine creates a Lua engine. The standard libraries are always opened.
func NewEngine() *Engine {
	return &Engine{opts: lua.Options{SkipOpenLibs: false}}
}

func (e *Engine) Name() string      { return Name }
func (e *Engine) Extension() string { return Extension }

// Start creates a fresh interpreter whose package.path begins with the search paths.
func (e *Engine) Start(ctx context.Context, cfg ports.RuntimeConfig) (ports.Runtime, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()

	L := lua.NewState(e.opts)
	rt := &Runtime{state: L, cfg: cfg}

	if err := rt.setPackagePath(cfg.SearchPaths); err != nil {
		L.Close()
		return nil, err
	}
	L.SetGlobal("print", L.NewFunction(rt.print))
	L.SetGlobal(HostTable, L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"call": rt.hostCall,
		"log":  rt.hostLog,
	}))
	return rt, nil
}

// Runtime is one Lua state. It is not safe for concurrent use.
type Runtime struct {
	state   *lua.LState
	cfg     ports.RuntimeConfig
	current string
}

func (r *Runtime) setPackagePath(dirs []string) error {
	pkg, ok := r.state.GetGlobal("package").(*lua.LTable)
	if !ok {
		return fmt.Errorf("lua package library is not loaded")
	}
	parts := make([]string, 0, len(dirs)+1)
	for _, dir := range dirs {
		parts = append(parts, filepath.Join(dir, "?"+Extension))
	}
	if existing := lua.LVAsString(r.state.GetField(pkg, "path")); existing != "" {
		parts = append(parts, existing)
	}
	r.state.SetField(pkg, "path", lua.LString(strings.Join(parts, ";")))
	return nil
}

// Import runs require(name) and keeps the resulting namespace.
func (r *Runtime) Import(ctx context.Context, name string) (ports.Module, error) {
	path, ok := searchpath.Find(r.cfg.SearchPaths, name, Extension)
	if !ok {
		return nil, fmt.Errorf("%w: %s%s", errors.ErrModuleNotFound, name, Extension)
	}

	L := r.state
	r.current = name
	L.SetContext(r.callerContext(ctx))
	defer L.RemoveContext()

	if err := L.CallByParam(lua.P{
		Fn:      L.GetGlobal("require"),
		NRet:    1,
		Protect: true,
	}, lua.LString(name)); err != nil {
		return nil, contextError(ctx, err)
	}
	ret := L.Get(-1)
	L.Pop(1)

	ns, ok := ret.(*lua.LTable)
	if !ok {
		ns = L.G.Global
	}
	return &Module{rt: r, name: name, path: path, ns: ns}, nil
}

// Close shuts the interpreter down.
func (r *Runtime) Close(_ context.Context) error {
	if r.state != nil && !r.state.IsClosed() {
		r.state.Close()
	}
	return nil
}

func (r *Runtime) callerContext(ctx context.Context) context.Context {
	return hostfuncs.WithCaller(ctx, hostfuncs.Caller{Engine: Name, Module: r.current})
}

func (r *Runtime) ctx() context.Context {
	if ctx := r.state.Context(); ctx != nil {
		return ctx
	}
	return r.callerContext(context.Background())
}

func (r *Runtime) print(L *lua.LState) int {
	top := L.GetTop()
	parts := make([]string, 0, top)
	for i := 1; i <= top; i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	_, _ = io.WriteString(r.cfg.Stdout, strings.Join(parts, "\t")+"\n")
	return 0
}

// hostCall implements bridge_host.call(name, json) -> json.
func (r *Runtime) hostCall(L *lua.LState) int {
	name := L.CheckString(1)
	payload := L.OptString(2, "")
	resp, err := r.cfg.HostFunctions.Invoke(r.ctx(), name, []byte(payload))
	if err != nil {
		L.RaiseError("host function %s failed: %v", name, err)
		return 0
	}
	L.Push(lua.LString(resp))
	return 1
}

// hostLog implements bridge_host.log(level, message).
func (r *Runtime) hostLog(L *lua.LState) int {
	level := L.CheckString(1)
	msg := L.CheckString(2)
	payload, err := json.Marshal(hostfuncs.LogMessageRequest{Level: level, Message: msg})
	if err != nil {
		L.RaiseError("encode log message: %v", err)
		return 0
	}
	if _, err := r.cfg.HostFunctions.Invoke(r.ctx(), "log_message", payload); err != nil {
		L.RaiseError("log_message failed: %v", err)
	}
	return 0
}

// Module is a required Lua chunk.
type Module struct {
	rt     *Runtime
	ns     *lua.LTable
	name   string
	path   string
	closed bool
}

func (m *Module) Path() string { return m.path }

// Lookup resolves a field of the module namespace.
func (m *Module) Lookup(name string) (ports.Callable, error) {
	if m.closed {
		return nil, fmt.Errorf("module %s is closed", m.name)
	}
	v := m.ns.RawGetString(name)
	switch fn := v.(type) {
	case *lua.LNilType:
		return nil, fmt.Errorf("%w: %s.%s", errors.ErrFunctionNotFound, m.name, name)
	case *lua.LFunction:
		return &Callable{mod: m, name: name, fn: fn}, nil
	default:
		if m.rt.state.GetMetaField(v, "__call") != lua.LNil {
			return &Callable{mod: m, name: name, fn: v}, nil
		}
		return nil, fmt.Errorf("%w: %s.%s is a %s", errors.ErrNotCallable, m.name, name, v.Type())
	}
}

// Close drops the module from package.loaded so the next import runs it again.
func (m *Module) Close(_ context.Context) error {
	if m.closed {
		return nil
	}
	m.closed = true
	L := m.rt.state
	if L.IsClosed() {
		return nil
	}
	if pkg, ok := L.GetGlobal("package").(*lua.LTable); ok {
		if loaded, ok := L.GetField(pkg, "loaded").(*lua.LTable); ok {
			loaded.RawSetString(m.name, lua.LNil)
		}
	}
	return nil
}

// Callable is a Lua function (or __call-able value) from a module.
type Callable struct {
	mod  *Module
	fn   lua.LValue
	name string
}

func (c *Callable) Name() string { return c.name }

// Call invokes the function in protected mode with one string argument.
func (c *Callable) Call(ctx context.Context, arg string) (string, error) {
	if c.mod.closed {
		return "", fmt.Errorf("module %s is closed", c.mod.name)
	}
	L := c.mod.rt.state
	c.mod.rt.current = c.mod.name
	L.SetContext(c.mod.rt.callerContext(ctx))
	defer L.RemoveContext()

	if err := L.CallByParam(lua.P{
		Fn:      c.fn,
		NRet:    1,
		Protect: true,
	}, lua.LString(arg)); err != nil {
		return "", contextError(ctx, err)
	}
	ret := L.Get(-1)
	L.Pop(1)

	if ret == lua.LNil {
		return "", errors.ErrNoResult
	}
	return L.ToStringMeta(ret).String(), nil
}

// contextError attributes a Lua failure to the context when it was cancelled.
func contextError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %v", ctxErr, err)
	}
	return err
}

package wazero

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/reglet-dev/hostbridge/domain/errors"
	"github.com/reglet-dev/hostbridge/domain/ports"
	"github.com/reglet-dev/hostbridge/hostfuncs"
	"github.com/reglet-dev/hostbridge/internal/searchpath"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

const (
	// Name is the engine identifier used in configuration.
	Name = "wasm"
	// Extension is the module file extension.
	Extension = ".wasm"

	allocateExport   = "allocate"
	initializeExport = "_initialize"
)

// Engine starts wazero runtimes.
type Engine struct{}

// NewEngine creates a WebAssembly engine.
func NewEngine() *Engine {
	return &Engine{}
}

func (e *Engine) Name() string      { return Name }
func (e *Engine) Extension() string { return Extension }

// Start creates a runtime with WASI preview1 and the bridge_host module instantiated.
// Calls are closed when their context is done. Host-function requests are
// capped at cfg.MaxOutputBytes.
func (e *Engine) Start(ctx context.Context, cfg ports.RuntimeConfig) (ports.Runtime, error) {
	cfg = cfg.WithDefaults()

	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithCloseOnContextDone(true))
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate WASI: %w", err)
	}
	if err := RegisterWithRuntime(ctx, rt, cfg.HostFunctions,
		WithEngineName(Name),
		WithMaxRequestSize(requestLimit(cfg.MaxOutputBytes)),
		WithLogger(cfg.Logger),
	); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to register host functions: %w", err)
	}
	return &Runtime{runtime: rt, cfg: cfg}, nil
}

// Runtime owns one wazero runtime and every module instantiated in it.
type Runtime struct {
	runtime wazero.Runtime
	cfg     ports.RuntimeConfig
}

// Import compiles and instantiates "<name>.wasm", then runs _initialize if exported.
func (r *Runtime) Import(ctx context.Context, name string) (ports.Module, error) {
	path, ok := searchpath.Find(r.cfg.SearchPaths, name, Extension)
	if !ok {
		return nil, fmt.Errorf("%w: %s%s", errors.ErrModuleNotFound, name, Extension)
	}

	wasmBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	compiled, err := r.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to compile module: %w", err)
	}

	mod, err := r.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().
		WithName(name).
		WithStdout(r.cfg.Stdout).
		WithStderr(r.cfg.Stderr))
	if err != nil {
		_ = compiled.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate module: %w", err)
	}

	if init := mod.ExportedFunction(initializeExport); init != nil {
		if _, err := init.Call(ctx); err != nil {
			_ = mod.Close(ctx)
			_ = compiled.Close(ctx)
			return nil, fmt.Errorf("failed to call %s: %w", initializeExport, err)
		}
	}

	return &Module{name: name, path: path, mod: mod, compiled: compiled, maxOutput: r.cfg.MaxOutputBytes}, nil
}

// Close releases the runtime and every module instantiated in it.
func (r *Runtime) Close(ctx context.Context) error {
	return r.runtime.Close(ctx)
}

// Module is an instantiated guest.
type Module struct {
	mod       api.Module
	compiled  wazero.CompiledModule
	name      string
	path      string
	maxOutput int
}

func (m *Module) Path() string { return m.path }

// Lookup resolves an export with the (ptr i32, len i32) -> i64 calling convention.
func (m *Module) Lookup(name string) (ports.Callable, error) {
	if m.mod.IsClosed() {
		return nil, fmt.Errorf("module %s is closed", m.name)
	}
	f := m.mod.ExportedFunction(name)
	if f == nil {
		if m.mod.ExportedMemory(name) != nil || m.mod.ExportedGlobal(name) != nil {
			return nil, fmt.Errorf("%w: export %q is not a function", errors.ErrNotCallable, name)
		}
		return nil, fmt.Errorf("%w: export %q not found", errors.ErrFunctionNotFound, name)
	}

	def := f.Definition()
	if !isCallableSignature(def.ParamTypes(), def.ResultTypes()) {
		return nil, fmt.Errorf("%w: export %q has signature %s, want (i32, i32) -> i64",
			errors.ErrNotCallable, name, signature(def.ParamTypes(), def.ResultTypes()))
	}
	return &Callable{mod: m, name: name, fn: f}, nil
}

// Close releases the instance and its compiled code.
func (m *Module) Close(ctx context.Context) error {
	if err := m.mod.Close(ctx); err != nil {
		return err
	}
	return m.compiled.Close(ctx)
}

// Callable is an exported guest function.
type Callable struct {
	mod  *Module
	fn   api.Function
	name string
}

func (c *Callable) Name() string { return c.name }

// Call writes arg into guest memory, calls the export and copies the packed result out.
func (c *Callable) Call(ctx context.Context, arg string) (string, error) {
	ctx = hostfuncs.WithCaller(ctx, hostfuncs.Caller{Engine: Name, Module: c.mod.name})
	mod := c.mod.mod

	input := []byte(arg)
	ptr, err := writeGuest(ctx, mod, input)
	if err != nil {
		return "", err
	}

	results, err := c.fn.Call(ctx, uint64(ptr), uint64(len(input)))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%w: %v", ctxErr, err)
		}
		return "", err
	}
	if len(results) == 0 || results[0] == 0 {
		return "", fmt.Errorf("%w: null response from %s", errors.ErrNoResult, c.name)
	}

	outPtr, outLen := unpackPtrLen(results[0])
	if int(outLen) > c.mod.maxOutput {
		return "", fmt.Errorf("output exceeds %d bytes", c.mod.maxOutput)
	}
	mem := mod.Memory()
	if mem == nil {
		return "", fmt.Errorf("guest module exports no memory")
	}
	data, ok := mem.Read(outPtr, outLen)
	if !ok {
		return "", fmt.Errorf("failed to read response from memory")
	}
	return string(data), nil
}

// requestLimit converts an output cap to a guest request cap.
func requestLimit(maxBytes int) uint32 {
	if maxBytes <= 0 {
		return 0
	}
	if uint64(maxBytes) > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(maxBytes)
}

func isCallableSignature(params, results []api.ValueType) bool {
	return len(params) == 2 &&
		params[0] == api.ValueTypeI32 &&
		params[1] == api.ValueTypeI32 &&
		len(results) == 1 &&
		results[0] == api.ValueTypeI64
}

func signature(params, results []api.ValueType) string {
	names := func(ts []api.ValueType) string {
		out := make([]string, len(ts))
		for i, t := range ts {
			out[i] = api.ValueTypeName(t)
		}
		return strings.Join(out, ", ")
	}
	return fmt.Sprintf("(%s) -> (%s)", names(params), names(results))
}

package host

import (
	"context"
	stdErrors "errors"
	"fmt"

	"github.com/reglet-dev/hostbridge/domain/errors"
	"github.com/reglet-dev/hostbridge/domain/ports"
	"github.com/reglet-dev/hostbridge/hostfuncs"
	"github.com/reglet-dev/hostbridge/internal/searchpath"
)

// Executor owns one started runtime. It is the scoped resource of a run:
// acquired once, closed on every exit path.
type Executor struct {
	engine  ports.Engine
	runtime ports.Runtime
	cfg     ports.RuntimeConfig
	s       settings
	closed  bool
}

// NewExecutor starts a runtime of the given engine.
// Failures are returned as *errors.RuntimeInitError.
func NewExecutor(ctx context.Context, engine ports.Engine, cfg ports.RuntimeConfig, opts ...Option) (*Executor, error) {
	e := &Executor{engine: engine, s: newSettings(opts)}

	if e.s.hostFuncs != nil {
		cfg.HostFunctions = e.s.hostFuncs
	}
	if cfg.HostFunctions == nil {
		reg, err := hostfuncs.NewRegistry()
		if err != nil {
			return nil, &errors.RuntimeInitError{Engine: engine.Name(), Err: fmt.Errorf("failed to create default registry: %w", err)}
		}
		cfg.HostFunctions = reg
	}
	if cfg.Logger == nil {
		cfg.Logger = e.s.logger
	}
	e.cfg = cfg.WithDefaults()

	rt, err := engine.Start(ctx, e.cfg)
	if err != nil {
		return nil, &errors.RuntimeInitError{Engine: engine.Name(), Err: err}
	}
	e.runtime = rt
	e.s.logger.DebugContext(ctx, "runtime started", "engine", engine.Name(), "search_paths", e.cfg.SearchPaths)
	return e, nil
}

// Engine returns the engine this executor runs.
func (e *Executor) Engine() ports.Engine {
	return e.engine
}

// Close shuts the runtime down. It is safe to call more than once.
func (e *Executor) Close(ctx context.Context) error {
	if e.closed {
		return nil
	}
	e.closed = true
	err := e.runtime.Close(ctx)
	e.s.logger.DebugContext(ctx, "runtime closed", "engine", e.engine.Name(), "error", err)
	return err
}

// LoadModule imports a module by name.
// Failures are returned as *errors.ModuleLoadError, except a deadline that
// expires during import, which is a timed-out *errors.InvocationError.
func (e *Executor) LoadModule(ctx context.Context, name string) (*ModuleInstance, error) {
	if e.closed {
		return nil, &errors.ModuleLoadError{Module: name, Err: fmt.Errorf("runtime is closed")}
	}
	if err := searchpath.ValidateModuleName(name); err != nil {
		return nil, &errors.ModuleLoadError{Module: name, Err: err}
	}

	mod, err := e.runtime.Import(ctx, name)
	if err != nil {
		if stdErrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &errors.InvocationError{Err: fmt.Errorf("importing module %q: %w", name, ctx.Err())}
		}
		return nil, &errors.ModuleLoadError{Module: name, SearchPath: e.cfg.SearchPaths, Err: err}
	}
	e.s.logger.DebugContext(ctx, "module loaded", "engine", e.engine.Name(), "module", name, "path", mod.Path())
	return &ModuleInstance{module: mod, name: name}, nil
}

// ModuleInstance is a loaded module.
type ModuleInstance struct {
	module ports.Module
	name   string
}

// Name returns the module name it was imported under.
func (m *ModuleInstance) Name() string {
	return m.name
}

// Path returns the file the module was loaded from.
func (m *ModuleInstance) Path() string {
	return m.module.Path()
}

// Lookup resolves a callable. Failures are returned as *errors.FunctionLookupError.
func (m *ModuleInstance) Lookup(name string) (ports.Callable, error) {
	fn, err := m.module.Lookup(name)
	if err != nil {
		return nil, &errors.FunctionLookupError{Module: m.name, Function: name, Err: err}
	}
	return fn, nil
}

// Invoke calls fn with one argument. Failures are returned as *errors.InvocationError.
func (m *ModuleInstance) Invoke(ctx context.Context, fn ports.Callable, arg string) (string, error) {
	out, err := fn.Call(ctx, arg)
	if err == nil {
		return out, nil
	}
	var invErr *errors.InvocationError
	if stdErrors.As(err, &invErr) {
		if invErr.Function == "" {
			invErr.Function = fn.Name()
		}
		return "", invErr
	}
	return "", &errors.InvocationError{Function: fn.Name(), Err: err}
}

// Call looks up name and invokes it with arg.
func (m *ModuleInstance) Call(ctx context.Context, name, arg string) (string, error) {
	fn, err := m.Lookup(name)
	if err != nil {
		return "", err
	}
	return m.Invoke(ctx, fn, arg)
}

// Close releases the module.
func (m *ModuleInstance) Close(ctx context.Context) error {
	return m.module.Close(ctx)
}

// Package shell embeds the mvdan.cc/sh POSIX shell interpreter as a bridge engine.
//
// Modules are "<name>.sh" files sourced once into a persistent runner.
// Callables are the shell functions they define; a call's result is what the
// function writes to stdout, minus one trailing newline. Scripts reach host
// functions with the bridge_host builtin:
//
//	bridge_host env_get '{"name":"HOME"}'
package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	bridgeerrors "github.com/reglet-dev/hostbridge/domain/errors"
	"github.com/reglet-dev/hostbridge/domain/ports"
	"github.com/reglet-dev/hostbridge/hostfuncs"
	"github.com/reglet-dev/hostbridge/internal/searchpath"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

const (
	// Name is the engine identifier used in configuration.
	Name = "sh"
	// Extension is the module file extension.
	Extension = ".sh"
	// HostCommand is the builtin through which scripts call host functions.
	HostCommand = "bridge_host"
)

// Engine starts shell runners.
type Engine struct {
	environ []string
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEnviron replaces the environment the runner starts with.
// By default the host process environment is inherited.
func WithEnviron(env []string) EngineOption {
	return func(e *Engine) {
		e.environ = env
	}
}

// NewEngine creates a shell engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Name() string      { return Name }
func (e *Engine) Extension() string { return Extension }

// Start creates a runner whose working directory is the first search path
// that exists. Missing entries are skipped; with none the process directory is used.
func (e *Engine) Start(ctx context.Context, cfg ports.RuntimeConfig) (ports.Runtime, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()

	env := e.environ
	if env == nil {
		env = os.Environ()
	}

	rt := &Runtime{cfg: cfg}
	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, cfg.Stdout, cfg.Stderr),
		interp.ExecHandlers(rt.execHandler),
	}
	if dir, ok := firstDir(cfg.SearchPaths); ok {
		opts = append(opts, interp.Dir(dir))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create interpreter: %w", err)
	}
	rt.runner = runner
	return rt, nil
}

func firstDir(paths []string) (string, bool) {
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			return p, true
		}
	}
	return "", false
}

// Runtime is one persistent shell. It is not safe for concurrent use.
type Runtime struct {
	runner  *interp.Runner
	cfg     ports.RuntimeConfig
	current string
}

// Import parses the module file and runs it once so its functions are defined.
func (r *Runtime) Import(ctx context.Context, name string) (ports.Module, error) {
	path, ok := searchpath.Find(r.cfg.SearchPaths, name, Extension)
	if !ok {
		return nil, fmt.Errorf("%w: %s%s", bridgeerrors.ErrModuleNotFound, name, Extension)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	prog, err := syntax.NewParser().Parse(f, path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}

	r.current = name
	if err := r.runner.Run(r.callerContext(ctx), prog); err != nil {
		var status interp.ExitStatus
		if errors.As(err, &status) {
			return nil, fmt.Errorf("sourcing %s: exit status %d", path, int(status))
		}
		return nil, fmt.Errorf("sourcing %s: %w", path, err)
	}
	return &Module{rt: r, name: name, path: path}, nil
}

// Close is a no-op; the runner holds no OS resources between runs.
func (r *Runtime) Close(_ context.Context) error {
	return nil
}

func (r *Runtime) callerContext(ctx context.Context) context.Context {
	return hostfuncs.WithCaller(ctx, hostfuncs.Caller{Engine: Name, Module: r.current})
}

// execHandler serves the bridge_host builtin and passes every other command on.
func (r *Runtime) execHandler(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		if len(args) == 0 || args[0] != HostCommand {
			return next(ctx, args)
		}
		hc := interp.HandlerCtx(ctx)
		if len(args) < 2 || len(args) > 3 {
			fmt.Fprintf(hc.Stderr, "usage: %s <function> [json]\n", HostCommand)
			return interp.NewExitStatus(2)
		}
		var payload []byte
		if len(args) == 3 {
			payload = []byte(args[2])
		}
		resp, err := r.cfg.HostFunctions.Invoke(ctx, args[1], payload)
		if err != nil {
			fmt.Fprintf(hc.Stderr, "%s: %s: %v\n", HostCommand, args[1], err)
			return interp.NewExitStatus(1)
		}
		_, _ = hc.Stdout.Write(append(resp, '\n'))
		return nil
	}
}

// Module is a sourced script. Shell functions share one namespace per runtime.
type Module struct {
	rt     *Runtime
	name   string
	path   string
	closed bool
}

func (m *Module) Path() string { return m.path }

// Lookup resolves a shell function. A variable of the same name is not callable.
func (m *Module) Lookup(name string) (ports.Callable, error) {
	if m.closed {
		return nil, fmt.Errorf("module %s is closed", m.name)
	}
	if !syntax.ValidName(name) {
		return nil, fmt.Errorf("%w: %q is not a valid shell name", bridgeerrors.ErrFunctionNotFound, name)
	}
	if _, ok := m.rt.runner.Funcs[name]; ok {
		return &Callable{mod: m, name: name}, nil
	}
	if v, ok := m.rt.runner.Vars[name]; ok && v.Set {
		return nil, fmt.Errorf("%w: %s is a variable", bridgeerrors.ErrNotCallable, name)
	}
	return nil, fmt.Errorf("%w: %s has no function %s", bridgeerrors.ErrFunctionNotFound, m.name, name)
}

func (m *Module) Close(_ context.Context) error {
	m.closed = true
	return nil
}

// Callable is a shell function.
type Callable struct {
	mod  *Module
	name string
}

func (c *Callable) Name() string { return c.name }

// Call runs `name "$@"` with the argument as $1 and returns captured stdout.
func (c *Callable) Call(ctx context.Context, arg string) (string, error) {
	if c.mod.closed {
		return "", fmt.Errorf("module %s is closed", c.mod.name)
	}
	rt := c.mod.rt
	prog, err := syntax.NewParser().Parse(strings.NewReader(c.name+` "$@"`), "")
	if err != nil {
		return "", err
	}

	stdout := hostfuncs.NewBoundedBuffer(rt.cfg.MaxOutputBytes)
	stderr := hostfuncs.NewBoundedBuffer(rt.cfg.MaxOutputBytes)
	if err := rt.apply(
		interp.StdIO(nil, stdout, stderr),
		// "--" keeps arguments such as "-v" from being read as shell options.
		interp.Params("--", arg),
	); err != nil {
		return "", err
	}
	defer func() {
		_ = rt.apply(interp.StdIO(nil, rt.cfg.Stdout, rt.cfg.Stderr))
	}()

	rt.current = c.mod.name
	runErr := rt.runner.Run(rt.callerContext(ctx), prog)
	if runErr != nil {
		invErr := &bridgeerrors.InvocationError{Function: c.name, Stderr: stderr.String(), Err: runErr}
		var status interp.ExitStatus
		if errors.As(runErr, &status) {
			invErr.Status = int(status)
			invErr.Err = fmt.Errorf("exit status %d", int(status))
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			invErr.Err = ctxErr
		}
		return "", invErr
	}

	if stderr.Len() > 0 {
		_, _ = rt.cfg.Stderr.Write(stderr.Bytes())
	}
	if stdout.Truncated {
		return "", &bridgeerrors.InvocationError{
			Function: c.name,
			Err:      fmt.Errorf("output exceeds %d bytes", rt.cfg.MaxOutputBytes),
		}
	}
	return strings.TrimSuffix(stdout.String(), "\n"), nil
}

func (r *Runtime) apply(opts ...interp.RunnerOption) error {
	for _, opt := range opts {
		if err := opt(r.runner); err != nil {
			return err
		}
	}
	return nil
}

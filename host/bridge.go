package host

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/reglet-dev/hostbridge/domain/entities"
	"github.com/reglet-dev/hostbridge/domain/errors"
	"github.com/reglet-dev/hostbridge/domain/policy"
	"github.com/reglet-dev/hostbridge/domain/ports"
	"github.com/reglet-dev/hostbridge/hostfuncs"
)

// Bridge runs the embed-import-lookup-invoke flow for one configuration.
// Each Run starts a fresh runtime, so runs share no script state.
type Bridge struct {
	cfg    entities.BridgeConfig
	loader *Loader
	s      settings
}

// NewBridge creates a Bridge. The configuration is expected to be validated already.
func NewBridge(cfg entities.BridgeConfig, opts ...Option) *Bridge {
	s := newSettings(opts)
	if s.engines == nil {
		s.engines = DefaultEngines()
	}
	if cfg.MaxOutputBytes <= 0 {
		cfg.MaxOutputBytes = entities.DefaultMaxOutputBytes
	}
	return &Bridge{cfg: cfg, loader: NewLoader(s.engines), s: s}
}

// Run executes the flow and prints the outcome: the success line to stdout,
// or a diagnostic followed by a fixed failure line to stderr.
func (b *Bridge) Run(ctx context.Context) entities.Result {
	start := time.Now()
	meta := &entities.RunMetadata{Module: b.cfg.ModuleName, Function: b.cfg.FunctionName}

	value, err := b.execute(ctx, meta)

	end := time.Now()
	meta.StartTime, meta.EndTime, meta.Duration = start, end, end.Sub(start)

	if err != nil {
		code := errors.ExitCodeFor(err, b.cfg.LegacyExitCodes)
		b.s.logger.DebugContext(ctx, "bridge run failed", "error", err, "exit_code", int(code))
		if !b.s.quiet {
			fmt.Fprintln(b.s.stderr, err.Error())
			fmt.Fprintln(b.s.stderr, b.failureLine(err, meta))
		}
		return entities.ResultError(errors.ToErrorDetail(err), code).WithMetadata(meta)
	}

	if !b.s.quiet {
		fmt.Fprintf(b.s.stdout, "[+] %s: %s\n", b.cfg.ReturnLabel, value)
	}
	return entities.ResultSuccess(value).WithMetadata(meta)
}

// Call executes the flow without printing and returns the callable's result.
// Errors are the typed errors of the domain/errors package.
func (b *Bridge) Call(ctx context.Context) (string, error) {
	return b.execute(ctx, &entities.RunMetadata{})
}

func (b *Bridge) execute(ctx context.Context, meta *entities.RunMetadata) (string, error) {
	paths, err := b.cfg.ModulePaths()
	if err != nil {
		return "", &errors.ConfigError{Field: "script_path", Err: err}
	}

	engine, path, err := b.loader.Resolve(b.cfg.Engine, paths, b.cfg.ModuleName)
	if err != nil {
		return "", err
	}
	meta.WithEngine(engine.Name()).WithTarget(b.cfg.ModuleName, path, b.cfg.FunctionName)

	hostFuncs, err := b.hostFunctions()
	if err != nil {
		return "", &errors.RuntimeInitError{Engine: engine.Name(), Err: err}
	}

	exec, err := NewExecutor(ctx, engine, ports.RuntimeConfig{
		SearchPaths:    paths,
		Stdout:         b.s.scriptStdout,
		Stderr:         b.s.stderr,
		MaxOutputBytes: b.cfg.MaxOutputBytes,
	}, WithHostFunctions(hostFuncs), WithLogger(b.s.logger))
	if err != nil {
		return "", err
	}
	cleanupCtx := context.WithoutCancel(ctx)
	defer func() {
		if cerr := exec.Close(cleanupCtx); cerr != nil {
			b.s.logger.WarnContext(ctx, "failed to shut down runtime", "engine", engine.Name(), "error", cerr)
		}
	}()

	if b.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.Timeout)
		defer cancel()
	}

	mod, err := exec.LoadModule(ctx, b.cfg.ModuleName)
	if err != nil {
		var invErr *errors.InvocationError
		if stdErrors.As(err, &invErr) && invErr.Function == "" {
			invErr.Function = b.cfg.FunctionName
		}
		return "", err
	}
	defer func() {
		if cerr := mod.Close(cleanupCtx); cerr != nil {
			b.s.logger.WarnContext(ctx, "failed to release module", "module", mod.Name(), "error", cerr)
		}
	}()

	fn, err := mod.Lookup(b.cfg.FunctionName)
	if err != nil {
		return "", err
	}
	return mod.Invoke(ctx, fn, b.cfg.Argument)
}

// hostFunctions returns the configured registry, or env_get and log_message
// bound to this run's env_allow patterns and logger.
func (b *Bridge) hostFunctions() (*hostfuncs.HandlerRegistry, error) {
	if b.s.hostFuncs != nil {
		return b.s.hostFuncs, nil
	}
	env := policy.NewEnvPolicy(b.cfg.EnvAllow,
		policy.WithDenialHandler(&policy.LogDenialHandler{Logger: b.s.logger}))
	return hostfuncs.NewRegistry(
		hostfuncs.WithBundle(hostfuncs.DefaultBundles(env, b.s.logger)),
		hostfuncs.WithMiddleware(hostfuncs.PanicRecoveryMiddleware(), hostfuncs.LoggingMiddleware(b.s.logger)),
	)
}

// failureLine is the fixed message printed after a diagnostic.
func (b *Bridge) failureLine(err error, meta *entities.RunMetadata) string {
	var (
		initErr   *errors.RuntimeInitError
		loadErr   *errors.ModuleLoadError
		lookupErr *errors.FunctionLookupError
		invokeErr *errors.InvocationError
		cfgErr    *errors.ConfigError
	)
	switch {
	case stdErrors.As(err, &loadErr):
		return fmt.Sprintf("[-] Failed to load module '%s'", b.cfg.ModuleName)
	case stdErrors.As(err, &lookupErr):
		return fmt.Sprintf("[-] Cannot find function '%s'", b.cfg.FunctionName)
	case stdErrors.As(err, &invokeErr):
		return fmt.Sprintf("[-] Call to function '%s' failed", b.cfg.FunctionName)
	case stdErrors.As(err, &initErr):
		return fmt.Sprintf("[-] Failed to initialize %s runtime", initErr.Engine)
	case stdErrors.As(err, &cfgErr):
		return "[-] Invalid configuration"
	default:
		if meta.Engine != "" {
			return fmt.Sprintf("[-] Failed to initialize %s runtime", meta.Engine)
		}
		return "[-] Bridge run failed"
	}
}

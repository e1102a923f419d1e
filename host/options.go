package host

import (
	"io"
	"log/slog"

	"github.com/reglet-dev/hostbridge/domain/ports"
	"github.com/reglet-dev/hostbridge/hostfuncs"
)

type settings struct {
	engines      ports.EngineRegistry
	hostFuncs    *hostfuncs.HandlerRegistry
	stdout       io.Writer
	stderr       io.Writer
	scriptStdout io.Writer
	logger       *slog.Logger
	quiet        bool
}

// Option configures a Bridge or an Executor.
type Option func(*settings)

// WithEngines sets the engines a Bridge may embed. Defaults to DefaultEngines().
func WithEngines(r ports.EngineRegistry) Option {
	return func(s *settings) {
		s.engines = r
	}
}

// WithHostFunctions configures the host function registry scripts can call.
func WithHostFunctions(registry *hostfuncs.HandlerRegistry) Option {
	return func(s *settings) {
		s.hostFuncs = registry
	}
}

// WithStdout sets where the success line is printed.
func WithStdout(w io.Writer) Option {
	return func(s *settings) {
		s.stdout = w
	}
}

// WithStderr sets where diagnostics and failure lines are printed.
func WithStderr(w io.Writer) Option {
	return func(s *settings) {
		s.stderr = w
	}
}

// WithScriptOutput redirects what scripts print on their own. Defaults to the bridge's stdout.
func WithScriptOutput(w io.Writer) Option {
	return func(s *settings) {
		s.scriptStdout = w
	}
}

// WithLogger sets the host logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}

// WithQuiet suppresses the [+] and [-] console lines. Run still returns the Result.
func WithQuiet(quiet bool) Option {
	return func(s *settings) {
		s.quiet = quiet
	}
}

func newSettings(opts []Option) settings {
	s := settings{}
	for _, opt := range opts {
		opt(&s)
	}
	if s.stdout == nil {
		s.stdout = io.Discard
	}
	if s.stderr == nil {
		s.stderr = io.Discard
	}
	if s.scriptStdout == nil {
		s.scriptStdout = s.stdout
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

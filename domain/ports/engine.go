package ports

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/reglet-dev/hostbridge/domain/entities"
)

// HostFunctions dispatches calls from scripts to host services.
// Requests and responses are JSON documents.
type HostFunctions interface {
	// Invoke runs the named function. Unknown names yield a JSON error response, not an error.
	Invoke(ctx context.Context, name string, payload []byte) ([]byte, error)

	// Names returns the registered function names in sorted order.
	Names() []string
}

// RuntimeConfig is handed to an Engine when its runtime is started.
type RuntimeConfig struct {
	// HostFunctions are the host services scripts may call back into.
	HostFunctions HostFunctions

	// Stdout and Stderr receive output the script writes outside of a captured call.
	Stdout io.Writer
	Stderr io.Writer

	// SearchPaths is the ordered, absolute module search list.
	SearchPaths []string

	// MaxOutputBytes caps output captured from a single call.
	MaxOutputBytes int

	// Logger is the host logger engines report their own failures to.
	Logger *slog.Logger
}

// WithDefaults fills unset writers with io.Discard, an unset output cap
// with entities.DefaultMaxOutputBytes, unset host functions with an empty set
// and an unset logger with one that discards.
func (c RuntimeConfig) WithDefaults() RuntimeConfig {
	if c.HostFunctions == nil {
		c.HostFunctions = noHostFunctions{}
	}
	if c.Stdout == nil {
		c.Stdout = io.Discard
	}
	if c.Stderr == nil {
		c.Stderr = io.Discard
	}
	if c.MaxOutputBytes <= 0 {
		c.MaxOutputBytes = entities.DefaultMaxOutputBytes
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// Engine is an embeddable scripting runtime.
type Engine interface {
	// Name is the identifier used in configuration (e.g. "lua").
	Name() string

	// Extension is the module file extension including the dot (e.g. ".lua").
	Extension() string

	// Start initializes a fresh runtime. Each runtime is owned by one caller
	// and must be closed exactly once.
	Start(ctx context.Context, cfg RuntimeConfig) (Runtime, error)
}

// Runtime is a started interpreter instance.
type Runtime interface {
	// Import resolves and loads a module by name from the search paths.
	Import(ctx context.Context, name string) (Module, error)

	// Close shuts the runtime down and releases every module it loaded.
	Close(ctx context.Context) error
}

// Module is a loaded script unit.
type Module interface {
	// Path is the file the module was loaded from.
	Path() string

	// Lookup resolves a callable attribute. It returns an error wrapping
	// ErrFunctionNotFound or ErrNotCallable.
	Lookup(name string) (Callable, error)

	// Close releases the module.
	Close(ctx context.Context) error
}

// Callable takes one string and returns one string, or fails.
type Callable interface {
	Name() string
	Call(ctx context.Context, arg string) (string, error)
}

type noHostFunctions struct{}

func (noHostFunctions) Invoke(_ context.Context, name string, _ []byte) ([]byte, error) {
	return nil, fmt.Errorf("host function %q is not registered", name)
}

func (noHostFunctions) Names() []string {
	return nil
}

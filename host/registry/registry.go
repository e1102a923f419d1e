// Package registry holds the engines a bridge can embed.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/reglet-dev/hostbridge/domain/ports"
)

// registryConfig holds configuration for the Registry.
type registryConfig struct {
	strictMode bool // Fail on duplicate registrations
}

func defaultRegistryConfig() registryConfig {
	return registryConfig{
		strictMode: true,
	}
}

// RegistryOption configures a Registry instance.
type RegistryOption func(*registryConfig)

// WithStrictMode enables/disables strict mode for duplicate registrations.
// Default is true (fail on duplicates). Disable only for testing.
func WithStrictMode(enabled bool) RegistryOption {
	return func(c *registryConfig) {
		c.strictMode = enabled
	}
}

// Registry implements ports.EngineRegistry.
type Registry struct {
	config     registryConfig
	engines    sync.Map // map[string]ports.Engine
	extensions sync.Map // map[string]string, extension -> engine name
}

// NewRegistry creates a new Registry with the given options.
func NewRegistry(opts ...RegistryOption) *Registry {
	cfg := defaultRegistryConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Registry{config: cfg}
}

// Register adds an engine under its name.
func (r *Registry) Register(engine ports.Engine) error {
	name := engine.Name()
	if name == "" {
		return fmt.Errorf("engine name cannot be empty")
	}
	ext := normalizeExt(engine.Extension())
	if ext == "" {
		return fmt.Errorf("engine %q has no module extension", name)
	}
	if r.config.strictMode {
		if _, exists := r.engines.Load(name); exists {
			return fmt.Errorf("engine %q already registered", name)
		}
		if owner, exists := r.extensions.Load(ext); exists {
			return fmt.Errorf("extension %q already claimed by engine %q", ext, owner)
		}
	}

	r.engines.Store(name, engine)
	r.extensions.Store(ext, name)
	return nil
}

// Get retrieves an engine by name.
func (r *Registry) Get(name string) (ports.Engine, bool) {
	v, ok := r.engines.Load(name)
	if !ok {
		return nil, false
	}
	return v.(ports.Engine), true
}

// ForExtension returns the engine owning a module file extension.
// The leading dot is optional.
func (r *Registry) ForExtension(ext string) (ports.Engine, bool) {
	v, ok := r.extensions.Load(normalizeExt(ext))
	if !ok {
		return nil, false
	}
	return r.Get(v.(string))
}

// List returns all registered engine names, sorted.
func (r *Registry) List() []string {
	var keys []string
	r.engines.Range(func(k, _ any) bool {
		keys = append(keys, k.(string))
		return true
	})
	sort.Strings(keys)
	return keys
}

func normalizeExt(ext string) string {
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}

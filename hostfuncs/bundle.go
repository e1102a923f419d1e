package hostfuncs

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// HostFuncBundle is a pre-configured set of related host functions.
// Bundles allow registering multiple handlers at once for common use cases.
type HostFuncBundle interface {
	// Handlers returns a map of handler names to ByteHandler functions.
	Handlers() map[string]ByteHandler
}

type staticBundle struct {
	handlers map[string]ByteHandler
}

func (b *staticBundle) Handlers() map[string]ByteHandler {
	return b.handlers
}

// EnvGetRequest is the request type for env_get.
type EnvGetRequest struct {
	Name string `json:"name"`
}

// EnvGetResponse is the response type for env_get.
type EnvGetResponse struct {
	// Error is set when the lookup was refused.
	Error *ErrorResponse `json:"error,omitempty"`

	Value string `json:"value"`
	Found bool   `json:"found"`
}

// EnvPolicy decides which variables env_get may read.
type EnvPolicy interface {
	Allowed(name string) bool
}

// allowList is an EnvPolicy of exact names.
type allowList map[string]bool

func (a allowList) Allowed(name string) bool {
	return a[name]
}

// EnvBundle returns a bundle with env_get, which reads host environment
// variables named in allow. Every other name is refused.
func EnvBundle(allow []string) HostFuncBundle {
	list := make(allowList, len(allow))
	for _, name := range allow {
		list[name] = true
	}
	return EnvPolicyBundle(list)
}

// EnvPolicyBundle returns a bundle with env_get gated by p. A nil policy refuses every name.
func EnvPolicyBundle(p EnvPolicy) HostFuncBundle {
	if p == nil {
		p = allowList{}
	}
	return &staticBundle{
		handlers: map[string]ByteHandler{
			"env_get": NewJSONHandler(func(_ context.Context, req EnvGetRequest) EnvGetResponse {
				if req.Name == "" {
					errResp := NewValidationError("name is required")
					return EnvGetResponse{Error: &errResp}
				}
				if !p.Allowed(req.Name) {
					errResp := NewDeniedError("environment variable " + req.Name + " is not in env_allow")
					return EnvGetResponse{Error: &errResp}
				}
				v, ok := os.LookupEnv(req.Name)
				return EnvGetResponse{Value: v, Found: ok}
			}),
		},
	}
}

// LogMessageRequest is the request type for log_message.
type LogMessageRequest struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// LogMessageResponse is the response type for log_message.
type LogMessageResponse struct {
	Logged bool `json:"logged"`
}

// LogBundle returns a bundle with log_message, which routes script log lines
// to the host logger.
func LogBundle(logger *slog.Logger) HostFuncBundle {
	if logger == nil {
		logger = slog.Default()
	}
	return &staticBundle{
		handlers: map[string]ByteHandler{
			"log_message": NewJSONHandler(func(ctx context.Context, req LogMessageRequest) LogMessageResponse {
				attrs := []any{"source", "script"}
				if c, ok := CallerFrom(ctx); ok {
					attrs = append(attrs, "engine", c.Engine, "module", c.Module)
				}
				level := ParseLevel(req.Level)
				if !logger.Enabled(ctx, level) {
					return LogMessageResponse{}
				}
				logger.Log(ctx, level, req.Message, attrs...)
				return LogMessageResponse{Logged: true}
			}),
		},
	}
}

// ParseLevel maps a script-supplied level name to a slog level. Unknown names log at info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type compositeBundle struct {
	bundles []HostFuncBundle
}

func (b *compositeBundle) Handlers() map[string]ByteHandler {
	result := make(map[string]ByteHandler)
	for _, bundle := range b.bundles {
		for name, handler := range bundle.Handlers() {
			result[name] = handler
		}
	}
	return result
}

// DefaultBundles returns the bundles every bridge exposes: env_get and log_message.
func DefaultBundles(env EnvPolicy, logger *slog.Logger) HostFuncBundle {
	return &compositeBundle{
		bundles: []HostFuncBundle{
			EnvPolicyBundle(env),
			LogBundle(logger),
		},
	}
}

// WithBundle registers all handlers from a bundle.
func WithBundle(bundle HostFuncBundle) RegistryOption {
	return func(b *registryBuilder) {
		for name, handler := range bundle.Handlers() {
			if err := b.addHandler(name, handler); err != nil {
				b.errors = append(b.errors, err)
			}
		}
	}
}

// WithHandler registers a typed host function with automatic JSON handling.
//
// Example usage:
//
//	WithHandler("custom_func", func(ctx context.Context, req MyRequest) MyResponse {
//	    return MyResponse{Result: req.Input}
//	})
func WithHandler[Req any, Resp any](name string, fn HostFunc[Req, Resp]) RegistryOption {
	return func(b *registryBuilder) {
		if err := b.addHandler(name, NewJSONHandler(fn)); err != nil {
			b.errors = append(b.errors, err)
		}
	}
}

// Package errors provides the host bridge's error taxonomy.
// All error types support error unwrapping via errors.As() and errors.Is().
package errors

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"

	"github.com/reglet-dev/hostbridge/domain/entities"
)

// Sentinel causes wrapped by the typed errors below.
var (
	// ErrModuleNotFound means no search path holds a file for the module.
	ErrModuleNotFound = stdErrors.New("module not found")

	// ErrFunctionNotFound means the module has no attribute with the requested name.
	ErrFunctionNotFound = stdErrors.New("function not found")

	// ErrNotCallable means the attribute exists but cannot be invoked.
	ErrNotCallable = stdErrors.New("attribute is not callable")

	// ErrNoResult means the callable finished without producing a value.
	ErrNoResult = stdErrors.New("function returned no result")
)

// DetailedError is an interface for custom error types that can convert themselves
// to a structured ErrorDetail.
type DetailedError interface {
	error
	ToErrorDetail() *entities.ErrorDetail
}

// ToErrorDetail converts a Go error to our structured ErrorDetail.
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	return &entities.ErrorDetail{
		Message: err.Error(),
		Type:    entities.ErrorTypeInternal,
	}
}

// ExitCodeFor maps an error to the process exit code.
// With legacy set, lookup and invocation failures exit 0 and runtime
// initialization failures exit 1.
func ExitCodeFor(err error, legacy bool) entities.ExitCode {
	if err == nil {
		return entities.ExitSuccess
	}

	var (
		initErr   *RuntimeInitError
		loadErr   *ModuleLoadError
		lookupErr *FunctionLookupError
		invokeErr *InvocationError
		cfgErr    *ConfigError
	)
	switch {
	case stdErrors.As(err, &loadErr):
		return entities.ExitModuleLoad
	case stdErrors.As(err, &lookupErr):
		if legacy {
			return entities.ExitSuccess
		}
		return entities.ExitFunctionLookup
	case stdErrors.As(err, &invokeErr):
		if legacy {
			return entities.ExitSuccess
		}
		return entities.ExitInvocation
	case stdErrors.As(err, &initErr):
		if legacy {
			return entities.ExitModuleLoad
		}
		return entities.ExitRuntimeInit
	case stdErrors.As(err, &cfgErr):
		return entities.ExitConfig
	default:
		return entities.ExitRuntimeInit
	}
}

// RuntimeInitError represents a failure to start the embedded runtime.
type RuntimeInitError struct {
	Err    error
	Engine string
}

func (e *RuntimeInitError) Error() string {
	if e.Engine != "" {
		return fmt.Sprintf("failed to initialize %s runtime: %v", e.Engine, e.Err)
	}
	return fmt.Sprintf("failed to initialize runtime: %v", e.Err)
}

func (e *RuntimeInitError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *RuntimeInitError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: entities.ErrorTypeRuntimeInit, Code: e.Engine}
}

// ModuleLoadError represents a module that could not be resolved or imported.
type ModuleLoadError struct {
	Err        error
	Module     string
	SearchPath []string
}

func (e *ModuleLoadError) Error() string {
	if stdErrors.Is(e.Err, ErrModuleNotFound) && len(e.SearchPath) > 0 {
		return fmt.Sprintf("no module named %q (searched %s)", e.Module, strings.Join(e.SearchPath, ", "))
	}
	return fmt.Sprintf("failed to import module %q: %v", e.Module, e.Err)
}

func (e *ModuleLoadError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ModuleLoadError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{
		Message:    e.Error(),
		Type:       entities.ErrorTypeModuleLoad,
		Code:       e.Module,
		IsNotFound: stdErrors.Is(e.Err, ErrModuleNotFound),
	}
}

// FunctionLookupError represents a missing or non-callable attribute.
type FunctionLookupError struct {
	Err      error
	Module   string
	Function string
}

func (e *FunctionLookupError) Error() string {
	if e.Module != "" {
		return fmt.Sprintf("module %q has no callable %q: %v", e.Module, e.Function, e.Err)
	}
	return fmt.Sprintf("no callable %q: %v", e.Function, e.Err)
}

func (e *FunctionLookupError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *FunctionLookupError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{
		Message:    e.Error(),
		Type:       entities.ErrorTypeFunctionLookup,
		Code:       e.Function,
		IsNotFound: stdErrors.Is(e.Err, ErrFunctionNotFound),
	}
}

// InvocationError represents a callable that raised, trapped, exited non-zero
// or returned nothing.
type InvocationError struct {
	Err      error
	Function string
	// Stderr holds diagnostic output the script produced, if any.
	Stderr string
	// Status is the script's exit status for engines that have one.
	Status int
}

func (e *InvocationError) Error() string {
	msg := fmt.Sprintf("call to %q failed: %v", e.Function, e.Err)
	if e.Stderr != "" {
		msg = fmt.Sprintf("%s: %s", msg, strings.TrimSpace(e.Stderr))
	}
	return msg
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the call was cut short by its deadline.
func (e *InvocationError) Timeout() bool {
	return stdErrors.Is(e.Err, context.DeadlineExceeded)
}

// ToErrorDetail implements DetailedError.
func (e *InvocationError) ToErrorDetail() *entities.ErrorDetail {
	detail := &entities.ErrorDetail{
		Message:   e.Error(),
		Type:      entities.ErrorTypeInvocation,
		Code:      e.Function,
		IsTimeout: e.Timeout(),
	}
	if e.Status != 0 {
		detail.Details = map[string]any{"status": e.Status}
	}
	return detail
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Err   error
	Field string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config validation failed for field '%s': %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config validation failed: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ConfigError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: entities.ErrorTypeConfig, Code: e.Field}
}

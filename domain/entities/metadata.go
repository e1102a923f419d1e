package entities

import (
	"time"
)

// RunMetadata contains execution metadata for one bridge run.
type RunMetadata struct {
	// StartTime is when the runtime was started.
	StartTime time.Time `json:"start_time"`

	// EndTime is when the runtime was shut down.
	EndTime time.Time `json:"end_time"`

	// Engine is the embedded runtime that served the call.
	Engine string `json:"engine,omitempty"`

	// Module is the imported module name.
	Module string `json:"module,omitempty"`

	// ModulePath is the file the module was loaded from.
	ModulePath string `json:"module_path,omitempty"`

	// Function is the invoked callable name.
	Function string `json:"function,omitempty"`

	// Duration is the total execution time.
	Duration time.Duration `json:"duration_ns"`
}

// NewRunMetadata creates a new RunMetadata with the given start and end times.
func NewRunMetadata(start, end time.Time) *RunMetadata {
	return &RunMetadata{
		StartTime: start,
		EndTime:   end,
		Duration:  end.Sub(start),
	}
}

// WithEngine sets the engine name and returns the same RunMetadata.
func (m *RunMetadata) WithEngine(engine string) *RunMetadata {
	m.Engine = engine
	return m
}

// WithTarget sets the module, its file and the function, and returns the same RunMetadata.
func (m *RunMetadata) WithTarget(module, path, function string) *RunMetadata {
	m.Module = module
	m.ModulePath = path
	m.Function = function
	return m
}

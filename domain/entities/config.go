package entities

import (
	"path/filepath"
	"time"
)

// EngineAuto selects the engine by probing the search paths for a module file.
const EngineAuto = "auto"

// DefaultMaxOutputBytes caps output captured from a script call (1MB).
const DefaultMaxOutputBytes = 1 * 1024 * 1024

// BridgeConfig is the explicit configuration record passed into the bridge at startup.
// It replaces the hard-coded search path, module name, function name and argument.
type BridgeConfig struct {
	// ScriptPath is the directory appended to the runtime's module search path.
	ScriptPath string `json:"script_path" yaml:"script_path" mapstructure:"script_path" validate:"required" jsonschema:"description=Directory appended to the module search path,default=."`

	// SearchPaths are additional directories searched after ScriptPath.
	SearchPaths []string `json:"search_paths,omitempty" yaml:"search_paths,omitempty" mapstructure:"search_paths" validate:"dive,required"`

	// ModuleName is the script module to import.
	ModuleName string `json:"module" yaml:"module" mapstructure:"module" validate:"required,identifier" jsonschema:"default=py_script"`

	// FunctionName is the callable resolved from the module.
	FunctionName string `json:"function" yaml:"function" mapstructure:"function" validate:"required,identifier" jsonschema:"default=greet"`

	// Argument is the single positional string passed to the callable.
	Argument string `json:"argument" yaml:"argument" mapstructure:"argument" jsonschema:"default=Brandon"`

	// Engine names the embedded runtime, or "auto" to detect it from the module file.
	Engine string `json:"engine" yaml:"engine" mapstructure:"engine" validate:"required,engine" jsonschema:"enum=auto,enum=lua,enum=sh,enum=wasm,default=auto"`

	// Timeout bounds module import plus invocation. Zero disables the limit.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" mapstructure:"timeout" validate:"gte=0"`

	// ReturnLabel is the text printed between the success marker and the value.
	ReturnLabel string `json:"return_label" yaml:"return_label" mapstructure:"return_label" validate:"required" jsonschema:"default=Python function return"`

	// LegacyExitCodes restores exit code 0 for lookup and invocation failures.
	LegacyExitCodes bool `json:"legacy_exit_codes,omitempty" yaml:"legacy_exit_codes,omitempty" mapstructure:"legacy_exit_codes"`

	// EnvAllow lists glob patterns (e.g. "AWS_*") of environment variables scripts may read through env_get.
	EnvAllow []string `json:"env_allow,omitempty" yaml:"env_allow,omitempty" mapstructure:"env_allow"`

	// MaxOutputBytes caps output captured from a call.
	MaxOutputBytes int `json:"max_output_bytes" yaml:"max_output_bytes" mapstructure:"max_output_bytes" validate:"gt=0"`

	// Log configures the host logger.
	Log LogConfig `json:"log" yaml:"log" mapstructure:"log"`
}

// LogConfig configures host logging.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,default=warn"`
	Format string `json:"format" yaml:"format" mapstructure:"format" validate:"oneof=text json logfmt" jsonschema:"enum=text,enum=json,enum=logfmt,default=text"`
}

// DefaultBridgeConfig returns the configuration that reproduces the classic
// "py_script.greet('Brandon')" demo against the current directory.
func DefaultBridgeConfig() BridgeConfig {
	return BridgeConfig{
		ScriptPath:     ".",
		ModuleName:     "py_script",
		FunctionName:   "greet",
		Argument:       "Brandon",
		Engine:         EngineAuto,
		ReturnLabel:    "Python function return",
		MaxOutputBytes: DefaultMaxOutputBytes,
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// ModulePaths returns the module search list: ScriptPath first, then SearchPaths.
// Relative entries are made absolute against the working directory.
func (c BridgeConfig) ModulePaths() ([]string, error) {
	raw := append([]string{c.ScriptPath}, c.SearchPaths...)
	paths := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, p := range raw {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		paths = append(paths, abs)
	}
	return paths, nil
}

// Package config loads the bridge configuration from defaults, a YAML file,
// HOSTBRIDGE_* environment variables and command-line flags.
package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/reglet-dev/hostbridge/application/template"
	"github.com/reglet-dev/hostbridge/application/validation"
	"github.com/reglet-dev/hostbridge/domain/entities"
	"github.com/reglet-dev/hostbridge/domain/errors"
	"github.com/reglet-dev/hostbridge/domain/ports"
	"github.com/reglet-dev/hostbridge/infrastructure/parser"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override, e.g. HOSTBRIDGE_SCRIPT_PATH.
	EnvPrefix = "HOSTBRIDGE"
	// DefaultConfigFile is read from the working directory when no file is named.
	DefaultConfigFile = "hostbridge.yaml"
)

// LoadOptions defines explicit configuration loading inputs.
type LoadOptions struct {
	// ConfigFilePath forces loading from a specific config file when set.
	ConfigFilePath string
	// Flags holds command-line overrides. Only flags the user set take effect.
	Flags *pflag.FlagSet
	// FlagKeys maps flag names to config keys, e.g. "script-path" -> "script_path".
	FlagKeys map[string]string
	// Engines lists the engine names the "engine" key may take besides "auto".
	Engines []string
}

// Loader resolves a validated BridgeConfig.
type Loader struct {
	parser    ports.ConfigParser
	templates ports.TemplateEngine
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithTemplateEngine sets the engine config files are rendered with before parsing.
func WithTemplateEngine(e ports.TemplateEngine) LoaderOption {
	return func(l *Loader) {
		l.templates = e
	}
}

// NewLoader creates a Loader. A nil parser selects the YAML parser.
// Config files are rendered as strict Go templates over {{ .env.NAME }}.
func NewLoader(p ports.ConfigParser, opts ...LoaderOption) *Loader {
	if p == nil {
		p = parser.NewYamlConfigParser()
	}
	l := &Loader{parser: p, templates: template.NewGoTemplateEngine()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load layers defaults < file < environment < flags and validates the result.
// It returns the config and the file it read, if any.
// All failures are *errors.ConfigError.
func (l *Loader) Load(ctx context.Context, opts LoadOptions) (entities.BridgeConfig, string, error) {
	var cfg entities.BridgeConfig
	select {
	case <-ctx.Done():
		return cfg, "", &errors.ConfigError{Err: fmt.Errorf("load config canceled: %w", ctx.Err())}
	default:
	}

	v := viper.New()
	setDefaults(v, entities.DefaultBridgeConfig())

	resolvedPath, err := l.mergeFile(v, opts.ConfigFilePath)
	if err != nil {
		return cfg, "", err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		for name, key := range opts.FlagKeys {
			f := opts.Flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return cfg, "", &errors.ConfigError{Field: key, Err: fmt.Errorf("failed to bind flag --%s: %w", name, err)}
			}
		}
	}

	if err := v.UnmarshalExact(&cfg); err != nil {
		return cfg, "", &errors.ConfigError{Err: fmt.Errorf("failed to parse config: %w", err)}
	}

	if err := validation.NewValidator(opts.Engines...).Validate(cfg); err != nil {
		return cfg, "", err
	}
	return cfg, resolvedPath, nil
}

// mergeFile reads the named file, or DefaultConfigFile if it exists, into v.
func (l *Loader) mergeFile(v *viper.Viper, path string) (string, error) {
	if path == "" {
		if !fileExists(DefaultConfigFile) {
			return "", nil
		}
		path = DefaultConfigFile
	} else if !fileExists(path) {
		return "", &errors.ConfigError{Field: "config", Err: fmt.Errorf("config file not found: %s", path)}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", &errors.ConfigError{Field: "config", Err: fmt.Errorf("failed to read config file: %w", err)}
	}
	data, err = l.templates.Render(data, map[string]any{"env": environ()})
	if err != nil {
		return "", &errors.ConfigError{Field: "config", Err: fmt.Errorf("%s: %w", path, err)}
	}
	tree, err := l.parser.Parse(data)
	if err != nil {
		return "", &errors.ConfigError{Field: "config", Err: fmt.Errorf("%s: %w", path, err)}
	}
	if err := v.MergeConfigMap(tree); err != nil {
		return "", &errors.ConfigError{Field: "config", Err: fmt.Errorf("failed to merge config: %w", err)}
	}
	return path, nil
}

func setDefaults(v *viper.Viper, d entities.BridgeConfig) {
	v.SetDefault("script_path", d.ScriptPath)
	v.SetDefault("search_paths", d.SearchPaths)
	v.SetDefault("module", d.ModuleName)
	v.SetDefault("function", d.FunctionName)
	v.SetDefault("argument", d.Argument)
	v.SetDefault("engine", d.Engine)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("return_label", d.ReturnLabel)
	v.SetDefault("legacy_exit_codes", d.LegacyExitCodes)
	v.SetDefault("env_allow", d.EnvAllow)
	v.SetDefault("max_output_bytes", d.MaxOutputBytes)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

func environ() map[string]any {
	env := make(map[string]any)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

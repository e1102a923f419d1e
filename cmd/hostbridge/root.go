package main

import (
	"context"
	stdErrors "errors"
	"fmt"
	"io"

	"github.com/reglet-dev/hostbridge/application/config"
	"github.com/reglet-dev/hostbridge/domain/entities"
	"github.com/reglet-dev/hostbridge/host"
	"github.com/reglet-dev/hostbridge/host/registry"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
)

// flagKeys maps bridge flags to their config keys.
var flagKeys = map[string]string{
	"script-path":       "script_path",
	"search-path":       "search_paths",
	"module":            "module",
	"function":          "function",
	"argument":          "argument",
	"engine":            "engine",
	"timeout":           "timeout",
	"return-label":      "return_label",
	"legacy-exit-codes": "legacy_exit_codes",
	"env-allow":         "env_allow",
	"max-output-bytes":  "max_output_bytes",
	"log-level":         "log.level",
	"log-format":        "log.format",
}

// app holds what every command shares.
type app struct {
	stdout  io.Writer
	stderr  io.Writer
	engines *registry.Registry
	cfgFile string
	output  string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr, engines: host.DefaultEngines()}
	d := entities.DefaultBridgeConfig()

	root := &cobra.Command{
		Use:   "hostbridge",
		Short: "Call a script function from an embedded runtime",
		Long: TitleStyle.Render("hostbridge") + SubtitleStyle.Render(" - call a script function from an embedded runtime") + `

hostbridge starts an embedded Lua, shell or WebAssembly runtime, imports a
module from the script path and calls one function with a single string.

` + SubtitleStyle.Render("Examples:") + `
  hostbridge                              Call py_script.greet("Brandon") from .
  hostbridge --script-path ./scripts      Use another script directory
  hostbridge run --engine sh --output json
  hostbridge config show                  Print the effective configuration`,
		Version:       versionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.runBridge,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is ./"+config.DefaultConfigFile+" if present)")
	pf.String("log-level", d.Log.Level, "log level: debug, info, warn or error")
	pf.String("log-format", d.Log.Format, "log format: text, json or logfmt")
	pf.String("script-path", d.ScriptPath, "directory added to the module search path")
	pf.StringSlice("search-path", nil, "additional module directories, searched after --script-path")
	pf.String("module", d.ModuleName, "module to import")
	pf.String("function", d.FunctionName, "function to call")
	pf.String("argument", d.Argument, "string argument passed to the function")
	pf.String("engine", d.Engine, "runtime: auto, lua, sh or wasm")
	pf.Duration("timeout", d.Timeout, "bound on import plus call (0 disables)")
	pf.String("return-label", d.ReturnLabel, "label printed before the returned value")
	pf.Bool("legacy-exit-codes", d.LegacyExitCodes, "exit 0 on lookup and call failures")
	pf.StringSlice("env-allow", nil, "environment variables scripts may read through env_get")
	pf.Int("max-output-bytes", d.MaxOutputBytes, "cap on output captured from a call")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: int(entities.ExitConfig), Err: err}
	})

	addOutputFlag(root, &a.output)
	root.AddCommand(a.newRunCmd(), a.newConfigCmd(), a.newEnginesCmd(), newVersionCmd())
	return root
}

func addOutputFlag(cmd *cobra.Command, output *string) {
	cmd.Flags().StringVarP(output, "output", "o", "text", "result format: text or json")
}

// loadConfig resolves the effective configuration for cmd.
func (a *app) loadConfig(cmd *cobra.Command) (entities.BridgeConfig, error) {
	cfg, _, err := config.NewLoader(nil).Load(cmd.Context(), config.LoadOptions{
		ConfigFilePath: a.cfgFile,
		Flags:          cmd.Flags(),
		FlagKeys:       flagKeys,
		Engines:        a.engines.List(),
	})
	return cfg, err
}

func versionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// execute runs the CLI and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if stdErrors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintln(stderr, ErrorStyle.Render("Error:"), exitErr.Err)
		}
		return exitErr.Code
	}
	fmt.Fprintln(stderr, ErrorStyle.Render("Error:"), err)
	return 1
}

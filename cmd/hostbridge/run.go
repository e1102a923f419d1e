package main

import (
	"encoding/json"
	"fmt"

	"github.com/reglet-dev/hostbridge/domain/entities"
	"github.com/reglet-dev/hostbridge/host"
	"github.com/reglet-dev/hostbridge/log"
	"github.com/spf13/cobra"
)

func (a *app) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Import the module and call the function (default command)",
		Args:  cobra.NoArgs,
		RunE:  a.runBridge,
	}
	addOutputFlag(cmd, &a.output)
	return cmd
}

func (a *app) runBridge(cmd *cobra.Command, _ []string) error {
	jsonOutput := false
	switch a.output {
	case "text":
	case "json":
		jsonOutput = true
	default:
		return &ExitError{Code: int(entities.ExitConfig), Err: fmt.Errorf("unknown output format %q (want text or json)", a.output)}
	}

	cfg, err := a.loadConfig(cmd)
	if err != nil {
		fmt.Fprintln(a.stderr, err.Error())
		fmt.Fprintln(a.stderr, "[-] Invalid configuration")
		return &ExitError{Code: int(entities.ExitConfig)}
	}

	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return &ExitError{Code: int(entities.ExitConfig), Err: err}
	}
	logger, err := log.New(log.WithLevel(level), log.WithFormat(cfg.Log.Format), log.WithOutput(a.stderr))
	if err != nil {
		return &ExitError{Code: int(entities.ExitConfig), Err: err}
	}

	opts := []host.Option{
		host.WithEngines(a.engines),
		host.WithLogger(logger),
		host.WithStdout(a.stdout),
		host.WithStderr(a.stderr),
	}
	if jsonOutput {
		// Keep stdout a single JSON document.
		opts = append(opts, host.WithQuiet(true), host.WithScriptOutput(a.stderr))
	}

	res := host.NewBridge(cfg, opts...).Run(cmd.Context())

	if jsonOutput {
		if res.Error != nil {
			logger.ErrorContext(cmd.Context(), "bridge run failed", "error", res.Error.Message, "exit_code", int(res.ExitCode))
		}
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
	}

	if res.ExitCode != entities.ExitSuccess {
		return &ExitError{Code: int(res.ExitCode)}
	}
	return nil
}

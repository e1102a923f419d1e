// Package host embeds a scripting runtime and drives a single call into it.
//
// A Bridge resolves the configured module to an engine (lua, sh or wasm),
// starts that engine's runtime through an Executor, imports the module,
// looks up the callable, invokes it with one string argument and reports
// the result. The runtime and every reference taken from it are released on
// all paths, including early failures.
//
//	bridge := host.NewBridge(cfg,
//	    host.WithStdout(os.Stdout),
//	    host.WithStderr(os.Stderr),
//	)
//	result := bridge.Run(ctx)
//	os.Exit(int(result.ExitCode))
package host

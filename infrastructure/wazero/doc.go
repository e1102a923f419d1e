// Package wazero embeds the wazero WebAssembly runtime as a bridge engine and
// exposes host functions to guests.
//
// Guests follow a packed pointer/length ABI:
//
//   - The guest exports "memory" and "allocate(size i32) -> ptr i32".
//   - A callable export has the signature (ptr i32, len i32) -> i64. The
//     argument is written into memory obtained from allocate; the result
//     packs the output pointer in the upper 32 bits and its length in the
//     lower 32 bits. Zero means no result.
//   - Host functions are imported from the "bridge_host" module. Each takes
//     and returns one packed i64 holding a JSON document.
//
// # Registering host functions directly
//
//	registry, err := hostfuncs.NewRegistry(
//	    hostfuncs.WithBundle(hostfuncs.DefaultBundles(policy, logger)),
//	)
//	if err != nil {
//	    return err
//	}
//	runtime := wazero.NewRuntime(ctx)
//	err = wazero.RegisterWithRuntime(ctx, runtime, registry, wazero.WithLogger(logger))
package wazero

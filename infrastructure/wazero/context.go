package wazero

import (
	"context"

	"github.com/reglet-dev/hostbridge/hostfuncs"
	"github.com/tetratelabs/wazero/api"
)

// withModuleCaller records the calling guest on ctx unless the engine already did.
// The module's instance name is used as the module identity.
func withModuleCaller(ctx context.Context, engine string, mod api.Module) context.Context {
	if _, ok := hostfuncs.CallerFrom(ctx); ok {
		return ctx
	}
	return hostfuncs.WithCaller(ctx, hostfuncs.Caller{Engine: engine, Module: mod.Name()})
}

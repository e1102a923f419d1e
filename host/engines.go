package host

import (
	"github.com/reglet-dev/hostbridge/domain/ports"
	"github.com/reglet-dev/hostbridge/host/registry"
	"github.com/reglet-dev/hostbridge/infrastructure/lua"
	"github.com/reglet-dev/hostbridge/infrastructure/shell"
	"github.com/reglet-dev/hostbridge/infrastructure/wazero"
)

// DefaultEngines returns a registry holding the lua, sh and wasm engines.
func DefaultEngines() *registry.Registry {
	r := registry.NewRegistry()
	for _, e := range []ports.Engine{
		lua.NewEngine(),
		shell.NewEngine(),
		wazero.NewEngine(),
	} {
		// Names and extensions are distinct constants.
		if err := r.Register(e); err != nil {
			panic(err)
		}
	}
	return r
}

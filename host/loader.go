package host

import (
	"fmt"

	"github.com/reglet-dev/hostbridge/domain/entities"
	"github.com/reglet-dev/hostbridge/domain/errors"
	"github.com/reglet-dev/hostbridge/domain/ports"
	"github.com/reglet-dev/hostbridge/internal/searchpath"
)

// Loader maps a module name to the engine that can import it.
type Loader struct {
	engines ports.EngineRegistry
}

// NewLoader creates a Loader over the given engines.
func NewLoader(engines ports.EngineRegistry) *Loader {
	return &Loader{engines: engines}
}

// Resolve finds the engine and file for module.
//
// With engineName "auto", each search path is scanned in order and, within a
// path, each engine in name order; the first "<module><ext>" found wins.
// With an explicit engine only its extension is considered.
func (l *Loader) Resolve(engineName string, searchPaths []string, module string) (ports.Engine, string, error) {
	if err := searchpath.ValidateModuleName(module); err != nil {
		return nil, "", &errors.ModuleLoadError{Module: module, Err: err}
	}

	if engineName != "" && engineName != entities.EngineAuto {
		engine, ok := l.engines.Get(engineName)
		if !ok {
			return nil, "", &errors.ConfigError{
				Field: "engine",
				Err:   fmt.Errorf("unknown engine %q (available: %v)", engineName, l.engines.List()),
			}
		}
		path, ok := searchpath.Find(searchPaths, module, engine.Extension())
		if !ok {
			return nil, "", notFound(module, searchPaths)
		}
		return engine, path, nil
	}

	names := l.engines.List()
	for _, dir := range searchPaths {
		for _, name := range names {
			engine, _ := l.engines.Get(name)
			if path, ok := searchpath.In(dir, module, engine.Extension()); ok {
				return engine, path, nil
			}
		}
	}
	return nil, "", notFound(module, searchPaths)
}

func notFound(module string, searchPaths []string) error {
	return &errors.ModuleLoadError{Module: module, SearchPath: searchPaths, Err: errors.ErrModuleNotFound}
}

package host_test

import (
	"context"
	"fmt"

	"github.com/reglet-dev/hostbridge/domain/errors"
	"github.com/reglet-dev/hostbridge/domain/ports"
)

// fakeEngine records lifecycle calls so tests can check teardown symmetry.
type fakeEngine struct {
	startErr  error
	importErr error
	calls     []string
	// started is the config the runtime was started with.
	started ports.RuntimeConfig
}

func (f *fakeEngine) Name() string      { return "fake" }
func (f *fakeEngine) Extension() string { return ".fake" }

func (f *fakeEngine) Start(_ context.Context, cfg ports.RuntimeConfig) (ports.Runtime, error) {
	f.calls = append(f.calls, "start")
	f.started = cfg
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &fakeRuntime{e: f}, nil
}

type fakeRuntime struct{ e *fakeEngine }

func (r *fakeRuntime) Import(_ context.Context, name string) (ports.Module, error) {
	r.e.calls = append(r.e.calls, "import:"+name)
	if r.e.importErr != nil {
		return nil, r.e.importErr
	}
	return &fakeModule{e: r.e}, nil
}

func (r *fakeRuntime) Close(context.Context) error {
	r.e.calls = append(r.e.calls, "close-runtime")
	return nil
}

type fakeModule struct{ e *fakeEngine }

func (m *fakeModule) Path() string { return "/fake/module.fake" }

func (m *fakeModule) Lookup(name string) (ports.Callable, error) {
	m.e.calls = append(m.e.calls, "lookup:"+name)
	if name != "greet" {
		return nil, fmt.Errorf("%w: %s", errors.ErrFunctionNotFound, name)
	}
	return fakeCallable{}, nil
}

func (m *fakeModule) Close(context.Context) error {
	m.e.calls = append(m.e.calls, "close-module")
	return nil
}

type fakeCallable struct{}

func (fakeCallable) Name() string { return "greet" }

func (fakeCallable) Call(_ context.Context, arg string) (string, error) {
	return "fake " + arg, nil
}

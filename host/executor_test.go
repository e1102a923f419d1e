package host_test

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"testing"
	"time"

	"github.com/reglet-dev/hostbridge/domain/errors"
	"github.com/reglet-dev/hostbridge/domain/ports"
	"github.com/reglet-dev/hostbridge/host"
	"github.com/reglet-dev/hostbridge/infrastructure/lua"
	"github.com/reglet-dev/hostbridge/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExecutor(t *testing.T) {
	ctx := context.Background()
	e, err := host.NewExecutor(ctx, lua.NewEngine(), ports.RuntimeConfig{SearchPaths: []string{t.TempDir()}})
	require.NoError(t, err)
	assert.Equal(t, "lua", e.Engine().Name())

	assert.NoError(t, e.Close(ctx))
	assert.NoError(t, e.Close(ctx), "second close is a no-op")
}

func TestNewExecutor_StartFailure(t *testing.T) {
	_, err := host.NewExecutor(context.Background(), &fakeEngine{startErr: stdErrors.New("boom")}, ports.RuntimeConfig{})

	var initErr *errors.RuntimeInitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, "fake", initErr.Engine)
}

func TestExecutor_LoadAndCall(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	var f testutil.Fixture
	for _, fx := range testutil.Fixtures() {
		if fx.Engine == lua.Name {
			f = fx
		}
	}
	testutil.WriteModule(t, dir, "greeter", f)

	e, err := host.NewExecutor(ctx, lua.NewEngine(), ports.RuntimeConfig{SearchPaths: []string{dir}})
	require.NoError(t, err)
	defer e.Close(ctx)

	mod, err := e.LoadModule(ctx, "greeter")
	require.NoError(t, err)
	assert.Equal(t, "greeter", mod.Name())
	assert.Contains(t, mod.Path(), "greeter.lua")

	out, err := mod.Call(ctx, "greet", "Brandon")
	require.NoError(t, err)
	assert.Equal(t, "Hello, Brandon!", out)

	_, err = mod.Call(ctx, "missing", "Brandon")
	var lookupErr *errors.FunctionLookupError
	require.ErrorAs(t, err, &lookupErr)
	assert.Equal(t, "greeter", lookupErr.Module)

	_, err = mod.Call(ctx, f.Failing, "Brandon")
	var invokeErr *errors.InvocationError
	require.ErrorAs(t, err, &invokeErr)
	assert.Equal(t, f.Failing, invokeErr.Function)

	require.NoError(t, mod.Close(ctx))
}

func TestExecutor_LoadModuleErrors(t *testing.T) {
	ctx := context.Background()
	e, err := host.NewExecutor(ctx, lua.NewEngine(), ports.RuntimeConfig{SearchPaths: []string{t.TempDir()}})
	require.NoError(t, err)

	t.Run("invalid name", func(t *testing.T) {
		_, err := e.LoadModule(ctx, "../etc/passwd")
		var loadErr *errors.ModuleLoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Contains(t, err.Error(), "not an identifier")
	})

	t.Run("missing module", func(t *testing.T) {
		_, err := e.LoadModule(ctx, "absent")
		assert.ErrorIs(t, err, errors.ErrModuleNotFound)
	})

	t.Run("closed runtime", func(t *testing.T) {
		require.NoError(t, e.Close(ctx))
		_, err := e.LoadModule(ctx, "absent")
		var loadErr *errors.ModuleLoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Contains(t, err.Error(), "closed")
	})
}

func TestExecutor_PassesLogger(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	engine := &fakeEngine{}
	e, err := host.NewExecutor(context.Background(), engine, ports.RuntimeConfig{}, host.WithLogger(logger))
	require.NoError(t, err)
	defer e.Close(context.Background())

	assert.Same(t, logger, engine.started.Logger)
}

func TestExecutor_LoadModuleTimeout(t *testing.T) {
	engine := &fakeEngine{importErr: stdErrors.New("interrupted")}
	e, err := host.NewExecutor(context.Background(), engine, ports.RuntimeConfig{})
	require.NoError(t, err)
	defer e.Close(context.Background())

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	_, err = e.LoadModule(ctx, "py_script")

	var invErr *errors.InvocationError
	require.ErrorAs(t, err, &invErr)
	assert.True(t, invErr.Timeout())
	assert.Contains(t, err.Error(), `importing module "py_script"`)

	canceled, cancelNow := context.WithCancel(context.Background())
	cancelNow()
	_, err = e.LoadModule(canceled, "py_script")
	var loadErr *errors.ModuleLoadError
	require.ErrorAs(t, err, &loadErr, "cancellation without a deadline stays a load failure")
}

package wazero

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/reglet-dev/hostbridge/hostfuncs"
	"github.com/reglet-dev/hostbridge/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

func TestDefaultAdapterConfig(t *testing.T) {
	cfg := defaultAdapterConfig()

	assert.Equal(t, "wasm", cfg.EngineName)
	assert.Equal(t, uint32(hostfuncs.DefaultMaxRequestSize), cfg.MaxRequestSize)
	assert.NotNil(t, cfg.Logger)
}

func TestAdapterOptions(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	cfg := defaultAdapterConfig()
	WithEngineName("custom_engine")(&cfg)
	WithMaxRequestSize(2048)(&cfg)
	WithLogger(logger)(&cfg)

	assert.Equal(t, "custom_engine", cfg.EngineName)
	assert.Equal(t, uint32(2048), cfg.MaxRequestSize)
	assert.Same(t, logger, cfg.Logger)

	WithMaxRequestSize(0)(&cfg)
	WithLogger(nil)(&cfg)
	assert.Equal(t, uint32(2048), cfg.MaxRequestSize, "zero keeps the current limit")
	assert.Same(t, logger, cfg.Logger)
}

func TestPackUnpackPtrLen(t *testing.T) {
	tests := []struct {
		ptr    uint32
		length uint32
	}{
		{0, 0},
		{1, 1},
		{0xFFFFFFFF, 0xFFFFFFFF},
		{0x12345678, 0x9ABCDEF0},
		{100, 50},
	}

	for _, tt := range tests {
		packed := packPtrLen(tt.ptr, tt.length)
		gotPtr, gotLen := unpackPtrLen(packed)
		assert.Equal(t, tt.ptr, gotPtr, "ptr of %x", packed)
		assert.Equal(t, tt.length, gotLen, "len of %x", packed)
	}
}

// instantiateHostCaller registers reg in a fresh runtime and instantiates a
// guest importing bridge_host.env_get.
func instantiateHostCaller(t *testing.T, reg *hostfuncs.HandlerRegistry, opts ...AdapterOption) api.Module {
	t.Helper()
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { _ = rt.Close(ctx) })

	require.NoError(t, RegisterWithRuntime(ctx, rt, reg, opts...))
	mod, err := rt.InstantiateWithConfig(ctx, testutil.HostCallWasm, wazero.NewModuleConfig().WithName("guest"))
	require.NoError(t, err)
	return mod
}

// callEnv sends request through the guest's env export and returns the host reply.
func callEnv(t *testing.T, mod api.Module, request string) string {
	t.Helper()
	ctx := context.Background()

	ptr, err := writeGuest(ctx, mod, []byte(request))
	require.NoError(t, err)
	results, err := mod.ExportedFunction("env").Call(ctx, uint64(ptr), uint64(len(request)))
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotZero(t, results[0], "host returned no response")

	outPtr, outLen := unpackPtrLen(results[0])
	data, ok := mod.Memory().Read(outPtr, outLen)
	require.True(t, ok)
	return string(data)
}

func TestRegisterWithRuntime(t *testing.T) {
	t.Setenv("HOSTBRIDGE_WASM_ADAPTER", "from host")

	var seen hostfuncs.Caller
	reg, err := hostfuncs.NewRegistry(
		hostfuncs.WithBundle(hostfuncs.EnvBundle([]string{"HOSTBRIDGE_WASM_ADAPTER"})),
		hostfuncs.WithMiddleware(func(next hostfuncs.ByteHandler) hostfuncs.ByteHandler {
			return func(ctx context.Context, payload []byte) ([]byte, error) {
				seen, _ = hostfuncs.CallerFrom(ctx)
				return next(ctx, payload)
			}
		}),
	)
	require.NoError(t, err)

	mod := instantiateHostCaller(t, reg)

	out := callEnv(t, mod, `{"name":"HOSTBRIDGE_WASM_ADAPTER"}`)
	assert.JSONEq(t, `{"value":"from host","found":true}`, out)
	assert.Equal(t, hostfuncs.Caller{Engine: "wasm", Module: "guest"}, seen)

	out = callEnv(t, mod, `{"name":"HOME"}`)
	assert.Contains(t, out, "DENIED")

	out = callEnv(t, mod, `not json`)
	assert.Contains(t, out, "VALIDATION_ERROR")
}

func TestRegisterWithRuntime_RequestTooLarge(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	reg, err := hostfuncs.NewRegistry(hostfuncs.WithBundle(hostfuncs.EnvBundle(nil)))
	require.NoError(t, err)

	mod := instantiateHostCaller(t, reg, WithMaxRequestSize(8), WithLogger(logger))

	out := callEnv(t, mod, `{"name":"HOSTBRIDGE_WASM_ADAPTER"}`)
	assert.Contains(t, out, "VALIDATION_ERROR")
	assert.Contains(t, out, "exceeds maximum 8 bytes")
	assert.Contains(t, logs.String(), "exceeds maximum 8 bytes")
	assert.Contains(t, logs.String(), "function=env_get")
}

func TestRegisterWithRuntime_NilRegistry(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	require.NoError(t, RegisterWithRuntime(ctx, rt, nil))
	assert.NotNil(t, rt.Module(HostModuleName))

	_, err := rt.Instantiate(ctx, testutil.HostCallWasm)
	require.Error(t, err, "an empty host module exports no env_get")
}

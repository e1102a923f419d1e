package entities

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultSuccess(t *testing.T) {
	result := ResultSuccess("Hello, Brandon!")

	assert.Equal(t, ResultStatusSuccess, result.Status)
	assert.Equal(t, "Hello, Brandon!", result.Value)
	assert.Equal(t, ExitSuccess, result.ExitCode)
	assert.Nil(t, result.Error)
	assert.True(t, result.IsSuccess())
	assert.False(t, result.IsError())
}

func TestResultError(t *testing.T) {
	err := NewErrorDetail(ErrorTypeInvocation, "greet raised").WithCode("greet")
	result := ResultError(err, ExitInvocation)

	assert.Equal(t, ResultStatusError, result.Status)
	assert.Empty(t, result.Value)
	require.NotNil(t, result.Error)
	assert.Equal(t, "greet", result.Error.Code)
	assert.Equal(t, ErrorTypeInvocation, result.Error.Type)
	assert.Equal(t, ExitInvocation, result.ExitCode)
	assert.False(t, result.IsSuccess())
	assert.True(t, result.IsError())
}

func TestResult_WithMetadata(t *testing.T) {
	start := time.Now()
	end := start.Add(100 * time.Millisecond)
	meta := NewRunMetadata(start, end).
		WithEngine("lua").
		WithTarget("py_script", "/scripts/py_script.lua", "greet")

	result := ResultSuccess("test").WithMetadata(meta)

	require.NotNil(t, result.Metadata)
	assert.Equal(t, start, result.Metadata.StartTime)
	assert.Equal(t, end, result.Metadata.EndTime)
	assert.Equal(t, 100*time.Millisecond, result.Metadata.Duration)
	assert.Equal(t, "lua", result.Metadata.Engine)
	assert.Equal(t, "py_script", result.Metadata.Module)
	assert.Equal(t, "greet", result.Metadata.Function)
}

func TestNewRunMetadata(t *testing.T) {
	start := time.Date(2026, 1, 20, 10, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 20, 10, 0, 5, 0, time.UTC)

	meta := NewRunMetadata(start, end)

	assert.Equal(t, start, meta.StartTime)
	assert.Equal(t, end, meta.EndTime)
	assert.Equal(t, 5*time.Second, meta.Duration)
}

func TestErrorDetail_Error(t *testing.T) {
	err := NewErrorDetail("module_load", "no such module")
	assert.Equal(t, "module_load: no such module", err.Error())

	internal := NewErrorDetail(ErrorTypeInternal, "boom").WithCode("E1")
	assert.Equal(t, "boom [E1]", internal.Error())

	var nilDetail *ErrorDetail
	assert.Equal(t, "", nilDetail.Error())
}

func TestErrorDetail_Wrapped(t *testing.T) {
	err := NewErrorDetail(ErrorTypeInvocation, "call failed")
	err.Wrapped = NewErrorDetail(ErrorTypeInternal, "trap")

	assert.Equal(t, "invocation: call failed: trap", err.Error())
}

func TestErrorDetail_WithDetails(t *testing.T) {
	details := map[string]any{"status": 3}
	err := NewErrorDetail(ErrorTypeInvocation, "exit status 3").WithDetails(details)

	assert.Equal(t, details, err.Details)
}

func TestExitCode_String(t *testing.T) {
	assert.Equal(t, "success", ExitSuccess.String())
	assert.Equal(t, "module_load", ExitModuleLoad.String())
	assert.Equal(t, "function_lookup", ExitFunctionLookup.String())
	assert.Equal(t, "invocation", ExitInvocation.String())
	assert.Equal(t, "runtime_init", ExitRuntimeInit.String())
	assert.Equal(t, "config", ExitConfig.String())
	assert.Equal(t, "unknown", ExitCode(42).String())
}

func TestDefaultBridgeConfig(t *testing.T) {
	cfg := DefaultBridgeConfig()

	assert.Equal(t, ".", cfg.ScriptPath)
	assert.Equal(t, "py_script", cfg.ModuleName)
	assert.Equal(t, "greet", cfg.FunctionName)
	assert.Equal(t, "Brandon", cfg.Argument)
	assert.Equal(t, EngineAuto, cfg.Engine)
	assert.Equal(t, "Python function return", cfg.ReturnLabel)
	assert.False(t, cfg.LegacyExitCodes)
	assert.Equal(t, DefaultMaxOutputBytes, cfg.MaxOutputBytes)
}

func TestBridgeConfig_ModulePaths(t *testing.T) {
	dir := t.TempDir()
	other := t.TempDir()

	cfg := DefaultBridgeConfig()
	cfg.ScriptPath = dir
	cfg.SearchPaths = []string{other, dir}

	paths, err := cfg.ModulePaths()
	require.NoError(t, err)
	assert.Equal(t, []string{dir, other}, paths)
}

func TestBridgeConfig_ModulePaths_Relative(t *testing.T) {
	cfg := DefaultBridgeConfig()
	cfg.ScriptPath = "scripts"

	paths, err := cfg.ModulePaths()
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.True(t, filepath.IsAbs(paths[0]))
	assert.Equal(t, "scripts", filepath.Base(paths[0]))
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/reglet-dev/hostbridge/domain/entities"
	"github.com/reglet-dev/hostbridge/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

// scriptDir writes every fixture into a fresh directory under its engine name.
func scriptDir(t *testing.T) string {
	t.Helper()
	t.Chdir(t.TempDir())
	dir := t.TempDir()
	for _, f := range testutil.Fixtures() {
		testutil.WriteModule(t, dir, "py_script", f)
	}
	return dir
}

func TestRun_Success(t *testing.T) {
	dir := scriptDir(t)

	for _, args := range [][]string{
		{"--script-path", dir},
		{"run", "--script-path", dir},
		{"run", "--script-path", dir, "--engine", "lua"},
	} {
		code, stdout, stderr := run(t, args...)
		assert.Equal(t, 0, code, args)
		assert.Equal(t, "[+] Python function return: Hello, Brandon!\n", stdout)
		assert.Empty(t, stderr)
	}
}

func TestRun_EachEngine(t *testing.T) {
	dir := scriptDir(t)

	for _, f := range testutil.Fixtures() {
		t.Run(f.Engine, func(t *testing.T) {
			code, stdout, _ := run(t, "--script-path", dir, "--engine", f.Engine)
			assert.Equal(t, 0, code)
			assert.Equal(t, "[+] Python function return: "+f.Greeting+"\n", stdout)
		})
	}
}

func TestRun_Failures(t *testing.T) {
	dir := scriptDir(t)

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantLine string
	}{
		{
			name:     "module not found",
			args:     []string{"--module", "absent"},
			wantCode: 1,
			wantLine: "[-] Failed to load module 'absent'",
		},
		{
			name:     "function not found",
			args:     []string{"--function", "missing"},
			wantCode: 2,
			wantLine: "[-] Cannot find function 'missing'",
		},
		{
			name:     "function not found legacy",
			args:     []string{"--function", "missing", "--legacy-exit-codes"},
			wantCode: 0,
			wantLine: "[-] Cannot find function 'missing'",
		},
		{
			name:     "function raises",
			args:     []string{"--function", "boom", "--engine", "lua"},
			wantCode: 3,
			wantLine: "[-] Call to function 'boom' failed",
		},
		{
			name:     "unknown engine",
			args:     []string{"--engine", "python"},
			wantCode: 5,
			wantLine: "[-] Invalid configuration",
		},
		{
			name:     "invalid module name",
			args:     []string{"--module", "py-script"},
			wantCode: 5,
			wantLine: "[-] Invalid configuration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := run(t, append([]string{"--script-path", dir}, tt.args...)...)
			assert.Equal(t, tt.wantCode, code)
			assert.Empty(t, stdout)
			assert.True(t, strings.HasSuffix(stderr, tt.wantLine+"\n"), stderr)
		})
	}
}

func TestRun_BadFlag(t *testing.T) {
	code, _, stderr := run(t, "--timeout", "soon")
	assert.Equal(t, int(entities.ExitConfig), code)
	assert.Contains(t, stderr, "Error:")
}

func TestRun_JSONOutput(t *testing.T) {
	dir := scriptDir(t)

	code, stdout, _ := run(t, "run", "--script-path", dir, "--engine", "sh", "-o", "json")
	require.Equal(t, 0, code)

	var res entities.Result
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.Equal(t, entities.ResultStatusSuccess, res.Status)
	assert.Equal(t, "Hello, Brandon!", res.Value)
	require.NotNil(t, res.Metadata)
	assert.Equal(t, "sh", res.Metadata.Engine)

	code, stdout, stderr := run(t, "run", "--script-path", dir, "--function", "missing", "-o", "json")
	assert.Equal(t, 2, code)
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.Equal(t, entities.ResultStatusError, res.Status)
	assert.Equal(t, entities.ErrorTypeFunctionLookup, res.Error.Type)
	assert.NotContains(t, stderr, "[-]")
	assert.Contains(t, stderr, "bridge run failed")

	code, _, _ = run(t, "run", "-o", "xml")
	assert.Equal(t, int(entities.ExitConfig), code)
}

func TestRun_ConfigFile(t *testing.T) {
	dir := scriptDir(t)
	cfgPath := filepath.Join(t.TempDir(), "bridge.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("script_path: "+dir+"\nargument: World\nengine: lua\n"), 0o644))

	code, stdout, _ := run(t, "--config", cfgPath)
	assert.Equal(t, 0, code)
	assert.Equal(t, "[+] Python function return: Hello, World!\n", stdout)

	code, stdout, _ = run(t, "--config", cfgPath, "--argument", "Flag")
	assert.Equal(t, 0, code)
	assert.Equal(t, "[+] Python function return: Hello, Flag!\n", stdout)
}

func TestConfigShow(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOSTBRIDGE_ARGUMENT", "FromEnv")

	code, stdout, _ := run(t, "config", "show", "--module", "other")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "module: other\n")
	assert.Contains(t, stdout, "argument: FromEnv\n")
	assert.Contains(t, stdout, "return_label: Python function return\n")

	code, _, stderr := run(t, "config", "show", "--engine", "python")
	assert.Equal(t, int(entities.ExitConfig), code)
	assert.Contains(t, stderr, "unknown engine")
}

func TestConfigSchema(t *testing.T) {
	code, stdout, _ := run(t, "config", "schema")
	require.Equal(t, 0, code)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	assert.Contains(t, doc, "properties")
}

func TestEngines(t *testing.T) {
	code, stdout, _ := run(t, "engines")
	require.Equal(t, 0, code)
	for _, s := range []string{"lua", "*.lua", "sh", "*.sh", "wasm", "*.wasm"} {
		assert.Contains(t, stdout, s)
	}
}

func TestVersion(t *testing.T) {
	code, stdout, _ := run(t, "version")
	require.Equal(t, 0, code)
	assert.Equal(t, "hostbridge dev (built from source)\n", stdout)
}

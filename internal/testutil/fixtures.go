// Package testutil provides script fixtures shared by engine and bridge tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Fixture is a greeter module for one engine.
type Fixture struct {
	// Engine is the engine name ("lua", "sh", "wasm").
	Engine string
	// Extension is the module file extension.
	Extension string
	// Source is the module file content.
	Source []byte
	// Greeting is what greet("Brandon") returns.
	Greeting string
	// Failing names a callable that raises, exits non-zero or traps.
	Failing string
	// NotCallable names an attribute that exists but cannot be invoked.
	NotCallable string
	// Loop names a callable that never returns.
	Loop string
}

const luaGreeter = `local M = {}
M.version = 1

function M.greet(name)
  return "Hello, " .. name .. "!"
end

function M.boom(name)
  error("boom: " .. name)
end

function M.spin(name)
  while true do end
end

return M
`

const shGreeter = `version=1

greet() {
	printf 'Hello, %s!\n' "$1"
}

boom() {
	echo "boom: $1" >&2
	return 3
}

spin() {
	while true; do :; done
}
`

// EchoWasm is a hand-assembled module exporting:
//
//	memory               one page
//	allocate(i32) i32    always returns 1024
//	greet(i32, i32) i64  returns its input pointer and length packed
//	fail(i32, i32) i64   traps
//	null(i32, i32) i64   returns 0
//	spin(i32, i32) i64   loops forever
var EchoWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	// type: (i32) -> i32, (i32, i32) -> i64
	0x01, 0x0c, 0x02,
	0x60, 0x01, 0x7f, 0x01, 0x7f,
	0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7e,
	// function
	0x03, 0x06, 0x05, 0x00, 0x01, 0x01, 0x01, 0x01,
	// memory: min 1 page
	0x05, 0x03, 0x01, 0x00, 0x01,
	// export
	0x07, 0x32, 0x06,
	0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
	0x08, 'a', 'l', 'l', 'o', 'c', 'a', 't', 'e', 0x00, 0x00,
	0x05, 'g', 'r', 'e', 'e', 't', 0x00, 0x01,
	0x04, 'f', 'a', 'i', 'l', 0x00, 0x02,
	0x04, 'n', 'u', 'l', 'l', 0x00, 0x03,
	0x04, 's', 'p', 'i', 'n', 0x00, 0x04,
	// code
	0x0a, 0x26, 0x05,
	// allocate: i32.const 1024
	0x05, 0x00, 0x41, 0x80, 0x08, 0x0b,
	// greet: (i64(ptr) << 32) | i64(len)
	0x0c, 0x00, 0x20, 0x00, 0xad, 0x42, 0x20, 0x86, 0x20, 0x01, 0xad, 0x84, 0x0b,
	// fail: unreachable
	0x03, 0x00, 0x00, 0x0b,
	// null: i64.const 0
	0x04, 0x00, 0x42, 0x00, 0x0b,
	// spin: loop br 0 end unreachable
	0x08, 0x00, 0x03, 0x40, 0x0c, 0x00, 0x0b, 0x00, 0x0b,
}

// HostCallWasm is a hand-assembled module that imports bridge_host.env_get
// and exports:
//
//	memory              one page
//	allocate(i32) i32   bump allocator starting at 1024
//	env(i32, i32) i64   passes its input to env_get and returns the reply
var HostCallWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	// type: (i64) -> i64, (i32) -> i32, (i32, i32) -> i64
	0x01, 0x11, 0x03,
	0x60, 0x01, 0x7e, 0x01, 0x7e,
	0x60, 0x01, 0x7f, 0x01, 0x7f,
	0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7e,
	// import: bridge_host.env_get, type 0
	0x02, 0x17, 0x01,
	0x0b, 'b', 'r', 'i', 'd', 'g', 'e', '_', 'h', 'o', 's', 't',
	0x07, 'e', 'n', 'v', '_', 'g', 'e', 't',
	0x00, 0x00,
	// function: allocate type 1, env type 2
	0x03, 0x03, 0x02, 0x01, 0x02,
	// memory: min 1 page
	0x05, 0x03, 0x01, 0x00, 0x01,
	// global: mutable i32 heap = 1024
	0x06, 0x07, 0x01, 0x7f, 0x01, 0x41, 0x80, 0x08, 0x0b,
	// export
	0x07, 0x1b, 0x03,
	0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
	0x08, 'a', 'l', 'l', 'o', 'c', 'a', 't', 'e', 0x00, 0x01,
	0x03, 'e', 'n', 'v', 0x00, 0x02,
	// code
	0x0a, 0x1c, 0x02,
	// allocate: old heap, heap += n
	0x0b, 0x00, 0x23, 0x00, 0x23, 0x00, 0x20, 0x00, 0x6a, 0x24, 0x00, 0x0b,
	// env: env_get((i64(ptr) << 32) | i64(len))
	0x0e, 0x00, 0x20, 0x00, 0xad, 0x42, 0x20, 0x86, 0x20, 0x01, 0xad, 0x84, 0x10, 0x00, 0x0b,
}

// Fixtures returns one greeter fixture per built-in engine.
func Fixtures() []Fixture {
	return []Fixture{
		{
			Engine: "lua", Extension: ".lua", Source: []byte(luaGreeter),
			Greeting: "Hello, Brandon!", Failing: "boom", NotCallable: "version", Loop: "spin",
		},
		{
			Engine: "sh", Extension: ".sh", Source: []byte(shGreeter),
			Greeting: "Hello, Brandon!", Failing: "boom", NotCallable: "version", Loop: "spin",
		},
		{
			Engine: "wasm", Extension: ".wasm", Source: EchoWasm,
			Greeting: "Brandon", Failing: "fail", NotCallable: "memory", Loop: "spin",
		},
	}
}

// WriteModule writes the fixture into dir as "<name><ext>" and returns the path.
func WriteModule(t testing.TB, dir, name string, f Fixture) string {
	t.Helper()
	path := filepath.Join(dir, name+f.Extension)
	require.NoError(t, os.WriteFile(path, f.Source, 0o644))
	return path
}

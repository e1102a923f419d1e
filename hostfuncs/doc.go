// Package hostfuncs provides the host services scripts can call back into.
//
// Every host function is a ByteHandler: JSON request bytes in, JSON response
// bytes out. Handlers carry no engine dependencies; each engine adapts the
// registry to its own calling convention (a wazero host module, a Lua table,
// a shell builtin).
package hostfuncs

// Package entities provides core domain entities for the host bridge.
// These are plain data types shared by the bridge, the engines and the CLI.
package entities

// Package ports defines the interfaces between the bridge and its infrastructure.
// The bridge depends on these abstractions; engines and parsers implement them.
package ports

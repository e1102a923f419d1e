// Package searchpath resolves module names against an ordered list of directories.
package searchpath

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsIdentifier reports whether name is usable as a module or function name.
func IsIdentifier(name string) bool {
	return identifier.MatchString(name)
}

// ValidateModuleName rejects names that could escape the search directories.
func ValidateModuleName(name string) error {
	if name == "" {
		return fmt.Errorf("module name is empty")
	}
	if !IsIdentifier(name) {
		return fmt.Errorf("module name %q is not an identifier", name)
	}
	return nil
}

// Find returns the first regular file named name+ext in paths.
func Find(paths []string, name, ext string) (string, bool) {
	for _, dir := range paths {
		if p, ok := In(dir, name, ext); ok {
			return p, true
		}
	}
	return "", false
}

// In reports whether dir holds a regular file named name+ext.
func In(dir, name, ext string) (string, bool) {
	p := filepath.Join(dir, name+ext)
	info, err := os.Stat(p)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return p, true
}

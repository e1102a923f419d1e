package ports

// ConfigParser parses a configuration document into a generic key/value tree.
type ConfigParser interface {
	// Parse unmarshals the document. Keys keep the document's own spelling.
	Parse(data []byte) (map[string]any, error)
}

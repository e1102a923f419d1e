package ports

// EngineRegistry holds the engines a bridge can embed.
type EngineRegistry interface {
	// Register adds an engine. Implementations may reject duplicate names.
	Register(engine Engine) error

	// Get returns the engine registered under name.
	Get(name string) (Engine, bool)

	// ForExtension returns the engine owning a module file extension.
	ForExtension(ext string) (Engine, bool)

	// List returns all registered engine names in sorted order.
	List() []string
}

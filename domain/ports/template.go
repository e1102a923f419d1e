package ports

// TemplateEngine renders a document before it is parsed.
type TemplateEngine interface {
	// Render processes raw with the provided data and returns the resolved bytes.
	Render(raw []byte, data map[string]any) ([]byte, error)
}

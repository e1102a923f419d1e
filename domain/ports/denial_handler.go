package ports

// DenialHandler is called when a policy check denies a request.
// Implementations can log, collect metrics, or take other actions.
type DenialHandler interface {
	// OnDenial is called when a request is denied.
	// kind: the resource class, e.g. "env"
	// request: the denied request, e.g. the variable name
	// reason: human-readable denial reason
	OnDenial(kind string, request any, reason string)
}

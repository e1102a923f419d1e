package entities

// ExitCode is the process exit status of a bridge run.
type ExitCode int

// Every failure class maps to its own non-zero code.
const (
	ExitSuccess        ExitCode = 0
	ExitModuleLoad     ExitCode = 1
	ExitFunctionLookup ExitCode = 2
	ExitInvocation     ExitCode = 3
	ExitRuntimeInit    ExitCode = 4
	ExitConfig         ExitCode = 5
)

// String returns a short name for the exit code.
func (c ExitCode) String() string {
	switch c {
	case ExitSuccess:
		return "success"
	case ExitModuleLoad:
		return "module_load"
	case ExitFunctionLookup:
		return "function_lookup"
	case ExitInvocation:
		return "invocation"
	case ExitRuntimeInit:
		return "runtime_init"
	case ExitConfig:
		return "config"
	default:
		return "unknown"
	}
}

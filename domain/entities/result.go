package entities

// ResultStatus represents the outcome status of a bridge run.
type ResultStatus string

const (
	// ResultStatusSuccess indicates the callable returned a value.
	ResultStatusSuccess ResultStatus = "success"

	// ResultStatusError indicates a lifecycle step failed.
	ResultStatusError ResultStatus = "error"
)

// Result is the outcome of one bridge run.
type Result struct {
	// Metadata contains execution metadata (timing, engine, module).
	Metadata *RunMetadata `json:"metadata,omitempty"`

	// Error contains structured error information if Status is Error.
	Error *ErrorDetail `json:"error,omitempty"`

	// Status indicates whether the call succeeded.
	Status ResultStatus `json:"status"`

	// Value is the rendered return value. Empty unless Status is Success.
	Value string `json:"value,omitempty"`

	// ExitCode is the process exit status for this outcome.
	ExitCode ExitCode `json:"exit_code"`
}

// ResultSuccess creates a successful Result carrying the rendered value.
func ResultSuccess(value string) Result {
	return Result{
		Status:   ResultStatusSuccess,
		Value:    value,
		ExitCode: ExitSuccess,
	}
}

// ResultError creates an error Result with the given details and exit code.
func ResultError(err *ErrorDetail, code ExitCode) Result {
	return Result{
		Status:   ResultStatusError,
		Error:    err,
		ExitCode: code,
	}
}

// WithMetadata returns a copy of the Result with the given metadata attached.
func (r Result) WithMetadata(m *RunMetadata) Result {
	r.Metadata = m
	return r
}

// IsSuccess returns true if the result indicates success.
func (r Result) IsSuccess() bool {
	return r.Status == ResultStatusSuccess
}

// IsError returns true if the result indicates an error.
func (r Result) IsError() bool {
	return r.Status == ResultStatusError
}

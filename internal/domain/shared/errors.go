package shared

// Error codes carried by DomainError. The HTTP layer maps them to statuses.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeInvalidInput = "INVALID_INPUT"
	CodeConflict     = "CONCURRENCY_CONFLICT"
)

// DomainError is a failure the caller can act on, identified by Code
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches any DomainError with the same code, so a specific validation
// message still satisfies errors.Is(err, ErrInvalidInput).
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// InvalidInput is shorthand for a CodeInvalidInput error with a specific message
func InvalidInput(message string) *DomainError {
	return NewDomainError(CodeInvalidInput, message)
}

var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput        = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(CodeConflict, "Resource was modified by another process")
)

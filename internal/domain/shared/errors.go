package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound      = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput  = NewDomainError("VALIDATION_ERROR", "Invalid input provided")
	ErrInvalidState  = NewDomainError("INVALID_STATE_TRANSITION", "Status change not allowed in current state")
	ErrConflict      = NewDomainError("CONFLICT", "Resource was modified by another process")
	ErrAccessDenied  = NewDomainError("ACCESS_DENIED", "Access to this resource is denied")
	ErrTransient     = NewDomainError("TRANSIENT", "A dependency is temporarily unavailable, try again later")
	ErrAlreadyExists = NewDomainError("ALREADY_EXISTS", "Resource already exists")
)

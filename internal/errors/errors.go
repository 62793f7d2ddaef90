package errors

import "errors"

var (
	// ErrUserNotFound is returned when the target user row is absent.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when an email collides with the unique constraint.
	ErrEmailTaken = errors.New("email already exists")
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ErrorResponse is the canonical error envelope for all API errors.
type ErrorResponse struct {
	Error   string       `json:"error"`
	Message string       `json:"message,omitempty"`
	Details []FieldError `json:"details,omitempty"`
}

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries field-level details and maps to a 400 response.
type ValidationError struct {
	Details []FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// NewValidationError builds a ValidationError from field errors.
func NewValidationError(details ...FieldError) *ValidationError {
	return &ValidationError{Details: details}
}

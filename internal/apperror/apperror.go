package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("Validation Error")
	ErrConflict           = errors.New("conflict")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// DuplicateEmail signals that signup was attempted with an email that is
// already registered. Carries ErrConflict so handlers map it to 409.
func DuplicateEmail(email string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: "email already exists",
		Field:   "email",
	}
}

// DuplicateUsername signals that signup was attempted with a taken username.
func DuplicateUsername(username string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: "username already taken",
		Field:   "username",
	}
}

// InvalidCredentials is returned for BOTH an unknown email and a wrong
// password. The message is deliberately identical in the two cases so a
// caller cannot tell which part was wrong.
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Message: "invalid email or password",
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

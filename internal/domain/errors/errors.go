package errors

import (
	"fmt"
	"net/http"
)

// AppError is a custom error type for application errors
type AppError struct {
	Code       string
	Message    string
	StatusCode int // Same rule as HTTP status codes
	Err        error
	Details    map[string]interface{}
}

// Error codes shared by the ledger, listing and notification packages
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeDuplicateConstraint = "DUPLICATE_CONSTRAINT"
	CodeStorage             = "STORAGE_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeConflict            = "CONFLICT"
	CodePermission          = "PERMISSION_ERROR"
	CodeChannelUnavailable  = "CHANNEL_UNAVAILABLE"
	CodeInternal            = "INTERNAL_ERROR"
)

// Sentinels for errors.Is comparisons; only the code is compared.
var (
	ErrValidation          = AppError{Code: CodeValidation}
	ErrDuplicateConstraint = AppError{Code: CodeDuplicateConstraint}
	ErrStorage             = AppError{Code: CodeStorage}
	ErrNotFound            = AppError{Code: CodeNotFound}
	ErrConflict            = AppError{Code: CodeConflict}
	ErrPermission          = AppError{Code: CodePermission}
	ErrChannelUnavailable  = AppError{Code: CodeChannelUnavailable}
)

// Error returns a string representation of the error
func (e AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is implements the errors.Is interface
func (e AppError) Is(target error) bool {
	if target, ok := target.(AppError); ok {
		return target.Code == e.Code
	}
	return false
}

// Unwrap returns the underlying error
func (e AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a single detail to the error
func (e AppError) WithDetail(key string, value interface{}) AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewValidationError is returned when input is rejected before anything is written
func NewValidationError(message string) AppError {
	return AppError{
		Code:       CodeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewDuplicateConstraintError is returned on a uniqueness violation
func NewDuplicateConstraintError(message string) AppError {
	return AppError{
		Code:       CodeDuplicateConstraint,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewStorageError wraps an underlying read/write failure
func NewStorageError(message string, err error) AppError {
	return AppError{
		Code:       CodeStorage,
		Message:    message,
		StatusCode: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) AppError {
	return AppError{
		Code:       CodeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewConflictError is returned when an optimistic version check fails
func NewConflictError(message string) AppError {
	return AppError{
		Code:       CodeConflict,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewPermissionError is returned when a notification channel capability is missing
func NewPermissionError(message string, err error) AppError {
	return AppError{
		Code:       CodePermission,
		Message:    message,
		StatusCode: http.StatusForbidden,
		Err:        err,
	}
}

// NewChannelUnavailableError is returned when a channel fails to deliver
func NewChannelUnavailableError(message string, err error) AppError {
	return AppError{
		Code:       CodeChannelUnavailable,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Err:        err,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) AppError {
	return AppError{
		Code:       CodeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

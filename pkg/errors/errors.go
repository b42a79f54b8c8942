package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents an error code
type ErrorCode string

const (
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound   ErrorCode = "NOT_FOUND"
	ErrCodeConflict   ErrorCode = "CONFLICT"
	ErrCodeStorage    ErrorCode = "STORAGE_ERROR"
	ErrCodeInternal   ErrorCode = "INTERNAL_ERROR"
)

// storageMessage is the only text a caller ever sees for engine failures.
const storageMessage = "the request could not be completed, please try again later"

// FieldError names a single input field that failed validation
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError represents an application error
type AppError struct {
	Code    ErrorCode
	Message string
	Fields  []FieldError
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with an AppError
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Validation builds a VALIDATION_ERROR listing every failing field.
func Validation(fields ...FieldError) *AppError {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Field)
	}
	msg := "invalid input"
	if len(names) > 0 {
		msg = "invalid input: " + strings.Join(names, ", ")
	}
	return &AppError{
		Code:    ErrCodeValidation,
		Message: msg,
		Fields:  fields,
	}
}

// InvalidField is shorthand for a validation error on one field.
func InvalidField(field, message string) *AppError {
	return Validation(FieldError{Field: field, Message: message})
}

// NotFound creates a NOT_FOUND error
func NotFound(message string) *AppError {
	return New(ErrCodeNotFound, message)
}

// Storage hides the engine error behind a generic message. The original
// error stays reachable through Unwrap for logging.
func Storage(op string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeStorage,
		Message: storageMessage,
		Err:     fmt.Errorf("%s: %w", op, err),
	}
}

// CodeOf returns the code of the first AppError in err's chain.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// IsValidation checks if error is a validation error
func IsValidation(err error) bool {
	return err != nil && CodeOf(err) == ErrCodeValidation
}

// IsNotFound checks if error is NotFound
func IsNotFound(err error) bool {
	return err != nil && CodeOf(err) == ErrCodeNotFound
}

// IsStorage checks if error is a storage failure
func IsStorage(err error) bool {
	return err != nil && CodeOf(err) == ErrCodeStorage
}

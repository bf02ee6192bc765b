package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeLoad   ErrorType = "LOAD"
	ErrTypeSchema ErrorType = "SCHEMA"
)

// Context keys attached to AppError
const (
	ContextMissingColumns = "missing_columns"
	ContextFileName       = "file_name"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewLoadError reports an upload that could not be read or decoded.
func NewLoadError(message string, cause error) *AppError {
	return NewAppError(ErrTypeLoad, message, cause)
}

// NewSchemaError reports required columns missing from an upload.
func NewSchemaError(missing []string) *AppError {
	msg := fmt.Sprintf("uploaded file must contain the column(s): %s", strings.Join(missing, ", "))
	return NewAppError(ErrTypeSchema, msg, nil).WithContext(ContextMissingColumns, missing)
}

// IsType reports whether err wraps an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// IsLoadError reports whether err is a LOAD error
func IsLoadError(err error) bool {
	return IsType(err, ErrTypeLoad)
}

// IsSchemaError reports whether err is a SCHEMA error
func IsSchemaError(err error) bool {
	return IsType(err, ErrTypeSchema)
}

// MissingColumns returns the columns named by a SCHEMA error
func MissingColumns(err error) []string {
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Type != ErrTypeSchema {
		return nil
	}
	cols, _ := appErr.Context[ContextMissingColumns].([]string)
	return cols
}

package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeProvider represents upstream completion API errors
	ErrorTypeProvider ErrorType = "provider"
	// ErrorTypeImage represents image conversion errors
	ErrorTypeImage ErrorType = "image"
	// ErrorTypeNode represents node lookup/input errors
	ErrorTypeNode ErrorType = "node"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Provider errors

// ErrProviderNoResponse is returned when the completion API returns no content
var ErrProviderNoResponse = NewBaseError(ErrorTypeProvider, "no content in completion response", nil)

// ErrProviderRequestFailed is returned when the completion request fails
type ErrProviderRequestFailed struct {
	*BaseError
	Model    string
	Attempts int
}

func NewProviderRequestFailed(model string, attempts int, err error) *ErrProviderRequestFailed {
	return &ErrProviderRequestFailed{
		BaseError: NewBaseError(ErrorTypeProvider, fmt.Sprintf("completion request failed after %d attempts", attempts), err),
		Model:     model,
		Attempts:  attempts,
	}
}

// ErrProviderStatus is returned when the completion API answers with a non-2xx status
type ErrProviderStatus struct {
	*BaseError
	StatusCode int
}

func NewProviderStatus(statusCode int, body string) *ErrProviderStatus {
	return &ErrProviderStatus{
		BaseError:  NewBaseError(ErrorTypeProvider, fmt.Sprintf("completion API returned status %d: %s", statusCode, body), nil),
		StatusCode: statusCode,
	}
}

// Image errors

// ErrImageConversionFailed is returned when tensor-to-JPEG conversion fails
type ErrImageConversionFailed struct {
	*BaseError
	Reason string
}

func NewImageConversionFailed(reason string, err error) *ErrImageConversionFailed {
	return &ErrImageConversionFailed{
		BaseError: NewBaseError(ErrorTypeImage, fmt.Sprintf("image conversion failed: %s", reason), err),
		Reason:    reason,
	}
}

// Node errors

// ErrNodeNotFound is returned when a requested node is not registered
type ErrNodeNotFound struct {
	*BaseError
	NodeName string
}

func NewNodeNotFound(nodeName string) *ErrNodeNotFound {
	return &ErrNodeNotFound{
		BaseError: NewBaseError(ErrorTypeNode, fmt.Sprintf("node not found: %s", nodeName), nil),
		NodeName:  nodeName,
	}
}

// ErrNodeInvalidInput is returned when a node input is missing or malformed
type ErrNodeInvalidInput struct {
	*BaseError
	InputName string
	Reason    string
}

func NewNodeInvalidInput(inputName, reason string) *ErrNodeInvalidInput {
	return &ErrNodeInvalidInput{
		BaseError: NewBaseError(ErrorTypeNode, fmt.Sprintf("invalid input %q: %s", inputName, reason), nil),
		InputName: inputName,
		Reason:    reason,
	}
}

// Config errors

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

// typed is satisfied by BaseError and everything embedding it.
type typed interface {
	errorType() ErrorType
}

func (e *BaseError) errorType() ErrorType {
	return e.Type
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	for err != nil {
		if te, ok := err.(typed); ok {
			return te.errorType() == errType
		}
		wrapped, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = wrapped.Unwrap()
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if statusErr, ok := err.(*ErrProviderStatus); ok {
		// Rate limits and upstream overload are worth retrying
		return statusErr.StatusCode == 429 || statusErr.StatusCode >= 500
	}
	if IsErrorType(err, ErrorTypeProvider) {
		return true
	}
	return false
}

package errors

import (
	"context"
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a specific failure class of the scheduling engine.
type ErrorCode string

const (
	// ErrCodeExtractionFailure indicates the completion output could not be parsed into an intent.
	ErrCodeExtractionFailure ErrorCode = "EXTRACTION_FAILURE"
	// ErrCodeTemporalAmbiguity indicates no tier could resolve a date phrase.
	ErrCodeTemporalAmbiguity ErrorCode = "TEMPORAL_AMBIGUITY"
	// ErrCodeCollaboratorUnavailable indicates the calendar, mail or completion service failed.
	ErrCodeCollaboratorUnavailable ErrorCode = "COLLABORATOR_UNAVAILABLE"
	// ErrCodeNotFound indicates the referenced event does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeValidation indicates malformed user input (e.g. a bad duration).
	ErrCodeValidation ErrorCode = "VALIDATION"
	// ErrCodeContextCanceled indicates the operation was canceled.
	ErrCodeContextCanceled ErrorCode = "CONTEXT_CANCELED"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// AIError represents a structured error raised by the scheduling engine.
type AIError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *AIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AIError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *AIError) WithContext(key string, value any) *AIError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// GetCode returns the error code.
func (e *AIError) GetCode() ErrorCode {
	return e.Code
}

// ExtractionFailure creates an extraction failure error.
func ExtractionFailure(msg string, cause error) *AIError {
	return &AIError{Code: ErrCodeExtractionFailure, Message: msg, Cause: cause}
}

// TemporalAmbiguity creates an unresolved date error for the given phrase.
func TemporalAmbiguity(phrase string) *AIError {
	return &AIError{
		Code:    ErrCodeTemporalAmbiguity,
		Message: fmt.Sprintf("could not resolve date: %q", phrase),
	}
}

// CollaboratorUnavailable creates an error for a failed external service call.
func CollaboratorUnavailable(collaborator string, cause error) *AIError {
	return &AIError{
		Code:    ErrCodeCollaboratorUnavailable,
		Message: collaborator + " unavailable",
		Cause:   cause,
	}
}

// NotFound creates a not found error.
func NotFound(msg string) *AIError {
	return &AIError{Code: ErrCodeNotFound, Message: msg}
}

// Validation creates a validation error.
func Validation(msg string) *AIError {
	return &AIError{Code: ErrCodeValidation, Message: msg}
}

// ContextCanceled creates a context canceled error.
func ContextCanceled(cause error) *AIError {
	return &AIError{Code: ErrCodeContextCanceled, Message: "operation canceled", Cause: cause}
}

// Timeout creates a timeout error.
func Timeout(msg string) *AIError {
	return &AIError{Code: ErrCodeTimeout, Message: msg}
}

// Wrap wraps an existing error with additional context.
func Wrap(cause error, code ErrorCode, msg string) *AIError {
	return &AIError{Code: code, Message: msg, Cause: cause}
}

// FromContextErr classifies a context error, returning nil for anything else.
func FromContextErr(err error) *AIError {
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return &AIError{Code: ErrCodeTimeout, Message: "deadline exceeded", Cause: err}
	case stderrors.Is(err, context.Canceled):
		return ContextCanceled(err)
	}
	return nil
}

// IsCode reports whether any error in err's chain carries the given code.
func IsCode(err error, code ErrorCode) bool {
	var aiErr *AIError
	if stderrors.As(err, &aiErr) {
		return aiErr.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not an AIError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	var aiErr *AIError
	if stderrors.As(err, &aiErr) {
		return aiErr.Code
	}
	return defaultCode
}

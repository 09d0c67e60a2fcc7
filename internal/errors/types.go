package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeEvaluation ErrorType = "evaluation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// CalcError is a structured error type with context.
type CalcError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Recoverable bool
}

// Error implements the error interface.
func (e *CalcError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *CalcError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *CalcError) Is(target error) bool {
	var t *CalcError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *CalcError) WithContext(key string, value interface{}) *CalcError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// Error creation functions

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *CalcError {
	return &CalcError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewNetworkError creates an error for a request that could not complete.
func NewNetworkError(code, message string, cause error) *CalcError {
	return &CalcError{
		Type:        ErrorTypeNetwork,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewEvaluationError creates an error for an expression the evaluator
// rejected. message is the text reported by the evaluator, possibly empty.
func NewEvaluationError(message string) *CalcError {
	return &CalcError{
		Type:        ErrorTypeEvaluation,
		Code:        ErrCodeEvaluationRejected,
		Message:     message,
		Recoverable: true,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *CalcError {
	return &CalcError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *CalcError {
	return &CalcError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *CalcError {
	return &CalcError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var ce *CalcError
	if errors.As(err, &ce) {
		return ce.Recoverable
	}

	return false
}

// IsNetworkError reports whether err is a transport failure.
func IsNetworkError(err error) bool {
	return hasType(err, ErrorTypeNetwork)
}

// IsEvaluationError reports whether err is an evaluator rejection.
func IsEvaluationError(err error) bool {
	return hasType(err, ErrorTypeEvaluation)
}

// HasCode reports whether err carries code.
func HasCode(err error, code string) bool {
	var ce *CalcError
	if errors.As(err, &ce) {
		return ce.Code == code
	}

	return false
}

func hasType(err error, t ErrorType) bool {
	var ce *CalcError
	if errors.As(err, &ce) {
		return ce.Type == t
	}

	return false
}

// UserMessage returns the text a user should see for err: the message the
// evaluator supplied when there is one, fallback otherwise.
func UserMessage(err error, fallback string) string {
	var ce *CalcError
	if errors.As(err, &ce) && ce.Type == ErrorTypeEvaluation && ce.Message != "" {
		return ce.Message
	}

	return fallback
}

// ErrorHandler provides centralized error handling.
type ErrorHandler struct {
	logger Logger
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs err at a level that matches its type.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var ce *CalcError
	if !errors.As(err, &ce) {
		h.logger.Error(ctx, err, "Unhandled error occurred")
		return
	}

	switch ce.Type {
	case ErrorTypeValidation, ErrorTypeEvaluation:
		h.logger.Warn(ctx, err, "Request rejected",
			"type", ce.Type,
			"code", ce.Code)
	case ErrorTypeNetwork:
		h.logger.Warn(ctx, err, "Request failed",
			"type", ce.Type,
			"code", ce.Code)
	default:
		h.logger.Error(ctx, err, "Error occurred",
			"type", ce.Type,
			"code", ce.Code)
	}
}

// Common error codes.
const (
	ErrCodeEvaluationRejected = "ERR_EVALUATION_REJECTED"
	ErrCodeRequestFailed      = "ERR_REQUEST_FAILED"
	ErrCodeBadResponse        = "ERR_BAD_RESPONSE"
	ErrCodeInvalidToken       = "ERR_INVALID_TOKEN"
	ErrCodeInvalidMode        = "ERR_INVALID_MODE"
	ErrCodeConfigInvalid      = "ERR_CONFIG_INVALID"
	ErrCodeStorage            = "ERR_STORAGE"
	ErrCodeInternalError      = "ERR_INTERNAL"
)

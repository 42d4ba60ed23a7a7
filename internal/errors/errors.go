package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
)

// ErrorType represents different types of errors
type ErrorType string

const (
	ErrorTypeValidation      ErrorType = "validation"
	ErrorTypeMalformedRecord ErrorType = "malformed_record"
	ErrorTypeOperationFailed ErrorType = "operation_failed"
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypePermission      ErrorType = "permission"
	ErrorTypeConflict        ErrorType = "conflict"
	ErrorTypeInternal        ErrorType = "internal"
)

// AppError represents an application error with additional context
type AppError struct {
	Type     ErrorType
	Message  string
	Code     string
	Internal error
	Context  map[string]interface{}
	Source   string
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the internal error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Is checks if the error matches the target
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Type == t.Type && e.Code == t.Code
	}
	return errors.Is(e.Internal, target)
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// LogFields returns structured logging fields
func (e *AppError) LogFields() []interface{} {
	fields := []interface{}{
		"error_type", e.Type,
		"error_code", e.Code,
		"error_message", e.Message,
		"source", e.Source,
	}

	if e.Internal != nil {
		fields = append(fields, "internal_error", e.Internal.Error())
	}

	for k, v := range e.Context {
		fields = append(fields, k, v)
	}

	return fields
}

// New creates a new AppError
func New(errorType ErrorType, code, message string) *AppError {
	_, file, line, _ := runtime.Caller(1)
	source := fmt.Sprintf("%s:%d", file, line)

	return &AppError{
		Type:    errorType,
		Code:    code,
		Message: message,
		Source:  source,
		Context: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error into AppError
func Wrap(err error, errorType ErrorType, code, message string) *AppError {
	_, file, line, _ := runtime.Caller(1)
	source := fmt.Sprintf("%s:%d", file, line)

	return &AppError{
		Type:     errorType,
		Code:     code,
		Message:  message,
		Internal: err,
		Source:   source,
		Context:  make(map[string]interface{}),
	}
}

// TypeOf returns the type of the first AppError in the chain, or ErrorTypeInternal.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// Handler provides error handling strategies
type Handler struct {
	logger *slog.Logger
}

// NewHandler creates a new error handler
func NewHandler(logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger}
}

// Handle processes an error according to its type
func (h *Handler) Handle(ctx context.Context, err error) {
	if err == nil {
		return
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		h.handleAppError(ctx, appErr)
	} else {
		h.handleGenericError(ctx, err)
	}
}

// handleAppError handles AppError instances
func (h *Handler) handleAppError(ctx context.Context, err *AppError) {
	switch err.Type {
	case ErrorTypeValidation, ErrorTypeNotFound, ErrorTypeConflict:
		h.logger.InfoContext(ctx, "Request rejected", err.LogFields()...)
	case ErrorTypePermission:
		h.logger.WarnContext(ctx, "Permission error", err.LogFields()...)
	case ErrorTypeMalformedRecord:
		h.logger.ErrorContext(ctx, "Malformed record", err.LogFields()...)
	case ErrorTypeOperationFailed, ErrorTypeInternal:
		h.logger.ErrorContext(ctx, "Critical error", err.LogFields()...)
	default:
		h.logger.ErrorContext(ctx, "Unknown error type", err.LogFields()...)
	}
}

// handleGenericError handles generic errors
func (h *Handler) handleGenericError(ctx context.Context, err error) {
	h.logger.ErrorContext(ctx, "Unhandled error", "error", err.Error())
}

// LogAndReturn logs an error and returns it
func (h *Handler) LogAndReturn(ctx context.Context, err error) error {
	h.Handle(ctx, err)
	return err
}

// Predefined errors
var (
	ErrInvalidInput    = New(ErrorTypeValidation, "INVALID_INPUT", "Invalid input provided")
	ErrMalformedRecord = New(ErrorTypeMalformedRecord, "MALFORMED_RECORD", "Stored record is malformed")
	ErrOperationFailed = New(ErrorTypeOperationFailed, "OPERATION_FAILED", "Backend operation failed")
	ErrNotFound        = New(ErrorTypeNotFound, "NOT_FOUND", "Resource not found")
	ErrUnauthorized    = New(ErrorTypePermission, "UNAUTHORIZED", "Unauthorized access")
	ErrEmailTaken      = New(ErrorTypeConflict, "EMAIL_TAKEN", "Email is already registered")
	ErrInternalServer  = New(ErrorTypeInternal, "INTERNAL", "Internal server error")
)

// Convenience functions for common errors
func NewValidationError(message string) *AppError {
	return New(ErrorTypeValidation, "INVALID_INPUT", message)
}

// NewMalformedRecordError reports a required field that is absent or has the wrong type.
func NewMalformedRecordError(collection, field, reason string) *AppError {
	return New(ErrorTypeMalformedRecord, "MALFORMED_RECORD",
		fmt.Sprintf("%s record: field %q %s", collection, field, reason)).
		WithContext("collection", collection).
		WithContext("field", field)
}

// NewOperationFailedError wraps a backend failure. These are never retried.
func NewOperationFailedError(err error, operation string) *AppError {
	return Wrap(err, ErrorTypeOperationFailed, "OPERATION_FAILED", fmt.Sprintf("%s failed", operation)).
		WithContext("operation", operation)
}

func NewNotFoundError(resource, id string) *AppError {
	return New(ErrorTypeNotFound, "NOT_FOUND", fmt.Sprintf("%s not found", resource)).
		WithContext("resource", resource).
		WithContext("id", id)
}

func NewUnauthorizedError(message string) *AppError {
	return New(ErrorTypePermission, "UNAUTHORIZED", message)
}

func NewInternalError(err error) *AppError {
	return Wrap(err, ErrorTypeInternal, "INTERNAL", "Internal server error")
}

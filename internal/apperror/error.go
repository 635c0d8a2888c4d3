// Package apperror provides coded, structured errors shared by every bounded context.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"
)

// AppError implements the error interface and provides structured error handling
type AppError struct {
	Code       Code      `json:"code"`
	Message    string    `json:"message"`
	StatusCode int       `json:"statusCode"`
	Context    string    `json:"context,omitempty"`
	TraceID    string    `json:"traceId,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	cause      error
	stack      []uintptr
}

// Error implements the error interface
func (e *AppError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Code))
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Context != "" {
		sb.WriteString(" (")
		sb.WriteString(e.Context)
		sb.WriteString(")")
	}
	if e.cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.cause.Error())
	}
	return sb.String()
}

// Unwrap implements the errors.Unwrap interface
func (e *AppError) Unwrap() error {
	return e.cause
}

// Is reports whether target is an AppError carrying the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithTraceID sets the trace ID for distributed tracing
func (e *AppError) WithTraceID(traceID string) *AppError {
	e.TraceID = traceID
	return e
}

// ToResponse serializes the error for an HTTP response body.
func (e *AppError) ToResponse() map[string]any {
	body := map[string]any{
		"code":      e.Code,
		"message":   e.Message,
		"timestamp": e.Timestamp.UTC().Format(time.RFC3339),
	}
	if e.Context != "" {
		body["context"] = e.Context
	}
	if e.TraceID != "" {
		body["traceId"] = e.TraceID
	}
	return map[string]any{"error": body}
}

// Fields flattens the error into key/value pairs suitable for structured logging.
func (e *AppError) Fields() []any {
	fields := []any{"code", string(e.Code), "status", e.StatusCode}
	if e.Context != "" {
		fields = append(fields, "context", e.Context)
	}
	if e.cause != nil {
		fields = append(fields, "cause", e.cause.Error())
	}
	if len(e.stack) > 0 {
		fields = append(fields, "stack", e.formatStack())
	}
	return fields
}

func (e *AppError) formatStack() string {
	var sb strings.Builder
	frames := runtime.CallersFrames(e.stack)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			fmt.Fprintf(&sb, "\n\t%s:%d %s", frame.File, frame.Line, frame.Function)
		}
		if !more {
			break
		}
	}
	return sb.String()
}

func captureStack() []uintptr {
	const depth = 16
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[:n]
}

// New creates a new AppError with the given code and options
func New(code Code, opts ...Option) *AppError {
	err := &AppError{
		Code:       code,
		Message:    messages[code],
		StatusCode: statusFor(code),
		Timestamp:  time.Now(),
		stack:      captureStack(),
	}

	for _, opt := range opts {
		opt(err)
	}

	if err.Message == "" {
		err.Message = string(code)
	}

	return err
}

// Option is a functional option for AppError
type Option func(*AppError)

// WithMessage sets a custom message
func WithMessage(message string) Option {
	return func(e *AppError) {
		e.Message = message
	}
}

// WithContext adds context information
func WithContext(context string) Option {
	return func(e *AppError) {
		e.Context = context
	}
}

// WithContextf adds formatted context information.
func WithContextf(format string, args ...any) Option {
	return func(e *AppError) {
		e.Context = fmt.Sprintf(format, args...)
	}
}

// WithStatusCode sets a custom HTTP status code
func WithStatusCode(statusCode int) Option {
	return func(e *AppError) {
		e.StatusCode = statusCode
	}
}

// WithCause wraps an underlying error
func WithCause(cause error) Option {
	return func(e *AppError) {
		e.cause = cause
	}
}

// Validation creates a validation error
func Validation(code Code, context string) *AppError {
	return New(code, WithContext(context), WithStatusCode(http.StatusBadRequest))
}

// External creates an external service error
func External(code Code, context string, cause error) *AppError {
	return New(code, WithContext(context), WithCause(cause), WithStatusCode(http.StatusServiceUnavailable))
}

// Wrap converts err into an AppError. Errors that already are AppErrors are returned
// as-is, gaining the context when they have none.
func Wrap(err error, code Code, context string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if context != "" && appErr.Context == "" {
			appErr.Context = context
		}
		return appErr
	}

	return New(code, WithContext(context), WithCause(err))
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetCode extracts the error code from an error
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknownError
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}

var statusByCode = map[Code]int{
	CodeRateLimitExceeded:        http.StatusTooManyRequests,
	CodeMathOverflow:             http.StatusUnprocessableEntity,
	CodeCannotSellMoreThanBin:    http.StatusUnprocessableEntity,
	CodeCannotSellMoreThanSupply: http.StatusUnprocessableEntity,
	CodeCanOnlySellEntireSupply:  http.StatusUnprocessableEntity,
	CodeSellCalculationUnderflow: http.StatusUnprocessableEntity,
	CodeCostExceedsMaxCollateral: http.StatusUnprocessableEntity,
	CodeCannotSellFromEmptyBin:   http.StatusUnprocessableEntity,
	CodeNoTokensToBuy:            http.StatusBadRequest,
	CodeMinTickGreaterThanMax:    http.StatusBadRequest,
	CodeInconsistentSnapshot:     http.StatusBadGateway,
	CodeArrayLengthMismatch:      http.StatusBadRequest,
	CodeTooManyBins:              http.StatusBadRequest,
	CodeValueOutOfU64Range:       http.StatusBadRequest,
	CodeRequiredField:            http.StatusBadRequest,
	CodeValidationError:          http.StatusBadRequest,
	CodeFeedUnavailable:          http.StatusServiceUnavailable,
	CodeSnapshotStale:            http.StatusServiceUnavailable,
	CodeCircuitOpen:              http.StatusServiceUnavailable,
}

func statusFor(code Code) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}

	switch c := string(code); {
	case strings.Contains(c, "NOT_FOUND"):
		return http.StatusNotFound
	case strings.Contains(c, "INVALID"), strings.Contains(c, "MULTIPLE"), strings.Contains(c, "OUT_OF_RANGE"):
		return http.StatusBadRequest
	case strings.Contains(c, "CONNECTION"), strings.Contains(c, "TIMEOUT"), strings.Contains(c, "UNAVAILABLE"):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

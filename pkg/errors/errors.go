package errors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Standard sentinel errors for common cases.
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInternal          = errors.New("internal error")
	ErrConflict          = errors.New("conflict")
	ErrGone              = errors.New("gone")
	ErrServiceUnavail    = errors.New("service unavailable")
	ErrMisconfigured     = errors.New("misconfigured")
	ErrResolution        = errors.New("variant resolution failed")
	ErrGatewayRejected   = errors.New("gateway rejected request")
	ErrGateway           = errors.New("gateway error")
	ErrMalformedResponse = errors.New("malformed gateway response")
	ErrRateLimited       = errors.New("rate limited")
)

// AppError represents a structured application error with HTTP status mapping.
// Fields carries per-field (or per-product) detail that is safe to show the caller.
type AppError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Status  int               `json:"-"`
	Err     error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithCause attaches cause to e and keeps the sentinel e already carries, so
// errors.Is still matches the error's category.
func (e *AppError) WithCause(cause error) *AppError {
	if cause == nil {
		return e
	}
	e.Err = errors.Join(e.Err, cause)
	return e
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthorized,
	}
}

// Conflict creates a 409 error.
func Conflict(message string) *AppError {
	return &AppError{
		Code:    "CONFLICT",
		Message: message,
		Status:  http.StatusConflict,
		Err:     ErrConflict,
	}
}

// Gone creates a 410 error.
func Gone(message string) *AppError {
	return &AppError{
		Code:    "GONE",
		Message: message,
		Status:  http.StatusGone,
		Err:     ErrGone,
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// ServiceUnavailable creates a 503 error.
func ServiceUnavailable(message string) *AppError {
	return &AppError{
		Code:    "SERVICE_UNAVAILABLE",
		Message: message,
		Status:  http.StatusServiceUnavailable,
		Err:     ErrServiceUnavail,
	}
}

// Misconfigured creates a 500 error for missing or invalid deployment settings.
// These are never retried.
func Misconfigured(message string) *AppError {
	return &AppError{
		Code:    "CONFIGURATION_ERROR",
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     ErrMisconfigured,
	}
}

// RateLimited creates a 429 error.
func RateLimited(message string) *AppError {
	return &AppError{
		Code:    "RATE_LIMITED",
		Message: message,
		Status:  http.StatusTooManyRequests,
		Err:     ErrRateLimited,
	}
}

// ResolutionFailed creates a 422 error naming every product whose variant could
// not be resolved. failures maps product id to a human readable reason; names maps
// product id to its display name and may be nil.
func ResolutionFailed(failures map[string]string, names map[string]string) *AppError {
	ids := make([]string, 0, len(failures))
	for id := range failures {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	labels := make([]string, 0, len(ids))
	for _, id := range ids {
		if name := names[id]; name != "" {
			labels = append(labels, name)
			continue
		}
		labels = append(labels, id)
	}

	return &AppError{
		Code:    "RESOLUTION_FAILED",
		Message: "could not prepare checkout for: " + strings.Join(labels, ", "),
		Fields:  failures,
		Status:  http.StatusUnprocessableEntity,
		Err:     ErrResolution,
	}
}

// GatewayRejected creates a 422 error carrying the commerce platform's user
// errors verbatim (field path to message).
func GatewayRejected(fields map[string]string) *AppError {
	msgs := make([]string, 0, len(fields))
	for field, msg := range fields {
		if field == "" {
			msgs = append(msgs, msg)
			continue
		}
		msgs = append(msgs, field+": "+msg)
	}
	sort.Strings(msgs)

	return &AppError{
		Code:    "GATEWAY_REJECTED",
		Message: strings.Join(msgs, "; "),
		Fields:  fields,
		Status:  http.StatusUnprocessableEntity,
		Err:     ErrGatewayRejected,
	}
}

// Gateway creates a 502 error for transport or GraphQL level failures. The
// message is generic; the cause is kept in Err for logging.
func Gateway(err error) *AppError {
	return &AppError{
		Code:    "GATEWAY_ERROR",
		Message: "the store is temporarily unable to process this request",
		Status:  http.StatusBadGateway,
		Err:     errors.Join(ErrGateway, err),
	}
}

// MalformedResponse creates a 502 error for gateway payloads that do not match
// the expected schema.
func MalformedResponse(err error) *AppError {
	return &AppError{
		Code:    "MALFORMED_RESPONSE",
		Message: "the store returned an unexpected response",
		Status:  http.StatusBadGateway,
		Err:     errors.Join(ErrMalformedResponse, err),
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrGone):
		return http.StatusGone
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrResolution), errors.Is(err, ErrGatewayRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrGateway), errors.Is(err, ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, ErrServiceUnavail):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

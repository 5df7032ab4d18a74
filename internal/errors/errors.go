package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"fraud-console/internal/observability"
)

type ErrorCode string

const (
	CodeInternal       ErrorCode = "INTERNAL_ERROR"
	CodeValidation     ErrorCode = "VALIDATION_ERROR"
	CodeNotFound       ErrorCode = "NOT_FOUND"
	CodeBadRequest     ErrorCode = "BAD_REQUEST"
	CodeUnauthorized   ErrorCode = "UNAUTHORIZED"
	CodeForbidden      ErrorCode = "FORBIDDEN"
	CodeRateLimit      ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeServiceUnavail ErrorCode = "SERVICE_UNAVAILABLE"

	// Failures of calls to the remote fraud service.
	CodeUpstream            ErrorCode = "UPSTREAM_ERROR"
	CodeUpstreamTimeout     ErrorCode = "UPSTREAM_TIMEOUT"
	CodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	CodeUpstreamBadResponse ErrorCode = "UPSTREAM_BAD_RESPONSE"
)

type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"-"`
	Cause      error     `json:"-"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id,omitempty"`

	// UpstreamStatus is the HTTP status returned by the fraud service, if any.
	UpstreamStatus int `json:"upstream_status,omitempty"`
	// ServerMessage is the message the fraud service put in its error body.
	ServerMessage string `json:"server_message,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: getStatusCode(code),
		Timestamp:  time.Now().UTC(),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: getStatusCode(code),
		Cause:      err,
		Timestamp:  time.Now().UTC(),
	}
}

func Internal(message string) *AppError {
	return New(CodeInternal, message)
}

func InternalWrap(err error, message string) *AppError {
	return Wrap(err, CodeInternal, message)
}

func Validation(message string) *AppError {
	return New(CodeValidation, message)
}

func BadRequestWrap(err error, message string) *AppError {
	return Wrap(err, CodeBadRequest, message)
}

func RateLimit(message string) *AppError {
	return New(CodeRateLimit, message)
}

// Upstream reports a non-2xx answer from the fraud service.
func Upstream(status int, serverMessage string) *AppError {
	e := New(CodeUpstream, fmt.Sprintf("fraud service returned status %d", status))
	e.UpstreamStatus = status
	e.ServerMessage = serverMessage
	return e
}

// Rejected reports a 2xx answer whose body says success=false.
func Rejected(serverMessage string) *AppError {
	e := New(CodeUpstream, "fraud service rejected the request")
	e.ServerMessage = serverMessage
	return e
}

func UpstreamTimeout(err error, operation string) *AppError {
	return Wrap(err, CodeUpstreamTimeout, operation+" timed out")
}

func UpstreamUnavailable(err error, operation string) *AppError {
	return Wrap(err, CodeUpstreamUnavailable, operation+" could not reach the fraud service")
}

func UpstreamBadResponse(err error, message string) *AppError {
	return Wrap(err, CodeUpstreamBadResponse, message)
}

// IsUpstream reports whether err came from a call to the fraud service.
func IsUpstream(err error) bool {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return false
	}
	switch appErr.Code {
	case CodeUpstream, CodeUpstreamTimeout, CodeUpstreamUnavailable, CodeUpstreamBadResponse:
		return true
	}
	return false
}

// MessageOr picks the text shown to the operator: the server's own message
// when it sent one, the message of a validation error, otherwise fallback.
func MessageOr(err error, fallback string) string {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return fallback
	}
	if appErr.ServerMessage != "" {
		return appErr.ServerMessage
	}
	if appErr.Code == CodeValidation && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}

func getStatusCode(code ErrorCode) int {
	switch code {
	case CodeValidation, CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeRateLimit:
		return http.StatusTooManyRequests
	case CodeServiceUnavail, CodeUpstreamUnavailable:
		return http.StatusServiceUnavailable
	case CodeUpstream, CodeUpstreamBadResponse:
		return http.StatusBadGateway
	case CodeUpstreamTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

type ErrorResponse struct {
	Error   *AppError `json:"error"`
	Success bool      `json:"success"`
}

// WriteError answers r with err as a JSON error body. Errors that are not
// an *AppError are reported as internal errors without leaking their text.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	ctx := r.Context()
	requestID := observability.GetRequestID(ctx)

	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		appErr = Internal("An unexpected error occurred")
		appErr.Cause = err
	}

	appErr.RequestID = requestID

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)

	response := ErrorResponse{
		Error:   appErr,
		Success: false,
	}

	if encodeErr := json.NewEncoder(w).Encode(response); encodeErr != nil {
		logger.ErrorContext(ctx, "failed to encode error response",
			"encode_error", encodeErr,
			"original_error", err,
			"request_id", requestID,
		)
		return
	}

	logLevel := slog.LevelError
	if appErr.StatusCode < 500 {
		logLevel = slog.LevelWarn
	}

	attrs := []any{
		"error_code", appErr.Code,
		"error_message", appErr.Message,
		"status_code", appErr.StatusCode,
		"request_id", requestID,
		"path", r.URL.Path,
	}
	if sessionID := observability.GetSessionID(ctx); sessionID != "" {
		attrs = append(attrs, "session_id", sessionID)
	}
	if appErr.UpstreamStatus != 0 {
		attrs = append(attrs, "upstream_status", appErr.UpstreamStatus)
	}
	if appErr.Cause != nil {
		attrs = append(attrs, "cause", appErr.Cause)
	}
	logger.Log(ctx, logLevel, "request failed", attrs...)
}

type SuccessResponse struct {
	Data    any  `json:"data"`
	Success bool `json:"success"`
}

func WriteSuccess(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := SuccessResponse{
		Data:    data,
		Success: true,
	}

	json.NewEncoder(w).Encode(response)
}

func WriteSuccessWithHeaders(w http.ResponseWriter, data any, headers map[string]string) {
	for key, value := range headers {
		w.Header().Set(key, value)
	}
	WriteSuccess(w, data)
}

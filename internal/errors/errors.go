package errors

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

type ErrorCode string

const (
	CodeInternal       ErrorCode = "INTERNAL_ERROR"
	CodeValidation     ErrorCode = "VALIDATION_ERROR"
	CodeBadRequest     ErrorCode = "BAD_REQUEST"
	CodeDataLoad       ErrorCode = "DATA_LOAD_ERROR"
	CodeRateLimit      ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeServiceUnavail ErrorCode = "SERVICE_UNAVAILABLE"
)

var statusCodes = map[ErrorCode]int{
	CodeValidation:     http.StatusBadRequest,
	CodeBadRequest:     http.StatusBadRequest,
	CodeRateLimit:      http.StatusTooManyRequests,
	CodeDataLoad:       http.StatusServiceUnavailable,
	CodeServiceUnavail: http.StatusServiceUnavailable,
}

// AppError is the error shape every JSON endpoint reports.
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"-"`
	Cause      error     `json:"-"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails returns e with a client-visible explanation attached.
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

func New(code ErrorCode, message string) *AppError {
	return Wrap(nil, code, message)
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	status, ok := statusCodes[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: status,
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

func ValidationWrap(err error, message string) *AppError {
	return Wrap(err, CodeValidation, message)
}

func BadRequest(message string) *AppError {
	return New(CodeBadRequest, message)
}

func RateLimit(message string) *AppError {
	return New(CodeRateLimit, message)
}

func ServiceUnavailable(message string) *AppError {
	return New(CodeServiceUnavail, message)
}

// DataLoad reports that the input record sets could not be loaded. The
// dashboard cannot answer until the files are fixed.
func DataLoad(err error) *AppError {
	return Wrap(err, CodeDataLoad, "Sales data could not be loaded").WithDetails(err.Error())
}

// As finds the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

type ErrorResponse struct {
	Error   *AppError `json:"error"`
	Success bool      `json:"success"`
}

type SuccessResponse struct {
	Data    any  `json:"data"`
	Success bool `json:"success"`
}

// WriteError writes err as an error envelope. Errors that carry no AppError
// are reported as internal errors without leaking their text.
func WriteError(w http.ResponseWriter, logger *slog.Logger, err error, requestID string) {
	resp := Internal("An unexpected error occurred")
	resp.Cause = err
	if appErr, ok := As(err); ok {
		copied := *appErr
		resp = &copied
	}
	resp.RequestID = requestID

	if encodeErr := writeJSON(w, resp.StatusCode, ErrorResponse{Error: resp}); encodeErr != nil {
		logger.Error("failed to encode error response",
			"encode_error", encodeErr,
			"original_error", err,
			"request_id", requestID,
		)
		return
	}

	level := slog.LevelError
	if resp.StatusCode < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	logger.Log(context.Background(), level, "request failed",
		"error_code", resp.Code,
		"error_message", resp.Message,
		"status_code", resp.StatusCode,
		"request_id", requestID,
		"cause", resp.Cause,
	)
}

func WriteSuccess(w http.ResponseWriter, data any) {
	if err := writeJSON(w, http.StatusOK, SuccessResponse{Data: data, Success: true}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func WriteSuccessWithHeaders(w http.ResponseWriter, data any, headers map[string]string) {
	for key, value := range headers {
		w.Header().Set(key, value)
	}
	WriteSuccess(w, data)
}

// writeJSON encodes v before touching w so an encoding failure can still be
// answered with a 500.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, `{"success":false}`, http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

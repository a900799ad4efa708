package common

import (
	"errors"
	"net/http"
)

// Error codes recognised at the handler boundary.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeProviderError    = "PROVIDER_ERROR"
	CodeSignatureInvalid = "SIGNATURE_INVALID"
	CodeNotFound         = "NOT_FOUND"
	CodeInternal         = "INTERNAL"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// InvalidRequest marks a caller-supplied malformed request.
func InvalidRequest(message string, err error) *AppError {
	return &AppError{Code: CodeInvalidRequest, Message: message, HTTPStatus: http.StatusBadRequest, Err: err}
}

// ProviderError marks a downstream payment-provider failure. The provider
// message is passed through to the caller.
func ProviderError(message string, err error) *AppError {
	return &AppError{Code: CodeProviderError, Message: message, HTTPStatus: http.StatusInternalServerError, Err: err}
}

// SignatureInvalid marks an unauthenticated or unverifiable webhook. The
// client-facing message stays generic regardless of the underlying cause.
func SignatureInvalid(err error) *AppError {
	return &AppError{Code: CodeSignatureInvalid, Message: "signature verification failed", HTTPStatus: http.StatusBadRequest, Err: err}
}

// NotFound marks an unmatched route or resource.
func NotFound(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message, HTTPStatus: http.StatusNotFound}
}

// Internal wraps an unexpected error.
func Internal(err error) *AppError {
	return &AppError{Code: CodeInternal, Message: "internal server error", HTTPStatus: http.StatusInternalServerError, Err: err}
}

// Label maps an error code to the human label used in response bodies.
func Label(code string) string {
	switch code {
	case CodeInvalidRequest:
		return "Invalid request"
	case CodeProviderError:
		return "Payment provider error"
	case CodeSignatureInvalid:
		return "Invalid signature"
	case CodeNotFound:
		return "Not found"
	default:
		return "Internal server error"
	}
}

// WriteError converts err into the corresponding HTTP response. Internal
// error messages are redacted unless dev is set.
func WriteError(w http.ResponseWriter, err error, dev bool) {
	var app *AppError
	if !errors.As(err, &app) {
		app = Internal(err)
	}
	message := app.Message
	if app.Code == CodeInternal {
		if dev && app.Err != nil {
			message = app.Err.Error()
		} else {
			message = "internal server error"
		}
	}
	JSONError(w, app.HTTPStatus, Label(app.Code), message)
}

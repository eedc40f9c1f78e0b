package apperr

import (
	"fmt"
	"net/http"
	"net/url"
)

// Error is an application error with a stable machine-readable code. The
// outermost HTTP boundary is the only place that serializes it.
type Error struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New creates an application error.
func New(statusCode int, code, message string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NotFound creates the per-entity not-found error, e.g. NotFound("user")
// carries the code "user-not-found".
func NotFound(kind string) *Error {
	return New(http.StatusNotFound, kind+"-not-found", kind+" not found")
}

// Unauthorized creates the error returned for any absent or expired session.
// Callers deliberately cannot tell the two cases apart.
func Unauthorized() *Error {
	return New(http.StatusUnauthorized, CodeUnauthorized, "authentication required")
}

// Conflict creates a 409 business-rule violation error.
func Conflict(code, message string) *Error {
	return New(http.StatusConflict, code, message)
}

// Internal is the generic 500 error; internals are never leaked through it.
func Internal() *Error {
	return New(http.StatusInternalServerError, CodeInternalServerError, "internal server error")
}

// RedirectError fails a browser-facing token flow by redirecting to the
// client error page with the code in the query string. It never produces a
// JSON body.
type RedirectError struct {
	Code        string
	RedirectURL string
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("redirect to %s", e.RedirectURL)
}

// ClientRedirect builds a RedirectError pointing at the client's /error page.
func ClientRedirect(clientURL, code string) *RedirectError {
	u := clientURL + "/error?error=" + url.QueryEscape(code)
	return &RedirectError{
		Code:        code,
		RedirectURL: u,
	}
}

package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is an HTTP-facing error with a stable code label that operators can
// alert on (e.g. "timeout:db-insert-asset", "rate_limited:needs-review").
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Invalid(code string, err error) *Error {
	return New(http.StatusBadRequest, code, err)
}

func Unauthorized(err error) *Error {
	return New(http.StatusUnauthorized, "unauthorized", err)
}

func Forbidden(code string, err error) *Error {
	return New(http.StatusForbidden, code, err)
}

func NotFound(err error) *Error {
	return New(http.StatusNotFound, "not_found", err)
}

func Conflict(code string, err error) *Error {
	return New(http.StatusConflict, code, err)
}

func RateLimited(code string, err error) *Error {
	return New(http.StatusTooManyRequests, code, err)
}

// Timeout labels a bounded operation that exceeded its stage budget. The
// code is "timeout:<stage>" verbatim so alerts can key on exact strings.
func Timeout(stage string) *Error {
	return New(http.StatusServiceUnavailable, "timeout:"+stage, fmt.Errorf("stage %q exceeded its budget", stage))
}

func Unavailable(code string, err error) *Error {
	return New(http.StatusServiceUnavailable, code, err)
}

func NotImplemented(code string, err error) *Error {
	return New(http.StatusNotImplemented, code, err)
}

func Internal(err error) *Error {
	return New(http.StatusInternalServerError, "internal", err)
}

// From extracts an *Error from err's chain, or wraps err as internal.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}

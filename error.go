package mcscrape

import (
	"errors"
	"fmt"
)

// General error codes.
const (
	EINTERNAL = "internal"
	EINVALID  = "invalid"
	ENOTFOUND = "not_found"
)

// Fetch error codes.
const (
	ETIMEOUT    = "timeout"
	ENETWORK    = "network_failure"
	EBLOCKED    = "navigation_blocked"
	EINVALIDURL = "invalid_url"
)

// Classification error codes.
const (
	EMODELUNAVAILABLE = "model_unavailable"
	ERATELIMITED      = "rate_limited"
	EINVALIDRESPONSE  = "invalid_response_format"
)

// Render error codes.
const (
	ERENDER = "render"
)

// Error classes group codes by the pipeline component that raises them.
const (
	ClassFetch          = "fetch"
	ClassClassification = "classification"
	ClassRender         = "render"
	ClassInternal       = "internal"
)

// Error represents an application-specific error. Code is one of the codes
// above; Message is human readable. Err, when set, is the underlying cause
// and stays reachable through errors.Is and errors.As.
type Error struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("mcscrape error: code=%s message=%s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors return their Error() text.
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Errorf is a helper function to return an Error with a given code and formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError is like Errorf but keeps err as the underlying cause.
func WrapError(code string, err error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// ErrorClass returns the component class for an error code.
func ErrorClass(code string) string {
	switch code {
	case ETIMEOUT, ENETWORK, EBLOCKED, EINVALIDURL:
		return ClassFetch
	case EMODELUNAVAILABLE, ERATELIMITED, EINVALIDRESPONSE:
		return ClassClassification
	case ERENDER:
		return ClassRender
	default:
		return ClassInternal
	}
}

// HTTPStatusError records a non-successful HTTP status for a page fetch.
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// Temporary reports whether the status is worth retrying (5xx).
func (e *HTTPStatusError) Temporary() bool {
	return e.StatusCode >= 500
}

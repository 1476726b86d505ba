package apperr

import (
	"errors"
	"fmt"
)

// Error is a typed pipeline error carrying a catalog code and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Sentinels for errors.Is checks. Any *Error with the same code matches.
var (
	ErrDataFormat       = &Error{Code: DataFormat}
	ErrInsufficientData = &Error{Code: InsufficientData}
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		if entry, ok := catalog[e.Code]; ok {
			msg = entry.Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap allows errors.Is and errors.As to reach the cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDataFormat reports a malformed or unreadable input. Fatal for the pipeline.
func NewDataFormat(message string, cause error) *Error {
	return &Error{Code: DataFormat, Message: message, Cause: cause}
}

// NewInsufficientData reports valid but too sparse data for one computation.
func NewInsufficientData(format string, args ...any) *Error {
	return &Error{Code: InsufficientData, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the code of the first *Error in err's chain.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// IsDataFormat reports whether err is a data format failure.
func IsDataFormat(err error) bool {
	return errors.Is(err, ErrDataFormat)
}

// IsInsufficientData reports whether err is an insufficient data failure.
func IsInsufficientData(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

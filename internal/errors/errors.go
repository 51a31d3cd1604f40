package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a castpaint error code.
type ErrorCode string

const (
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"     // 400
	ErrNotFound           ErrorCode = "NOT_FOUND"           // 404
	ErrFileNotFound       ErrorCode = "FILE_NOT_FOUND"      // 404
	ErrMalformedRecording ErrorCode = "MALFORMED_RECORDING" // 422
	ErrMissingField       ErrorCode = "MISSING_FIELD"       // 422
	ErrUnknownStyle       ErrorCode = "UNKNOWN_STYLE"       // 422
	ErrDuplicateToken     ErrorCode = "DUPLICATE_TOKEN"     // 422
	ErrCancelled          ErrorCode = "CANCELLED"           // 499
	ErrSpanMismatch       ErrorCode = "SPAN_MISMATCH"       // 500
	ErrInternal           ErrorCode = "INTERNAL"            // 500
)

// PaintError represents a structured error with code, status, and details.
type PaintError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *PaintError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *PaintError {
	return &PaintError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a run cannot be found.
func NewNotFound(identifier string) *PaintError {
	return &PaintError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("run not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing input file.
func NewFileNotFound(path string) *PaintError {
	return &PaintError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewMalformedRecording creates a 422 error for a recording that cannot be parsed.
func NewMalformedRecording(path, reason string) *PaintError {
	return &PaintError{
		Code:    ErrMalformedRecording,
		Status:  422,
		Message: fmt.Sprintf("malformed recording %s: %s", path, reason),
		Details: map[string]any{"path": path, "reason": reason},
	}
}

// NewMissingField creates a 422 error when the event field is absent.
func NewMissingField(path, field string) *PaintError {
	return &PaintError{
		Code:    ErrMissingField,
		Status:  422,
		Message: fmt.Sprintf("recording %s has no %q event field", path, field),
		Details: map[string]any{"path": path, "field": field},
	}
}

// NewUnknownStyle creates a 422 error for a color or attribute name outside the supported set.
func NewUnknownStyle(token, name string) *PaintError {
	return &PaintError{
		Code:    ErrUnknownStyle,
		Status:  422,
		Message: fmt.Sprintf("unknown color or attribute %q for %q", name, token),
		Details: map[string]any{"token": token, "name": name},
	}
}

// NewDuplicateToken creates a 422 error when a lexicon defines the same token twice.
func NewDuplicateToken(token string, firstLine, line int) *PaintError {
	return &PaintError{
		Code:    ErrDuplicateToken,
		Status:  422,
		Message: fmt.Sprintf("token %q defined twice (lines %d and %d)", token, firstLine, line),
		Details: map[string]any{"token": token, "first_line": firstLine, "line": line},
	}
}

// NewSpanMismatch creates a 500 error when a matched token's span does not fit the event sequence.
func NewSpanMismatch(token string, start, end, length int) *PaintError {
	return &PaintError{
		Code:    ErrSpanMismatch,
		Status:  500,
		Message: fmt.Sprintf("token %q spans events [%d,%d) which does not fit %d events", token, start, end, length),
		Details: map[string]any{"token": token, "start": start, "end": end, "events": length},
	}
}

// NewCancelled creates a 499 error when an operation is cancelled mid-way.
func NewCancelled(operation string) *PaintError {
	return &PaintError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", operation),
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The message stays generic; the cause is kept in Details["internal_error"]
// for logging.
func NewInternal(err error) *PaintError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &PaintError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// Is checks if an error (or anything it wraps) is a PaintError with the given code.
func Is(err error, code ErrorCode) bool {
	var pErr *PaintError
	if stderrors.As(err, &pErr) {
		return pErr.Code == code
	}
	return false
}

// As returns the PaintError in err's chain, or nil.
func As(err error) *PaintError {
	var pErr *PaintError
	if stderrors.As(err, &pErr) {
		return pErr
	}
	return nil
}

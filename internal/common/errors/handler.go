// internal/common/errors/handler.go
package errors

import (
	"errors"
	"time"
)

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// IsRetryable reports whether a pass-level retry is warranted for err.
func IsRetryable(err error) bool {
	return Normalize(err).Retryable
}

// HasCode reports whether err carries the given error code.
func HasCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code == code
	}
	return false
}

// Package errors provides standardized error handling for the stock monitoring pipeline.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Calculator input rejected (negative or unparseable values).
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// EOQ denominator is zero or negative. Operator-visible, never retried.
	ErrCodeConfigurationInvalid ErrorCode = "CONFIGURATION_INVALID"

	// Product, user or notification store cannot be reached. The whole pass
	// is retried with bounded attempts.
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"

	// A single recipient could not be delivered to. Counted, never aborts
	// the batch.
	ErrCodeRecipientDeliveryFailed ErrorCode = "RECIPIENT_DELIVERY_FAILED"

	// Inbound stock-change event failed schema validation. Event is dropped.
	ErrCodeEventPayloadInvalid ErrorCode = "EVENT_PAYLOAD_INVALID"

	// A scan trigger arrived while another scan was in flight.
	ErrCodeScanInFlight ErrorCode = "SCAN_IN_FLIGHT"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewValidationFailedError creates a non-retryable calculator input error.
func NewValidationFailedError(field, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   fmt.Sprintf("Invalid value for %s", field),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewConfigurationInvalidError creates a non-retryable configuration error.
func NewConfigurationInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigurationInvalid,
		Message:   "Configuration invalid",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreUnavailableError creates a retryable store error.
func NewStoreUnavailableError(store string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreUnavailable,
		Message:   fmt.Sprintf("Store '%s' unavailable", store),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRecipientDeliveryFailedError creates a per-recipient delivery error.
func NewRecipientDeliveryFailedError(userID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecipientDeliveryFailed,
		Message:   "Notification delivery failed for recipient",
		Details:   fmt.Sprintf("userId: %s, error: %s", userID, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEventPayloadInvalidError creates a non-retryable event validation error.
func NewEventPayloadInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeEventPayloadInvalid,
		Message:   "Stock-change event payload failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewScanInFlightError reports a rejected overlapping trigger.
func NewScanInFlightError() *StandardError {
	return &StandardError{
		Code:      ErrCodeScanInFlight,
		Message:   "A scan pass is already in flight",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// GetRetryCount returns the pass-level retry budget for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStoreUnavailable:
		return 3
	default:
		return 0
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// Package errors provides standardized error handling for the dialogue
// client and its external collaborators.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeEstimateRequestFailed ErrorCode = "ESTIMATE_REQUEST_FAILED"
	ErrCodeMalformedResponse     ErrorCode = "MALFORMED_RESPONSE"
	ErrCodeArtifactCreateFailed  ErrorCode = "ARTIFACT_CREATE_FAILED"
	ErrCodeLeadDeliveryFailed    ErrorCode = "LEAD_DELIVERY_FAILED"
	ErrCodeTranscriptSaveFailed  ErrorCode = "TRANSCRIPT_SAVE_FAILED"
	ErrCodePackageExportFailed   ErrorCode = "PACKAGE_EXPORT_FAILED"
	ErrCodeRequestInFlight       ErrorCode = "REQUEST_IN_FLIGHT"
	ErrCodeSessionClosed         ErrorCode = "SESSION_CLOSED"
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

// CodeOf extracts the ErrorCode from an error, or UNKNOWN_ERROR.
func CodeOf(err error) string {
	if stdErr, ok := err.(*StandardError); ok {
		return string(stdErr.Code)
	}
	return "UNKNOWN_ERROR"
}

// IsRetryable reports whether the error is marked retryable. Retryable here
// means a manual resend may succeed; the client never retries automatically.
func IsRetryable(err error) bool {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr.Retryable
	}
	return false
}

// NewEstimateRequestFailedError creates a transport error for the estimation service.
func NewEstimateRequestFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEstimateRequestFailed,
		Message:   "Estimation service request failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedResponseError creates an error for a response that carries
// neither questions nor a completion marker.
func NewMalformedResponseError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedResponse,
		Message:   "Estimation service returned an unrecognized response",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewArtifactCreateFailedError creates a transport error for the document service.
func NewArtifactCreateFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeArtifactCreateFailed,
		Message:   "Estimate document creation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLeadDeliveryFailedError creates a transport error for the lead sink.
func NewLeadDeliveryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLeadDeliveryFailed,
		Message:   "Lead delivery failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTranscriptSaveFailedError creates a transport error for the chat store.
func NewTranscriptSaveFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTranscriptSaveFailed,
		Message:   "Transcript save failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPackageExportFailedError creates a transport error for the packaging service.
func NewPackageExportFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePackageExportFailed,
		Message:   "Session package export failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRequestInFlightError is returned when a submit arrives while a service
// request is still outstanding.
func NewRequestInFlightError() *StandardError {
	return &StandardError{
		Code:      ErrCodeRequestInFlight,
		Message:   "A request to the estimation service is already in flight",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionClosedError is returned for operations on a torn-down session.
func NewSessionClosedError() *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionClosed,
		Message:   "Session has been closed",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

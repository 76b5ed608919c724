package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the module.
type ErrorCode string

// Turn-level error codes
const (
	ErrParticipantFailed  ErrorCode = "PARTICIPANT_FAILED"
	ErrParticipantTimeout ErrorCode = "PARTICIPANT_TIMEOUT"
	ErrRateLimited        ErrorCode = "RATE_LIMITED"
	ErrSpeakerMismatch    ErrorCode = "SPEAKER_MISMATCH"
	ErrScriptExhausted    ErrorCode = "SCRIPT_EXHAUSTED"
	ErrSinkFailed         ErrorCode = "SINK_FAILED"
)

// Precondition error codes
const (
	ErrInvariantViolation ErrorCode = "INVARIANT_VIOLATION"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code        ErrorCode `json:"code"`
	Message     string    `json:"message"`
	Participant string    `json:"participant,omitempty"`
	Retryable   bool      `json:"retryable"`
	Cause       error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewInvariantViolation wraps a precondition failure.
func NewInvariantViolation(cause error) *Error {
	return NewError(ErrInvariantViolation, "invariant violation").WithCause(cause)
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithParticipant sets the participant name.
func (e *Error) WithParticipant(name string) *Error {
	e.Participant = name
	return e
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsInvariantViolation reports whether err is a precondition failure.
func IsInvariantViolation(err error) bool {
	return GetErrorCode(err) == ErrInvariantViolation
}

// ParticipantError reports that a participant failed to produce a message.
type ParticipantError struct {
	Participant string
	Sequence    int
	Cause       error
}

// NewParticipantError creates a ParticipantError for the turn that would have
// received sequence number seq.
func NewParticipantError(participant string, seq int, cause error) *ParticipantError {
	return &ParticipantError{Participant: participant, Sequence: seq, Cause: cause}
}

func (e *ParticipantError) Error() string {
	return fmt.Sprintf("participant %q failed at turn %d: %v", e.Participant, e.Sequence, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ParticipantError) Unwrap() error {
	return e.Cause
}

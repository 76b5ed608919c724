package groupchat

import "errors"

// Precondition failures. Run wraps them in a types.Error with code
// INVARIANT_VIOLATION; match with errors.Is.
var (
	ErrNoParticipants       = errors.New("at least one participant is required")
	ErrNilParticipant       = errors.New("participant is nil")
	ErrEmptyName            = errors.New("participant name is empty")
	ErrDuplicateParticipant = errors.New("duplicate participant name")
	ErrReservedSpeaker      = errors.New("participant name is reserved for the task message")
	ErrConditionFired       = errors.New("termination condition already fired; reset it before a new run")
	ErrRunInProgress        = errors.New("a run is already in progress")
)

package actor

import "errors"

var (
	// ErrInvalidKey indicates a key with a missing component.
	ErrInvalidKey = errors.New("invalid actor key")

	// ErrUnknownKind indicates a key whose kind has no registered entity.
	ErrUnknownKind = errors.New("unknown entity kind")

	// ErrActivationFailed indicates the entity state could not be loaded.
	ErrActivationFailed = errors.New("activation failed")

	// ErrMailboxFull indicates the per-entity queue is at capacity.
	ErrMailboxFull = errors.New("mailbox full")

	// ErrRuntimeClosed indicates the runtime is shutting down.
	ErrRuntimeClosed = errors.New("runtime closed")
)

// errPassivated signals that an activation shut down with messages still
// queued. Dispatch treats it as a cue to re-activate and retry, so callers
// never observe it.
var errPassivated = errors.New("activation passivated")

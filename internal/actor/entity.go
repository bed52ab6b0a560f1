package actor

// State is the in-memory representation of one entity instance.
type State = any

// Command mutates entity state. Query reads it.
type (
	Command = any
	Query   = any
)

// Entity defines the behavior of one entity kind. Implementations must be
// stateless; all instance state lives in the State values passed in and out.
//
// Apply must not mutate the given state in place. It returns the successor
// state, which the runtime persists before making it current. Returning an
// error leaves the current state untouched.
type Entity interface {
	// Kind names the entity type. It becomes the Kind component of keys.
	Kind() string

	// NewState returns the state of an instance that has never been seen.
	NewState() State

	// Apply executes a command against state and returns the successor
	// state plus a caller-visible result.
	Apply(state State, cmd Command) (State, any, error)

	// Answer executes a read-only query against state.
	Answer(state State, query Query) (any, error)

	// Snapshot encodes state for durable storage.
	Snapshot(state State) ([]byte, error)

	// Restore decodes state produced by Snapshot.
	Restore(data []byte) (State, error)
}

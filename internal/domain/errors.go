package domain

import "errors"

// Every command failure wraps one of these sentinels; callers branch with
// errors.Is and read the wrapped message for the failing precondition.
var (
	// Lifecycle errors
	ErrAlreadyExists = errors.New("account already exists")
	ErrNotFound      = errors.New("not found")
	ErrNotActive     = errors.New("account is not active")

	// Command validation errors
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNoChange        = errors.New("no change")

	// Reversal errors
	ErrAlreadyReversed       = errors.New("entry already reversed")
	ErrCannotReverseReversal = errors.New("cannot reverse a reversal entry")

	// Period errors
	ErrInvalidPeriod = errors.New("invalid period")

	// Protection errors
	ErrSystemAccountProtected = errors.New("system account is protected")
)

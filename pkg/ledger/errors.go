package ledger

import "errors"

// Stable error kinds surfaced by the engine. Callers classify with
// errors.Is; anything not matching one of these is an internal storage
// failure.
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrConflict          = errors.New("too many concurrent updates")
)

// ErrVersionMismatch is returned by a store ConditionalWrite when another
// writer committed first. The engine retries these internally; callers see
// ErrConflict once the retry budget is spent.
var ErrVersionMismatch = errors.New("version mismatch")

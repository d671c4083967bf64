// Package errs defines the error-kind sentinels shared across the codec, kv,
// pool, and nstore packages. Errors this module raises itself wrap one of
// these via fmt.Errorf("%w: ...", errs.X, ...), so callers can classify
// failures with errors.Is regardless of which package raised them. An error
// returned by a caller-supplied function passed to Pool.Apply is passed
// through unchanged.
package errs

import "errors"

var (
	// ErrInvalidInput marks oversize keys/values, arity mismatches,
	// unsupported scalar types, or malformed pattern lengths. Non-retryable.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCorruptData marks a codec decode failure mid-stream, or an nstore
	// row that decodes to the wrong arity. Non-retryable.
	ErrCorruptData = errors.New("corrupt data")

	// ErrSubstrateFailure marks an I/O or locking error from the underlying
	// bbolt substrate. Not automatically retried by this module.
	ErrSubstrateFailure = errors.New("substrate failure")

	// ErrIllegalState marks a planner or index-selection failure that
	// indicates a library bug, never a user error: the permutation set is
	// supposed to guarantee every pattern has a covering index.
	ErrIllegalState = errors.New("illegal state")

	// ErrUserFailure marks a panic recovered from a user-supplied callable
	// passed to Pool.Apply. An error the callable returns is propagated to
	// the caller as-is, without this wrapper.
	ErrUserFailure = errors.New("user failure")
)

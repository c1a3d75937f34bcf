package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned on status queries for unknown withdrawal ids.
	ErrNotFound = errors.New("withdrawal not found")

	// ErrRetryExhausted marks a withdrawal whose retry or fee-bump budget
	// ran out before the chain accepted its transaction.
	ErrRetryExhausted = errors.New("retry budget exhausted")

	// ErrCannotCancel is returned when cancellation is requested after the
	// withdrawal already reached the transaction queue (nonce may be
	// committed).
	ErrCannotCancel = errors.New("withdrawal can no longer be cancelled")
)

// ValidationError rejects a malformed submission before admission. It
// carries the offending field and never leaves side effects behind.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TransientNetworkError wraps an RPC failure that is expected to clear on
// retry. It never fails a withdrawal on its own.
type TransientNetworkError struct {
	Network Network
	Err     error
}

func (e *TransientNetworkError) Error() string {
	return fmt.Sprintf("transient %s rpc error: %v", e.Network, e.Err)
}

func (e *TransientNetworkError) Unwrap() error { return e.Err }

// ChainRejection is a definitive rejection reported by the network, such
// as insufficient funds or a reverted transaction. It is terminal.
type ChainRejection struct {
	Network Network
	Reason  string
}

func (e *ChainRejection) Error() string {
	return fmt.Sprintf("rejected by %s: %s", e.Network, e.Reason)
}

// IsTransient reports whether err may clear on retry. Anything that is
// not a definitive chain rejection is treated as retryable.
func IsTransient(err error) bool {
	var rejection *ChainRejection
	return err != nil && !errors.As(err, &rejection)
}

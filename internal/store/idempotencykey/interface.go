package idempotencykey

import (
	"gorm.io/gorm"
)

// ReserveResult reports the outcome of an atomic reservation attempt.
type ReserveResult struct {
	// Admitted is true when this caller won the key. When false,
	// WithdrawalID carries the id of the earlier admission.
	Admitted     bool
	WithdrawalID string
}

type IStore interface {
	// Reserve claims key for withdrawalID. Concurrent callers with the
	// same key see exactly one Admitted result; the rest receive the
	// already-reserved withdrawal id. The insert relies on the primary-key
	// constraint, never on check-then-insert.
	Reserve(tx *gorm.DB, key, withdrawalID string) (*ReserveResult, error)
	DeleteByWithdrawalIDs(tx *gorm.DB, ids []string) error
}

package statustracker

import (
	"gorm.io/gorm"

	"github.com/dwarvesf/withdrawal-engine/internal/model"
)

// Transition carries the optional details recorded with a state change.
type Transition struct {
	TxHash string
	Reason string
}

// ITracker is the authoritative state machine and query surface for
// every withdrawal id. Emit enforces forward-only transitions; readers
// always observe the latest emitted transition.
type ITracker interface {
	Emit(withdrawalID string, state model.WithdrawalState, details Transition) error
	// EmitInTx records the transition inside the caller's transaction so
	// a state change can commit or roll back with its surrounding writes.
	EmitInTx(tx *gorm.DB, withdrawalID string, state model.WithdrawalState, details Transition) error
	// RecordReplacement appends a history-only replaced event when a
	// transaction is fee-bumped. The withdrawal's current state does not
	// change.
	RecordReplacement(withdrawalID, supersededTxHash, replacementTxHash string) error
	SetConfirmations(withdrawalID string, txHash string, confirmations int64)
	GetStatus(withdrawalID string) (*model.StatusRecord, error)
	// Forget drops in-memory records, e.g. after a retention sweep has
	// deleted their persisted history.
	Forget(withdrawalIDs []string)
}

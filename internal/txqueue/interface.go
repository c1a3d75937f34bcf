package txqueue

import (
	"github.com/dwarvesf/withdrawal-engine/internal/model"
)

// PartitionStatus is the operability snapshot for one
// (network, sourceAccount) sequencer.
type PartitionStatus struct {
	Network            model.Network `json:"network"`
	SourceAccount      string        `json:"source_account"`
	InFlight           int64         `json:"in_flight"`
	LastAllocatedNonce *uint64       `json:"last_allocated_nonce,omitempty"`
}

// Status is an eventually-consistent snapshot of the whole queue.
type Status struct {
	Partitions              []PartitionStatus `json:"partitions"`
	TotalInFlight           int64             `json:"total_in_flight"`
	OldestUnconfirmedAgeSec float64           `json:"oldest_unconfirmed_age_seconds"`
}

// Notifier receives terminal-state events, e.g. for webhook delivery.
type Notifier interface {
	WithdrawalSettled(withdrawalID string, state model.WithdrawalState, txHash string, reason string)
}

// IQueue sequences admitted withdrawals into broadcast transactions.
type IQueue interface {
	// Enqueue hands an admitted request to its partition's sequencer.
	// Requests enqueue in admission order per partition and block only
	// when the partition's backlog is full.
	Enqueue(request *model.WithdrawalRequest) error
	// Cancel prevents a not-yet-dequeued withdrawal from ever being
	// sequenced. It fails with model.ErrCannotCancel once the request
	// reached the sequencer.
	Cancel(withdrawalID string) error
	// Resume re-enqueues persisted withdrawals that never reached a
	// terminal state and re-watches their broadcast transactions, so a
	// restart picks up exactly where the previous process stopped.
	Resume() error
	Status() Status
	Start()
	Stop()
}

package requestqueue

import (
	"github.com/dwarvesf/withdrawal-engine/internal/model"
)

// SubmitInput is one withdrawal intent as received from the API layer.
// Amount is a decimal string; it is parsed into minor units here and
// never handled as a float.
type SubmitInput struct {
	Amount         string
	ToAddress      string
	TokenAddress   string
	Network        string
	IdempotencyKey string
}

// QueueStatus is a non-blocking operability snapshot of admissions.
type QueueStatus struct {
	PendingPerNetwork    map[model.Network]int64 `json:"pending_per_network"`
	OldestPendingAgeSec  float64                 `json:"oldest_pending_age_seconds"`
	TotalAdmitted        int64                   `json:"total_admitted"`
	TotalDuplicateHits   int64                   `json:"total_duplicate_hits"`
	TotalValidationFails int64                   `json:"total_validation_failures"`
}

// Dispatcher is the downstream consumer of admitted requests, normally
// the transaction queue.
type Dispatcher interface {
	Enqueue(request *model.WithdrawalRequest) error
	Cancel(withdrawalID string) error
}

// IQueue validates and admits withdrawal requests exactly once per
// idempotency key.
type IQueue interface {
	Submit(input SubmitInput) (string, error)
	Cancel(withdrawalID string) error
	QueueStatus() QueueStatus
}

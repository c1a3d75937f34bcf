package store

import (
	"github.com/dwarvesf/withdrawal-engine/internal/store/idempotencykey"
	"github.com/dwarvesf/withdrawal-engine/internal/store/queuedtransaction"
	"github.com/dwarvesf/withdrawal-engine/internal/store/statustransition"
	"github.com/dwarvesf/withdrawal-engine/internal/store/withdrawalrequest"
)

type Store struct {
	WithdrawalRequest withdrawalrequest.IStore
	QueuedTransaction queuedtransaction.IStore
	StatusTransition  statustransition.IStore
	IdempotencyKey    idempotencykey.IStore
}

func New() *Store {
	return &Store{
		WithdrawalRequest: withdrawalrequest.New(),
		QueuedTransaction: queuedtransaction.New(),
		StatusTransition:  statustransition.New(),
		IdempotencyKey:    idempotencykey.New(),
	}
}

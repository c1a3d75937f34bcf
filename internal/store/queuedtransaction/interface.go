package queuedtransaction

import (
	"gorm.io/gorm"

	"github.com/dwarvesf/withdrawal-engine/internal/model"
)

type IStore interface {
	Create(tx *gorm.DB, queuedTx *model.QueuedTransaction) (*model.QueuedTransaction, error)
	GetActiveByWithdrawalID(tx *gorm.DB, withdrawalID string) (*model.QueuedTransaction, error)
	ListByWithdrawalID(tx *gorm.DB, withdrawalID string) ([]model.QueuedTransaction, error)
	MarkSuperseded(tx *gorm.DB, id uint) error
	UpdateBroadcast(tx *gorm.DB, id uint, txHash string) error
	UpdateConfirmations(tx *gorm.DB, id uint, confirmations int64) error
	DeleteByWithdrawalIDs(tx *gorm.DB, ids []string) error
}

package queuedtransaction

import (
	"time"

	"gorm.io/gorm"

	"github.com/dwarvesf/withdrawal-engine/internal/model"
)

type Store struct {
}

func New() IStore {
	return &Store{}
}

func (s *Store) Create(tx *gorm.DB, queuedTx *model.QueuedTransaction) (*model.QueuedTransaction, error) {
	return queuedTx, tx.Create(queuedTx).Error
}

// GetActiveByWithdrawalID returns the one transaction currently standing
// for the withdrawal, skipping fee-bumped predecessors.
func (s *Store) GetActiveByWithdrawalID(tx *gorm.DB, withdrawalID string) (*model.QueuedTransaction, error) {
	var queuedTx model.QueuedTransaction
	err := tx.Where("withdrawal_id = ? AND superseded = ?", withdrawalID, false).
		Order("id DESC").
		First(&queuedTx).Error
	if err != nil {
		return nil, err
	}
	return &queuedTx, nil
}

func (s *Store) ListByWithdrawalID(tx *gorm.DB, withdrawalID string) ([]model.QueuedTransaction, error) {
	var queuedTxs []model.QueuedTransaction
	err := tx.Where("withdrawal_id = ?", withdrawalID).
		Order("id ASC").
		Find(&queuedTxs).Error
	if err != nil {
		return nil, err
	}
	return queuedTxs, nil
}

func (s *Store) MarkSuperseded(tx *gorm.DB, id uint) error {
	return tx.Model(&model.QueuedTransaction{}).
		Where("id = ?", id).
		Update("superseded", true).Error
}

func (s *Store) UpdateBroadcast(tx *gorm.DB, id uint, txHash string) error {
	return tx.Model(&model.QueuedTransaction{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"tx_hash":      txHash,
			"broadcast_at": time.Now(),
		}).Error
}

func (s *Store) UpdateConfirmations(tx *gorm.DB, id uint, confirmations int64) error {
	return tx.Model(&model.QueuedTransaction{}).
		Where("id = ?", id).
		Update("confirmations", confirmations).Error
}

func (s *Store) DeleteByWithdrawalIDs(tx *gorm.DB, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Where("withdrawal_id IN ?", ids).Delete(&model.QueuedTransaction{}).Error
}

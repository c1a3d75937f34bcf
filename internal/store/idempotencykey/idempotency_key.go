package idempotencykey

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dwarvesf/withdrawal-engine/internal/model"
)

type Store struct {
}

func New() IStore {
	return &Store{}
}

func (s *Store) Reserve(tx *gorm.DB, key, withdrawalID string) (*ReserveResult, error) {
	entry := model.IdempotencyKey{
		Key:          key,
		WithdrawalID: withdrawalID,
		CreatedAt:    time.Now(),
	}

	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoNothing: true,
	}).Create(&entry)
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected > 0 {
		return &ReserveResult{Admitted: true, WithdrawalID: withdrawalID}, nil
	}

	var existing model.IdempotencyKey
	if err := tx.Where("key = ?", key).First(&existing).Error; err != nil {
		return nil, err
	}

	return &ReserveResult{Admitted: false, WithdrawalID: existing.WithdrawalID}, nil
}

func (s *Store) DeleteByWithdrawalIDs(tx *gorm.DB, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Where("withdrawal_id IN ?", ids).Delete(&model.IdempotencyKey{}).Error
}

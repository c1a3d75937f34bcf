package statustransition

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

func (s *Store) Create(tx *gorm.DB, transition *model.StatusTransition) (*model.StatusTransition, error) {
	return transition, tx.Create(transition).Error
}

func (s *Store) ListByWithdrawalID(tx *gorm.DB, withdrawalID string) ([]model.StatusTransition, error) {
	var transitions []model.StatusTransition
	err := tx.Where("withdrawal_id = ?", withdrawalID).
		Order("id ASC").
		Find(&transitions).Error
	if err != nil {
		return nil, err
	}
	return transitions, nil
}

func (s *Store) ListTerminalBefore(tx *gorm.DB, cutoff time.Time) ([]string, error) {
	var ids []string
	err := tx.Model(&model.StatusTransition{}).
		Where("state IN ? AND occurred_at < ?", []model.WithdrawalState{
			model.WithdrawalStateConfirmed,
			model.WithdrawalStateFailed,
		}, cutoff).
		Distinct("withdrawal_id").
		Pluck("withdrawal_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) ListOpenWithdrawalIDs(tx *gorm.DB) ([]string, error) {
	// States only move forward, so a withdrawal is open exactly when no
	// terminal transition was ever recorded for it.
	terminal := tx.Model(&model.StatusTransition{}).
		Select("withdrawal_id").
		Where("state IN ?", []model.WithdrawalState{
			model.WithdrawalStateConfirmed,
			model.WithdrawalStateFailed,
		})

	var ids []string
	err := tx.Model(&model.StatusTransition{}).
		Where("withdrawal_id NOT IN (?)", terminal).
		Distinct("withdrawal_id").
		Pluck("withdrawal_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) DeleteByWithdrawalIDs(tx *gorm.DB, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Unscoped().Where("withdrawal_id IN ?", ids).Delete(&model.StatusTransition{}).Error
}

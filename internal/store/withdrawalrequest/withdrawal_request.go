package withdrawalrequest

import (
	"gorm.io/gorm"

	"github.com/dwarvesf/withdrawal-engine/internal/model"
)

type Store struct {
}

func New() IStore {
	return &Store{}
}

func (s *Store) Create(tx *gorm.DB, request *model.WithdrawalRequest) (*model.WithdrawalRequest, error) {
	return request, tx.Create(request).Error
}

func (s *Store) GetByID(tx *gorm.DB, id string) (*model.WithdrawalRequest, error) {
	var request model.WithdrawalRequest
	err := tx.Where("id = ?", id).First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (s *Store) GetByIdempotencyKey(tx *gorm.DB, key string) (*model.WithdrawalRequest, error) {
	var request model.WithdrawalRequest
	err := tx.Where("idempotency_key = ?", key).First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (s *Store) DeleteByIDs(tx *gorm.DB, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Where("id IN ?", ids).Delete(&model.WithdrawalRequest{}).Error
}

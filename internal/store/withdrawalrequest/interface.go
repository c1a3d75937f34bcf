package withdrawalrequest

import (
	"gorm.io/gorm"

	"github.com/dwarvesf/withdrawal-engine/internal/model"
)

type IStore interface {
	Create(tx *gorm.DB, request *model.WithdrawalRequest) (*model.WithdrawalRequest, error)
	GetByID(tx *gorm.DB, id string) (*model.WithdrawalRequest, error)
	GetByIdempotencyKey(tx *gorm.DB, key string) (*model.WithdrawalRequest, error)
	DeleteByIDs(tx *gorm.DB, ids []string) error
}

package model

import "time"

// IdempotencyKey maps a deduplication key to the withdrawal it admitted.
// The primary-key constraint is what makes reservation atomic.
type IdempotencyKey struct {
	Key          string    `json:"key" gorm:"column:key;type:varchar(255);primaryKey"`
	WithdrawalID string    `json:"withdrawal_id" gorm:"column:withdrawal_id;type:uuid;not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at"`
}

func (IdempotencyKey) TableName() string {
	return "idempotency_keys"
}

package model

import (
	"time"
)

// WithdrawalRequest is immutable once admitted. Amount is a fixed-point
// integer in the token's minor units, kept as a decimal string.
type WithdrawalRequest struct {
	ID             string    `json:"id" gorm:"column:id;type:uuid;primaryKey"`
	Amount         string    `json:"amount" gorm:"column:amount;type:varchar(78);not null"`
	ToAddress      string    `json:"to_address" gorm:"column:to_address;type:varchar(255);not null"`
	TokenAddress   string    `json:"token_address" gorm:"column:token_address;type:varchar(255);not null"`
	Network        Network   `json:"network" gorm:"column:network;type:varchar(50);not null;index"`
	SourceAccount  string    `json:"source_account" gorm:"column:source_account;type:varchar(255);not null"`
	IdempotencyKey string    `json:"idempotency_key" gorm:"column:idempotency_key;type:varchar(255);not null;uniqueIndex"`
	CreatedAt      time.Time `json:"created_at" gorm:"column:created_at"`
}

func (WithdrawalRequest) TableName() string {
	return "withdrawal_requests"
}

// IsNativeAsset reports whether the request moves the network's native
// asset rather than a token contract balance.
func (w *WithdrawalRequest) IsNativeAsset() bool {
	return w.TokenAddress == "" || IsZeroAddress(w.TokenAddress)
}

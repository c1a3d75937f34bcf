package model

import (
	"time"

	"gorm.io/gorm"
)

// QueuedTransaction occupies one (network, sourceAccount) nonce slot. A
// fee-bumped replacement creates a new row on the same nonce and marks
// the superseded row, so the full audit history survives.
type QueuedTransaction struct {
	gorm.Model
	WithdrawalID  string     `json:"withdrawal_id" gorm:"column:withdrawal_id;type:uuid;not null;index"`
	Network       Network    `json:"network" gorm:"column:network;type:varchar(50);not null;index:idx_partition_nonce"`
	SourceAccount string     `json:"source_account" gorm:"column:source_account;type:varchar(255);not null;index:idx_partition_nonce"`
	Nonce         uint64     `json:"nonce" gorm:"column:nonce;not null;index:idx_partition_nonce"`
	GasFeeCap     string     `json:"gas_fee_cap" gorm:"column:gas_fee_cap;type:varchar(78)"`
	GasTipCap     string     `json:"gas_tip_cap" gorm:"column:gas_tip_cap;type:varchar(78)"`
	TxHash        string     `json:"tx_hash" gorm:"column:tx_hash;type:varchar(255)"`
	BroadcastAt   *time.Time `json:"broadcast_at" gorm:"column:broadcast_at"`
	Confirmations int64      `json:"confirmations" gorm:"column:confirmations;default:0"`
	Superseded    bool       `json:"superseded" gorm:"column:superseded;default:false"`
}

func (QueuedTransaction) TableName() string {
	return "queued_transactions"
}

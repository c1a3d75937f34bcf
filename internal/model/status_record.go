package model

import (
	"time"

	"gorm.io/gorm"
)

// StatusTransition is one append-only history row for a withdrawal.
type StatusTransition struct {
	gorm.Model
	WithdrawalID string          `json:"withdrawalId" gorm:"column:withdrawal_id;type:uuid;not null;index"`
	State        WithdrawalState `json:"state" gorm:"column:state;type:varchar(50);not null"`
	TxHash       string          `json:"txHash" gorm:"column:tx_hash;type:varchar(255)"`
	Reason       string          `json:"reason" gorm:"column:reason;type:text"`
	OccurredAt   time.Time       `json:"occurredAt" gorm:"column:occurred_at;not null"`
}

func (StatusTransition) TableName() string {
	return "status_transitions"
}

// StatusRecord is the queryable projection for one withdrawal id: the
// current state plus the ordered transition history.
type StatusRecord struct {
	WithdrawalID  string             `json:"withdrawalId"`
	State         WithdrawalState    `json:"state"`
	TxHash        string             `json:"txHash,omitempty"`
	Confirmations int64              `json:"confirmations"`
	Error         string             `json:"error,omitempty"`
	History       []StatusTransition `json:"history"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

package statustransition

import (
	"time"

	"gorm.io/gorm"

	"github.com/dwarvesf/withdrawal-engine/internal/model"
)

type IStore interface {
	Create(tx *gorm.DB, transition *model.StatusTransition) (*model.StatusTransition, error)
	ListByWithdrawalID(tx *gorm.DB, withdrawalID string) ([]model.StatusTransition, error)
	// ListTerminalBefore returns withdrawal ids that reached a terminal
	// state before the cutoff, for retention sweeps.
	ListTerminalBefore(tx *gorm.DB, cutoff time.Time) ([]string, error)
	// ListOpenWithdrawalIDs returns every withdrawal id that has not yet
	// reached a terminal state, for crash recovery on startup.
	ListOpenWithdrawalIDs(tx *gorm.DB) ([]string, error)
	DeleteByWithdrawalIDs(tx *gorm.DB, ids []string) error
}

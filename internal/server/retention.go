package server

import (
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/dwarvesf/withdrawal-engine/internal/statustracker"
	"github.com/dwarvesf/withdrawal-engine/internal/store"
	"github.com/dwarvesf/withdrawal-engine/internal/utils/config"
	"github.com/dwarvesf/withdrawal-engine/internal/utils/logger"
)

// collectSettledWithdrawals removes withdrawals that settled before the
// retention window, together with their transactions, history and
// idempotency reservations. One transaction per sweep so a partial
// delete never strands a withdrawal without its history.
func collectSettledWithdrawals(db *gorm.DB, s *store.Store, tracker statustracker.ITracker, appConfig *config.AppConfig, logger *logger.Logger) error {
	cutoff := time.Now().Add(-appConfig.Queue.RetentionWindow)

	ids, err := s.StatusTransition.ListTerminalBefore(db, cutoff)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	err = store.DoInTx(db, func(tx *gorm.DB) error {
		if err := s.QueuedTransaction.DeleteByWithdrawalIDs(tx, ids); err != nil {
			return err
		}
		if err := s.StatusTransition.DeleteByWithdrawalIDs(tx, ids); err != nil {
			return err
		}
		if err := s.IdempotencyKey.DeleteByWithdrawalIDs(tx, ids); err != nil {
			return err
		}
		return s.WithdrawalRequest.DeleteByIDs(tx, ids)
	})
	if err != nil {
		return err
	}

	tracker.Forget(ids)

	logger.Info("[collectSettledWithdrawals] removed settled withdrawals", map[string]string{
		"count":  strconv.Itoa(len(ids)),
		"cutoff": cutoff.Format(time.RFC3339),
	})
	return nil
}

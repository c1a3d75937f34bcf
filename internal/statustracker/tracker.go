package statustracker

import (
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/dwarvesf/withdrawal-engine/internal/model"
	"github.com/dwarvesf/withdrawal-engine/internal/store"
	"github.com/dwarvesf/withdrawal-engine/internal/utils/logger"
)

type Tracker struct {
	db     *gorm.DB
	store  *store.Store
	logger *logger.Logger

	mu      sync.RWMutex
	records map[string]*model.StatusRecord
}

func New(db *gorm.DB, s *store.Store, logger *logger.Logger) ITracker {
	return &Tracker{
		db:      db,
		store:   s,
		logger:  logger,
		records: make(map[string]*model.StatusRecord),
	}
}

func (t *Tracker) Emit(withdrawalID string, state model.WithdrawalState, details Transition) error {
	return t.EmitInTx(t.db, withdrawalID, state, details)
}

func (t *Tracker) EmitInTx(tx *gorm.DB, withdrawalID string, state model.WithdrawalState, details Transition) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, ok := t.records[withdrawalID]
	if !ok {
		if state != model.WithdrawalStatePending {
			return fmt.Errorf("unknown withdrawal %s: first transition must be %s, got %s",
				withdrawalID, model.WithdrawalStatePending, state)
		}
		record = &model.StatusRecord{
			WithdrawalID: withdrawalID,
			State:        model.WithdrawalStatePending,
		}
		t.records[withdrawalID] = record
	} else {
		if !record.State.CanTransition(state) {
			return fmt.Errorf("illegal transition for withdrawal %s: %s -> %s",
				withdrawalID, record.State, state)
		}
	}

	transition := &model.StatusTransition{
		WithdrawalID: withdrawalID,
		State:        state,
		TxHash:       details.TxHash,
		Reason:       details.Reason,
		OccurredAt:   time.Now(),
	}
	if _, err := t.store.StatusTransition.Create(tx, transition); err != nil {
		t.logger.Error("[Emit][Create] failed to persist transition", map[string]string{
			"withdrawalID": withdrawalID,
			"state":        string(state),
			"error":        err.Error(),
		})
		return err
	}

	record.State = state
	record.UpdatedAt = transition.OccurredAt
	record.History = append(record.History, *transition)
	if details.TxHash != "" {
		record.TxHash = details.TxHash
	}
	if state == model.WithdrawalStateFailed {
		record.Error = details.Reason
	}

	return nil
}

func (t *Tracker) RecordReplacement(withdrawalID, supersededTxHash, replacementTxHash string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, ok := t.records[withdrawalID]
	if !ok {
		return model.ErrNotFound
	}
	if record.State != model.WithdrawalStateSubmitted && record.State != model.WithdrawalStateConfirming {
		return fmt.Errorf("withdrawal %s cannot be replaced in state %s", withdrawalID, record.State)
	}

	transition := &model.StatusTransition{
		WithdrawalID: withdrawalID,
		State:        model.WithdrawalEventReplaced,
		TxHash:       replacementTxHash,
		Reason:       fmt.Sprintf("superseded %s", supersededTxHash),
		OccurredAt:   time.Now(),
	}
	if _, err := t.store.StatusTransition.Create(t.db, transition); err != nil {
		return err
	}

	record.History = append(record.History, *transition)
	record.TxHash = replacementTxHash
	record.UpdatedAt = transition.OccurredAt

	return nil
}

func (t *Tracker) SetConfirmations(withdrawalID string, txHash string, confirmations int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, ok := t.records[withdrawalID]
	if !ok {
		return
	}
	if txHash != "" {
		record.TxHash = txHash
	}
	record.Confirmations = confirmations
}

func (t *Tracker) Forget(withdrawalIDs []string) {
	t.mu.Lock()
	for _, id := range withdrawalIDs {
		delete(t.records, id)
	}
	t.mu.Unlock()
}

func (t *Tracker) GetStatus(withdrawalID string) (*model.StatusRecord, error) {
	t.mu.RLock()
	record, ok := t.records[withdrawalID]
	if ok {
		snapshot := *record
		snapshot.History = append([]model.StatusTransition(nil), record.History...)
		t.mu.RUnlock()
		return &snapshot, nil
	}
	t.mu.RUnlock()

	return t.rebuildFromStore(withdrawalID)
}

// rebuildFromStore reconstructs a record from the persisted transition
// history, covering restarts where the in-memory map is cold.
func (t *Tracker) rebuildFromStore(withdrawalID string) (*model.StatusRecord, error) {
	transitions, err := t.store.StatusTransition.ListByWithdrawalID(t.db, withdrawalID)
	if err != nil {
		return nil, err
	}
	if len(transitions) == 0 {
		return nil, model.ErrNotFound
	}

	record := &model.StatusRecord{
		WithdrawalID: withdrawalID,
		History:      transitions,
	}
	for _, transition := range transitions {
		if transition.State == model.WithdrawalEventReplaced {
			record.TxHash = transition.TxHash
			continue
		}
		record.State = transition.State
		record.UpdatedAt = transition.OccurredAt
		if transition.TxHash != "" {
			record.TxHash = transition.TxHash
		}
		if transition.State == model.WithdrawalStateFailed {
			record.Error = transition.Reason
		}
	}

	t.mu.Lock()
	if cached, ok := t.records[withdrawalID]; ok {
		record = cached
	} else {
		t.records[withdrawalID] = record
	}
	snapshot := *record
	snapshot.History = append([]model.StatusTransition(nil), record.History...)
	t.mu.Unlock()

	return &snapshot, nil
}

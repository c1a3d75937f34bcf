package statustracker

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dwarvesf/withdrawal-engine/internal/model"
	"github.com/dwarvesf/withdrawal-engine/internal/store"
	"github.com/dwarvesf/withdrawal-engine/internal/utils/logger"
)

// memTransitionStore is an in-memory statustransition.IStore. The
// tracker passes its *gorm.DB straight through, so a nil DB is fine.
type memTransitionStore struct {
	mu   sync.Mutex
	rows []model.StatusTransition
}

func (m *memTransitionStore) Create(_ *gorm.DB, transition *model.StatusTransition) (*model.StatusTransition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	transition.ID = uint(len(m.rows) + 1)
	m.rows = append(m.rows, *transition)
	return transition, nil
}

func (m *memTransitionStore) ListByWithdrawalID(_ *gorm.DB, withdrawalID string) ([]model.StatusTransition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.StatusTransition
	for _, row := range m.rows {
		if row.WithdrawalID == withdrawalID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memTransitionStore) ListTerminalBefore(_ *gorm.DB, cutoff time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	var ids []string
	for _, row := range m.rows {
		if row.State.Terminal() && row.OccurredAt.Before(cutoff) && !seen[row.WithdrawalID] {
			seen[row.WithdrawalID] = true
			ids = append(ids, row.WithdrawalID)
		}
	}
	return ids, nil
}

func (m *memTransitionStore) ListOpenWithdrawalIDs(_ *gorm.DB) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	terminal := map[string]bool{}
	for _, row := range m.rows {
		if row.State.Terminal() {
			terminal[row.WithdrawalID] = true
		}
	}
	seen := map[string]bool{}
	var ids []string
	for _, row := range m.rows {
		if !terminal[row.WithdrawalID] && !seen[row.WithdrawalID] {
			seen[row.WithdrawalID] = true
			ids = append(ids, row.WithdrawalID)
		}
	}
	return ids, nil
}

func (m *memTransitionStore) DeleteByWithdrawalIDs(_ *gorm.DB, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	drop := map[string]bool{}
	for _, id := range ids {
		drop[id] = true
	}
	var kept []model.StatusTransition
	for _, row := range m.rows {
		if !drop[row.WithdrawalID] {
			kept = append(kept, row)
		}
	}
	m.rows = kept
	return nil
}

func newTestTracker() (ITracker, *memTransitionStore) {
	transitions := &memTransitionStore{}
	s := &store.Store{StatusTransition: transitions}
	return New(nil, s, logger.New("test")), transitions
}

func TestTracker_FirstTransitionMustBePending(t *testing.T) {
	tracker, _ := newTestTracker()

	err := tracker.Emit("w1", model.WithdrawalStateQueued, Transition{})
	assert.Error(t, err)

	err = tracker.Emit("w1", model.WithdrawalStatePending, Transition{})
	assert.NoError(t, err)
}

func TestTracker_ForwardOnlyTransitions(t *testing.T) {
	tracker, _ := newTestTracker()

	require.NoError(t, tracker.Emit("w1", model.WithdrawalStatePending, Transition{}))
	require.NoError(t, tracker.Emit("w1", model.WithdrawalStateQueued, Transition{}))

	// Skipping ahead and going backwards are both rejected.
	assert.Error(t, tracker.Emit("w1", model.WithdrawalStateConfirming, Transition{}))
	assert.Error(t, tracker.Emit("w1", model.WithdrawalStatePending, Transition{}))

	require.NoError(t, tracker.Emit("w1", model.WithdrawalStateSubmitted, Transition{TxHash: "0xaa"}))
	require.NoError(t, tracker.Emit("w1", model.WithdrawalStateConfirming, Transition{}))
	require.NoError(t, tracker.Emit("w1", model.WithdrawalStateConfirmed, Transition{}))

	// Terminal; nothing more may happen.
	assert.Error(t, tracker.Emit("w1", model.WithdrawalStateFailed, Transition{}))

	record, err := tracker.GetStatus("w1")
	require.NoError(t, err)
	assert.Equal(t, model.WithdrawalStateConfirmed, record.State)
	assert.Equal(t, "0xaa", record.TxHash)
	assert.Len(t, record.History, 5)
}

func TestTracker_FailedFromAnyNonTerminalState(t *testing.T) {
	tracker, _ := newTestTracker()

	require.NoError(t, tracker.Emit("w1", model.WithdrawalStatePending, Transition{}))
	require.NoError(t, tracker.Emit("w1", model.WithdrawalStateFailed, Transition{Reason: "cancelled"}))

	record, err := tracker.GetStatus("w1")
	require.NoError(t, err)
	assert.Equal(t, model.WithdrawalStateFailed, record.State)
	assert.Equal(t, "cancelled", record.Error)
}

func TestTracker_GetStatusUnknownID(t *testing.T) {
	tracker, _ := newTestTracker()

	_, err := tracker.GetStatus("missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestTracker_RecordReplacementKeepsState(t *testing.T) {
	tracker, _ := newTestTracker()

	require.NoError(t, tracker.Emit("w1", model.WithdrawalStatePending, Transition{}))
	require.NoError(t, tracker.Emit("w1", model.WithdrawalStateQueued, Transition{}))

	// Replacement is only legal once a transaction is on the wire.
	assert.Error(t, tracker.RecordReplacement("w1", "0xaa", "0xbb"))

	require.NoError(t, tracker.Emit("w1", model.WithdrawalStateSubmitted, Transition{TxHash: "0xaa"}))
	require.NoError(t, tracker.RecordReplacement("w1", "0xaa", "0xbb"))

	record, err := tracker.GetStatus("w1")
	require.NoError(t, err)
	assert.Equal(t, model.WithdrawalStateSubmitted, record.State)
	assert.Equal(t, "0xbb", record.TxHash)

	last := record.History[len(record.History)-1]
	assert.Equal(t, model.WithdrawalEventReplaced, last.State)
	assert.Contains(t, last.Reason, "0xaa")
}

func TestTracker_SetConfirmations(t *testing.T) {
	tracker, _ := newTestTracker()

	require.NoError(t, tracker.Emit("w1", model.WithdrawalStatePending, Transition{}))
	tracker.SetConfirmations("w1", "0xaa", 7)

	record, err := tracker.GetStatus("w1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), record.Confirmations)
	assert.Equal(t, "0xaa", record.TxHash)
}

func TestTracker_RebuildsFromPersistedHistory(t *testing.T) {
	tracker, transitions := newTestTracker()

	require.NoError(t, tracker.Emit("w1", model.WithdrawalStatePending, Transition{}))
	require.NoError(t, tracker.Emit("w1", model.WithdrawalStateQueued, Transition{}))
	require.NoError(t, tracker.Emit("w1", model.WithdrawalStateSubmitted, Transition{TxHash: "0xaa"}))

	// A fresh tracker over the same store simulates a restart.
	restarted := New(nil, &store.Store{StatusTransition: transitions}, logger.New("test"))

	record, err := restarted.GetStatus("w1")
	require.NoError(t, err)
	assert.Equal(t, model.WithdrawalStateSubmitted, record.State)
	assert.Equal(t, "0xaa", record.TxHash)
	assert.Len(t, record.History, 3)
}

func TestTracker_Forget(t *testing.T) {
	tracker, transitions := newTestTracker()

	require.NoError(t, tracker.Emit("w1", model.WithdrawalStatePending, Transition{}))
	require.NoError(t, tracker.Emit("w1", model.WithdrawalStateFailed, Transition{}))

	require.NoError(t, transitions.DeleteByWithdrawalIDs(nil, []string{"w1"}))
	tracker.Forget([]string{"w1"})

	_, err := tracker.GetStatus("w1")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestTracker_ConcurrentEmitters(t *testing.T) {
	tracker, _ := newTestTracker()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		id := "w" + string(rune('A'+i%26)) + string(rune('a'+i/26))
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_ = tracker.Emit(id, model.WithdrawalStatePending, Transition{})
			_ = tracker.Emit(id, model.WithdrawalStateQueued, Transition{})
			_, _ = tracker.GetStatus(id)
		}(id)
	}
	wg.Wait()
}

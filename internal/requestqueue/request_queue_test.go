package requestqueue

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dwarvesf/withdrawal-engine/internal/model"
	"github.com/dwarvesf/withdrawal-engine/internal/statustracker"
	"github.com/dwarvesf/withdrawal-engine/internal/store"
	"github.com/dwarvesf/withdrawal-engine/internal/store/idempotencykey"
	"github.com/dwarvesf/withdrawal-engine/internal/utils/config"
	"github.com/dwarvesf/withdrawal-engine/internal/utils/logger"
)

type memIdempotencyStore struct {
	mu   sync.Mutex
	keys map[string]string
}

func (m *memIdempotencyStore) Reserve(_ *gorm.DB, key, withdrawalID string) (*idempotencykey.ReserveResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.keys[key]; ok {
		return &idempotencykey.ReserveResult{Admitted: false, WithdrawalID: existing}, nil
	}
	m.keys[key] = withdrawalID
	return &idempotencykey.ReserveResult{Admitted: true, WithdrawalID: withdrawalID}, nil
}

func (m *memIdempotencyStore) DeleteByWithdrawalIDs(_ *gorm.DB, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	drop := map[string]bool{}
	for _, id := range ids {
		drop[id] = true
	}
	for key, withdrawalID := range m.keys {
		if drop[withdrawalID] {
			delete(m.keys, key)
		}
	}
	return nil
}

type memRequestStore struct {
	mu       sync.Mutex
	requests map[string]*model.WithdrawalRequest
}

func (m *memRequestStore) Create(_ *gorm.DB, request *model.WithdrawalRequest) (*model.WithdrawalRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[request.ID] = request
	return request, nil
}

func (m *memRequestStore) GetByID(_ *gorm.DB, id string) (*model.WithdrawalRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	request, ok := m.requests[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return request, nil
}

func (m *memRequestStore) GetByIdempotencyKey(_ *gorm.DB, key string) (*model.WithdrawalRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, request := range m.requests {
		if request.IdempotencyKey == key {
			return request, nil
		}
	}
	return nil, model.ErrNotFound
}

func (m *memRequestStore) DeleteByIDs(_ *gorm.DB, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.requests, id)
	}
	return nil
}

type recordingDispatcher struct {
	mu        sync.Mutex
	enqueued  []*model.WithdrawalRequest
	cancelled []string
	cancelErr error
}

func (d *recordingDispatcher) Enqueue(request *model.WithdrawalRequest) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enqueued = append(d.enqueued, request)
	return nil
}

func (d *recordingDispatcher) Cancel(withdrawalID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelled = append(d.cancelled, withdrawalID)
	return d.cancelErr
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.enqueued)
}

type noopTracker struct{}

func (noopTracker) Emit(string, model.WithdrawalState, statustracker.Transition) error { return nil }
func (noopTracker) EmitInTx(*gorm.DB, string, model.WithdrawalState, statustracker.Transition) error {
	return nil
}
func (noopTracker) RecordReplacement(string, string, string) error { return nil }
func (noopTracker) SetConfirmations(string, string, int64)         {}
func (noopTracker) GetStatus(string) (*model.StatusRecord, error)  { return nil, model.ErrNotFound }
func (noopTracker) Forget([]string)                                {}

type failingTracker struct {
	noopTracker
	emitErr error
}

func (t failingTracker) EmitInTx(*gorm.DB, string, model.WithdrawalState, statustracker.Transition) error {
	return t.emitErr
}

func newTestQueue(t *testing.T) (*Queue, *recordingDispatcher) {
	t.Helper()

	appConfig := &config.AppConfig{
		Networks: map[string]config.NetworkConfig{
			"ethereum": {
				TokenDecimals: 18,
				TokenDecimalsByAddress: map[string]int{
					"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48": 6,
				},
			},
			"base": {TokenDecimals: 18},
		},
	}
	accounts := map[model.Network]string{
		model.NetworkEthereum: "0x1111111111111111111111111111111111111111",
		model.NetworkBase:     "0x2222222222222222222222222222222222222222",
	}
	s := &store.Store{
		WithdrawalRequest: &memRequestStore{requests: map[string]*model.WithdrawalRequest{}},
		IdempotencyKey:    &memIdempotencyStore{keys: map[string]string{}},
	}
	dispatcher := &recordingDispatcher{}

	q := New(nil, s, noopTracker{}, dispatcher, accounts, appConfig, logger.New("test"), nil)
	q.runInTx = func(_ *gorm.DB, fn func(tx *gorm.DB) error) error {
		return fn(nil)
	}
	return q, dispatcher
}

func validInput() SubmitInput {
	return SubmitInput{
		Amount:         "1.5",
		ToAddress:      "0x9999999999999999999999999999999999999999",
		Network:        "ethereum",
		IdempotencyKey: "key-1",
	}
}

func TestQueue_SubmitAdmits(t *testing.T) {
	q, dispatcher := newTestQueue(t)

	id, err := q.Submit(validInput())
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.Equal(t, 1, dispatcher.count())
	request := dispatcher.enqueued[0]
	assert.Equal(t, id, request.ID)
	assert.Equal(t, model.NetworkEthereum, request.Network)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", request.SourceAccount)
	// 1.5 with 18 decimals, already in minor units.
	assert.Equal(t, "1500000000000000000", request.Amount)
}

func TestQueue_SubmitScalesByTokenDecimals(t *testing.T) {
	q, dispatcher := newTestQueue(t)

	// USDC carries 6 decimals while the network default is 18; the
	// amount must scale by the token's own precision.
	input := validInput()
	input.TokenAddress = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"

	_, err := q.Submit(input)
	require.NoError(t, err)

	require.Equal(t, 1, dispatcher.count())
	assert.Equal(t, "1500000", dispatcher.enqueued[0].Amount)

	// Excess precision for the token is rejected even though it would
	// fit the network default.
	q2, _ := newTestQueue(t)
	input.Amount = "0.0000001"
	_, err = q2.Submit(input)
	assert.Error(t, err)
}

func TestQueue_SubmitValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SubmitInput)
	}{
		{"unsupported network", func(in *SubmitInput) { in.Network = "solana" }},
		{"network not enabled", func(in *SubmitInput) { in.Network = "polygon" }},
		{"bad destination address", func(in *SubmitInput) { in.ToAddress = "not-an-address" }},
		{"bad token address", func(in *SubmitInput) { in.TokenAddress = "0xzz" }},
		{"non-numeric amount", func(in *SubmitInput) { in.Amount = "one" }},
		{"negative amount", func(in *SubmitInput) { in.Amount = "-1" }},
		{"zero amount", func(in *SubmitInput) { in.Amount = "0" }},
		{"excess precision", func(in *SubmitInput) { in.Amount = "0.0000000000000000001" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, dispatcher := newTestQueue(t)
			input := validInput()
			tt.mutate(&input)

			_, err := q.Submit(input)
			assert.Error(t, err)
			assert.Equal(t, 0, dispatcher.count())
			assert.Equal(t, int64(1), q.QueueStatus().TotalValidationFails)
		})
	}
}

func TestQueue_SubmitDuplicateReturnsSameID(t *testing.T) {
	q, dispatcher := newTestQueue(t)

	first, err := q.Submit(validInput())
	require.NoError(t, err)

	second, err := q.Submit(validInput())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	// The duplicate is absorbed; nothing new reaches the dispatcher.
	assert.Equal(t, 1, dispatcher.count())

	status := q.QueueStatus()
	assert.Equal(t, int64(1), status.TotalAdmitted)
	assert.Equal(t, int64(1), status.TotalDuplicateHits)
}

func TestQueue_DerivedIdempotencyKey(t *testing.T) {
	q, dispatcher := newTestQueue(t)

	input := validInput()
	input.IdempotencyKey = ""

	first, err := q.Submit(input)
	require.NoError(t, err)

	// Identical fields derive the same key and collapse.
	second, err := q.Submit(input)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// A different amount derives a different key.
	input.Amount = "2.5"
	third, err := q.Submit(input)
	require.NoError(t, err)
	assert.NotEqual(t, first, third)

	assert.Equal(t, 2, dispatcher.count())
}

func TestQueue_ConcurrentSameKeySingleAdmission(t *testing.T) {
	q, dispatcher := newTestQueue(t)

	const workers = 16
	ids := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := q.Submit(validInput())
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.Equal(t, 1, dispatcher.count())
	assert.Equal(t, int64(1), q.QueueStatus().TotalAdmitted)
	assert.Equal(t, int64(workers-1), q.QueueStatus().TotalDuplicateHits)
}

// withRollback replaces the fixture's pass-through transaction runner
// with one that restores the in-memory stores when the closure errors,
// the way a database transaction would.
func withRollback(q *Queue) {
	idempotency := q.store.IdempotencyKey.(*memIdempotencyStore)
	requests := q.store.WithdrawalRequest.(*memRequestStore)

	q.runInTx = func(_ *gorm.DB, fn func(tx *gorm.DB) error) error {
		idempotency.mu.Lock()
		keysBefore := make(map[string]string, len(idempotency.keys))
		for k, v := range idempotency.keys {
			keysBefore[k] = v
		}
		idempotency.mu.Unlock()

		requests.mu.Lock()
		requestsBefore := make(map[string]*model.WithdrawalRequest, len(requests.requests))
		for k, v := range requests.requests {
			requestsBefore[k] = v
		}
		requests.mu.Unlock()

		if err := fn(nil); err != nil {
			idempotency.mu.Lock()
			idempotency.keys = keysBefore
			idempotency.mu.Unlock()
			requests.mu.Lock()
			requests.requests = requestsBefore
			requests.mu.Unlock()
			return err
		}
		return nil
	}
}

func TestQueue_AdmissionIsAtomic(t *testing.T) {
	q, dispatcher := newTestQueue(t)
	withRollback(q)
	q.tracker = failingTracker{emitErr: errors.New("transition store unavailable")}

	// Recording the pending status fails, so the whole admission rolls
	// back and nothing reaches the dispatcher.
	_, err := q.Submit(validInput())
	require.Error(t, err)
	assert.Equal(t, 0, dispatcher.count())
	assert.Equal(t, int64(0), q.QueueStatus().TotalAdmitted)

	// The key was not burned by the failed attempt; the same submission
	// goes through once the status store recovers.
	q.tracker = noopTracker{}
	id, err := q.Submit(validInput())
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, 1, dispatcher.count())
	assert.Equal(t, int64(0), q.QueueStatus().TotalDuplicateHits)
}

func TestQueue_StatusTracksPendingUntilSettled(t *testing.T) {
	q, _ := newTestQueue(t)

	id, err := q.Submit(validInput())
	require.NoError(t, err)

	status := q.QueueStatus()
	assert.Equal(t, int64(1), status.PendingPerNetwork[model.NetworkEthereum])
	assert.GreaterOrEqual(t, status.OldestPendingAgeSec, 0.0)

	q.WithdrawalSettled(id, model.WithdrawalStateConfirmed, "0xaa", "")

	status = q.QueueStatus()
	assert.Equal(t, int64(0), status.PendingPerNetwork[model.NetworkEthereum])
}

func TestQueue_CancelForwardsToDispatcher(t *testing.T) {
	q, dispatcher := newTestQueue(t)
	dispatcher.cancelErr = model.ErrNotFound

	err := q.Cancel("missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, []string{"missing"}, dispatcher.cancelled)
}

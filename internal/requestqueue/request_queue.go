package requestqueue

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/dwarvesf/withdrawal-engine/internal/model"
	"github.com/dwarvesf/withdrawal-engine/internal/monitoring"
	"github.com/dwarvesf/withdrawal-engine/internal/statustracker"
	"github.com/dwarvesf/withdrawal-engine/internal/store"
	"github.com/dwarvesf/withdrawal-engine/internal/utils/config"
	"github.com/dwarvesf/withdrawal-engine/internal/utils/logger"
)

type Queue struct {
	db         *gorm.DB
	store      *store.Store
	tracker    statustracker.ITracker
	dispatcher Dispatcher
	appConfig  *config.AppConfig
	logger     *logger.Logger
	metrics    *monitoring.EngineMetrics

	// accounts maps each configured network to its custodial source
	// account, fixed at startup from the signer keys.
	accounts map[model.Network]string

	runInTx func(db *gorm.DB, fn func(tx *gorm.DB) error) error

	mu              sync.RWMutex
	pendingByID     map[string]pendingEntry
	admitted        atomic.Int64
	duplicateHits   atomic.Int64
	validationFails atomic.Int64
}

type pendingEntry struct {
	network    model.Network
	admittedAt time.Time
}

func New(
	db *gorm.DB,
	s *store.Store,
	tracker statustracker.ITracker,
	dispatcher Dispatcher,
	accounts map[model.Network]string,
	appConfig *config.AppConfig,
	logger *logger.Logger,
	metrics *monitoring.EngineMetrics,
) *Queue {
	return &Queue{
		db:          db,
		store:       s,
		tracker:     tracker,
		dispatcher:  dispatcher,
		accounts:    accounts,
		appConfig:   appConfig,
		logger:      logger,
		metrics:     metrics,
		runInTx:     store.DoInTx,
		pendingByID: make(map[string]pendingEntry),
	}
}

func (q *Queue) Submit(input SubmitInput) (string, error) {
	request, err := q.validate(input)
	if err != nil {
		q.validationFails.Add(1)
		var validation *model.ValidationError
		if errors.As(err, &validation) {
			q.metrics.RecordValidationFailure(validation.Field)
		} else {
			q.metrics.RecordValidationFailure("amount")
		}
		return "", err
	}

	var existingID string
	err = q.runInTx(q.db, func(tx *gorm.DB) error {
		reservation, err := q.store.IdempotencyKey.Reserve(tx, request.IdempotencyKey, request.ID)
		if err != nil {
			return errors.Wrap(err, "idempotency reservation failed")
		}
		if !reservation.Admitted {
			existingID = reservation.WithdrawalID
			return nil
		}
		if _, err := q.store.WithdrawalRequest.Create(tx, request); err != nil {
			return errors.Wrap(err, "failed to persist withdrawal request")
		}
		if err := q.tracker.EmitInTx(tx, request.ID, model.WithdrawalStatePending, statustracker.Transition{}); err != nil {
			return errors.Wrap(err, "failed to record pending status")
		}
		return nil
	})
	if err != nil {
		// Rolled back: the reservation, the request and the pending status
		// all vanish together, so the same key can be resubmitted.
		q.tracker.Forget([]string{request.ID})
		return "", err
	}

	if existingID != "" {
		q.duplicateHits.Add(1)
		q.metrics.RecordDuplicateHit()
		q.logger.Info("[Submit] duplicate submission, returning existing id", map[string]string{
			"withdrawalID":   existingID,
			"idempotencyKey": request.IdempotencyKey,
		})
		return existingID, nil
	}

	q.mu.Lock()
	q.pendingByID[request.ID] = pendingEntry{
		network:    request.Network,
		admittedAt: request.CreatedAt,
	}
	q.mu.Unlock()
	q.admitted.Add(1)
	q.metrics.RecordAdmission(string(request.Network))

	if err := q.dispatcher.Enqueue(request); err != nil {
		q.logger.Error("[Submit][Enqueue]", map[string]string{
			"withdrawalID": request.ID,
			"error":        err.Error(),
		})
		return "", err
	}

	return request.ID, nil
}

func (q *Queue) Cancel(withdrawalID string) error {
	return q.dispatcher.Cancel(withdrawalID)
}

func (q *Queue) QueueStatus() QueueStatus {
	status := QueueStatus{
		PendingPerNetwork:    map[model.Network]int64{},
		TotalAdmitted:        q.admitted.Load(),
		TotalDuplicateHits:   q.duplicateHits.Load(),
		TotalValidationFails: q.validationFails.Load(),
	}

	q.mu.RLock()
	var oldest time.Time
	for _, entry := range q.pendingByID {
		status.PendingPerNetwork[entry.network]++
		if oldest.IsZero() || entry.admittedAt.Before(oldest) {
			oldest = entry.admittedAt
		}
	}
	q.mu.RUnlock()

	if !oldest.IsZero() {
		status.OldestPendingAgeSec = time.Since(oldest).Seconds()
	}

	return status
}

// WithdrawalSettled implements txqueue.Notifier so terminal states fall
// out of the pending snapshot.
func (q *Queue) WithdrawalSettled(withdrawalID string, _ model.WithdrawalState, _ string, _ string) {
	q.mu.Lock()
	delete(q.pendingByID, withdrawalID)
	q.mu.Unlock()
}

func (q *Queue) validate(input SubmitInput) (*model.WithdrawalRequest, error) {
	network := model.Network(input.Network)
	if !network.Valid() {
		return nil, &model.ValidationError{Field: "network", Reason: fmt.Sprintf("unsupported network %q", input.Network)}
	}

	sourceAccount, configured := q.accounts[network]
	if !configured {
		return nil, &model.ValidationError{Field: "network", Reason: fmt.Sprintf("network %q is not enabled", input.Network)}
	}

	if !common.IsHexAddress(input.ToAddress) {
		return nil, &model.ValidationError{Field: "toAddress", Reason: "not a valid address for the network"}
	}
	// An empty token address means the chain's native asset.
	if input.TokenAddress != "" && !common.IsHexAddress(input.TokenAddress) {
		return nil, &model.ValidationError{Field: "tokenAddress", Reason: "not a valid address for the network"}
	}

	networkConfig := q.appConfig.Networks[string(network)]
	amount, err := model.ParseAmount(input.Amount, networkConfig.DecimalsFor(input.TokenAddress))
	if err != nil {
		return nil, err
	}

	idempotencyKey := input.IdempotencyKey
	if idempotencyKey == "" {
		idempotencyKey = deriveIdempotencyKey(network, input.TokenAddress, input.ToAddress, amount.Value)
	}

	return &model.WithdrawalRequest{
		ID:             uuid.New().String(),
		Amount:         amount.Value,
		ToAddress:      input.ToAddress,
		TokenAddress:   input.TokenAddress,
		Network:        network,
		SourceAccount:  sourceAccount,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      time.Now(),
	}, nil
}

// deriveIdempotencyKey hashes the idempotency-relevant fields so two
// logically identical submissions collapse onto one reservation.
func deriveIdempotencyKey(network model.Network, tokenAddress, toAddress, amountMinor string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%s", network, tokenAddress, toAddress, amountMinor)))
	return hex.EncodeToString(sum[:])
}

package txqueue

import (
	"context"
	"math/big"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/dwarvesf/withdrawal-engine/internal/chainrpc"
	"github.com/dwarvesf/withdrawal-engine/internal/model"
	"github.com/dwarvesf/withdrawal-engine/internal/monitoring"
	"github.com/dwarvesf/withdrawal-engine/internal/signer"
	"github.com/dwarvesf/withdrawal-engine/internal/statustracker"
	"github.com/dwarvesf/withdrawal-engine/internal/store"
	"github.com/dwarvesf/withdrawal-engine/internal/utils/config"
	"github.com/dwarvesf/withdrawal-engine/internal/utils/logger"
)

// A withdrawal id is claimed exactly once, either by Cancel or by the
// partition worker about to sequence it. Whoever claims first wins.
type claim int

const (
	claimCancelled claim = iota
	claimSequencing
)

type Engine struct {
	db       *gorm.DB
	store    *store.Store
	tracker  statustracker.ITracker
	adapters map[model.Network]chainrpc.INetworkAdapter
	signers  map[model.Network]signer.ISigner
	queueCfg config.QueueConfig
	finality map[model.Network]int64
	logger   *logger.Logger
	notifier Notifier
	metrics  *monitoring.EngineMetrics

	mu         sync.Mutex
	partitions map[partitionKey]*partition

	claims sync.Map

	monitor *monitor

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(
	db *gorm.DB,
	s *store.Store,
	tracker statustracker.ITracker,
	adapters map[model.Network]chainrpc.INetworkAdapter,
	signers map[model.Network]signer.ISigner,
	appConfig *config.AppConfig,
	logger *logger.Logger,
	notifier Notifier,
	metrics *monitoring.EngineMetrics,
) IQueue {
	finality := map[model.Network]int64{}
	for name, networkConfig := range appConfig.Networks {
		finality[model.Network(name)] = networkConfig.FinalityDepth
	}

	ctx, cancel := context.WithCancel(context.Background())

	engine := &Engine{
		db:         db,
		store:      s,
		tracker:    tracker,
		adapters:   adapters,
		signers:    signers,
		queueCfg:   appConfig.Queue,
		finality:   finality,
		logger:     logger,
		notifier:   notifier,
		metrics:    metrics,
		partitions: make(map[partitionKey]*partition),
		ctx:        ctx,
		cancel:     cancel,
	}
	engine.monitor = newMonitor(engine)

	return engine
}

func (e *Engine) Start() {
	e.wg.Add(1)
	go e.monitor.run()
}

func (e *Engine) Stop() {
	e.cancel()
	e.wg.Wait()
}

func (e *Engine) Enqueue(request *model.WithdrawalRequest) error {
	p := e.partitionFor(partitionKey{
		network: request.Network,
		account: request.SourceAccount,
	})

	p.inFlight.Add(1)

	select {
	case p.jobs <- request:
		return nil
	case <-e.ctx.Done():
		p.inFlight.Add(-1)
		return e.ctx.Err()
	}
}

// Resume rebuilds in-flight work from the store after a restart.
// Withdrawals still pending or queued go back through their partition's
// sequencer; already-broadcast transactions go back under the
// confirmation monitor with their nonce, hashes and fee history intact.
func (e *Engine) Resume() error {
	openIDs, err := e.store.StatusTransition.ListOpenWithdrawalIDs(e.db)
	if err != nil {
		return errors.Wrap(err, "failed to list open withdrawals")
	}

	for _, withdrawalID := range openIDs {
		record, err := e.tracker.GetStatus(withdrawalID)
		if err != nil {
			e.logger.Error("[Resume][GetStatus]", map[string]string{
				"withdrawalID": withdrawalID,
				"error":        err.Error(),
			})
			continue
		}

		switch record.State {
		case model.WithdrawalStatePending, model.WithdrawalStateQueued:
			if err := e.resequence(withdrawalID); err != nil {
				e.logger.Error("[Resume][resequence]", map[string]string{
					"withdrawalID": withdrawalID,
					"error":        err.Error(),
				})
			}
		case model.WithdrawalStateSubmitted, model.WithdrawalStateConfirming:
			if err := e.rewatch(withdrawalID, record.State); err != nil {
				e.logger.Error("[Resume][rewatch]", map[string]string{
					"withdrawalID": withdrawalID,
					"error":        err.Error(),
				})
			}
		}
	}

	return nil
}

// resequence puts a pre-broadcast withdrawal back through its partition.
// A crash between persisting a transaction and broadcasting it leaves an
// active row with no hash; that row is retired first so the reallocated
// nonce does not collide with it.
func (e *Engine) resequence(withdrawalID string) error {
	rows, err := e.store.QueuedTransaction.ListByWithdrawalID(e.db, withdrawalID)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if !row.Superseded && row.TxHash == "" {
			if err := e.store.QueuedTransaction.MarkSuperseded(e.db, row.ID); err != nil {
				return err
			}
		}
	}

	request, err := e.store.WithdrawalRequest.GetByID(e.db, withdrawalID)
	if err != nil {
		return err
	}
	return e.Enqueue(request)
}

// rewatch restores a broadcast withdrawal under the monitor.
func (e *Engine) rewatch(withdrawalID string, state model.WithdrawalState) error {
	rows, err := e.store.QueuedTransaction.ListByWithdrawalID(e.db, withdrawalID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return model.ErrNotFound
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })

	request, err := e.store.WithdrawalRequest.GetByID(e.db, withdrawalID)
	if err != nil {
		return err
	}

	active := rows[len(rows)-1]
	for _, row := range rows {
		if !row.Superseded {
			active = row
			break
		}
	}

	fees := &chainrpc.FeeParameters{GasTipCap: big.NewInt(0), GasFeeCap: big.NewInt(0)}
	if tip, ok := new(big.Int).SetString(active.GasTipCap, 10); ok {
		fees.GasTipCap = tip
	}
	if feeCap, ok := new(big.Int).SetString(active.GasFeeCap, 10); ok {
		fees.GasFeeCap = feeCap
	}

	var hashes []string
	for _, row := range rows {
		if row.TxHash != "" {
			hashes = append(hashes, row.TxHash)
		}
	}
	if len(hashes) == 0 {
		return model.ErrNotFound
	}

	broadcastAt := time.Now()
	if active.BroadcastAt != nil {
		broadcastAt = *active.BroadcastAt
	}

	p := e.partitionFor(partitionKey{
		network: request.Network,
		account: request.SourceAccount,
	})
	p.inFlight.Add(1)

	e.monitor.watch(&watchedTx{
		withdrawalID: withdrawalID,
		request:      request,
		partition:    p,
		queuedTxID:   active.ID,
		nonce:        active.Nonce,
		hashes:       hashes,
		fees:         fees,
		broadcastAt:  broadcastAt,
		firstSeenAt:  broadcastAt,
		feeBumps:     len(rows) - 1,
		confirming:   state == model.WithdrawalStateConfirming,
	})
	return nil
}

func (e *Engine) Cancel(withdrawalID string) error {
	record, err := e.tracker.GetStatus(withdrawalID)
	if err != nil {
		return err
	}
	if record.State != model.WithdrawalStatePending {
		return model.ErrCannotCancel
	}

	// The worker claims the id the instant it dequeues, so a successful
	// claim here guarantees the request will never be sequenced.
	actual, loaded := e.claims.LoadOrStore(withdrawalID, claimCancelled)
	if loaded && actual.(claim) == claimSequencing {
		return model.ErrCannotCancel
	}

	return nil
}

func (e *Engine) Status() Status {
	e.mu.Lock()
	partitions := make([]*partition, 0, len(e.partitions))
	for _, p := range e.partitions {
		partitions = append(partitions, p)
	}
	e.mu.Unlock()

	status := Status{}
	for _, p := range partitions {
		partitionStatus := p.status()
		status.Partitions = append(status.Partitions, partitionStatus)
		status.TotalInFlight += partitionStatus.InFlight
	}
	status.OldestUnconfirmedAgeSec = e.monitor.oldestUnconfirmedAge().Seconds()

	return status
}

// partitionFor returns the partition owning the key, starting its worker
// goroutine on first use.
func (e *Engine) partitionFor(key partitionKey) *partition {
	e.mu.Lock()
	defer e.mu.Unlock()

	if p, ok := e.partitions[key]; ok {
		return p
	}

	p := newPartition(key, e.queueCfg.PartitionBuffer)
	e.partitions[key] = p

	e.wg.Add(1)
	go e.runPartition(p)

	return p
}

func (e *Engine) runPartition(p *partition) {
	defer e.wg.Done()

	for {
		select {
		case <-e.ctx.Done():
			return
		case request := <-p.jobs:
			e.process(p, request)
		}
	}
}

// process drives one request through fee estimation, nonce allocation,
// signing and broadcast. It runs on the partition's single worker, so
// nothing else can allocate this partition's nonces concurrently.
func (e *Engine) process(p *partition, request *model.WithdrawalRequest) {
	actual, loaded := e.claims.LoadOrStore(request.ID, claimSequencing)
	if loaded && actual.(claim) == claimCancelled {
		e.settle(p, request.ID, model.WithdrawalStateFailed, "", "cancelled")
		return
	}

	if err := e.tracker.Emit(request.ID, model.WithdrawalStateQueued, statustracker.Transition{}); err != nil {
		e.logger.Error("[process][Emit] failed to mark queued", map[string]string{
			"withdrawalID": request.ID,
			"error":        err.Error(),
		})
	}

	adapter := e.adapters[request.Network]
	accountSigner := e.signers[request.Network]
	if adapter == nil || accountSigner == nil {
		e.settle(p, request.ID, model.WithdrawalStateFailed, "", "network not configured")
		return
	}

	// Node unavailability before a nonce is committed never fails the
	// withdrawal; keep retrying while it sits in queued.
	if !e.retryUntilReady(func() error {
		return p.initNonce(e.ctx, adapter.PendingNonce, accountSigner.Account())
	}, request.ID, "nonce lookup") {
		return
	}

	var fees *chainrpc.FeeParameters
	if !e.retryUntilReady(func() error {
		estimated, err := adapter.SuggestFees(e.ctx)
		if err != nil {
			return err
		}
		fees = estimated
		return nil
	}, request.ID, "fee estimation") {
		return
	}

	amount, ok := new(big.Int).SetString(request.Amount, 10)
	if !ok {
		e.settle(p, request.ID, model.WithdrawalStateFailed, "", "malformed amount")
		return
	}

	tokenAddress := request.TokenAddress
	if request.IsNativeAsset() {
		tokenAddress = ""
	}

	nonce := p.allocateNonce()

	signedTx, err := accountSigner.SignTransfer(signer.TransferInput{
		Nonce:        nonce,
		To:           request.ToAddress,
		TokenAddress: tokenAddress,
		Amount:       amount,
		Fees:         fees,
	})
	if err != nil {
		p.releaseNonce(nonce)
		e.settle(p, request.ID, model.WithdrawalStateFailed, "", err.Error())
		return
	}

	queuedTx, err := e.store.QueuedTransaction.Create(e.db, &model.QueuedTransaction{
		WithdrawalID:  request.ID,
		Network:       request.Network,
		SourceAccount: request.SourceAccount,
		Nonce:         nonce,
		GasFeeCap:     fees.GasFeeCap.String(),
		GasTipCap:     fees.GasTipCap.String(),
	})
	if err != nil {
		p.releaseNonce(nonce)
		e.settle(p, request.ID, model.WithdrawalStateFailed, "", "failed to persist transaction: "+err.Error())
		return
	}

	attempt := 0
	for {
		err = adapter.Broadcast(e.ctx, signedTx)
		if err == nil {
			e.metrics.RecordBroadcast(string(request.Network), "success")
			break
		}

		if !model.IsTransient(err) {
			e.metrics.RecordBroadcast(string(request.Network), "rejected")
			e.abandon(p, adapter, accountSigner.Account(), queuedTx.ID, nonce)
			e.settle(p, request.ID, model.WithdrawalStateFailed, "", err.Error())
			return
		}

		e.metrics.RecordBroadcast(string(request.Network), "transient")
		attempt++
		if attempt >= e.queueCfg.MaxBroadcastRetries {
			e.abandon(p, adapter, accountSigner.Account(), queuedTx.ID, nonce)
			e.settle(p, request.ID, model.WithdrawalStateFailed, "", model.ErrRetryExhausted.Error())
			return
		}

		e.logger.Info("[process] transient broadcast error, retrying", map[string]string{
			"withdrawalID": request.ID,
			"attempt":      strconv.Itoa(attempt),
			"error":        err.Error(),
		})
		if !e.sleep(e.backoff(attempt)) {
			return
		}
	}

	txHash := signedTx.Hash().Hex()
	if err := e.store.QueuedTransaction.UpdateBroadcast(e.db, queuedTx.ID, txHash); err != nil {
		e.logger.Error("[process][UpdateBroadcast]", map[string]string{
			"withdrawalID": request.ID,
			"error":        err.Error(),
		})
	}

	if err := e.tracker.Emit(request.ID, model.WithdrawalStateSubmitted, statustracker.Transition{TxHash: txHash}); err != nil {
		e.logger.Error("[process][Emit] failed to mark submitted", map[string]string{
			"withdrawalID": request.ID,
			"error":        err.Error(),
		})
	}

	e.claims.Delete(request.ID)
	e.monitor.watch(&watchedTx{
		withdrawalID: request.ID,
		request:      request,
		partition:    p,
		queuedTxID:   queuedTx.ID,
		nonce:        nonce,
		hashes:       []string{txHash},
		fees:         fees,
		broadcastAt:  time.Now(),
		firstSeenAt:  time.Now(),
	})
}

// retryUntilReady retries a pre-nonce adapter call with backoff until it
// succeeds or the engine shuts down.
func (e *Engine) retryUntilReady(fn func() error, withdrawalID, step string) bool {
	attempt := 0
	for {
		err := fn()
		if err == nil {
			return true
		}

		e.logger.Error("[retryUntilReady] "+step+" failed, backing off", map[string]string{
			"withdrawalID": withdrawalID,
			"error":        err.Error(),
		})

		attempt++
		if !e.sleep(e.backoff(attempt)) {
			return false
		}
	}
}

// abandon retires a persisted transaction whose broadcast never took,
// marking the row inactive before freeing its nonce slot so a reused
// nonce does not collide with the unique active-nonce index.
func (e *Engine) abandon(p *partition, adapter chainrpc.INetworkAdapter, account string, queuedTxID uint, nonce uint64) {
	if err := e.store.QueuedTransaction.MarkSuperseded(e.db, queuedTxID); err != nil {
		e.logger.Error("[abandon][MarkSuperseded]", map[string]string{
			"queuedTxID": strconv.FormatUint(uint64(queuedTxID), 10),
			"error":      err.Error(),
		})
	}
	e.releaseIfUnconsumed(p, adapter, account, nonce)
}

// releaseIfUnconsumed returns the nonce slot only when the chain
// confirms it was never used by this or any other transaction.
func (e *Engine) releaseIfUnconsumed(p *partition, adapter chainrpc.INetworkAdapter, account string, nonce uint64) {
	pending, err := adapter.PendingNonce(e.ctx, account)
	if err != nil {
		e.logger.Error("[releaseIfUnconsumed] cannot verify nonce, keeping slot", map[string]string{
			"error": err.Error(),
		})
		return
	}
	if pending <= nonce {
		p.releaseNonce(nonce)
	}
}

// settle records a terminal state and frees the partition slot.
func (e *Engine) settle(p *partition, withdrawalID string, state model.WithdrawalState, txHash, reason string) {
	e.claims.Delete(withdrawalID)

	if err := e.tracker.Emit(withdrawalID, state, statustracker.Transition{TxHash: txHash, Reason: reason}); err != nil {
		e.logger.Error("[settle][Emit]", map[string]string{
			"withdrawalID": withdrawalID,
			"state":        string(state),
			"error":        err.Error(),
		})
	}

	p.inFlight.Add(-1)
	e.metrics.RecordSettlement(string(p.key.network), string(state))

	if e.notifier != nil {
		e.notifier.WithdrawalSettled(withdrawalID, state, txHash, reason)
	}
}

func (e *Engine) backoff(attempt int) time.Duration {
	backoff := e.queueCfg.RetryBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
		if backoff > time.Minute {
			return time.Minute
		}
	}
	return backoff
}

func (e *Engine) sleep(d time.Duration) bool {
	select {
	case <-e.ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

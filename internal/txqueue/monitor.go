package txqueue

import (
	"math/big"
	"sync"
	"time"

	"github.com/dwarvesf/withdrawal-engine/internal/chainrpc"
	"github.com/dwarvesf/withdrawal-engine/internal/model"
	"github.com/dwarvesf/withdrawal-engine/internal/signer"
	"github.com/dwarvesf/withdrawal-engine/internal/statustracker"
)

// watchedTx tracks one broadcast withdrawal until it reaches finality.
// hashes holds every broadcast attempt, newest last; any of them may be
// the one the chain eventually includes.
type watchedTx struct {
	withdrawalID string
	request      *model.WithdrawalRequest
	partition    *partition
	queuedTxID   uint
	nonce        uint64
	hashes       []string
	fees         *chainrpc.FeeParameters
	broadcastAt  time.Time
	firstSeenAt  time.Time
	feeBumps     int
	confirming   bool
}

type monitor struct {
	engine *Engine

	mu      sync.Mutex
	watched map[string]*watchedTx
}

func newMonitor(engine *Engine) *monitor {
	return &monitor{
		engine:  engine,
		watched: make(map[string]*watchedTx),
	}
}

func (m *monitor) watch(w *watchedTx) {
	m.mu.Lock()
	m.watched[w.withdrawalID] = w
	m.mu.Unlock()
}

func (m *monitor) unwatch(withdrawalID string) {
	m.mu.Lock()
	delete(m.watched, withdrawalID)
	m.mu.Unlock()
}

func (m *monitor) oldestUnconfirmedAge() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	oldest := time.Duration(0)
	for _, w := range m.watched {
		if age := time.Since(w.firstSeenAt); age > oldest {
			oldest = age
		}
	}
	return oldest
}

func (m *monitor) run() {
	defer m.engine.wg.Done()

	ticker := time.NewTicker(m.engine.queueCfg.ConfirmPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.engine.ctx.Done():
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *monitor) sweep() {
	m.mu.Lock()
	snapshot := make([]*watchedTx, 0, len(m.watched))
	for _, w := range m.watched {
		snapshot = append(snapshot, w)
	}
	m.mu.Unlock()

	for _, w := range snapshot {
		m.check(w)
	}
}

func (m *monitor) check(w *watchedTx) {
	e := m.engine
	adapter := e.adapters[w.request.Network]
	if adapter == nil {
		return
	}

	// Probe newest first; a superseded broadcast may still be the one
	// that landed.
	var status *chainrpc.TxStatus
	var includedHash string
	for i := len(w.hashes) - 1; i >= 0; i-- {
		probed, err := adapter.TransactionStatus(e.ctx, w.hashes[i])
		if err != nil {
			// Transient node trouble; the next sweep retries.
			e.logger.Debug("[check][TransactionStatus]", map[string]string{
				"withdrawalID": w.withdrawalID,
				"error":        err.Error(),
			})
			return
		}
		if probed.Included {
			status = probed
			includedHash = w.hashes[i]
			break
		}
	}

	if status == nil {
		if time.Since(w.broadcastAt) > e.queueCfg.ReplaceAfter {
			m.replace(w, adapter)
		}
		return
	}

	if status.Reverted {
		m.unwatch(w.withdrawalID)
		e.settle(w.partition, w.withdrawalID, model.WithdrawalStateFailed, includedHash, "execution reverted")
		return
	}

	if !w.confirming {
		if err := e.tracker.Emit(w.withdrawalID, model.WithdrawalStateConfirming, statustracker.Transition{TxHash: includedHash}); err != nil {
			e.logger.Error("[check][Emit] failed to mark confirming", map[string]string{
				"withdrawalID": w.withdrawalID,
				"error":        err.Error(),
			})
		}
		w.confirming = true
	}

	e.tracker.SetConfirmations(w.withdrawalID, includedHash, status.Confirmations)
	if err := e.store.QueuedTransaction.UpdateConfirmations(e.db, w.queuedTxID, status.Confirmations); err != nil {
		e.logger.Error("[check][UpdateConfirmations]", map[string]string{
			"withdrawalID": w.withdrawalID,
			"error":        err.Error(),
		})
	}

	if status.Confirmations >= e.finality[w.request.Network] {
		m.unwatch(w.withdrawalID)
		e.settle(w.partition, w.withdrawalID, model.WithdrawalStateConfirmed, includedHash, "")
	}
}

// replace rebroadcasts the same nonce with bumped fees. It takes the
// partition's nonce lock so it can never interleave with the sequencer
// signing a fresh transaction on this account.
func (m *monitor) replace(w *watchedTx, adapter chainrpc.INetworkAdapter) {
	e := m.engine

	if w.feeBumps >= e.queueCfg.MaxFeeBumps {
		m.unwatch(w.withdrawalID)
		e.settle(w.partition, w.withdrawalID, model.WithdrawalStateFailed, w.hashes[len(w.hashes)-1], model.ErrRetryExhausted.Error())
		return
	}

	accountSigner := e.signers[w.request.Network]
	if accountSigner == nil {
		return
	}

	w.partition.nonceMu.Lock()
	defer w.partition.nonceMu.Unlock()

	fresh, err := adapter.SuggestFees(e.ctx)
	if err != nil {
		return
	}
	fees := bumpFees(w.fees, fresh)

	amount, ok := new(big.Int).SetString(w.request.Amount, 10)
	if !ok {
		return
	}

	tokenAddress := w.request.TokenAddress
	if w.request.IsNativeAsset() {
		tokenAddress = ""
	}

	signedTx, err := accountSigner.SignTransfer(signer.TransferInput{
		Nonce:        w.nonce,
		To:           w.request.ToAddress,
		TokenAddress: tokenAddress,
		Amount:       amount,
		Fees:         fees,
	})
	if err != nil {
		e.logger.Error("[replace][SignTransfer]", map[string]string{
			"withdrawalID": w.withdrawalID,
			"error":        err.Error(),
		})
		return
	}

	if err := adapter.Broadcast(e.ctx, signedTx); err != nil {
		// "nonce too low" here usually means an earlier broadcast just
		// landed; the next sweep will find its receipt.
		e.logger.Info("[replace] replacement broadcast not accepted", map[string]string{
			"withdrawalID": w.withdrawalID,
			"error":        err.Error(),
		})
		return
	}

	supersededHash := w.hashes[len(w.hashes)-1]
	replacementHash := signedTx.Hash().Hex()

	if err := e.store.QueuedTransaction.MarkSuperseded(e.db, w.queuedTxID); err != nil {
		e.logger.Error("[replace][MarkSuperseded]", map[string]string{
			"withdrawalID": w.withdrawalID,
			"error":        err.Error(),
		})
	}

	now := time.Now()
	replacement, err := e.store.QueuedTransaction.Create(e.db, &model.QueuedTransaction{
		WithdrawalID:  w.withdrawalID,
		Network:       w.request.Network,
		SourceAccount: w.request.SourceAccount,
		Nonce:         w.nonce,
		GasFeeCap:     fees.GasFeeCap.String(),
		GasTipCap:     fees.GasTipCap.String(),
		TxHash:        replacementHash,
		BroadcastAt:   &now,
	})
	if err != nil {
		e.logger.Error("[replace][Create]", map[string]string{
			"withdrawalID": w.withdrawalID,
			"error":        err.Error(),
		})
	} else {
		w.queuedTxID = replacement.ID
	}

	if err := e.tracker.RecordReplacement(w.withdrawalID, supersededHash, replacementHash); err != nil {
		e.logger.Error("[replace][RecordReplacement]", map[string]string{
			"withdrawalID": w.withdrawalID,
			"error":        err.Error(),
		})
	}

	e.metrics.RecordFeeBump(string(w.request.Network))

	w.hashes = append(w.hashes, replacementHash)
	w.fees = fees
	w.broadcastAt = now
	w.feeBumps++
}

// bumpFees picks the larger of a 12.5% bump over the previous attempt
// and the node's current estimate, so replacements always clear the
// pool's minimum-increment rule.
func bumpFees(previous, fresh *chainrpc.FeeParameters) *chainrpc.FeeParameters {
	bumped := &chainrpc.FeeParameters{
		GasTipCap: minimumBump(previous.GasTipCap),
		GasFeeCap: minimumBump(previous.GasFeeCap),
	}
	if fresh.GasTipCap.Cmp(bumped.GasTipCap) > 0 {
		bumped.GasTipCap = fresh.GasTipCap
	}
	if fresh.GasFeeCap.Cmp(bumped.GasFeeCap) > 0 {
		bumped.GasFeeCap = fresh.GasFeeCap
	}
	return bumped
}

func minimumBump(value *big.Int) *big.Int {
	bumped := new(big.Int).Mul(value, big.NewInt(1125))
	bumped.Div(bumped, big.NewInt(1000))
	return bumped.Add(bumped, big.NewInt(1))
}

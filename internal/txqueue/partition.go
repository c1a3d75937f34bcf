package txqueue

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dwarvesf/withdrawal-engine/internal/model"
)

type partitionKey struct {
	network model.Network
	account string
}

// partition owns nonce allocation for one (network, sourceAccount).
// Exactly one worker goroutine drains jobs; the confirmation monitor
// takes nonceMu only when signing a replacement, so no second party can
// ever hold the next nonce concurrently.
type partition struct {
	key  partitionKey
	jobs chan *model.WithdrawalRequest

	nonceMu       sync.Mutex
	nonceInit     bool
	nextNonce     uint64
	lastAllocated uint64
	allocated     bool

	inFlight atomic.Int64
}

func newPartition(key partitionKey, buffer int) *partition {
	return &partition{
		key:  key,
		jobs: make(chan *model.WithdrawalRequest, buffer),
	}
}

// initNonce seeds the counter from the chain's pending nonce exactly
// once. After that the counter is only ever advanced locally.
func (p *partition) initNonce(ctx context.Context, lookup func(context.Context, string) (uint64, error), account string) error {
	p.nonceMu.Lock()
	defer p.nonceMu.Unlock()

	if p.nonceInit {
		return nil
	}

	nonce, err := lookup(ctx, account)
	if err != nil {
		return err
	}

	p.nextNonce = nonce
	p.nonceInit = true
	return nil
}

func (p *partition) allocateNonce() uint64 {
	p.nonceMu.Lock()
	defer p.nonceMu.Unlock()

	nonce := p.nextNonce
	p.nextNonce++
	p.lastAllocated = nonce
	p.allocated = true
	return nonce
}

// releaseNonce returns a never-consumed slot so the next request reuses
// it, keeping the sequence gapless. Only legal for the most recently
// allocated nonce, which holds because the worker is the sole allocator
// and processes requests serially.
func (p *partition) releaseNonce(nonce uint64) {
	p.nonceMu.Lock()
	defer p.nonceMu.Unlock()

	if p.nextNonce == nonce+1 {
		p.nextNonce = nonce
	}
}

func (p *partition) status() PartitionStatus {
	p.nonceMu.Lock()
	defer p.nonceMu.Unlock()

	status := PartitionStatus{
		Network:       p.key.network,
		SourceAccount: p.key.account,
		InFlight:      p.inFlight.Load(),
	}
	if p.allocated {
		nonce := p.lastAllocated
		status.LastAllocatedNonce = &nonce
	}
	return status
}

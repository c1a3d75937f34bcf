package txqueue

import "github.com/dwarvesf/withdrawal-engine/internal/model"

// Fanout broadcasts terminal-state events to every registered notifier.
// Add is not safe to call once the engine is running.
type Fanout struct {
	notifiers []Notifier
}

func (f *Fanout) Add(n Notifier) {
	f.notifiers = append(f.notifiers, n)
}

func (f *Fanout) WithdrawalSettled(withdrawalID string, state model.WithdrawalState, txHash string, reason string) {
	for _, n := range f.notifiers {
		n.WithdrawalSettled(withdrawalID, state, txHash, reason)
	}
}

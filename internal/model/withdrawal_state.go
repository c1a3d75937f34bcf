package model

// WithdrawalState is the externally visible state of a withdrawal.
// Transitions only move forward; Confirmed and Failed are terminal.
type WithdrawalState string

const (
	WithdrawalStatePending    WithdrawalState = "pending"
	WithdrawalStateQueued     WithdrawalState = "queued"
	WithdrawalStateSubmitted  WithdrawalState = "submitted"
	WithdrawalStateConfirming WithdrawalState = "confirming"
	WithdrawalStateConfirmed  WithdrawalState = "confirmed"
	WithdrawalStateFailed     WithdrawalState = "failed"

	// WithdrawalEventReplaced never becomes the current state of a
	// withdrawal. It is appended to the transition history when a stuck
	// transaction is superseded by a fee-bumped replacement while the
	// withdrawal stays in submitted/confirming.
	WithdrawalEventReplaced WithdrawalState = "replaced"
)

var stateRank = map[WithdrawalState]int{
	WithdrawalStatePending:    0,
	WithdrawalStateQueued:     1,
	WithdrawalStateSubmitted:  2,
	WithdrawalStateConfirming: 3,
	WithdrawalStateConfirmed:  4,
}

func (s WithdrawalState) Terminal() bool {
	return s == WithdrawalStateConfirmed || s == WithdrawalStateFailed
}

// CanTransition reports whether moving from s to next is a legal forward
// move through the state machine. Failed is reachable from every
// non-terminal state; no terminal state may be re-entered or left.
func (s WithdrawalState) CanTransition(next WithdrawalState) bool {
	if s.Terminal() {
		return false
	}
	if next == WithdrawalStateFailed {
		return true
	}
	fromRank, ok := stateRank[s]
	if !ok {
		return false
	}
	toRank, ok := stateRank[next]
	if !ok {
		return false
	}
	return toRank == fromRank+1
}

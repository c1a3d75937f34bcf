package chainrpc

import (
	"strings"

	"github.com/dwarvesf/withdrawal-engine/internal/model"
)

// chainRejectionFragments are node error messages that mean the chain
// has definitively refused the transaction. Everything else coming back
// from a broadcast is assumed to clear on retry.
var chainRejectionFragments = []string{
	"insufficient funds",
	"nonce too low",
	"execution reverted",
	"invalid sender",
	"exceeds block gas limit",
	"intrinsic gas too low",
}

func classifyBroadcastError(network model.Network, err error) error {
	msg := strings.ToLower(err.Error())

	// The pool already holds this exact transaction; the broadcast has
	// effectively succeeded.
	if strings.Contains(msg, "already known") || strings.Contains(msg, "known transaction") {
		return nil
	}

	for _, fragment := range chainRejectionFragments {
		if strings.Contains(msg, fragment) {
			return &model.ChainRejection{Network: network, Reason: err.Error()}
		}
	}

	return &model.TransientNetworkError{Network: network, Err: err}
}

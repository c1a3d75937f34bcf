package signer

import (
	"math/big"

	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/dwarvesf/withdrawal-engine/internal/chainrpc"
)

// TransferInput describes one signing request. Token transfers carry the
// token contract address; native transfers leave it empty.
type TransferInput struct {
	Nonce        uint64
	To           string
	TokenAddress string
	Amount       *big.Int
	Fees         *chainrpc.FeeParameters
}

// ISigner is the key-management collaborator for one (network, account)
// pair. It never exposes the private key.
type ISigner interface {
	Account() string
	SignTransfer(input TransferInput) (*ethtypes.Transaction, error)
}

package chainrpc

import (
	"context"
	"math/big"

	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/dwarvesf/withdrawal-engine/internal/model"
)

// FeeParameters are the EIP-1559 fee fields for one submission attempt.
type FeeParameters struct {
	GasTipCap *big.Int
	GasFeeCap *big.Int
}

// TxStatus reports what the network currently knows about a broadcast
// transaction.
type TxStatus struct {
	Included      bool
	Reverted      bool
	BlockNumber   uint64
	Confirmations int64
}

// INetworkAdapter is the per-network RPC boundary: fee estimation, nonce
// lookup, broadcast and confirmation polling. Implementations classify
// failures into transient errors and chain rejections (internal/model).
type INetworkAdapter interface {
	Network() model.Network
	ChainID() *big.Int
	SuggestFees(ctx context.Context) (*FeeParameters, error)
	PendingNonce(ctx context.Context, account string) (uint64, error)
	Broadcast(ctx context.Context, tx *ethtypes.Transaction) error
	TransactionStatus(ctx context.Context, txHash string) (*TxStatus, error)
}

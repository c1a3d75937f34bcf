package chainrpc

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/dwarvesf/withdrawal-engine/internal/model"
	"github.com/dwarvesf/withdrawal-engine/internal/utils/config"
	"github.com/dwarvesf/withdrawal-engine/internal/utils/logger"
)

type EvmRPC struct {
	network model.Network
	chainID *big.Int
	client  *ethclient.Client
	logger  *logger.Logger
}

func New(network model.Network, cfg config.NetworkConfig, logger *logger.Logger) (INetworkAdapter, error) {
	client, err := ethclient.Dial(cfg.RPCEndpoint)
	if err != nil {
		return nil, err
	}

	return &EvmRPC{
		network: network,
		chainID: big.NewInt(cfg.ChainID),
		client:  client,
		logger:  logger,
	}, nil
}

func (e *EvmRPC) Network() model.Network {
	return e.network
}

func (e *EvmRPC) ChainID() *big.Int {
	return new(big.Int).Set(e.chainID)
}

func (e *EvmRPC) SuggestFees(ctx context.Context) (*FeeParameters, error) {
	tipCap, err := e.client.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, &model.TransientNetworkError{Network: e.network, Err: err}
	}

	head, err := e.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, &model.TransientNetworkError{Network: e.network, Err: err}
	}

	// feeCap covers twice the current base fee so the transaction
	// survives moderate base-fee growth while pending.
	feeCap := new(big.Int).Add(
		new(big.Int).Mul(head.BaseFee, big.NewInt(2)),
		tipCap,
	)

	return &FeeParameters{
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
	}, nil
}

func (e *EvmRPC) PendingNonce(ctx context.Context, account string) (uint64, error) {
	nonce, err := e.client.PendingNonceAt(ctx, common.HexToAddress(account))
	if err != nil {
		return 0, &model.TransientNetworkError{Network: e.network, Err: err}
	}
	return nonce, nil
}

func (e *EvmRPC) Broadcast(ctx context.Context, tx *ethtypes.Transaction) error {
	err := e.client.SendTransaction(ctx, tx)
	if err != nil {
		return classifyBroadcastError(e.network, err)
	}
	return nil
}

func (e *EvmRPC) TransactionStatus(ctx context.Context, txHash string) (*TxStatus, error) {
	receipt, err := e.client.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return &TxStatus{Included: false}, nil
		}
		return nil, &model.TransientNetworkError{Network: e.network, Err: err}
	}

	latest, err := e.client.BlockNumber(ctx)
	if err != nil {
		return nil, &model.TransientNetworkError{Network: e.network, Err: err}
	}

	included := receipt.BlockNumber.Uint64()
	confirmations := int64(0)
	if latest >= included {
		confirmations = int64(latest-included) + 1
	}

	return &TxStatus{
		Included:      true,
		Reverted:      receipt.Status == ethtypes.ReceiptStatusFailed,
		BlockNumber:   included,
		Confirmations: confirmations,
	}, nil
}

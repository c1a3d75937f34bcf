package signer

import (
	"crypto/ecdsa"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

const (
	nativeTransferGasLimit = 21000
	tokenTransferGasLimit  = 65000

	erc20TransferABI = `[{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"}]`
)

var transferABI abi.ABI

func init() {
	var err error
	transferABI, err = abi.JSON(strings.NewReader(erc20TransferABI))
	if err != nil {
		panic(err)
	}
}

type Signer struct {
	privateKey *ecdsa.PrivateKey
	account    common.Address
	chainID    *big.Int
}

// NewFromHex builds a signer from a hex-encoded private key. The source
// account is derived from the key, never configured separately.
func NewFromHex(privateKeyHex string, chainID *big.Int) (ISigner, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid signer private key")
	}

	return &Signer{
		privateKey: privateKey,
		account:    crypto.PubkeyToAddress(privateKey.PublicKey),
		chainID:    chainID,
	}, nil
}

func (s *Signer) Account() string {
	return s.account.Hex()
}

func (s *Signer) SignTransfer(input TransferInput) (*ethtypes.Transaction, error) {
	to := common.HexToAddress(input.To)

	txData := &ethtypes.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     input.Nonce,
		GasTipCap: input.Fees.GasTipCap,
		GasFeeCap: input.Fees.GasFeeCap,
	}

	if input.TokenAddress == "" {
		txData.To = &to
		txData.Value = input.Amount
		txData.Gas = nativeTransferGasLimit
	} else {
		calldata, err := transferABI.Pack("transfer", to, input.Amount)
		if err != nil {
			return nil, errors.Wrap(err, "failed to pack transfer calldata")
		}
		tokenAddr := common.HexToAddress(input.TokenAddress)
		txData.To = &tokenAddr
		txData.Value = big.NewInt(0)
		txData.Gas = tokenTransferGasLimit
		txData.Data = calldata
	}

	signed, err := ethtypes.SignNewTx(s.privateKey, ethtypes.LatestSignerForChainID(s.chainID), txData)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign transaction")
	}

	return signed, nil
}

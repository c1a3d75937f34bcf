package model

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dwarvesf/withdrawal-engine/internal/consts"
)

// ParseAmount converts a caller-supplied decimal string into a
// fixed-point integer amount in minor units. Monetary values never pass
// through floating point.
func ParseAmount(value string, decimals int) (*Web3BigInt, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return nil, &ValidationError{Field: "amount", Reason: "not a decimal number"}
	}

	if !amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}

	shifted := amount.Shift(int32(decimals))
	if !shifted.IsInteger() {
		return nil, &ValidationError{Field: "amount", Reason: "more precision than the token supports"}
	}

	return &Web3BigInt{
		Value:   shifted.BigInt().String(),
		Decimal: decimals,
	}, nil
}

// IsZeroAddress reports whether addr is the zero-address sentinel for a
// network's native asset.
func IsZeroAddress(addr string) bool {
	return strings.EqualFold(strings.TrimSpace(addr), consts.ZERO_ADDRESS)
}

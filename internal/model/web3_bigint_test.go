package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeb3BigInt_BigInt(t *testing.T) {
	amount := Web3BigInt{Value: "1234567890000000000", Decimal: 18}
	parsed, ok := amount.BigInt()
	require.True(t, ok)
	assert.Equal(t, "1234567890000000000", parsed.String())

	negative := Web3BigInt{Value: "-1", Decimal: 6}
	parsed, ok = negative.BigInt()
	require.True(t, ok)
	assert.Equal(t, int64(-1), parsed.Int64())

	malformed := Web3BigInt{Value: "1.5", Decimal: 18}
	_, ok = malformed.BigInt()
	assert.False(t, ok)
}

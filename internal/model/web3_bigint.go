package model

import "math/big"

// Web3BigInt is an exact minor-unit amount, kept as a decimal string so
// it survives JSON and database round trips without float truncation.
type Web3BigInt struct {
	Value   string `json:"value"`
	Decimal int    `json:"decimal"`
}

// BigInt returns the raw minor-unit value.
func (w *Web3BigInt) BigInt() (*big.Int, bool) {
	return new(big.Int).SetString(w.Value, 10)
}

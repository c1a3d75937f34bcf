package consts

const (
	NATIVE_TOKEN_DECIMALS = 18

	// ZERO_ADDRESS is the sentinel token address denoting the network's
	// native asset.
	ZERO_ADDRESS = "0x0000000000000000000000000000000000000000"
)

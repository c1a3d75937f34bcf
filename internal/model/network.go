package model

// Network identifies a supported blockchain network. All supported
// networks are account-based EVM chains sharing nonce semantics.
type Network string

const (
	NetworkEthereum Network = "ethereum"
	NetworkBase     Network = "base"
	NetworkPolygon  Network = "polygon"
)

func (n Network) Valid() bool {
	switch n {
	case NetworkEthereum, NetworkBase, NetworkPolygon:
		return true
	}
	return false
}

func SupportedNetworks() []Network {
	return []Network{NetworkEthereum, NetworkBase, NetworkPolygon}
}

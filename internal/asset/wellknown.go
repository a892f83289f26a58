package asset

import "github.com/ethereum/go-ethereum/common"

const (
	ChainIDEthereum = 1
	ChainIDSepolia  = 11155111
	ChainIDHolesky  = 17000
)

// Mainnet contract addresses.
var (
	AddrUSDC = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	AddrUSDT = common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")
	AddrDAI  = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	AddrWETH = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	AddrWBTC = common.HexToAddress("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599")
	AddrLINK = common.HexToAddress("0x514910771AF9Ca656af840dff83E8264EcF986CA")
	AddrUNI  = common.HexToAddress("0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984")
)

var (
	ETH  = NewNative(ChainIDEthereum, "ETH", "Ethereum", 18)
	USDC = NewToken(ChainIDEthereum, AddrUSDC, "USDC", "USD Coin", 6)
	USDT = NewToken(ChainIDEthereum, AddrUSDT, "USDT", "Tether USD", 6)
	DAI  = NewToken(ChainIDEthereum, AddrDAI, "DAI", "Dai Stablecoin", 18)
	WETH = NewToken(ChainIDEthereum, AddrWETH, "WETH", "Wrapped Ether", 18)
	WBTC = NewToken(ChainIDEthereum, AddrWBTC, "WBTC", "Wrapped Bitcoin", 8)
	LINK = NewToken(ChainIDEthereum, AddrLINK, "LINK", "ChainLink Token", 18)
	UNI  = NewToken(ChainIDEthereum, AddrUNI, "UNI", "Uniswap", 18)
)

// DefaultRegistry returns a registry with mainnet ETH and common tokens,
// plus the native coin of the public testnets.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, a := range []*Asset{ETH, USDC, USDT, DAI, WETH, WBTC, LINK, UNI} {
		r.Register(a)
	}
	r.Register(NewNative(ChainIDSepolia, "ETH", "Sepolia Ether", 18))
	r.Register(NewNative(ChainIDHolesky, "ETH", "Holesky Ether", 18))
	return r
}

// Package asset describes the coins and tokens the dashboard labels and formats.
package asset

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Asset is display metadata for a native coin or ERC-20 token.
// A zero Address means the chain's native coin.
type Asset struct {
	chainID  uint64
	address  common.Address
	symbol   string
	name     string
	decimals uint8
}

// NewNative creates the native coin of chainID.
func NewNative(chainID uint64, symbol, name string, decimals uint8) *Asset {
	return newAsset(chainID, common.Address{}, symbol, name, decimals)
}

// NewToken creates an ERC-20 token asset.
func NewToken(chainID uint64, address common.Address, symbol, name string, decimals uint8) *Asset {
	if address == (common.Address{}) {
		panic("asset: token with zero address")
	}
	return newAsset(chainID, address, symbol, name, decimals)
}

func newAsset(chainID uint64, address common.Address, symbol, name string, decimals uint8) *Asset {
	if symbol == "" {
		panic("asset: empty symbol")
	}
	if decimals > 30 {
		panic("asset: suspicious decimals (>30)")
	}
	return &Asset{chainID: chainID, address: address, symbol: symbol, name: name, decimals: decimals}
}

func (a *Asset) ChainID() uint64         { return a.chainID }
func (a *Asset) Address() common.Address { return a.address }
func (a *Asset) Symbol() string          { return a.symbol }
func (a *Asset) Decimals() uint8         { return a.decimals }

// Name returns the human-readable name, falling back to the symbol.
func (a *Asset) Name() string {
	if a.name == "" {
		return a.symbol
	}
	return a.name
}

// IsNative reports whether this is the chain's native coin.
func (a *Asset) IsNative() bool {
	return a.address == (common.Address{})
}

// Label is the short tag shown next to a contract address, e.g. "USDC (USD Coin)".
func (a *Asset) Label() string {
	if a.name == "" || a.name == a.symbol {
		return a.symbol
	}
	return fmt.Sprintf("%s (%s)", a.symbol, a.name)
}

func (a *Asset) String() string {
	if a.IsNative() {
		return fmt.Sprintf("%s@%d", a.symbol, a.chainID)
	}
	return fmt.Sprintf("%s@%d:%s", a.symbol, a.chainID, a.address.Hex())
}

// Package app contains the fetch orchestrator, the shared dashboard state
// and the ports it consumes.
package app

import (
	"context"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"

	"github.com/fd1az/blockterm/business/explorer/domain"
)

// BlockTag names a consensus checkpoint.
type BlockTag string

const (
	TagSafe      BlockTag = "safe"
	TagFinalized BlockTag = "finalized"
)

// ChainReader reads chain data from the node. Lookups that find nothing
// return a nil result and a nil error.
type ChainReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
	BlockByNumber(ctx context.Context, number uint64) (*domain.BlockWithReceipts, error)
	BlockByHash(ctx context.Context, hash common.Hash) (*domain.BlockWithReceipts, error)
	HeaderByTag(ctx context.Context, tag BlockTag) (*types.Header, error)
	// TransactionByHash leaves Receipt nil.
	TransactionByHash(ctx context.Context, hash common.Hash) (*domain.TxWithReceipt, error)
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	BalanceAt(ctx context.Context, addr common.Address) (*big.Int, error)
}

// NameResolver resolves ENS names. Missing records return nil and no error.
type NameResolver interface {
	LookupAddress(ctx context.Context, addr common.Address) (*string, error)
	ResolveName(ctx context.Context, name string) (*common.Address, error)
	Avatar(ctx context.Context, name string) (*string, error)
}

// GasOracle is the explorer's gas tracker in gwei.
type GasOracle struct {
	SuggestedBaseFee decimal.Decimal
	ProposeGasPrice  decimal.Decimal
}

// Explorer is an Etherscan-compatible API. When Enabled is false every call
// fails with apperror.CodeExplorerDisabled.
type Explorer interface {
	Enabled() bool
	EtherPrice(ctx context.Context) (decimal.Decimal, error)
	NodeCount(ctx context.Context) (uint64, error)
	GasOracle(ctx context.Context) (*GasOracle, error)
	// ContractABI returns nil for unverified contracts and plain accounts.
	ContractABI(ctx context.Context, addr common.Address) (*string, error)
	ContractSource(ctx context.Context, addr common.Address) (*domain.ContractSource, error)
}

// InputDecoder decodes calldata with a contract ABI in JSON form.
type InputDecoder interface {
	Decode(abiJSON string, data []byte) (*domain.DecodedInput, error)
}

// Notifier is told after every state commit.
type Notifier interface {
	Notify()
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func()

func (f NotifierFunc) Notify() { f() }

// NotifierSlot is a Notifier whose target is bound after construction.
// Notify before Bind is a no-op.
type NotifierSlot struct {
	target atomic.Pointer[Notifier]
}

// Bind sets the target.
func (s *NotifierSlot) Bind(n Notifier) {
	s.target.Store(&n)
}

func (s *NotifierSlot) Notify() {
	if n := s.target.Load(); n != nil {
		(*n).Notify()
	}
}

package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
)

// BlockWithReceipts is a block with full transactions. Senders is aligned
// with the block's transactions. Receipts is nil until fetched, and a nil
// entry means that receipt failed to load.
type BlockWithReceipts struct {
	Block    *types.Block
	Senders  []common.Address
	Receipts []*types.Receipt
}

func (b *BlockWithReceipts) Number() uint64 { return b.Block.NumberU64() }

func (b *BlockWithReceipts) Hash() common.Hash { return b.Block.Hash() }

// Sender returns the sender of the i-th transaction.
func (b *BlockWithReceipts) Sender(i int) (common.Address, bool) {
	if i < 0 || i >= len(b.Senders) {
		return common.Address{}, false
	}
	return b.Senders[i], true
}

// Receipt returns the receipt of the i-th transaction when loaded.
func (b *BlockWithReceipts) Receipt(i int) *types.Receipt {
	if i < 0 || i >= len(b.Receipts) {
		return nil
	}
	return b.Receipts[i]
}

// HasWithdrawals reports whether the block carries a withdrawals list
// (post-Shanghai), even an empty one.
func (b *BlockWithReceipts) HasWithdrawals() bool {
	return b.Block.Withdrawals() != nil
}

// WithReceipts returns a copy of b with receipts attached.
func (b *BlockWithReceipts) WithReceipts(receipts []*types.Receipt) *BlockWithReceipts {
	return &BlockWithReceipts{Block: b.Block, Senders: b.Senders, Receipts: receipts}
}

// Addresses lists the distinct addresses a block view displays: fee
// recipient, senders, recipients and withdrawal targets.
func (b *BlockWithReceipts) Addresses() []common.Address {
	set := newAddressSet()
	set.add(b.Block.Coinbase())
	for i, tx := range b.Block.Transactions() {
		if from, ok := b.Sender(i); ok {
			set.add(from)
		}
		if to := tx.To(); to != nil {
			set.add(*to)
		}
	}
	for _, w := range b.Block.Withdrawals() {
		set.add(w.Address)
	}
	return set.list
}

// TxWithReceipt is a transaction, its recovered sender and its receipt.
type TxWithReceipt struct {
	Tx      *types.Transaction
	From    common.Address
	Receipt *types.Receipt
}

func (t *TxWithReceipt) Hash() common.Hash { return t.Tx.Hash() }

// Addresses lists the sender, the recipient and a created contract.
func (t *TxWithReceipt) Addresses() []common.Address {
	set := newAddressSet()
	set.add(t.From)
	if to := t.Tx.To(); to != nil {
		set.add(*to)
	}
	if t.Receipt != nil && t.Receipt.ContractAddress != (common.Address{}) {
		set.add(t.Receipt.ContractAddress)
	}
	return set.list
}

// Succeeded reports the receipt status; false when no receipt is loaded.
func (t *TxWithReceipt) Succeeded() bool {
	return t.Receipt != nil && t.Receipt.Status == types.ReceiptStatusSuccessful
}

// ContractSource is verified source metadata from the explorer.
type ContractSource struct {
	ContractName     string
	CompilerVersion  string
	OptimizationUsed bool
	Runs             int
	EVMVersion       string
	LicenseType      string
	Proxy            bool
	Implementation   string
	SourceCode       string
}

// AddressInfo describes an account. A nil field means not applicable or not
// found, never "not yet fetched".
type AddressInfo struct {
	Address        common.Address
	Name           *string
	AvatarURL      *string
	Balance        *big.Int
	ContractABI    *string
	ContractSource *ContractSource
}

// IsContract reports whether explorer metadata identifies a contract.
func (a *AddressInfo) IsContract() bool {
	return a.ContractABI != nil || a.ContractSource != nil
}

// Statistics is the network overview. Every field is refreshed on its own.
// Gas figures are in gwei.
type Statistics struct {
	EthUSD             *decimal.Decimal
	NodeCount          *uint64
	SuggestedBaseFee   *decimal.Decimal
	MedianGasPrice     *decimal.Decimal
	LastSafeBlock      *types.Header
	LastFinalizedBlock *types.Header
}

// DecodedArg is one decoded calldata argument.
type DecodedArg struct {
	Name  string
	Type  string
	Value string
}

// DecodedInput is calldata matched against a contract ABI.
type DecodedInput struct {
	Selector  string
	Method    string
	Signature string
	Args      []DecodedArg
}

type addressSet struct {
	seen map[common.Address]struct{}
	list []common.Address
}

func newAddressSet() *addressSet {
	return &addressSet{seen: make(map[common.Address]struct{})}
}

func (s *addressSet) add(a common.Address) {
	if a == (common.Address{}) {
		return
	}
	if _, ok := s.seen[a]; ok {
		return
	}
	s.seen[a] = struct{}{}
	s.list = append(s.list, a)
}

// UniqueAddresses merges address lists, dropping duplicates and the zero
// address while keeping first-seen order.
func UniqueAddresses(lists ...[]common.Address) []common.Address {
	set := newAddressSet()
	for _, l := range lists {
		for _, a := range l {
			set.add(a)
		}
	}
	return set.list
}

package domain

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
)

// Command is an immutable fetch intent sent from the UI to the worker.
// The set of variants is closed.
type Command interface {
	command()
	Name() string
}

// RefreshStatistics reloads every Statistics field.
type RefreshStatistics struct{}

// ResolveNameOrAddress opens the address view for an ENS name or a hex
// address. FromSearch pops the search frame before the result is pushed.
type ResolveNameOrAddress struct {
	Query      string
	FromSearch bool
}

type FetchBlockByNumber struct {
	Number     uint64
	FromSearch bool
}

type FetchBlockByHash struct {
	Hash       common.Hash
	FromSearch bool
}

// FetchTransaction loads a transaction and its receipt.
type FetchTransaction struct {
	Hash       common.Hash
	FromSearch bool
}

// FetchReceipts loads receipts for an explicit batch of a block's
// transactions and fills them into the open transactions view.
type FetchReceipts struct {
	BlockHash common.Hash
	TxHashes  []common.Hash
}

// DecodeInputData opens the calldata view of Tx.
type DecodeInputData struct {
	Tx *TxWithReceipt
}

// FetchLatestBlocks replaces the latest-blocks list with the N newest blocks.
type FetchLatestBlocks struct {
	N int
}

// FetchLatestTransactions replaces the latest-transactions list with the
// first N transactions of the newest block.
type FetchLatestTransactions struct {
	N int
}

// ResolveENSNames reverse-resolves a batch of addresses into the name cache.
type ResolveENSNames struct {
	Addresses []common.Address
}

// InitialSetup loads statistics, N blocks and N transactions concurrently.
type InitialSetup struct {
	N int
}

func (RefreshStatistics) command()       {}
func (ResolveNameOrAddress) command()    {}
func (FetchBlockByNumber) command()      {}
func (FetchBlockByHash) command()        {}
func (FetchTransaction) command()        {}
func (FetchReceipts) command()           {}
func (DecodeInputData) command()         {}
func (FetchLatestBlocks) command()       {}
func (FetchLatestTransactions) command() {}
func (ResolveENSNames) command()         {}
func (InitialSetup) command()            {}

func (RefreshStatistics) Name() string       { return "refresh_statistics" }
func (ResolveNameOrAddress) Name() string    { return "resolve_name_or_address" }
func (FetchBlockByNumber) Name() string      { return "fetch_block_by_number" }
func (FetchBlockByHash) Name() string        { return "fetch_block_by_hash" }
func (FetchTransaction) Name() string        { return "fetch_transaction" }
func (FetchReceipts) Name() string           { return "fetch_receipts" }
func (DecodeInputData) Name() string         { return "decode_input_data" }
func (FetchLatestBlocks) Name() string       { return "fetch_latest_blocks" }
func (FetchLatestTransactions) Name() string { return "fetch_latest_transactions" }
func (ResolveENSNames) Name() string         { return "resolve_ens_names" }
func (InitialSetup) Name() string            { return "initial_setup" }

// IsFromSearch reports whether cmd was produced by the search bar.
func IsFromSearch(cmd Command) bool {
	switch c := cmd.(type) {
	case ResolveNameOrAddress:
		return c.FromSearch
	case FetchBlockByNumber:
		return c.FromSearch
	case FetchBlockByHash:
		return c.FromSearch
	case FetchTransaction:
		return c.FromSearch
	default:
		return false
	}
}

// Describe renders cmd for logs and the status line.
func Describe(cmd Command) string {
	switch c := cmd.(type) {
	case ResolveNameOrAddress:
		return "address " + c.Query
	case FetchBlockByNumber:
		return "block #" + strconv.FormatUint(c.Number, 10)
	case FetchBlockByHash:
		return "block " + c.Hash.Hex()
	case FetchTransaction:
		return "transaction " + c.Hash.Hex()
	case FetchReceipts:
		return "receipts of " + c.BlockHash.Hex()
	case DecodeInputData:
		if c.Tx == nil {
			return "input data"
		}
		return "input data of " + c.Tx.Hash().Hex()
	case FetchLatestBlocks:
		return "latest blocks"
	case FetchLatestTransactions:
		return "latest transactions"
	case ResolveENSNames:
		return "ens names"
	case InitialSetup:
		return "initial setup"
	case RefreshStatistics:
		return "statistics"
	default:
		return cmd.Name()
	}
}

package app

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/blockterm/business/explorer/domain"
	"github.com/fd1az/blockterm/internal/apperror"
)

func (o *Orchestrator) handleRefreshStatistics(ctx context.Context) error {
	if err := o.refreshStatistics(ctx); err != nil {
		return apperror.New(apperror.CodePartialFailure,
			apperror.WithContext("statistics"),
			apperror.WithCause(err))
	}
	return nil
}

func (o *Orchestrator) handleFetchLatestBlocks(ctx context.Context, n int) error {
	blocks, err := o.fetchLatestBlocks(ctx, n)
	if err != nil {
		return err
	}
	o.state.setLatestBlocks(blocks)
	o.notify()

	o.resolveMissing(ctx, coinbases(blocks))
	return nil
}

func (o *Orchestrator) handleFetchLatestTransactions(ctx context.Context, n int) error {
	txs, err := o.fetchLatestTransactions(ctx, n)
	if err != nil {
		return err
	}
	o.state.setLatestTransactions(txs)
	o.notify()

	o.resolveMissing(ctx, txAddresses(txs))
	return nil
}

// handleInitialSetup loads statistics, blocks and transactions side by
// side. Each part commits its own field; failures are reported per part.
func (o *Orchestrator) handleInitialSetup(ctx context.Context, n int) error {
	st := &subtasks{}
	var (
		blocks []*domain.BlockWithReceipts
		txs    []*domain.TxWithReceipt
		g      errgroup.Group
	)

	g.Go(func() error {
		st.record("statistics", o.refreshStatistics(ctx))
		return nil
	})
	g.Go(func() error {
		b, err := o.fetchLatestBlocks(ctx, n)
		if st.record("blocks", err) {
			return nil
		}
		o.state.setLatestBlocks(b)
		o.notify()
		blocks = b
		return nil
	})
	g.Go(func() error {
		t, err := o.fetchLatestTransactions(ctx, n)
		if st.record("transactions", err) {
			return nil
		}
		o.state.setLatestTransactions(t)
		o.notify()
		txs = t
		return nil
	})
	_ = g.Wait()

	o.resolveMissing(ctx, domain.UniqueAddresses(coinbases(blocks), txAddresses(txs)))
	return st.err()
}

func (o *Orchestrator) handleFetchBlock(
	ctx context.Context,
	gen uint64,
	fromSearch bool,
	fetch func(context.Context) (*domain.BlockWithReceipts, error),
) error {
	b, err := fetch(ctx)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeEthereumRPCError, "block")
	}
	o.commitRoute(ctx, gen, domain.RouteBlock{Block: b}, fromSearch)
	if b != nil {
		o.resolveMissing(ctx, b.Addresses())
	}
	return nil
}

func (o *Orchestrator) handleFetchTransaction(ctx context.Context, gen uint64, c domain.FetchTransaction) error {
	var (
		tx      *domain.TxWithReceipt
		receipt *types.Receipt
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tx, err = o.deps.Chain.TransactionByHash(gctx, c.Hash)
		return err
	})
	g.Go(func() error {
		var err error
		receipt, err = o.deps.Chain.TransactionReceipt(gctx, c.Hash)
		return err
	})
	if err := g.Wait(); err != nil {
		return apperror.Wrap(err, apperror.CodeEthereumRPCError, domain.Describe(c))
	}

	if tx != nil {
		tx.Receipt = receipt
	}
	o.commitRoute(ctx, gen, domain.RouteTransaction{Tx: tx}, c.FromSearch)
	if tx != nil {
		o.resolveMissing(ctx, tx.Addresses())
	}
	return nil
}

// handleFetchReceipts fills receipts into the open transactions view of
// the block. Receipts that fail stay empty.
func (o *Orchestrator) handleFetchReceipts(ctx context.Context, gen uint64, c domain.FetchReceipts) error {
	results := BatchFetch(ctx, c.TxHashes, o.cfg.BatchSize, o.deps.Chain.TransactionReceipt, nil)

	byHash := make(map[common.Hash]*types.Receipt, len(results))
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		byHash[r.Key] = r.Value
	}

	replaced := o.state.replaceTop(gen, func(cur domain.Route) (domain.RouteID, bool) {
		r, ok := cur.ID.(domain.RouteTransactionsOfBlock)
		if !ok || r.Block == nil || r.Block.Hash() != c.BlockHash {
			return nil, false
		}
		txs := r.Block.Block.Transactions()
		receipts := make([]*types.Receipt, len(txs))
		for i, tx := range txs {
			receipts[i] = byHash[tx.Hash()]
		}
		return domain.RouteTransactionsOfBlock{Block: r.Block.WithReceipts(receipts)}, true
	})
	if replaced {
		o.notify()
	} else {
		o.dropStale(ctx, domain.RouteTransactionsOfBlock{})
	}

	if failed > 0 {
		return apperror.New(apperror.CodePartialFailure,
			apperror.WithContext(fmt.Sprintf("%d of %d receipts", failed, len(c.TxHashes))))
	}
	return nil
}

// handleDecodeInputData opens the calldata view. Without a verified ABI the
// raw input is shown.
func (o *Orchestrator) handleDecodeInputData(ctx context.Context, gen uint64, c domain.DecodeInputData) error {
	if c.Tx == nil {
		o.commitRoute(ctx, gen, domain.RouteInputData{}, false)
		return nil
	}

	var (
		decoded *domain.DecodedInput
		failure error
	)
	to, data := c.Tx.Tx.To(), c.Tx.Tx.Data()
	if to != nil && len(data) >= 4 {
		abiJSON, err := o.deps.Explorer.ContractABI(ctx, *to)
		switch {
		case apperror.GetCode(err) == apperror.CodeExplorerDisabled:
		case err != nil:
			failure = apperror.Wrap(err, apperror.CodeExplorerAPIError, "contract abi")
		case abiJSON != nil:
			decoded, err = o.deps.Decoder.Decode(*abiJSON, data)
			if err != nil {
				failure = apperror.Wrap(err, apperror.CodeInputDecodeFailed, "input data")
			}
		}
	}

	o.commitRoute(ctx, gen, domain.RouteInputData{Tx: c.Tx, Decoded: decoded}, false)
	return failure
}

func (o *Orchestrator) handleResolveNameOrAddress(ctx context.Context, gen uint64, c domain.ResolveNameOrAddress) error {
	info, err := o.fetchAddressInfo(ctx, c.Query)
	if info == nil && err != nil {
		return err
	}
	o.commitRoute(ctx, gen, domain.RouteAddressInfo{Info: info}, c.FromSearch)
	return err
}

func coinbases(blocks []*domain.BlockWithReceipts) []common.Address {
	out := make([]common.Address, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, b.Block.Coinbase())
	}
	return domain.UniqueAddresses(out)
}

func txAddresses(txs []*domain.TxWithReceipt) []common.Address {
	lists := make([][]common.Address, 0, len(txs))
	for _, t := range txs {
		lists = append(lists, t.Addresses())
	}
	return domain.UniqueAddresses(lists...)
}

package app

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/blockterm/business/explorer/domain"
	"github.com/fd1az/blockterm/internal/apperror"
)

// subtasks collects the failures of independent parts of one command.
type subtasks struct {
	mu    sync.Mutex
	names []string
	errs  []error
}

// record notes err under name and reports whether the part failed. An
// unconfigured explorer counts as failed but is not reported.
func (s *subtasks) record(name string, err error) bool {
	if err == nil {
		return false
	}
	if apperror.GetCode(err) == apperror.CodeExplorerDisabled {
		return true
	}
	s.mu.Lock()
	s.names = append(s.names, name)
	s.errs = append(s.errs, err)
	s.mu.Unlock()
	return true
}

func (s *subtasks) err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.errs) == 0 {
		return nil
	}
	return apperror.New(apperror.CodePartialFailure,
		apperror.WithContext(strings.Join(s.names, ", ")),
		apperror.WithCause(errors.Join(s.errs...)))
}

// fetchLatestBlocks returns the n newest blocks, newest first.
func (o *Orchestrator) fetchLatestBlocks(ctx context.Context, n int) ([]*domain.BlockWithReceipts, error) {
	if n <= 0 {
		return nil, nil
	}
	head, err := o.deps.Chain.BlockNumber(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeEthereumRPCError, "block number")
	}
	if uint64(n) > head+1 {
		n = int(head + 1)
	}

	blocks := make([]*domain.BlockWithReceipts, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.BatchSize)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			b, err := o.deps.Chain.BlockByNumber(gctx, head-uint64(i))
			if err != nil {
				return err
			}
			blocks[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeEthereumRPCError, "latest blocks")
	}

	out := blocks[:0]
	for _, b := range blocks {
		if b != nil {
			out = append(out, b)
		}
	}
	return out, nil
}

// fetchLatestTransactions returns the first n transactions of the newest
// block with their receipts. Transactions whose receipt fails are left out.
func (o *Orchestrator) fetchLatestTransactions(ctx context.Context, n int) ([]*domain.TxWithReceipt, error) {
	if n <= 0 {
		return nil, nil
	}
	head, err := o.deps.Chain.BlockNumber(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeEthereumRPCError, "block number")
	}
	b, err := o.deps.Chain.BlockByNumber(ctx, head)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeEthereumRPCError, "latest transactions")
	}
	if b == nil {
		return nil, nil
	}

	txs := b.Block.Transactions()
	if len(txs) > n {
		txs = txs[:n]
	}
	results := BatchFetch(ctx, txs, o.cfg.BatchSize,
		func(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
			return o.deps.Chain.TransactionReceipt(ctx, tx.Hash())
		}, nil)

	out := make([]*domain.TxWithReceipt, 0, len(results))
	for i, r := range results {
		if r.Err != nil || r.Value == nil {
			continue
		}
		from, _ := b.Sender(i)
		out = append(out, &domain.TxWithReceipt{Tx: r.Key, From: from, Receipt: r.Value})
	}
	return out, nil
}

// refreshStatistics loads every statistic on its own and commits each as
// soon as it arrives.
func (o *Orchestrator) refreshStatistics(ctx context.Context) error {
	st := &subtasks{}
	var g errgroup.Group

	g.Go(func() error {
		price, err := o.deps.Explorer.EtherPrice(ctx)
		if st.record("ether price", err) {
			return nil
		}
		o.commitStatistics(func(s *domain.Statistics) { s.EthUSD = &price })
		return nil
	})
	g.Go(func() error {
		nodes, err := o.deps.Explorer.NodeCount(ctx)
		if st.record("node count", err) {
			return nil
		}
		o.commitStatistics(func(s *domain.Statistics) { s.NodeCount = &nodes })
		return nil
	})
	g.Go(func() error {
		gas, err := o.deps.Explorer.GasOracle(ctx)
		if st.record("gas oracle", err) || gas == nil {
			return nil
		}
		o.commitStatistics(func(s *domain.Statistics) {
			s.SuggestedBaseFee = &gas.SuggestedBaseFee
			s.MedianGasPrice = &gas.ProposeGasPrice
		})
		return nil
	})
	g.Go(func() error {
		h, err := o.deps.Chain.HeaderByTag(ctx, TagSafe)
		if st.record("safe block", err) {
			return nil
		}
		o.commitStatistics(func(s *domain.Statistics) { s.LastSafeBlock = h })
		return nil
	})
	g.Go(func() error {
		h, err := o.deps.Chain.HeaderByTag(ctx, TagFinalized)
		if st.record("finalized block", err) {
			return nil
		}
		o.commitStatistics(func(s *domain.Statistics) { s.LastFinalizedBlock = h })
		return nil
	})

	_ = g.Wait()
	return st.err()
}

func (o *Orchestrator) commitStatistics(fn func(*domain.Statistics)) {
	o.state.updateStatistics(fn)
	o.notify()
}

// fetchAddressInfo resolves query to an account and loads its details. A
// name without a resolver record yields nil. Detail lookups fail on their
// own; the partial result is returned with the joined error.
func (o *Orchestrator) fetchAddressInfo(ctx context.Context, query string) (*domain.AddressInfo, error) {
	st := &subtasks{}
	info := &domain.AddressInfo{}

	if common.IsHexAddress(query) {
		info.Address = common.HexToAddress(query)
		name, err := o.deps.Names.LookupAddress(ctx, info.Address)
		if !st.record("ens name", err) {
			info.Name = name
			o.state.mergeNames(map[common.Address]*string{info.Address: name})
		}
	} else {
		addr, err := o.deps.Names.ResolveName(ctx, query)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.CodeENSLookupFailed, query)
		}
		if addr == nil {
			return nil, nil
		}
		info.Address = *addr
		name := query
		info.Name = &name
	}

	var g errgroup.Group
	g.Go(func() error {
		bal, err := o.deps.Chain.BalanceAt(ctx, info.Address)
		if !st.record("balance", err) {
			info.Balance = bal
		}
		return nil
	})
	if info.Name != nil {
		name := *info.Name
		g.Go(func() error {
			avatar, err := o.deps.Names.Avatar(ctx, name)
			if !st.record("avatar", err) {
				info.AvatarURL = avatar
			}
			return nil
		})
	}
	g.Go(func() error {
		abi, err := o.deps.Explorer.ContractABI(ctx, info.Address)
		if !st.record("contract abi", err) {
			info.ContractABI = abi
		}
		return nil
	})
	g.Go(func() error {
		src, err := o.deps.Explorer.ContractSource(ctx, info.Address)
		if !st.record("contract source", err) {
			info.ContractSource = src
		}
		return nil
	})
	_ = g.Wait()

	return info, st.err()
}

// resolveNames reverse-resolves addrs in rate-limited waves, merging each
// wave into the name cache as it completes.
func (o *Orchestrator) resolveNames(ctx context.Context, addrs []common.Address) {
	if len(addrs) == 0 {
		return
	}
	BatchFetch(ctx, addrs, o.cfg.BatchSize, o.deps.Names.LookupAddress,
		func(chunk []BatchResult[common.Address, *string]) {
			names := make(map[common.Address]*string, len(chunk))
			failed := 0
			for _, r := range chunk {
				if r.Err != nil {
					failed++
					names[r.Key] = nil
					continue
				}
				names[r.Key] = r.Value
			}
			o.state.mergeNames(names)
			o.notify()

			o.metrics.ensLookups.Add(ctx, int64(len(chunk)-failed), metric.WithAttributes(attribute.String("outcome", "ok")))
			if failed > 0 {
				o.metrics.ensLookups.Add(ctx, int64(failed), metric.WithAttributes(attribute.String("outcome", "error")))
				o.log.Debug(ctx, "ens lookups failed", "failed", failed, "chunk", len(chunk))
			}
		})
}

// resolveMissing resolves the addresses that have no cache entry yet.
func (o *Orchestrator) resolveMissing(ctx context.Context, addrs []common.Address) {
	o.resolveNames(ctx, o.state.missingNames(addrs))
}

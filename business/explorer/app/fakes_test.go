package app

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"

	"github.com/fd1az/blockterm/business/explorer/domain"
	"github.com/fd1az/blockterm/internal/apperror"
)

var errBoom = errors.New("boom")

func strPtr(s string) *string { return &s }

var (
	coinbaseA = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	recipient = common.HexToAddress("0x00000000000000000000000000000000000000be")
	vitalik   = common.HexToAddress("0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045")
)

func newTestTx(nonce uint64, to *common.Address, data []byte) *types.Transaction {
	return types.NewTx(&types.LegacyTx{
		Nonce: nonce, To: to, Value: big.NewInt(1), Gas: 21000, GasPrice: big.NewInt(1), Data: data,
	})
}

func newTestBlock(number uint64, ntx int) *domain.BlockWithReceipts {
	txs := make([]*types.Transaction, ntx)
	senders := make([]common.Address, ntx)
	for i := range txs {
		txs[i] = newTestTx(number*1000+uint64(i), &recipient, nil)
		senders[i] = common.BigToAddress(big.NewInt(int64(i + 1)))
	}
	header := &types.Header{Number: new(big.Int).SetUint64(number), Coinbase: coinbaseA}
	b := types.NewBlockWithHeader(header).WithBody(types.Body{Transactions: txs})
	return &domain.BlockWithReceipts{Block: b, Senders: senders}
}

// fakeChain serves a chain of blocks 0..head.
type fakeChain struct {
	mu         sync.Mutex
	head       uint64
	blocks     map[uint64]*domain.BlockWithReceipts
	failBlocks bool
	failTags   bool
	receiptErr map[common.Hash]error
	calls      atomic.Int64
	// gate, when set, blocks BlockByNumber until closed.
	gate chan struct{}
}

func newFakeChain(head uint64, txsPerBlock int) *fakeChain {
	c := &fakeChain{head: head, blocks: map[uint64]*domain.BlockWithReceipts{}, receiptErr: map[common.Hash]error{}}
	for n := uint64(0); n <= head; n++ {
		c.blocks[n] = newTestBlock(n, txsPerBlock)
	}
	return c
}

func (c *fakeChain) BlockNumber(context.Context) (uint64, error) {
	c.calls.Add(1)
	return c.head, nil
}

func (c *fakeChain) BlockByNumber(ctx context.Context, n uint64) (*domain.BlockWithReceipts, error) {
	c.calls.Add(1)
	if c.gate != nil {
		select {
		case <-c.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if c.failBlocks {
		return nil, errBoom
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blocks[n], nil
}

func (c *fakeChain) BlockByHash(_ context.Context, h common.Hash) (*domain.BlockWithReceipts, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range c.blocks {
		if b.Hash() == h {
			return b, nil
		}
	}
	return nil, nil
}

func (c *fakeChain) HeaderByTag(_ context.Context, tag BlockTag) (*types.Header, error) {
	if c.failTags {
		return nil, errBoom
	}
	n := c.head - 32
	if tag == TagFinalized {
		n = c.head - 64
	}
	return c.blocks[n].Block.Header(), nil
}

func (c *fakeChain) findTx(h common.Hash) (*domain.BlockWithReceipts, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range c.blocks {
		for i, tx := range b.Block.Transactions() {
			if tx.Hash() == h {
				return b, i
			}
		}
	}
	return nil, -1
}

func (c *fakeChain) TransactionByHash(_ context.Context, h common.Hash) (*domain.TxWithReceipt, error) {
	b, i := c.findTx(h)
	if b == nil {
		return nil, nil
	}
	from, _ := b.Sender(i)
	return &domain.TxWithReceipt{Tx: b.Block.Transactions()[i], From: from}, nil
}

func (c *fakeChain) TransactionReceipt(_ context.Context, h common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	err := c.receiptErr[h]
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	b, i := c.findTx(h)
	if b == nil {
		return nil, nil
	}
	return &types.Receipt{
		Status: types.ReceiptStatusSuccessful, TxHash: h, GasUsed: 21000,
		BlockNumber: b.Block.Number(), TransactionIndex: uint(i),
	}, nil
}

func (c *fakeChain) BalanceAt(context.Context, common.Address) (*big.Int, error) {
	return big.NewInt(1e18), nil
}

// fakeNames resolves from a fixed table.
type fakeNames struct {
	mu      sync.Mutex
	reverse map[common.Address]string
	forward map[string]common.Address
	fail    map[common.Address]bool
	delay   map[common.Address]time.Duration
	lookups []common.Address
}

func newFakeNames() *fakeNames {
	return &fakeNames{
		reverse: map[common.Address]string{vitalik: "vitalik.eth"},
		forward: map[string]common.Address{"vitalik.eth": vitalik},
		fail:    map[common.Address]bool{},
		delay:   map[common.Address]time.Duration{},
	}
}

func (n *fakeNames) LookupAddress(ctx context.Context, addr common.Address) (*string, error) {
	n.mu.Lock()
	n.lookups = append(n.lookups, addr)
	fail, d := n.fail[addr], n.delay[addr]
	name, ok := n.reverse[addr]
	n.mu.Unlock()

	if d > 0 {
		time.Sleep(d)
	}
	if fail {
		return nil, errBoom
	}
	if !ok {
		return nil, nil
	}
	return &name, nil
}

func (n *fakeNames) ResolveName(_ context.Context, name string) (*common.Address, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	addr, ok := n.forward[name]
	if !ok {
		return nil, nil
	}
	return &addr, nil
}

func (n *fakeNames) Avatar(_ context.Context, name string) (*string, error) {
	return strPtr("https://avatars.test/" + name), nil
}

func (n *fakeNames) lookupCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.lookups)
}

// fakeExplorer returns fixed statistics. disabled mimics a missing API key.
type fakeExplorer struct {
	disabled bool
	fail     bool
	abi      map[common.Address]string
}

func (e *fakeExplorer) err() error {
	if e.disabled {
		return apperror.New(apperror.CodeExplorerDisabled)
	}
	if e.fail {
		return apperror.External(apperror.CodeExplorerAPIError, "stats", errBoom)
	}
	return nil
}

func (e *fakeExplorer) Enabled() bool { return !e.disabled }

func (e *fakeExplorer) EtherPrice(context.Context) (decimal.Decimal, error) {
	if err := e.err(); err != nil {
		return decimal.Zero, err
	}
	return decimal.RequireFromString("3120.55"), nil
}

func (e *fakeExplorer) NodeCount(context.Context) (uint64, error) {
	if err := e.err(); err != nil {
		return 0, err
	}
	return 7000, nil
}

func (e *fakeExplorer) GasOracle(context.Context) (*GasOracle, error) {
	if err := e.err(); err != nil {
		return nil, err
	}
	return &GasOracle{SuggestedBaseFee: decimal.RequireFromString("12.5"), ProposeGasPrice: decimal.NewFromInt(14)}, nil
}

func (e *fakeExplorer) ContractABI(_ context.Context, addr common.Address) (*string, error) {
	if e.disabled {
		return nil, apperror.New(apperror.CodeExplorerDisabled)
	}
	abi, ok := e.abi[addr]
	if !ok {
		return nil, nil
	}
	return &abi, nil
}

func (e *fakeExplorer) ContractSource(context.Context, common.Address) (*domain.ContractSource, error) {
	if e.disabled {
		return nil, apperror.New(apperror.CodeExplorerDisabled)
	}
	return nil, nil
}

// fakeDecoder decodes any calldata into its selector.
type fakeDecoder struct{ fail bool }

func (d fakeDecoder) Decode(_ string, data []byte) (*domain.DecodedInput, error) {
	if d.fail {
		return nil, errBoom
	}
	return &domain.DecodedInput{Selector: common.Bytes2Hex(data[:4]), Method: "transfer"}, nil
}

package app

import (
	"context"
	"math/big"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/goleak"

	"github.com/fd1az/blockterm/business/explorer/domain"
	"github.com/fd1az/blockterm/internal/apperror"
	"github.com/fd1az/blockterm/internal/logger"
)

type harness struct {
	o        *Orchestrator
	chain    *fakeChain
	names    *fakeNames
	explorer *fakeExplorer
	notified atomic.Int64
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		chain:    newFakeChain(100, 3),
		names:    newFakeNames(),
		explorer: &fakeExplorer{},
	}
	o, err := NewOrchestrator(Config{BatchSize: 4}, Deps{
		Chain:    h.chain,
		Names:    h.names,
		Explorer: h.explorer,
		Decoder:  fakeDecoder{},
		Notifier: NotifierFunc(func() { h.notified.Add(1) }),
	}, NewState(), logger.NewNop())
	require.NoError(t, err)
	h.o = o
	return h
}

// drain runs every queued command on the calling goroutine.
func (h *harness) drain(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	for h.o.QueueLen() > 0 {
		env, err := h.o.queue.Pop(ctx)
		require.NoError(t, err)
		h.o.process(ctx, env)
	}
}

func (h *harness) run(t *testing.T, cmd domain.Command) Snapshot {
	t.Helper()
	h.o.Dispatch(cmd)
	h.drain(t)
	return h.o.State().Snapshot()
}

func TestNewOrchestrator_RequiresPorts(t *testing.T) {
	_, err := NewOrchestrator(Config{}, Deps{}, NewState(), logger.NewNop())
	assert.Equal(t, apperror.CodeConfigurationError, apperror.GetCode(err))
}

func TestFetchLatestBlocks(t *testing.T) {
	h := newHarness(t)
	snap := h.run(t, domain.FetchLatestBlocks{N: 5})

	require.NotNil(t, snap.LatestBlocks)
	var numbers []uint64
	for _, b := range snap.LatestBlocks.Items() {
		numbers = append(numbers, b.Number())
	}
	assert.Equal(t, []uint64{100, 99, 98, 97, 96}, numbers)
	assert.Equal(t, domain.DefaultHeaderSize, snap.LatestBlocks.HeaderSize())
	_, selected := snap.LatestBlocks.Selected()
	assert.False(t, selected)
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.Status)

	_, known := snap.Ens.Get(coinbaseA)
	assert.True(t, known, "coinbase names resolve after the list commits")
}

func TestFetchLatestBlocks_Zero(t *testing.T) {
	h := newHarness(t)
	snap := h.run(t, domain.FetchLatestBlocks{N: 0})

	require.NotNil(t, snap.LatestBlocks)
	assert.Equal(t, 0, snap.LatestBlocks.Len())
	assert.Equal(t, int64(0), h.chain.calls.Load())
}

func TestFetchLatestBlocks_NearGenesis(t *testing.T) {
	h := newHarness(t)
	h.chain = newFakeChain(2, 1)
	h.o.deps.Chain = h.chain

	snap := h.run(t, domain.FetchLatestBlocks{N: 10})
	assert.Equal(t, 3, snap.LatestBlocks.Len())
}

func TestFetchLatestBlocks_ErrorReported(t *testing.T) {
	h := newHarness(t)
	h.chain.failBlocks = true

	snap := h.run(t, domain.FetchLatestBlocks{N: 3})
	assert.Nil(t, snap.LatestBlocks)
	require.NotNil(t, snap.Status)
	assert.True(t, snap.Status.IsError)
	assert.False(t, snap.Loading)
}

func TestFetchLatestTransactions(t *testing.T) {
	h := newHarness(t)
	head := h.chain.blocks[100]
	h.chain.receiptErr[head.Block.Transactions()[1].Hash()] = errBoom

	snap := h.run(t, domain.FetchLatestTransactions{N: 3})

	require.NotNil(t, snap.LatestTransactions)
	items := snap.LatestTransactions.Items()
	require.Len(t, items, 2, "the failed receipt drops its transaction")
	assert.Equal(t, head.Block.Transactions()[0].Hash(), items[0].Hash())
	assert.Equal(t, head.Senders[0], items[0].From)
	assert.NotNil(t, items[0].Receipt)
	assert.Equal(t, head.Block.Transactions()[2].Hash(), items[1].Hash())
}

func TestInitialSetup(t *testing.T) {
	h := newHarness(t)
	snap := h.run(t, domain.InitialSetup{N: 4})

	assert.Equal(t, 4, snap.LatestBlocks.Len())
	assert.Equal(t, 3, snap.LatestTransactions.Len())
	require.NotNil(t, snap.Statistics.EthUSD)
	assert.Equal(t, "3120.55", snap.Statistics.EthUSD.String())
	require.NotNil(t, snap.Statistics.NodeCount)
	assert.Equal(t, uint64(7000), *snap.Statistics.NodeCount)
	require.NotNil(t, snap.Statistics.SuggestedBaseFee)
	require.NotNil(t, snap.Statistics.LastSafeBlock)
	assert.Equal(t, uint64(68), snap.Statistics.LastSafeBlock.Number.Uint64())
	require.NotNil(t, snap.Statistics.LastFinalizedBlock)
	assert.Nil(t, snap.Status)
	assert.False(t, snap.Loading)
}

func TestInitialSetup_StatisticsFailureKeepsLists(t *testing.T) {
	h := newHarness(t)
	h.explorer.fail = true
	h.chain.failTags = true

	snap := h.run(t, domain.InitialSetup{N: 4})

	assert.Equal(t, 4, snap.LatestBlocks.Len())
	assert.Equal(t, 3, snap.LatestTransactions.Len())
	assert.Nil(t, snap.Statistics.EthUSD)
	assert.Nil(t, snap.Statistics.LastSafeBlock)
	require.NotNil(t, snap.Status)
	assert.True(t, snap.Status.IsError)
	assert.Equal(t, "statistics: Some data could not be loaded", snap.Status.Text)
}

func TestRefreshStatistics_ExplorerDisabled(t *testing.T) {
	h := newHarness(t)
	h.explorer.disabled = true

	snap := h.run(t, domain.RefreshStatistics{})

	assert.Nil(t, snap.Statistics.EthUSD)
	assert.Nil(t, snap.Statistics.MedianGasPrice)
	assert.NotNil(t, snap.Statistics.LastSafeBlock)
	assert.NotNil(t, snap.Statistics.LastFinalizedBlock)
	assert.Nil(t, snap.Status, "a missing API key is not an error")
}

func TestResolveENSNames_NameBeatsNoName(t *testing.T) {
	h := newHarness(t)
	h.o.State().mergeNames(map[common.Address]*string{vitalik: nil})

	snap := h.run(t, domain.ResolveENSNames{Addresses: []common.Address{vitalik}})
	name, ok := snap.Ens.Get(vitalik)
	require.True(t, ok)
	require.NotNil(t, name)
	assert.Equal(t, "vitalik.eth", *name)

	h.names.fail[vitalik] = true
	snap = h.run(t, domain.ResolveENSNames{Addresses: []common.Address{vitalik}})
	name, _ = snap.Ens.Get(vitalik)
	require.NotNil(t, name, "a failed lookup never erases a name")
	assert.Equal(t, "vitalik.eth", *name)
}

func TestResolveENSNames_Chunks(t *testing.T) {
	h := newHarness(t)
	addrs := make([]common.Address, 10)
	for i := range addrs {
		addrs[i] = common.BigToAddress(big.NewInt(int64(0x1000 + i)))
	}
	h.names.fail[addrs[3]] = true

	before := h.notified.Load()
	snap := h.run(t, domain.ResolveENSNames{Addresses: addrs})

	assert.Equal(t, 10, h.names.lookupCount())
	assert.GreaterOrEqual(t, h.notified.Load()-before, int64(Chunks(10, 4)))
	for _, a := range addrs {
		name, ok := snap.Ens.Get(a)
		assert.True(t, ok)
		assert.Nil(t, name)
	}
	assert.Nil(t, snap.Status, "failed lookups are not reported")
}

func TestStaleResultIsDropped(t *testing.T) {
	h := newHarness(t)
	st := h.o.State()

	h.o.Dispatch(domain.FetchBlockByNumber{Number: 50})
	st.Push(domain.NewRoute(domain.RouteTransaction{}, domain.PaneMain))
	h.drain(t)

	snap := st.Snapshot()
	require.Len(t, snap.Routes, 2)
	assert.IsType(t, domain.RouteTransaction{}, snap.Current.ID)
	assert.False(t, snap.Loading)
	require.NotNil(t, snap.Status)
	assert.False(t, snap.Status.IsError)
	assert.Equal(t, "block: Result discarded after navigation", snap.Status.Text)
}

func TestFocusChangeKeepsResult(t *testing.T) {
	h := newHarness(t)
	st := h.o.State()

	h.o.Dispatch(domain.FetchBlockByNumber{Number: 50})
	st.Focus(domain.PaneLatestTransactions)
	h.drain(t)

	cur := st.Current()
	require.IsType(t, domain.RouteBlock{}, cur.ID)
	assert.Equal(t, uint64(50), cur.ID.(domain.RouteBlock).Block.Number())
	assert.Equal(t, domain.PaneMain, cur.Pane)
}

func TestSearchResultReplacesSearchFrame(t *testing.T) {
	h := newHarness(t)
	st := h.o.State()

	cmd, err := domain.ParseSearch("100")
	require.NoError(t, err)
	st.BeginSearch("100")
	snap := h.run(t, cmd)

	require.Len(t, snap.Routes, 2)
	assert.IsType(t, domain.RouteWelcome{}, snap.Routes[0].ID)
	assert.Equal(t, uint64(100), snap.Current.ID.(domain.RouteBlock).Block.Number())
}

func TestSearchResultAfterListMove(t *testing.T) {
	h := newHarness(t)
	st := h.o.State()
	h.run(t, domain.FetchLatestBlocks{N: 5})

	st.BeginSearch("50")
	h.o.Dispatch(domain.FetchBlockByNumber{Number: 50, FromSearch: true})
	st.Focus(domain.PaneLatestBlocks)
	st.Move(true)
	h.drain(t)

	snap := st.Snapshot()
	require.Len(t, snap.Routes, 2)
	assert.IsType(t, domain.RouteWelcome{}, snap.Routes[0].ID)
	assert.True(t, snap.Current.Preview)
	assert.Equal(t, uint64(100), snap.Current.ID.(domain.RouteBlock).Block.Number())
	assert.False(t, snap.Loading)
	require.NotNil(t, snap.Status)
	assert.Equal(t, "block: Result discarded after navigation", snap.Status.Text)

	require.True(t, st.Back())
	assert.IsType(t, domain.RouteWelcome{}, st.Current().ID)
}

func TestSearchFailureRemovesSearchFrame(t *testing.T) {
	h := newHarness(t)
	h.chain.failBlocks = true
	st := h.o.State()

	st.BeginSearch("50")
	snap := h.run(t, domain.FetchBlockByNumber{Number: 50, FromSearch: true})

	require.Len(t, snap.Routes, 1)
	assert.IsType(t, domain.RouteWelcome{}, snap.Current.ID)
	assert.False(t, snap.Loading)
	require.NotNil(t, snap.Status)
	assert.True(t, snap.Status.IsError)
	assert.Contains(t, snap.Status.Text, "block")
}

func TestSearchFailureKeepsLaterFrames(t *testing.T) {
	h := newHarness(t)
	h.chain.failBlocks = true
	st := h.o.State()

	st.BeginSearch("50")
	h.o.Dispatch(domain.FetchBlockByNumber{Number: 50, FromSearch: true})
	st.Push(domain.NewRoute(domain.RouteTransaction{}, domain.PaneMain))
	h.drain(t)

	snap := st.Snapshot()
	require.Len(t, snap.Routes, 2)
	assert.IsType(t, domain.RouteTransaction{}, snap.Current.ID)
}

func TestFetchBlock_NotFound(t *testing.T) {
	h := newHarness(t)
	snap := h.run(t, domain.FetchBlockByNumber{Number: 5000})

	r, ok := snap.Current.ID.(domain.RouteBlock)
	require.True(t, ok)
	assert.Nil(t, r.Block)
	assert.Nil(t, snap.Status)
}

func TestFetchBlockByHash(t *testing.T) {
	h := newHarness(t)
	want := h.chain.blocks[42]

	snap := h.run(t, domain.FetchBlockByHash{Hash: want.Hash()})
	assert.Equal(t, want.Hash(), snap.Current.ID.(domain.RouteBlock).Block.Hash())
}

func TestFetchTransaction(t *testing.T) {
	h := newHarness(t)
	tx := h.chain.blocks[90].Block.Transactions()[2]

	snap := h.run(t, domain.FetchTransaction{Hash: tx.Hash()})

	r, ok := snap.Current.ID.(domain.RouteTransaction)
	require.True(t, ok)
	require.NotNil(t, r.Tx)
	assert.Equal(t, tx.Hash(), r.Tx.Hash())
	assert.Equal(t, common.BigToAddress(common.Big3), r.Tx.From)
	require.NotNil(t, r.Tx.Receipt)
	assert.True(t, r.Tx.Succeeded())

	_, known := snap.Ens.Get(recipient)
	assert.True(t, known)
}

func TestFetchTransaction_NotFound(t *testing.T) {
	h := newHarness(t)
	snap := h.run(t, domain.FetchTransaction{Hash: common.HexToHash("0xdead")})

	r, ok := snap.Current.ID.(domain.RouteTransaction)
	require.True(t, ok)
	assert.Nil(t, r.Tx)
}

func TestFetchReceipts_FillsTransactionsView(t *testing.T) {
	h := newHarness(t)
	st := h.o.State()
	b := h.chain.blocks[70]
	txs := b.Block.Transactions()
	h.chain.receiptErr[txs[1].Hash()] = errBoom

	r := domain.NewRoute(domain.RouteBlock{Block: b}, domain.PaneMain)
	r.Cursor = 0
	st.Push(r)
	snap := h.run(t, st.Activate())

	view, ok := snap.Current.ID.(domain.RouteTransactionsOfBlock)
	require.True(t, ok)
	require.Len(t, view.Block.Receipts, 3)
	assert.NotNil(t, view.Block.Receipt(0))
	assert.Nil(t, view.Block.Receipt(1))
	assert.NotNil(t, view.Block.Receipt(2))
	assert.Nil(t, b.Receipts, "the cached block is not mutated")

	require.NotNil(t, snap.Status)
	assert.Equal(t, "1 of 3 receipts: Some data could not be loaded", snap.Status.Text)
}

func TestFetchReceipts_DroppedAfterBack(t *testing.T) {
	h := newHarness(t)
	st := h.o.State()
	b := h.chain.blocks[70]

	r := domain.NewRoute(domain.RouteBlock{Block: b}, domain.PaneMain)
	r.Cursor = 0
	st.Push(r)
	h.o.Dispatch(st.Activate())
	st.Back()
	h.drain(t)

	assert.IsType(t, domain.RouteBlock{}, st.Current().ID)
}

func TestDecodeInputData(t *testing.T) {
	h := newHarness(t)
	token := common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	h.explorer.abi = map[common.Address]string{token: `[]`}
	tx := &domain.TxWithReceipt{Tx: newTestTx(1, &token, []byte{0xa9, 0x05, 0x9c, 0xbb, 0x01}), From: vitalik}

	snap := h.run(t, domain.DecodeInputData{Tx: tx})

	r, ok := snap.Current.ID.(domain.RouteInputData)
	require.True(t, ok)
	require.NotNil(t, r.Decoded)
	assert.Equal(t, "a9059cbb", r.Decoded.Selector)
}

func TestDecodeInputData_WithoutABI(t *testing.T) {
	h := newHarness(t)
	h.explorer.disabled = true
	token := common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	tx := &domain.TxWithReceipt{Tx: newTestTx(1, &token, []byte{0xa9, 0x05, 0x9c, 0xbb}), From: vitalik}

	snap := h.run(t, domain.DecodeInputData{Tx: tx})

	r := snap.Current.ID.(domain.RouteInputData)
	assert.Equal(t, tx, r.Tx)
	assert.Nil(t, r.Decoded)
	assert.Nil(t, snap.Status)
}

func TestDecodeInputData_DecodeFailureStillOpens(t *testing.T) {
	h := newHarness(t)
	h.o.deps.Decoder = fakeDecoder{fail: true}
	token := common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	h.explorer.abi = map[common.Address]string{token: `[]`}
	tx := &domain.TxWithReceipt{Tx: newTestTx(1, &token, []byte{0xa9, 0x05, 0x9c, 0xbb}), From: vitalik}

	snap := h.run(t, domain.DecodeInputData{Tx: tx})

	assert.IsType(t, domain.RouteInputData{}, snap.Current.ID)
	require.NotNil(t, snap.Status)
	assert.True(t, snap.Status.IsError)
}

func TestResolveNameOrAddress_ByName(t *testing.T) {
	h := newHarness(t)
	snap := h.run(t, domain.ResolveNameOrAddress{Query: "vitalik.eth", FromSearch: true})

	r, ok := snap.Current.ID.(domain.RouteAddressInfo)
	require.True(t, ok)
	require.NotNil(t, r.Info)
	assert.Equal(t, vitalik, r.Info.Address)
	assert.Equal(t, "vitalik.eth", *r.Info.Name)
	require.NotNil(t, r.Info.AvatarURL)
	assert.Equal(t, "https://avatars.test/vitalik.eth", *r.Info.AvatarURL)
	assert.Equal(t, "1000000000000000000", r.Info.Balance.String())
	assert.False(t, r.Info.IsContract())
}

func TestResolveNameOrAddress_ByAddress(t *testing.T) {
	h := newHarness(t)
	snap := h.run(t, domain.ResolveNameOrAddress{Query: vitalik.Hex()})

	r := snap.Current.ID.(domain.RouteAddressInfo)
	require.NotNil(t, r.Info.Name)
	assert.Equal(t, "vitalik.eth", *r.Info.Name)
	assert.Equal(t, "vitalik.eth", snap.Ens.Name(vitalik))
}

func TestResolveNameOrAddress_UnknownName(t *testing.T) {
	h := newHarness(t)
	snap := h.run(t, domain.ResolveNameOrAddress{Query: "nobody.eth"})

	r, ok := snap.Current.ID.(domain.RouteAddressInfo)
	require.True(t, ok)
	assert.Nil(t, r.Info)
}

func TestDispatchAfterClose(t *testing.T) {
	h := newHarness(t)
	h.o.Close()
	h.o.Dispatch(domain.FetchLatestBlocks{N: 1})

	snap := h.o.State().Snapshot()
	assert.False(t, snap.Loading)
	require.NotNil(t, snap.Status)
	assert.True(t, snap.Status.IsError)
}

func TestRun_ProcessesInOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := newHarness(t)
	h.chain.gate = make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- h.o.Run(ctx) }()
	require.Eventually(t, h.o.Running, time.Second, time.Millisecond)

	h.o.Dispatch(domain.FetchLatestBlocks{N: 2})
	h.o.Dispatch(domain.FetchBlockByNumber{Number: 7})
	assert.True(t, h.o.State().Loading())

	err := h.o.Run(ctx)
	assert.Equal(t, apperror.CodeInvalidState, apperror.GetCode(err))

	close(h.chain.gate)
	require.Eventually(t, func() bool { return h.o.Handled() == 2 }, time.Second, time.Millisecond)

	snap := h.o.State().Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, 2, snap.LatestBlocks.Len())
	assert.Equal(t, uint64(7), snap.Current.ID.(domain.RouteBlock).Block.Number())
	assert.Positive(t, h.notified.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
	assert.False(t, h.o.Running())
}

func TestRun_StopsOnClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := newHarness(t)
	done := make(chan error, 1)
	go func() { done <- h.o.Run(context.Background()) }()

	h.o.Dispatch(domain.FetchLatestBlocks{N: 1})
	h.o.Close()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
	assert.Equal(t, int64(1), h.o.Handled())
}

func TestProcess_RecordsCommandSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	h := newHarness(t)
	h.run(t, domain.FetchLatestBlocks{N: 2})
	h.chain.failBlocks = true
	h.run(t, domain.FetchBlockByNumber{Number: 50})

	var spans []sdktrace.ReadOnlySpan
	for _, s := range rec.Ended() {
		if strings.HasPrefix(s.Name(), "explorer.") {
			spans = append(spans, s)
		}
	}
	require.Len(t, spans, 2)
	assert.Equal(t, "explorer.fetch_latest_blocks", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, "explorer.fetch_block_by_number", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.NotEmpty(t, spans[1].Events(), "the error is recorded")
}

// Package ethereum adapts a go-ethereum JSON-RPC client to the explorer
// ports: chain reads, ENS resolution and calldata decoding.
package ethereum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/blockterm/business/explorer/app"
	"github.com/fd1az/blockterm/business/explorer/domain"
	"github.com/fd1az/blockterm/internal/apperror"
	"github.com/fd1az/blockterm/internal/cache"
	"github.com/fd1az/blockterm/internal/circuitbreaker"
	"github.com/fd1az/blockterm/internal/logger"
)

const (
	tracerName = "github.com/fd1az/blockterm/business/explorer/infra/ethereum"
	meterName  = "github.com/fd1az/blockterm/business/explorer/infra/ethereum"
)

var _ app.ChainReader = (*Client)(nil)

// ClientConfig holds node access settings.
type ClientConfig struct {
	RequestTimeout time.Duration // per RPC call
	BlockCacheTTL  time.Duration // blocks are cached by hash
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		RequestTimeout: 15 * time.Second,
		BlockCacheTTL:  10 * time.Minute,
	}
}

type clientMetrics struct {
	calls   metric.Int64Counter
	latency metric.Float64Histogram
}

// Client reads chain data over JSON-RPC. Calls go through one circuit
// breaker; "not found" answers do not count as failures.
type Client struct {
	config ClientConfig
	logger logger.LoggerInterface
	eth    *ethclient.Client

	blocks *cache.Cache[common.Hash, *domain.BlockWithReceipts]
	cb     *circuitbreaker.CircuitBreaker[any]

	tracer  trace.Tracer
	metrics *clientMetrics
}

// NewClient wraps an already dialled node client.
func NewClient(eth *ethclient.Client, cfg ClientConfig, log logger.LoggerInterface) (*Client, error) {
	if eth == nil {
		return nil, apperror.Validation(apperror.CodeConfigurationError, "ethereum client is required")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultClientConfig().RequestTimeout
	}

	c := &Client{
		config: cfg,
		logger: log,
		eth:    eth,
		blocks: cache.New[common.Hash, *domain.BlockWithReceipts](time.Minute),
		tracer: otel.Tracer(tracerName),
	}

	cbCfg := circuitbreaker.DefaultConfig("ethereum-rpc")
	cbCfg.IsSuccessful = circuitbreaker.IgnoreNotFound(ethereum.NotFound)
	c.cb = circuitbreaker.New[any](cbCfg)

	if err := c.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return c, nil
}

func (c *Client) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	c.metrics = &clientMetrics{}

	c.metrics.calls, err = meter.Int64Counter(
		"ethereum_rpc_calls_total",
		metric.WithDescription("JSON-RPC calls by method and outcome"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return err
	}

	c.metrics.latency, err = meter.Float64Histogram(
		"ethereum_rpc_latency_seconds",
		metric.WithDescription("JSON-RPC call latency"),
		metric.WithUnit("s"),
	)
	return err
}

// rpcCall runs fn with the request timeout, through the breaker, inside a
// span. ethereum.NotFound is passed through untouched.
func rpcCall[T any](ctx context.Context, c *Client, method string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := c.tracer.Start(ctx, "ethereum."+method,
		trace.WithAttributes(attribute.String("rpc.method", method)),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	start := time.Now()
	v, err := c.cb.Execute(func() (any, error) {
		return fn(ctx)
	})
	c.metrics.latency.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("method", method)))

	outcome := "ok"
	switch {
	case errors.Is(err, ethereum.NotFound):
		outcome = "not_found"
		span.SetStatus(codes.Ok, "not found")
	case err != nil:
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, method+" failed")
	default:
		span.SetStatus(codes.Ok, "done")
	}
	c.metrics.calls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("outcome", outcome),
	))

	var zero T
	if err != nil {
		if errors.Is(err, ethereum.NotFound) || apperror.IsAppError(err) {
			return zero, err
		}
		return zero, apperror.External(apperror.CodeEthereumRPCError, method, err)
	}
	out, _ := v.(T)
	return out, nil
}

// BlockNumber returns the head block number.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	return rpcCall(ctx, c, "eth_blockNumber", c.eth.BlockNumber)
}

// BlockByNumber returns block n with its transaction senders, or nil.
func (c *Client) BlockByNumber(ctx context.Context, n uint64) (*domain.BlockWithReceipts, error) {
	b, err := rpcCall(ctx, c, "eth_getBlockByNumber", func(ctx context.Context) (*types.Block, error) {
		return c.eth.BlockByNumber(ctx, new(big.Int).SetUint64(n))
	})
	return c.withSenders(ctx, b, err)
}

// BlockByHash returns the block with hash h, or nil.
func (c *Client) BlockByHash(ctx context.Context, h common.Hash) (*domain.BlockWithReceipts, error) {
	if b, ok := c.blocks.Get(ctx, h); ok {
		return b, nil
	}
	b, err := rpcCall(ctx, c, "eth_getBlockByHash", func(ctx context.Context) (*types.Block, error) {
		return c.eth.BlockByHash(ctx, h)
	})
	return c.withSenders(ctx, b, err)
}

func (c *Client) withSenders(ctx context.Context, b *types.Block, err error) (*domain.BlockWithReceipts, error) {
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	txs := b.Transactions()
	senders := make([]common.Address, len(txs))
	for i, tx := range txs {
		var reported *common.Address
		if from, err := c.eth.TransactionSender(ctx, tx, b.Hash(), uint(i)); err == nil {
			reported = &from
		}
		from, err := senderOf(reported, tx)
		if err != nil {
			c.logger.Warn(ctx, "sender recovery failed", "tx", tx.Hash().Hex(), "error", err)
		}
		senders[i] = from
	}

	out := &domain.BlockWithReceipts{Block: b, Senders: senders}
	c.blocks.Set(ctx, b.Hash(), out, c.config.BlockCacheTTL)
	return out, nil
}

// HeaderByTag returns the latest safe or finalized header.
func (c *Client) HeaderByTag(ctx context.Context, tag app.BlockTag) (*types.Header, error) {
	var num rpc.BlockNumber
	switch tag {
	case app.TagSafe:
		num = rpc.SafeBlockNumber
	case app.TagFinalized:
		num = rpc.FinalizedBlockNumber
	default:
		return nil, apperror.Validation(apperror.CodeInvalidInput, "unknown block tag "+string(tag))
	}

	h, err := rpcCall(ctx, c, "eth_getBlockByNumber", func(ctx context.Context) (*types.Header, error) {
		return c.eth.HeaderByNumber(ctx, big.NewInt(num.Int64()))
	})
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil
	}
	return h, err
}

// rpcTransaction is an eth_getTransactionByHash reply: the transaction
// and the sender the node reported for it.
type rpcTransaction struct {
	tx   *types.Transaction
	From *common.Address `json:"from"`
}

func (t *rpcTransaction) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &t.tx); err != nil {
		return err
	}
	var extra struct {
		From *common.Address `json:"from"`
	}
	if err := json.Unmarshal(data, &extra); err != nil {
		return err
	}
	t.From = extra.From
	return nil
}

// TransactionByHash returns the transaction and its sender, or nil.
func (c *Client) TransactionByHash(ctx context.Context, h common.Hash) (*domain.TxWithReceipt, error) {
	rt, err := rpcCall(ctx, c, "eth_getTransactionByHash", func(ctx context.Context) (*rpcTransaction, error) {
		var raw json.RawMessage
		if err := c.eth.Client().CallContext(ctx, &raw, "eth_getTransactionByHash", h); err != nil {
			return nil, err
		}
		if len(raw) == 0 || string(raw) == "null" {
			return nil, ethereum.NotFound
		}
		var rt rpcTransaction
		if err := json.Unmarshal(raw, &rt); err != nil {
			return nil, err
		}
		return &rt, nil
	})
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	from, err := senderOf(rt.From, rt.tx)
	if err != nil {
		return nil, apperror.New(apperror.CodeSenderRecoveryFailed,
			apperror.WithContext(h.Hex()),
			apperror.WithCause(err))
	}
	return &domain.TxWithReceipt{Tx: rt.tx, From: from}, nil
}

// TransactionReceipt returns the receipt of h, or nil while pending or
// unknown.
func (c *Client) TransactionReceipt(ctx context.Context, h common.Hash) (*types.Receipt, error) {
	r, err := rpcCall(ctx, c, "eth_getTransactionReceipt", func(ctx context.Context) (*types.Receipt, error) {
		return c.eth.TransactionReceipt(ctx, h)
	})
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil
	}
	return r, err
}

// BalanceAt returns the latest balance of addr in wei.
func (c *Client) BalanceAt(ctx context.Context, addr common.Address) (*big.Int, error) {
	return rpcCall(ctx, c, "eth_getBalance", func(ctx context.Context) (*big.Int, error) {
		return c.eth.BalanceAt(ctx, addr, nil)
	})
}

// CallContract runs a read-only call against the latest block.
func (c *Client) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return rpcCall(ctx, c, "eth_call", func(ctx context.Context) ([]byte, error) {
		return c.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	})
}

// Check reports whether the node answers; it backs the health endpoint.
func (c *Client) Check(ctx context.Context) (bool, string) {
	n, err := c.BlockNumber(ctx)
	if err != nil {
		return false, apperror.StatusLine(err)
	}
	return true, fmt.Sprintf("head %d", n)
}

// Close releases the block cache. The node client belongs to the caller.
func (c *Client) Close() error {
	c.blocks.Close()
	return nil
}

// senderOf returns the sender the node reported, or recovers it from the
// signature when the node left it out.
func senderOf(reported *common.Address, tx *types.Transaction) (common.Address, error) {
	if reported != nil {
		return *reported, nil
	}
	return types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
}

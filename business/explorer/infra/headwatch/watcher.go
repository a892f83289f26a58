// Package headwatch follows new chain heads over a WebSocket subscription
// and refreshes the latest lists when the dashboard is idle.
package headwatch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/blockterm/business/explorer/app"
	"github.com/fd1az/blockterm/business/explorer/domain"
	"github.com/fd1az/blockterm/internal/apperror"
	"github.com/fd1az/blockterm/internal/logger"
	"github.com/fd1az/blockterm/internal/wsconn"
)

const (
	meterName = "github.com/fd1az/blockterm/business/explorer/infra/headwatch"

	subscribeID = 1
)

// Dispatcher accepts fetch commands.
type Dispatcher interface {
	Dispatch(cmd domain.Command)
}

// StateReader exposes what the watcher needs from the dashboard state.
type StateReader interface {
	Loading() bool
	Snapshot() app.Snapshot
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// rpcMessage covers both the subscribe reply and later notifications.
type rpcMessage struct {
	ID     *int            `json:"id"`
	Method string          `json:"method"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Params struct {
		Subscription string          `json:"subscription"`
		Result       json.RawMessage `json:"result"`
	} `json:"params"`
}

type head struct {
	Number hexutil.Uint64 `json:"number"`
}

// Watcher subscribes to newHeads and dispatches list refreshes.
type Watcher struct {
	ws       *wsconn.Client
	dispatch Dispatcher
	state    StateReader
	logger   logger.LoggerInterface

	subscription atomic.Value // string
	lastHead     atomic.Uint64
	heads        metric.Int64Counter
}

// New creates a watcher for the node at url. Start connects it.
func New(url string, d Dispatcher, st StateReader, log logger.LoggerInterface) (*Watcher, error) {
	ws, err := wsconn.New(wsconn.DefaultConfig(url, "newHeads"))
	if err != nil {
		return nil, err
	}

	heads, err := otel.Meter(meterName).Int64Counter(
		"blockterm_new_heads_total",
		metric.WithDescription("New heads received, by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	w := &Watcher{
		ws:       ws,
		dispatch: d,
		state:    st,
		logger:   log,
		heads:    heads,
	}
	w.subscription.Store("")

	ws.OnConnect(w.subscribe)
	ws.OnMessage(w.handle)
	ws.OnStateChange(func(state wsconn.State, err error) {
		if err != nil {
			log.Warn(context.Background(), "head subscription state changed", "state", state, "error", err)
			return
		}
		log.Debug(context.Background(), "head subscription state changed", "state", state)
	})
	return w, nil
}

// Start dials the node. Subscriptions are reissued after every reconnect.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.ws.Connect(ctx); err != nil {
		return apperror.Wrap(err, apperror.CodeSubscribeFailed, "newHeads")
	}
	return nil
}

// Close stops the subscription.
func (w *Watcher) Close() error {
	return w.ws.Close()
}

// LastHead returns the newest head number seen.
func (w *Watcher) LastHead() uint64 {
	return w.lastHead.Load()
}

func (w *Watcher) subscribe(ctx context.Context) error {
	return w.ws.SendJSON(ctx, rpcRequest{
		JSONRPC: "2.0",
		ID:      subscribeID,
		Method:  "eth_subscribe",
		Params:  []any{"newHeads"},
	})
}

func (w *Watcher) handle(ctx context.Context, raw []byte) {
	var msg rpcMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		w.logger.Warn(ctx, "malformed subscription message", "error", err)
		return
	}

	if msg.ID != nil && *msg.ID == subscribeID {
		if msg.Error != nil {
			w.logger.Error(ctx, "eth_subscribe rejected", "code", msg.Error.Code, "message", msg.Error.Message)
			return
		}
		var id string
		if err := json.Unmarshal(msg.Result, &id); err == nil {
			w.subscription.Store(id)
			w.logger.Info(ctx, "subscribed to new heads", "subscription", id)
		}
		return
	}

	if msg.Method != "eth_subscription" || msg.Params.Subscription != w.subscription.Load().(string) {
		return
	}

	var h head
	if err := json.Unmarshal(msg.Params.Result, &h); err != nil {
		w.logger.Warn(ctx, "malformed head", "error", err)
		return
	}
	w.onHead(ctx, uint64(h.Number))
}

// onHead refreshes the latest lists with their current lengths. Heads that
// arrive while a command is pending, or that are not newer than the last
// one, are skipped.
func (w *Watcher) onHead(ctx context.Context, number uint64) {
	for {
		last := w.lastHead.Load()
		if number <= last {
			w.record(ctx, "stale")
			return
		}
		if w.lastHead.CompareAndSwap(last, number) {
			break
		}
	}

	if w.state.Loading() {
		w.record(ctx, "busy")
		return
	}

	snap := w.state.Snapshot()
	blocks, txs := snap.LatestBlocks.Len(), snap.LatestTransactions.Len()
	if blocks == 0 && txs == 0 {
		w.record(ctx, "empty")
		return
	}

	w.logger.Debug(ctx, "new head", "number", number)
	if blocks > 0 {
		w.dispatch.Dispatch(domain.FetchLatestBlocks{N: blocks})
	}
	if txs > 0 {
		w.dispatch.Dispatch(domain.FetchLatestTransactions{N: txs})
	}
	w.record(ctx, "refreshed")
}

func (w *Watcher) record(ctx context.Context, outcome string) {
	w.heads.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

package explorer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	explorerDI "github.com/fd1az/blockterm/business/explorer/di"
	"github.com/fd1az/blockterm/internal/asset"
	"github.com/fd1az/blockterm/internal/config"
	"github.com/fd1az/blockterm/internal/di"
	"github.com/fd1az/blockterm/internal/logger"
	"github.com/fd1az/blockterm/internal/monolith"
)

type testMonolith struct {
	cfg       *config.Config
	log       logger.LoggerInterface
	eth       *ethclient.Client
	container di.Container
}

func (m *testMonolith) Config() *config.Config         { return m.cfg }
func (m *testMonolith) Logger() logger.LoggerInterface { return m.log }
func (m *testMonolith) EthClient() *ethclient.Client   { return m.eth }
func (m *testMonolith) AssetRegistry() *asset.Registry { return asset.DefaultRegistry() }
func (m *testMonolith) Services() di.ServiceRegistry   { return m.container }

func newTestMonolith(t *testing.T) *testMonolith {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	eth, err := ethclient.Dial(srv.URL)
	require.NoError(t, err)
	t.Cleanup(eth.Close)

	cfg := &config.Config{
		Ethereum: config.EthereumConfig{HTTPURL: srv.URL, ChainID: 1, RequestTimeout: time.Second},
		Explorer: config.ExplorerConfig{BaseURL: "http://127.0.0.1:1", RequestsPerSecond: 5},
		Dashboard: config.DashboardConfig{
			BatchSize:    8,
			TickInterval: 250 * time.Millisecond,
		},
	}
	log := logger.NewNop()

	c := di.NewContainer()
	c.Register(monolith.ServiceConfig, cfg)
	c.Register(monolith.ServiceLogger, log)
	c.Register(monolith.ServiceEthClient, eth)
	return &testMonolith{cfg: cfg, log: log, eth: eth, container: c}
}

func TestModule_Wiring(t *testing.T) {
	mono := newTestMonolith(t)
	m := &Module{}
	require.NoError(t, m.RegisterServices(mono.container))

	sr := mono.Services()
	orch := explorerDI.GetOrchestrator(sr)
	require.NotNil(t, orch)
	assert.Same(t, explorerDI.GetState(sr), orch.State())
	assert.False(t, explorerDI.GetExplorer(sr).Enabled())
	assert.Nil(t, explorerDI.GetHeadWatcher(sr))
}

func TestModule_StartupAndShutdown(t *testing.T) {
	mono := newTestMonolith(t)
	m := &Module{}
	require.NoError(t, m.RegisterServices(mono.container))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, m.Startup(ctx, mono))

	orch := explorerDI.GetOrchestrator(mono.Services())
	require.Eventually(t, orch.Running, time.Second, 5*time.Millisecond)

	require.NoError(t, m.Shutdown(mono))
	require.Eventually(t, func() bool { return !orch.Running() }, time.Second, 5*time.Millisecond)
}

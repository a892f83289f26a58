package etherscan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/blockterm/internal/apperror"
	"github.com/fd1az/blockterm/internal/logger"
)

var (
	weth       = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	unverified = common.HexToAddress("0x0000000000000000000000000000000000000abc")
)

const wethABI = `[{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"type":"function"}]`

// explorerAPI serves canned Etherscan replies keyed by action.
type explorerAPI struct {
	calls     atomic.Int32
	rateLimit atomic.Bool
}

func (e *explorerAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.calls.Add(1)
	q := r.URL.Query()
	w.Header().Set("Content-Type", "application/json")

	if q.Get("apikey") != "test-key" || q.Get("chainid") != "1" {
		_, _ = w.Write([]byte(`{"status":"0","message":"NOTOK","result":"Invalid API Key"}`))
		return
	}
	if e.rateLimit.Load() {
		_, _ = w.Write([]byte(`{"status":"0","message":"NOTOK","result":"Max rate limit reached"}`))
		return
	}

	switch q.Get("action") {
	case "ethprice":
		_, _ = w.Write([]byte(`{"status":"1","message":"OK","result":{"ethbtc":"0.0321","ethusd":"3120.55"}}`))
	case "nodecount":
		_, _ = w.Write([]byte(`{"status":"1","message":"OK","result":{"UTCDate":"2026-10-17","TotalNodeCount":"6949"}}`))
	case "gasoracle":
		_, _ = w.Write([]byte(`{"status":"1","message":"OK","result":{"LastBlock":"21000000","SafeGasPrice":"11","ProposeGasPrice":"14","FastGasPrice":"16","suggestBaseFee":"12.504","gasUsedRatio":"0.5"}}`))
	case "getabi":
		if q.Get("address") == unverified.Hex() {
			_, _ = w.Write([]byte(`{"status":"0","message":"NOTOK","result":"Contract source code not verified"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"1","message":"OK","result":"` + escape(wethABI) + `"}`))
	case "getsourcecode":
		if q.Get("address") == unverified.Hex() {
			_, _ = w.Write([]byte(`{"status":"1","message":"OK","result":[{"SourceCode":"","ABI":"Contract source code not verified","ContractName":""}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"1","message":"OK","result":[{"SourceCode":"contract WETH9 {}","ABI":"[]","ContractName":"WETH9","CompilerVersion":"v0.4.19+commit.c4cbbb05","OptimizationUsed":"0","Runs":"200","EVMVersion":"Default","LicenseType":"","Proxy":"0","Implementation":""}]}`))
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
	}
}

func escape(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '"' {
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

func newTestClient(t *testing.T, key string) (*Client, *explorerAPI) {
	t.Helper()
	api := &explorerAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.APIKey = key
	cfg.RequestsPerSecond = 0

	c, err := NewClient(cfg, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c, api
}

func TestClient_Disabled(t *testing.T) {
	c, api := newTestClient(t, "")
	ctx := context.Background()

	assert.False(t, c.Enabled())

	_, err := c.EtherPrice(ctx)
	assert.Equal(t, apperror.CodeExplorerDisabled, apperror.GetCode(err))
	_, err = c.ContractABI(ctx, weth)
	assert.Equal(t, apperror.CodeExplorerDisabled, apperror.GetCode(err))
	assert.Zero(t, api.calls.Load())
}

func TestClient_Stats(t *testing.T) {
	c, _ := newTestClient(t, "test-key")
	ctx := context.Background()

	price, err := c.EtherPrice(ctx)
	require.NoError(t, err)
	assert.Equal(t, "3120.55", price.String())

	nodes, err := c.NodeCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(6949), nodes)

	gas, err := c.GasOracle(ctx)
	require.NoError(t, err)
	assert.Equal(t, "12.504", gas.SuggestedBaseFee.String())
	assert.Equal(t, "14", gas.ProposeGasPrice.String())
}

func TestClient_ContractABI(t *testing.T) {
	c, api := newTestClient(t, "test-key")
	ctx := context.Background()

	abi, err := c.ContractABI(ctx, weth)
	require.NoError(t, err)
	require.NotNil(t, abi)
	assert.Equal(t, wethABI, *abi)

	calls := api.calls.Load()
	_, err = c.ContractABI(ctx, weth)
	require.NoError(t, err)
	assert.Equal(t, calls, api.calls.Load(), "cached")

	abi, err = c.ContractABI(ctx, unverified)
	require.NoError(t, err)
	assert.Nil(t, abi)
}

func TestClient_ContractSource(t *testing.T) {
	c, _ := newTestClient(t, "test-key")
	ctx := context.Background()

	src, err := c.ContractSource(ctx, weth)
	require.NoError(t, err)
	require.NotNil(t, src)
	assert.Equal(t, "WETH9", src.ContractName)
	assert.Equal(t, 200, src.Runs)
	assert.False(t, src.OptimizationUsed)
	assert.False(t, src.Proxy)

	src, err = c.ContractSource(ctx, unverified)
	require.NoError(t, err)
	assert.Nil(t, src)
}

func TestClient_Errors(t *testing.T) {
	t.Run("invalid key", func(t *testing.T) {
		c, _ := newTestClient(t, "wrong")
		_, err := c.NodeCount(context.Background())
		assert.Equal(t, apperror.CodeExplorerAPIError, apperror.GetCode(err))
		assert.Contains(t, err.Error(), "Invalid API Key")
	})

	t.Run("rate limited", func(t *testing.T) {
		c, api := newTestClient(t, "test-key")
		api.rateLimit.Store(true)
		_, err := c.GasOracle(context.Background())
		assert.Equal(t, apperror.CodeExplorerRateLimited, apperror.GetCode(err))
	})

	t.Run("http status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad gateway", http.StatusBadGateway)
		}))
		defer srv.Close()

		cfg := DefaultConfig()
		cfg.BaseURL = srv.URL
		cfg.APIKey = "test-key"
		c, err := NewClient(cfg, logger.NewNop())
		require.NoError(t, err)
		defer c.Close()

		_, err = c.EtherPrice(context.Background())
		assert.Equal(t, apperror.CodeExplorerAPIError, apperror.GetCode(err))
	})
}

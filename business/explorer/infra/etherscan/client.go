// Package etherscan implements the explorer port against an
// Etherscan-compatible HTTP API.
package etherscan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/blockterm/business/explorer/app"
	"github.com/fd1az/blockterm/business/explorer/domain"
	"github.com/fd1az/blockterm/internal/apperror"
	"github.com/fd1az/blockterm/internal/cache"
	"github.com/fd1az/blockterm/internal/httpclient"
	"github.com/fd1az/blockterm/internal/logger"
	"github.com/fd1az/blockterm/internal/ratelimit"
)

const (
	tracerName = "github.com/fd1az/blockterm/business/explorer/infra/etherscan"

	// DefaultBaseURL is the multichain v2 endpoint.
	DefaultBaseURL = "https://api.etherscan.io/v2/api"

	notVerified = "Contract source code not verified"
)

var _ app.Explorer = (*Client)(nil)

// Config holds explorer client settings.
type Config struct {
	BaseURL           string
	APIKey            string
	ChainID           uint64
	RequestsPerSecond float64 // free tier allows 5
	Timeout           time.Duration
	CacheTTL          time.Duration // contract metadata
}

// DefaultConfig returns mainnet settings without an API key.
func DefaultConfig() Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		ChainID:           1,
		RequestsPerSecond: 5,
		Timeout:           10 * time.Second,
		CacheTTL:          10 * time.Minute,
	}
}

// Client calls the explorer API. Without an API key it is disabled and
// every call fails with CodeExplorerDisabled.
type Client struct {
	config  Config
	client  httpclient.Client
	limiter *ratelimit.Limiter
	logger  logger.LoggerInterface
	tracer  trace.Tracer

	abis    *cache.Cache[common.Address, *string]
	sources *cache.Cache[common.Address, *domain.ContractSource]
}

// NewClient creates an explorer client.
func NewClient(cfg Config, log logger.LoggerInterface) (*Client, error) {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.ChainID == 0 {
		cfg.ChainID = def.ChainID
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = def.CacheTTL
	}

	tracer := otel.Tracer(tracerName)
	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("etherscan"),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(cfg.Timeout),
		httpclient.WithTracer(tracer, false),
		httpclient.WithHeaders(map[string]string{
			"Accept": "application/json",
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &Client{
		config:  cfg,
		client:  client,
		limiter: ratelimit.PerSecond(cfg.RequestsPerSecond),
		logger:  log,
		tracer:  tracer,
		abis:    cache.New[common.Address, *string](time.Minute),
		sources: cache.New[common.Address, *domain.ContractSource](time.Minute),
	}, nil
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.config.APIKey != ""
}

// Close stops the metadata caches.
func (c *Client) Close() {
	c.abis.Close()
	c.sources.Close()
}

// envelope is the common response wrapper. Failures arrive with HTTP 200
// and status "0".
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// apiError is a status "0" reply.
type apiError struct {
	message string
	result  string
}

func (e *apiError) Error() string {
	if e.result != "" {
		return e.message + ": " + e.result
	}
	return e.message
}

func (e *apiError) rateLimited() bool {
	return strings.Contains(strings.ToLower(e.result), "rate limit")
}

func explorerErrorHandler(status int, body []byte) error {
	if status >= 400 {
		return fmt.Errorf("HTTP %d: %s", status, strings.TrimSpace(string(body)))
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("malformed response: %w", err)
	}
	if env.Status == "0" {
		apiErr := &apiError{message: env.Message}
		// result is usually a string but some endpoints echo an empty array
		_ = json.Unmarshal(env.Result, &apiErr.result)
		return apiErr
	}
	return nil
}

// get runs one call of module/action and decodes result into out.
func (c *Client) get(ctx context.Context, module, action string, params map[string]string, out any) error {
	if !c.Enabled() {
		return apperror.New(apperror.CodeExplorerDisabled, apperror.WithContext(module+"."+action))
	}

	ctx, span := c.tracer.Start(ctx, "etherscan."+action,
		trace.WithAttributes(attribute.String("module", module)))
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		return apperror.External(apperror.CodeExplorerRateLimited, action, err)
	}

	var env envelope
	req := c.client.NewRequest(
		httpclient.WithLabels(httpclient.NewLabel("action", action)),
		httpclient.WithResponseErrorHandler(explorerErrorHandler),
	).
		SetQueryParam("chainid", strconv.FormatUint(c.config.ChainID, 10)).
		SetQueryParam("module", module).
		SetQueryParam("action", action).
		SetQueryParam("apikey", c.config.APIKey).
		SetResult(&env)
	for k, v := range params {
		req = req.SetQueryParam(k, v)
	}

	if _, err := req.Get(ctx, ""); err != nil {
		span.RecordError(err)
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.rateLimited() {
			return apperror.External(apperror.CodeExplorerRateLimited, action, err)
		}
		return apperror.External(apperror.CodeExplorerAPIError, action, err)
	}

	if out == nil || len(env.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return apperror.External(apperror.CodeExplorerAPIError, action, err)
	}
	return nil
}

// EtherPrice returns the last ETH price in USD.
func (c *Client) EtherPrice(ctx context.Context) (decimal.Decimal, error) {
	var res struct {
		EthUSD string `json:"ethusd"`
	}
	if err := c.get(ctx, "stats", "ethprice", nil, &res); err != nil {
		return decimal.Zero, err
	}
	price, err := decimal.NewFromString(res.EthUSD)
	if err != nil {
		return decimal.Zero, apperror.External(apperror.CodeExplorerAPIError, "ethprice", err)
	}
	return price, nil
}

// NodeCount returns the number of discoverable nodes.
func (c *Client) NodeCount(ctx context.Context) (uint64, error) {
	var res struct {
		TotalNodeCount string `json:"TotalNodeCount"`
	}
	if err := c.get(ctx, "stats", "nodecount", nil, &res); err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(res.TotalNodeCount, 10, 64)
	if err != nil {
		return 0, apperror.External(apperror.CodeExplorerAPIError, "nodecount", err)
	}
	return n, nil
}

// GasOracle returns the gas tracker figures in gwei.
func (c *Client) GasOracle(ctx context.Context) (*app.GasOracle, error) {
	var res struct {
		ProposeGasPrice string `json:"ProposeGasPrice"`
		SuggestBaseFee  string `json:"suggestBaseFee"`
	}
	if err := c.get(ctx, "gastracker", "gasoracle", nil, &res); err != nil {
		return nil, err
	}
	base, err := decimal.NewFromString(res.SuggestBaseFee)
	if err != nil {
		return nil, apperror.External(apperror.CodeExplorerAPIError, "gasoracle", err)
	}
	propose, err := decimal.NewFromString(res.ProposeGasPrice)
	if err != nil {
		return nil, apperror.External(apperror.CodeExplorerAPIError, "gasoracle", err)
	}
	return &app.GasOracle{SuggestedBaseFee: base, ProposeGasPrice: propose}, nil
}

// ContractABI returns the verified ABI of addr, or nil.
func (c *Client) ContractABI(ctx context.Context, addr common.Address) (*string, error) {
	if abi, ok := c.abis.Get(ctx, addr); ok {
		return abi, nil
	}

	var abi string
	err := c.get(ctx, "contract", "getabi", map[string]string{"address": addr.Hex()}, &abi)
	if err != nil {
		if isNotVerified(err) {
			c.abis.Set(ctx, addr, nil, c.config.CacheTTL)
			return nil, nil
		}
		return nil, err
	}
	if abi == "" || abi == notVerified {
		c.abis.Set(ctx, addr, nil, c.config.CacheTTL)
		return nil, nil
	}

	c.abis.Set(ctx, addr, &abi, c.config.CacheTTL)
	return &abi, nil
}

type sourceEntry struct {
	SourceCode       string `json:"SourceCode"`
	ABI              string `json:"ABI"`
	ContractName     string `json:"ContractName"`
	CompilerVersion  string `json:"CompilerVersion"`
	OptimizationUsed string `json:"OptimizationUsed"`
	Runs             string `json:"Runs"`
	EVMVersion       string `json:"EVMVersion"`
	LicenseType      string `json:"LicenseType"`
	Proxy            string `json:"Proxy"`
	Implementation   string `json:"Implementation"`
}

// ContractSource returns verified source metadata of addr, or nil.
func (c *Client) ContractSource(ctx context.Context, addr common.Address) (*domain.ContractSource, error) {
	if src, ok := c.sources.Get(ctx, addr); ok {
		return src, nil
	}

	var entries []sourceEntry
	err := c.get(ctx, "contract", "getsourcecode", map[string]string{"address": addr.Hex()}, &entries)
	if err != nil {
		if isNotVerified(err) {
			c.sources.Set(ctx, addr, nil, c.config.CacheTTL)
			return nil, nil
		}
		return nil, err
	}
	if len(entries) == 0 || entries[0].SourceCode == "" {
		c.sources.Set(ctx, addr, nil, c.config.CacheTTL)
		return nil, nil
	}

	e := entries[0]
	runs, _ := strconv.Atoi(e.Runs)
	src := &domain.ContractSource{
		ContractName:     e.ContractName,
		CompilerVersion:  e.CompilerVersion,
		OptimizationUsed: e.OptimizationUsed == "1",
		Runs:             runs,
		EVMVersion:       e.EVMVersion,
		LicenseType:      e.LicenseType,
		Proxy:            e.Proxy == "1",
		Implementation:   e.Implementation,
		SourceCode:       e.SourceCode,
	}
	c.logger.Debug(ctx, "fetched contract source", "address", addr.Hex(), "name", src.ContractName)

	c.sources.Set(ctx, addr, src, c.config.CacheTTL)
	return src, nil
}

func isNotVerified(err error) bool {
	var apiErr *apiError
	return errors.As(err, &apiErr) && apiErr.result == notVerified
}

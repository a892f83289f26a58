// Package monolith provides the application container and module interface.
package monolith

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/blockterm/internal/apperror"
	"github.com/fd1az/blockterm/internal/asset"
	"github.com/fd1az/blockterm/internal/config"
	"github.com/fd1az/blockterm/internal/di"
	"github.com/fd1az/blockterm/internal/logger"
)

// Well-known registry keys for shared infrastructure.
const (
	ServiceConfig        = "config"
	ServiceLogger        = "logger"
	ServiceEthClient     = "ethClient"
	ServiceAssetRegistry = "assetRegistry"
)

// Monolith gives modules access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	EthClient() *ethclient.Client
	AssetRegistry() *asset.Registry
	Services() di.ServiceRegistry
}

// Module is a bounded context that registers services and starts up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

type app struct {
	config        *config.Config
	logger        logger.LoggerInterface
	ethClient     *ethclient.Client
	assetRegistry *asset.Registry
	container     di.Container
}

// New dials the node and registers the shared services.
func New(ctx context.Context, cfg *config.Config, log logger.LoggerInterface) (*app, error) {
	ethClient, err := ethclient.DialContext(ctx, cfg.Ethereum.HTTPURL)
	if err != nil {
		return nil, apperror.External(apperror.CodeEthereumConnectionFailed, cfg.Ethereum.HTTPURL, err)
	}

	return newApp(cfg, log, ethClient), nil
}

func newApp(cfg *config.Config, log logger.LoggerInterface, ethClient *ethclient.Client) *app {
	registry := asset.DefaultRegistry()

	container := di.NewContainer()
	container.Register(ServiceConfig, cfg)
	container.Register(ServiceLogger, log)
	container.Register(ServiceEthClient, ethClient)
	container.Register(ServiceAssetRegistry, registry)

	return &app{
		config:        cfg,
		logger:        log,
		ethClient:     ethClient,
		assetRegistry: registry,
		container:     container,
	}
}

func (a *app) Config() *config.Config         { return a.config }
func (a *app) Logger() logger.LoggerInterface { return a.logger }
func (a *app) EthClient() *ethclient.Client   { return a.ethClient }
func (a *app) AssetRegistry() *asset.Registry { return a.assetRegistry }
func (a *app) Services() di.ServiceRegistry   { return a.container }

// RegisterModules registers all provided modules.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts all provided modules in order.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the node connection.
func (a *app) Close() error {
	if a.ethClient != nil {
		a.ethClient.Close()
	}
	return nil
}

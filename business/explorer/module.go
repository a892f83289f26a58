// Package explorer implements the chain explorer bounded context: the fetch
// worker, the dashboard state and the node, ENS and explorer adapters.
package explorer

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/blockterm/business/explorer/app"
	explorerDI "github.com/fd1az/blockterm/business/explorer/di"
	"github.com/fd1az/blockterm/business/explorer/infra/ethereum"
	"github.com/fd1az/blockterm/business/explorer/infra/etherscan"
	"github.com/fd1az/blockterm/business/explorer/infra/headwatch"
	"github.com/fd1az/blockterm/internal/config"
	"github.com/fd1az/blockterm/internal/di"
	"github.com/fd1az/blockterm/internal/logger"
	"github.com/fd1az/blockterm/internal/monolith"
)

// Module implements the explorer bounded context.
type Module struct{}

// RegisterServices registers all explorer services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, explorerDI.ChainClient, func(sr di.ServiceRegistry) *ethereum.Client {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		eth := sr.Get(monolith.ServiceEthClient).(*ethclient.Client)

		clientCfg := ethereum.DefaultClientConfig()
		clientCfg.RequestTimeout = cfg.Ethereum.RequestTimeout
		client, err := ethereum.NewClient(eth, clientCfg, log)
		if err != nil {
			panic("failed to create chain client: " + err.Error())
		}
		return client
	})

	di.RegisterToken(c, explorerDI.ENSResolver, func(sr di.ServiceRegistry) *ethereum.ENSResolver {
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		resolver, err := ethereum.NewENSResolver(explorerDI.GetChainClient(sr), ethereum.DefaultENSConfig(), log)
		if err != nil {
			panic("failed to create ENS resolver: " + err.Error())
		}
		return resolver
	})

	di.RegisterToken(c, explorerDI.Explorer, func(sr di.ServiceRegistry) *etherscan.Client {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		client, err := etherscan.NewClient(etherscan.Config{
			BaseURL:           cfg.Explorer.BaseURL,
			APIKey:            cfg.Explorer.APIKey,
			ChainID:           cfg.Ethereum.ChainID,
			RequestsPerSecond: cfg.Explorer.RequestsPerSecond,
			Timeout:           cfg.Explorer.Timeout,
			CacheTTL:          cfg.Explorer.CacheTTL,
		}, log)
		if err != nil {
			panic("failed to create explorer client: " + err.Error())
		}
		return client
	})

	di.RegisterToken(c, explorerDI.InputDecoder, func(sr di.ServiceRegistry) app.InputDecoder {
		return ethereum.InputDecoder{}
	})

	di.RegisterToken(c, explorerDI.State, func(sr di.ServiceRegistry) *app.State {
		return app.NewState()
	})

	di.RegisterToken(c, explorerDI.Notifier, func(sr di.ServiceRegistry) *app.NotifierSlot {
		return &app.NotifierSlot{}
	})

	di.RegisterToken(c, explorerDI.Orchestrator, func(sr di.ServiceRegistry) *app.Orchestrator {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		orch, err := app.NewOrchestrator(
			app.Config{BatchSize: cfg.Dashboard.BatchSize},
			app.Deps{
				Chain:    explorerDI.GetChainClient(sr),
				Names:    explorerDI.GetENSResolver(sr),
				Explorer: explorerDI.GetExplorer(sr),
				Decoder:  explorerDI.GetInputDecoder(sr),
				Notifier: explorerDI.GetNotifier(sr),
			},
			explorerDI.GetState(sr),
			log,
		)
		if err != nil {
			panic("failed to create orchestrator: " + err.Error())
		}
		return orch
	})

	// Nil unless dashboard.follow_head is set.
	di.RegisterToken(c, explorerDI.HeadWatcher, func(sr di.ServiceRegistry) *headwatch.Watcher {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		if !cfg.Dashboard.FollowHead {
			return nil
		}
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		w, err := headwatch.New(cfg.Ethereum.WebSocketURL, explorerDI.GetOrchestrator(sr), explorerDI.GetState(sr), log)
		if err != nil {
			panic("failed to create head watcher: " + err.Error())
		}
		return w
	})

	return nil
}

// Startup starts the fetch worker and, when configured, the head watcher.
// The worker stops when ctx ends or Shutdown is called.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	orch := explorerDI.GetOrchestrator(mono.Services())

	go func() {
		if err := orch.Run(ctx); err != nil {
			log.Error(ctx, "fetch worker failed", "error", err)
			orch.State().ReportError(err)
		}
	}()

	if w := explorerDI.GetHeadWatcher(mono.Services()); w != nil {
		if err := w.Start(ctx); err != nil {
			// The dashboard still works without live heads.
			log.Warn(ctx, "failed to follow new heads", "error", err)
			orch.State().ReportError(err)
		}
	}

	if !explorerDI.GetExplorer(mono.Services()).Enabled() {
		log.Info(ctx, "explorer api key not set, price and contract data disabled")
	}

	log.Info(ctx, "explorer module started")
	return nil
}

// Shutdown stops the worker and releases the adapters.
func (m *Module) Shutdown(mono monolith.Monolith) error {
	sr := mono.Services()
	explorerDI.GetOrchestrator(sr).Close()

	if w := explorerDI.GetHeadWatcher(sr); w != nil {
		if err := w.Close(); err != nil {
			return fmt.Errorf("close head watcher: %w", err)
		}
	}
	explorerDI.GetExplorer(sr).Close()
	explorerDI.GetENSResolver(sr).Close()
	return explorerDI.GetChainClient(sr).Close()
}

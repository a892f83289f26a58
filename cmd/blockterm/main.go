// Package main is the entry point for blockterm.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fd1az/blockterm/business/explorer"
	"github.com/fd1az/blockterm/business/explorer/app"
	explorerDI "github.com/fd1az/blockterm/business/explorer/di"
	"github.com/fd1az/blockterm/business/explorer/domain"
	"github.com/fd1az/blockterm/internal/apm"
	"github.com/fd1az/blockterm/internal/config"
	"github.com/fd1az/blockterm/internal/di"
	"github.com/fd1az/blockterm/internal/health"
	"github.com/fd1az/blockterm/internal/logger"
	"github.com/fd1az/blockterm/internal/metrics"
	"github.com/fd1az/blockterm/internal/monolith"
	"github.com/fd1az/blockterm/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

// cliRows is the latest list length in CLI mode, where there is no terminal
// height to derive it from.
const cliRows = 10

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	endpoint := flag.String("endpoint", "", "Ethereum JSON-RPC endpoint (overrides ethereum.http_url)")
	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run headless with logs on stderr (no TUI)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("blockterm %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	tuiMode := !*cliMode

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, *configPath, *endpoint, tuiMode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, endpoint string, tuiMode bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if endpoint != "" {
		cfg.Ethereum.HTTPURL = endpoint
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid endpoint: %w", err)
		}
	}

	// The terminal belongs to the dashboard, so TUI logs go to a file.
	var out io.Writer = os.Stderr
	if tuiMode {
		f, err := logger.NewFile(cfg.App.LogDir, time.Now())
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	log := logger.New(out, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, apm.TraceID)
	defer log.Sync()

	log.Info(ctx, "starting blockterm",
		"version", version,
		"environment", cfg.App.Environment,
		"endpoint", cfg.Ethereum.HTTPURL,
	)

	mono, err := monolith.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	explorerModule := &explorer.Module{}
	modules := []monolith.Module{explorerModule}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	if cfg.Telemetry.Enabled {
		stop, err := startTelemetry(ctx, cfg, log, mono.Services())
		if err != nil {
			return err
		}
		defer stop()
	}

	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}
	defer func() {
		if err := explorerModule.Shutdown(mono); err != nil {
			log.Error(ctx, "error stopping explorer", "error", err)
		}
	}()

	if tuiMode {
		return runTUI(ctx, cfg, mono)
	}
	return runCLI(ctx, mono, log)
}

// startTelemetry wires tracing, the Prometheus endpoint and the health
// server. The returned func stops all three.
func startTelemetry(ctx context.Context, cfg *config.Config, log logger.LoggerInterface, sr di.ServiceRegistry) (func(), error) {
	tp, err := apm.NewTraceProvider(log, apm.TraceConfig{
		Provider:      apm.Provider(cfg.Telemetry.TraceProvider),
		ServiceName:   cfg.Telemetry.ServiceName,
		Endpoint:      cfg.Telemetry.OTLPEndpoint,
		Headers:       cfg.Telemetry.OTLPHeaders,
		ConsoleWriter: io.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init tracing: %w", err)
	}

	metricOpts := []metrics.OptionFn{metrics.WithServiceName(cfg.Telemetry.ServiceName)}
	if ep := cfg.Telemetry.OTLPEndpoint; ep != "" {
		metricOpts = append(metricOpts, metrics.WithOTLP(ep,
			apm.ParseHeaders(cfg.Telemetry.OTLPHeaders),
			strings.HasPrefix(ep, "http://"),
		))
	}
	mp, reg, err := metrics.NewMetricProvider(ctx, metricOpts...)
	if err != nil {
		_ = tp.Stop()
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	metricsServer := metrics.NewServer(cfg.Telemetry.PrometheusPort, reg, log)
	if err := metricsServer.Start(); err != nil {
		log.Warn(ctx, "failed to start metrics server", "error", err)
	} else {
		log.Info(ctx, "prometheus metrics server started", "port", cfg.Telemetry.PrometheusPort)
	}

	healthServer := health.NewServer(cfg.Telemetry.HealthPort, version, log)
	healthServer.RegisterCheck("rpc", explorerDI.GetChainClient(sr).Check)
	orch := explorerDI.GetOrchestrator(sr)
	healthServer.RegisterCheck("worker", func(context.Context) (bool, string) {
		if !orch.Running() {
			return false, "stopped"
		}
		return true, fmt.Sprintf("%d queued, %d handled", orch.QueueLen(), orch.Handled())
	})
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", cfg.Telemetry.HealthPort)
	}

	return func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = healthServer.Stop(stopCtx)
		_ = metricsServer.Stop(stopCtx)
		_ = mp.Shutdown(stopCtx)
		_ = tp.Stop()
	}, nil
}

func runTUI(ctx context.Context, cfg *config.Config, mono monolith.Monolith) error {
	sr := mono.Services()
	model := ui.New(explorerDI.GetState(sr), explorerDI.GetOrchestrator(sr), ui.Options{
		ChainID:      cfg.Ethereum.ChainID,
		Registry:     mono.AssetRegistry(),
		TickInterval: cfg.Dashboard.TickInterval,
		InitialRows:  cfg.Dashboard.InitialRows,
	})

	p := ui.NewProgram(ctx, model)
	explorerDI.GetNotifier(sr).Bind(ui.Notifier(p))

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// runCLI bootstraps the dashboard state without a terminal and logs every
// commit until ctx ends.
func runCLI(ctx context.Context, mono monolith.Monolith, log logger.LoggerInterface) error {
	sr := mono.Services()
	state := explorerDI.GetState(sr)
	orch := explorerDI.GetOrchestrator(sr)

	explorerDI.GetNotifier(sr).Bind(app.NotifierFunc(func() {
		logSnapshot(ctx, log, state.Snapshot())
	}))

	rows := mono.Config().Dashboard.InitialRows
	if rows <= 0 {
		rows = cliRows
	}
	orch.Dispatch(domain.InitialSetup{N: rows})
	log.Info(ctx, "dashboard started", "rows", rows)

	<-ctx.Done()
	log.Info(ctx, "shutting down")
	return nil
}

func logSnapshot(ctx context.Context, log logger.LoggerInterface, snap app.Snapshot) {
	args := []any{
		"route", snap.Current.ID.Name(),
		"pending", snap.Pending,
		"latest_blocks", snap.LatestBlocks.Len(),
		"latest_transactions", snap.LatestTransactions.Len(),
		"names", snap.Ens.Len(),
	}
	if snap.LatestBlocks.Len() > 0 {
		args = append(args, "head", snap.LatestBlocks.Items()[0].Number())
	}
	if s := snap.Statistics.EthUSD; s != nil {
		args = append(args, "eth_usd", s.String())
	}
	if snap.Status != nil && snap.Status.IsError {
		args = append(args, "error", snap.Status.Text)
		log.Warn(ctx, "state updated", args...)
		return
	}
	log.Info(ctx, "state updated", args...)
}

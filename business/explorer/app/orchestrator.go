package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/blockterm/business/explorer/domain"
	"github.com/fd1az/blockterm/internal/apm"
	"github.com/fd1az/blockterm/internal/apperror"
	"github.com/fd1az/blockterm/internal/logger"
)

const (
	tracerName = "github.com/fd1az/blockterm/business/explorer/app"
	meterName  = "github.com/fd1az/blockterm/business/explorer/app"
)

// Config tunes the orchestrator.
type Config struct {
	// BatchSize bounds concurrent lookups per wave.
	BatchSize int
}

// Deps are the ports the orchestrator drives.
type Deps struct {
	Chain    ChainReader
	Names    NameResolver
	Explorer Explorer
	Decoder  InputDecoder
	// Notifier is optional.
	Notifier Notifier
}

type envelope struct {
	cmd        domain.Command
	generation uint64
	queuedAt   time.Time
}

type orchestratorMetrics struct {
	commands   metric.Int64Counter
	duration   metric.Float64Histogram
	queueDepth metric.Int64UpDownCounter
	staleDrops metric.Int64Counter
	ensLookups metric.Int64Counter
}

// Orchestrator executes commands one at a time, in dispatch order, and
// commits their results into State.
type Orchestrator struct {
	cfg   Config
	deps  Deps
	state *State
	queue *Queue[envelope]
	log   logger.LoggerInterface

	running atomic.Bool
	handled atomic.Int64

	tracer  apm.Tracer
	metrics *orchestratorMetrics
}

// NewOrchestrator creates an orchestrator writing into state.
func NewOrchestrator(cfg Config, deps Deps, state *State, log logger.LoggerInterface) (*Orchestrator, error) {
	if deps.Chain == nil || deps.Names == nil || deps.Explorer == nil || deps.Decoder == nil {
		return nil, apperror.Validation(apperror.CodeConfigurationError, "orchestrator ports are required")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	o := &Orchestrator{
		cfg:    cfg,
		deps:   deps,
		state:  state,
		queue:  NewQueue[envelope](),
		log:    log,
		tracer: apm.NewTracer(tracerName),
	}
	if err := o.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return o, nil
}

func (o *Orchestrator) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	o.metrics = &orchestratorMetrics{}

	o.metrics.commands, err = meter.Int64Counter(
		"explorer_commands_total",
		metric.WithDescription("Commands executed by outcome"),
		metric.WithUnit("{command}"),
	)
	if err != nil {
		return err
	}

	o.metrics.duration, err = meter.Float64Histogram(
		"explorer_command_duration_seconds",
		metric.WithDescription("Command execution time"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	o.metrics.queueDepth, err = meter.Int64UpDownCounter(
		"explorer_queue_depth",
		metric.WithDescription("Commands waiting for the worker"),
		metric.WithUnit("{command}"),
	)
	if err != nil {
		return err
	}

	o.metrics.staleDrops, err = meter.Int64Counter(
		"explorer_stale_results_total",
		metric.WithDescription("Results dropped because the view changed"),
		metric.WithUnit("{result}"),
	)
	if err != nil {
		return err
	}

	o.metrics.ensLookups, err = meter.Int64Counter(
		"explorer_ens_lookups_total",
		metric.WithDescription("Reverse ENS lookups by outcome"),
		metric.WithUnit("{lookup}"),
	)
	return err
}

// State returns the state the orchestrator commits into.
func (o *Orchestrator) State() *State { return o.state }

// Dispatch queues cmd and marks the state loading. It never blocks.
func (o *Orchestrator) Dispatch(cmd domain.Command) {
	if cmd == nil {
		return
	}
	gen := o.state.beginDispatch()
	env := envelope{cmd: cmd, generation: gen, queuedAt: time.Now()}
	if err := o.queue.Push(env); err != nil {
		o.state.finish(apperror.Wrap(err, apperror.CodeQueueClosed, domain.Describe(cmd)))
		return
	}
	o.metrics.queueDepth.Add(context.Background(), 1)
}

// QueueLen returns the number of commands waiting.
func (o *Orchestrator) QueueLen() int { return o.queue.Len() }

// Running reports whether Run is processing commands.
func (o *Orchestrator) Running() bool { return o.running.Load() }

// Handled returns how many commands completed.
func (o *Orchestrator) Handled() int64 { return o.handled.Load() }

// Run processes commands until ctx ends or Close is called.
func (o *Orchestrator) Run(ctx context.Context) error {
	if !o.running.CompareAndSwap(false, true) {
		return apperror.New(apperror.CodeInvalidState, apperror.WithContext("orchestrator already running"))
	}
	defer o.running.Store(false)

	o.log.Info(ctx, "fetch worker started", "batch_size", o.cfg.BatchSize)
	for {
		env, err := o.queue.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || apperror.GetCode(err) == apperror.CodeQueueClosed {
				o.log.Info(ctx, "fetch worker stopped")
				return nil
			}
			return err
		}
		o.metrics.queueDepth.Add(ctx, -1)
		o.process(ctx, env)
	}
}

// Close stops accepting commands; Run returns once the queue drains.
func (o *Orchestrator) Close() {
	o.queue.Close()
}

func (o *Orchestrator) process(ctx context.Context, env envelope) {
	name := env.cmd.Name()
	ctx, span := o.tracer.StartSpanFromContext(ctx, "explorer."+name,
		trace.WithAttributes(
			attribute.String("command", name),
			attribute.Int64("generation", int64(env.generation)),
		),
	)
	defer span.End()

	start := time.Now()
	err := o.execute(ctx, env)
	elapsed := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.NoticeError(err)
		o.log.Error(ctx, "command failed", "command", name, "error", err)
	} else {
		o.log.Debug(ctx, "command done",
			"command", name,
			"elapsed", elapsed.String(),
			"waited", start.Sub(env.queuedAt).String(),
		)
	}
	o.metrics.commands.Add(ctx, 1, metric.WithAttributes(
		attribute.String("command", name),
		attribute.String("outcome", outcome),
	))
	o.metrics.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("command", name)))

	if err != nil && domain.IsFromSearch(env.cmd) {
		o.state.abandonSearch(env.generation)
	}
	o.state.finish(err)
	o.handled.Add(1)
	o.notify()
}

func (o *Orchestrator) execute(ctx context.Context, env envelope) error {
	switch c := env.cmd.(type) {
	case domain.RefreshStatistics:
		return o.handleRefreshStatistics(ctx)
	case domain.ResolveNameOrAddress:
		return o.handleResolveNameOrAddress(ctx, env.generation, c)
	case domain.FetchBlockByNumber:
		return o.handleFetchBlock(ctx, env.generation, c.FromSearch, func(ctx context.Context) (*domain.BlockWithReceipts, error) {
			return o.deps.Chain.BlockByNumber(ctx, c.Number)
		})
	case domain.FetchBlockByHash:
		return o.handleFetchBlock(ctx, env.generation, c.FromSearch, func(ctx context.Context) (*domain.BlockWithReceipts, error) {
			return o.deps.Chain.BlockByHash(ctx, c.Hash)
		})
	case domain.FetchTransaction:
		return o.handleFetchTransaction(ctx, env.generation, c)
	case domain.FetchReceipts:
		return o.handleFetchReceipts(ctx, env.generation, c)
	case domain.DecodeInputData:
		return o.handleDecodeInputData(ctx, env.generation, c)
	case domain.FetchLatestBlocks:
		return o.handleFetchLatestBlocks(ctx, c.N)
	case domain.FetchLatestTransactions:
		return o.handleFetchLatestTransactions(ctx, c.N)
	case domain.ResolveENSNames:
		o.resolveNames(ctx, c.Addresses)
		return nil
	case domain.InitialSetup:
		return o.handleInitialSetup(ctx, c.N)
	default:
		return apperror.New(apperror.CodeInvalidInput, apperror.WithContext(fmt.Sprintf("unknown command %T", c)))
	}
}

// commitRoute pushes a result frame, dropping it when the view moved on.
func (o *Orchestrator) commitRoute(ctx context.Context, gen uint64, id domain.RouteID, fromSearch bool) {
	if !o.state.pushResult(gen, domain.NewRoute(id, domain.PaneMain), fromSearch) {
		o.dropStale(ctx, id)
		return
	}
	o.notify()
}

// dropStale records a discarded result and says so on the status line.
func (o *Orchestrator) dropStale(ctx context.Context, id domain.RouteID) {
	err := apperror.New(apperror.CodeCommandStale, apperror.WithContext(id.Name()))
	o.metrics.staleDrops.Add(ctx, 1, metric.WithAttributes(attribute.String("route", id.Name())))
	o.log.Info(ctx, "stale result dropped", "route", id.Name(), "error", err)
	o.state.ReportInfo(apperror.StatusLine(err))
}

func (o *Orchestrator) notify() {
	if o.deps.Notifier != nil {
		o.deps.Notifier.Notify()
	}
}

// Package metrics installs the OTEL meter provider and serves Prometheus scrapes.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/fd1az/blockterm/internal/logger"
)

// MetricProvider is the installed meter provider.
type MetricProvider interface {
	Meter(name string, options ...metric.MeterOption) metric.Meter
	Shutdown(ctx context.Context) error
}

// Config selects the metric readers.
type Config struct {
	ServiceName string
	// Registry receives the Prometheus collector; nil uses a fresh registry.
	Registry *prometheus.Registry
	// OTLPEndpoint enables a periodic OTLP gRPC push when set.
	OTLPEndpoint string
	OTLPHeaders  map[string]string
	Insecure     bool
}

// OptionFn mutates a Config.
type OptionFn func(*Config)

// WithServiceName sets the service.name resource attribute.
func WithServiceName(name string) OptionFn {
	return func(c *Config) { c.ServiceName = name }
}

// WithRegistry sets the Prometheus registry to export into.
func WithRegistry(reg *prometheus.Registry) OptionFn {
	return func(c *Config) { c.Registry = reg }
}

// WithOTLP enables the OTLP push exporter.
func WithOTLP(endpoint string, headers map[string]string, insecure bool) OptionFn {
	return func(c *Config) {
		c.OTLPEndpoint = endpoint
		c.OTLPHeaders = headers
		c.Insecure = insecure
	}
}

// NewMetricProvider installs a global meter provider that always exports to
// Prometheus and optionally pushes OTLP. It returns the registry to serve.
func NewMetricProvider(ctx context.Context, options ...OptionFn) (MetricProvider, *prometheus.Registry, error) {
	var cfg Config
	for _, opt := range options {
		opt(&cfg)
	}

	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	promExporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, nil, fmt.Errorf("prometheus exporter: %w", err)
	}

	opts := []sdkmetric.Option{
		sdkmetric.WithReader(promExporter),
		sdkmetric.WithResource(resource.NewSchemaless(semconv.ServiceNameKey.String(cfg.ServiceName))),
	}

	if cfg.OTLPEndpoint != "" {
		grpcOpts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpointURL(cfg.OTLPEndpoint),
			otlpmetricgrpc.WithHeaders(cfg.OTLPHeaders),
		}
		if cfg.Insecure {
			grpcOpts = append(grpcOpts, otlpmetricgrpc.WithInsecure())
		}
		exp, err := otlpmetricgrpc.New(ctx, grpcOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("otlp metric exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)))
	}

	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)

	return mp, reg, nil
}

// Server exposes /metrics.
type Server struct {
	srv *http.Server
	log logger.LoggerInterface
}

// NewServer builds a scrape endpoint for reg on port.
func NewServer(port int, reg *prometheus.Registry, log logger.LoggerInterface) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	return &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

// Handler returns the HTTP handler (tests use it with httptest).
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start binds the port and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.srv.Addr, err)
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error(context.Background(), "metrics server stopped", "error", err)
		}
	}()
	return nil
}

// Stop shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

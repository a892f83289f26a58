package httpclient

import (
	"context"
	"maps"
	"net"
	"net/http"
	"net/http/httptrace"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultDialKeepAlive   = 10 * time.Second
	defaultRequestTimeout  = 10 * time.Second
	defaultMaxConnsPerHost = 8
	defaultIdleConnTimeout = 2 * time.Minute

	metricRequestCounter  = "http_client_requests_total"
	metricRequestDuration = "http_client_request_duration_seconds"
)

// Client is the interface for making HTTP requests.
type Client interface {
	// NewRequest creates a new request builder.
	NewRequest(opts ...RequestOption) Request
}

// InstrumentedClient wraps http.Client with OTEL instrumentation.
type InstrumentedClient struct {
	client          *http.Client
	requestCounter  metric.Int64Counter
	requestDuration metric.Float64Histogram
	providerName    string
	tracer          trace.Tracer
	baseURL         string
	defaultHeaders  map[string]string
	logResponse     bool
}

// NewInstrumentedClient creates a new instrumented HTTP client.
func NewInstrumentedClient(opts ...ClientOption) (*InstrumentedClient, error) {
	options := NewClientOptions(opts...)

	transport := &http.Transport{
		DialContext:     (&net.Dialer{KeepAlive: defaultDialKeepAlive}).DialContext,
		MaxConnsPerHost: defaultMaxConnsPerHost,
		IdleConnTimeout: defaultIdleConnTimeout,
	}

	timeout := defaultRequestTimeout
	if options.requestTimeout > 0 {
		timeout = options.requestTimeout
	}

	wrapped := &http.Client{
		Timeout: timeout,
		Transport: otelhttp.NewTransport(
			transport,
			otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
				return otelhttptrace.NewClientTrace(ctx)
			}),
		),
	}

	providerName := options.providerName
	if providerName == "" {
		providerName = "default"
	}

	meter := otel.GetMeterProvider().Meter(
		"instrumented_http_client",
		metric.WithInstrumentationAttributes(attribute.String("provider", providerName)),
	)

	requestCounter, err := meter.Int64Counter(
		metricRequestCounter,
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}
	requestDuration, err := meter.Float64Histogram(
		metricRequestDuration,
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	tracer := options.tracer
	if tracer == nil {
		tracer = otel.GetTracerProvider().Tracer("instrumented_http_client")
	}

	return &InstrumentedClient{
		client:          wrapped,
		requestCounter:  requestCounter,
		requestDuration: requestDuration,
		providerName:    providerName,
		tracer:          tracer,
		baseURL:         options.baseURL,
		defaultHeaders:  options.headers,
		logResponse:     options.logResponse,
	}, nil
}

// NewRequest creates a new request builder.
func (c *InstrumentedClient) NewRequest(opts ...RequestOption) Request {
	reqOpts := NewRequestOptions(opts...)

	headers := make(map[string]string, len(c.defaultHeaders))
	maps.Copy(headers, c.defaultHeaders)

	return &requestBuilder{
		client:       c,
		headers:      headers,
		errorHandler: reqOpts.responseErrorHandler,
		labels:       reqOpts.labels,
	}
}

package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Request builds and executes a single HTTP request.
type Request interface {
	Get(ctx context.Context, path string) (*Response, error)
	Post(ctx context.Context, path string) (*Response, error)

	SetBody(body any) Request
	SetHeader(key, value string) Request
	SetQueryParam(key, value string) Request
	SetResult(result any) Request
}

// Response wraps http.Response with the already-read body.
type Response struct {
	*http.Response
	body []byte
}

// Body returns the response body as bytes.
func (r *Response) Body() []byte {
	return r.body
}

// IsError returns true if the status code indicates an error (>= 400).
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}

type requestBuilder struct {
	client       *InstrumentedClient
	headers      map[string]string
	query        url.Values
	body         any
	result       any
	errorHandler ResponseErrorHandler
	labels       []*Label
}

func (r *requestBuilder) Get(ctx context.Context, path string) (*Response, error) {
	return r.execute(ctx, http.MethodGet, path)
}

func (r *requestBuilder) Post(ctx context.Context, path string) (*Response, error) {
	return r.execute(ctx, http.MethodPost, path)
}

func (r *requestBuilder) SetBody(body any) Request {
	r.body = body
	return r
}

func (r *requestBuilder) SetHeader(key, value string) Request {
	r.headers[key] = value
	return r
}

func (r *requestBuilder) SetQueryParam(key, value string) Request {
	if r.query == nil {
		r.query = url.Values{}
	}
	r.query.Set(key, value)
	return r
}

// SetResult sets the destination for JSON unmarshaling of the body.
func (r *requestBuilder) SetResult(result any) Request {
	r.result = result
	return r
}

func (r *requestBuilder) buildURL(path string) string {
	full := path
	if base := r.client.baseURL; base != "" && !strings.HasPrefix(path, "http") {
		full = strings.TrimSuffix(base, "/")
		if p := strings.TrimPrefix(path, "/"); p != "" {
			full += "/" + p
		}
	}
	if len(r.query) == 0 {
		return full
	}
	sep := "?"
	if strings.Contains(full, "?") {
		sep = "&"
	}
	return full + sep + r.query.Encode()
}

func (r *requestBuilder) bodyReader() (io.Reader, error) {
	switch b := r.body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bytes.NewReader(b), nil
	case string:
		return strings.NewReader(b), nil
	case io.Reader:
		return b, nil
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		if _, ok := r.headers["Content-Type"]; !ok {
			r.headers["Content-Type"] = "application/json"
		}
		return bytes.NewReader(raw), nil
	}
}

func (r *requestBuilder) execute(ctx context.Context, method, path string) (*Response, error) {
	c := r.client
	ctx, span := c.tracer.Start(ctx, "http.request",
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.path", path),
			attribute.String("provider", c.providerName),
		),
	)
	defer span.End()
	start := time.Now()

	body, err := r.bodyReader()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to marshal body")
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, r.buildURL(path), body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create request")
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		r.recordError(ctx, span, err, start)
		return nil, err
	}

	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		r.recordError(ctx, span, err, start)
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if c.logResponse {
		span.AddEvent("response.body", trace.WithAttributes(
			attribute.String("http.response_body", string(raw)),
		))
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	response := &Response{Response: resp, body: raw}

	if r.errorHandler != nil {
		if handlerErr := r.errorHandler(resp.StatusCode, raw); handlerErr != nil {
			r.recordMetrics(ctx, false, start)
			span.SetStatus(codes.Error, handlerErr.Error())
			return response, handlerErr
		}
	}

	if r.result != nil && len(raw) > 0 && !response.IsError() {
		if err := json.Unmarshal(raw, r.result); err != nil {
			r.recordMetrics(ctx, false, start)
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to decode body")
			return response, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	r.recordMetrics(ctx, !response.IsError(), start)
	return response, nil
}

func (r *requestBuilder) recordError(ctx context.Context, span trace.Span, err error, start time.Time) {
	span.RecordError(err)

	var netErr net.Error
	if errors.Is(err, context.Canceled) {
		span.SetAttributes(attribute.Bool("context.cancelled", true))
	}
	if errors.As(err, &netErr) && netErr.Timeout() {
		span.SetAttributes(attribute.Bool("request.timeout", true))
	}

	span.SetStatus(codes.Error, err.Error())
	r.recordMetrics(ctx, false, start)
}

func (r *requestBuilder) recordMetrics(ctx context.Context, success bool, start time.Time) {
	attrs := []attribute.KeyValue{
		attribute.String("provider", r.client.providerName),
		attribute.Bool("success", success),
	}
	for _, label := range r.labels {
		attrs = append(attrs, attribute.String(label.Key, label.Value))
	}

	set := metric.WithAttributes(attrs...)
	r.client.requestCounter.Add(ctx, 1, set)
	r.client.requestDuration.Record(ctx, time.Since(start).Seconds(), set)
}

package sdk

import (
	"context"
	"net/http"
	"time"
)

// TelemetryHooks expose observability callbacks without forcing dependencies on the caller.
type TelemetryHooks struct {
	// OnHTTPRequest fires before the HTTP request is sent.
	OnHTTPRequest func(ctx context.Context, req *http.Request)
	// OnHTTPResponse fires after the request completes (even when err != nil).
	OnHTTPResponse func(ctx context.Context, req *http.Request, resp *http.Response, err error, latency time.Duration)
	// OnLogEntry allows callers to capture SDK log events.
	OnLogEntry func(ctx context.Context, entry LogEntry)
	// OnMetric records lightweight counters/gauges for observability dashboards.
	OnMetric func(ctx context.Context, metric Metric)
}

// LogLevel encodes the severity for log hooks.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogEntry captures structured log details for SDK consumers.
type LogEntry struct {
	Level   LogLevel
	Message string
	Fields  map[string]any
}

// Metric represents a single observability datapoint.
type Metric struct {
	Name   string
	Value  float64
	Labels map[string]string
}

// Metric names emitted by the SDK.
const (
	MetricHTTPLatency        = "sdk_http_request_latency_ms"
	MetricUnauthorized       = "sdk_unauthorized_responses"
	MetricCredentialFallback = "sdk_credential_fallback"
	MetricSessionTransition  = "sdk_session_transition"
)

// Merge returns hooks that call t then o for every event.
func (t TelemetryHooks) Merge(o TelemetryHooks) TelemetryHooks {
	return TelemetryHooks{
		OnHTTPRequest: func(ctx context.Context, req *http.Request) {
			if t.OnHTTPRequest != nil {
				t.OnHTTPRequest(ctx, req)
			}
			if o.OnHTTPRequest != nil {
				o.OnHTTPRequest(ctx, req)
			}
		},
		OnHTTPResponse: func(ctx context.Context, req *http.Request, resp *http.Response, err error, latency time.Duration) {
			if t.OnHTTPResponse != nil {
				t.OnHTTPResponse(ctx, req, resp, err, latency)
			}
			if o.OnHTTPResponse != nil {
				o.OnHTTPResponse(ctx, req, resp, err, latency)
			}
		},
		OnLogEntry: func(ctx context.Context, entry LogEntry) {
			if t.OnLogEntry != nil {
				t.OnLogEntry(ctx, entry)
			}
			if o.OnLogEntry != nil {
				o.OnLogEntry(ctx, entry)
			}
		},
		OnMetric: func(ctx context.Context, metric Metric) {
			if t.OnMetric != nil {
				t.OnMetric(ctx, metric)
			}
			if o.OnMetric != nil {
				o.OnMetric(ctx, metric)
			}
		},
	}
}

func (t TelemetryHooks) log(ctx context.Context, level LogLevel, msg string, fields map[string]any) {
	if t.OnLogEntry == nil {
		return
	}
	entry := LogEntry{Level: level, Message: msg, Fields: fields}
	t.OnLogEntry(ctx, entry)
}

func (t TelemetryHooks) metric(ctx context.Context, name string, value float64, labels map[string]string) {
	if t.OnMetric == nil {
		return
	}
	t.OnMetric(ctx, Metric{Name: name, Value: value, Labels: labels})
}

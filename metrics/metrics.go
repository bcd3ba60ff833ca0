// Package metrics records SDK telemetry as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	sdk "github.com/pawpilot/pawpilot/sdk/go"
)

// Collector holds the Prometheus metrics fed by the SDK.
type Collector struct {
	requestLatency     *prometheus.HistogramVec
	responseStatus     *prometheus.CounterVec
	transportErrors    prometheus.Counter
	unauthorized       prometheus.Counter
	credentialFallback *prometheus.CounterVec
	sessionTransitions *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pawpilot_backend_request_duration_seconds",
			Help:    "Latency of backend calls made through the gateway.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		responseStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pawpilot_backend_responses_total",
			Help: "Backend responses by HTTP status code.",
		}, []string{"status_code"}),
		transportErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pawpilot_backend_transport_errors_total",
			Help: "Backend calls that got no HTTP response.",
		}),
		unauthorized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pawpilot_unauthorized_responses_total",
			Help: "Backend responses that rejected the session credential.",
		}),
		credentialFallback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pawpilot_credential_fallback_total",
			Help: "Calls authorized with the persisted fallback token.",
		}, []string{"reason"}),
		sessionTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pawpilot_session_transitions_total",
			Help: "Session state changes.",
		}, []string{"from", "to"}),
	}

	reg.MustRegister(
		c.requestLatency,
		c.responseStatus,
		c.transportErrors,
		c.unauthorized,
		c.credentialFallback,
		c.sessionTransitions,
	)
	return c
}

// RecordResponse records one completed backend call.
func (c *Collector) RecordResponse(method string, resp *http.Response, err error, latency time.Duration) {
	c.requestLatency.WithLabelValues(method).Observe(latency.Seconds())
	if err != nil || resp == nil {
		c.transportErrors.Inc()
		return
	}
	c.responseStatus.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
}

// RecordMetric maps an SDK metric onto the matching Prometheus series.
// Unknown names are ignored.
func (c *Collector) RecordMetric(m sdk.Metric) {
	switch m.Name {
	case sdk.MetricUnauthorized:
		c.unauthorized.Add(m.Value)
	case sdk.MetricCredentialFallback:
		c.credentialFallback.WithLabelValues(m.Labels["reason"]).Add(m.Value)
	case sdk.MetricSessionTransition:
		c.sessionTransitions.WithLabelValues(m.Labels["from"], m.Labels["to"]).Add(m.Value)
	}
}

// Hooks returns telemetry hooks that feed c.
func (c *Collector) Hooks() sdk.TelemetryHooks {
	return sdk.TelemetryHooks{
		OnHTTPResponse: func(_ context.Context, req *http.Request, resp *http.Response, err error, latency time.Duration) {
			c.RecordResponse(req.Method, resp, err, latency)
		},
		OnMetric: func(_ context.Context, m sdk.Metric) {
			c.RecordMetric(m)
		},
	}
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

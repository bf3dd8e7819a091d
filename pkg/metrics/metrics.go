// Package metrics holds the Prometheus instruments of the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "datamask"

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	Redactions    *prometheus.CounterVec
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	ToolCalls     *prometheus.CounterVec
	RecordsServed *prometheus.CounterVec
	gatherer      prometheus.Gatherer
}

// New registers the instruments with reg. Passing a fresh
// prometheus.NewRegistry() keeps tests independent of the global registry.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Redactions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "redactions_total",
			Help:      "Sensitive values redacted, by the rule that produced the replacement.",
		}, []string{"rule"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ToolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "mcp_tool_calls_total",
			Help:      "MCP tool invocations by tool and outcome.",
		}, []string{"tool", "outcome"}),
		RecordsServed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "records_served_total",
			Help:      "Masked records returned, by source table.",
		}, []string{"table"}),
		gatherer: reg,
	}
}

// ObserveRedaction implements masking.Observer. The field name is not used
// as a label; arbitrary payload keys would explode cardinality.
func (m *Metrics) ObserveRedaction(_, rule string) {
	m.Redactions.WithLabelValues(rule).Inc()
}

// ObserveHTTPRequest records one served request.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveToolCall records one MCP tool invocation.
func (m *Metrics) ObserveToolCall(tool string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.ToolCalls.WithLabelValues(tool, outcome).Inc()
}

// ObserveRecords counts records returned from table.
func (m *Metrics) ObserveRecords(table string, n int) {
	m.RecordsServed.WithLabelValues(table).Add(float64(n))
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

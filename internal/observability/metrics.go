package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "quotekit"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	lineItemsAdded *prometheus.CounterVec
	exports        *prometheus.CounterVec
	chatTurns      *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with registerer.
// A nil registerer uses the default Prometheus registerer.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		lineItemsAdded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "line_items_added_total",
			Help:      "Quote line items added by source.",
		}, []string{"source"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "exports_total",
			Help:      "Quote exports by outcome.",
		}, []string{"outcome"}),
		chatTurns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "chat_turns_total",
			Help:      "Assistant chat turns by outcome.",
		}, []string{"outcome"}),
	}

	for _, c := range []prometheus.Collector{m.httpRequests, m.httpDuration, m.lineItemsAdded, m.exports, m.chatTurns} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route, method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, status).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(seconds)
}

// LineItemAdded counts a line item created by source.
func (m *Metrics) LineItemAdded(source string) {
	if m == nil {
		return
	}
	m.lineItemsAdded.WithLabelValues(source).Inc()
}

// Export counts an export attempt.
func (m *Metrics) Export(outcome string) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(outcome).Inc()
}

// ChatTurn counts an assistant turn.
func (m *Metrics) ChatTurn(outcome string) {
	if m == nil {
		return
	}
	m.chatTurns.WithLabelValues(outcome).Inc()
}

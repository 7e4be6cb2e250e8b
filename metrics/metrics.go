// Package metrics exposes Prometheus collectors for request admission and
// order workflow outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the collectors. A nil *Metrics is a no-op so callers can
// run without a registry wired.
type Metrics struct {
	requestsAdmitted prometheus.Counter
	requestsRejected prometheus.Counter
	authFailures     prometheus.Counter
	ordersPlaced     prometheus.Counter
	orderFailures    *prometheus.CounterVec
	orderPlaceTime   prometheus.Histogram
}

// New registers the collectors on reg and returns the bundle.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsAdmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shopcore_requests_admitted_total",
			Help: "Requests admitted by the rate limiter.",
		}),
		requestsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shopcore_requests_rejected_total",
			Help: "Requests rejected by the rate limiter.",
		}),
		authFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shopcore_auth_failures_total",
			Help: "Bearer authentication failures.",
		}),
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shopcore_orders_placed_total",
			Help: "Orders placed successfully.",
		}),
		orderFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopcore_order_failures_total",
			Help: "Order placements that failed, by reason.",
		}, []string{"reason"}),
		orderPlaceTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "shopcore_order_place_seconds",
			Help:    "Order placement latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		m.requestsAdmitted,
		m.requestsRejected,
		m.authFailures,
		m.ordersPlaced,
		m.orderFailures,
		m.orderPlaceTime,
	)
	return m
}

// ObserveAdmission records one rate limiter decision.
func (m *Metrics) ObserveAdmission(allowed bool) {
	if m == nil {
		return
	}
	if allowed {
		m.requestsAdmitted.Inc()
	} else {
		m.requestsRejected.Inc()
	}
}

// ObserveAuthFailure records one failed bearer authentication.
func (m *Metrics) ObserveAuthFailure() {
	if m == nil {
		return
	}
	m.authFailures.Inc()
}

// ObserveOrderPlaced records a successful placement and its latency.
func (m *Metrics) ObserveOrderPlaced(seconds float64) {
	if m == nil {
		return
	}
	m.ordersPlaced.Inc()
	m.orderPlaceTime.Observe(seconds)
}

// ObserveOrderFailure records a failed placement under the given reason.
func (m *Metrics) ObserveOrderFailure(reason string) {
	if m == nil {
		return
	}
	m.orderFailures.WithLabelValues(reason).Inc()
}

// Package metrics holds the Prometheus instruments for the simulator.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every instrument the simulator records.
type Metrics struct {
	ObservationsTotal    prometheus.Counter
	ObservationsRejected prometheus.Counter
	PredictionsTotal     prometheus.Counter
	DrawsTotal           prometheus.Counter
	OrdersTotal          *prometheus.CounterVec // labels: side
	FetchErrors          *prometheus.CounterVec // labels: op
	FallbacksTotal       *prometheus.CounterVec // labels: op, source
	FetchDuration        *prometheus.HistogramVec
	LastConfidence       prometheus.Gauge
	LastPredictedPrice   prometheus.Gauge

	registry *prometheus.Registry
}

// New creates the instruments and registers them on reg. A nil reg gets a
// fresh private registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		ObservationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cryptopulse_observations_total",
			Help: "Price observations appended to the rolling series",
		}),
		ObservationsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cryptopulse_observations_rejected_total",
			Help: "Observations rejected for non-finite price or volume",
		}),
		PredictionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cryptopulse_predictions_total",
			Help: "Prediction recomputations",
		}),
		DrawsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cryptopulse_chart_draws_total",
			Help: "Chart draw passes",
		}),
		OrdersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cryptopulse_orders_total",
			Help: "Simulated orders filled, by side",
		}, []string{"side"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cryptopulse_fetch_errors_total",
			Help: "Market data fetch failures, by operation",
		}, []string{"op"}),
		FallbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cryptopulse_fetch_fallbacks_total",
			Help: "Responses served from cache or mock data",
		}, []string{"op", "source"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cryptopulse_fetch_duration_seconds",
			Help:    "Market data fetch latency including retries",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"op"}),
		LastConfidence: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cryptopulse_prediction_confidence",
			Help: "Confidence of the latest prediction",
		}),
		LastPredictedPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cryptopulse_predicted_price",
			Help: "Next price of the latest prediction",
		}),
		registry: reg,
	}

	reg.MustRegister(
		m.ObservationsTotal,
		m.ObservationsRejected,
		m.PredictionsTotal,
		m.DrawsTotal,
		m.OrdersTotal,
		m.FetchErrors,
		m.FallbacksTotal,
		m.FetchDuration,
		m.LastConfidence,
		m.LastPredictedPrice,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

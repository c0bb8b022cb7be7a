package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetches       *prometheus.CounterVec
	staleResults  *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	lastPrice     *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
	snapshotSeq   *prometheus.GaugeVec
	streamClients prometheus.Gauge
}

// New creates a Prometheus recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder on reg; tests pass a fresh registry.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		fetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptocompass_upstream_fetches_total",
				Help: "Upstream market data fetches by resource and outcome",
			},
			[]string{"resource", "outcome"},
		),
		staleResults: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptocompass_stale_results_total",
				Help: "Results discarded because a newer request was issued",
			},
			[]string{"resource"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptocompass_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cryptocompass_last_price",
				Help: "Last recorded USD price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cryptocompass_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		snapshotSeq: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cryptocompass_snapshot_sequence",
				Help: "Sequence number of the last applied snapshot",
			},
			[]string{"resource"},
		),
		streamClients: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "cryptocompass_stream_clients",
				Help: "Connected websocket clients",
			},
		),
	}
}

// RecordFetch records an upstream fetch outcome ("ok" or "error").
func (r *Recorder) RecordFetch(resource, outcome string) {
	r.fetches.WithLabelValues(resource, outcome).Inc()
}

// RecordStale records a result dropped by sequence check.
func (r *Recorder) RecordStale(resource string) {
	r.staleResults.WithLabelValues(resource).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordApplied records the sequence number of an applied snapshot.
func (r *Recorder) RecordApplied(resource string, seq uint64) {
	r.snapshotSeq.WithLabelValues(resource).Set(float64(seq))
}

// SetStreamClients sets the connected websocket client gauge.
func (r *Recorder) SetStreamClients(n int) {
	r.streamClients.Set(float64(n))
}

package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements repository.Metrics using Prometheus.
type Recorder struct {
	renders       *prometheus.CounterVec
	signals       *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	confidence    *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
	streamClients prometheus.Gauge
}

// New registers the collectors on reg, or on the default registry when reg
// is nil.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Recorder{
		renders: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forecast_renders_total",
				Help: "Forecast renders by mode, format and result",
			},
			[]string{"mode", "format", "result"},
		),
		signals: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forecast_signals_total",
				Help: "Timing signals derived by bias, action and profile",
			},
			[]string{"bias", "action", "profile"},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forecast_cache_lookups_total",
				Help: "Render cache lookups by backend and outcome",
			},
			[]string{"layer", "hit"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forecast_errors_total",
				Help: "Errors by kind",
			},
			[]string{"type"},
		),
		confidence: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "forecast_signal_confidence",
				Help: "Confidence of the last signal per symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "forecast_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		streamClients: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "forecast_stream_clients",
				Help: "Connected websocket signal subscribers",
			},
		),
	}
}

func (r *Recorder) RecordRender(mode, format, result string) {
	r.renders.WithLabelValues(mode, format, result).Inc()
}

func (r *Recorder) RecordSignal(bias, action, profile string) {
	r.signals.WithLabelValues(bias, action, profile).Inc()
}

func (r *Recorder) RecordCacheLookup(layer string, hit bool) {
	r.cacheLookups.WithLabelValues(layer, strconv.FormatBool(hit)).Inc()
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordConfidence(symbol string, confidence float64) {
	r.confidence.WithLabelValues(symbol).Set(confidence)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) SetStreamClients(n int) {
	r.streamClients.Set(float64(n))
}

package kafka

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type producerMetrics struct {
	messages *prometheus.CounterVec
	bytes    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

type consumerMetrics struct {
	handled  *prometheus.CounterVec
	dlq      *prometheus.CounterVec
	depth    prometheus.Gauge
	duration *prometheus.HistogramVec
}

// register adds c to reg, reusing an already registered collector of the
// same name so several producers can share one registry.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func newProducerMetrics(reg prometheus.Registerer) *producerMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &producerMetrics{
		messages: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "forecast_kafka_producer_messages_total", Help: "Messages published to Kafka"},
			[]string{"topic", "result"},
		)),
		bytes: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "forecast_kafka_producer_bytes_total", Help: "Payload bytes published"},
			[]string{"topic"},
		)),
		latency: register(reg, prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "forecast_kafka_producer_publish_seconds", Help: "Publish latency", Buckets: prometheus.DefBuckets},
			[]string{"topic"},
		)),
	}
}

func (m *producerMetrics) observe(topic string, bytes, count int, dur time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.messages.WithLabelValues(topic, result).Add(float64(count))
	m.bytes.WithLabelValues(topic).Add(float64(bytes))
	m.latency.WithLabelValues(topic).Observe(dur.Seconds())
}

func newConsumerMetrics(reg prometheus.Registerer) *consumerMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &consumerMetrics{
		handled: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "forecast_kafka_consumer_messages_total", Help: "Messages handled by result"},
			[]string{"topic", "result"},
		)),
		dlq: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "forecast_kafka_consumer_dlq_total", Help: "Messages routed to the DLQ"},
			[]string{"topic"},
		)),
		depth: register(reg, prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "forecast_kafka_consumer_queue_depth", Help: "Messages waiting for a worker"},
		)),
		duration: register(reg, prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "forecast_kafka_consumer_handle_seconds", Help: "Handling time per message, retries included"},
			[]string{"topic"},
		)),
	}
}

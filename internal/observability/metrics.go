package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ais_feeder"

// Metrics holds the Prometheus counters, histograms, and gauges for the feeder.
type Metrics struct {
	PacketsReceived prometheus.Counter
	PacketErrors    prometheus.Counter
	Messages        *prometheus.CounterVec // labels: outcome={submitted,skipped,ignored,failed}

	// Outbound archive metrics.
	Submissions        *prometheus.CounterVec // labels: result={success,error}
	SubmissionDuration prometheus.Histogram
	BreakerOpen        prometheus.Gauge

	PacketProcessingDuration prometheus.Histogram

	// Kafka mirror metrics.
	MirrorPublished prometheus.Counter
	MirrorErrors    prometheus.Counter
}

func newMetrics(help bool) *Metrics {
	h := func(s string) string {
		if help {
			return s
		}
		return ""
	}
	return &Metrics{
		PacketsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_received_total",
			Help:      h("Total AIS-catcher packets accepted by the listener."),
		}),
		PacketErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packet_errors_total",
			Help:      h("Packets rejected because the body was not valid JSON."),
		}),
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      h("Decoded AIS messages by processing outcome."),
		}, []string{"outcome"}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      h("ERDDAP insert requests by result."),
		}, []string{"result"}),
		SubmissionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submission_duration_seconds",
			Help:      h("ERDDAP insert request duration in seconds."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		BreakerOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "erddap_breaker_open",
			Help:      h("1 while the ERDDAP circuit breaker is open, 0 otherwise."),
		}),
		PacketProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "packet_processing_duration_seconds",
			Help:      h("Duration of processing one packet, including all submissions."),
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		MirrorPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mirror_published_total",
			Help:      h("Observations written to the Kafka mirror topic."),
		}),
		MirrorErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mirror_errors_total",
			Help:      h("Failed writes to the Kafka mirror topic."),
		}),
	}
}

// NewMetrics creates and registers all feeder metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)

	prometheus.MustRegister(
		m.PacketsReceived,
		m.PacketErrors,
		m.Messages,
		m.Submissions,
		m.SubmissionDuration,
		m.BreakerOpen,
		m.PacketProcessingDuration,
		m.MirrorPublished,
		m.MirrorErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Counter names shared between the pipeline stages and the Prometheus
// recorder. Operators alert on these four; the names are part of the
// monitoring contract and must not change.
const (
	ParsedRecordsSuccessfully = "parsed_records_successfully"
	ParsingFailures           = "parsing_failures"
	DLPAPICalls               = "dlp_api_calls"
	DLPFailures               = "dlp_failures"
)

// Recorder is the counter capability handed to pipeline stages. Stages never
// touch Prometheus directly so their counter effects can be asserted in
// isolation.
type Recorder interface {
	Inc(name string)
}

var (
	parsedRecordsSuccessfully = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: ParsedRecordsSuccessfully,
			Help: "Messages decoded and normalized into the canonical signal event shape (count)",
		},
	)

	parsingFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: ParsingFailures,
			Help: "Messages routed to the quarantine branch because they could not be parsed (count)",
		},
	)

	dlpAPICalls = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: DLPAPICalls,
			Help: "Successful calls to the external de-identification service (count)",
		},
	)

	dlpFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: DLPFailures,
			Help: "De-identification calls that failed or returned a mismatched shape (count)",
		},
	)

	SinkWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sink_writes_total",
			Help: "Total number of records written to the analytical and quarantine sinks (count)",
		},
		[]string{"destination", "status"},
	)

	ProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_processing_duration_ms",
			Help:    "Per-message processing duration by stage in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"stage", "status"},
	)

	RedactionCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redaction_cache_total",
			Help: "Redaction result cache lookups (count)",
		},
		[]string{"status"},
	)

	IngressEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingress_events_total",
			Help: "Events received by the upload endpoint (count)",
		},
		[]string{"status"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total number of requests checked against rate limit (count)",
		},
		[]string{"status"},
	)

	RetryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retry_attempts_total",
			Help: "Total number of retry attempts (count)",
		},
		[]string{"service", "topic"},
	)

	KafkaMessagesReadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_read_total",
			Help: "Total number of messages read from Kafka (count)",
		},
		[]string{"service", "topic"},
	)

	KafkaMessagesWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_written_total",
			Help: "Total number of messages written to Kafka (count)",
		},
		[]string{"service", "topic"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)
)

func RegisterPipelineMetrics() {
	prometheus.MustRegister(parsedRecordsSuccessfully)
	prometheus.MustRegister(parsingFailures)
	prometheus.MustRegister(dlpAPICalls)
	prometheus.MustRegister(dlpFailures)
	prometheus.MustRegister(SinkWritesTotal)
	prometheus.MustRegister(ProcessingDuration)
	prometheus.MustRegister(RedactionCacheTotal)
}

func RegisterIngressMetrics() {
	prometheus.MustRegister(IngressEventsTotal)
	prometheus.MustRegister(RateLimitRequestsTotal)
}

func RegisterBrokerMetrics() {
	prometheus.MustRegister(RetryAttemptsTotal)
	prometheus.MustRegister(KafkaMessagesReadTotal)
	prometheus.MustRegister(KafkaMessagesWrittenTotal)
}

func RegisterCircuitBreakerMetrics() {
	prometheus.MustRegister(CircuitBreakerState)
	prometheus.MustRegister(CircuitBreakerRequests)
	prometheus.MustRegister(CircuitBreakerFailures)
}

// PrometheusRecorder maps the shared counter names onto the registered
// Prometheus counters. Unknown names are dropped silently; the recorder is
// on the per-message hot path and must never fail it.
type PrometheusRecorder struct {
	counters map[string]prometheus.Counter
}

func NewPrometheusRecorder() *PrometheusRecorder {
	return &PrometheusRecorder{
		counters: map[string]prometheus.Counter{
			ParsedRecordsSuccessfully: parsedRecordsSuccessfully,
			ParsingFailures:           parsingFailures,
			DLPAPICalls:               dlpAPICalls,
			DLPFailures:               dlpFailures,
		},
	}
}

func (r *PrometheusRecorder) Inc(name string) {
	if c, ok := r.counters[name]; ok {
		c.Inc()
	}
}

func ObserveProcessingDuration(stage, status string, duration time.Duration) {
	ProcessingDuration.WithLabelValues(stage, status).Observe(float64(duration) / float64(time.Millisecond))
}

func IncSinkWrite(destination, status string) {
	SinkWritesTotal.WithLabelValues(destination, status).Inc()
}

func IncKafkaMessagesRead(service, topic string) {
	KafkaMessagesReadTotal.WithLabelValues(service, topic).Inc()
}

func IncKafkaMessagesWritten(service, topic string) {
	KafkaMessagesWrittenTotal.WithLabelValues(service, topic).Inc()
}

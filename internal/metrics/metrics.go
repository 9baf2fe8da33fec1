package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the Prometheus collectors shared by the RPC loop and
// the recommendation services.
type Metrics struct {
	RPCRequests       *prometheus.CounterVec
	RPCDuration       *prometheus.HistogramVec
	DroppedMessages   *prometheus.CounterVec
	GeneratorFailures *prometheus.CounterVec
	IngestedEvents    *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RPCRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "capybanse_rpc_requests_total",
			Help: "RPC messages processed, by queue and outcome.",
		}, []string{"queue", "status"}),
		RPCDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "capybanse_rpc_request_duration_seconds",
			Help:    "End-to-end RPC handling latency, by queue.",
			Buckets: prometheus.DefBuckets,
		}, []string{"queue"}),
		DroppedMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "capybanse_dropped_messages_total",
			Help: "Messages dropped without a reply, by queue and reason.",
		}, []string{"queue", "reason"}),
		GeneratorFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "capybanse_generator_failures_total",
			Help: "Candidate generator failures contained at the join barrier.",
		}, []string{"subsystem"}),
		IngestedEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "capybanse_ingested_events_total",
			Help: "Events consumed from provider queues, by source and outcome.",
		}, []string{"source", "status"}),
	}
}

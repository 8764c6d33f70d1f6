package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Latency of feed HTTP handlers by operation
	FeedRequestLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feed_request_latency_seconds",
		Help:    "Latency of feed handlers",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// Total number of feed requests by operation and outcome
	FeedRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_requests_total",
		Help: "Total number of feed requests",
	}, []string{"operation", "outcome"})

	// Journey pages served by recommendation mode
	JourneyPagesByMode = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_journey_pages_total",
		Help: "Journey pages served by recommendation mode",
	}, []string{"mode"})
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			FeedRequestLatency,
			FeedRequests,
			JourneyPagesByMode,
		)
	})
}

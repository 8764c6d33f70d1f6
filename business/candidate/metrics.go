package candidate

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CandidateBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "candidate_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open).",
		},
		[]string{"name"},
	)

	CandidateBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "candidate_breaker_requests_total",
			Help: "Candidate generation calls through the breaker by result.",
		},
		[]string{"name", "result"},
	)
)

func init() {
	prometheus.MustRegister(
		CandidateBreakerState,
		CandidateBreakerRequests,
	)
}

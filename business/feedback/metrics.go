package feedback

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	FeedbackJobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_jobs_total",
			Help: "Feedback jobs by dispatch result (enqueued, dropped, rejected).",
		},
		[]string{"result"},
	)

	FeedbackEffects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_effects_total",
			Help: "Background effects run by name and result.",
		},
		[]string{"effect", "result"},
	)
)

func init() {
	prometheus.MustRegister(
		FeedbackJobs,
		FeedbackEffects,
	)
}

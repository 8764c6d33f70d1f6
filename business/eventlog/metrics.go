package eventlog

import (
	"github.com/prometheus/client_golang/prometheus"
)

var EventLogWrites = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "event_log_records_total",
		Help: "Event log rows written (ok) and failed appends (error) per sink.",
	},
	[]string{"sink", "result"},
)

func init() {
	prometheus.MustRegister(EventLogWrites)
}

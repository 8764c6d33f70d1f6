package bandit

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	BanditRewardUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bandit_reward_updates_total",
			Help: "Count of applied bandit rewards by interaction and reward value.",
		},
		[]string{"interaction", "reward"},
	)

	BanditSelectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bandit_selections_total",
			Help: "Count of Thompson-sampling selections served.",
		},
	)

	BanditArmsPrunedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bandit_arms_pruned_total",
			Help: "Count of arms dropped by the per-identity arm cap.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		BanditRewardUpdatesTotal,
		BanditSelectionsTotal,
		BanditArmsPrunedTotal,
	)
}

package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	tableSize *prometheus.GaugeVec
	returns   *prometheus.GaugeVec
	episodes  *prometheus.CounterVec
	timesteps *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		tableSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tabrl_table_size",
			Help: "Number of states in the table of the learner",
		}, []string{"experiment", "agent"}),
		returns: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tabrl_episode_return",
			Help: "Return of the agent in the last episode",
		}, []string{"experiment", "agent", "mode"}),
		episodes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tabrl_episodes_total",
			Help: "Number of episodes run",
		}, []string{"experiment", "mode", "outcome"}),
		timesteps: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tabrl_episode_timesteps",
			Help:    "Length of the episodes",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"experiment"}),
	}
}

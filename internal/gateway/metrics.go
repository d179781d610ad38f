package gateway

import "github.com/prometheus/client_golang/prometheus"

var (
	activityCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rankboard",
		Subsystem: "gateway",
		Name:      "activity_events_total",
		Help:      "Activity events recorded per community.",
	}, []string{"community"})

	filteredCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rankboard",
		Subsystem: "gateway",
		Name:      "events_filtered_total",
		Help:      "Gateway events dropped before reaching the core.",
	}, []string{"reason"})
)

func init() {
	prometheus.MustRegister(activityCounter, filteredCounter)
}

func recordActivity(communityID string) {
	activityCounter.WithLabelValues(communityID).Inc()
}

func recordFiltered(reason string) {
	filteredCounter.WithLabelValues(reason).Inc()
}

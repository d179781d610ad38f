package reconcile

import "github.com/prometheus/client_golang/prometheus"

var (
	passCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rankboard",
		Subsystem: "reconcile",
		Name:      "passes_total",
		Help:      "Number of reconciliation passes grouped by outcome.",
	}, []string{"community", "outcome"})

	rankChangeCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rankboard",
		Subsystem: "reconcile",
		Name:      "rank_changes_total",
		Help:      "Number of rank assignments that moved across all passes.",
	}, []string{"community"})

	labelMutationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rankboard",
		Subsystem: "reconcile",
		Name:      "label_mutations_total",
		Help:      "Directory label mutations grouped by operation.",
	}, []string{"community", "op"})

	memberErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rankboard",
		Subsystem: "reconcile",
		Name:      "member_errors_total",
		Help:      "Members skipped during a pass because of directory errors.",
	}, []string{"community"})
)

func init() {
	prometheus.MustRegister(passCounter, rankChangeCounter, labelMutationCounter, memberErrorCounter)
}

func recordPass(communityID, outcome string) {
	passCounter.WithLabelValues(communityID, outcome).Inc()
}

func recordRankChanges(communityID string, n int) {
	rankChangeCounter.WithLabelValues(communityID).Add(float64(n))
}

func recordLabelMutation(communityID, op string) {
	labelMutationCounter.WithLabelValues(communityID, op).Inc()
}

func recordMemberError(communityID string) {
	memberErrorCounter.WithLabelValues(communityID).Inc()
}

// Package observability exposes process-level watermark gauges.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	activityRecordedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "rankboard",
		Subsystem: "store",
		Name:      "last_activity_recorded_timestamp_seconds",
		Help:      "Unix timestamp of the most recent activity counter increment.",
	})
	passCompletedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "rankboard",
		Subsystem: "reconcile",
		Name:      "last_pass_completed_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful reconciliation pass.",
	})
)

func init() {
	prometheus.MustRegister(activityRecordedGauge, passCompletedGauge)
}

// RecordActivityRecorded updates the activity watermark gauge.
func RecordActivityRecorded(ts time.Time) {
	if ts.IsZero() {
		return
	}
	activityRecordedGauge.Set(float64(ts.Unix()))
}

// RecordPassCompleted updates the reconciliation watermark gauge.
func RecordPassCompleted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	passCompletedGauge.Set(float64(ts.Unix()))
}

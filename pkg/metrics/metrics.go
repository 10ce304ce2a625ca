// Package metrics exposes Prometheus collectors for the interaction engine
// and notification dispatcher, served on the metrics port.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// InteractionsTotal counts domain mutations by operation and outcome.
	InteractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campusnet",
		Name:      "interactions_total",
		Help:      "Domain mutations by operation and outcome.",
	}, []string{"operation", "outcome"})

	// NotificationsEmitted counts ledger writes by notification type.
	NotificationsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campusnet",
		Name:      "notifications_emitted_total",
		Help:      "Notifications committed to the ledger, by type.",
	}, []string{"type"})

	// NotificationsSuppressed counts pending notifications dropped by the
	// no-self-notification rule.
	NotificationsSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "campusnet",
		Name:      "notifications_suppressed_total",
		Help:      "Pending notifications dropped because recipient == sender.",
	})

	// NotificationsFailed counts ledger writes that errored.
	NotificationsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "campusnet",
		Name:      "notifications_failed_total",
		Help:      "Pending notifications that failed to persist.",
	})

	// FanoutSize observes how many followers a new-post fan-out reached.
	FanoutSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "campusnet",
		Name:      "post_fanout_size",
		Help:      "Follower count reached by new-post notification fan-out.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})

	// ReconcileRepairs counts follow-graph asymmetries repaired.
	ReconcileRepairs = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "campusnet",
		Name:      "follow_graph_repairs_total",
		Help:      "Follow-graph asymmetries repaired by the reconciler.",
	})
)

// Serve starts the Prometheus endpoint on the given port. Blocks; run it in
// a goroutine.
func Serve(port string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(":"+port, mux)
}

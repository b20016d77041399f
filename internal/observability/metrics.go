package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus metrics for pool polling and position actions.
type Metrics struct {
	// --- Pool polling ---
	PollFetches         *prometheus.CounterVec
	PollFailures        *prometheus.CounterVec
	PollSkipped         *prometheus.CounterVec
	PollDuration        prometheus.Histogram
	SnapshotsPublished  *prometheus.CounterVec
	ActiveSubscriptions prometheus.Gauge

	// --- Position actions ---
	ActionTransitions *prometheus.CounterVec
	ActionErrors      *prometheus.CounterVec
	ActionsSuperseded prometheus.Counter
	SubmitDuration    *prometheus.HistogramVec
}

// NewMetrics creates the metrics and registers them with reg. A nil reg leaves
// them unregistered, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	fetchBuckets := []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}
	submitBuckets := []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

	m := &Metrics{
		PollFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lp_poll_fetches_total",
			Help: "Pool snapshot fetches attempted",
		}, []string{"pool"}),

		PollFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lp_poll_failures_total",
			Help: "Pool snapshot fetches that failed; previous snapshot kept",
		}, []string{"pool"}),

		PollSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lp_poll_skipped_total",
			Help: "Poll ticks skipped because a fetch was still in flight",
		}, []string{"pool"}),

		PollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lp_poll_fetch_duration_seconds",
			Help:    "Pool snapshot fetch latency",
			Buckets: fetchBuckets,
		}),

		SnapshotsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lp_snapshots_published_total",
			Help: "Pool snapshots published to subscribers",
		}, []string{"pool"}),

		ActiveSubscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lp_poll_active_subscriptions",
			Help: "Pool subscriptions currently polling",
		}),

		ActionTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lp_action_transitions_total",
			Help: "Pending action state transitions",
		}, []string{"kind", "status"}),

		ActionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lp_action_errors_total",
			Help: "Pending actions that failed, by error kind",
		}, []string{"kind", "error_kind"}),

		ActionsSuperseded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lp_action_superseded_total",
			Help: "Submission responses ignored because the action was superseded",
		}),

		SubmitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lp_action_submit_duration_seconds",
			Help:    "Submit call latency",
			Buckets: submitBuckets,
		}, []string{"kind"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.PollFetches,
			m.PollFailures,
			m.PollSkipped,
			m.PollDuration,
			m.SnapshotsPublished,
			m.ActiveSubscriptions,
			m.ActionTransitions,
			m.ActionErrors,
			m.ActionsSuperseded,
			m.SubmitDuration,
		)
	}
	return m
}

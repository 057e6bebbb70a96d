// Package metrics defines the custom Prometheus metrics of the portal. It is
// the single source of truth for metric names, labels and help strings.
//
// Metrics are registered with the default registry on package init through
// promauto; RegisterSessionGauge wires the gauges that need a live source.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portal"

// ── Session metrics ───────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "unsupported_role" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// GuardDecisionsTotal counts route guard outcomes.
// Label:
//   - outcome: "authorized", "unauthenticated", "wrong_role" or "pending"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of route guard decisions, by outcome.",
	},
	[]string{"outcome"},
)

// RegisterSessionGauge exposes the number of in-memory sessions as read from
// count at scrape time.
func RegisterSessionGauge(reg prometheus.Registerer, count func() int) error {
	return reg.Register(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of sessions currently held in memory.",
		},
		func() float64 { return float64(count()) },
	))
}

// ── Collaborator metrics ──────────────────────────────────────────────────────

// CollaboratorRequestsTotal counts outgoing collaborator calls.
// Labels:
//   - service: "auth", "policy" or "claims"
//   - status: HTTP status code, or "error" when no response arrived
var CollaboratorRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "collaborator_requests_total",
		Help:      "Total number of requests sent to backend collaborators.",
	},
	[]string{"service", "status"},
)

// CollaboratorRequestDuration measures collaborator round trips.
var CollaboratorRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "collaborator_request_duration_seconds",
		Help:      "Duration of requests sent to backend collaborators.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"service"},
)

// ── Dashboard metrics ─────────────────────────────────────────────────────────

// MetricFetchesTotal counts dashboard card fetches.
// Labels:
//   - metric: card name (e.g. "pending_claims")
//   - result: "ok", "empty", "error", "stale" or "after_stop"
var MetricFetchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "metric_fetches_total",
		Help:      "Total number of dashboard card fetches, by card and result.",
	},
	[]string{"metric", "result"},
)

// DashboardStreams tracks open live dashboard streams.
var DashboardStreams = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "dashboard_streams",
		Help:      "Number of open live dashboard streams.",
	},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditQueueDepth tracks the number of audit events waiting per worker.
// Label:
//   - worker_id: numeric worker index
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AuditDroppedTotal counts audit events dropped because a queue was full.
var AuditDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_dropped_total",
		Help:      "Total number of audit events dropped on a full queue.",
	},
)

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Decisions counts access decisions by outcome (allow|deny) and the rule that decided.
	Decisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lootguard_decisions_total",
			Help: "Total number of access decisions",
		},
		[]string{"outcome", "rule"},
	)

	// ShareMutations counts sharing registry writes by operation (grant|revoke|bulk_grant|bulk_revoke).
	ShareMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lootguard_share_mutations_total",
			Help: "Total number of sharing registry mutations",
		},
		[]string{"operation"},
	)

	// ScheduleEnabled reports the engine enabled flag as driven by the schedule evaluator.
	ScheduleEnabled = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lootguard_schedule_enabled",
			Help: "Whether the protection engine is currently enabled (1) or disabled (0)",
		},
	)

	// ProviderFailures counts external provider calls that errored or timed out.
	ProviderFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lootguard_provider_failures_total",
			Help: "Total number of failed external provider calls",
		},
		[]string{"provider"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lootguard_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Classification metrics
	EntriesClassified   prometheus.Counter
	EntriesUnchanged    prometheus.Counter
	ClassificationRuns  prometheus.Counter
	ClassificationErrors *prometheus.CounterVec

	// Allocation metrics
	AllocationsResolved *prometheus.CounterVec
	AllocationRuns      prometheus.Counter

	// Review metrics
	EntriesConfirmed prometheus.Counter
	EntriesAdjusted  prometheus.Counter

	// Effect transfer metrics
	EffectEntriesCreated prometheus.Counter
	EffectEntriesDeleted prometheus.Counter
	EffectTransferRuns   prometheus.Counter

	// Aggregation metrics
	AggregationRuns     prometheus.Counter
	AggregationCacheHit *prometheus.CounterVec
	AggregationDuration prometheus.Histogram

	// Database metrics
	DBQueries     *prometheus.CounterVec
	DBDuration    *prometheus.HistogramVec
	DBConnections prometheus.Gauge
	DBErrors      *prometheus.CounterVec

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisErrors     *prometheus.CounterVec

	// Audit metrics
	AuditLogsCreated *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Classification metrics
		EntriesClassified: promauto.NewCounter(prometheus.CounterOpts{
			Name: "masseplan_entries_classified_total",
			Help: "Total number of entries that received a suggestion",
		}),
		EntriesUnchanged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "masseplan_entries_unchanged_total",
			Help: "Total number of entries left unchanged by classification",
		}),
		ClassificationRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "masseplan_classification_runs_total",
			Help: "Total number of classification runs",
		}),
		ClassificationErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "masseplan_classification_errors_total",
				Help: "Total number of per-entry classification errors",
			},
			[]string{"case_id"},
		),

		// Allocation metrics
		AllocationsResolved: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "masseplan_allocations_resolved_total",
				Help: "Total number of estate allocations resolved, by source",
			},
			[]string{"source"},
		),
		AllocationRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "masseplan_allocation_runs_total",
			Help: "Total number of allocation runs",
		}),

		// Review metrics
		EntriesConfirmed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "masseplan_entries_confirmed_total",
			Help: "Total number of confirmed entries",
		}),
		EntriesAdjusted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "masseplan_entries_adjusted_total",
			Help: "Total number of adjusted entries",
		}),

		// Effect transfer metrics
		EffectEntriesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "masseplan_effect_entries_created_total",
			Help: "Total number of PLAN entries created from effects",
		}),
		EffectEntriesDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "masseplan_effect_entries_deleted_total",
			Help: "Total number of effect-lineage entries deleted",
		}),
		EffectTransferRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "masseplan_effect_transfer_runs_total",
			Help: "Total number of effect transfer runs",
		}),

		// Aggregation metrics
		AggregationRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "masseplan_aggregation_runs_total",
			Help: "Total number of aggregation runs",
		}),
		AggregationCacheHit: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "masseplan_aggregation_cache_total",
				Help: "Aggregation cache lookups by outcome",
			},
			[]string{"outcome"},
		),
		AggregationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "masseplan_aggregation_duration_seconds",
			Help:    "Duration of aggregation computations",
			Buckets: prometheus.DefBuckets,
		}),

		// Database metrics
		DBQueries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "masseplan_db_queries_total",
				Help: "Total database queries",
			},
			[]string{"operation", "table"},
		),
		DBDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "masseplan_db_query_duration_seconds",
				Help:    "Database query duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "table"},
		),
		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "masseplan_db_connections",
			Help: "Current number of database connections",
		}),
		DBErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "masseplan_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),

		// Redis metrics
		RedisOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "masseplan_redis_operations_total",
				Help: "Total Redis operations",
			},
			[]string{"operation"},
		),
		RedisErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "masseplan_redis_errors_total",
				Help: "Total Redis errors",
			},
			[]string{"operation"},
		),

		// Audit metrics
		AuditLogsCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "masseplan_audit_logs_total",
				Help: "Total audit logs created",
			},
			[]string{"action"},
		),
	}
}

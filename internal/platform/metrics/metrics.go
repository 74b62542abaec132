package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Métricas de proceso, registradas una sola vez en el registry default.
var (
	healthRecordsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pethealth_health_records_created_total",
		Help: "Health records created by type",
	}, []string{"type"})

	vaccinationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pethealth_vaccinations_created_total",
		Help: "Vaccination records created",
	})

	remindersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pethealth_reminders_created_total",
		Help: "Reminders created by type and origin",
	}, []string{"type", "origin"})

	remindersCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pethealth_reminders_completed_total",
		Help: "Reminder completions by type and recurrence",
	}, []string{"type", "recurring"})

	completionConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pethealth_reminder_completion_conflicts_total",
		Help: "Reminder completions rejected by optimistic concurrency",
	})

	healthScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pethealth_health_score",
		Help:    "Distribution of computed health scores",
		Buckets: prometheus.LinearBuckets(10, 10, 10),
	})

	statsComputeSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pethealth_stats_compute_duration_seconds",
		Help:    "Duration of health stats aggregation",
		Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})

	statsCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pethealth_stats_cache_total",
		Help: "Health stats cache lookups by result",
	}, []string{"result"}) // hit, miss, error
)

func IncHealthRecordCreated(recordType string) {
	healthRecordsCreated.WithLabelValues(recordType).Inc()
}

func IncVaccinationCreated() {
	vaccinationsCreated.Inc()
}

func IncReminderCreated(reminderType, origin string) {
	remindersCreated.WithLabelValues(reminderType, origin).Inc()
}

func IncReminderCompleted(reminderType string, recurring bool) {
	remindersCompleted.WithLabelValues(reminderType, strconv.FormatBool(recurring)).Inc()
}

func IncCompletionConflict() {
	completionConflicts.Inc()
}

func ObserveHealthScore(score int) {
	healthScore.Observe(float64(score))
}

func ObserveStatsCompute(d time.Duration) {
	statsComputeSeconds.Observe(d.Seconds())
}

func IncStatsCache(result string) {
	statsCache.WithLabelValues(result).Inc()
}

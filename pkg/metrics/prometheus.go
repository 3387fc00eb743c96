// Package metrics provides Prometheus metrics for the showring competition service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus series exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Pipeline throughput.
	showsRun         prometheus.Counter
	entriesSubmitted prometheus.Counter
	entriesSimulated prometheus.Counter
	entriesSkipped   *prometheus.CounterVec
	fetchFailures    prometheus.Counter

	// Scoring and persistence quality.
	scoringErrors    prometheus.Counter
	resultsPersisted prometheus.Counter
	duplicateResults prometheus.Counter

	// Economy and progression.
	prizeMoneyAwarded  prometheus.Counter
	entryFeesCollected prometheus.Counter
	feeTransferErrors  prometheus.Counter
	ownerXpAwarded     prometheus.Counter
	horseXpAwarded     prometheus.Counter
	ownerLevelUps      prometheus.Counter
	rewardStageErrors  *prometheus.CounterVec

	// Timing.
	showDuration prometheus.Histogram

	// Scheduler.
	scheduledRuns     prometheus.Counter
	scheduledRunFails prometheus.Counter

	// HTTP surface.
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// globalManager backs the package-level helpers.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// customRegistry keeps showring series apart from default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers all series.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "showring",
		subsystem:        "competition",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.showsRun = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "shows_run_total",
		Help:      "Total number of shows simulated to completion",
	})

	m.entriesSubmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "entries_submitted_total",
		Help:      "Total number of horse ids submitted for entry",
	})

	m.entriesSimulated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "entries_simulated_total",
		Help:      "Total number of eligible horses that went through scoring",
	})

	m.entriesSkipped = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "entries_skipped_total",
			Help:      "Total number of entries rejected at eligibility, by reason",
		},
		[]string{"reason"},
	)

	m.fetchFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "entry_fetch_failures_total",
		Help:      "Total number of submitted horse ids that could not be resolved",
	})

	m.scoringErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_errors_total",
		Help:      "Total number of per-horse scoring failures recorded as zero scores",
	})

	m.resultsPersisted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "results_persisted_total",
		Help:      "Total number of competition results written",
	})

	m.duplicateResults = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duplicate_results_total",
		Help:      "Total number of writes rejected by the one-result-per-horse-per-show rule",
	})

	m.prizeMoneyAwarded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "prize_money_awarded_total",
		Help:      "Total prize money paid out, in currency units",
	})

	m.entryFeesCollected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "entry_fees_collected_total",
		Help:      "Total entry fees credited to show hosts, in currency units",
	})

	m.feeTransferErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fee_transfer_errors_total",
		Help:      "Total number of entry fee transfers that failed and were skipped",
	})

	m.ownerXpAwarded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "owner_xp_awarded_total",
		Help:      "Total owner experience points granted for placements",
	})

	m.horseXpAwarded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "horse_xp_awarded_total",
		Help:      "Total horse experience points granted for placements",
	})

	m.ownerLevelUps = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "owner_level_ups_total",
		Help:      "Total owner levels gained through competition XP",
	})

	m.rewardStageErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "reward_stage_errors_total",
			Help:      "Total isolated reward failures, by stage",
		},
		[]string{"stage"},
	)

	m.showDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "show_duration_milliseconds",
		Help:      "End-to-end duration of a show entry run in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.scheduledRuns = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scheduled_runs_total",
		Help:      "Total number of shows started by the scheduler",
	})

	m.scheduledRunFails = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scheduled_run_failures_total",
		Help:      "Total number of scheduler-started shows that returned an error",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests served, by endpoint, method and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds, by endpoint, method and status",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)
}

// RecordShowRun increments the completed-show counter.
func RecordShowRun() {
	globalManager.showsRun.Inc()
}

// RecordEntriesSubmitted adds to the submitted-entry counter.
func RecordEntriesSubmitted(n int) {
	globalManager.entriesSubmitted.Add(float64(n))
}

// RecordEntriesSimulated adds to the simulated-entry counter.
func RecordEntriesSimulated(n int) {
	globalManager.entriesSimulated.Add(float64(n))
}

// RecordEntrySkipped increments the skip counter for a reason label.
func RecordEntrySkipped(reason string) {
	globalManager.entriesSkipped.WithLabelValues(reason).Inc()
}

// RecordFetchFailure increments the unresolved-horse counter.
func RecordFetchFailure() {
	globalManager.fetchFailures.Inc()
}

// RecordScoringError increments the per-horse scoring failure counter.
func RecordScoringError() {
	globalManager.scoringErrors.Inc()
}

// RecordResultPersisted increments the persisted-result counter.
func RecordResultPersisted() {
	globalManager.resultsPersisted.Inc()
}

// RecordDuplicateResult increments the duplicate-result counter.
func RecordDuplicateResult() {
	globalManager.duplicateResults.Inc()
}

// RecordPrizeAwarded adds paid prize money to the economy counter.
func RecordPrizeAwarded(amount int64) {
	globalManager.prizeMoneyAwarded.Add(float64(amount))
}

// RecordEntryFees adds collected fees to the economy counter.
func RecordEntryFees(amount int64) {
	globalManager.entryFeesCollected.Add(float64(amount))
}

// RecordFeeTransferError increments the skipped-fee-transfer counter.
func RecordFeeTransferError() {
	globalManager.feeTransferErrors.Inc()
}

// RecordOwnerXp adds granted owner XP.
func RecordOwnerXp(amount int) {
	globalManager.ownerXpAwarded.Add(float64(amount))
}

// RecordHorseXp adds granted horse XP.
func RecordHorseXp(amount int) {
	globalManager.horseXpAwarded.Add(float64(amount))
}

// RecordOwnerLevelUps adds gained owner levels.
func RecordOwnerLevelUps(levels int) {
	globalManager.ownerLevelUps.Add(float64(levels))
}

// RecordRewardStageError increments the isolated reward failure counter for a stage.
func RecordRewardStageError(stage string) {
	globalManager.rewardStageErrors.WithLabelValues(stage).Inc()
}

// ObserveShowDuration records an end-to-end show duration in milliseconds.
func ObserveShowDuration(ms float64) {
	globalManager.showDuration.Observe(ms)
}

// RecordScheduledRun increments the scheduler-start counter.
func RecordScheduledRun() {
	globalManager.scheduledRuns.Inc()
}

// RecordScheduledRunFailure increments the scheduler-failure counter.
func RecordScheduledRunFailure() {
	globalManager.scheduledRunFails.Inc()
}

// RecordHTTPRequest increments the request counter for an endpoint, method and status.
func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// RecordHTTPRequestDuration records a request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, status string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(ms)
}

// GetRegistry returns the registry backing the package-level series.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

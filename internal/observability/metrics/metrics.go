package metrics

import (
	"database/sql"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	metricPrefix = "atmwatch_"

	resultSuccess = "success"
	resultError   = "error"

	pathLive     = "live"
	pathFailover = "failover"
)

var (
	registerOnce sync.Once

	runsTotal  *prometheus.CounterVec
	runLatency *prometheus.HistogramVec

	terminalFetches *prometheus.CounterVec
	fetchRetries    prometheus.Counter

	regionStatus *prometheus.GaugeVec

	persistLatency *prometheus.HistogramVec

	lastRunUnix prometheus.Gauge
)

// Init registers pipeline metrics and DB-backed gauges. Safe to skip
// entirely; every helper is a no-op until Init runs.
func Init(db *sql.DB, logger *zap.Logger) {
	registerOnce.Do(func() {
		runsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "runs_total",
				Help: "Total retrieval runs by path and result",
			},
			[]string{"path", "result"},
		)
		runLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "run_duration_seconds",
				Help:    "Retrieval run duration in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"path"},
		)

		terminalFetches = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "terminal_fetches_total",
				Help: "Total per-terminal status fetches by result",
			},
			[]string{"result"},
		)
		fetchRetries = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "fetch_retries_total",
				Help: "Total retried terminal status calls",
			},
		)

		regionStatus = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "region_terminals",
				Help: "Terminals counted in the latest run by region and status",
			},
			[]string{"region", "status"},
		)

		persistLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "persist_latency_seconds",
				Help:    "Persistence write latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		lastRunUnix = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "last_run_timestamp_seconds",
				Help: "Unix time of the last completed run",
			},
		)

		prometheus.MustRegister(
			runsTotal,
			runLatency,
			terminalFetches,
			fetchRetries,
			regionStatus,
			persistLatency,
			lastRunUnix,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveRun records one run's path, result and duration.
func ObserveRun(path, result string, duration time.Duration) {
	if path == "" {
		path = pathLive
	}
	if result == "" {
		result = resultSuccess
	}
	if runsTotal != nil {
		runsTotal.WithLabelValues(path, result).Inc()
	}
	if runLatency != nil {
		runLatency.WithLabelValues(path).Observe(duration.Seconds())
	}
}

// IncTerminalFetch counts one per-terminal fetch outcome.
func IncTerminalFetch(result string) {
	if result == "" {
		result = resultSuccess
	}
	if terminalFetches != nil {
		terminalFetches.WithLabelValues(result).Inc()
	}
}

// IncFetchRetry counts one retried terminal status call.
func IncFetchRetry() {
	if fetchRetries != nil {
		fetchRetries.Inc()
	}
}

// SetRegionStatus publishes the latest per-region status count.
func SetRegionStatus(region, status string, count int) {
	if region == "" || status == "" {
		return
	}
	if regionStatus != nil {
		regionStatus.WithLabelValues(region, status).Set(float64(count))
	}
}

// ObservePersist records one persistence write's result and duration.
func ObservePersist(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if persistLatency != nil {
		persistLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// SetLastRun publishes the completion time of the latest run.
func SetLastRun(t time.Time) {
	if lastRunUnix != nil {
		lastRunUnix.Set(float64(t.Unix()))
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError

	PathLive     = pathLive
	PathFailover = pathFailover
)

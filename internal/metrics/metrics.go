package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	reportsComputed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vrlounge",
			Name:      "reports_total",
			Help:      "Count of revenue and payroll reports by kind and source.",
		},
		[]string{"kind", "source"},
	)

	reportDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vrlounge",
			Name:      "report_duration_seconds",
			Help:      "Time spent loading and computing a report.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	anomalies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vrlounge",
			Name:      "anomalies_total",
			Help:      "Count of tolerated input anomalies by kind.",
		},
		[]string{"kind"},
	)

	payrollTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vrlounge",
			Name:      "last_monthly_payroll",
			Help:      "Total payout of the most recently computed monthly payroll.",
		},
	)

	botCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vrlounge",
			Name:      "bot_commands_total",
			Help:      "Count of bot commands by command and outcome.",
		},
		[]string{"command", "outcome"},
	)

	priceReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vrlounge",
			Name:      "price_table_reloads_total",
			Help:      "Count of price table reload attempts by status.",
		},
		[]string{"status"},
	)

	jobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vrlounge",
			Name:      "scheduled_jobs_total",
			Help:      "Count of scheduled job runs by job and status.",
		},
		[]string{"job", "status"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(reportsComputed, reportDuration, anomalies, payrollTotal, botCommands, priceReloads, jobRuns)
	})
}

func IncReport(kind, source string) {
	reportsComputed.WithLabelValues(kind, source).Inc()
}

func ObserveReport(kind string, started time.Time) {
	reportDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
}

func AddAnomalies(kind string, n int) {
	if n <= 0 {
		return
	}
	anomalies.WithLabelValues(kind).Add(float64(n))
}

func SetPayrollTotal(v float64) {
	payrollTotal.Set(v)
}

func IncBotCommand(command, outcome string) {
	botCommands.WithLabelValues(command, outcome).Inc()
}

func IncPriceReload(status string) {
	priceReloads.WithLabelValues(status).Inc()
}

func IncJob(job, status string) {
	jobRuns.WithLabelValues(job, status).Inc()
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline holds the collectors describing loan master runs.
type Pipeline struct {
	Runs          *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	RunDuration   prometheus.Histogram
	OutputRows    prometheus.Gauge
	Issues        *prometheus.CounterVec
	LastSuccess   prometheus.Gauge
}

// NewPipeline creates the collectors and registers them on reg.
func NewPipeline(reg prometheus.Registerer) *Pipeline {
	m := &Pipeline{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loan_master",
			Name:      "runs_total",
			Help:      "Loan master runs by final status.",
		}, []string{"status"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "loan_master",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each feature pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"stage"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "loan_master",
			Name:      "run_duration_seconds",
			Help:      "End-to-end duration of a loan master run.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		OutputRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "loan_master",
			Name:      "output_rows",
			Help:      "Rows written by the last successful run.",
		}),
		Issues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loan_master",
			Name:      "data_quality_issues_total",
			Help:      "Data-quality issues found while building the loan master.",
		}, []string{"kind"}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "loan_master",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
	}
	reg.MustRegister(m.Runs, m.StageDuration, m.RunDuration, m.OutputRows, m.Issues, m.LastSuccess)
	return m
}

func (m *Pipeline) ObserveStage(stage string, d time.Duration) {
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Pipeline) ObserveRun(status string, d time.Duration) {
	m.Runs.WithLabelValues(status).Inc()
	m.RunDuration.Observe(d.Seconds())
}

func (m *Pipeline) ObserveSuccess(rows int, at time.Time) {
	m.OutputRows.Set(float64(rows))
	m.LastSuccess.Set(float64(at.Unix()))
}

func (m *Pipeline) AddIssues(kind string, n int) {
	m.Issues.WithLabelValues(kind).Add(float64(n))
}

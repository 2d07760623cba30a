package metrics

import (
	"time"

	edgar "github.com/RxDataLab/edgar-statements"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements edgar.Recorder using Prometheus.
type Recorder struct {
	fetchRequests *prometheus.CounterVec
	filesTotal    *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	runsTotal     *prometheus.CounterVec
}

// New creates a recorder registered with reg. A nil reg uses the default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Recorder{
		fetchRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goedgar_fetch_requests_total",
				Help: "Total number of filing download requests",
			},
			[]string{"form", "result"},
		),
		filesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goedgar_files_processed_total",
				Help: "Total number of downloaded documents processed, by outcome",
			},
			[]string{"status"},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "goedgar_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
			},
			[]string{"stage"},
		),
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goedgar_runs_total",
				Help: "Total number of runs submitted, by outcome",
			},
			[]string{"result"},
		),
	}
}

// FetchRequest records one download request.
func (r *Recorder) FetchRequest(form string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.fetchRequests.WithLabelValues(form, result).Inc()
}

// FileProcessed records the outcome of one document.
func (r *Recorder) FileProcessed(status edgar.FileStatus) {
	r.filesTotal.WithLabelValues(string(status)).Inc()
}

// StageDuration records how long a pipeline stage took.
func (r *Recorder) StageDuration(stage string, d time.Duration) {
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RunFinished records a run outcome (ok, invalid, error).
func (r *Recorder) RunFinished(result string) {
	r.runsTotal.WithLabelValues(result).Inc()
}

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RunsTotal counts provisioning runs by workflow and result.
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kiln_runs_total",
			Help: "Total number of provisioning runs by workflow and result",
		},
		[]string{"workflow", "result"},
	)

	// StageDuration observes how long each lifecycle stage takes.
	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kiln_stage_duration_seconds",
			Help:    "Duration of lifecycle stages in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"stage"},
	)

	// StageSkipsTotal counts stages skipped because their postcondition
	// already held.
	StageSkipsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kiln_stage_skips_total",
			Help: "Total number of stages skipped as already satisfied",
		},
		[]string{"stage"},
	)

	// StageFailuresTotal counts terminal stage failures by taxonomy kind.
	StageFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kiln_stage_failures_total",
			Help: "Total number of stage failures by stage and error kind",
		},
		[]string{"stage", "kind"},
	)

	// HealthAttemptsTotal counts individual health probe attempts by
	// outcome.
	HealthAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kiln_health_attempts_total",
			Help: "Total number of health probe attempts by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		RunsTotal,
		StageDuration,
		StageSkipsTotal,
		StageFailuresTotal,
		HealthAttemptsTotal,
	)
}

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr for the duration of the run. Fleet
// automation that keeps kiln running across many targets points its scraper
// here; single-shot runs normally leave it disabled.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return http.ListenAndServe(addr, mux)
}

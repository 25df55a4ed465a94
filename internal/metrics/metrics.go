package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/clearpath-health/clearpath/internal/models"
)

var (
	casesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clearpath",
			Name:      "cases_total",
			Help:      "Total number of cases processed, partitioned by routing decision.",
		},
		[]string{"decision"},
	)

	pipelineDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "clearpath",
			Name:      "pipeline_seconds",
			Help:      "End-to-end pipeline latency in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)

	stageFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clearpath",
			Name:      "stage_failures_total",
			Help:      "Pipeline runs that stopped at a stage.",
		},
		[]string{"stage"},
	)

	reviewsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clearpath",
			Name:      "reviews_total",
			Help:      "Human review verdicts recorded.",
		},
		[]string{"verdict"},
	)

	reviewQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "clearpath",
			Name:      "review_queue_depth",
			Help:      "Cases currently awaiting human review.",
		},
	)
)

// Register attaches clearpath collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		casesTotal,
		pipelineDurationSeconds,
		stageFailuresTotal,
		reviewsTotal,
		reviewQueueDepth,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveCase records a pipeline duration and the decision it produced.
func ObserveCase(duration time.Duration, rec models.CaseRecord) {
	label := string(rec.Decision)
	if label == "" {
		label = string(models.DecisionError)
	}
	casesTotal.WithLabelValues(label).Inc()
	if rec.FailedStage != "" {
		stageFailuresTotal.WithLabelValues(string(rec.FailedStage)).Inc()
	}
	if duration < 0 {
		duration = 0
	}
	pipelineDurationSeconds.Observe(duration.Seconds())
}

// ObserveReview counts a recorded verdict.
func ObserveReview(verdict models.ReviewVerdict) {
	reviewsTotal.WithLabelValues(string(verdict)).Inc()
}

// SetQueueDepth publishes the current review queue length.
func SetQueueDepth(n int) {
	reviewQueueDepth.Set(float64(n))
}

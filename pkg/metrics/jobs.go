package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// JobMetrics records background housekeeping runs such as the session sweeper.
type JobMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	evicted  *prometheus.CounterVec
}

// NewJobMetrics registers the job metrics on the provided registerer.
func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	if reg == nil {
		return &JobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_job_duration_seconds",
		Help:    "Duration of background jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_job_success_total",
		Help: "Successful background job runs.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_job_failure_total",
		Help: "Failed background job runs.",
	}, []string{"job"})
	evicted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_job_items_total",
		Help: "Items processed by background jobs.",
	}, []string{"job"})
	reg.MustRegister(duration, success, failure, evicted)
	return &JobMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		evicted:  evicted,
	}
}

// ObserveRun records one run of the named job.
func (j *JobMetrics) ObserveRun(job string, duration time.Duration, items int, err error) {
	if j == nil || j.duration == nil {
		return
	}
	label := normalizeLabel(job)
	j.duration.WithLabelValues(label).Observe(duration.Seconds())
	if err != nil {
		j.failure.WithLabelValues(label).Inc()
		return
	}
	j.success.WithLabelValues(label).Inc()
	if items > 0 {
		j.evicted.WithLabelValues(label).Add(float64(items))
	}
}

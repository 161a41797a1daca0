package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storefront-checkout/pkg/enums"
)

// CheckoutMetrics records gate outcomes, submission results and document latency.
type CheckoutMetrics struct {
	gates       *prometheus.CounterVec
	submissions *prometheus.CounterVec
	documents   prometheus.Histogram
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	gates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_gate_outcomes_total",
		Help: "Checkout gate evaluations by outcome.",
	}, []string{"reason"})
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_submissions_total",
		Help: "Checkout submissions by result.",
	}, []string{"result"})
	documents := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_document_duration_seconds",
		Help:    "Latency of delivery document generation.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(gates, submissions, documents)
	return &CheckoutMetrics{
		gates:       gates,
		submissions: submissions,
		documents:   documents,
	}
}

// ObserveGate counts one gate evaluation.
func (c *CheckoutMetrics) ObserveGate(reason enums.GateReason) {
	if c == nil || c.gates == nil {
		return
	}
	c.gates.WithLabelValues(normalizeLabel(string(reason))).Inc()
}

// ObserveSubmission counts one submission result.
func (c *CheckoutMetrics) ObserveSubmission(result string) {
	if c == nil || c.submissions == nil {
		return
	}
	c.submissions.WithLabelValues(normalizeLabel(result)).Inc()
}

// ObserveDocument records how long a document took to generate.
func (c *CheckoutMetrics) ObserveDocument(d time.Duration) {
	if c == nil || c.documents == nil {
		return
	}
	c.documents.Observe(d.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

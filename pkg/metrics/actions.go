package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Admin action names recorded by ActionMetrics.
const (
	ActionRefund           = "refund"
	ActionResendEmail      = "resend_email"
	ActionPushPR           = "push_pr"
	ActionLegalChange      = "legal_change_action"
	ActionDocumentGenerate = "document_generate"
	ActionStripeWebhook    = "stripe_webhook"
)

// ActionMetrics records outcomes of admin actions that reach external systems.
type ActionMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewActionMetrics registers the action metrics on the provided registerer.
func NewActionMetrics(reg prometheus.Registerer) *ActionMetrics {
	if reg == nil {
		return &ActionMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "heaven_action_duration_seconds",
		Help:    "Duration of admin actions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"action"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "heaven_action_success_total",
		Help: "Successful admin actions.",
	}, []string{"action"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "heaven_action_failure_total",
		Help: "Failed admin actions.",
	}, []string{"action"})
	reg.MustRegister(duration, success, failure)
	return &ActionMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// Observe records the duration and outcome of one action.
func (a *ActionMetrics) Observe(action string, started time.Time, err error) {
	a.ObserveDuration(action, time.Since(started))
	if err != nil {
		a.IncFailure(action)
		return
	}
	a.IncSuccess(action)
}

// ObserveDuration records the duration for the named action.
func (a *ActionMetrics) ObserveDuration(action string, duration time.Duration) {
	if a == nil || a.duration == nil {
		return
	}
	a.duration.WithLabelValues(normalizeLabel(action)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named action.
func (a *ActionMetrics) IncSuccess(action string) {
	if a == nil || a.success == nil {
		return
	}
	a.success.WithLabelValues(normalizeLabel(action)).Inc()
}

// IncFailure increments the failure counter for the named action.
func (a *ActionMetrics) IncFailure(action string) {
	if a == nil || a.failure == nil {
		return
	}
	a.failure.WithLabelValues(normalizeLabel(action)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

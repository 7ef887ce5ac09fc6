package metrics

import "github.com/prometheus/client_golang/prometheus"

// Webhook outcome labels.
const (
	OutcomeProcessed = "processed"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// WebhookMetrics counts billing webhook deliveries by event type and outcome.
type WebhookMetrics struct {
	events   *prometheus.CounterVec
	rejected prometheus.Counter
}

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stripe_webhook_events_total",
		Help: "Stripe webhook events by type and outcome.",
	}, []string{"event_type", "outcome"})
	rejected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stripe_webhook_rejected_total",
		Help: "Stripe webhook deliveries rejected before processing (bad signature or missing body).",
	})
	reg.MustRegister(events, rejected)
	return &WebhookMetrics{events: events, rejected: rejected}
}

// IncEvent records an event delivery outcome.
func (w *WebhookMetrics) IncEvent(eventType, outcome string) {
	if w == nil || w.events == nil {
		return
	}
	w.events.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

// IncRejected records a delivery rejected at the door.
func (w *WebhookMetrics) IncRejected() {
	if w == nil || w.rejected == nil {
		return
	}
	w.rejected.Inc()
}

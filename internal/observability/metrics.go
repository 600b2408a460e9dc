package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics counts the gateway's externally interesting events: webhook
// deliveries by disposition, reconciled outcomes by resulting status and
// payment operations by kind and result.
type Metrics struct {
	WebhookEvents     *prometheus.CounterVec
	ReconcileOutcomes *prometheus.CounterVec
	Operations        *prometheus.CounterVec
}

func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stripe_gateway",
			Name:      "webhook_events_total",
			Help:      "Webhook deliveries by disposition.",
		}, []string{"disposition"}),
		ReconcileOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stripe_gateway",
			Name:      "reconcile_outcomes_total",
			Help:      "Reconciled webhook outcomes by transaction status.",
		}, []string{"status"}),
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stripe_gateway",
			Name:      "operations_total",
			Help:      "Payment operations by kind and result.",
		}, []string{"operation", "result"}),
	}
	reg.MustRegister(m.WebhookEvents, m.ReconcileOutcomes, m.Operations)
	return m
}

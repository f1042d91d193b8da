package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "staybook"

var (
	once sync.Once

	apiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Booking API requests by operation and HTTP status (0 for transport errors).",
		},
		[]string{"operation", "status"},
	)

	flowTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flow_transitions_total",
			Help:      "Booking flow transitions by target state.",
		},
		[]string{"state"},
	)

	paymentOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_outcomes_total",
			Help:      "Payment handoff outcomes.",
		},
		[]string{"outcome"},
	)

	tokenEvictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_evictions_total",
			Help:      "Bearer tokens dropped locally as malformed, expired or rejected.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(apiRequests, flowTransitions, paymentOutcomes, tokenEvictions)
	})
}

func IncAPIRequest(operation, status string) {
	apiRequests.WithLabelValues(operation, status).Inc()
}

func IncFlowTransition(state string) {
	flowTransitions.WithLabelValues(state).Inc()
}

func IncPaymentOutcome(outcome string) {
	paymentOutcomes.WithLabelValues(outcome).Inc()
}

func IncTokenEviction() {
	tokenEvictions.Inc()
}

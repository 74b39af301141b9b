// Package metrics holds the relay's Prometheus collectors. They register with
// the default registry, which the monitoring server exposes on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "voice_relay"

// Relay kinds.
const (
	KindText  = "text"
	KindAudio = "audio"
)

// Relay outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeTimeout = "timeout"
	OutcomeFailed  = "failed"
)

var (
	// WebhooksReceived counts inbound webhooks by route and body shape.
	WebhooksReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhooks_received_total",
		Help:      "Inbound voice-service webhooks by route and payload shape.",
	}, []string{"route", "shape"})

	// RelaysTotal counts outbound relay attempts by kind and outcome.
	RelaysTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "relays_total",
		Help:      "Outbound Telegram relay attempts by kind and outcome.",
	}, []string{"kind", "outcome"})

	// RelayDuration observes how long each relay call took.
	RelayDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "relay_duration_seconds",
		Help:      "Latency of outbound Telegram relay calls.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
	}, []string{"kind"})
)

// ObserveRelay records one relay attempt.
func ObserveRelay(kind, outcome string, seconds float64) {
	RelaysTotal.WithLabelValues(kind, outcome).Inc()
	RelayDuration.WithLabelValues(kind).Observe(seconds)
}

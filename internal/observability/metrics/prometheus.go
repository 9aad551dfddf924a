package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// webhookOutcomes mirrors RecordWebhook on the /metrics scrape endpoint.
var webhookOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cloudstage",
	Name:      "webhook_outcomes_total",
	Help:      "Inbound payment webhooks by provider and outcome.",
}, []string{"provider", "outcome"})

func observeWebhookOutcome(provider, outcome string) {
	webhookOutcomes.WithLabelValues(strings.TrimSpace(provider), strings.TrimSpace(outcome)).Inc()
}

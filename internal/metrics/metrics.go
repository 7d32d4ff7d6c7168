package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles every collector used by the bot. A single instance is
// created in main and injected into each component.
type Metrics struct {
	WAIncomingMessages *prometheus.CounterVec
	DeepSeekRequests   *prometheus.CounterVec
	DeepSeekLatency    *prometheus.HistogramVec
	FallbackUses       *prometheus.CounterVec
	ItemsStored        *prometheus.CounterVec
	Errors             *prometheus.CounterVec
	AuthorizedGroups   prometheus.Gauge
}

// New registers all collectors on the given registerer under the namespace.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		WAIncomingMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wa_incoming_messages_total",
			Help:      "Incoming WhatsApp messages by detected type.",
		}, []string{"type"}),
		DeepSeekRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deepseek_requests_total",
			Help:      "DeepSeek API calls by outcome.",
		}, []string{"outcome"}),
		DeepSeekLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "deepseek_latency_seconds",
			Help:      "DeepSeek API latency by HTTP status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		FallbackUses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_uses_total",
			Help:      "Heuristic fallback activations by domain.",
		}, []string{"domain"}),
		ItemsStored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_stored_total",
			Help:      "Items appended to group lists by domain.",
		}, []string{"domain"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Errors by component.",
		}, []string{"component"}),
		AuthorizedGroups: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "authorized_groups",
			Help:      "Number of groups the bot is currently active in.",
		}),
	}
	reg.MustRegister(
		m.WAIncomingMessages,
		m.DeepSeekRequests,
		m.DeepSeekLatency,
		m.FallbackUses,
		m.ItemsStored,
		m.Errors,
		m.AuthorizedGroups,
	)
	return m
}

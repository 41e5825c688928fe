// Package metrics exposes the service's Prometheus counters on a private
// registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nanopress"

// Collector holds the service counters. A nil *Collector is valid and
// records nothing.
type Collector struct {
	registry *prometheus.Registry

	WebhookEvents   *prometheus.CounterVec
	AccessChecks    *prometheus.CounterVec
	LedgerConflicts *prometheus.CounterVec
}

// New creates a Collector with its own registry, including Go runtime and
// process collectors.
func New() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Payment-processor webhook events by type and outcome",
		}, []string{"type", "outcome"}),
		AccessChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "access_checks_total",
			Help:      "Premium access decisions by result",
		}, []string{"result"}),
		LedgerConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_conflicts_total",
			Help:      "Writes rejected by a ledger uniqueness rule",
		}, []string{"ledger"}),
	}
	reg.MustRegister(
		c.WebhookEvents,
		c.AccessChecks,
		c.LedgerConflicts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) WebhookEvent(eventType, outcome string) {
	if c == nil {
		return
	}
	c.WebhookEvents.WithLabelValues(eventType, outcome).Inc()
}

func (c *Collector) AccessCheck(result string) {
	if c == nil {
		return
	}
	c.AccessChecks.WithLabelValues(result).Inc()
}

func (c *Collector) LedgerConflict(ledger string) {
	if c == nil {
		return
	}
	c.LedgerConflicts.WithLabelValues(ledger).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Package metrics exports session step telemetry to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flux-sim/flux-sim/sim"
)

const namespace = "flux_sim"

// Collector is a sim.StepObserver that counts steps and tracks entropy.
// Each Collector owns its registry, so several can coexist in one process.
type Collector struct {
	registry *prometheus.Registry

	steps       *prometheus.CounterVec   // domain, action, outcome
	failures    *prometheus.CounterVec   // domain, kind
	entropy     *prometheus.HistogramVec // domain
	completions *prometheus.CounterVec   // domain, status
}

var _ sim.StepObserver = (*Collector)(nil)

// NewCollector creates a collector with a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Collector{
		registry: reg,
		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "steps_total",
			Help:      "Applied session steps by domain, canonical action and outcome",
		}, []string{"domain", "action", "outcome"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "failures_total",
			Help:      "Failed steps by failure kind",
		}, []string{"domain", "kind"}),
		entropy: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "entropy",
			Help:      "Session entropy after each step",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}, []string{"domain"}),
		completions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "goal_completions_total",
			Help:      "Sessions ended by an achieved goal",
		}, []string{"domain", "status"}),
	}
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the collector's metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveStep implements sim.StepObserver.
func (c *Collector) ObserveStep(_ string, domain sim.Domain, result sim.StepResult) {
	d := string(domain)
	action := result.Action
	if result.Result.Kind == sim.FailureUnknownAction {
		// raw learner input; keep label cardinality bounded
		action = "unknown"
	}
	outcome := "success"
	if !result.Success {
		outcome = "failure"
		c.failures.WithLabelValues(d, string(result.Result.Kind)).Inc()
	}
	c.steps.WithLabelValues(d, action, outcome).Inc()
	c.entropy.WithLabelValues(d).Observe(result.Entropy)
	if result.Goal != nil && result.Goal.Achieved {
		c.completions.WithLabelValues(d, string(result.Status)).Inc()
	}
}

// Package metrics exposes prometheus counters for gate operations.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "hotspotgate"

type Metrics struct {
	RuleCommands *prometheus.CounterVec
	Grants       *prometheus.CounterVec
	Revokes      *prometheus.CounterVec
	PrunedRules  prometheus.Counter
	Liveness     *prometheus.CounterVec
	HWLookups    *prometheus.CounterVec
}

// New registers the gate collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		RuleCommands: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_commands_total",
			Help:      "Rule-engine statements issued, by outcome",
		}, []string{"result"}),
		Grants: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grants_total",
			Help:      "Client grant attempts, by outcome",
		}, []string{"result"}),
		Revokes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revokes_total",
			Help:      "Client revoke attempts, by outcome",
		}, []string{"result"}),
		PrunedRules: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pruned_rules_total",
			Help:      "Passlist rules deleted by prune passes",
		}),
		Liveness: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "liveness_checks_total",
			Help:      "Connection-tracking liveness checks, by result",
		}, []string{"result"}),
		HWLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hwaddr_lookups_total",
			Help:      "Hardware address lookups, by result",
		}, []string{"result"}),
	}
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

func (m *Metrics) RuleCommand(ok bool) {
	if m == nil {
		return
	}
	m.RuleCommands.WithLabelValues(outcome(ok)).Inc()
}

func (m *Metrics) Grant(ok bool) {
	if m == nil {
		return
	}
	m.Grants.WithLabelValues(outcome(ok)).Inc()
}

func (m *Metrics) Revoke(ok bool) {
	if m == nil {
		return
	}
	m.Revokes.WithLabelValues(outcome(ok)).Inc()
}

func (m *Metrics) Pruned(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.PrunedRules.Add(float64(n))
}

func (m *Metrics) LivenessCheck(active bool) {
	if m == nil {
		return
	}
	result := "inactive"
	if active {
		result = "active"
	}
	m.Liveness.WithLabelValues(result).Inc()
}

func (m *Metrics) HWLookup(found bool) {
	if m == nil {
		return
	}
	result := "miss"
	if found {
		result = "found"
	}
	m.HWLookups.WithLabelValues(result).Inc()
}

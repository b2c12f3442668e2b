// Package metrics holds the prometheus collectors for workflow operations.
package metrics

import (
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Metrics groups the workflow collectors. Construct one per registry so tests
// can use an isolated registry.
type Metrics struct {
	Transitions *prometheus.CounterVec
	AuditWrites *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "visita",
			Name:      "transitions_total",
			Help:      "Church status transitions by source, target and outcome.",
		}, []string{"from", "to", "outcome"}),
		AuditWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "visita",
			Name:      "audit_writes_total",
			Help:      "Audit log writes by action and outcome.",
		}, []string{"action", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.Transitions, m.AuditWrites)
	}
	return m
}

// ObserveTransition counts one transition attempt.
func (m *Metrics) ObserveTransition(from, to, outcome string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(from, to, outcome).Inc()
}

// ObserveAuditWrite counts one audit write attempt.
func (m *Metrics) ObserveAuditWrite(action string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailed
	}
	m.AuditWrites.WithLabelValues(action, outcome).Inc()
}

// WriteSummary prints every non-zero counter gathered from g, one per line,
// as name{label="value",...} count.
func WriteSummary(g prometheus.Gatherer, w io.Writer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			value := m.GetCounter().GetValue()
			if value == 0 {
				continue
			}
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			fmt.Fprintf(w, "%s{%s} %g\n", mf.GetName(), strings.Join(labels, ","), value)
		}
	}
	return nil
}

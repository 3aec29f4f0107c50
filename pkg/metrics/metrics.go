package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's prometheus collectors. A nil *Metrics is valid
// and records nothing, which keeps tests free of registry wiring.
type Metrics struct {
	ContractsCreated     prometheus.Counter
	TransitionsTotal     *prometheus.CounterVec
	VerificationsTotal   *prometheus.CounterVec
	DetectorCycles       prometheus.Counter
	NotificationsEmitted prometheus.Counter
}

func New(namespace string) *Metrics {
	return &Metrics{
		ContractsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contracts_created_total",
			Help:      "The total number of contracts created",
		}),
		TransitionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "The total number of applied status transitions",
		}, []string{"target"}),
		VerificationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "The total number of code verification attempts",
		}, []string{"phase", "result"}),
		DetectorCycles: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detector_cycles_total",
			Help:      "The total number of completed change detector cycles",
		}),
		NotificationsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_emitted_total",
			Help:      "The total number of notifications handed to the notifier",
		}),
	}
}

func (m *Metrics) ContractCreated() {
	if m == nil {
		return
	}
	m.ContractsCreated.Inc()
}

func (m *Metrics) TransitionApplied(target string) {
	if m == nil {
		return
	}
	m.TransitionsTotal.WithLabelValues(target).Inc()
}

func (m *Metrics) VerificationAccepted(phase string) {
	if m == nil {
		return
	}
	m.VerificationsTotal.WithLabelValues(phase, "accepted").Inc()
}

func (m *Metrics) VerificationRejected(phase string) {
	if m == nil {
		return
	}
	m.VerificationsTotal.WithLabelValues(phase, "rejected").Inc()
}

func (m *Metrics) DetectorCycleCompleted() {
	if m == nil {
		return
	}
	m.DetectorCycles.Inc()
}

func (m *Metrics) NotificationEmitted() {
	if m == nil {
		return
	}
	m.NotificationsEmitted.Inc()
}

package metrics

import (
	"context"

	"github.com/gatherbot/gatherbot/internal/bus"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus instruments and keeps them current by
// subscribing to the domain bus.
type Metrics struct {
	eventsCreated  prometheus.Counter
	eventsExpired  prometheus.Counter
	decisionsTotal *prometheus.CounterVec
	reactionsTotal *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		eventsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gatherbot_events_created_total",
			Help: "Events created.",
		}),
		eventsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gatherbot_events_expired_total",
			Help: "Events finalized by the expiry scheduler.",
		}),
		decisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gatherbot_decisions_total",
			Help: "Participant decision changes, by decision (removed = cleared row).",
		}, []string{"decision"}),
		reactionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gatherbot_reactions_total",
			Help: "Reaction events handled by the reconciler, by outcome.",
		}, []string{"outcome"}),
	}
	prometheus.MustRegister(m.eventsCreated, m.eventsExpired, m.decisionsTotal, m.reactionsTotal)
	return m
}

// Observe wires the metrics to the domain bus.
func (m *Metrics) Observe(b *bus.Bus) {
	b.Subscribe(bus.EventCreated, func(ctx context.Context, n bus.Note) {
		m.eventsCreated.Inc()
	})
	b.Subscribe(bus.EventExpired, func(ctx context.Context, n bus.Note) {
		m.eventsExpired.Inc()
	})
	b.Subscribe(bus.DecisionChanged, func(ctx context.Context, n bus.Note) {
		change, ok := n.Data.(bus.DecisionChange)
		if !ok {
			return
		}
		decision := change.Decision
		if decision == "" {
			decision = "removed"
		}
		m.decisionsTotal.WithLabelValues(decision).Inc()
	})
}

// ReactionHandled counts one reconciler pipeline run.
func (m *Metrics) ReactionHandled(outcome string) {
	m.reactionsTotal.WithLabelValues(outcome).Inc()
}

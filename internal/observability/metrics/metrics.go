// Package metrics exposes cycle counters to Prometheus and serves the
// metrics/health HTTP endpoint.
package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"hwbot/internal/eventbus"
	"hwbot/internal/poller"
)

const namespace = "hwbot"

// Metrics owns a private registry so tests and multiple instances never
// collide on the default one.
type Metrics struct {
	reg *prometheus.Registry

	cycles        *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	notifications prometheus.Counter
	window        prometheus.Gauge
	lastSuccess   prometheus.Gauge

	mu          sync.Mutex
	started     time.Time
	lastOK      time.Time
	lastOutcome string
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		reg:     reg,
		started: time.Now(),
		cycles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_cycles_total",
			Help:      "Finished poll cycles by outcome.",
		}, []string{"outcome"}),
		cycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_cycle_duration_seconds",
			Help:      "Wall time of one poll cycle.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		notifications: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Status-change notifications delivered.",
		}),
		window: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "poll_window_timestamp_seconds",
			Help:      "Current from_date of the poll window.",
		}),
		lastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful cycle.",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Observe records one cycle.
func (m *Metrics) Observe(at time.Time, outcome poller.Outcome, ev poller.CycleEvent) {
	m.cycles.WithLabelValues(outcome.String()).Inc()
	m.cycleDuration.Observe(ev.Duration.Seconds())
	if ev.Window > 0 {
		m.window.Set(float64(ev.Window))
	}
	if outcome == poller.OutcomeNotified {
		m.notifications.Inc()
	}

	m.mu.Lock()
	m.lastOutcome = outcome.String()
	if outcome.Successful() {
		m.lastOK = at
		m.lastSuccess.Set(float64(at.Unix()))
	}
	m.mu.Unlock()
}

// Consume feeds bus events into Observe until ch closes or ctx is done.
func (m *Metrics) Consume(ctx context.Context, ch <-chan eventbus.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			ev, ok := e.Data.(poller.CycleEvent)
			if !ok {
				continue
			}
			out, ok := poller.ParseOutcome(ev.Outcome)
			if !ok {
				continue
			}
			m.Observe(e.Time, out, ev)
		}
	}
}

// Health is the /healthz payload.
type Health struct {
	Status      string    `json:"status"` // "starting" | "ok" | "stale"
	Uptime      string    `json:"uptime"`
	LastSuccess time.Time `json:"last_success,omitempty"`
	SuccessAge  string    `json:"success_age,omitempty"`
	LastOutcome string    `json:"last_outcome,omitempty"`
}

// Health reports "stale" when no cycle succeeded within staleAfter, counting
// from start until the first success.
func (m *Metrics) Health(now time.Time, staleAfter time.Duration) Health {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := Health{Uptime: now.Sub(m.started).Round(time.Second).String(), LastOutcome: m.lastOutcome}
	ref := m.lastOK
	if ref.IsZero() {
		h.Status = "starting"
		ref = m.started
	} else {
		h.Status = "ok"
		h.LastSuccess = m.lastOK
		h.SuccessAge = now.Sub(m.lastOK).Round(time.Second).String()
	}
	if staleAfter > 0 && now.Sub(ref) > staleAfter {
		h.Status = "stale"
	}
	return h
}

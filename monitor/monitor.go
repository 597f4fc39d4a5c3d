// monitor/monitor.go
package monitor

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wfunc/impostor/game"
	"github.com/wfunc/impostor/roster"
	"github.com/wfunc/impostor/state"
)

type Metrics struct {
	OnlinePlayers    prometheus.Gauge
	MessagesReceived *prometheus.CounterVec
	MessageErrors    *prometheus.CounterVec
	MessageLatency   prometheus.Histogram
	PhaseChanges     *prometheus.CounterVec
	RoundsStarted    prometheus.Counter
	CluesSubmitted   prometheus.Counter
	VotesCast        prometheus.Counter
	Eliminations     *prometheus.CounterVec
	GamesFinished    *prometheus.CounterVec
	Rejections       *prometheus.CounterVec
}

func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OnlinePlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_players",
			Help:      "Number of players in the session roster",
		}),
		MessagesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Total number of messages received",
		}, []string{"type"}),
		MessageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "message_errors_total",
			Help:      "Messages that were malformed or refused",
		}, []string{"kind"}),
		MessageLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "message_latency_seconds",
			Help:      "Message processing latency",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 10),
		}),
		PhaseChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_changes_total",
			Help:      "Session phase transitions by target phase",
		}, []string{"phase"}),
		RoundsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_started_total",
			Help:      "Clue rounds started",
		}),
		CluesSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clues_submitted_total",
			Help:      "Accepted clues",
		}),
		VotesCast: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_cast_total",
			Help:      "Accepted votes",
		}),
		Eliminations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "eliminations_total",
			Help:      "Voting outcomes by eliminated role",
		}, []string{"role"}),
		GamesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Finished games by winning side",
		}, []string{"winner"}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_rejected_total",
			Help:      "Local actions refused by the host",
		}, []string{"action"}),
	}

	reg.MustRegister(
		m.OnlinePlayers,
		m.MessagesReceived,
		m.MessageErrors,
		m.MessageLatency,
		m.PhaseChanges,
		m.RoundsStarted,
		m.CluesSubmitted,
		m.VotesCast,
		m.Eliminations,
		m.GamesFinished,
		m.Rejections,
	)

	return m
}

// Monitor 同时实现 room.Metrics 和 game.Observer。
type Monitor struct {
	game.BaseObserver

	metrics   *Metrics
	registry  *prometheus.Registry
	startTime time.Time
}

// NewMonitor registers its collectors on reg, or on a fresh registry when
// reg is nil.
func NewMonitor(namespace string, reg *prometheus.Registry) *Monitor {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Monitor{
		metrics:   NewMetrics(namespace, reg),
		registry:  reg,
		startTime: time.Now(),
	}
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "uptime_seconds",
		Help:      "Seconds since the monitor was created",
	}, func() float64 {
		return time.Since(m.startTime).Seconds()
	}))
	return m
}

func (m *Monitor) Metrics() *Metrics { return m.metrics }

// Handler serves the registry in the Prometheus text format.
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ---- room.Metrics ----

func (m *Monitor) IncMessagesReceived(msgType string) {
	m.metrics.MessagesReceived.WithLabelValues(msgType).Inc()
}

func (m *Monitor) IncMessageErrors(kind string) {
	m.metrics.MessageErrors.WithLabelValues(kind).Inc()
}

func (m *Monitor) ObserveHandleLatency(duration time.Duration) {
	m.metrics.MessageLatency.Observe(duration.Seconds())
}

func (m *Monitor) SetPlayers(n int) {
	m.metrics.OnlinePlayers.Set(float64(n))
}

// ---- game.Observer ----

func (m *Monitor) OnRoundStarted(int, string) { m.metrics.RoundsStarted.Inc() }

func (m *Monitor) OnClueSubmitted(uint64, string) { m.metrics.CluesSubmitted.Inc() }

func (m *Monitor) OnVoteCast(uint64, uint64) { m.metrics.VotesCast.Inc() }

func (m *Monitor) OnVotingEnded(eliminated uint64, wasImpostor bool) {
	label := "none"
	switch {
	case eliminated == roster.Abstain:
	case wasImpostor:
		label = "impostor"
	default:
		label = "civilian"
	}
	m.metrics.Eliminations.WithLabelValues(label).Inc()
}

func (m *Monitor) OnStateChanged(_, to state.Phase) {
	m.metrics.PhaseChanges.WithLabelValues(to.String()).Inc()
}

func (m *Monitor) OnGameEnded(impostorsWon bool, _ []uint64) {
	winner := "civilians"
	if impostorsWon {
		winner = "impostors"
	}
	m.metrics.GamesFinished.WithLabelValues(winner).Inc()
}

func (m *Monitor) OnActionRejected(action, _ string) {
	m.metrics.Rejections.WithLabelValues(action).Inc()
}

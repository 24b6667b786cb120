// Package metrics provides Prometheus metrics for the support-chat service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveSessions tracks the number of live (waiting or active) sessions.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "support_chat_active_sessions",
			Help: "Number of currently open support sessions",
		},
	)

	// SessionsOpened tracks the total number of sessions opened.
	SessionsOpened = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "support_chat_sessions_opened_total",
			Help: "Total number of support sessions opened",
		},
	)

	// SessionsClosed tracks the total number of sessions closed.
	SessionsClosed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "support_chat_sessions_closed_total",
			Help: "Total number of support sessions closed",
		},
	)

	// SessionStateTransitions tracks session state changes.
	SessionStateTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_chat_session_state_transitions_total",
			Help: "Total number of session state transitions",
		},
		[]string{"from_state", "to_state"},
	)

	// MessagesSubmitted counts pipeline submissions by sender role.
	MessagesSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_chat_messages_total",
			Help: "Total number of messages accepted by the pipeline",
		},
		[]string{"role"},
	)

	// BotReplies counts automated replies by source (rule or generated).
	BotReplies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_chat_bot_replies_total",
			Help: "Total number of automated replies",
		},
		[]string{"source"},
	)

	// BotDeferrals counts messages the bot handed to a human.
	BotDeferrals = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "support_chat_bot_deferrals_total",
			Help: "Total number of messages deferred to a human agent",
		},
	)

	// QueueDepth tracks the number of sessions waiting for an agent.
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "support_chat_queue_depth",
			Help: "Number of sessions currently waiting for an agent",
		},
	)

	// AssignmentWait observes the wait experienced before agent assignment.
	AssignmentWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "support_chat_assignment_wait_seconds",
			Help:    "Wait time experienced by sessions before agent assignment",
			Buckets: []float64{0, 30, 60, 120, 300, 600, 1200, 3600},
		},
	)

	// PersistenceFailures counts durability writes that failed. The
	// pipeline keeps going; this is the surfaced signal.
	PersistenceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_chat_persistence_failures_total",
			Help: "Total number of failed persistence writes",
		},
		[]string{"entity"},
	)

	// DeliveryFailures counts per-recipient transport send failures.
	DeliveryFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "support_chat_delivery_failures_total",
			Help: "Total number of failed websocket deliveries",
		},
	)

	// GenerationDuration tracks text-generation collaborator latency.
	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "support_chat_generation_duration_seconds",
			Help:    "Duration of text-generation collaborator calls",
			Buckets: prometheus.DefBuckets,
		},
	)

	// GenerationErrors counts text-generation failures (treated as
	// "no answer", never as a pipeline fault).
	GenerationErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "support_chat_generation_errors_total",
			Help: "Total number of text-generation collaborator failures",
		},
	)

	// ConnectedClients tracks live websocket connections by role.
	ConnectedClients = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "support_chat_connected_clients",
			Help: "Number of live websocket connections",
		},
		[]string{"role"},
	)
)

// RecordSessionOpened increments session-open metrics.
func RecordSessionOpened() {
	SessionsOpened.Inc()
	ActiveSessions.Inc()
}

// RecordSessionClosed increments session-close metrics.
func RecordSessionClosed() {
	SessionsClosed.Inc()
	ActiveSessions.Dec()
}

// RecordStateTransition records a session state change.
func RecordStateTransition(fromState, toState string) {
	SessionStateTransitions.WithLabelValues(fromState, toState).Inc()
}

// RecordAssignment records a completed agent assignment.
func RecordAssignment(waitedSeconds float64) {
	AssignmentWait.Observe(waitedSeconds)
}

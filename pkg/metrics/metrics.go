package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	BookingsTotal        prometheus.Counter
	TransitionsTotal     *prometheus.CounterVec
	TransitionConflicts  *prometheus.CounterVec
	CalendarCalls        *prometheus.CounterVec
	CalendarCallLatency  prometheus.Histogram
	ReconciledEvents     prometheus.Counter
	RemindersSent        prometheus.Counter
	OutboxEventsHandled  *prometheus.CounterVec
	OutboxProcessLatency prometheus.Histogram
}

func New(namespace string) *Metrics {
	return &Metrics{
		BookingsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Number of booking requests accepted",
		}),
		TransitionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointment_transitions_total",
			Help:      "Appointment state transitions by action",
		}, []string{"action"}),
		TransitionConflicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointment_transition_conflicts_total",
			Help:      "Transitions rejected because the row was no longer in the expected state",
		}, []string{"action"}),
		CalendarCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calendar_calls_total",
			Help:      "Calendar collaborator calls by operation and outcome",
		}, []string{"operation", "outcome"}),
		CalendarCallLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "calendar_call_duration_seconds",
			Help:      "Latency of calendar collaborator calls",
			Buckets:   prometheus.DefBuckets,
		}),
		ReconciledEvents: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calendar_events_reconciled_total",
			Help:      "Meeting links recovered by the reconciler",
		}),
		RemindersSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_reminders_sent_total",
			Help:      "Reminder emails sent for upcoming sessions",
		}),
		OutboxEventsHandled: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_total",
			Help:      "Outbox events by outcome",
		}, []string{"outcome"}),
		OutboxProcessLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "outbox_process_duration_seconds",
			Help:      "Latency of one outbox processing pass",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/mentorlink/mentor-api/internal/calendar"
	"github.com/mentorlink/mentor-api/internal/repository"
	"github.com/mentorlink/mentor-api/pkg/logger"
	"github.com/mentorlink/mentor-api/pkg/metrics"
)

type ReconcilerConfig struct {
	Interval  time.Duration
	BatchSize int
}

// Reconciler backfills calendar events for appointments that were
// confirmed while the calendar provider was unavailable.
type Reconciler struct {
	appointments repository.AppointmentRepository
	users        repository.UserRepository
	calendar     calendar.Client
	config       ReconcilerConfig
	logger       *logger.Logger
	metrics      *metrics.Metrics
}

func NewReconciler(
	appointments repository.AppointmentRepository,
	users repository.UserRepository,
	calendarClient calendar.Client,
	config ReconcilerConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Reconciler {
	if config.Interval <= 0 {
		panic("Interval must be greater than 0")
	}
	if config.BatchSize <= 0 {
		panic("BatchSize must be greater than 0")
	}

	return &Reconciler{
		appointments: appointments,
		users:        users,
		calendar:     calendarClient,
		config:       config,
		logger:       logger,
		metrics:      metrics,
	}
}

func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	r.logger.Info("Starting calendar reconciler")

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Shutting down calendar reconciler")
			return
		case <-ticker.C:
			if err := r.reconcile(ctx); err != nil {
				r.logger.Error(err, "Calendar reconciliation pass failed")
			}
		}
	}
}

func (r *Reconciler) reconcile(ctx context.Context) error {
	appointments, err := r.appointments.ListConfirmedWithoutEvent(ctx, r.config.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to list unsynced appointments: %w", err)
	}

	for _, apt := range appointments {
		mentor, err := r.users.Get(ctx, apt.MentorID)
		if err != nil {
			r.logger.Error(err, "Failed to load mentor for reconciliation", "appointment_id", apt.ID)
			continue
		}
		mentee, err := r.users.Get(ctx, apt.MenteeID)
		if err != nil {
			r.logger.Error(err, "Failed to load mentee for reconciliation", "appointment_id", apt.ID)
			continue
		}
		event, err := r.calendar.CreateEvent(ctx, &calendar.CreateEventRequest{
			Summary:   "Mentoring session",
			Attendees: []string{mentor.Email, mentee.Email},
			StartTime: apt.StartTime,
			EndTime:   apt.EndTime,
			Notes:     apt.MenteeNote,
		})
		if err != nil {
			r.logger.Error(err, "Calendar retry failed", "appointment_id", apt.ID)
			continue
		}

		if err := r.appointments.SetCalendarEvent(ctx, apt.ID, event.EventID, event.JoinLink); err != nil {
			r.logger.Error(err, "Failed to store reconciled event", "appointment_id", apt.ID)
			continue
		}

		r.metrics.ReconciledEvents.Inc()
		r.logger.Info("Reconciled calendar event", "appointment_id", apt.ID, "event_id", event.EventID)
	}

	return nil
}

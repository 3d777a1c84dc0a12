package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/mentorlink/mentor-api/internal/email"
	"github.com/mentorlink/mentor-api/internal/repository"
	"github.com/mentorlink/mentor-api/pkg/logger"
	"github.com/mentorlink/mentor-api/pkg/metrics"
)

type ReminderConfig struct {
	Interval time.Duration
	Lead     time.Duration
}

// Reminder emails both participants of a confirmed session shortly
// before it starts. Windows are tracked by a cursor: each pass scans
// from where the previous one stopped, so a delayed tick widens the
// next window instead of skipping sessions, and a session is picked
// up by exactly one pass.
type Reminder struct {
	appointments repository.AppointmentRepository
	users        repository.UserRepository
	email        email.Service
	config       ReminderConfig
	logger       *logger.Logger
	metrics      *metrics.Metrics

	windowEnd time.Time
}

func NewReminder(
	appointments repository.AppointmentRepository,
	users repository.UserRepository,
	emailSvc email.Service,
	config ReminderConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Reminder {
	if config.Interval <= 0 {
		panic("Interval must be greater than 0")
	}
	if config.Lead <= 0 {
		panic("Lead must be greater than 0")
	}

	return &Reminder{
		appointments: appointments,
		users:        users,
		email:        emailSvc,
		config:       config,
		logger:       logger,
		metrics:      metrics,
	}
}

func (r *Reminder) Start(ctx context.Context) {
	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	r.logger.Info("Starting session reminder worker")

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Shutting down session reminder worker")
			return
		case <-ticker.C:
			if err := r.remind(ctx, time.Now()); err != nil {
				r.logger.Error(err, "Reminder pass failed")
			}
		}
	}
}

func (r *Reminder) remind(ctx context.Context, now time.Time) error {
	from := r.windowEnd
	if from.IsZero() {
		from = now.Add(r.config.Lead)
	}
	to := now.Add(r.config.Lead + r.config.Interval)
	if !to.After(from) {
		return nil
	}

	appointments, err := r.appointments.ListConfirmedBetween(ctx, from, to)
	if err != nil {
		return fmt.Errorf("failed to list upcoming sessions: %w", err)
	}
	r.windowEnd = to

	for _, apt := range appointments {
		mentor, err := r.users.Get(ctx, apt.MentorID)
		if err != nil {
			r.logger.Error(err, "Failed to load mentor for reminder", "appointment_id", apt.ID)
			continue
		}
		mentee, err := r.users.Get(ctx, apt.MenteeID)
		if err != nil {
			r.logger.Error(err, "Failed to load mentee for reminder", "appointment_id", apt.ID)
			continue
		}

		joinLink := ""
		if apt.MeetingLink != nil {
			joinLink = *apt.MeetingLink
		}

		for _, addr := range []string{mentor.Email, mentee.Email} {
			if err := r.email.SendSessionReminder(ctx, addr, apt.StartTime, joinLink); err != nil {
				r.logger.Error(err, "Failed to send reminder", "appointment_id", apt.ID)
				continue
			}
			r.metrics.RemindersSent.Inc()
		}
	}

	return nil
}

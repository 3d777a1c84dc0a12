package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mentorlink/mentor-api/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	// SetRoleIfUnset assigns role only when none is set yet. Returns false
	// when the row was not updated (role already assigned or user missing).
	SetRoleIfUnset(ctx context.Context, id uuid.UUID, role model.Role) (bool, error)
	SetEmailVerified(ctx context.Context, id uuid.UUID) error
	SetMentorVerification(ctx context.Context, id uuid.UUID, verified bool, adminID uuid.UUID) error
	ListVerifiedMentors(ctx context.Context, p model.Pagination) ([]*model.MentorListing, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, apt *model.Appointment) error
	Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
	// HasOverlap reports whether the mentor already has a pending or
	// confirmed appointment intersecting [start, end).
	HasOverlap(ctx context.Context, mentorID uuid.UUID, start, end time.Time) (bool, error)
	// Confirm transitions pending → confirmed. Returns false when the row
	// was not in pending, so exactly one of two concurrent calls wins.
	Confirm(ctx context.Context, id uuid.UUID, mentorNote string) (bool, error)
	// Cancel transitions pending|confirmed → cancelled with the reason and
	// cancelling party. Returns false when the row was already terminal.
	Cancel(ctx context.Context, id uuid.UUID, reason string, by uuid.UUID, at time.Time) (bool, error)
	// CompleteWithFeedback atomically transitions confirmed → completed and
	// inserts the feedback record. Returns false when the status check
	// fails; duplicate feedback surfaces as a conflict error.
	CompleteWithFeedback(ctx context.Context, id uuid.UUID, fb *model.Feedback) (bool, error)
	SetCalendarEvent(ctx context.Context, id uuid.UUID, eventID, joinLink string) error
	// ListConfirmedWithoutEvent feeds the calendar reconciler.
	ListConfirmedWithoutEvent(ctx context.Context, limit int) ([]*model.Appointment, error)
	// ListConfirmedBetween feeds the reminder worker.
	ListConfirmedBetween(ctx context.Context, from, to time.Time) ([]*model.Appointment, error)
}

type FeedbackRepository interface {
	Get(ctx context.Context, appointmentID, reviewerID uuid.UUID) (*model.Feedback, error)
	ListForMentor(ctx context.Context, mentorID uuid.UUID, p model.Pagination) ([]*model.Feedback, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *model.OutboxEvent) error
	GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error
}

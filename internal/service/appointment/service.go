package appointment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mentorlink/mentor-api/internal/calendar"
	"github.com/mentorlink/mentor-api/internal/email"
	"github.com/mentorlink/mentor-api/internal/model"
	"github.com/mentorlink/mentor-api/internal/repository"
	apperrors "github.com/mentorlink/mentor-api/pkg/errors"
	"github.com/mentorlink/mentor-api/pkg/metrics"
)

const (
	MinSessionDuration = 15 * time.Minute
	MaxSessionDuration = 4 * time.Hour
)

// Service governs the appointment state machine. Transitions are applied
// with conditional writes so concurrent actors cannot double-apply them;
// calendar side effects are best-effort and never roll a transition back.
type Service struct {
	repo            repository.AppointmentRepository
	userRepo        repository.UserRepository
	outboxRepo      repository.OutboxRepository
	calendarClient  calendar.Client
	emailSvc        email.Service
	metrics         *metrics.Metrics
	calendarTimeout time.Duration
}

func NewService(
	repo repository.AppointmentRepository,
	userRepo repository.UserRepository,
	outboxRepo repository.OutboxRepository,
	calendarClient calendar.Client,
	emailSvc email.Service,
	m *metrics.Metrics,
	calendarTimeout time.Duration,
) *Service {
	if calendarTimeout <= 0 {
		calendarTimeout = 5 * time.Second
	}
	return &Service{
		repo:            repo,
		userRepo:        userRepo,
		outboxRepo:      outboxRepo,
		calendarClient:  calendarClient,
		emailSvc:        emailSvc,
		metrics:         m,
		calendarTimeout: calendarTimeout,
	}
}

// Book creates a pending appointment for a mentee. The target mentor must
// be a verified mentor and the requested window must not overlap any of
// the mentor's pending or confirmed sessions.
func (s *Service) Book(ctx context.Context, menteeID uuid.UUID, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	mentorID, err := uuid.Parse(req.MentorID)
	if err != nil {
		return nil, apperrors.Validation("invalid mentor id")
	}
	if mentorID == menteeID {
		return nil, apperrors.Validation("cannot book a session with yourself")
	}

	start, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		return nil, apperrors.Validation("scheduled_at must be RFC3339")
	}
	if !start.After(time.Now()) {
		return nil, apperrors.Validation("Scheduled time must be in the future")
	}

	duration := time.Duration(req.DurationMinutes) * time.Minute
	if duration < MinSessionDuration || duration > MaxSessionDuration {
		return nil, apperrors.Validation(fmt.Sprintf("session duration must be between %v and %v", MinSessionDuration, MaxSessionDuration))
	}
	end := start.Add(duration)

	mentor, err := s.userRepo.Get(ctx, mentorID)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			return nil, apperrors.NotFound("mentor")
		}
		return nil, err
	}
	if mentor.Role != model.RoleMentor || !mentor.MentorVerified {
		return nil, apperrors.Validation("mentor is not accepting bookings")
	}

	// Conflict check is the last gate before the write to minimise the
	// race window; the state-machine invariants hold regardless because
	// transitions are conditional.
	overlap, err := s.repo.HasOverlap(ctx, mentorID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to check availability: %w", err)
	}
	if overlap {
		return nil, apperrors.Conflict("Time slot is not available")
	}

	apt := &model.Appointment{
		MentorID:   mentorID,
		MenteeID:   menteeID,
		StartTime:  start,
		EndTime:    end,
		Status:     model.AppointmentStatusPending,
		MenteeNote: req.Message,
	}
	if err := s.repo.Create(ctx, apt); err != nil {
		return nil, err
	}

	s.metrics.BookingsTotal.Inc()
	s.metrics.TransitionsTotal.WithLabelValues("create").Inc()
	s.emitEvent(ctx, model.EventAppointmentCreated, apt)

	if err := s.emailSvc.SendBookingRequested(ctx, mentor.Email, s.menteeName(ctx, menteeID), apt.StartTime); err != nil {
		log.Warn().Err(err).Str("appointment_id", apt.ID.String()).Msg("failed to send booking notice")
	}

	return apt, nil
}

// Confirm transitions pending → confirmed. Only the appointment's mentor
// may confirm. Calendar event creation is attempted afterwards; failure
// leaves the confirmation in place and is reported as a soft warning.
func (s *Service) Confirm(ctx context.Context, actorID, aptID uuid.UUID, mentorNotes string) (*model.ConfirmResult, error) {
	apt, err := s.repo.Get(ctx, aptID)
	if err != nil {
		return nil, err
	}

	if apt.MentorID != actorID {
		return nil, apperrors.Authorization("only the mentor can confirm this session")
	}
	if apt.Status != model.AppointmentStatusPending {
		return nil, apperrors.Conflict("appointment is not pending")
	}

	ok, err := s.repo.Confirm(ctx, aptID, mentorNotes)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Another transition won the race.
		s.metrics.TransitionConflicts.WithLabelValues("confirm").Inc()
		return nil, apperrors.Conflict("appointment is not pending")
	}
	s.metrics.TransitionsTotal.WithLabelValues("confirm").Inc()

	result := &model.ConfirmResult{}
	event, calErr := s.createCalendarEvent(ctx, apt)
	if calErr != nil {
		log.Warn().Err(calErr).Str("appointment_id", aptID.String()).Msg("calendar event creation failed, confirmation kept")
		result.CalendarError = "confirmed, but calendar sync failed"
	} else {
		if err := s.repo.SetCalendarEvent(ctx, aptID, event.EventID, event.JoinLink); err != nil {
			log.Error().Err(err).Str("appointment_id", aptID.String()).Msg("failed to store calendar event")
		}
		result.JoinLink = event.JoinLink
	}

	updated, err := s.repo.Get(ctx, aptID)
	if err != nil {
		return nil, err
	}
	result.Appointment = updated

	s.emitEvent(ctx, model.EventAppointmentConfirmed, updated)
	s.notifyConfirmed(ctx, updated, result.JoinLink)

	return result, nil
}

// Cancel transitions pending|confirmed → cancelled. Either party may
// cancel; the reason is mandatory. Calendar event removal is best-effort.
func (s *Service) Cancel(ctx context.Context, actorID, aptID uuid.UUID, reason string) (*model.CancelResult, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.Validation("cancellation reason is required")
	}

	apt, err := s.repo.Get(ctx, aptID)
	if err != nil {
		return nil, err
	}

	if actorID != apt.MentorID && actorID != apt.MenteeID {
		return nil, apperrors.Authorization("only a session participant can cancel")
	}
	if apt.Status.Terminal() {
		return nil, apperrors.Conflict("appointment is already " + string(apt.Status))
	}

	now := time.Now()
	ok, err := s.repo.Cancel(ctx, aptID, reason, actorID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.metrics.TransitionConflicts.WithLabelValues("cancel").Inc()
		return nil, apperrors.Conflict("appointment is already " + string(apt.Status))
	}
	s.metrics.TransitionsTotal.WithLabelValues("cancel").Inc()

	result := &model.CancelResult{}
	if apt.CalendarEventID != nil {
		if err := s.deleteCalendarEvent(ctx, *apt.CalendarEventID); err != nil {
			log.Warn().Err(err).Str("appointment_id", aptID.String()).Msg("calendar event removal failed, cancellation kept")
			result.CalendarError = "cancelled, but calendar cleanup failed"
		}
	}

	updated, err := s.repo.Get(ctx, aptID)
	if err != nil {
		return nil, err
	}
	result.Appointment = updated

	s.emitEvent(ctx, model.EventAppointmentCancelled, updated)
	s.notifyCancelled(ctx, updated, actorID, reason)

	return result, nil
}

// Complete finalizes a confirmed, past session: the mentee's feedback is
// written atomically with the confirmed → completed transition.
func (s *Service) Complete(ctx context.Context, actorID, aptID uuid.UUID, req *model.SubmitFeedbackRequest) (*model.Appointment, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperrors.Validation("rating must be between 1 and 5")
	}

	apt, err := s.repo.Get(ctx, aptID)
	if err != nil {
		return nil, err
	}

	if apt.MenteeID != actorID {
		return nil, apperrors.Authorization("only the mentee can submit feedback")
	}
	if apt.Status.Terminal() {
		return nil, apperrors.Conflict("appointment is already " + string(apt.Status))
	}
	if apt.Status != model.AppointmentStatusConfirmed {
		return nil, apperrors.Validation("appointment has not been confirmed")
	}
	if time.Now().Before(apt.EndTime) {
		return nil, apperrors.Validation("session has not ended yet")
	}

	fb := &model.Feedback{
		AppointmentID: aptID,
		ReviewerID:    actorID,
		MentorID:      apt.MentorID,
		Rating:        req.Rating,
		PrivateNotes:  req.PrivateNotes,
		PublicComment: req.PublicComment,
	}

	ok, err := s.repo.CompleteWithFeedback(ctx, aptID, fb)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.metrics.TransitionConflicts.WithLabelValues("complete").Inc()
		return nil, apperrors.Conflict("appointment is no longer confirmed")
	}
	s.metrics.TransitionsTotal.WithLabelValues("complete").Inc()

	updated, err := s.repo.Get(ctx, aptID)
	if err != nil {
		return nil, err
	}

	s.emitEvent(ctx, model.EventAppointmentCompleted, updated)
	return updated, nil
}

// Get returns an appointment to one of its participants.
func (s *Service) Get(ctx context.Context, actorID, aptID uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, aptID)
	if err != nil {
		return nil, err
	}
	if actorID != apt.MentorID && actorID != apt.MenteeID {
		return nil, apperrors.Authorization("not a participant of this session")
	}
	return apt, nil
}

// ListForActor returns the actor's own appointments, on either side.
func (s *Service) ListForActor(ctx context.Context, actorID uuid.UUID, role model.Role, status model.AppointmentStatus) ([]*model.Appointment, error) {
	filters := &model.AppointmentFilters{Status: status}
	if role == model.RoleMentor {
		filters.MentorID = actorID
	} else {
		filters.MenteeID = actorID
	}
	return s.repo.List(ctx, filters)
}

func (s *Service) createCalendarEvent(ctx context.Context, apt *model.Appointment) (*calendar.Event, error) {
	attendees, err := s.participantEmails(ctx, apt)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.calendarTimeout)
	defer cancel()

	start := time.Now()
	event, err := s.calendarClient.CreateEvent(ctx, &calendar.CreateEventRequest{
		Summary:   "Mentoring session",
		Attendees: attendees,
		StartTime: apt.StartTime,
		EndTime:   apt.EndTime,
		Notes:     apt.MenteeNote,
	})
	s.metrics.CalendarCallLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.CalendarCalls.WithLabelValues("create", "error").Inc()
		return nil, err
	}
	s.metrics.CalendarCalls.WithLabelValues("create", "success").Inc()
	return event, nil
}

func (s *Service) deleteCalendarEvent(ctx context.Context, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.calendarTimeout)
	defer cancel()

	if err := s.calendarClient.DeleteEvent(ctx, eventID); err != nil {
		s.metrics.CalendarCalls.WithLabelValues("delete", "error").Inc()
		return err
	}
	s.metrics.CalendarCalls.WithLabelValues("delete", "success").Inc()
	return nil
}

func (s *Service) participantEmails(ctx context.Context, apt *model.Appointment) ([]string, error) {
	mentor, err := s.userRepo.Get(ctx, apt.MentorID)
	if err != nil {
		return nil, err
	}
	mentee, err := s.userRepo.Get(ctx, apt.MenteeID)
	if err != nil {
		return nil, err
	}
	return []string{mentor.Email, mentee.Email}, nil
}

func (s *Service) menteeName(ctx context.Context, menteeID uuid.UUID) string {
	mentee, err := s.userRepo.Get(ctx, menteeID)
	if err != nil {
		return "A mentee"
	}
	return mentee.Name
}

func (s *Service) notifyConfirmed(ctx context.Context, apt *model.Appointment, joinLink string) {
	mentee, err := s.userRepo.Get(ctx, apt.MenteeID)
	if err != nil {
		return
	}
	mentorName := "your mentor"
	if mentor, err := s.userRepo.Get(ctx, apt.MentorID); err == nil {
		mentorName = mentor.Name
	}
	if err := s.emailSvc.SendBookingConfirmed(ctx, mentee.Email, mentorName, apt.StartTime, joinLink); err != nil {
		log.Warn().Err(err).Str("appointment_id", apt.ID.String()).Msg("failed to send confirmation notice")
	}
}

func (s *Service) notifyCancelled(ctx context.Context, apt *model.Appointment, actorID uuid.UUID, reason string) {
	// Notify the party that did not cancel.
	otherID := apt.MentorID
	if actorID == apt.MentorID {
		otherID = apt.MenteeID
	}
	other, err := s.userRepo.Get(ctx, otherID)
	if err != nil {
		return
	}
	if err := s.emailSvc.SendBookingCancelled(ctx, other.Email, apt.StartTime, reason); err != nil {
		log.Warn().Err(err).Str("appointment_id", apt.ID.String()).Msg("failed to send cancellation notice")
	}
}

func (s *Service) emitEvent(ctx context.Context, eventType string, apt *model.Appointment) {
	payload, err := json.Marshal(map[string]interface{}{
		"appointment_id": apt.ID,
		"mentor_id":      apt.MentorID,
		"mentee_id":      apt.MenteeID,
		"status":         apt.Status,
		"start_time":     apt.StartTime,
	})
	if err != nil {
		return
	}
	event := &model.OutboxEvent{
		EventType: eventType,
		Payload:   payload,
	}
	if err := s.outboxRepo.Create(ctx, event); err != nil {
		log.Warn().Err(err).Str("appointment_id", apt.ID.String()).Str("event_type", eventType).Msg("failed to enqueue lifecycle event")
	}
}

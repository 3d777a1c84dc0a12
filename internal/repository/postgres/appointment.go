package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mentorlink/mentor-api/internal/model"
	apperrors "github.com/mentorlink/mentor-api/pkg/errors"
)

const appointmentColumns = `
	id, mentor_id, mentee_id, start_time, end_time, status,
	mentee_note, mentor_note, calendar_event_id, meeting_link,
	cancel_reason, cancelled_by, cancelled_at, created_at, updated_at
`

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func isExclusionViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23P01"
}

func (r *appointmentRepository) Create(ctx context.Context, apt *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, mentor_id, mentee_id, start_time, end_time, status,
			mentee_note, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	apt.ID = uuid.New()
	apt.CreatedAt = time.Now()
	apt.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		apt.ID,
		apt.MentorID,
		apt.MenteeID,
		apt.StartTime,
		apt.EndTime,
		apt.Status,
		apt.MenteeNote,
		apt.CreatedAt,
		apt.UpdatedAt,
	)
	if err != nil {
		// The exclusion constraint on (mentor_id, time range) is the
		// authoritative overlap check; the pre-insert EXISTS query only
		// narrows the error message.
		if isExclusionViolation(err) {
			return apperrors.Conflict("Time slot is not available")
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var apt model.Appointment
	err := r.db.GetContext(ctx, &apt, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("appointment")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &apt, nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filters.MentorID != uuid.Nil {
		query += fmt.Sprintf(" AND mentor_id = $%d", argCount)
		args = append(args, filters.MentorID)
		argCount++
	}
	if filters.MenteeID != uuid.Nil {
		query += fmt.Sprintf(" AND mentee_id = $%d", argCount)
		args = append(args, filters.MenteeID)
		argCount++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}
	if !filters.From.IsZero() {
		query += fmt.Sprintf(" AND start_time >= $%d", argCount)
		args = append(args, filters.From)
		argCount++
	}
	if !filters.To.IsZero() {
		query += fmt.Sprintf(" AND start_time < $%d", argCount)
		args = append(args, filters.To)
		argCount++
	}

	query += " ORDER BY start_time ASC"

	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) HasOverlap(ctx context.Context, mentorID uuid.UUID, start, end time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE mentor_id = $1
			AND status IN ('pending', 'confirmed')
			AND start_time < $3
			AND end_time > $2
		)
	`
	var hasOverlap bool
	err := r.db.GetContext(ctx, &hasOverlap, query, mentorID, start, end)
	if err != nil {
		return false, fmt.Errorf("failed to check overlap: %w", err)
	}
	return hasOverlap, nil
}

func (r *appointmentRepository) Confirm(ctx context.Context, id uuid.UUID, mentorNote string) (bool, error) {
	query := `
		UPDATE appointments
		SET status = $1, mentor_note = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`
	result, err := r.db.ExecContext(ctx, query,
		model.AppointmentStatusConfirmed,
		mentorNote,
		time.Now(),
		id,
		model.AppointmentStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("failed to confirm appointment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *appointmentRepository) Cancel(ctx context.Context, id uuid.UUID, reason string, by uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE appointments
		SET status = $1, cancel_reason = $2, cancelled_by = $3,
			cancelled_at = $4, updated_at = $4
		WHERE id = $5 AND status IN ($6, $7)
	`
	result, err := r.db.ExecContext(ctx, query,
		model.AppointmentStatusCancelled,
		reason,
		by,
		at,
		id,
		model.AppointmentStatusPending,
		model.AppointmentStatusConfirmed,
	)
	if err != nil {
		return false, fmt.Errorf("failed to cancel appointment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *appointmentRepository) CompleteWithFeedback(ctx context.Context, id uuid.UUID, fb *model.Feedback) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	updateQuery := `
		UPDATE appointments
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := tx.ExecContext(ctx, updateQuery,
		model.AppointmentStatusCompleted,
		time.Now(),
		id,
		model.AppointmentStatusConfirmed,
	)
	if err != nil {
		return false, fmt.Errorf("failed to complete appointment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return false, nil
	}

	insertQuery := `
		INSERT INTO feedback (
			id, appointment_id, reviewer_id, mentor_id, rating,
			private_notes, public_comment, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	fb.ID = uuid.New()
	fb.CreatedAt = time.Now()
	fb.UpdatedAt = time.Now()

	_, err = tx.ExecContext(ctx, insertQuery,
		fb.ID,
		fb.AppointmentID,
		fb.ReviewerID,
		fb.MentorID,
		fb.Rating,
		fb.PrivateNotes,
		fb.PublicComment,
		fb.CreatedAt,
		fb.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false, apperrors.Conflict("feedback already submitted for this session")
		}
		return false, fmt.Errorf("failed to insert feedback: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

func (r *appointmentRepository) SetCalendarEvent(ctx context.Context, id uuid.UUID, eventID, joinLink string) error {
	query := `
		UPDATE appointments
		SET calendar_event_id = $1, meeting_link = $2, updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, eventID, joinLink, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to store calendar event: %w", err)
	}
	return nil
}

func (r *appointmentRepository) ListConfirmedWithoutEvent(ctx context.Context, limit int) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE status = $1
		AND calendar_event_id IS NULL
		AND start_time > NOW()
		ORDER BY start_time ASC
		LIMIT $2
	`
	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, model.AppointmentStatusConfirmed, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list degraded appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListConfirmedBetween(ctx context.Context, from, to time.Time) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE status = $1
		AND start_time BETWEEN $2 AND $3
		ORDER BY start_time ASC
	`
	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, model.AppointmentStatusConfirmed, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming appointments: %w", err)
	}
	return appointments, nil
}

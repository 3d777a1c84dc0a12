package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mentorlink/mentor-api/internal/model"
	apperrors "github.com/mentorlink/mentor-api/pkg/errors"
)

func (r *feedbackRepository) Get(ctx context.Context, appointmentID, reviewerID uuid.UUID) (*model.Feedback, error) {
	query := `
		SELECT id, appointment_id, reviewer_id, mentor_id, rating,
			   private_notes, public_comment, created_at, updated_at
		FROM feedback
		WHERE appointment_id = $1 AND reviewer_id = $2
	`
	var fb model.Feedback
	err := r.db.GetContext(ctx, &fb, query, appointmentID, reviewerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("feedback")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}
	return &fb, nil
}

func (r *feedbackRepository) ListForMentor(ctx context.Context, mentorID uuid.UUID, p model.Pagination) ([]*model.Feedback, error) {
	if p.PageSize <= 0 {
		p.PageSize = 20
	}
	if p.Page <= 0 {
		p.Page = 1
	}

	// Only feedback with a public comment appears on mentor profiles.
	query := `
		SELECT id, appointment_id, reviewer_id, mentor_id, rating,
			   private_notes, public_comment, created_at, updated_at
		FROM feedback
		WHERE mentor_id = $1 AND public_comment != ''
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	var items []*model.Feedback
	err := r.db.SelectContext(ctx, &items, query, mentorID, p.PageSize, (p.Page-1)*p.PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list mentor feedback: %w", err)
	}
	return items, nil
}

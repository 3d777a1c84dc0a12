package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mentorlink/mentor-api/internal/model"
	apperrors "github.com/mentorlink/mentor-api/pkg/errors"
)

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (
			id, email, name, bio, password_hash, role, status,
			email_verified, mentor_verified, login_attempts,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.Bio,
		user.PasswordHash,
		user.Role,
		user.Status,
		user.EmailVerified,
		user.MentorVerified,
		user.LoginAttempts,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("email already registered")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `
		SELECT id, email, name, bio, password_hash, role, status,
			   email_verified, mentor_verified, verified_at, verified_by,
			   last_login_at, login_attempts, last_login_attempt,
			   created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var user model.User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
		SELECT id, email, name, bio, password_hash, role, status,
			   email_verified, mentor_verified, verified_at, verified_by,
			   last_login_at, login_attempts, last_login_attempt,
			   created_at, updated_at
		FROM users
		WHERE email = $1
	`
	var user model.User
	err := r.db.GetContext(ctx, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET name = $1, bio = $2, status = $3, login_attempts = $4,
			last_login_attempt = $5, last_login_at = $6, updated_at = $7
		WHERE id = $8
	`
	user.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		user.Name,
		user.Bio,
		user.Status,
		user.LoginAttempts,
		user.LastLoginAttempt,
		user.LastLoginAt,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("user")
	}
	return nil
}

func (r *userRepository) SetRoleIfUnset(ctx context.Context, id uuid.UUID, role model.Role) (bool, error) {
	query := `
		UPDATE users
		SET role = $1, updated_at = $2
		WHERE id = $3 AND role = ''
	`
	result, err := r.db.ExecContext(ctx, query, role, time.Now(), id)
	if err != nil {
		return false, fmt.Errorf("failed to set role: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *userRepository) SetEmailVerified(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE users
		SET email_verified = TRUE, updated_at = $1
		WHERE id = $2
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set email verified: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("user")
	}
	return nil
}

func (r *userRepository) SetMentorVerification(ctx context.Context, id uuid.UUID, verified bool, adminID uuid.UUID) error {
	query := `
		UPDATE users
		SET mentor_verified = $1,
			verified_at = CASE WHEN $1 THEN NOW() ELSE NULL END,
			verified_by = CASE WHEN $1 THEN $2::text ELSE NULL END,
			updated_at = NOW()
		WHERE id = $3
	`
	result, err := r.db.ExecContext(ctx, query, verified, adminID.String(), id)
	if err != nil {
		return fmt.Errorf("failed to set mentor verification: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("mentor")
	}
	return nil
}

func (r *userRepository) ListVerifiedMentors(ctx context.Context, p model.Pagination) ([]*model.MentorListing, error) {
	if p.PageSize <= 0 {
		p.PageSize = 20
	}
	if p.Page <= 0 {
		p.Page = 1
	}

	query := `
		SELECT id, name, bio, verified_at
		FROM users
		WHERE role = $1 AND mentor_verified = TRUE
		ORDER BY verified_at DESC
		LIMIT $2 OFFSET $3
	`
	var mentors []*model.MentorListing
	err := r.db.SelectContext(ctx, &mentors, query,
		model.RoleMentor, p.PageSize, (p.Page-1)*p.PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list verified mentors: %w", err)
	}
	return mentors, nil
}

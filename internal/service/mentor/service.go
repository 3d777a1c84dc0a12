package mentor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mentorlink/mentor-api/internal/model"
	"github.com/mentorlink/mentor-api/internal/repository"
	apperrors "github.com/mentorlink/mentor-api/pkg/errors"
)

// RoleCacheInvalidator drops cached role resolutions after a
// verification change.
type RoleCacheInvalidator interface {
	Invalidate(userID uuid.UUID)
}

type Service struct {
	userRepo     repository.UserRepository
	feedbackRepo repository.FeedbackRepository
	outboxRepo   repository.OutboxRepository
	resolver     RoleCacheInvalidator
}

func NewService(userRepo repository.UserRepository, feedbackRepo repository.FeedbackRepository,
	outboxRepo repository.OutboxRepository, resolver RoleCacheInvalidator) *Service {
	return &Service{
		userRepo:     userRepo,
		feedbackRepo: feedbackRepo,
		outboxRepo:   outboxRepo,
		resolver:     resolver,
	}
}

// SetVerification grants or revokes the admin-set mentor verification flag.
// Granting requires a complete profile; the request is rejected, never
// silently downgraded, when completeness fails. Revoking is always legal.
func (s *Service) SetVerification(ctx context.Context, mentorID uuid.UUID, verified bool, adminID uuid.UUID) (*model.User, error) {
	mentor, err := s.userRepo.Get(ctx, mentorID)
	if err != nil {
		return nil, err
	}

	if mentor.Role != model.RoleMentor {
		return nil, apperrors.Validation("user is not a mentor")
	}

	if verified && !mentor.ProfileComplete() {
		return nil, apperrors.Validation("mentor profile must have a name and bio before verification")
	}

	if err := s.userRepo.SetMentorVerification(ctx, mentorID, verified, adminID); err != nil {
		return nil, err
	}
	s.resolver.Invalidate(mentorID)

	s.emitEvent(ctx, mentorID, verified, adminID)

	return s.userRepo.Get(ctx, mentorID)
}

func (s *Service) emitEvent(ctx context.Context, mentorID uuid.UUID, verified bool, adminID uuid.UUID) {
	payload, err := json.Marshal(map[string]interface{}{
		"mentor_id": mentorID,
		"verified":  verified,
		"admin_id":  adminID,
	})
	if err != nil {
		return
	}
	event := &model.OutboxEvent{
		EventType: model.EventMentorVerified,
		Payload:   payload,
	}
	if err := s.outboxRepo.Create(ctx, event); err != nil {
		log.Warn().Err(err).Str("mentor_id", mentorID.String()).Msg("failed to enqueue verification event")
	}
}

// ListVerified returns the public mentor marketplace listing.
func (s *Service) ListVerified(ctx context.Context, p model.Pagination) ([]*model.MentorListing, error) {
	mentors, err := s.userRepo.ListVerifiedMentors(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to list mentors: %w", err)
	}
	return mentors, nil
}

// ListFeedback returns the public feedback shown on a mentor profile.
func (s *Service) ListFeedback(ctx context.Context, mentorID uuid.UUID, p model.Pagination) ([]*model.Feedback, error) {
	items, err := s.feedbackRepo.ListForMentor(ctx, mentorID, p)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	return items, nil
}

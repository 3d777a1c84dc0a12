package rbac

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/mentorlink/mentor-api/internal/model"
	"github.com/mentorlink/mentor-api/internal/repository"
	apperrors "github.com/mentorlink/mentor-api/pkg/errors"
)

const (
	cacheTTL     = 5 * time.Minute
	cacheCleanup = 10 * time.Minute
)

// Service resolves a principal's role and effective permission set.
// Checks fail closed: missing users, missing roles, and store errors all
// resolve to "no permission".
type Service struct {
	repo  repository.UserRepository
	cache *gocache.Cache
}

func NewService(repo repository.UserRepository) *Service {
	return &Service{
		repo:  repo,
		cache: gocache.New(cacheTTL, cacheCleanup),
	}
}

func (s *Service) lookup(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	if cached, ok := s.cache.Get(userID.String()); ok {
		return cached.(*model.User), nil
	}

	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.cache.SetDefault(userID.String(), user)
	return user, nil
}

// Invalidate drops the cached resolution for a principal. Must be called
// after any role-mutating action to avoid stale-permission windows.
func (s *Service) Invalidate(userID uuid.UUID) {
	s.cache.Delete(userID.String())
}

// ResolveRole returns the principal's role. An empty role is the valid
// mid-onboarding state, not an error; store failures other than not-found
// are surfaced distinctly so callers can tell "still onboarding" from
// "system error".
func (s *Service) ResolveRole(ctx context.Context, userID uuid.UUID) (model.Role, error) {
	user, err := s.lookup(ctx, userID)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			return "", err
		}
		return "", apperrors.Internal(fmt.Errorf("failed to resolve role: %w", err))
	}
	return user.Role, nil
}

// HasPermission reports whether the principal may perform perm. Principals
// with an unconfirmed email are restricted to the viewer set regardless of
// their selected role.
func (s *Service) HasPermission(ctx context.Context, userID uuid.UUID, perm model.Permission) bool {
	user, err := s.lookup(ctx, userID)
	if err != nil {
		return false
	}

	if !user.EmailVerified {
		return contains(model.ViewerPermissions, perm)
	}
	return contains(model.PermissionsForRole(user.Role), perm)
}

func (s *Service) HasAnyRole(ctx context.Context, userID uuid.UUID, roles ...model.Role) bool {
	user, err := s.lookup(ctx, userID)
	if err != nil {
		return false
	}
	for _, r := range roles {
		if user.Role == r {
			return true
		}
	}
	return false
}

func (s *Service) HasAllPermissions(ctx context.Context, userID uuid.UUID, perms ...model.Permission) bool {
	for _, p := range perms {
		if !s.HasPermission(ctx, userID, p) {
			return false
		}
	}
	return true
}

func (s *Service) HasAnyPermission(ctx context.Context, userID uuid.UUID, perms ...model.Permission) bool {
	for _, p := range perms {
		if s.HasPermission(ctx, userID, p) {
			return true
		}
	}
	return false
}

// IsVerifiedMentor reports whether the principal is a mentor carrying the
// admin-set verification flag. This flag is distinct from email
// confirmation; it gates public listing and bookability.
func (s *Service) IsVerifiedMentor(ctx context.Context, userID uuid.UUID) bool {
	user, err := s.lookup(ctx, userID)
	if err != nil {
		return false
	}
	return user.Role == model.RoleMentor && user.MentorVerified
}

func contains(perms []model.Permission, perm model.Permission) bool {
	for _, p := range perms {
		if p == perm {
			return true
		}
	}
	return false
}

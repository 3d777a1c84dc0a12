package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mentorlink/mentor-api/internal/email"
	"github.com/mentorlink/mentor-api/internal/model"
	"github.com/mentorlink/mentor-api/internal/repository"
	"github.com/mentorlink/mentor-api/pkg/auth"
	apperrors "github.com/mentorlink/mentor-api/pkg/errors"
	"github.com/mentorlink/mentor-api/pkg/security"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const (
	maxLoginAttempts = 5
	lockoutDuration  = 15 * time.Minute
)

// RoleCacheInvalidator drops cached role resolutions after a role-mutating
// action.
type RoleCacheInvalidator interface {
	Invalidate(userID uuid.UUID)
}

type Service struct {
	userRepo repository.UserRepository
	jwtSvc   auth.JWTService
	emailSvc email.Service
	resolver RoleCacheInvalidator
	hasher   security.PasswordHasher
	expiry   time.Duration
}

func NewService(userRepo repository.UserRepository, jwtSvc auth.JWTService,
	emailSvc email.Service, resolver RoleCacheInvalidator,
	hasher security.PasswordHasher, expiryHours int) *Service {
	return &Service{
		userRepo: userRepo,
		jwtSvc:   jwtSvc,
		emailSvc: emailSvc,
		resolver: resolver,
		hasher:   hasher,
		expiry:   time.Duration(expiryHours) * time.Hour,
	}
}

func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Validation("password does not meet requirements")
	}

	user := &model.User{
		Email:        req.Email,
		Name:         req.Name,
		Bio:          req.Bio,
		PasswordHash: hash,
		Status:       model.UserStatusActive,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	// Verification email is best-effort; the user can request another.
	token, err := s.jwtSvc.GenerateVerificationToken(user)
	if err == nil {
		if sendErr := s.emailSvc.SendVerification(ctx, user.Email, token); sendErr != nil {
			log.Warn().Err(sendErr).Str("email", user.Email).Msg("failed to send verification email")
		}
	}

	return user, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Authorization("invalid credentials")
	}

	if user.Status == model.UserStatusLocked {
		if time.Since(user.LastLoginAttempt) < lockoutDuration {
			return nil, apperrors.Authorization("account is locked, please try again later")
		}
		user.Status = model.UserStatusActive
		user.LoginAttempts = 0
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		user.LoginAttempts++
		user.LastLoginAttempt = time.Now()
		if user.LoginAttempts >= maxLoginAttempts {
			user.Status = model.UserStatusLocked
		}
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to update login attempts: %w", err)
		}
		return nil, apperrors.Authorization("invalid credentials")
	}

	user.LoginAttempts = 0
	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update login timestamp: %w", err)
	}

	return s.generateTokens(user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	claims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Authorization("invalid refresh token")
	}

	user, err := s.userRepo.Get(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.Authorization("invalid refresh token")
	}

	return s.generateTokens(user)
}

func (s *Service) ValidateToken(ctx context.Context, token string) (*model.TokenClaims, error) {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return claims, nil
}

// VerifyEmail flips the confirmation gate. Capabilities beyond the viewer
// set unlock only after this. Only the single-purpose token mailed at
// sign-up is accepted; session tokens are rejected, so holding a login
// never proves mailbox access.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	claims, err := s.jwtSvc.ValidateVerificationToken(token)
	if err != nil {
		return apperrors.Validation("invalid or expired verification token")
	}

	if err := s.userRepo.SetEmailVerified(ctx, claims.UserID); err != nil {
		return err
	}
	s.resolver.Invalidate(claims.UserID)
	return nil
}

// SelectRole is a one-time action. Re-selecting the assigned role is an
// idempotent no-op; any other role after assignment is rejected.
func (s *Service) SelectRole(ctx context.Context, userID uuid.UUID, role model.Role) error {
	if !model.ValidRole(role) {
		return apperrors.Validation(fmt.Sprintf("unknown role %q", role))
	}

	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return err
	}

	if user.HasRole() {
		if user.Role == role {
			return nil
		}
		return apperrors.Conflict("role already selected")
	}

	updated, err := s.userRepo.SetRoleIfUnset(ctx, userID, role)
	if err != nil {
		return fmt.Errorf("failed to select role: %w", err)
	}
	if !updated {
		// Lost a race with a concurrent selection.
		return apperrors.Conflict("role already selected")
	}

	s.resolver.Invalidate(userID)
	return nil
}

func (s *Service) generateTokens(user *model.User) (*model.TokenResponse, error) {
	access, err := s.jwtSvc.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := s.jwtSvc.GenerateRefreshToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &model.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.expiry.Seconds()),
	}, nil
}

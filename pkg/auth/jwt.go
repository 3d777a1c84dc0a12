package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mentorlink/mentor-api/internal/model"
)

// Token purposes. Session tokens carry no purpose claim; single-use
// tokens carry one so the session paths reject them and vice versa.
const purposeEmailVerify = "email_verify"

const verificationTokenTTL = 48 * time.Hour

type JWTService interface {
	GenerateAccessToken(user *model.User) (string, error)
	GenerateRefreshToken(user *model.User) (string, error)
	// GenerateVerificationToken issues the single-purpose token mailed
	// during sign-up. It is not accepted by the session paths.
	GenerateVerificationToken(user *model.User) (string, error)
	ValidateToken(token string) (*model.TokenClaims, error)
	ValidateRefreshToken(token string) (*model.TokenClaims, error)
	ValidateVerificationToken(token string) (*model.TokenClaims, error)
}

type JWTConfig struct {
	Secret             string
	RefreshSecret      string
	ExpiryHours        int
	RefreshExpiryHours int
}

type jwtService struct {
	cfg JWTConfig
}

func NewJWTService(cfg JWTConfig) JWTService {
	return &jwtService{cfg: cfg}
}

func (s *jwtService) GenerateAccessToken(user *model.User) (string, error) {
	return s.generate(user, s.cfg.Secret, time.Duration(s.cfg.ExpiryHours)*time.Hour, "")
}

func (s *jwtService) GenerateRefreshToken(user *model.User) (string, error) {
	return s.generate(user, s.cfg.RefreshSecret, time.Duration(s.cfg.RefreshExpiryHours)*time.Hour, "")
}

func (s *jwtService) GenerateVerificationToken(user *model.User) (string, error) {
	return s.generate(user, s.cfg.RefreshSecret, verificationTokenTTL, purposeEmailVerify)
}

func (s *jwtService) generate(user *model.User, secret string, ttl time.Duration, purpose string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"email":   user.Email,
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	}
	if purpose != "" {
		claims["purpose"] = purpose
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *jwtService) ValidateToken(token string) (*model.TokenClaims, error) {
	return s.validate(token, s.cfg.Secret, "")
}

func (s *jwtService) ValidateRefreshToken(token string) (*model.TokenClaims, error) {
	return s.validate(token, s.cfg.RefreshSecret, "")
}

func (s *jwtService) ValidateVerificationToken(token string) (*model.TokenClaims, error) {
	return s.validate(token, s.cfg.RefreshSecret, purposeEmailVerify)
}

func (s *jwtService) validate(tokenStr, secret, purpose string) (*model.TokenClaims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	tokenPurpose, _ := claims["purpose"].(string)
	if tokenPurpose != purpose {
		return nil, fmt.Errorf("token not valid for this operation")
	}

	rawID, ok := claims["user_id"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id in token: %w", err)
	}

	email, _ := claims["email"].(string)
	return &model.TokenClaims{UserID: userID, Email: email}, nil
}

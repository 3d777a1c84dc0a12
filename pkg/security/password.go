package security

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is applied when the configured cost is outside bcrypt's range.
const DefaultCost = 12

// PasswordHasher hashes credentials at rest and checks login attempts
// against the stored hash. Length and strength rules live in the request
// binding, not here.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hashedPassword, password string) error
}

type hasher struct {
	cost int
}

// NewHasher returns a bcrypt-backed hasher. Cost is clamped so a bad
// config value degrades to DefaultCost instead of failing every sign-up.
func NewHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &hasher{cost: cost}
}

func (h *hasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

func (h *hasher) Compare(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

package model

import (
	"strings"
	"time"
)

// User status constants
const (
	UserStatusActive = "active"
	UserStatusLocked = "locked"
)

// User represents a principal known to the system. Role stays empty between
// sign-up and the one-time role selection step.
type User struct {
	Base
	Email            string     `json:"email" db:"email"`
	Name             string     `json:"name" db:"name"`
	Bio              string     `json:"bio" db:"bio"`
	Password         string     `json:"password,omitempty" db:"-"`
	PasswordHash     string     `json:"-" db:"password_hash"`
	Role             Role       `json:"role" db:"role"`
	Status           string     `json:"status" db:"status"`
	EmailVerified    bool       `json:"email_verified" db:"email_verified"`
	MentorVerified   bool       `json:"mentor_verified" db:"mentor_verified"`
	VerifiedAt       *time.Time `json:"verified_at,omitempty" db:"verified_at"`
	VerifiedBy       *string    `json:"verified_by,omitempty" db:"verified_by"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	LoginAttempts    int        `json:"-" db:"login_attempts"`
	LastLoginAttempt time.Time  `json:"-" db:"last_login_attempt"`
}

// HasRole reports whether the principal has completed role selection.
func (u *User) HasRole() bool {
	return u.Role != ""
}

// ProfileComplete is the minimal completeness predicate mentor verification
// requires: a non-empty display name and bio.
func (u *User) ProfileComplete() bool {
	return strings.TrimSpace(u.Name) != "" && strings.TrimSpace(u.Bio) != ""
}

// RegisterRequest represents sign-up parameters
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Bio      string `json:"bio"`
}

// UpdateProfileRequest represents profile update parameters
type UpdateProfileRequest struct {
	Name *string `json:"name"`
	Bio  *string `json:"bio"`
}

// MentorListing is the public shape of a verified mentor.
type MentorListing struct {
	ID         string     `json:"id" db:"id"`
	Name       string     `json:"name" db:"name"`
	Bio        string     `json:"bio" db:"bio"`
	VerifiedAt *time.Time `json:"verified_at,omitempty" db:"verified_at"`
}

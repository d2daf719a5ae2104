package domain

import (
	"slices"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) Valid() bool { return r == RoleAdmin || r == RoleUser }

type User struct {
	ID            string
	Email         string // normalised, unique, immutable
	Name          string
	Picture       string
	PasswordHash  string // argon2 encoded; empty for external-identity accounts
	Role          Role
	IsApproved    bool
	ApprovedTools []Tool // only consulted for RoleUser
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

func (u User) HasTool(t Tool) bool { return slices.Contains(u.ApprovedTools, t) }

// HasPassword reports whether the account can sign in with a password.
func (u User) HasPassword() bool { return u.PasswordHash != "" }

// NormalizeEmail is the canonical form used for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AdminConfig names the bootstrap admin account. An empty Password means the
// admin can only sign in through the external identity provider.
type AdminConfig struct {
	Email    string
	Password string
}

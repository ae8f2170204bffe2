package credential

import (
	"time"

	"github.com/google/uuid"
)

// Kind tells the resolver how to interpret a raw credential.
type Kind string

const (
	KindSessionToken Kind = "session"
	KindAPIKey       Kind = "api_key"
)

// Role of an account.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// Elevated reports whether r bypasses the verification requirement.
func (r Role) Elevated() bool {
	return r == RoleAdmin || r == RoleSuperadmin
}

// Account is the owner of credentials, subscriptions and usage.
type Account struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Role     Role      `json:"role"`
	Verified bool      `json:"verified"`
}

// APIKey is a stored API key. The raw key is never stored, only its hash.
type APIKey struct {
	ID         uuid.UUID  `json:"id"`
	AccountID  uuid.UUID  `json:"account_id"`
	Name       string     `json:"name"`
	Hash       string     `json:"-"`
	Prefix     string     `json:"prefix"`
	Active     bool       `json:"active"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Expired reports whether the key has an expiry at or before now.
func (k APIKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && !now.Before(*k.ExpiresAt)
}

// Identity is a verified caller.
type Identity struct {
	AccountID    uuid.UUID `json:"account_id"`
	Role         Role      `json:"role"`
	CredentialID string    `json:"credential_id"`
	Kind         Kind      `json:"kind"`
}

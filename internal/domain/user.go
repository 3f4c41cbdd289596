package domain

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is an identity record. PasswordHash is nil for accounts created
// through an OAuth provider; such accounts cannot log in with a password.
type User struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash *string   `json:"-"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Role         Role      `json:"role" gorm:"type:varchar(16);not null;default:user"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "user" }

// Name returns the display name shown in the dashboard header.
func (u *User) Name() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Session is a server-side session row. Its ID doubles as the bearer token
// carried in the session cookie.
type Session struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"userId" gorm:"not null;index"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`

	// Fresh is set when validation extended the expiry; the caller must
	// rewrite the session cookie.
	Fresh bool `json:"-" gorm:"-"`
}

func (Session) TableName() string { return "user_session" }

// OAuthAccount links a provider identity to a local user. A given
// (provider, provider user id) pair maps to at most one local user.
type OAuthAccount struct {
	ProviderID     string    `json:"providerId" gorm:"primaryKey;size:50"`
	ProviderUserID string    `json:"providerUserId" gorm:"primaryKey;size:191"`
	UserID         string    `json:"userId" gorm:"not null;index"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (OAuthAccount) TableName() string { return "oauth_account" }

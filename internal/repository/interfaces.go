package repository

import (
	"context"
	"time"

	"github.com/lukewarren/dashboard-auth/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	// CreateWithOAuthAccount inserts the user row and its linked provider
	// account in a single transaction.
	CreateWithOAuthAccount(ctx context.Context, user *domain.User, account *domain.OAuthAccount) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error
	Delete(ctx context.Context, id string) error
}

type OAuthAccountRepository interface {
	// Link inserts the provider link, ignoring an already-linked pair.
	Link(ctx context.Context, account *domain.OAuthAccount) error
	GetByProvider(ctx context.Context, providerID, providerUserID string) (*domain.OAuthAccount, error)
}

type Repositories struct {
	User         UserRepository
	Session      SessionRepository
	OAuthAccount OAuthAccountRepository
}

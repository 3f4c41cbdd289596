package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lukewarren/dashboard-auth/internal/domain"
	"github.com/lukewarren/dashboard-auth/internal/oauth"
	"github.com/lukewarren/dashboard-auth/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService orchestrates the signup, login, logout, and OAuth-callback
// flows.
type AuthService struct {
	userRepo  repository.UserRepository
	oauthRepo repository.OAuthAccountRepository
	sessions  *SessionService
	provider  oauth.Provider
}

func NewAuthService(userRepo repository.UserRepository, oauthRepo repository.OAuthAccountRepository, sessions *SessionService, provider oauth.Provider) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		oauthRepo: oauthRepo,
		sessions:  sessions,
		provider:  provider,
	}
}

func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*domain.User, *domain.Session, error) {
	if err := input.Validate(); err != nil {
		return nil, nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}

	hash := string(hashedPassword)
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        input.Email,
		PasswordHash: &hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         domain.RoleUser,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, nil, domain.ErrEmailTaken
		}
		return nil, nil, err
	}

	session, err := s.sessions.CreateSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	return user, session, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*domain.User, *domain.Session, error) {
	if err := input.Validate(); err != nil {
		return nil, nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, domain.ErrInvalidCredentials
		}
		return nil, nil, err
	}

	// OAuth-created accounts have no password; never reach the hash
	// comparison for them.
	if user.PasswordHash == nil {
		return nil, nil, domain.ErrOAuthOnlyAccount
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, nil, domain.ErrInvalidCredentials
	}

	session, err := s.sessions.CreateSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	return user, session, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.InvalidateSession(ctx, sessionID)
}

// AuthorizationURL builds the provider redirect URL for the given state.
func (s *AuthService) AuthorizationURL(state string) string {
	return s.provider.AuthorizationURL(state)
}

// HandleOAuthCallback exchanges the authorization code, then either links
// the provider identity to the user matching its verified email or creates
// a new user with the link in a single transaction. Either way a session is
// minted for the resolved user.
func (s *AuthService) HandleOAuthCallback(ctx context.Context, code string) (*domain.User, *domain.Session, error) {
	info, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, info.Email)
	switch {
	case err == nil:
		account := &domain.OAuthAccount{
			ProviderID:     s.provider.Name(),
			ProviderUserID: info.ProviderUserID,
			UserID:         user.ID,
			CreatedAt:      time.Now(),
		}
		if err := s.oauthRepo.Link(ctx, account); err != nil {
			return nil, nil, fmt.Errorf("failed to link provider account: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = &domain.User{
			ID:        uuid.New().String(),
			Email:     info.Email,
			Role:      domain.RoleUser,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		account := &domain.OAuthAccount{
			ProviderID:     s.provider.Name(),
			ProviderUserID: info.ProviderUserID,
			UserID:         user.ID,
			CreatedAt:      time.Now(),
		}
		if err := s.userRepo.CreateWithOAuthAccount(ctx, user, account); err != nil {
			return nil, nil, fmt.Errorf("failed to create user and provider account: %w", err)
		}
	default:
		return nil, nil, err
	}

	session, err := s.sessions.CreateSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	return user, session, nil
}

// ListUsers returns all users, for the admin dashboard view.
func (s *AuthService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.userRepo.List(ctx)
}

func (s *AuthService) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

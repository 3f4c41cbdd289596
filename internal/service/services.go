package service

import (
	"github.com/lukewarren/dashboard-auth/internal/config"
	"github.com/lukewarren/dashboard-auth/internal/oauth"
	"github.com/lukewarren/dashboard-auth/internal/repository"
)

type Services struct {
	Session *SessionService
	Auth    *AuthService
}

func NewServices(repos *repository.Repositories, provider oauth.Provider, cfg *config.Config) *Services {
	sessions := NewSessionService(repos.Session, repos.User, cfg)
	return &Services{
		Session: sessions,
		Auth:    NewAuthService(repos.User, repos.OAuthAccount, sessions, provider),
	}
}

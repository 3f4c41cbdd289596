package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lukewarren/dashboard-auth/internal/config"
	"github.com/lukewarren/dashboard-auth/internal/domain"
	"github.com/lukewarren/dashboard-auth/internal/repository"
	"gorm.io/gorm"
)

// SessionCookieName is the cookie carrying the opaque session token.
const SessionCookieName = "auth_session"

// SessionService manages the session lifecycle: creation, validation with
// freshness rotation, invalidation, and cookie construction. Callers attach
// the produced cookies to their response.
type SessionService struct {
	sessionRepo repository.SessionRepository
	userRepo    repository.UserRepository
	cfg         *config.Config
}

func NewSessionService(sessionRepo repository.SessionRepository, userRepo repository.UserRepository, cfg *config.Config) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
		cfg:         cfg,
	}
}

func (s *SessionService) CreateSession(ctx context.Context, userID string) (*domain.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &domain.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: time.Now().Add(s.cfg.SessionTTL),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// ValidateSession resolves a session token to its user. A missing or
// expired session yields the nil pair and the stale row is deleted. A
// session accessed with less than half its lifetime remaining is extended
// to a full lifetime and flagged Fresh so the caller rewrites the cookie.
func (s *SessionService) ValidateSession(ctx context.Context, sessionID string) (*domain.User, *domain.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	now := time.Now()
	if !session.ExpiresAt.After(now) {
		_ = s.sessionRepo.Delete(ctx, session.ID)
		return nil, nil, nil
	}

	if session.ExpiresAt.Sub(now) < s.cfg.SessionTTL/2 {
		newExpiry := now.Add(s.cfg.SessionTTL)
		if err := s.sessionRepo.UpdateExpiry(ctx, session.ID, newExpiry); err != nil {
			return nil, nil, fmt.Errorf("failed to extend session: %w", err)
		}
		session.ExpiresAt = newExpiry
		session.Fresh = true
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = s.sessionRepo.Delete(ctx, session.ID)
			return nil, nil, nil
		}
		return nil, nil, err
	}

	return user, session, nil
}

// InvalidateSession deletes the session row. Deleting an unknown session is
// not an error.
func (s *SessionService) InvalidateSession(ctx context.Context, sessionID string) error {
	return s.sessionRepo.Delete(ctx, sessionID)
}

// SessionCookie builds the cookie for an active session. In persistent
// mode the cookie carries no Expires attribute; the server-side expiry is
// authoritative.
func (s *SessionService) SessionCookie(session *domain.Session) *http.Cookie {
	c := &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.cfg.IsProduction(),
	}
	if !s.cfg.PersistentSessions {
		c.Expires = session.ExpiresAt
	}
	return c
}

// BlankSessionCookie forces client-side deletion of the session cookie.
func (s *SessionService) BlankSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.cfg.IsProduction(),
	}
}

func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/lukewarren/dashboard-auth/internal/repository/postgres"
	"github.com/lukewarren/dashboard-auth/internal/service"
	"github.com/lukewarren/dashboard-auth/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSessionService_CreateAndValidate(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	cfg := testutil.TestConfig()
	sessions := service.NewSessionService(repos.Session, repos.User, cfg)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	session, err := sessions.CreateSession(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, session.ID, 64) // 32 random bytes, hex-encoded
	assert.WithinDuration(t, time.Now().Add(cfg.SessionTTL), session.ExpiresAt, time.Minute)

	gotUser, gotSession, err := sessions.ValidateSession(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, gotSession)
	assert.Equal(t, user.ID, gotUser.ID)
	assert.Equal(t, session.ID, gotSession.ID)
	assert.False(t, gotSession.Fresh)
}

func TestSessionService_ValidateUnknownSession(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	sessions := service.NewSessionService(repos.Session, repos.User, testutil.TestConfig())

	user, gotSession, err := sessions.ValidateSession(context.Background(), "no-such-session")
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.Nil(t, gotSession)
}

func TestSessionService_ExpiredSessionIsDeleted(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	sessions := service.NewSessionService(repos.Session, repos.User, testutil.TestConfig())
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	expired := testutil.BuildSession(t, testDB.DB, user.ID, time.Now().Add(-time.Hour))

	gotUser, gotSession, err := sessions.ValidateSession(ctx, expired.ID)
	require.NoError(t, err)
	assert.Nil(t, gotUser)
	assert.Nil(t, gotSession)

	// The stale row must no longer be retrievable.
	_, err = repos.Session.GetByID(ctx, expired.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestSessionService_RotatesNearExpiry(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	cfg := testutil.TestConfig()
	sessions := service.NewSessionService(repos.Session, repos.User, cfg)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	// Less than half the lifetime remains, so validation must rotate.
	nearExpiry := testutil.BuildSession(t, testDB.DB, user.ID, time.Now().Add(time.Hour))

	_, gotSession, err := sessions.ValidateSession(ctx, nearExpiry.ID)
	require.NoError(t, err)
	require.NotNil(t, gotSession)
	assert.True(t, gotSession.Fresh)
	assert.WithinDuration(t, time.Now().Add(cfg.SessionTTL), gotSession.ExpiresAt, time.Minute)

	// The extension is persisted.
	stored, err := repos.Session.GetByID(ctx, nearExpiry.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, gotSession.ExpiresAt, stored.ExpiresAt, time.Second)
}

func TestSessionService_InvalidateIsIdempotent(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	sessions := service.NewSessionService(repos.Session, repos.User, testutil.TestConfig())
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	session, err := sessions.CreateSession(ctx, user.ID)
	require.NoError(t, err)

	require.NoError(t, sessions.InvalidateSession(ctx, session.ID))
	require.NoError(t, sessions.InvalidateSession(ctx, session.ID))

	gotUser, gotSession, err := sessions.ValidateSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Nil(t, gotUser)
	assert.Nil(t, gotSession)
}

func TestSessionService_Cookies(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	cfg := testutil.TestConfig()
	sessions := service.NewSessionService(repos.Session, repos.User, cfg)

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	session, err := sessions.CreateSession(context.Background(), user.ID)
	require.NoError(t, err)

	cookie := sessions.SessionCookie(session)
	assert.Equal(t, service.SessionCookieName, cookie.Name)
	assert.Equal(t, session.ID, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.False(t, cookie.Secure) // test environment
	assert.True(t, cookie.Expires.IsZero(), "persistent sessions carry no Expires")

	blank := sessions.BlankSessionCookie()
	assert.Equal(t, service.SessionCookieName, blank.Name)
	assert.Empty(t, blank.Value)
	assert.Equal(t, -1, blank.MaxAge)
}

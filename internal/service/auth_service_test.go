package service_test

import (
	"context"
	"testing"

	"github.com/lukewarren/dashboard-auth/internal/domain"
	"github.com/lukewarren/dashboard-auth/internal/oauth"
	"github.com/lukewarren/dashboard-auth/internal/repository/postgres"
	"github.com/lukewarren/dashboard-auth/internal/service"
	"github.com/lukewarren/dashboard-auth/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider satisfies oauth.Provider without any HTTP traffic.
type stubProvider struct {
	info *oauth.UserInfo
	err  error
}

func (p *stubProvider) Name() string { return "github" }

func (p *stubProvider) AuthorizationURL(state string) string {
	return "https://example.com/authorize?state=" + state
}

func (p *stubProvider) ExchangeCode(ctx context.Context, code string) (*oauth.UserInfo, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.info, nil
}

func newAuthService(t *testing.T, testDB *testutil.TestDB, provider oauth.Provider) (*service.AuthService, *service.SessionService) {
	t.Helper()
	repos := postgres.NewRepositories(testDB.DB)
	sessions := service.NewSessionService(repos.Session, repos.User, testutil.TestConfig())
	return service.NewAuthService(repos.User, repos.OAuthAccount, sessions, provider), sessions
}

func TestAuthService_SignupThenLogin(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	authService, _ := newAuthService(t, testDB, &stubProvider{})
	ctx := context.Background()

	user, session, err := authService.Signup(ctx, service.SignupInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  "password123",
	})
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, domain.RoleUser, user.Role)
	require.NotNil(t, user.PasswordHash)
	assert.NotEqual(t, "password123", *user.PasswordHash)

	loggedIn, loginSession, err := authService.Login(ctx, service.LoginInput{
		Email:    "ada@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.Equal(t, user.ID, loginSession.UserID)
}

func TestAuthService_SignupDuplicateEmail(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	authService, _ := newAuthService(t, testDB, &stubProvider{})
	ctx := context.Background()

	input := service.SignupInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  "password123",
	}

	_, _, err := authService.Signup(ctx, input)
	require.NoError(t, err)

	_, _, err = authService.Signup(ctx, input)
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	var count int64
	testDB.DB.Model(&domain.User{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestAuthService_LoginEnumerationResistance(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	authService, _ := newAuthService(t, testDB, &stubProvider{})
	ctx := context.Background()

	testutil.NewUserBuilder().
		WithEmail("known@example.com").
		WithPassword("correctpassword").
		Build(t, testDB.DB)

	_, _, unknownErr := authService.Login(ctx, service.LoginInput{
		Email:    "unknown@example.com",
		Password: "anypassword",
	})
	require.Error(t, unknownErr)

	_, _, wrongErr := authService.Login(ctx, service.LoginInput{
		Email:    "known@example.com",
		Password: "wrongpassword",
	})
	require.Error(t, wrongErr)

	// Unknown email and wrong password must be indistinguishable.
	assert.ErrorIs(t, unknownErr, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, wrongErr, domain.ErrInvalidCredentials)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestAuthService_LoginOAuthOnlyAccount(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	authService, _ := newAuthService(t, testDB, &stubProvider{})
	ctx := context.Background()

	testutil.NewUserBuilder().
		WithEmail("oauth@example.com").
		OAuthOnly().
		Build(t, testDB.DB)

	_, _, err := authService.Login(ctx, service.LoginInput{
		Email:    "oauth@example.com",
		Password: "whatever123",
	})
	assert.ErrorIs(t, err, domain.ErrOAuthOnlyAccount)
}

func TestAuthService_LogoutInvalidatesSession(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	authService, sessions := newAuthService(t, testDB, &stubProvider{})
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	session, err := sessions.CreateSession(ctx, user.ID)
	require.NoError(t, err)

	require.NoError(t, authService.Logout(ctx, session.ID))

	gotUser, gotSession, err := sessions.ValidateSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Nil(t, gotUser)
	assert.Nil(t, gotSession)
}

func TestAuthService_OAuthCallbackCreatesUser(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	provider := &stubProvider{info: &oauth.UserInfo{
		ProviderUserID: "12345",
		Email:          "new@example.com",
		Login:          "newbie",
	}}
	authService, _ := newAuthService(t, testDB, provider)
	ctx := context.Background()

	user, session, err := authService.HandleOAuthCallback(ctx, "code")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Nil(t, user.PasswordHash)
	assert.Equal(t, domain.RoleUser, user.Role)

	var userCount, accountCount int64
	testDB.DB.Model(&domain.User{}).Count(&userCount)
	testDB.DB.Model(&domain.OAuthAccount{}).Count(&accountCount)
	assert.Equal(t, int64(1), userCount)
	assert.Equal(t, int64(1), accountCount)
}

func TestAuthService_OAuthCallbackLinksExistingUser(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	provider := &stubProvider{info: &oauth.UserInfo{
		ProviderUserID: "12345",
		Email:          "ada@example.com",
	}}
	authService, _ := newAuthService(t, testDB, provider)
	ctx := context.Background()

	existing, _ := testutil.NewUserBuilder().
		WithEmail("ada@example.com").
		Build(t, testDB.DB)

	// Running the callback twice must stay idempotent: one user row, one
	// linked account row.
	for i := 0; i < 2; i++ {
		user, session, err := authService.HandleOAuthCallback(ctx, "code")
		require.NoError(t, err)
		require.NotNil(t, session)
		assert.Equal(t, existing.ID, user.ID)
	}

	var userCount, accountCount int64
	testDB.DB.Model(&domain.User{}).Count(&userCount)
	testDB.DB.Model(&domain.OAuthAccount{}).Count(&accountCount)
	assert.Equal(t, int64(1), userCount)
	assert.Equal(t, int64(1), accountCount)

	account, err := postgres.NewRepositories(testDB.DB).OAuthAccount.GetByProvider(ctx, "github", "12345")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, account.UserID)
}

func TestAuthService_OAuthCallbackProviderError(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	provider := &stubProvider{err: &oauth.ProviderError{Code: "bad_verification_code"}}
	authService, _ := newAuthService(t, testDB, provider)

	_, _, err := authService.HandleOAuthCallback(context.Background(), "bad-code")
	var pErr *oauth.ProviderError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, "bad_verification_code", pErr.Code)

	var count int64
	testDB.DB.Model(&domain.User{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

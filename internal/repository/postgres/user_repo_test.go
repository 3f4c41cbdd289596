package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lukewarren/dashboard-auth/internal/domain"
	"github.com/lukewarren/dashboard-auth/internal/repository/postgres"
	"github.com/lukewarren/dashboard-auth/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserRepository_Create(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	hash := "hashedpassword"
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        "create@example.com",
		PasswordHash: &hash,
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Role:         domain.RoleUser,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	require.NoError(t, repo.Create(ctx, user))

	duplicate := &domain.User{
		ID:        uuid.New().String(),
		Email:     "create@example.com", // same as above
		Role:      domain.RoleUser,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	err := repo.Create(ctx, duplicate)
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))
}

func TestUserRepository_GetByEmail(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	created, _ := testutil.NewUserBuilder().
		WithEmail("lookup@example.com").
		Build(t, testDB.DB)

	user, err := repo.GetByEmail(ctx, "lookup@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = repo.GetByEmail(ctx, "missing@example.com")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestUserRepository_CreateWithOAuthAccount(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	user := &domain.User{
		ID:        uuid.New().String(),
		Email:     "linked@example.com",
		Role:      domain.RoleUser,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	account := &domain.OAuthAccount{
		ProviderID:     "github",
		ProviderUserID: "42",
		UserID:         user.ID,
		CreatedAt:      time.Now(),
	}
	require.NoError(t, repo.CreateWithOAuthAccount(ctx, user, account))

	// A conflicting link must roll the whole transaction back: no orphaned
	// user row without its credential.
	second := &domain.User{
		ID:        uuid.New().String(),
		Email:     "second@example.com",
		Role:      domain.RoleUser,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	conflicting := &domain.OAuthAccount{
		ProviderID:     "github",
		ProviderUserID: "42", // already linked
		UserID:         second.ID,
		CreatedAt:      time.Now(),
	}
	err := repo.CreateWithOAuthAccount(ctx, second, conflicting)
	require.Error(t, err)

	_, err = repo.GetByEmail(ctx, "second@example.com")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestOAuthAccountRepository_LinkIsIdempotent(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewOAuthAccountRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	account := &domain.OAuthAccount{
		ProviderID:     "github",
		ProviderUserID: "7",
		UserID:         user.ID,
		CreatedAt:      time.Now(),
	}
	require.NoError(t, repo.Link(ctx, account))
	require.NoError(t, repo.Link(ctx, account))

	var count int64
	testDB.DB.Model(&domain.OAuthAccount{}).Count(&count)
	assert.Equal(t, int64(1), count)

	got, err := repo.GetByProvider(ctx, "github", "7")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.UserID)
}

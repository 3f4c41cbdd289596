package postgres

import (
	"context"

	"github.com/lukewarren/dashboard-auth/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type oauthAccountRepository struct {
	db *gorm.DB
}

func NewOAuthAccountRepository(db *gorm.DB) *oauthAccountRepository {
	return &oauthAccountRepository{db: db}
}

func (r *oauthAccountRepository) Link(ctx context.Context, account *domain.OAuthAccount) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider_id"}, {Name: "provider_user_id"}},
		DoNothing: true,
	}).Create(account).Error
}

func (r *oauthAccountRepository) GetByProvider(ctx context.Context, providerID, providerUserID string) (*domain.OAuthAccount, error) {
	var account domain.OAuthAccount
	err := r.db.WithContext(ctx).
		First(&account, "provider_id = ? AND provider_user_id = ?", providerID, providerUserID).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

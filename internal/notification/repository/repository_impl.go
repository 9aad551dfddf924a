package repository

import (
	"context"

	"github.com/smallbiznis/cloudstage/internal/notification/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) ListTokens(ctx context.Context, db *gorm.DB, userIDs []string) ([]domain.DeviceToken, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var tokens []domain.DeviceToken
	err := db.WithContext(ctx).Raw(
		`SELECT user_id, token, updated_at FROM device_tokens WHERE user_id IN ? AND token <> ''`,
		userIDs,
	).Scan(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

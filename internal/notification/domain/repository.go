package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	ListTokens(ctx context.Context, db *gorm.DB, userIDs []string) ([]DeviceToken, error)
}

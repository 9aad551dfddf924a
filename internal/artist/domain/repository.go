package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id string) (*Artist, error)
	// MarkPremium flips the premium flag and keeps the first payment id and
	// timestamp on repeat calls. It reports false when the artist is unknown.
	MarkPremium(ctx context.Context, db *gorm.DB, id, paymentID string, at time.Time) (bool, error)
	ListFollowerIDs(ctx context.Context, db *gorm.DB, artistID string) ([]string, error)
}

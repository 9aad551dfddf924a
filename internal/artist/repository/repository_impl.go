package repository

import (
	"context"
	"time"

	"github.com/smallbiznis/cloudstage/internal/artist/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id string) (*domain.Artist, error) {
	var artist domain.Artist
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, email, is_premium, premium_payment_id, premium_since, created_at, updated_at
		 FROM artists WHERE id = ?`,
		id,
	).Scan(&artist).Error
	if err != nil {
		return nil, err
	}
	if artist.ID == "" {
		return nil, nil
	}
	return &artist, nil
}

func (r *repo) MarkPremium(ctx context.Context, db *gorm.DB, id, paymentID string, at time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE artists
		 SET is_premium = ?,
		     premium_payment_id = COALESCE(premium_payment_id, ?),
		     premium_since = COALESCE(premium_since, ?),
		     updated_at = ?
		 WHERE id = ?`,
		true,
		paymentID,
		at,
		at,
		id,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) ListFollowerIDs(ctx context.Context, db *gorm.DB, artistID string) ([]string, error) {
	var userIDs []string
	err := db.WithContext(ctx).
		Table("artist_followers").
		Where("artist_id = ?", artistID).
		Order("created_at ASC, user_id ASC").
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, err
	}
	return userIDs, nil
}

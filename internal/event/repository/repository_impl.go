package repository

import (
	"context"

	"github.com/smallbiznis/cloudstage/internal/event/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id string) (*domain.Event, error) {
	var event domain.Event
	err := db.WithContext(ctx).Raw(
		`SELECT id, artist_id, title, description, stream_url, price, currency, starts_at,
		        moderation_status, boost_status, rejection_reason, approved_at, created_at, updated_at
		 FROM events WHERE id = ?`,
		id,
	).Scan(&event).Error
	if err != nil {
		return nil, err
	}
	if event.ID == "" {
		return nil, nil
	}
	return &event, nil
}

func (r *repo) UpdateModeration(ctx context.Context, db *gorm.DB, id string, update domain.ModerationUpdate) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE events
		 SET moderation_status = ?,
		     rejection_reason = ?,
		     approved_at = COALESCE(?, approved_at),
		     updated_at = ?
		 WHERE id = ? AND moderation_status = ?`,
		update.To,
		update.Reason,
		update.ApprovedAt,
		update.UpdatedAt,
		id,
		update.From,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

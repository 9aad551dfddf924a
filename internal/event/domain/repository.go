package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type ModerationUpdate struct {
	From   ModerationStatus
	To     ModerationStatus
	Reason *string
	// ApprovedAt is written only when set.
	ApprovedAt *time.Time
	UpdatedAt  time.Time
}

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id string) (*Event, error)
	// UpdateModeration applies the update only while the event is still in
	// the From state and reports whether a row changed.
	UpdateModeration(ctx context.Context, db *gorm.DB, id string, update ModerationUpdate) (bool, error)
}

package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *Entry) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Entry, error)
	List(ctx context.Context, db *gorm.DB, status Status, limit int) ([]Entry, error)
	MarkResolved(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error
	RecordFailure(ctx context.Context, db *gorm.DB, id snowflake.ID, lastError string, at time.Time) error
}

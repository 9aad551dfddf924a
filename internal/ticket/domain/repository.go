package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByUserEvent(ctx context.Context, db *gorm.DB, userID, eventID string) (*Ticket, error)
	// Insert reports false without error when a ticket for the same
	// (user, event) pair already exists.
	Insert(ctx context.Context, db *gorm.DB, ticket *Ticket) (bool, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Ticket, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID string) ([]Ticket, error)
}

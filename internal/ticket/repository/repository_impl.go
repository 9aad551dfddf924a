package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cloudstage/internal/ticket/domain"
	"github.com/smallbiznis/cloudstage/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const ticketColumns = `id, user_id, event_id, buyer_name, buyer_email, buyer_phone, price_paid, payment_id, is_test, created_at`

func (r *repo) FindByUserEvent(ctx context.Context, conn *gorm.DB, userID, eventID string) (*domain.Ticket, error) {
	var ticket domain.Ticket
	err := conn.WithContext(ctx).Raw(
		`SELECT `+ticketColumns+` FROM tickets WHERE user_id = ? AND event_id = ? LIMIT 1`,
		userID,
		eventID,
	).Scan(&ticket).Error
	if err != nil {
		return nil, err
	}
	if ticket.ID == 0 {
		return nil, nil
	}
	return &ticket, nil
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, ticket *domain.Ticket) (bool, error) {
	result := conn.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "event_id"}},
			DoNothing: true,
		}).
		Create(ticket)
	if result.Error != nil {
		if db.IsDuplicateKeyErr(result.Error) {
			return false, nil
		}
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Ticket, error) {
	var ticket domain.Ticket
	err := conn.WithContext(ctx).Raw(
		`SELECT `+ticketColumns+` FROM tickets WHERE id = ?`,
		id,
	).Scan(&ticket).Error
	if err != nil {
		return nil, err
	}
	if ticket.ID == 0 {
		return nil, nil
	}
	return &ticket, nil
}

func (r *repo) ListByUser(ctx context.Context, conn *gorm.DB, userID string) ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	err := conn.WithContext(ctx).Raw(
		`SELECT `+ticketColumns+` FROM tickets WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	).Scan(&tickets).Error
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

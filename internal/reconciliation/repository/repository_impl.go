package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cloudstage/internal/reconciliation/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const entryColumns = `id, provider, payment_id, reason, request, payload, status, attempts, last_error, created_at, updated_at, resolved_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.Entry) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payment_reconciliations (id, provider, payment_id, reason, request, payload, status, attempts, last_error, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Provider,
		entry.PaymentID,
		entry.Reason,
		entry.Request,
		entry.Payload,
		entry.Status,
		entry.Attempts,
		entry.LastError,
		entry.CreatedAt,
		entry.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Entry, error) {
	var entry domain.Entry
	err := db.WithContext(ctx).Raw(
		`SELECT `+entryColumns+` FROM payment_reconciliations WHERE id = ?`,
		id,
	).Scan(&entry).Error
	if err != nil {
		return nil, err
	}
	if entry.ID == 0 {
		return nil, nil
	}
	return &entry, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, status domain.Status, limit int) ([]domain.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM payment_reconciliations`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at ASC, id ASC LIMIT ?`
	args = append(args, limit)

	var entries []domain.Entry
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repo) MarkResolved(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payment_reconciliations
		 SET status = ?, attempts = attempts + 1, last_error = NULL, resolved_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		domain.StatusResolved,
		at,
		at,
		id,
		domain.StatusPending,
	).Error
}

func (r *repo) RecordFailure(ctx context.Context, db *gorm.DB, id snowflake.ID, lastError string, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payment_reconciliations
		 SET attempts = attempts + 1, last_error = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		lastError,
		at,
		id,
		domain.StatusPending,
	).Error
}

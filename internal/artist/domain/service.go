package domain

import (
	"context"
	"errors"
)

type Service interface {
	Get(ctx context.Context, id string) (Artist, error)
	SetPremium(ctx context.Context, artistID, paymentID string) error
	ListFollowerIDs(ctx context.Context, artistID string) ([]string, error)
}

var (
	ErrInvalidID      = errors.New("invalid_artist_id")
	ErrInvalidPayment = errors.New("invalid_payment")
	ErrNotFound       = errors.New("artist_not_found")
	ErrStoreWrite     = errors.New("artist_store_write_failed")
)

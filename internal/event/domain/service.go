package domain

import (
	"context"
	"errors"
)

type Service interface {
	Get(ctx context.Context, id string) (Event, error)
	Approve(ctx context.Context, id string) (Event, error)
	Reject(ctx context.Context, id, reason string) (Event, error)
}

var (
	ErrInvalidID         = errors.New("invalid_event_id")
	ErrInvalidReason     = errors.New("invalid_rejection_reason")
	ErrInvalidTransition = errors.New("invalid_moderation_transition")
	ErrNotFound          = errors.New("event_not_found")
)

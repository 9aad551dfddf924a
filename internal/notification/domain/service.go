package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	NotifyFollowers(ctx context.Context, eventID string) (Result, error)
}

// Locker guards a fan-out so one event is never pushed twice concurrently.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}

var (
	ErrInvalidEvent     = errors.New("invalid_event_id")
	ErrEventNotApproved = errors.New("event_not_approved")
	ErrFanoutInProgress = errors.New("notification_in_progress")
	ErrPushFailed       = errors.New("push_request_failed")
)

package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/cloudstage/internal/payment/fulfillment"
)

type RecordRequest struct {
	Provider string
	Reason   string
	Err      error
	Request  fulfillment.Request
	Payload  []byte
}

type ReplaySummary struct {
	Resolved int `json:"resolved"`
	Failed   int `json:"failed"`
}

// Fulfiller re-runs a stored fulfillment request.
type Fulfiller interface {
	Dispatch(ctx context.Context, req fulfillment.Request) (fulfillment.Outcome, error)
}

type Service interface {
	Record(ctx context.Context, req RecordRequest) (Entry, error)
	List(ctx context.Context, status string) ([]Entry, error)
	Replay(ctx context.Context, id string) (Entry, error)
	ReplayPending(ctx context.Context) (ReplaySummary, error)
}

var (
	ErrInvalidID      = errors.New("invalid_reconciliation_id")
	ErrInvalidStatus  = errors.New("invalid_reconciliation_status")
	ErrInvalidRequest = errors.New("invalid_reconciliation_request")
	ErrNotFound       = errors.New("reconciliation_not_found")
	ErrReplayFailed   = errors.New("reconciliation_replay_failed")
)

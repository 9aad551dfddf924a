package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cloudstage/internal/clock"
	"github.com/smallbiznis/cloudstage/internal/observability/metrics"
	"github.com/smallbiznis/cloudstage/internal/payment/fulfillment"
	"github.com/smallbiznis/cloudstage/internal/reconciliation/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const listLimit = 200

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	Fulfiller domain.Fulfiller
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	fulfiller domain.Fulfiller
	metrics   *metrics.Metrics
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("reconciliation.service"),
		genID:     p.GenID,
		clock:     clk,
		repo:      p.Repo,
		fulfiller: p.Fulfiller,
		metrics:   p.Metrics,
	}
}

func (s *Service) Record(ctx context.Context, req domain.RecordRequest) (domain.Entry, error) {
	request, err := json.Marshal(req.Request)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "fulfillment_failed"
	}

	now := s.clock.Now().UTC()
	entry := domain.Entry{
		ID:        s.genID.Generate(),
		Provider:  strings.TrimSpace(req.Provider),
		PaymentID: strings.TrimSpace(req.Request.PaymentID),
		Reason:    reason,
		Request:   datatypes.JSON(request),
		Payload:   payloadJSON(req.Payload),
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Err != nil {
		msg := req.Err.Error()
		entry.LastError = &msg
	}

	if err := s.repo.Insert(ctx, s.db, &entry); err != nil {
		return domain.Entry{}, err
	}

	s.metrics.RecordReconciliation(ctx, entry.Provider, string(domain.StatusPending))
	return entry, nil
}

func (s *Service) List(ctx context.Context, status string) ([]domain.Entry, error) {
	filter, err := parseStatus(status)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.List(ctx, s.db, filter, listLimit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.Entry{}
	}
	return entries, nil
}

// Replay dispatches the stored request again. Resolved entries are
// returned unchanged. A failed replay keeps the entry pending.
func (s *Service) Replay(ctx context.Context, id string) (domain.Entry, error) {
	entryID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || entryID == 0 {
		return domain.Entry{}, domain.ErrInvalidID
	}

	entry, err := s.repo.FindByID(ctx, s.db, entryID)
	if err != nil {
		return domain.Entry{}, err
	}
	if entry == nil {
		return domain.Entry{}, domain.ErrNotFound
	}
	return s.replay(ctx, *entry)
}

func (s *Service) ReplayPending(ctx context.Context) (domain.ReplaySummary, error) {
	entries, err := s.repo.List(ctx, s.db, domain.StatusPending, listLimit)
	if err != nil {
		return domain.ReplaySummary{}, err
	}

	var summary domain.ReplaySummary
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if _, err := s.replay(ctx, entry); err != nil {
			if !errors.Is(err, domain.ErrReplayFailed) {
				return summary, err
			}
			summary.Failed++
			continue
		}
		summary.Resolved++
	}
	return summary, nil
}

func (s *Service) replay(ctx context.Context, entry domain.Entry) (domain.Entry, error) {
	if entry.Status == domain.StatusResolved {
		return entry, nil
	}

	var req fulfillment.Request
	if err := json.Unmarshal(entry.Request, &req); err != nil {
		return entry, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}

	log := s.log.With(
		zap.String("reconciliation_id", entry.ID.String()),
		zap.String("provider", entry.Provider),
		zap.String("payment_id", entry.PaymentID),
	)

	now := s.clock.Now().UTC()
	outcome, dispatchErr := s.fulfiller.Dispatch(ctx, req)
	if dispatchErr != nil {
		if err := s.repo.RecordFailure(ctx, s.db, entry.ID, dispatchErr.Error(), now); err != nil {
			return entry, err
		}
		log.Warn("reconciliation replay failed", zap.Int("attempts", entry.Attempts+1), zap.Error(dispatchErr))

		msg := dispatchErr.Error()
		entry.Attempts++
		entry.LastError = &msg
		entry.UpdatedAt = now
		return entry, fmt.Errorf("%w: %w", domain.ErrReplayFailed, dispatchErr)
	}

	if err := s.repo.MarkResolved(ctx, s.db, entry.ID, now); err != nil {
		return entry, err
	}
	s.metrics.RecordReconciliation(ctx, entry.Provider, string(domain.StatusResolved))
	log.Info("reconciliation resolved", zap.String("outcome", string(outcome)))

	entry.Status = domain.StatusResolved
	entry.Attempts++
	entry.LastError = nil
	entry.UpdatedAt = now
	entry.ResolvedAt = &now
	return entry, nil
}

func parseStatus(raw string) (domain.Status, error) {
	switch status := domain.Status(strings.ToLower(strings.TrimSpace(raw))); status {
	case "", domain.StatusPending, domain.StatusResolved:
		return status, nil
	default:
		return "", domain.ErrInvalidStatus
	}
}

// payloadJSON keeps the raw body as-is when it is JSON and stores it as a
// JSON string otherwise.
func payloadJSON(raw []byte) datatypes.JSON {
	if len(raw) == 0 {
		return nil
	}
	if json.Valid(raw) {
		return datatypes.JSON(raw)
	}
	quoted, _ := json.Marshal(string(raw))
	return datatypes.JSON(quoted)
}

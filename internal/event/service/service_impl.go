package service

import (
	"context"
	"strings"

	"github.com/smallbiznis/cloudstage/internal/clock"
	"github.com/smallbiznis/cloudstage/internal/event/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("event.service"),
		clock: clk,
		repo:  p.Repo,
	}
}

func (s *Service) Get(ctx context.Context, id string) (domain.Event, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Event{}, domain.ErrInvalidID
	}
	event, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Event{}, err
	}
	if event == nil {
		return domain.Event{}, domain.ErrNotFound
	}
	return *event, nil
}

func (s *Service) Approve(ctx context.Context, id string) (domain.Event, error) {
	now := s.clock.Now().UTC()
	return s.transition(ctx, id, domain.ModerationApproved, func(update *domain.ModerationUpdate) {
		update.ApprovedAt = &now
	})
}

func (s *Service) Reject(ctx context.Context, id, reason string) (domain.Event, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return domain.Event{}, domain.ErrInvalidReason
	}
	return s.transition(ctx, id, domain.ModerationRejected, func(update *domain.ModerationUpdate) {
		update.Reason = &reason
	})
}

func (s *Service) transition(ctx context.Context, id string, to domain.ModerationStatus, apply func(*domain.ModerationUpdate)) (domain.Event, error) {
	event, err := s.Get(ctx, id)
	if err != nil {
		return domain.Event{}, err
	}
	if !domain.CanTransition(event.ModerationStatus, to) {
		return domain.Event{}, domain.ErrInvalidTransition
	}

	update := domain.ModerationUpdate{
		From:      event.ModerationStatus,
		To:        to,
		UpdatedAt: s.clock.Now().UTC(),
	}
	apply(&update)

	changed, err := s.repo.UpdateModeration(ctx, s.db, event.ID, update)
	if err != nil {
		return domain.Event{}, err
	}
	if !changed {
		// Another moderator moved the event first.
		return domain.Event{}, domain.ErrInvalidTransition
	}

	s.log.Info("event moderation updated",
		zap.String("event_id", event.ID),
		zap.String("from", string(update.From)),
		zap.String("to", string(update.To)),
	)
	return s.Get(ctx, event.ID)
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	artistdomain "github.com/smallbiznis/cloudstage/internal/artist/domain"
	eventdomain "github.com/smallbiznis/cloudstage/internal/event/domain"
	"github.com/smallbiznis/cloudstage/internal/notification/domain"
	"github.com/smallbiznis/cloudstage/internal/observability/metrics"
	"github.com/smallbiznis/cloudstage/internal/providers/push"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	lockKeyFormat = "notify:event:%s"
	lockTTL       = 2 * time.Minute
	pushEventType = "event_live"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Repo    domain.Repository
	Events  eventdomain.Service
	Artists artistdomain.Service
	Push    push.Provider
	Locker  domain.Locker    `optional:"true"`
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    domain.Repository
	events  eventdomain.Service
	artists artistdomain.Service
	push    push.Provider
	locker  domain.Locker
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("notification.service"),
		repo:    p.Repo,
		events:  p.Events,
		artists: p.Artists,
		push:    p.Push,
		locker:  p.Locker,
		metrics: p.Metrics,
	}
}

// NotifyFollowers sends one multicast to every follower of the event's
// artist that has a device token. Followers without a token are skipped.
func (s *Service) NotifyFollowers(ctx context.Context, eventID string) (domain.Result, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return domain.Result{}, domain.ErrInvalidEvent
	}

	event, err := s.events.Get(ctx, eventID)
	if err != nil {
		return domain.Result{}, err
	}
	if event.ModerationStatus != eventdomain.ModerationApproved {
		return domain.Result{}, domain.ErrEventNotApproved
	}

	release, err := s.lock(ctx, eventID)
	if err != nil {
		return domain.Result{}, err
	}
	defer release()

	artist, err := s.artists.Get(ctx, event.ArtistID)
	if err != nil {
		return domain.Result{}, err
	}
	followers, err := s.artists.ListFollowerIDs(ctx, event.ArtistID)
	if err != nil {
		return domain.Result{}, err
	}

	result := domain.Result{EventID: eventID, Followers: len(followers)}
	if len(followers) == 0 {
		return result, nil
	}

	stored, err := s.repo.ListTokens(ctx, s.db, followers)
	if err != nil {
		return domain.Result{}, err
	}
	tokens := uniqueTokens(stored)
	result.Tokens = len(tokens)
	if len(tokens) == 0 {
		s.log.Info("no device tokens for followers", zap.String("event_id", eventID), zap.Int("followers", len(followers)))
		return result, nil
	}

	sent, err := s.push.SendMulticast(ctx, push.Message{
		Title:  fmt.Sprintf("%s is going live", artist.Name),
		Body:   event.Title,
		Tokens: tokens,
		Data: map[string]string{
			"eventId": eventID,
			"link":    EventLink(event),
		},
	})
	if err != nil {
		s.log.Error("push request failed", zap.String("event_id", eventID), zap.Int("tokens", len(tokens)), zap.Error(err))
		return result, fmt.Errorf("%w: %w", domain.ErrPushFailed, err)
	}

	result.SuccessCount = sent.SuccessCount
	result.FailureCount = sent.FailureCount
	s.metrics.RecordPush(ctx, pushEventType, sent.SuccessCount, sent.FailureCount)
	s.log.Info("followers notified",
		zap.String("event_id", eventID),
		zap.Int("tokens", len(tokens)),
		zap.Int("success", sent.SuccessCount),
		zap.Int("failure", sent.FailureCount),
	)
	return result, nil
}

func (s *Service) lock(ctx context.Context, eventID string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}

	key := fmt.Sprintf(lockKeyFormat, eventID)
	token, ok, err := s.locker.TryLock(ctx, key, lockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrFanoutInProgress
	}
	return func() {
		// A cancelled request must still free the lock.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.locker.Release(releaseCtx, key, token); err != nil {
			s.log.Warn("release notification lock", zap.String("event_id", eventID), zap.Error(err))
		}
	}, nil
}

// EventLink is the in-app deep link for an event.
func EventLink(event eventdomain.Event) string {
	name := slug.Make(event.Title)
	if name == "" {
		return "/events/" + event.ID
	}
	return "/events/" + name + "-" + event.ID
}

func uniqueTokens(stored []domain.DeviceToken) []string {
	seen := make(map[string]struct{}, len(stored))
	tokens := make([]string, 0, len(stored))
	for _, t := range stored {
		token := strings.TrimSpace(t.Token)
		if token == "" {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		tokens = append(tokens, token)
	}
	return tokens
}

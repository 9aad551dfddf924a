package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallbiznis/cloudstage/internal/artist/domain"
	"github.com/smallbiznis/cloudstage/internal/clock"
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
		log:   p.Log.Named("artist.service"),
		clock: clk,
		repo:  p.Repo,
	}
}

func (s *Service) Get(ctx context.Context, id string) (domain.Artist, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Artist{}, domain.ErrInvalidID
	}
	artist, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Artist{}, err
	}
	if artist == nil {
		return domain.Artist{}, domain.ErrNotFound
	}
	return *artist, nil
}

// SetPremium is safe to call repeatedly for the same payment.
func (s *Service) SetPremium(ctx context.Context, artistID, paymentID string) error {
	artistID = strings.TrimSpace(artistID)
	if artistID == "" {
		return domain.ErrInvalidID
	}
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return domain.ErrInvalidPayment
	}

	found, err := s.repo.MarkPremium(ctx, s.db, artistID, paymentID, s.clock.Now().UTC())
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreWrite, err)
	}
	if !found {
		return domain.ErrNotFound
	}

	s.log.Info("artist upgraded to premium",
		zap.String("artist_id", artistID),
		zap.String("payment_id", paymentID),
	)
	return nil
}

func (s *Service) ListFollowerIDs(ctx context.Context, artistID string) ([]string, error) {
	artistID = strings.TrimSpace(artistID)
	if artistID == "" {
		return nil, domain.ErrInvalidID
	}
	return s.repo.ListFollowerIDs(ctx, s.db, artistID)
}

package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cloudstage/internal/clock"
	"github.com/smallbiznis/cloudstage/internal/observability/metrics"
	"github.com/smallbiznis/cloudstage/internal/ticket/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("ticket.service"),
		genID:   p.GenID,
		clock:   clk,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *Service) CreateTicket(ctx context.Context, req domain.CreateTicketRequest) (domain.Ticket, bool, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return domain.Ticket{}, false, domain.ErrInvalidUser
	}
	eventID := strings.TrimSpace(req.EventID)
	if eventID == "" {
		return domain.Ticket{}, false, domain.ErrInvalidEvent
	}
	paymentID := strings.TrimSpace(req.PaymentID)
	if paymentID == "" {
		return domain.Ticket{}, false, domain.ErrInvalidPayment
	}

	existing, err := s.repo.FindByUserEvent(ctx, s.db, userID, eventID)
	if err != nil {
		return domain.Ticket{}, false, fmt.Errorf("%w: find ticket: %v", domain.ErrStoreWrite, err)
	}
	if existing != nil {
		s.log.Info("ticket already issued",
			zap.String("ticket_id", existing.ID.String()),
			zap.String("event_id", eventID),
			zap.String("payment_id", paymentID),
		)
		s.metrics.RecordTicketIssued(ctx, source(req.IsTest), false)
		return *existing, false, nil
	}

	ticket := domain.Ticket{
		ID:         s.genID.Generate(),
		UserID:     userID,
		EventID:    eventID,
		BuyerName:  strings.TrimSpace(req.Buyer.Name),
		BuyerEmail: strings.TrimSpace(req.Buyer.Email),
		BuyerPhone: strings.TrimSpace(req.Buyer.Phone),
		PricePaid:  req.PricePaid,
		PaymentID:  paymentID,
		IsTest:     req.IsTest,
		CreatedAt:  s.clock.Now().UTC(),
	}

	inserted, err := s.repo.Insert(ctx, s.db, &ticket)
	if err != nil {
		return domain.Ticket{}, false, fmt.Errorf("%w: insert ticket: %v", domain.ErrStoreWrite, err)
	}
	if !inserted {
		// A concurrent delivery for the same pair won the insert.
		winner, err := s.repo.FindByUserEvent(ctx, s.db, userID, eventID)
		if err != nil {
			return domain.Ticket{}, false, fmt.Errorf("%w: reload ticket: %v", domain.ErrStoreWrite, err)
		}
		if winner == nil {
			return domain.Ticket{}, false, fmt.Errorf("%w: ticket conflict without existing row", domain.ErrStoreWrite)
		}
		s.metrics.RecordTicketIssued(ctx, source(req.IsTest), false)
		return *winner, false, nil
	}

	s.log.Info("ticket issued",
		zap.String("ticket_id", ticket.ID.String()),
		zap.String("event_id", eventID),
		zap.String("payment_id", paymentID),
		zap.Bool("is_test", ticket.IsTest),
	)
	s.metrics.RecordTicketIssued(ctx, source(req.IsTest), true)
	return ticket, true, nil
}

func (s *Service) GetTicket(ctx context.Context, id string) (domain.Ticket, error) {
	ticketID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || ticketID <= 0 {
		return domain.Ticket{}, domain.ErrInvalidID
	}

	ticket, err := s.repo.FindByID(ctx, s.db, ticketID)
	if err != nil {
		return domain.Ticket{}, err
	}
	if ticket == nil {
		return domain.Ticket{}, domain.ErrNotFound
	}
	return *ticket, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]domain.Ticket, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.ErrInvalidUser
	}
	return s.repo.ListByUser(ctx, s.db, userID)
}

func source(isTest bool) string {
	if isTest {
		return "test"
	}
	return "webhook"
}

package fulfillment

import (
	"context"
	"fmt"
	"strings"

	artistdomain "github.com/smallbiznis/cloudstage/internal/artist/domain"
	"github.com/smallbiznis/cloudstage/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/cloudstage/internal/payment/domain"
	ticketdomain "github.com/smallbiznis/cloudstage/internal/ticket/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Outcome string

const (
	OutcomeTicketIssued   Outcome = "ticket_issued"
	OutcomePremiumGranted Outcome = "premium_granted"
	OutcomeUnrecognized   Outcome = "unrecognized"
	OutcomeFailed         Outcome = "failed"
)

// Request is everything fulfillment needs from a verified payment. It is
// stored as JSON on reconciliation entries so it can be replayed.
type Request struct {
	Provider  string                 `json:"provider"`
	PaymentID string                 `json:"paymentId"`
	Amount    float64                `json:"amount"`
	Currency  string                 `json:"currency"`
	Metadata  paymentdomain.Metadata `json:"metadata"`
	Buyer     paymentdomain.Buyer    `json:"buyer"`
}

// RequestFromEvent maps a parsed webhook event to a fulfillment request.
func RequestFromEvent(event *paymentdomain.PaymentEvent) Request {
	return Request{
		Provider:  event.Provider,
		PaymentID: event.PaymentID,
		Amount:    event.Amount,
		Currency:  event.Currency,
		Metadata:  event.Metadata.Normalize(),
		Buyer:     event.Buyer,
	}
}

type Params struct {
	fx.In

	Log     *zap.Logger
	Tickets ticketdomain.Service
	Artists artistdomain.Service
	Metrics *metrics.Metrics `optional:"true"`
}

type Dispatcher struct {
	log     *zap.Logger
	tickets ticketdomain.Service
	artists artistdomain.Service
	metrics *metrics.Metrics
}

func NewDispatcher(p Params) *Dispatcher {
	return &Dispatcher{
		log:     p.Log.Named("payment.fulfillment"),
		tickets: p.Tickets,
		artists: p.Artists,
		metrics: p.Metrics,
	}
}

// Dispatch applies exactly one side effect chosen by the metadata bag:
// a premium upgrade when only planName is set, a ticket when eventId and
// userId are set, otherwise nothing.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Outcome, error) {
	meta := req.Metadata.Normalize()
	paymentID := strings.TrimSpace(req.PaymentID)

	var (
		outcome Outcome
		err     error
	)
	switch {
	case meta.PlanName != "" && meta.EventID == "":
		outcome, err = d.grantPremium(ctx, req, meta, paymentID)
	case meta.EventID != "" && meta.UserID != "":
		outcome, err = d.issueTicket(ctx, req, meta, paymentID)
	default:
		d.log.Warn("unrecognized metadata",
			zap.String("provider", req.Provider),
			zap.String("payment_id", paymentID),
			zap.Bool("has_event", meta.EventID != ""),
			zap.Bool("has_user", meta.UserID != ""),
			zap.Bool("has_plan", meta.PlanName != ""),
		)
		outcome = OutcomeUnrecognized
	}

	d.metrics.RecordFulfillment(ctx, req.Provider, string(outcome))
	return outcome, err
}

func (d *Dispatcher) grantPremium(ctx context.Context, req Request, meta paymentdomain.Metadata, paymentID string) (Outcome, error) {
	artistID := strings.TrimSpace(req.Buyer.CustomerID)
	if artistID == "" {
		artistID = meta.UserID
	}
	if artistID == "" {
		d.log.Warn("premium payment without buyer id",
			zap.String("provider", req.Provider),
			zap.String("payment_id", paymentID),
		)
		return OutcomeUnrecognized, nil
	}

	if err := d.artists.SetPremium(ctx, artistID, paymentID); err != nil {
		return OutcomeFailed, fmt.Errorf("%w: set premium for %s: %w", paymentdomain.ErrStoreWrite, artistID, err)
	}

	d.metrics.RecordPremiumGrant(ctx, req.Provider)
	d.log.Info("premium granted",
		zap.String("provider", req.Provider),
		zap.String("artist_id", artistID),
		zap.String("plan", meta.PlanName),
		zap.String("payment_id", paymentID),
	)
	return OutcomePremiumGranted, nil
}

func (d *Dispatcher) issueTicket(ctx context.Context, req Request, meta paymentdomain.Metadata, paymentID string) (Outcome, error) {
	ticket, created, err := d.tickets.CreateTicket(ctx, ticketdomain.CreateTicketRequest{
		UserID:    meta.UserID,
		EventID:   meta.EventID,
		PricePaid: req.Amount,
		Buyer: ticketdomain.Buyer{
			Name:  req.Buyer.Name,
			Email: req.Buyer.Email,
			Phone: req.Buyer.Phone,
		},
		PaymentID: paymentID,
	})
	if err != nil {
		return OutcomeFailed, fmt.Errorf("%w: create ticket: %w", paymentdomain.ErrStoreWrite, err)
	}

	d.log.Info("ticket fulfilled",
		zap.String("provider", req.Provider),
		zap.String("ticket_id", ticket.ID.String()),
		zap.String("event_id", meta.EventID),
		zap.String("payment_id", paymentID),
		zap.Bool("created", created),
	)
	return OutcomeTicketIssued, nil
}

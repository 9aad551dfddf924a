package webhook

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/smallbiznis/cloudstage/internal/config"
	obscontext "github.com/smallbiznis/cloudstage/internal/observability/context"
	"github.com/smallbiznis/cloudstage/internal/observability/logger"
	"github.com/smallbiznis/cloudstage/internal/observability/metrics"
	"github.com/smallbiznis/cloudstage/internal/payment/adapters"
	paymentdomain "github.com/smallbiznis/cloudstage/internal/payment/domain"
	"github.com/smallbiznis/cloudstage/internal/payment/fulfillment"
	reconciliationdomain "github.com/smallbiznis/cloudstage/internal/reconciliation/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Status string

const (
	StatusFulfilled      Status = "fulfilled"
	StatusIgnored        Status = "ignored"
	StatusUnrecognized   Status = "unrecognized"
	StatusReconciliation Status = "reconciliation"
)

// Result describes an accepted delivery. Every accepted delivery is
// acknowledged with 200 regardless of Status.
type Result struct {
	Status           Status
	Outcome          fulfillment.Outcome
	ReconciliationID string
}

type Params struct {
	fx.In

	Log             *zap.Logger
	Cfg             config.Config
	Adapters        *adapters.Registry
	Dispatcher      *fulfillment.Dispatcher
	Reconciliations reconciliationdomain.Service
	HTTPClient      *http.Client      `name:"payment_http_client" optional:"true"`
	Metrics         *metrics.Metrics `optional:"true"`
}

type Service struct {
	log             *zap.Logger
	cfg             config.Config
	adapters        *adapters.Registry
	dispatcher      *fulfillment.Dispatcher
	reconciliations reconciliationdomain.Service
	client          *http.Client
	metrics         *metrics.Metrics
}

func NewService(p Params) *Service {
	return &Service{
		log:             p.Log.Named("payment.webhook"),
		cfg:             p.Cfg,
		adapters:        p.Adapters,
		dispatcher:      p.Dispatcher,
		reconciliations: p.Reconciliations,
		client:          p.HTTPClient,
		metrics:         p.Metrics,
	}
}

// Ingest verifies, parses and fulfills one provider delivery. Any error it
// returns comes from verification or parsing; fulfillment failures are
// recorded for reconciliation and reported through Result.
func (s *Service) Ingest(ctx context.Context, provider string, payload []byte, headers http.Header) (Result, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if !s.adapters.ProviderExists(provider) {
		return Result{}, paymentdomain.ErrProviderNotFound
	}

	event, err := s.verifyAndParse(ctx, provider, payload, headers)
	if err != nil {
		if errors.Is(err, paymentdomain.ErrEventIgnored) {
			s.metrics.RecordWebhook(ctx, provider, string(StatusIgnored))
			return Result{Status: StatusIgnored}, nil
		}
		s.metrics.RecordWebhook(ctx, provider, rejection(err))
		return Result{}, err
	}

	ctx = obscontext.WithPayment(ctx, provider, event.OrderID)
	result := s.fulfill(ctx, provider, event, payload)
	s.metrics.RecordWebhook(ctx, provider, string(result.Status))
	return result, nil
}

func (s *Service) verifyAndParse(ctx context.Context, provider string, payload []byte, headers http.Header) (*paymentdomain.PaymentEvent, error) {
	adapter, err := s.adapters.NewAdapter(provider, adapters.ConfigFor(provider, s.cfg.Payments, s.client))
	if err != nil {
		return nil, err
	}

	if err := adapter.Verify(ctx, payload, headers); err != nil {
		if errors.Is(err, paymentdomain.ErrConfiguration) {
			s.log.Error("webhook verification misconfigured", zap.String("provider", provider), zap.Error(err))
		} else {
			s.log.Warn("webhook rejected", zap.String("provider", provider), zap.Error(err))
		}
		return nil, err
	}

	event, err := adapter.Parse(ctx, payload)
	if err != nil {
		if !errors.Is(err, paymentdomain.ErrEventIgnored) {
			s.log.Error("webhook payload unparseable", zap.String("provider", provider), zap.Error(err))
		}
		return nil, err
	}
	event.Provider = provider
	return event, nil
}

func (s *Service) fulfill(ctx context.Context, provider string, event *paymentdomain.PaymentEvent, payload []byte) Result {
	req := fulfillment.RequestFromEvent(event)
	outcome, err := s.dispatcher.Dispatch(ctx, req)
	if err == nil {
		if outcome == fulfillment.OutcomeUnrecognized {
			return Result{Status: StatusUnrecognized, Outcome: outcome}
		}
		return Result{Status: StatusFulfilled, Outcome: outcome}
	}

	log := logger.WithContext(ctx, s.log).With(
		zap.String("provider", provider),
		zap.String("payment_id", event.PaymentID),
	)

	entry, recordErr := s.reconciliations.Record(ctx, reconciliationdomain.RecordRequest{
		Provider: provider,
		Reason:   reason(err),
		Err:      err,
		Request:  req,
		Payload:  payload,
	})
	if recordErr != nil {
		log.Error("fulfillment failed and reconciliation entry could not be stored",
			zap.Error(err),
			zap.NamedError("record_error", recordErr),
		)
		return Result{Status: StatusReconciliation, Outcome: outcome}
	}

	log.Error("fulfillment failed", zap.String("reconciliation_id", entry.ID.String()), zap.Error(err))
	return Result{Status: StatusReconciliation, Outcome: outcome, ReconciliationID: entry.ID.String()}
}

func reason(err error) string {
	if errors.Is(err, paymentdomain.ErrStoreWrite) {
		return paymentdomain.ErrStoreWrite.Error()
	}
	return "fulfillment_failed"
}

func rejection(err error) string {
	switch {
	case errors.Is(err, paymentdomain.ErrMissingSignature):
		return "missing_signature"
	case errors.Is(err, paymentdomain.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, paymentdomain.ErrInvalidPayload):
		return "invalid_payload"
	case errors.Is(err, paymentdomain.ErrConfiguration):
		return "misconfigured"
	default:
		return "failed"
	}
}

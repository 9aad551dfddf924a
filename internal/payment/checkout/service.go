package checkout

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/smallbiznis/cloudstage/internal/config"
	obscontext "github.com/smallbiznis/cloudstage/internal/observability/context"
	"github.com/smallbiznis/cloudstage/internal/observability/metrics"
	"github.com/smallbiznis/cloudstage/internal/payment/adapters"
	"github.com/smallbiznis/cloudstage/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Customer struct {
	ID    string `json:"id" validate:"required,max=128"`
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email,max=200"`
	Phone string `json:"phone" validate:"required,min=8,max=16"`
}

// Request is the browser's checkout call. Exactly one of EventID (ticket)
// and PlanName (premium) is set.
type Request struct {
	Amount    float64  `json:"amount" validate:"gt=0"`
	ReceiptID string   `json:"receiptId" validate:"required,max=45,excludesall= "`
	Customer  Customer `json:"customer"`
	UserID    string   `json:"userId" validate:"required,max=128"`
	EventID   string   `json:"eventId,omitempty" validate:"max=128"`
	PlanName  string   `json:"planName,omitempty" validate:"max=64"`
}

type Params struct {
	fx.In

	Log        *zap.Logger
	Cfg        config.Config
	Adapters   *adapters.Registry
	Plans      *config.PlanCatalogHolder
	HTTPClient *http.Client      `name:"payment_http_client" optional:"true"`
	Metrics    *metrics.Metrics `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	cfg      config.Config
	adapters *adapters.Registry
	plans    *config.PlanCatalogHolder
	client   *http.Client
	metrics  *metrics.Metrics
	validate *validator.Validate
}

func NewService(p Params) *Service {
	return &Service{
		log:      p.Log.Named("payment.checkout"),
		cfg:      p.Cfg,
		adapters: p.Adapters,
		plans:    p.Plans,
		client:   p.HTTPClient,
		metrics:  p.Metrics,
		validate: validator.New(),
	}
}

// Initiate creates a provider order for the request. It writes nothing locally.
func (s *Service) Initiate(ctx context.Context, provider string, req Request) (domain.OrderHandle, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if !s.adapters.ProviderExists(provider) {
		return domain.OrderHandle{}, domain.ErrProviderNotFound
	}
	ctx = obscontext.WithPayment(ctx, provider, req.ReceiptID)

	handle, err := s.initiate(ctx, provider, normalizeRequest(req))
	s.metrics.RecordCheckout(ctx, provider, outcome(err))
	return handle, err
}

func (s *Service) initiate(ctx context.Context, provider string, req Request) (domain.OrderHandle, error) {
	if err := s.validateRequest(req); err != nil {
		return domain.OrderHandle{}, err
	}

	currency := strings.ToUpper(strings.TrimSpace(s.cfg.Payments.Currency))
	if req.PlanName != "" {
		plan, ok := s.plans.Get().Find(req.PlanName)
		if !ok {
			return domain.OrderHandle{}, fmt.Errorf("%w: unknown plan %q", domain.ErrInvalidInput, req.PlanName)
		}
		if math.Abs(plan.Amount-req.Amount) > 0.005 {
			return domain.OrderHandle{}, fmt.Errorf("%w: amount does not match plan %s", domain.ErrInvalidInput, plan.Name)
		}
		req.PlanName = plan.Name
		if plan.Currency != "" {
			currency = plan.Currency
		}
	}

	publicURL := strings.TrimRight(s.cfg.PublicBaseURL, "/")
	if err := adapters.RequireHTTPS("PUBLIC_BASE_URL", publicURL); err != nil {
		return domain.OrderHandle{}, err
	}

	adapter, err := s.adapters.NewAdapter(provider, adapters.ConfigFor(provider, s.cfg.Payments, s.client))
	if err != nil {
		return domain.OrderHandle{}, err
	}

	order := domain.OrderRequest{
		OrderID:  req.ReceiptID,
		Amount:   req.Amount,
		Currency: currency,
		Customer: domain.Buyer{
			CustomerID: req.Customer.ID,
			Name:       req.Customer.Name,
			Email:      req.Customer.Email,
			Phone:      req.Customer.Phone,
		},
		Metadata: domain.Metadata{
			EventID:  req.EventID,
			UserID:   req.UserID,
			PlanName: req.PlanName,
		},
		ReturnURL: publicURL + "/payment/status?order_id=" + url.QueryEscape(req.ReceiptID),
		NotifyURL: publicURL + "/api/" + provider + "-webhook",
	}

	handle, err := adapter.CreateOrder(ctx, order)
	if err != nil {
		var providerErr *domain.ProviderError
		if errors.As(err, &providerErr) {
			s.log.Warn("provider rejected order",
				zap.String("provider", provider),
				zap.String("receipt_id", req.ReceiptID),
				zap.Int("status_code", providerErr.StatusCode),
				zap.String("provider_code", providerErr.Code),
				zap.String("provider_message", providerErr.Message),
			)
		}
		return domain.OrderHandle{}, err
	}

	s.log.Info("checkout order created",
		zap.String("provider", provider),
		zap.String("order_id", handle.OrderID),
		zap.Bool("premium", req.PlanName != ""),
	)
	return handle, nil
}

func (s *Service) validateRequest(req Request) error {
	if err := s.validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fmt.Errorf("%w: %s failed %s", domain.ErrInvalidInput, fieldErrs[0].Namespace(), fieldErrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	switch {
	case req.EventID == "" && req.PlanName == "":
		return fmt.Errorf("%w: eventId or planName is required", domain.ErrInvalidInput)
	case req.EventID != "" && req.PlanName != "":
		return fmt.Errorf("%w: eventId and planName are mutually exclusive", domain.ErrInvalidInput)
	}
	return nil
}

func normalizeRequest(req Request) Request {
	req.ReceiptID = strings.TrimSpace(req.ReceiptID)
	req.UserID = strings.TrimSpace(req.UserID)
	req.EventID = strings.TrimSpace(req.EventID)
	req.PlanName = strings.TrimSpace(req.PlanName)
	req.Customer.ID = strings.TrimSpace(req.Customer.ID)
	req.Customer.Name = strings.TrimSpace(req.Customer.Name)
	req.Customer.Email = strings.TrimSpace(req.Customer.Email)
	req.Customer.Phone = strings.TrimSpace(req.Customer.Phone)
	return req
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "created"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, domain.ErrConfiguration):
		return "misconfigured"
	case errors.Is(err, domain.ErrProvider):
		return "rejected"
	default:
		return "failed"
	}
}

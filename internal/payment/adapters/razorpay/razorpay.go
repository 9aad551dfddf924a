package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/smallbiznis/cloudstage/internal/payment/adapters"
	paymentdomain "github.com/smallbiznis/cloudstage/internal/payment/domain"
)

const (
	signatureHeader = "X-Razorpay-Signature"

	eventOrderPaid  = "order.paid"
	orderStatusPaid = "paid"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Provider() string {
	return paymentdomain.ProviderRazorpay
}

func (f *Factory) NewAdapter(cfg paymentdomain.AdapterConfig) (paymentdomain.PaymentAdapter, error) {
	return &Adapter{
		keyID:         adapters.ReadString(cfg.Config, "key_id"),
		keySecret:     adapters.ReadString(cfg.Config, "key_secret"),
		baseURL:       strings.TrimRight(adapters.ReadString(cfg.Config, "base_url"), "/"),
		webhookSecret: adapters.ReadString(cfg.Config, "webhook_secret"),
		client:        cfg.HTTPClient,
	}, nil
}

type Adapter struct {
	keyID         string
	keySecret     string
	baseURL       string
	webhookSecret string
	client        *http.Client
}

// Verify checks hex(HMAC-SHA256(webhookSecret, body)).
func (a *Adapter) Verify(ctx context.Context, payload []byte, headers http.Header) error {
	if a.webhookSecret == "" {
		return fmt.Errorf("%w: razorpay webhook secret is not set", paymentdomain.ErrConfiguration)
	}

	signature := strings.TrimSpace(headers.Get(signatureHeader))
	if signature == "" {
		return paymentdomain.ErrMissingSignature
	}

	if !hmac.Equal([]byte(signature), []byte(Sign(a.webhookSecret, payload))) {
		return paymentdomain.ErrInvalidSignature
	}
	return nil
}

// Sign computes the signature Razorpay sends in X-Razorpay-Signature.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func (a *Adapter) Parse(ctx context.Context, payload []byte) (*paymentdomain.PaymentEvent, error) {
	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", paymentdomain.ErrInvalidPayload, err)
	}

	if strings.TrimSpace(event.Event) != eventOrderPaid {
		return nil, paymentdomain.ErrEventIgnored
	}
	order := event.Payload.Order.Entity
	if !strings.EqualFold(strings.TrimSpace(order.Status), orderStatusPaid) {
		return nil, paymentdomain.ErrEventIgnored
	}

	orderID := strings.TrimSpace(order.ID)
	if orderID == "" {
		return nil, fmt.Errorf("%w: payload.order.entity.id is required", paymentdomain.ErrInvalidPayload)
	}
	payment := event.Payload.Payment.Entity
	paymentID := strings.TrimSpace(payment.ID)
	if paymentID == "" {
		return nil, fmt.Errorf("%w: payload.payment.entity.id is required", paymentdomain.ErrInvalidPayload)
	}

	notes := order.Notes
	if len(notes) == 0 {
		notes = payment.Notes
	}
	metadata := paymentdomain.Metadata{
		EventID:  notes["eventId"],
		UserID:   notes["userId"],
		PlanName: notes["planName"],
	}.Normalize()

	buyer := paymentdomain.Buyer{
		CustomerID: strings.TrimSpace(payment.CustomerID),
		Name:       strings.TrimSpace(notes["buyerName"]),
		Email:      strings.TrimSpace(payment.Email),
		Phone:      strings.TrimSpace(payment.Contact),
	}

	minor := order.AmountPaid
	if minor <= 0 {
		minor = payment.Amount
	}
	if minor <= 0 {
		minor = order.Amount
	}
	currency := strings.TrimSpace(order.Currency)
	if currency == "" {
		currency = strings.TrimSpace(payment.Currency)
	}

	return &paymentdomain.PaymentEvent{
		Provider:   paymentdomain.ProviderRazorpay,
		EventType:  event.Event,
		OrderID:    orderID,
		PaymentID:  paymentID,
		Amount:     float64(minor) / 100,
		Currency:   strings.ToUpper(currency),
		Metadata:   metadata,
		Buyer:      buyer,
		RawPayload: payload,
	}, nil
}

func (a *Adapter) CreateOrder(ctx context.Context, req paymentdomain.OrderRequest) (paymentdomain.OrderHandle, error) {
	if a.keyID == "" || a.keySecret == "" {
		return paymentdomain.OrderHandle{}, fmt.Errorf("%w: razorpay credentials are not set", paymentdomain.ErrConfiguration)
	}
	if err := adapters.RequireHTTPS("RAZORPAY_BASE_URL", a.baseURL); err != nil {
		return paymentdomain.OrderHandle{}, err
	}

	body := createOrderRequest{
		Amount:   toMinorUnits(req.Amount),
		Currency: req.Currency,
		Receipt:  req.OrderID,
		Notes: notes{
			"eventId":   req.Metadata.EventID,
			"userId":    req.Metadata.UserID,
			"planName":  req.Metadata.PlanName,
			"buyerName": req.Customer.Name,
		}.compact(),
	}

	status, raw, err := adapters.Do(ctx, a.client, adapters.Request{
		Method:   http.MethodPost,
		URL:      a.baseURL + "/v1/orders",
		Username: a.keyID,
		Password: a.keySecret,
		Body:     body,
	})
	if err != nil {
		return paymentdomain.OrderHandle{}, &paymentdomain.ProviderError{
			Provider: paymentdomain.ProviderRazorpay,
			Message:  err.Error(),
		}
	}
	if !adapters.IsSuccess(status) {
		var apiErr errorResponse
		_ = json.Unmarshal(raw, &apiErr)
		message := strings.TrimSpace(apiErr.Error.Description)
		if message == "" {
			message = http.StatusText(status)
		}
		return paymentdomain.OrderHandle{}, &paymentdomain.ProviderError{
			Provider:   paymentdomain.ProviderRazorpay,
			StatusCode: status,
			Code:       strings.TrimSpace(apiErr.Error.Code),
			Message:    message,
		}
	}

	var created orderEntity
	if err := json.Unmarshal(raw, &created); err != nil || strings.TrimSpace(created.ID) == "" {
		return paymentdomain.OrderHandle{}, &paymentdomain.ProviderError{
			Provider:   paymentdomain.ProviderRazorpay,
			StatusCode: status,
			Message:    "order response missing id",
		}
	}

	return paymentdomain.OrderHandle{
		Provider:    paymentdomain.ProviderRazorpay,
		OrderID:     created.ID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		KeyID:       a.keyID,
		CallbackURL: req.ReturnURL,
	}, nil
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

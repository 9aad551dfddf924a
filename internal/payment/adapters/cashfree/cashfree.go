package cashfree

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/smallbiznis/cloudstage/internal/payment/adapters"
	paymentdomain "github.com/smallbiznis/cloudstage/internal/payment/domain"
)

const (
	signatureHeader = "x-webhook-signature"
	timestampHeader = "x-webhook-timestamp"

	eventPaymentSuccess = "PAYMENT_SUCCESS_WEBHOOK"
	orderStatusPaid     = "PAID"
	paymentStatusOK     = "SUCCESS"

	defaultAPIVersion = "2023-08-01"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Provider() string {
	return paymentdomain.ProviderCashfree
}

func (f *Factory) NewAdapter(cfg paymentdomain.AdapterConfig) (paymentdomain.PaymentAdapter, error) {
	apiVersion := adapters.ReadString(cfg.Config, "api_version")
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}
	return &Adapter{
		clientID:      adapters.ReadString(cfg.Config, "client_id"),
		clientSecret:  adapters.ReadString(cfg.Config, "client_secret"),
		baseURL:       strings.TrimRight(adapters.ReadString(cfg.Config, "base_url"), "/"),
		apiVersion:    apiVersion,
		webhookSecret: adapters.ReadString(cfg.Config, "webhook_secret"),
		client:        cfg.HTTPClient,
	}, nil
}

type Adapter struct {
	clientID      string
	clientSecret  string
	baseURL       string
	apiVersion    string
	webhookSecret string
	client        *http.Client
}

// Verify checks base64(HMAC-SHA256(secret, timestamp + body)).
func (a *Adapter) Verify(ctx context.Context, payload []byte, headers http.Header) error {
	if a.webhookSecret == "" {
		return fmt.Errorf("%w: cashfree webhook secret is not set", paymentdomain.ErrConfiguration)
	}

	signature := strings.TrimSpace(headers.Get(signatureHeader))
	timestamp := strings.TrimSpace(headers.Get(timestampHeader))
	if signature == "" || timestamp == "" {
		return paymentdomain.ErrMissingSignature
	}

	expected := Sign(a.webhookSecret, timestamp, payload)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return paymentdomain.ErrInvalidSignature
	}
	return nil
}

// Sign computes the signature Cashfree sends in x-webhook-signature.
func Sign(secret, timestamp string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(timestamp))
	_, _ = mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (a *Adapter) Parse(ctx context.Context, payload []byte) (*paymentdomain.PaymentEvent, error) {
	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", paymentdomain.ErrInvalidPayload, err)
	}

	if strings.TrimSpace(event.Type) != eventPaymentSuccess || !event.paid() {
		return nil, paymentdomain.ErrEventIgnored
	}

	order := event.Data.Order
	orderID := strings.TrimSpace(order.OrderID)
	if orderID == "" {
		return nil, fmt.Errorf("%w: data.order.order_id is required", paymentdomain.ErrInvalidPayload)
	}
	paymentID := strings.TrimSpace(string(event.Data.Payment.CFPaymentID))
	if paymentID == "" {
		return nil, fmt.Errorf("%w: data.payment.cf_payment_id is required", paymentdomain.ErrInvalidPayload)
	}

	meta := order.OrderMeta
	if meta == nil {
		meta = event.Data.OrderMeta
	}
	var metadata paymentdomain.Metadata
	if meta != nil {
		metadata = paymentdomain.Metadata{EventID: meta.EventID, UserID: meta.UserID, PlanName: meta.PlanName}.Normalize()
	}

	customer := event.Data.CustomerDetails
	if customer == nil {
		customer = event.CustomerDetails
	}
	var buyer paymentdomain.Buyer
	if customer != nil {
		buyer = paymentdomain.Buyer{
			CustomerID: strings.TrimSpace(customer.CustomerID),
			Name:       strings.TrimSpace(customer.CustomerName),
			Email:      strings.TrimSpace(customer.CustomerEmail),
			Phone:      strings.TrimSpace(customer.CustomerPhone),
		}
	}
	if metadata.UserID == "" {
		metadata.UserID = buyer.CustomerID
	}

	amount := event.Data.Payment.PaymentAmount
	if amount <= 0 {
		amount = order.OrderAmount
	}
	currency := strings.TrimSpace(event.Data.Payment.PaymentCurrency)
	if currency == "" {
		currency = strings.TrimSpace(order.OrderCurrency)
	}

	return &paymentdomain.PaymentEvent{
		Provider:   paymentdomain.ProviderCashfree,
		EventType:  event.Type,
		OrderID:    orderID,
		PaymentID:  paymentID,
		Amount:     amount,
		Currency:   strings.ToUpper(currency),
		Metadata:   metadata,
		Buyer:      buyer,
		RawPayload: payload,
	}, nil
}

func (a *Adapter) CreateOrder(ctx context.Context, req paymentdomain.OrderRequest) (paymentdomain.OrderHandle, error) {
	if a.clientID == "" || a.clientSecret == "" {
		return paymentdomain.OrderHandle{}, fmt.Errorf("%w: cashfree credentials are not set", paymentdomain.ErrConfiguration)
	}
	if err := adapters.RequireHTTPS("CASHFREE_BASE_URL", a.baseURL); err != nil {
		return paymentdomain.OrderHandle{}, err
	}

	body := createOrderRequest{
		OrderID:       req.OrderID,
		OrderAmount:   req.Amount,
		OrderCurrency: req.Currency,
		CustomerDetails: customerDetails{
			CustomerID:    req.Customer.CustomerID,
			CustomerName:  req.Customer.Name,
			CustomerEmail: req.Customer.Email,
			CustomerPhone: req.Customer.Phone,
		},
		OrderMeta: orderMeta{
			ReturnURL: req.ReturnURL,
			NotifyURL: req.NotifyURL,
			EventID:   req.Metadata.EventID,
			UserID:    req.Metadata.UserID,
			PlanName:  req.Metadata.PlanName,
		},
	}

	status, raw, err := adapters.Do(ctx, a.client, adapters.Request{
		Method: http.MethodPost,
		URL:    a.baseURL + "/orders",
		Headers: map[string]string{
			"x-client-id":     a.clientID,
			"x-client-secret": a.clientSecret,
			"x-api-version":   a.apiVersion,
		},
		Body: body,
	})
	if err != nil {
		return paymentdomain.OrderHandle{}, &paymentdomain.ProviderError{
			Provider: paymentdomain.ProviderCashfree,
			Message:  err.Error(),
		}
	}
	if !adapters.IsSuccess(status) {
		var apiErr errorResponse
		_ = json.Unmarshal(raw, &apiErr)
		message := strings.TrimSpace(apiErr.Message)
		if message == "" {
			message = http.StatusText(status)
		}
		return paymentdomain.OrderHandle{}, &paymentdomain.ProviderError{
			Provider:   paymentdomain.ProviderCashfree,
			StatusCode: status,
			Code:       strings.TrimSpace(apiErr.Code),
			Message:    message,
		}
	}

	var created createOrderResponse
	if err := json.Unmarshal(raw, &created); err != nil || strings.TrimSpace(created.PaymentSessionID) == "" {
		return paymentdomain.OrderHandle{}, &paymentdomain.ProviderError{
			Provider:   paymentdomain.ProviderCashfree,
			StatusCode: status,
			Message:    "order response missing payment_session_id",
		}
	}

	orderID := strings.TrimSpace(created.OrderID)
	if orderID == "" {
		orderID = req.OrderID
	}
	return paymentdomain.OrderHandle{
		Provider:         paymentdomain.ProviderCashfree,
		OrderID:          orderID,
		Amount:           req.Amount,
		Currency:         req.Currency,
		PaymentSessionID: created.PaymentSessionID,
	}, nil
}

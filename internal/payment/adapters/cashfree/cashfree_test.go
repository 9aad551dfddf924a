package cashfree

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	paymentdomain "github.com/smallbiznis/cloudstage/internal/payment/domain"
)

const testSecret = "cf_test_secret"

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"type":"PAYMENT_SUCCESS_WEBHOOK"}`)
	timestamp := "1717000000"

	headers := http.Header{}
	headers.Set(signatureHeader, Sign(testSecret, timestamp, payload))
	headers.Set(timestampHeader, timestamp)

	adapter := &Adapter{webhookSecret: testSecret}
	if err := adapter.Verify(context.Background(), payload, headers); err != nil {
		t.Fatalf("expected valid signature, got error: %v", err)
	}

	headers.Set(signatureHeader, Sign("wrong", timestamp, payload))
	if err := adapter.Verify(context.Background(), payload, headers); !errors.Is(err, paymentdomain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}

	headers.Set(signatureHeader, Sign(testSecret, "1717000001", payload))
	if err := adapter.Verify(context.Background(), payload, headers); !errors.Is(err, paymentdomain.ErrInvalidSignature) {
		t.Fatalf("expected timestamp to be part of the signature, got %v", err)
	}
}

func TestVerifyRejectsNonJSONWithWrongSecret(t *testing.T) {
	payload := []byte("not json at all")
	headers := http.Header{}
	headers.Set(signatureHeader, Sign("another_secret", "1", payload))
	headers.Set(timestampHeader, "1")

	adapter := &Adapter{webhookSecret: testSecret}
	if err := adapter.Verify(context.Background(), payload, headers); !errors.Is(err, paymentdomain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifyMissingHeadersAndSecret(t *testing.T) {
	adapter := &Adapter{webhookSecret: testSecret}
	headers := http.Header{}
	headers.Set(signatureHeader, "abc")
	if err := adapter.Verify(context.Background(), []byte("{}"), headers); !errors.Is(err, paymentdomain.ErrMissingSignature) {
		t.Fatalf("expected ErrMissingSignature without timestamp, got %v", err)
	}

	unconfigured := &Adapter{}
	if err := unconfigured.Verify(context.Background(), []byte("{}"), headers); !errors.Is(err, paymentdomain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration without secret, got %v", err)
	}
}

func TestParsePaidOrder(t *testing.T) {
	payload := mustJSON(t, map[string]any{
		"type": "PAYMENT_SUCCESS_WEBHOOK",
		"data": map[string]any{
			"order": map[string]any{
				"order_id":       "rcpt_1",
				"order_amount":   499.0,
				"order_currency": "INR",
				"order_status":   "PAID",
				"order_meta": map[string]any{
					"eventId": "E",
					"userId":  "U",
				},
			},
			"payment": map[string]any{
				"cf_payment_id":  5114910399,
				"payment_status": "SUCCESS",
				"payment_amount": 499.0,
			},
			"customer_details": map[string]any{
				"customer_id":    "cust_1",
				"customer_name":  "Asha",
				"customer_email": "asha@example.com",
				"customer_phone": "9999999999",
			},
		},
	})

	event, err := (&Adapter{}).Parse(context.Background(), payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.PaymentID != "5114910399" {
		t.Fatalf("expected numeric payment id as string, got %q", event.PaymentID)
	}
	if event.Metadata.EventID != "E" || event.Metadata.UserID != "U" {
		t.Fatalf("unexpected metadata %+v", event.Metadata)
	}
	if event.Buyer.Email != "asha@example.com" || event.Amount != 499 || event.Currency != "INR" {
		t.Fatalf("unexpected event %+v", event)
	}
}

func TestParseFallsBackToPaymentStatusAndTopLevelCustomer(t *testing.T) {
	payload := mustJSON(t, map[string]any{
		"type": "PAYMENT_SUCCESS_WEBHOOK",
		"data": map[string]any{
			"order": map[string]any{
				"order_id":     "rcpt_2",
				"order_amount": 1499.0,
				"order_meta":   map[string]any{"planName": "Studio"},
			},
			"payment": map[string]any{
				"cf_payment_id":  "pay_str",
				"payment_status": "SUCCESS",
			},
		},
		"customer_details": map[string]any{"customer_id": "artist_7"},
	})

	event, err := (&Adapter{}).Parse(context.Background(), payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.Buyer.CustomerID != "artist_7" {
		t.Fatalf("expected top-level customer id, got %q", event.Buyer.CustomerID)
	}
	if event.Metadata.UserID != "artist_7" {
		t.Fatalf("expected user id to fall back to customer id, got %q", event.Metadata.UserID)
	}
	if event.Metadata.PlanName != "Studio" || event.Amount != 1499 {
		t.Fatalf("unexpected event %+v", event)
	}
}

func TestParseIgnoresNonSuccessEvents(t *testing.T) {
	cases := []map[string]any{
		{"type": "PAYMENT_FAILED_WEBHOOK", "data": map[string]any{}},
		{"type": "PAYMENT_SUCCESS_WEBHOOK", "data": map[string]any{"order": map[string]any{"order_id": "o", "order_status": "ACTIVE"}}},
		{"type": "PAYMENT_SUCCESS_WEBHOOK", "data": map[string]any{"payment": map[string]any{"payment_status": "PENDING"}}},
	}
	for _, body := range cases {
		if _, err := (&Adapter{}).Parse(context.Background(), mustJSON(t, body)); !errors.Is(err, paymentdomain.ErrEventIgnored) {
			t.Fatalf("expected ErrEventIgnored for %v, got %v", body, err)
		}
	}
}

func TestParseInvalidPayload(t *testing.T) {
	if _, err := (&Adapter{}).Parse(context.Background(), []byte("{")); !errors.Is(err, paymentdomain.ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload for malformed json, got %v", err)
	}
	missingPayment := mustJSON(t, map[string]any{
		"type": "PAYMENT_SUCCESS_WEBHOOK",
		"data": map[string]any{"order": map[string]any{"order_id": "o", "order_status": "PAID"}},
	})
	if _, err := (&Adapter{}).Parse(context.Background(), missingPayment); !errors.Is(err, paymentdomain.ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload without payment id, got %v", err)
	}
}

func TestCreateOrder(t *testing.T) {
	var received createOrderRequest
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/pg/orders" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("x-client-id") != "app_id" || r.Header.Get("x-client-secret") != "app_secret" {
			t.Errorf("missing credentials headers")
		}
		if r.Header.Get("x-api-version") != defaultAPIVersion {
			t.Errorf("unexpected api version %q", r.Header.Get("x-api-version"))
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &received)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"cf_order_id":2149460581,"order_id":"rcpt_1","order_status":"ACTIVE","payment_session_id":"session_abc"}`))
	}))
	defer server.Close()

	adapter := &Adapter{
		clientID:     "app_id",
		clientSecret: "app_secret",
		baseURL:      server.URL + "/pg",
		apiVersion:   defaultAPIVersion,
		client:       server.Client(),
	}
	handle, err := adapter.CreateOrder(context.Background(), paymentdomain.OrderRequest{
		OrderID:   "rcpt_1",
		Amount:    499,
		Currency:  "INR",
		Customer:  paymentdomain.Buyer{CustomerID: "U", Name: "Asha", Email: "asha@example.com", Phone: "9999999999"},
		Metadata:  paymentdomain.Metadata{EventID: "E", UserID: "U"},
		ReturnURL: "https://cloudstage.example.com/payment/status?order_id=rcpt_1",
		NotifyURL: "https://cloudstage.example.com/api/cashfree-webhook",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if handle.PaymentSessionID != "session_abc" || handle.OrderID != "rcpt_1" {
		t.Fatalf("unexpected handle %+v", handle)
	}
	if received.OrderMeta.EventID != "E" || received.OrderMeta.NotifyURL == "" || received.CustomerDetails.CustomerID != "U" {
		t.Fatalf("unexpected order body %+v", received)
	}
}

func TestCreateOrderProviderRejection(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"order_amount : invalid value","code":"order_amount_invalid","type":"invalid_request_error"}`))
	}))
	defer server.Close()

	adapter := &Adapter{clientID: "id", clientSecret: "secret", baseURL: server.URL, apiVersion: defaultAPIVersion, client: server.Client()}
	_, err := adapter.CreateOrder(context.Background(), paymentdomain.OrderRequest{OrderID: "o", Amount: 1, Currency: "INR"})
	if !errors.Is(err, paymentdomain.ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
	var providerErr *paymentdomain.ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected *ProviderError, got %T", err)
	}
	if providerErr.StatusCode != http.StatusBadRequest || providerErr.Message != "order_amount : invalid value" {
		t.Fatalf("unexpected provider error %+v", providerErr)
	}
}

func TestCreateOrderRequiresConfiguration(t *testing.T) {
	cases := []*Adapter{
		{baseURL: "https://sandbox.cashfree.com/pg"},
		{clientID: "id", clientSecret: "secret", baseURL: "http://sandbox.cashfree.com/pg"},
		{clientID: "id", clientSecret: "secret"},
	}
	for _, adapter := range cases {
		if _, err := adapter.CreateOrder(context.Background(), paymentdomain.OrderRequest{}); !errors.Is(err, paymentdomain.ErrConfiguration) {
			t.Fatalf("expected ErrConfiguration, got %v", err)
		}
	}
}

func mustJSON(t *testing.T, value any) []byte {
	t.Helper()
	raw, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return raw
}

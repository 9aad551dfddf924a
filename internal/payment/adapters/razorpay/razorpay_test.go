package razorpay

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

const testSecret = "rzp_webhook_secret"

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"event":"order.paid"}`)
	headers := http.Header{}
	headers.Set(signatureHeader, Sign(testSecret, payload))

	adapter := &Adapter{webhookSecret: testSecret}
	if err := adapter.Verify(context.Background(), payload, headers); err != nil {
		t.Fatalf("expected valid signature, got error: %v", err)
	}

	headers.Set(signatureHeader, Sign("wrong", payload))
	if err := adapter.Verify(context.Background(), payload, headers); !errors.Is(err, paymentdomain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}

	headers.Del(signatureHeader)
	if err := adapter.Verify(context.Background(), payload, headers); !errors.Is(err, paymentdomain.ErrMissingSignature) {
		t.Fatalf("expected ErrMissingSignature, got %v", err)
	}

	if err := (&Adapter{}).Verify(context.Background(), payload, headers); !errors.Is(err, paymentdomain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestParseOrderPaid(t *testing.T) {
	payload := orderPaidPayload(t, "paid", map[string]any{"eventId": "E", "userId": "U", "buyerName": "Ravi"})

	event, err := (&Adapter{}).Parse(context.Background(), payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.PaymentID != "pay_29QQoUBi66xm2f" || event.OrderID != "order_DaZlswtdcn9UNV" {
		t.Fatalf("unexpected ids %+v", event)
	}
	if event.Amount != 499 {
		t.Fatalf("expected amount in major units, got %v", event.Amount)
	}
	if event.Metadata.EventID != "E" || event.Metadata.UserID != "U" {
		t.Fatalf("unexpected metadata %+v", event.Metadata)
	}
	if event.Buyer.Name != "Ravi" || event.Buyer.Email != "ravi@example.com" || event.Buyer.Phone != "+919000090000" {
		t.Fatalf("unexpected buyer %+v", event.Buyer)
	}
}

func TestParseIgnoresOtherEvents(t *testing.T) {
	if _, err := (&Adapter{}).Parse(context.Background(), []byte(`{"event":"payment.failed","payload":{}}`)); !errors.Is(err, paymentdomain.ErrEventIgnored) {
		t.Fatalf("expected ErrEventIgnored, got %v", err)
	}
	if _, err := (&Adapter{}).Parse(context.Background(), orderPaidPayload(t, "attempted", nil)); !errors.Is(err, paymentdomain.ErrEventIgnored) {
		t.Fatalf("expected ErrEventIgnored for unpaid order, got %v", err)
	}
}

func TestParseAcceptsEmptyNotesArray(t *testing.T) {
	payload := []byte(`{"event":"order.paid","payload":{
		"payment":{"entity":{"id":"pay_1","amount":100,"currency":"INR","notes":[]}},
		"order":{"entity":{"id":"order_1","amount":100,"amount_paid":100,"currency":"INR","status":"paid","notes":[]}}
	}}`)
	event, err := (&Adapter{}).Parse(context.Background(), payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.Metadata != (paymentdomain.Metadata{}) {
		t.Fatalf("expected empty metadata, got %+v", event.Metadata)
	}
}

func TestParseMissingPaymentID(t *testing.T) {
	payload := []byte(`{"event":"order.paid","payload":{"order":{"entity":{"id":"order_1","status":"paid"}}}}`)
	if _, err := (&Adapter{}).Parse(context.Background(), payload); !errors.Is(err, paymentdomain.ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}

func TestCreateOrder(t *testing.T) {
	var received createOrderRequest
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "rzp_key" || pass != "rzp_secret" {
			t.Errorf("missing basic auth")
		}
		if r.URL.Path != "/v1/orders" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &received)
		_, _ = w.Write([]byte(`{"id":"order_EKwxwAgItmmXdp","entity":"order","amount":49950,"currency":"INR","receipt":"rcpt_1","status":"created"}`))
	}))
	defer server.Close()

	adapter := &Adapter{keyID: "rzp_key", keySecret: "rzp_secret", baseURL: server.URL, client: server.Client()}
	handle, err := adapter.CreateOrder(context.Background(), paymentdomain.OrderRequest{
		OrderID:   "rcpt_1",
		Amount:    499.5,
		Currency:  "INR",
		Customer:  paymentdomain.Buyer{Name: "Ravi"},
		Metadata:  paymentdomain.Metadata{EventID: "E", UserID: "U"},
		ReturnURL: "https://cloudstage.example.com/payment/status?order_id=rcpt_1",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if received.Amount != 49950 || received.Receipt != "rcpt_1" {
		t.Fatalf("unexpected order body %+v", received)
	}
	if _, ok := received.Notes["planName"]; ok {
		t.Fatalf("empty notes should be omitted, got %+v", received.Notes)
	}
	if received.Notes["eventId"] != "E" || received.Notes["buyerName"] != "Ravi" {
		t.Fatalf("unexpected notes %+v", received.Notes)
	}
	if handle.OrderID != "order_EKwxwAgItmmXdp" || handle.KeyID != "rzp_key" {
		t.Fatalf("unexpected handle %+v", handle)
	}
}

func TestCreateOrderProviderRejection(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"Authentication failed"}}`))
	}))
	defer server.Close()

	adapter := &Adapter{keyID: "k", keySecret: "s", baseURL: server.URL, client: server.Client()}
	_, err := adapter.CreateOrder(context.Background(), paymentdomain.OrderRequest{OrderID: "r", Amount: 1, Currency: "INR"})
	var providerErr *paymentdomain.ProviderError
	if !errors.As(err, &providerErr) || !errors.Is(err, paymentdomain.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if providerErr.Message != "Authentication failed" || providerErr.Code != "BAD_REQUEST_ERROR" {
		t.Fatalf("unexpected provider error %+v", providerErr)
	}
}

func TestToMinorUnits(t *testing.T) {
	if got := toMinorUnits(19.99); got != 1999 {
		t.Fatalf("expected 1999, got %d", got)
	}
}

func orderPaidPayload(t *testing.T, status string, orderNotes map[string]any) []byte {
	t.Helper()
	body := map[string]any{
		"entity": "event",
		"event":  "order.paid",
		"payload": map[string]any{
			"payment": map[string]any{
				"entity": map[string]any{
					"id":       "pay_29QQoUBi66xm2f",
					"amount":   49900,
					"currency": "INR",
					"status":   "captured",
					"order_id": "order_DaZlswtdcn9UNV",
					"email":    "ravi@example.com",
					"contact":  "+919000090000",
				},
			},
			"order": map[string]any{
				"entity": map[string]any{
					"id":          "order_DaZlswtdcn9UNV",
					"amount":      49900,
					"amount_paid": 49900,
					"currency":    "INR",
					"status":      status,
					"notes":       orderNotes,
				},
			},
		},
	}
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return raw
}

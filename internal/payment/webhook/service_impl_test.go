package webhook_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	artistrepo "github.com/smallbiznis/cloudstage/internal/artist/repository"
	artistservice "github.com/smallbiznis/cloudstage/internal/artist/service"
	"github.com/smallbiznis/cloudstage/internal/clock"
	"github.com/smallbiznis/cloudstage/internal/config"
	"github.com/smallbiznis/cloudstage/internal/payment/adapters"
	"github.com/smallbiznis/cloudstage/internal/payment/adapters/cashfree"
	"github.com/smallbiznis/cloudstage/internal/payment/adapters/razorpay"
	paymentdomain "github.com/smallbiznis/cloudstage/internal/payment/domain"
	"github.com/smallbiznis/cloudstage/internal/payment/fulfillment"
	"github.com/smallbiznis/cloudstage/internal/payment/webhook"
	reconrepo "github.com/smallbiznis/cloudstage/internal/reconciliation/repository"
	reconservice "github.com/smallbiznis/cloudstage/internal/reconciliation/service"
	ticketrepo "github.com/smallbiznis/cloudstage/internal/ticket/repository"
	ticketservice "github.com/smallbiznis/cloudstage/internal/ticket/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	cashfreeSecret = "cf_secret"
	razorpaySecret = "rzp_webhook_secret"
)

func TestCashfreeTicketRoundTrip(t *testing.T) {
	svc, db := newService(t, defaultConfig())
	payload := cashfreePayload(t, map[string]any{"eventId": "E", "userId": "U"}, "cust_U")

	result, err := svc.Ingest(context.Background(), "cashfree", payload, cashfreeHeaders(cashfreeSecret, payload))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.Status != webhook.StatusFulfilled || result.Outcome != fulfillment.OutcomeTicketIssued {
		t.Fatalf("unexpected result %+v", result)
	}

	var ticket struct {
		UserID    string
		EventID   string
		PaymentID string
		PricePaid float64
		BuyerName string
	}
	if err := db.Raw(`SELECT user_id, event_id, payment_id, price_paid, buyer_name FROM tickets`).Scan(&ticket).Error; err != nil {
		t.Fatalf("read ticket: %v", err)
	}
	if ticket.UserID != "U" || ticket.EventID != "E" || ticket.PaymentID != "5114910399" {
		t.Fatalf("unexpected ticket %+v", ticket)
	}
	if ticket.PricePaid != 299 || ticket.BuyerName != "Asha" {
		t.Fatalf("buyer details not carried over: %+v", ticket)
	}
}

func TestDuplicateDeliveryLeavesOneTicket(t *testing.T) {
	svc, db := newService(t, defaultConfig())
	payload := cashfreePayload(t, map[string]any{"eventId": "E", "userId": "U"}, "cust_U")
	headers := cashfreeHeaders(cashfreeSecret, payload)

	for i := 0; i < 3; i++ {
		result, err := svc.Ingest(context.Background(), "cashfree", payload, headers)
		if err != nil {
			t.Fatalf("delivery %d: %v", i, err)
		}
		if result.Status != webhook.StatusFulfilled {
			t.Fatalf("delivery %d: unexpected status %s", i, result.Status)
		}
	}
	if n := count(t, db, "tickets"); n != 1 {
		t.Fatalf("expected 1 ticket, got %d", n)
	}
}

func TestCashfreePremiumUpgrade(t *testing.T) {
	svc, db := newService(t, defaultConfig())
	seedArtist(t, db, "artist_1")
	payload := cashfreePayload(t, map[string]any{"planName": "Pro"}, "artist_1")

	result, err := svc.Ingest(context.Background(), "cashfree", payload, cashfreeHeaders(cashfreeSecret, payload))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.Outcome != fulfillment.OutcomePremiumGranted {
		t.Fatalf("expected premium outcome, got %+v", result)
	}

	var premium bool
	if err := db.Raw(`SELECT is_premium FROM artists WHERE id = ?`, "artist_1").Scan(&premium).Error; err != nil {
		t.Fatalf("read artist: %v", err)
	}
	if !premium {
		t.Fatalf("expected artist to be premium")
	}
	if n := count(t, db, "tickets"); n != 0 {
		t.Fatalf("premium must not issue tickets, got %d", n)
	}
}

func TestBadSignatureMutatesNothing(t *testing.T) {
	svc, db := newService(t, defaultConfig())

	payloads := [][]byte{
		cashfreePayload(t, map[string]any{"eventId": "E", "userId": "U"}, "cust_U"),
		[]byte("definitely not json"),
	}
	for _, payload := range payloads {
		_, err := svc.Ingest(context.Background(), "cashfree", payload, cashfreeHeaders("wrong_secret", payload))
		if !errors.Is(err, paymentdomain.ErrInvalidSignature) {
			t.Fatalf("expected ErrInvalidSignature, got %v", err)
		}
	}
	if n := count(t, db, "tickets"); n != 0 {
		t.Fatalf("bad signature must not create tickets, got %d", n)
	}
	if n := count(t, db, "payment_reconciliations"); n != 0 {
		t.Fatalf("bad signature must not be reconciled, got %d", n)
	}
}

func TestMissingSignatureAndSecret(t *testing.T) {
	svc, _ := newService(t, defaultConfig())
	payload := []byte(`{}`)

	if _, err := svc.Ingest(context.Background(), "cashfree", payload, http.Header{}); !errors.Is(err, paymentdomain.ErrMissingSignature) {
		t.Fatalf("expected ErrMissingSignature, got %v", err)
	}

	cfg := defaultConfig()
	cfg.Payments.Razorpay.WebhookSecret = ""
	unconfigured, _ := newService(t, cfg)
	headers := http.Header{}
	headers.Set("X-Razorpay-Signature", razorpay.Sign("anything", payload))
	if _, err := unconfigured.Ingest(context.Background(), "razorpay", payload, headers); !errors.Is(err, paymentdomain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}

	if _, err := svc.Ingest(context.Background(), "paypal", payload, headers); !errors.Is(err, paymentdomain.ErrProviderNotFound) {
		t.Fatalf("expected ErrProviderNotFound, got %v", err)
	}
}

func TestMetadataWithoutTargetIsAcknowledged(t *testing.T) {
	svc, db := newService(t, defaultConfig())
	payload := cashfreePayload(t, map[string]any{}, "cust_U")

	result, err := svc.Ingest(context.Background(), "cashfree", payload, cashfreeHeaders(cashfreeSecret, payload))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.Status != webhook.StatusUnrecognized {
		t.Fatalf("expected unrecognized, got %+v", result)
	}
	if n := count(t, db, "tickets"); n != 0 {
		t.Fatalf("expected no tickets, got %d", n)
	}
}

func TestNonSuccessEventIsIgnored(t *testing.T) {
	svc, db := newService(t, defaultConfig())
	payload := []byte(`{"type":"PAYMENT_FAILED_WEBHOOK","data":{"order":{"order_id":"rcpt_1"}}}`)

	result, err := svc.Ingest(context.Background(), "cashfree", payload, cashfreeHeaders(cashfreeSecret, payload))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.Status != webhook.StatusIgnored {
		t.Fatalf("expected ignored, got %+v", result)
	}
	if n := count(t, db, "tickets"); n != 0 {
		t.Fatalf("expected no tickets, got %d", n)
	}
}

func TestMalformedSuccessPayloadIsRejected(t *testing.T) {
	svc, _ := newService(t, defaultConfig())
	payload := []byte(`{"type":"PAYMENT_SUCCESS_WEBHOOK","data":{"order":{"order_status":"PAID"}}}`)

	if _, err := svc.Ingest(context.Background(), "cashfree", payload, cashfreeHeaders(cashfreeSecret, payload)); !errors.Is(err, paymentdomain.ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}

func TestFulfillmentFailureIsReconciled(t *testing.T) {
	svc, db := newService(t, defaultConfig())
	payload := cashfreePayload(t, map[string]any{"planName": "Pro"}, "ghost_artist")

	result, err := svc.Ingest(context.Background(), "cashfree", payload, cashfreeHeaders(cashfreeSecret, payload))
	if err != nil {
		t.Fatalf("fulfillment failures must still be acknowledged, got %v", err)
	}
	if result.Status != webhook.StatusReconciliation || result.ReconciliationID == "" {
		t.Fatalf("expected reconciliation result, got %+v", result)
	}

	var entry struct {
		Provider  string
		PaymentID string
		Reason    string
		Status    string
	}
	if err := db.Raw(`SELECT provider, payment_id, reason, status FROM payment_reconciliations`).Scan(&entry).Error; err != nil {
		t.Fatalf("read entry: %v", err)
	}
	if entry.Provider != "cashfree" || entry.PaymentID != "5114910399" || entry.Status != "pending" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if entry.Reason != paymentdomain.ErrStoreWrite.Error() {
		t.Fatalf("unexpected reason %q", entry.Reason)
	}
}

func TestRazorpayTicketRoundTrip(t *testing.T) {
	svc, db := newService(t, defaultConfig())
	payload := []byte(`{"event":"order.paid","payload":{
		"payment":{"entity":{"id":"pay_R1","amount":29900,"currency":"INR","email":"ravi@example.com","contact":"+919999999999","notes":{}}},
		"order":{"entity":{"id":"order_R1","receipt":"rcpt_R1","amount":29900,"amount_paid":29900,"currency":"INR","status":"paid",
			"notes":{"eventId":"E2","userId":"U2","buyerName":"Ravi"}}}
	}}`)
	headers := http.Header{}
	headers.Set("X-Razorpay-Signature", razorpay.Sign(razorpaySecret, payload))

	result, err := svc.Ingest(context.Background(), "razorpay", payload, headers)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.Outcome != fulfillment.OutcomeTicketIssued {
		t.Fatalf("unexpected result %+v", result)
	}

	var ticket struct {
		UserID     string
		EventID    string
		PaymentID  string
		PricePaid  float64
		BuyerEmail string
	}
	if err := db.Raw(`SELECT user_id, event_id, payment_id, price_paid, buyer_email FROM tickets`).Scan(&ticket).Error; err != nil {
		t.Fatalf("read ticket: %v", err)
	}
	if ticket.UserID != "U2" || ticket.EventID != "E2" || ticket.PaymentID != "pay_R1" || ticket.PricePaid != 299 {
		t.Fatalf("unexpected ticket %+v", ticket)
	}
	if ticket.BuyerEmail != "ravi@example.com" {
		t.Fatalf("unexpected buyer email %q", ticket.BuyerEmail)
	}
}

func defaultConfig() config.Config {
	return config.Config{
		Payments: config.PaymentsConfig{
			Currency: "INR",
			Cashfree: config.CashfreeConfig{WebhookSecret: cashfreeSecret},
			Razorpay: config.RazorpayConfig{WebhookSecret: razorpaySecret},
		},
	}
}

func cashfreePayload(t *testing.T, meta map[string]any, customerID string) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"type":       "PAYMENT_SUCCESS_WEBHOOK",
		"event_time": "2026-03-01T10:00:00+05:30",
		"data": map[string]any{
			"order": map[string]any{
				"order_id":       "rcpt_1",
				"order_amount":   299.0,
				"order_currency": "INR",
				"order_status":   "PAID",
				"order_meta":     meta,
			},
			"payment": map[string]any{
				"cf_payment_id":  5114910399,
				"payment_status": "SUCCESS",
				"payment_amount": 299.0,
			},
			"customer_details": map[string]any{
				"customer_id":    customerID,
				"customer_name":  "Asha",
				"customer_email": "asha@example.com",
				"customer_phone": "9999999999",
			},
		},
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return payload
}

func cashfreeHeaders(secret string, payload []byte) http.Header {
	timestamp := "1772339400"
	headers := http.Header{}
	headers.Set("x-webhook-timestamp", timestamp)
	headers.Set("x-webhook-signature", cashfree.Sign(secret, timestamp, payload))
	return headers
}

func newService(t *testing.T, cfg config.Config) (*webhook.Service, *gorm.DB) {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	log := zap.NewNop()
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	tickets := ticketservice.New(ticketservice.Params{DB: db, Log: log, GenID: node, Clock: clk, Repo: ticketrepo.Provide()})
	artists := artistservice.New(artistservice.Params{DB: db, Log: log, Clock: clk, Repo: artistrepo.Provide()})
	dispatcher := fulfillment.NewDispatcher(fulfillment.Params{Log: log, Tickets: tickets, Artists: artists})
	reconciliations := reconservice.New(reconservice.Params{
		DB:        db,
		Log:       log,
		GenID:     node,
		Clock:     clk,
		Repo:      reconrepo.Provide(),
		Fulfiller: dispatcher,
	})

	return webhook.NewService(webhook.Params{
		Log:             log,
		Cfg:             cfg,
		Adapters:        adapters.NewRegistry(cashfree.NewFactory(), razorpay.NewFactory()),
		Dispatcher:      dispatcher,
		Reconciliations: reconciliations,
	}), db
}

func seedArtist(t *testing.T, db *gorm.DB, id string) {
	t.Helper()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := db.Exec(
		`INSERT INTO artists (id, name, email, is_premium, created_at, updated_at) VALUES (?, ?, ?, FALSE, ?, ?)`,
		id, "Artist "+id, id+"@example.com", now, now,
	).Error; err != nil {
		t.Fatalf("seed artist: %v", err)
	}
}

func count(t *testing.T, db *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	if err := db.Raw(`SELECT COUNT(*) FROM ` + table).Scan(&n).Error; err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE tickets (
			id BIGINT PRIMARY KEY,
			user_id TEXT NOT NULL,
			event_id TEXT NOT NULL,
			buyer_name TEXT NOT NULL DEFAULT '',
			buyer_email TEXT NOT NULL DEFAULT '',
			buyer_phone TEXT NOT NULL DEFAULT '',
			price_paid REAL NOT NULL,
			payment_id TEXT NOT NULL,
			is_test BOOLEAN NOT NULL DEFAULT FALSE,
			created_at DATETIME NOT NULL,
			UNIQUE (user_id, event_id)
		)`,
		`CREATE TABLE artists (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			is_premium BOOLEAN NOT NULL DEFAULT FALSE,
			premium_payment_id TEXT,
			premium_since DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE payment_reconciliations (
			id BIGINT PRIMARY KEY,
			provider TEXT NOT NULL,
			payment_id TEXT NOT NULL,
			reason TEXT NOT NULL,
			request TEXT NOT NULL,
			payload TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			attempts INTEGER NOT NULL DEFAULT 0,
			last_error TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			resolved_at DATETIME
		)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

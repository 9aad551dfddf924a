package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CASHFREE_CLIENT_SECRET", "cf_secret")
	t.Setenv("CASHFREE_WEBHOOK_SECRET", "")
	t.Setenv("PUBLIC_BASE_URL", "https://cloudstage.example.com/")
	t.Setenv("PAYMENTS_CURRENCY", "inr")

	cfg := Load()
	if cfg.PublicBaseURL != "https://cloudstage.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.PublicBaseURL)
	}
	if cfg.Payments.Cashfree.WebhookSecret != "cf_secret" {
		t.Fatalf("expected webhook secret to default to client secret, got %q", cfg.Payments.Cashfree.WebhookSecret)
	}
	if cfg.Payments.Currency != "INR" {
		t.Fatalf("expected upper-cased currency, got %q", cfg.Payments.Currency)
	}
	if cfg.Payments.Cashfree.APIVersion != "2023-08-01" {
		t.Fatalf("unexpected api version %q", cfg.Payments.Cashfree.APIVersion)
	}
}

func TestGetenvHelpers(t *testing.T) {
	t.Setenv("CS_TEST_BOOL", "yes")
	t.Setenv("CS_TEST_INT", "not-a-number")
	t.Setenv("CS_TEST_FLOAT", "0.5")

	if !getenvBool("CS_TEST_BOOL", false) {
		t.Fatalf("expected yes to parse as true")
	}
	if getenvInt("CS_TEST_INT", 7) != 7 {
		t.Fatalf("expected invalid int to fall back to default")
	}
	if getenvFloat("CS_TEST_FLOAT", 0) != 0.5 {
		t.Fatalf("expected float to parse")
	}
}

func TestLoadTelemetry(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTLP_ENDPOINT", "")
	t.Setenv("OTEL_ENABLED", "")
	t.Setenv("LOG_LEVEL", "DEBUG")

	tel := loadTelemetry()
	if tel.ExportEnabled {
		t.Fatalf("expected export disabled without endpoint")
	}
	if tel.LogLevel != "debug" || tel.OTLPProtocol != "grpc" {
		t.Fatalf("unexpected telemetry defaults %+v", tel)
	}

	t.Setenv("OTLP_ENDPOINT", "collector:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "HTTP")
	tel = loadTelemetry()
	if !tel.ExportEnabled || tel.OTLPEndpoint != "collector:4317" || tel.OTLPProtocol != "http" {
		t.Fatalf("expected endpoint to enable export, got %+v", tel)
	}

	t.Setenv("OTEL_ENABLED", "false")
	if loadTelemetry().ExportEnabled {
		t.Fatalf("expected OTEL_ENABLED=false to win")
	}
}

package observability

import (
	"testing"

	"github.com/smallbiznis/cloudstage/internal/config"
)

func TestNewConfigDefaultsServiceName(t *testing.T) {
	cfg := NewConfig(config.Config{Environment: "production", Telemetry: config.TelemetryConfig{LogLevel: "info"}})
	if cfg.ServiceName != "cloudstage" {
		t.Fatalf("expected default service name, got %q", cfg.ServiceName)
	}
	if cfg.Debug() {
		t.Fatalf("production info level should not be debug")
	}
	if cfg.tracing().Enabled || cfg.metrics().Enabled {
		t.Fatalf("expected exporters disabled")
	}
}

func TestConfigDebugAndExport(t *testing.T) {
	cfg := NewConfig(config.Config{
		AppName:     "cloudstage-api",
		Environment: "production",
		Telemetry: config.TelemetryConfig{
			LogLevel:      "debug",
			OTLPEndpoint:  "collector:4317",
			OTLPProtocol:  "grpc",
			SamplingRatio: 0.5,
			ExportEnabled: true,
		},
	})
	if !cfg.Debug() {
		t.Fatalf("expected debug for debug log level")
	}
	if !cfg.logger().IncludeStackOnError {
		t.Fatalf("expected stack traces in debug")
	}
	tr := cfg.tracing()
	if !tr.Enabled || tr.ExporterEndpoint != "collector:4317" || tr.SamplingRatio != 0.5 || tr.ServiceName != "cloudstage-api" {
		t.Fatalf("unexpected tracing config %+v", tr)
	}
	if NewConfig(config.Config{Environment: "local"}).Debug() != true {
		t.Fatalf("local environment should be debug")
	}
}

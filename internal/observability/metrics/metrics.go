package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes pipeline instruments. A nil *Metrics is valid and records nothing.
type Metrics struct {
	webhookDeliveries metric.Int64Counter
	fulfillments      metric.Int64Counter
	ticketsIssued     metric.Int64Counter
	premiumGrants     metric.Int64Counter
	reconciliations   metric.Int64Counter
	pushDeliveries    metric.Int64Counter
	checkouts         metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New creates the pipeline counters on the given provider.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "cloudstage"
	}
	meter := provider.Meter(name)

	m := &Metrics{}
	counters := []struct {
		target *metric.Int64Counter
		name   string
	}{
		{&m.webhookDeliveries, "cloudstage_webhook_deliveries_total"},
		{&m.fulfillments, "cloudstage_fulfillments_total"},
		{&m.ticketsIssued, "cloudstage_tickets_issued_total"},
		{&m.premiumGrants, "cloudstage_premium_grants_total"},
		{&m.reconciliations, "cloudstage_reconciliation_entries_total"},
		{&m.pushDeliveries, "cloudstage_push_deliveries_total"},
		{&m.checkouts, "cloudstage_checkouts_total"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", c.name, err)
		}
		*c.target = counter
	}
	return m, nil
}

// RecordWebhook counts an inbound webhook delivery by its final outcome
// (rejected, ignored, processed, failed).
func (m *Metrics) RecordWebhook(ctx context.Context, provider, outcome string) {
	observeWebhookOutcome(provider, outcome)
	if m == nil {
		return
	}
	m.webhookDeliveries.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("provider", strings.TrimSpace(provider)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)...))
}

// RecordFulfillment counts the dispatcher outcome for a verified payment.
func (m *Metrics) RecordFulfillment(ctx context.Context, provider, outcome string) {
	if m == nil {
		return
	}
	m.fulfillments.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("provider", strings.TrimSpace(provider)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)...))
}

// RecordTicketIssued counts persisted tickets; duplicates are tagged created=false.
func (m *Metrics) RecordTicketIssued(ctx context.Context, source string, created bool) {
	if m == nil {
		return
	}
	m.ticketsIssued.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("source", strings.TrimSpace(source)),
		attribute.Bool("created", created),
	)...))
}

func (m *Metrics) RecordPremiumGrant(ctx context.Context, provider string) {
	if m == nil {
		return
	}
	m.premiumGrants.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("provider", strings.TrimSpace(provider)),
	)...))
}

// RecordReconciliation counts reconciliation log transitions (recorded, resolved, replay_failed).
func (m *Metrics) RecordReconciliation(ctx context.Context, provider, status string) {
	if m == nil {
		return
	}
	m.reconciliations.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("provider", strings.TrimSpace(provider)),
		attribute.String("status", strings.TrimSpace(status)),
	)...))
}

// RecordPush counts push notification results per token.
func (m *Metrics) RecordPush(ctx context.Context, eventType string, success, failure int) {
	if m == nil {
		return
	}
	if success > 0 {
		m.pushDeliveries.Add(ctx, int64(success), metric.WithAttributes(FilterAttributes(
			attribute.String("event_type", eventType),
			attribute.String("outcome", "sent"),
		)...))
	}
	if failure > 0 {
		m.pushDeliveries.Add(ctx, int64(failure), metric.WithAttributes(FilterAttributes(
			attribute.String("event_type", eventType),
			attribute.String("outcome", "failed"),
		)...))
	}
}

func (m *Metrics) RecordCheckout(ctx context.Context, provider, outcome string) {
	if m == nil {
		return
	}
	m.checkouts.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("provider", strings.TrimSpace(provider)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

// Buyer, order and payment identifiers never become labels.
var allowedLabelKeys = map[attribute.Key]struct{}{
	"provider":    {},
	"outcome":     {},
	"source":      {},
	"created":     {},
	"status":      {},
	"event_type":  {},
	"endpoint":    {},
	"status_code": {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}

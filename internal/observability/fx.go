package observability

import (
	"github.com/smallbiznis/cloudstage/internal/observability/logger"
	"github.com/smallbiznis/cloudstage/internal/observability/metrics"
	"github.com/smallbiznis/cloudstage/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

// Module provides the zap logger, the tracer provider (always built so the
// propagator is installed) and the meter-backed domain and HTTP metrics.
var Module = fx.Module("observability",
	fx.Provide(
		NewConfig,
		func(c Config) logger.Config { return c.logger() },
		func(c Config) tracing.Config { return c.tracing() },
		func(c Config) metrics.Config { return c.metrics() },
		logger.New,
		tracing.NewProvider,
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
	),
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)

package main

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cloudstage/internal/artist"
	"github.com/smallbiznis/cloudstage/internal/audit"
	"github.com/smallbiznis/cloudstage/internal/authorization"
	"github.com/smallbiznis/cloudstage/internal/clock"
	"github.com/smallbiznis/cloudstage/internal/config"
	"github.com/smallbiznis/cloudstage/internal/event"
	"github.com/smallbiznis/cloudstage/internal/notification"
	"github.com/smallbiznis/cloudstage/internal/observability"
	"github.com/smallbiznis/cloudstage/internal/payment"
	"github.com/smallbiznis/cloudstage/internal/providers"
	"github.com/smallbiznis/cloudstage/internal/ratelimit"
	"github.com/smallbiznis/cloudstage/internal/reconciliation"
	"github.com/smallbiznis/cloudstage/internal/ticket"
	"github.com/smallbiznis/cloudstage/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const oneShotTimeout = 5 * time.Minute

func coreModules() fx.Option {
	return fx.Options(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		ratelimit.Module,
		providers.Module,

		// Functional Domains
		authorization.Module,
		audit.Module,
		artist.Module,
		event.Module,
		ticket.Module,
		payment.Module,
		reconciliation.Module,
		notification.Module,

		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
	)
}

// runOneShot starts the core graph, hands the populated targets to fn and
// stops the graph again. No HTTP listener is started.
func runOneShot(ctx context.Context, fn func(ctx context.Context) error, targets ...any) error {
	app := fx.New(
		coreModules(),
		fx.Populate(targets...),
	)
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.StopTimeout())
		defer cancel()
		_ = app.Stop(stopCtx)
	}()

	runCtx, cancelRun := context.WithTimeout(ctx, oneShotTimeout)
	defer cancelRun()
	return fn(runCtx)
}

func RegisterSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
